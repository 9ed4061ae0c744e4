// Package frame holds the unit of work that flows from a source, through the
// converter stages, to the sinks.
package frame

import (
	"fmt"
	"time"
)

// ModeHeader, when present on a frame, overrides a stage's output mode.
const ModeHeader = "svgjsx-mode"

type KafkaOffset struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Checkpoint identifies where a frame came from so a sink can ack it back.
// Exactly one field is set.
type Checkpoint struct {
	Kafka *KafkaOffset
	File  string
}

func (c *Checkpoint) GetKafka() *KafkaOffset {
	if c == nil {
		return nil
	}
	return c.Kafka
}

func (c *Checkpoint) String() string {
	switch {
	case c == nil:
		return "-"
	case c.Kafka != nil:
		return fmt.Sprintf("%s[%d]@%d", c.Kafka.Topic, c.Kafka.Partition, c.Kafka.Offset)
	default:
		return c.File
	}
}

type Frame struct {
	Key        []byte
	Value      []byte
	Headers    map[string][]byte
	Ts         time.Time
	Checkpoint *Checkpoint
}

// Clone copies f with a new value; headers and checkpoint are shared.
func (f *Frame) Clone(value []byte) *Frame {
	c := *f
	c.Value = value
	return &c
}

type Ack struct {
	Checkpoint *Checkpoint
}
