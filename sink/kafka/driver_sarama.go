// Package kafka publishes converted JSX frames to a Kafka topic.
package kafka

import (
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"svgjsx/internal/frame"
	"svgjsx/internal/logging"
	"svgjsx/sink"
)

type Config struct {
	Brokers []string
	Topic   string
	Acks    int16 // 0,1,-1
}

var ErrClosed = errors.New("kafka-sink: closed")

type driver struct {
	cfg Config
	ack sink.EmitFn

	mu     sync.Mutex // guards p+closed
	p      sarama.AsyncProducer
	closed bool

	done chan struct{}
}

// newProducer is swapped in tests.
var newProducer = func(brokers []string, sc *sarama.Config) (sarama.AsyncProducer, error) {
	return sarama.NewAsyncProducer(brokers, sc)
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	if cfg.Topic == "" || len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka-sink: brokers and topic are required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.ClientID = "svgjsx"
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	p, err := newProducer(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.p, d.closed = p, false
	d.mu.Unlock()
	d.done = make(chan struct{})
	go d.drain(p)
	return nil
}

func (d *driver) Push(f *frame.Frame) error {
	msg := &sarama.ProducerMessage{
		Topic:    d.cfg.Topic,
		Key:      sarama.ByteEncoder(f.Key),
		Value:    sarama.ByteEncoder(f.Value),
		Metadata: f.Checkpoint,
	}
	for k, v := range f.Headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(k), Value: v})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.p == nil {
		return ErrClosed
	}
	d.p.Input() <- msg
	return nil
}

// drain acks each delivered message back to the source and logs failures.
func (d *driver) drain(p sarama.AsyncProducer) {
	defer close(d.done)
	log := logging.For("kafka-sink")
	succ, errs := p.Successes(), p.Errors()
	for succ != nil || errs != nil {
		select {
		case m, ok := <-succ:
			if !ok {
				succ = nil
				continue
			}
			if cp, _ := m.Metadata.(*frame.Checkpoint); cp != nil && d.ack != nil {
				d.ack(cp)
			}
		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Error("publish failed", "topic", d.cfg.Topic, "err", e.Err)
		}
	}
}

func (d *driver) BindAck(fn sink.EmitFn) { d.ack = fn }

// Close flushes in-flight messages. Push fails with ErrClosed afterwards.
func (d *driver) Close() error {
	d.mu.Lock()
	p := d.p
	d.p, d.closed = nil, true
	d.mu.Unlock()
	if p == nil {
		return nil
	}
	p.AsyncClose()
	<-d.done
	return nil
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
