package kafka

import (
	"svgjsx/source"
)

type EmitFunc = source.EmitFunc

// Adapter is a Kafka consumer driver; it is configured from Config before
// the runner calls Run.
type Adapter interface {
	source.Adapter
	Configure(Config) error
}
