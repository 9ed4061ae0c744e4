// Package source defines what the pipeline runner pulls SVG frames from.
// Drivers live in sub-packages (kafka, files).
package source

import (
	"context"

	"svgjsx/internal/frame"
)

type EmitFunc func(*frame.Frame) error

// Adapter produces frames until ctx is done or the input is exhausted.
// Run returns nil when a finite source (e.g. a glob of files) runs dry.
type Adapter interface {
	Run(context.Context, EmitFunc) error
	Close() error
}

// AckAware sources want to hear when a sink has durably handled a frame.
type AckAware interface {
	OnAck(*frame.Ack)
}
