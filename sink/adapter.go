package sink

import (
	"fmt"
	"sort"
	"sync"

	"svgjsx/internal/frame"
)

// EmitFn is what a sink calls to tell the pipeline a frame (or a batch of
// frames) has been durably handled.
type EmitFn func(*frame.Checkpoint)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error     // driver-specific config struct
	Push(*frame.Frame) error // consume one converted frame
	Close() error            // idempotent
}

// AckAware is optional; the compiler wires the callback when a sink
// implements it. Sinks that do not are acked by the runner after Push.
type AckAware interface {
	BindAck(EmitFn)
}

type factory = func() Adapter

var (
	mu  sync.RWMutex
	reg = map[string]factory{}
)

func Register(name string, f factory) {
	mu.Lock()
	reg[name] = f
	mu.Unlock()
}

func NewAdapter(name string) (Adapter, error) {
	mu.RLock()
	f, ok := reg[name]
	mu.RUnlock()
	if ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q (have %v)", name, Names())
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
