package kafka

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds an Adapter (e.g. SaramaDriver).
type Factory func() Adapter

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func init() {
	Register("sarama", func() Adapter { return &SaramaDriver{} })
}

func Register(name string, f Factory) {
	mu.Lock()
	registry[name] = f
	mu.Unlock()
}

// NewAdapter returns a driver by name. An empty name selects sarama.
func NewAdapter(name string) (Adapter, error) {
	if name == "" {
		name = "sarama"
	}
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if ok {
		return f(), nil
	}
	return nil, fmt.Errorf("kafka: unsupported driver %q (have %v)", name, Drivers())
}

func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
