package kafka

import (
	"sync"
)

// Controller caps how many records may be in the pipeline without an ack.
type Controller struct {
	capacity int64

	mu       sync.Mutex
	inFlight int64
}

func NewController(capacity int64) *Controller {
	if capacity <= 0 {
		capacity = 1
	}
	return &Controller{capacity: capacity}
}

func (c *Controller) TryAcquire(n int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight+n > c.capacity {
		return false
	}
	c.inFlight += n
	return true
}

func (c *Controller) Release(n int64) {
	c.mu.Lock()
	c.inFlight -= n
	if c.inFlight < 0 {
		c.inFlight = 0
	}
	c.mu.Unlock()
}

func (c *Controller) InFlight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
