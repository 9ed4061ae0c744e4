package kafka

import (
	"sync/atomic"
	"time"
)

// committer decides *when* marked offsets are flushed to the broker. Marking
// happens per record; committing happens at most once per interval.
type committer struct {
	everyNS int64
	lastNS  atomic.Int64
	now     func() time.Time
}

func newCommitter(every time.Duration) *committer {
	return &committer{everyNS: every.Nanoseconds(), now: time.Now}
}

func (c *committer) due() bool {
	now := c.now().UnixNano()
	last := c.lastNS.Load()
	if last+c.everyNS > now {
		return false
	}
	return c.lastNS.CompareAndSwap(last, now)
}
