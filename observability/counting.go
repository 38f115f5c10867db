package observability

import (
	"context"
	"sync"
)

// CountingObserver tallies events per type. It is safe for concurrent use.
type CountingObserver struct {
	mu     sync.Mutex
	counts map[EventType]int
	last   map[EventType]Event
}

// NewCountingObserver creates an empty CountingObserver.
func NewCountingObserver() *CountingObserver {
	return &CountingObserver{
		counts: make(map[EventType]int),
		last:   make(map[EventType]Event),
	}
}

func (c *CountingObserver) OnEvent(_ context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event.Type]++
	c.last[event.Type] = event
}

// Count returns how many events of the given type were observed.
func (c *CountingObserver) Count(typ EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[typ]
}

// Last returns the most recent event of the given type.
func (c *CountingObserver) Last(typ EventType) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.last[typ]
	return e, ok
}

// Snapshot copies the current counts.
func (c *CountingObserver) Snapshot() map[EventType]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[EventType]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Reset forgets everything observed so far.
func (c *CountingObserver) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[EventType]int)
	c.last = make(map[EventType]Event)
}
