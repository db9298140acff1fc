package mutation

import "sync"

// Metrics receives mutation lifecycle events. Implementations must be safe
// for concurrent use.
type Metrics interface {
	Started(kind string)
	Succeeded(kind string)
	Failed(kind string)
	Settled(kind string)
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Started(string)   {}
func (NoopMetrics) Succeeded(string) {}
func (NoopMetrics) Failed(string)    {}
func (NoopMetrics) Settled(string)   {}

// Counts is a snapshot of the events recorded for one kind.
type Counts struct {
	Started   int
	Succeeded int
	Failed    int
	Settled   int
}

// Counters records events per kind in memory.
type Counters struct {
	mu     sync.Mutex
	byKind map[string]Counts
}

func (c *Counters) bump(kind string, fn func(*Counts)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byKind == nil {
		c.byKind = make(map[string]Counts)
	}
	counts := c.byKind[kind]
	fn(&counts)
	c.byKind[kind] = counts
}

func (c *Counters) Started(kind string)   { c.bump(kind, func(n *Counts) { n.Started++ }) }
func (c *Counters) Succeeded(kind string) { c.bump(kind, func(n *Counts) { n.Succeeded++ }) }
func (c *Counters) Failed(kind string)    { c.bump(kind, func(n *Counts) { n.Failed++ }) }
func (c *Counters) Settled(kind string)   { c.bump(kind, func(n *Counts) { n.Settled++ }) }

// Get returns the counts recorded for kind.
func (c *Counters) Get(kind string) Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byKind[kind]
}
