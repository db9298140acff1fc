package cache

// Metrics receives cache lifecycle events. Implementations must be safe for
// concurrent use and must not block.
type Metrics interface {
	// Hit is called when Get finds an entry.
	Hit()

	// Miss is called when Get finds nothing for the key.
	Miss()

	// Fetch is called when a fetch actually starts. Coalesced callers do not
	// produce a Fetch event.
	Fetch()

	// FetchError is called when a fetch fails and the entry keeps its last value.
	FetchError()

	// Discard is called when a fetch result arrives after CancelInFlight and
	// is dropped.
	Discard()
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Fetch()      {}
func (NoopMetrics) FetchError() {}
func (NoopMetrics) Discard()    {}
