package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider keeps instruments in memory. It is meant for tests and small tools
// that want to read counters back without an external backend.
type BasicProvider struct {
	mu         sync.Mutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicUpDownCounter
	histograms map[string]*BasicHistogram
	meta       map[string]InstrumentConfig
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicUpDownCounter),
		histograms: make(map[string]*BasicHistogram),
		meta:       make(map[string]InstrumentConfig),
	}
}

// lookupOrCreate returns m[name], creating it with mk on first use.
func lookupOrCreate[T any](p *BasicProvider, m map[string]*T, name string, opts []InstrumentOption, mk func() *T) *T {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := m[name]; ok {
		return v
	}
	p.meta[name] = applyOptions(opts)
	v := mk()
	m[name] = v
	return v
}

func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return lookupOrCreate(p, p.counters, name, opts, func() *BasicCounter { return &BasicCounter{} })
}

func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return lookupOrCreate(p, p.updowns, name, opts, func() *BasicUpDownCounter { return &BasicUpDownCounter{} })
}

func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return lookupOrCreate(p, p.histograms, name, opts, func() *BasicHistogram { return &BasicHistogram{} })
}

// CounterValue returns the current value of the named counter, or 0 if it was never created.
func (p *BasicProvider) CounterValue(name string) int64 {
	p.mu.Lock()
	c, ok := p.counters[name]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	return c.Snapshot()
}

// UpDownValue returns the current value of the named up/down counter, or 0.
func (p *BasicProvider) UpDownValue(name string) int64 {
	p.mu.Lock()
	u, ok := p.updowns[name]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	return u.Snapshot()
}

// HistogramSnapshot returns a snapshot of the named histogram, or a zero snapshot.
func (p *BasicProvider) HistogramSnapshot(name string) HistSnapshot {
	p.mu.Lock()
	h, ok := p.histograms[name]
	p.mu.Unlock()
	if !ok {
		return HistSnapshot{}
	}
	return h.Snapshot()
}

// BasicCounter is a thread-safe monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

func (c *BasicCounter) Add(n int64)     { c.val.Add(n) }
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a thread-safe up/down counter.
type BasicUpDownCounter struct {
	val atomic.Int64
}

func (u *BasicUpDownCounter) Add(n int64)     { u.val.Add(n) }
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu  sync.Mutex
	cur HistSnapshot
}

// HistSnapshot is an immutable view of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur.Count == 0 || v < h.cur.Min {
		h.cur.Min = v
	}
	if h.cur.Count == 0 || v > h.cur.Max {
		h.cur.Max = v
	}
	h.cur.Count++
	h.cur.Sum += v
}

func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := h.cur
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
