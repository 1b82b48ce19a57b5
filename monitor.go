package orbix

import (
	"sync"
	"time"
)

// Attempt is one orchestrated call outcome: either a network attempt for
// a single endpoint or the aggregate record of a whole operation. Records
// are never mutated after insertion, which keeps the monitor's locking to
// a single mutex around appends and snapshots.
type Attempt struct {
	Endpoint   string
	Method     string
	StartedAt  time.Time
	Duration   time.Duration
	Success    bool
	Cached     bool
	StatusCode int
	ErrorKind  string
}

// Stats summarizes a set of attempt records. SuccessRate and
// CacheHitRate are percentages in [0, 100].
type Stats struct {
	TotalRequests int
	AvgDuration   time.Duration
	SuccessRate   float64
	CacheHitRate  float64
	Fastest       time.Duration
	Slowest       time.Duration
}

type endpointAggregate struct {
	count   int
	success int
	cached  int
	total   time.Duration
	fastest time.Duration
	slowest time.Duration
}

// PerformanceMonitor keeps a bounded, oldest-evicted-first history of
// attempt records plus running per-endpoint aggregates. Safe for
// concurrent use.
type PerformanceMonitor struct {
	mu        sync.Mutex
	records   []Attempt
	capacity  int
	endpoints map[string]*endpointAggregate
}

// NewPerformanceMonitor creates a monitor retaining at most capacity
// records. Zero or negative capacity defaults to 1000.
func NewPerformanceMonitor(capacity int) *PerformanceMonitor {
	if capacity <= 0 {
		capacity = 1000
	}
	return &PerformanceMonitor{
		records:   make([]Attempt, 0, capacity),
		capacity:  capacity,
		endpoints: make(map[string]*endpointAggregate),
	}
}

// Record appends an attempt, evicting the oldest record once capacity is
// reached, and folds it into the endpoint aggregates.
func (m *PerformanceMonitor) Record(a Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) == m.capacity {
		copy(m.records, m.records[1:])
		m.records[len(m.records)-1] = a
	} else {
		m.records = append(m.records, a)
	}

	agg, ok := m.endpoints[a.Endpoint]
	if !ok {
		agg = &endpointAggregate{fastest: a.Duration, slowest: a.Duration}
		m.endpoints[a.Endpoint] = agg
	}
	agg.count++
	agg.total += a.Duration
	if a.Success {
		agg.success++
	}
	if a.Cached {
		agg.cached++
	}
	if a.Duration < agg.fastest {
		agg.fastest = a.Duration
	}
	if a.Duration > agg.slowest {
		agg.slowest = a.Duration
	}
}

// Stats computes summary statistics over the most recent lastN records.
// lastN <= 0 means all retained records.
func (m *PerformanceMonitor) Stats(lastN int) Stats {
	m.mu.Lock()
	recent := m.records
	if lastN > 0 && len(recent) > lastN {
		recent = recent[len(recent)-lastN:]
	}
	snapshot := make([]Attempt, len(recent))
	copy(snapshot, recent)
	m.mu.Unlock()

	return computeStats(snapshot)
}

// EndpointStats returns summary statistics grouped by endpoint
// identifier, computed from the running aggregates over all records ever
// recorded since the last Clear.
func (m *PerformanceMonitor) EndpointStats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Stats, len(m.endpoints))
	for endpoint, agg := range m.endpoints {
		s := Stats{
			TotalRequests: agg.count,
			Fastest:       agg.fastest,
			Slowest:       agg.slowest,
		}
		if agg.count > 0 {
			s.AvgDuration = agg.total / time.Duration(agg.count)
			s.SuccessRate = float64(agg.success) / float64(agg.count) * 100
			s.CacheHitRate = float64(agg.cached) / float64(agg.count) * 100
		}
		out[endpoint] = s
	}
	return out
}

// Clear resets history and aggregates to empty.
func (m *PerformanceMonitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = m.records[:0]
	m.endpoints = make(map[string]*endpointAggregate)
}

func computeStats(records []Attempt) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	s := Stats{
		TotalRequests: len(records),
		Fastest:       records[0].Duration,
		Slowest:       records[0].Duration,
	}

	var total time.Duration
	success, cached := 0, 0
	for _, a := range records {
		total += a.Duration
		if a.Success {
			success++
		}
		if a.Cached {
			cached++
		}
		if a.Duration < s.Fastest {
			s.Fastest = a.Duration
		}
		if a.Duration > s.Slowest {
			s.Slowest = a.Duration
		}
	}

	s.AvgDuration = total / time.Duration(len(records))
	s.SuccessRate = float64(success) / float64(len(records)) * 100
	s.CacheHitRate = float64(cached) / float64(len(records)) * 100
	return s
}
