package llm

import (
	"sync/atomic"
	"time"
)

// Metrics tracks calls to the completion API
type Metrics struct {
	calls   atomic.Int64
	errors  atomic.Int64
	latency atomic.Int64 // Total latency in nanoseconds
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	Calls            int64   `json:"calls"`
	Errors           int64   `json:"errors"`
	AverageLatencyMs float64 `json:"avg_latency_ms"`
}

func (m *Metrics) record(duration time.Duration, err error) {
	m.calls.Add(1)
	m.latency.Add(duration.Nanoseconds())
	if err != nil {
		m.errors.Add(1)
	}
}

// Snapshot returns the current values
func (m *Metrics) Snapshot() MetricsSnapshot {
	calls := m.calls.Load()
	s := MetricsSnapshot{
		Calls:  calls,
		Errors: m.errors.Load(),
	}
	if calls > 0 {
		s.AverageLatencyMs = float64(m.latency.Load()) / float64(calls) / float64(time.Millisecond)
	}
	return s
}
