// Package llm is the call layer for the external model service: an
// OpenAI-compatible chat-completions client with explicit per-request
// statistics and a single capability-probing retry for the optional
// temperature parameter.
package llm

import (
	"sync"
	"time"
)

// Stats accumulates request durations for one scope of work (typically one
// API request handling several model calls). It is passed explicitly to each
// call site rather than living in package state, so concurrent requests never
// contaminate each other's numbers. Safe for concurrent use.
type Stats struct {
	mu        sync.Mutex
	durations []time.Duration
}

// NewStats returns an empty collector.
func NewStats() *Stats { return &Stats{} }

// Record appends one request duration.
func (s *Stats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, d)
}

// Reset discards all recorded durations.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = nil
}

// Snapshot is a point-in-time summary of recorded model calls.
type Snapshot struct {
	TotalRequests int             `json:"total_requests"`
	Total         time.Duration   `json:"total"`
	Average       time.Duration   `json:"average"`
	Min           time.Duration   `json:"min"`
	Max           time.Duration   `json:"max"`
	Requests      []time.Duration `json:"requests"`
}

// Snapshot summarizes the collector. The returned slice is a copy.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.durations) == 0 {
		return Snapshot{Requests: []time.Duration{}}
	}

	out := Snapshot{
		TotalRequests: len(s.durations),
		Min:           s.durations[0],
		Max:           s.durations[0],
		Requests:      append([]time.Duration(nil), s.durations...),
	}
	for _, d := range s.durations {
		out.Total += d
		if d < out.Min {
			out.Min = d
		}
		if d > out.Max {
			out.Max = d
		}
	}
	out.Average = out.Total / time.Duration(len(s.durations))
	return out
}
