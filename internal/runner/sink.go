package runner

import (
	"sync"
)

// Recorder receives finished results from workers.
type Recorder interface {
	Append(Result)
}

// Sink is the append-only result set shared by all workers of a run.
type Sink struct {
	mu      sync.Mutex
	results []Result
}

func NewSink() *Sink {
	return &Sink{results: make([]Result, 0, 1024)}
}

func (s *Sink) Append(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// Snapshot returns every result appended so far. Elements below the current
// length are never written again, so the returned slice is shared rather than
// copied; its capacity is clipped so callers cannot append into the backing array.
func (s *Sink) Snapshot() []Result {
	s.mu.Lock()
	n := len(s.results)
	snap := s.results[:n:n]
	s.mu.Unlock()
	return snap
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
