package engine

import (
	"sync"
	"time"
)

// analysisStats keeps a running average of full-sweep durations.
type analysisStats struct {
	mu        sync.Mutex
	runs      int
	avgMillis float64
}

func (s *analysisStats) record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	millis := float64(d.Milliseconds())
	s.runs++
	s.avgMillis += (millis - s.avgMillis) / float64(s.runs)
}

func (s *analysisStats) snapshot() (runs int, avgMillis float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.avgMillis
}
