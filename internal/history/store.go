// Package history keeps the bounded in-memory event history the analyzers
// scan. The main buffer is a fixed-capacity ring with FIFO eviction; a
// signature index mirrors it for similarity lookups and applies its own
// per-signature cap so neither structure grows without bound.
package history

import (
	"sync"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

const (
	// DefaultCapacity bounds the main event ring.
	DefaultCapacity = 50000
	// DefaultSignatureCap bounds each signature cluster.
	DefaultSignatureCap = 500
)

// Store is a fixed-capacity, append-only buffer of recent error events plus
// a signature index. Appends and reads are safe for concurrent use; reads
// return copies so analyzers can work on snapshots lock-free.
type Store struct {
	mu           sync.RWMutex
	events       []models.ErrorEvent
	start        int
	count        int
	capacity     int
	bySignature  map[string][]models.ErrorEvent
	signatureCap int
}

// NewStore creates a Store with the given bounds. Non-positive values fall
// back to the defaults.
func NewStore(capacity, signatureCap int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if signatureCap <= 0 {
		signatureCap = DefaultSignatureCap
	}
	return &Store{
		events:       make([]models.ErrorEvent, capacity),
		capacity:     capacity,
		bySignature:  make(map[string][]models.ErrorEvent),
		signatureCap: signatureCap,
	}
}

// Append stores an event, evicting the oldest one when the ring is full.
// The evicted event is also dropped from its signature cluster so both
// structures follow the same retention policy.
func (s *Store) Append(event models.ErrorEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == s.capacity {
		evicted := s.events[s.start]
		s.events[s.start] = event
		s.start = (s.start + 1) % s.capacity
		s.dropFromSignature(evicted)
	} else {
		s.events[(s.start+s.count)%s.capacity] = event
		s.count++
	}

	cluster := append(s.bySignature[event.Signature], event)
	if len(cluster) > s.signatureCap {
		cluster = cluster[len(cluster)-s.signatureCap:]
	}
	s.bySignature[event.Signature] = cluster
}

func (s *Store) dropFromSignature(event models.ErrorEvent) {
	cluster, ok := s.bySignature[event.Signature]
	if !ok {
		return
	}
	for i := range cluster {
		if cluster[i].ID == event.ID {
			cluster = append(cluster[:i], cluster[i+1:]...)
			break
		}
	}
	if len(cluster) == 0 {
		delete(s.bySignature, event.Signature)
		return
	}
	s.bySignature[event.Signature] = cluster
}

// Len reports how many events are currently retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Window returns a copy of all events with since <= timestamp <= until, in
// arrival order.
func (s *Store) Window(since, until time.Time) []models.ErrorEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ErrorEvent, 0, s.count)
	for i := 0; i < s.count; i++ {
		event := s.events[(s.start+i)%s.capacity]
		if event.Timestamp.Before(since) || event.Timestamp.After(until) {
			continue
		}
		out = append(out, event)
	}
	return out
}

// Since returns a copy of all events at or after the cutoff, in arrival order.
func (s *Store) Since(cutoff time.Time) []models.ErrorEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ErrorEvent, 0, s.count)
	for i := 0; i < s.count; i++ {
		event := s.events[(s.start+i)%s.capacity]
		if event.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, event)
	}
	return out
}

// ByComponent returns the component's events inside [since, until].
func (s *Store) ByComponent(component string, since, until time.Time) []models.ErrorEvent {
	events := s.Window(since, until)
	out := events[:0]
	for _, event := range events {
		if event.Component == component {
			out = append(out, event)
		}
	}
	return out
}

// BySignature returns a copy of the signature cluster in arrival order.
func (s *Store) BySignature(signature string) []models.ErrorEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ErrorEvent(nil), s.bySignature[signature]...)
}

// SignatureClusters reports how many distinct signatures are indexed.
func (s *Store) SignatureClusters() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySignature)
}
