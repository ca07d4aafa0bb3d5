package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// Registry holds the accepted correlations plus running detection counters.
// At most one correlation occupies a (type, primary, secondary) slot; on a
// collision the higher strength wins. The registry is bounded: when full it
// evicts the entry with the oldest supporting observation, and entries past
// the optional TTL are pruned on access.
type Registry struct {
	mu            sync.RWMutex
	byKey         map[string]models.ErrorCorrelation
	maxEntries    int
	ttl           time.Duration
	countsByType  map[models.CorrelationType]int
	totalDetected int
}

// NewRegistry creates a Registry holding at most maxEntries correlations
// (non-positive means 1000) with an optional TTL (zero disables pruning).
func NewRegistry(maxEntries int, ttl time.Duration) *Registry {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Registry{
		byKey:        make(map[string]models.ErrorCorrelation),
		maxEntries:   maxEntries,
		ttl:          ttl,
		countsByType: make(map[models.CorrelationType]int),
	}
}

// Insert records a detected correlation. It returns true when the
// correlation became (or replaced) the active entry for its key, false when
// a stronger entry already held the slot.
func (r *Registry) Insert(corr models.ErrorCorrelation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalDetected++
	r.countsByType[corr.Type]++
	r.pruneLocked(time.Now())

	key := corr.Key()
	if existing, ok := r.byKey[key]; ok && existing.Strength > corr.Strength {
		return false
	}
	r.byKey[key] = corr

	if len(r.byKey) > r.maxEntries {
		r.evictOldestLocked()
	}
	return true
}

func (r *Registry) pruneLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	cutoff := now.Add(-r.ttl)
	for key, corr := range r.byKey {
		if corr.LastObserved.Before(cutoff) {
			delete(r.byKey, key)
		}
	}
}

func (r *Registry) evictOldestLocked() {
	var (
		oldestKey  string
		oldestSeen time.Time
		first      = true
	)
	for key, corr := range r.byKey {
		if first || corr.LastObserved.Before(oldestSeen) {
			oldestKey = key
			oldestSeen = corr.LastObserved
			first = false
		}
	}
	if oldestKey != "" {
		delete(r.byKey, oldestKey)
	}
}

// Active returns the current correlations, optionally filtered by type and
// minimum impact score, sorted by impact descending.
func (r *Registry) Active(corrType string, minImpact float64) []models.ErrorCorrelation {
	snapshot := r.Snapshot()

	out := snapshot[:0]
	for _, corr := range snapshot {
		if corrType != "" && string(corr.Type) != corrType {
			continue
		}
		if corr.ImpactScore < minImpact {
			continue
		}
		out = append(out, corr)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImpactScore > out[j].ImpactScore
	})
	return out
}

// Snapshot copies the active correlations under a brief lock so callers can
// work on them lock-free.
func (r *Registry) Snapshot() []models.ErrorCorrelation {
	r.mu.Lock()
	r.pruneLocked(time.Now())
	out := make([]models.ErrorCorrelation, 0, len(r.byKey))
	for _, corr := range r.byKey {
		out = append(out, corr)
	}
	r.mu.Unlock()
	return out
}

// Len reports the number of active correlations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// CountsByType copies the cumulative per-type detection counters.
func (r *Registry) CountsByType() map[models.CorrelationType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[models.CorrelationType]int, len(r.countsByType))
	for corrType, count := range r.countsByType {
		out[corrType] = count
	}
	return out
}

// TotalDetected reports how many correlations have been detected over the
// process lifetime, including replacements.
func (r *Registry) TotalDetected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalDetected
}
