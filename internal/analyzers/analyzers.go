// Package analyzers holds the six correlation detectors. Each analyzer scans
// a snapshot of error events and emits candidate correlations; candidates are
// only constructed when both strength and confidence clear the configured
// thresholds, and the ranker re-validates before registry insertion.
package analyzers

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// Thresholds gates candidate construction across all analyzers.
type Thresholds struct {
	Strength        float64
	Confidence      float64
	MinObservations int
}

// DefaultThresholds mirrors the engine defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Strength: 0.7, Confidence: 0.6, MinObservations: 3}
}

func (t Thresholds) accepts(strength, confidence float64) bool {
	return strength >= t.Strength && confidence >= t.Confidence
}

func newCorrelationID(corrType models.CorrelationType) string {
	return string(corrType) + "-" + uuid.NewString()
}

// significance is the heuristic proxy recorded on every correlation.
func significance(confidence float64) float64 {
	return math.Max(0.01, 1-confidence)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation; it returns 0 for fewer than two
// samples.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// timingConsistency scores how regular a series of gaps is: 1 for perfectly
// even spacing, falling toward 0 as the spread grows. Fewer than two samples
// score the neutral 0.5.
func timingConsistency(gaps []float64) float64 {
	if len(gaps) < 2 {
		return 0.5
	}
	m := mean(gaps)
	return 1 - math.Min(1, stdDev(gaps)/math.Max(m, 1))
}

// groupByComponent buckets events per component and returns the component
// names sorted for deterministic pair iteration.
func groupByComponent(events []models.ErrorEvent) (map[string][]models.ErrorEvent, []string) {
	groups := make(map[string][]models.ErrorEvent)
	for _, event := range events {
		groups[event.Component] = append(groups[event.Component], event)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return groups, names
}

func sortEventsByTime(events []models.ErrorEvent) []models.ErrorEvent {
	sorted := append([]models.ErrorEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

func latestTimestamp(current, candidate time.Time) time.Time {
	if candidate.After(current) {
		return candidate
	}
	return current
}

// avgSeverityWeight averages the 0-10 severity weights of the given events.
func avgSeverityWeight(events []models.ErrorEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	sum := 0.0
	for _, event := range events {
		sum += event.Severity.Weight()
	}
	return sum / float64(len(events))
}

// avgSeverityScore averages the 1-4 severity scores of the given events.
func avgSeverityScore(events []models.ErrorEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	sum := 0.0
	for _, event := range events {
		sum += event.Severity.Score()
	}
	return sum / float64(len(events))
}
