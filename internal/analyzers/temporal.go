package analyzers

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// DefaultWindows are the temporal scan scales used by the comprehensive
// sweep: immediate cascading, quick propagation, medium-term effects and
// long-term patterns.
var DefaultWindows = []time.Duration{
	30 * time.Second,
	5 * time.Minute,
	15 * time.Minute,
	time.Hour,
}

// TemporalAnalyzer finds time-proximate error pairs between component pairs.
// It is order-agnostic: pairs qualify on absolute time difference.
type TemporalAnalyzer struct {
	thresholds Thresholds
	windows    []time.Duration
}

// NewTemporalAnalyzer constructs the analyzer; nil windows fall back to the
// default scan scales.
func NewTemporalAnalyzer(thresholds Thresholds, windows []time.Duration) *TemporalAnalyzer {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	return &TemporalAnalyzer{thresholds: thresholds, windows: windows}
}

// Type reports the correlation type this analyzer produces.
func (a *TemporalAnalyzer) Type() models.CorrelationType {
	return models.CorrelationTemporal
}

// Analyze scans all configured window scales. Duplicate (primary, secondary)
// hits across scales are resolved later by the ranker.
func (a *TemporalAnalyzer) Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error) {
	var out []models.ErrorCorrelation
	for _, window := range a.windows {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, a.AnalyzeWindow(events, window)...)
	}
	return out, nil
}

// AnalyzeWindow scans a single window scale. The real-time trigger calls this
// directly with its fixed short window.
func (a *TemporalAnalyzer) AnalyzeWindow(events []models.ErrorEvent, window time.Duration) []models.ErrorCorrelation {
	groups, names := groupByComponent(events)
	windowSeconds := window.Seconds()

	var correlations []models.ErrorCorrelation
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if corr, ok := a.correlatePair(names[i], names[j], groups[names[i]], groups[names[j]], windowSeconds); ok {
				correlations = append(correlations, corr)
			}
		}
	}
	return correlations
}

func (a *TemporalAnalyzer) correlatePair(primary, secondary string, primaryEvents, secondaryEvents []models.ErrorEvent, windowSeconds float64) (models.ErrorCorrelation, bool) {
	var (
		deltas       []float64
		pairPrimary  []models.ErrorEvent
		lastObserved time.Time
	)
	for _, e1 := range primaryEvents {
		for _, e2 := range secondaryEvents {
			delta := math.Abs(e2.Timestamp.Sub(e1.Timestamp).Seconds())
			if delta <= windowSeconds {
				deltas = append(deltas, delta)
				pairPrimary = append(pairPrimary, e1)
				lastObserved = latestTimestamp(lastObserved, e1.Timestamp)
			}
		}
	}

	if len(deltas) < a.thresholds.MinObservations {
		return models.ErrorCorrelation{}, false
	}

	strength := temporalStrength(deltas, windowSeconds)
	confidence := temporalConfidence(deltas)
	if !a.thresholds.accepts(strength, confidence) {
		return models.ErrorCorrelation{}, false
	}

	impact := math.Min(10, avgSeverityWeight(pairPrimary)*math.Min(1, float64(len(deltas))/5))

	return models.ErrorCorrelation{
		ID:                 newCorrelationID(models.CorrelationTemporal),
		Type:               models.CorrelationTemporal,
		PrimaryComponent:   primary,
		SecondaryComponent: secondary,
		Strength:           strength,
		Confidence:         confidence,
		TimeWindowSeconds:  windowSeconds,
		Frequency:          len(deltas),
		LastObserved:       lastObserved,
		ImpactScore:        impact,
		PatternDescription: fmt.Sprintf("Temporal correlation between %s and %s errors", primary, secondary),
		TriggerConditions:  []string{fmt.Sprintf("%s error occurrence", primary)},
		PredictedEffects:   []string{fmt.Sprintf("%s error likely within %.0fs", secondary, windowSeconds)},
		MitigationStrategies: []string{
			fmt.Sprintf("Monitor %s for early warning signs", primary),
			fmt.Sprintf("Implement proactive health checks for %s", secondary),
			"Add circuit breakers between correlated components",
			"Consider load balancing to reduce correlation",
		},
		CorrelationCoefficient: strength,
		Significance:           significance(confidence),
		TemporalDelaySeconds:   mean(deltas),
	}, true
}

// temporalStrength weights proximity in time (70%) and observation volume
// normalised to ten pairs (30%).
func temporalStrength(deltas []float64, windowSeconds float64) float64 {
	if len(deltas) == 0 {
		return 0
	}
	proximity := 1 - mean(deltas)/windowSeconds
	volume := math.Min(1, float64(len(deltas))/10)
	return clamp(proximity*0.7+volume*0.3, 0, 1)
}

// temporalConfidence rewards observation volume normalised to five pairs
// (60%) and consistent inter-pair timing (40%).
func temporalConfidence(deltas []float64) float64 {
	if len(deltas) < 2 {
		return 0.5
	}
	volume := math.Min(1, float64(len(deltas))/5)
	return clamp(volume*0.6+timingConsistency(deltas)*0.4, 0, 1)
}
