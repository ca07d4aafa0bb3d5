package analyzers

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

const (
	// periodicMinEvents is the minimum same-signature group size needed to
	// detect periodicity.
	periodicMinEvents = 4
	// periodicMaxCV is the coefficient-of-variation cutoff below which
	// inter-arrival intervals count as periodic.
	periodicMaxCV = 0.3
)

// PeriodicAnalyzer finds same-signature error patterns recurring at regular
// intervals within a single component. The resulting correlation is a
// self-correlation: secondary equals primary.
type PeriodicAnalyzer struct {
	thresholds Thresholds
}

// NewPeriodicAnalyzer constructs the analyzer.
func NewPeriodicAnalyzer(thresholds Thresholds) *PeriodicAnalyzer {
	return &PeriodicAnalyzer{thresholds: thresholds}
}

// Type reports the correlation type this analyzer produces.
func (a *PeriodicAnalyzer) Type() models.CorrelationType {
	return models.CorrelationPeriodic
}

// Analyze groups events by signature (which already encodes the component)
// and tests each group's inter-arrival intervals for regularity.
func (a *PeriodicAnalyzer) Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error) {
	groups := make(map[string][]models.ErrorEvent)
	for _, event := range events {
		groups[event.Signature] = append(groups[event.Signature], event)
	}

	signatures := make([]string, 0, len(groups))
	for signature := range groups {
		signatures = append(signatures, signature)
	}
	sort.Strings(signatures)

	var correlations []models.ErrorCorrelation
	for _, signature := range signatures {
		if err := ctx.Err(); err != nil {
			return correlations, err
		}
		if corr, ok := a.correlateGroup(groups[signature]); ok {
			correlations = append(correlations, corr)
		}
	}
	return correlations, nil
}

func (a *PeriodicAnalyzer) correlateGroup(group []models.ErrorEvent) (models.ErrorCorrelation, bool) {
	if len(group) < periodicMinEvents {
		return models.ErrorCorrelation{}, false
	}

	sorted := sortEventsByTime(group)
	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		intervals = append(intervals, sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Seconds())
	}

	avgInterval := mean(intervals)
	if avgInterval <= 0 {
		return models.ErrorCorrelation{}, false
	}
	cv := stdDev(intervals) / avgInterval
	if cv >= periodicMaxCV {
		return models.ErrorCorrelation{}, false
	}

	strength := clamp(1-math.Min(1, cv), 0, 1)
	confidence := math.Min(1, float64(len(intervals))/10)
	if !a.thresholds.accepts(strength, confidence) {
		return models.ErrorCorrelation{}, false
	}

	component := sorted[0].Component
	impact := math.Min(5, float64(len(sorted))/2) * avgSeverityScore(sorted) * 0.5

	return models.ErrorCorrelation{
		ID:                 newCorrelationID(models.CorrelationPeriodic),
		Type:               models.CorrelationPeriodic,
		PrimaryComponent:   component,
		SecondaryComponent: component,
		Strength:           strength,
		Confidence:         confidence,
		TimeWindowSeconds:  avgInterval,
		Frequency:          len(sorted),
		LastObserved:       sorted[len(sorted)-1].Timestamp,
		ImpactScore:        clamp(impact, 0, 10),
		PatternDescription: fmt.Sprintf("Periodic error pattern in %s (interval: %.0fs)", component, avgInterval),
		TriggerConditions:  []string{"Time-based trigger", "Scheduled process execution"},
		PredictedEffects:   []string{fmt.Sprintf("Next occurrence expected around %.0fs intervals", avgInterval)},
		MitigationStrategies: []string{
			fmt.Sprintf("Investigate processes running every %.0f seconds", avgInterval),
			"Review scheduled tasks and cron jobs",
			"Implement staggered execution to reduce load spikes",
			"Add monitoring for periodic resource usage",
		},
		CorrelationCoefficient: strength,
		Significance:           significance(confidence),
		TemporalDelaySeconds:   avgInterval,
	}, true
}
