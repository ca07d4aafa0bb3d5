package analyzers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// DefaultCascadeWindow bounds how long after the root failure subsequent
// failures still count as part of the same cascade.
const DefaultCascadeWindow = 10 * time.Minute

// expectedCascadeSize normalises cluster size into a strength.
const expectedCascadeSize = 10

// CascadeAnalyzer finds rapid failure chains spreading across at least three
// distinct components.
type CascadeAnalyzer struct {
	thresholds Thresholds
	window     time.Duration
}

// NewCascadeAnalyzer constructs the analyzer; a non-positive window falls
// back to the default cascade window.
func NewCascadeAnalyzer(thresholds Thresholds, window time.Duration) *CascadeAnalyzer {
	if window <= 0 {
		window = DefaultCascadeWindow
	}
	return &CascadeAnalyzer{thresholds: thresholds, window: window}
}

// Type reports the correlation type this analyzer produces.
func (a *CascadeAnalyzer) Type() models.CorrelationType {
	return models.CorrelationCascade
}

// Analyze treats every event as a potential cascade root and collects the
// later events from other components inside the cascade window. Overlapping
// clusters from successive roots are collapsed by the ranker's
// (type, primary, secondary) dedup.
func (a *CascadeAnalyzer) Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error) {
	sorted := sortEventsByTime(events)
	windowSeconds := a.window.Seconds()

	var correlations []models.ErrorCorrelation
	for i, root := range sorted {
		if err := ctx.Err(); err != nil {
			return correlations, err
		}

		cluster := []models.ErrorEvent{root}
		for j := i + 1; j < len(sorted); j++ {
			offset := sorted[j].Timestamp.Sub(root.Timestamp).Seconds()
			if offset > windowSeconds {
				break
			}
			if sorted[j].Component != root.Component {
				cluster = append(cluster, sorted[j])
			}
		}

		if corr, ok := a.correlateCluster(root, cluster, windowSeconds); ok {
			correlations = append(correlations, corr)
		}
	}
	return correlations, nil
}

func (a *CascadeAnalyzer) correlateCluster(root models.ErrorEvent, cluster []models.ErrorEvent, windowSeconds float64) (models.ErrorCorrelation, bool) {
	if len(cluster) < 3 {
		return models.ErrorCorrelation{}, false
	}
	components := uniqueComponents(cluster)
	if len(components) < 3 {
		return models.ErrorCorrelation{}, false
	}

	strength := clamp(float64(len(cluster))/expectedCascadeSize, 0, 1)
	confidence := cascadeConfidence(cluster, components)
	if !a.thresholds.accepts(strength, confidence) {
		return models.ErrorCorrelation{}, false
	}

	offsets := make([]float64, 0, len(cluster)-1)
	for _, event := range cluster[1:] {
		offsets = append(offsets, event.Timestamp.Sub(root.Timestamp).Seconds())
	}

	impact := math.Min(10, float64(len(components))*avgSeverityScore(cluster)*0.8)

	// Secondary records the first two affected components beyond the root.
	secondary := strings.Join(components[1:min(3, len(components))], ",")

	return models.ErrorCorrelation{
		ID:                 newCorrelationID(models.CorrelationCascade),
		Type:               models.CorrelationCascade,
		PrimaryComponent:   root.Component,
		SecondaryComponent: secondary,
		Strength:           strength,
		Confidence:         confidence,
		TimeWindowSeconds:  windowSeconds,
		// Each cascade is a unique incident, not a recurring statistic.
		Frequency:          1,
		LastObserved:       cluster[len(cluster)-1].Timestamp,
		ImpactScore:        impact,
		PatternDescription: fmt.Sprintf("Cascade failure starting from %s", root.Component),
		TriggerConditions:  []string{fmt.Sprintf("%s critical failure", root.Component)},
		PredictedEffects:   []string{fmt.Sprintf("System-wide cascade affecting %d components", len(components))},
		MitigationStrategies: []string{
			"Implement comprehensive circuit breaker pattern",
			"Add bulkhead isolation between critical components",
			"Implement graceful degradation strategies",
			"Add system-wide health monitoring",
			"Consider chaos engineering testing",
		},
		CorrelationCoefficient: strength,
		Significance:           significance(confidence),
		TemporalDelaySeconds:   mean(offsets),
	}, true
}

// cascadeConfidence rewards component diversity (60%) and regular spacing
// between the successive failures (40%): even intervals suggest a real
// cascade rather than coincident noise.
func cascadeConfidence(cluster []models.ErrorEvent, components []string) float64 {
	diversity := math.Min(1, float64(len(components))/5)

	consistency := 0.5
	if len(cluster) > 2 {
		gaps := make([]float64, 0, len(cluster)-1)
		for i := 1; i < len(cluster); i++ {
			gaps = append(gaps, cluster[i].Timestamp.Sub(cluster[i-1].Timestamp).Seconds())
		}
		consistency = timingConsistency(gaps)
	}

	return clamp(diversity*0.6+consistency*0.4, 0, 1)
}

// uniqueComponents lists the cluster's components in first-seen order, so the
// root always comes first.
func uniqueComponents(events []models.ErrorEvent) []string {
	seen := make(map[string]bool, len(events))
	var components []string
	for _, event := range events {
		if !seen[event.Component] {
			seen[event.Component] = true
			components = append(components, event.Component)
		}
	}
	return components
}
