package analyzers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// DefaultPropagationWindow bounds how long after a primary failure a
// dependent failure still counts as propagation.
const DefaultPropagationWindow = 30 * time.Minute

// DependencyAnalyzer finds error propagation along a known static dependency
// graph. Unlike the temporal analyzer it is causally ordered: the dependent's
// event must occur at or after the primary's.
type DependencyAnalyzer struct {
	thresholds Thresholds
	graph      map[string][]string
	window     time.Duration
}

// NewDependencyAnalyzer constructs the analyzer over the injected
// component -> dependents map. A non-positive window falls back to the
// default propagation window.
func NewDependencyAnalyzer(thresholds Thresholds, graph map[string][]string, window time.Duration) *DependencyAnalyzer {
	if window <= 0 {
		window = DefaultPropagationWindow
	}
	return &DependencyAnalyzer{thresholds: thresholds, graph: graph, window: window}
}

// Type reports the correlation type this analyzer produces.
func (a *DependencyAnalyzer) Type() models.CorrelationType {
	return models.CorrelationDependency
}

// Analyze walks every (primary, dependent) edge of the graph.
func (a *DependencyAnalyzer) Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error) {
	groups, _ := groupByComponent(events)

	primaries := make([]string, 0, len(a.graph))
	for primary := range a.graph {
		primaries = append(primaries, primary)
	}
	sort.Strings(primaries)

	var correlations []models.ErrorCorrelation
	for _, primary := range primaries {
		if err := ctx.Err(); err != nil {
			return correlations, err
		}
		primaryEvents := groups[primary]
		if len(primaryEvents) == 0 {
			continue
		}
		for _, dependent := range a.graph[primary] {
			if corr, ok := a.correlateEdge(primary, dependent, primaryEvents, groups[dependent]); ok {
				correlations = append(correlations, corr)
			}
		}
	}
	return correlations, nil
}

func (a *DependencyAnalyzer) correlateEdge(primary, dependent string, primaryEvents, dependentEvents []models.ErrorEvent) (models.ErrorCorrelation, bool) {
	windowSeconds := a.window.Seconds()

	var (
		delays       []float64
		pairPrimary  []models.ErrorEvent
		lastObserved time.Time
	)
	for _, p := range primaryEvents {
		for _, d := range dependentEvents {
			delay := d.Timestamp.Sub(p.Timestamp).Seconds()
			if delay >= 0 && delay <= windowSeconds {
				delays = append(delays, delay)
				pairPrimary = append(pairPrimary, p)
				lastObserved = latestTimestamp(lastObserved, p.Timestamp)
			}
		}
	}

	if len(delays) < a.thresholds.MinObservations {
		return models.ErrorCorrelation{}, false
	}

	strength := math.Min(1, float64(len(delays))/float64(len(primaryEvents)))
	confidence := dependencyConfidence(delays)
	if !a.thresholds.accepts(strength, confidence) {
		return models.ErrorCorrelation{}, false
	}

	impact := math.Min(10, avgSeverityWeight(pairPrimary)*math.Min(1, float64(len(delays))/5))

	return models.ErrorCorrelation{
		ID:                 newCorrelationID(models.CorrelationDependency),
		Type:               models.CorrelationDependency,
		PrimaryComponent:   primary,
		SecondaryComponent: dependent,
		Strength:           strength,
		Confidence:         confidence,
		TimeWindowSeconds:  windowSeconds,
		Frequency:          len(delays),
		LastObserved:       lastObserved,
		ImpactScore:        impact,
		PatternDescription: fmt.Sprintf("Dependency-based error propagation from %s to %s", primary, dependent),
		TriggerConditions:  []string{fmt.Sprintf("%s component failure", primary)},
		PredictedEffects:   []string{fmt.Sprintf("%s errors due to dependency failure", dependent)},
		MitigationStrategies: []string{
			fmt.Sprintf("Implement graceful degradation in %s", dependent),
			fmt.Sprintf("Add redundancy for %s component", primary),
			"Implement health checks with automatic failover",
			"Consider service mesh for dependency management",
		},
		CorrelationCoefficient: strength,
		Significance:           significance(confidence),
		TemporalDelaySeconds:   mean(delays),
	}, true
}

// dependencyConfidence leans on delay consistency (70%): regular propagation
// delays indicate a real dependency rather than coincidence. Volume
// normalised to three pairs contributes the rest.
func dependencyConfidence(delays []float64) float64 {
	consistency := 0.7
	if len(delays) > 1 {
		consistency = timingConsistency(delays)
	}
	volume := math.Min(1, float64(len(delays))/3)
	return clamp(consistency*0.7+volume*0.3, 0, 1)
}
