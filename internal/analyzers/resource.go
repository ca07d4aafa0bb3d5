package analyzers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// Resource types recognised from metric names.
const (
	ResourceMemory  = "memory"
	ResourceCPU     = "cpu"
	ResourceDisk    = "disk"
	ResourceNetwork = "network"
	ResourceUnknown = "unknown"
)

// DefaultResourceThresholds flag a metric sample as a breach: percentages for
// memory/cpu/disk, milliseconds for network latency.
func DefaultResourceThresholds() map[string]float64 {
	return map[string]float64{
		ResourceMemory:  80,
		ResourceCPU:     85,
		ResourceDisk:    90,
		ResourceNetwork: 1000,
		ResourceUnknown: 75,
	}
}

// resourceImportance scales confidence by how critical a resource is.
var resourceImportance = map[string]float64{
	ResourceMemory:  0.9,
	ResourceCPU:     0.9,
	ResourceDisk:    0.7,
	ResourceNetwork: 0.8,
	ResourceUnknown: 0.5,
}

// resourceCriticality scales impact.
var resourceCriticality = map[string]float64{
	ResourceMemory:  2.0,
	ResourceCPU:     2.0,
	ResourceDisk:    1.5,
	ResourceNetwork: 1.8,
	ResourceUnknown: 1.0,
}

// ResourceAnalyzer finds components breaching the same resource threshold at
// the same time, pointing at contention on a shared resource.
type ResourceAnalyzer struct {
	thresholds         Thresholds
	resourceThresholds map[string]float64
	simultaneityWindow time.Duration
}

// NewResourceAnalyzer constructs the analyzer. Nil resource thresholds fall
// back to the defaults; a non-positive window defaults to one minute.
func NewResourceAnalyzer(thresholds Thresholds, resourceThresholds map[string]float64, window time.Duration) *ResourceAnalyzer {
	if len(resourceThresholds) == 0 {
		resourceThresholds = DefaultResourceThresholds()
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ResourceAnalyzer{
		thresholds:         thresholds,
		resourceThresholds: resourceThresholds,
		simultaneityWindow: window,
	}
}

// Type reports the correlation type this analyzer produces.
func (a *ResourceAnalyzer) Type() models.CorrelationType {
	return models.CorrelationResource
}

// ClassifyResource maps a metric name onto a resource type by substring.
func ClassifyResource(metricName string) string {
	name := strings.ToLower(metricName)
	switch {
	case strings.Contains(name, "memory"), strings.Contains(name, "ram"):
		return ResourceMemory
	case strings.Contains(name, "cpu"), strings.Contains(name, "processor"):
		return ResourceCPU
	case strings.Contains(name, "disk"), strings.Contains(name, "storage"):
		return ResourceDisk
	case strings.Contains(name, "network"), strings.Contains(name, "bandwidth"):
		return ResourceNetwork
	default:
		return ResourceUnknown
	}
}

// Analyze flags threshold breaches from metric snapshots, groups them by
// resource type and component, then looks for simultaneous breaches shared
// by component pairs.
func (a *ResourceAnalyzer) Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error) {
	flagged := make(map[string][]models.ErrorEvent)
	for _, event := range events {
		if len(event.MetricsSnapshot) == 0 {
			continue
		}
		seen := make(map[string]bool)
		for metric, value := range event.MetricsSnapshot {
			resource := ClassifyResource(metric)
			if seen[resource] {
				continue
			}
			if value > a.breachThreshold(resource) {
				flagged[resource] = append(flagged[resource], event)
				seen[resource] = true
			}
		}
	}

	resources := make([]string, 0, len(flagged))
	for resource := range flagged {
		resources = append(resources, resource)
	}
	sort.Strings(resources)

	var correlations []models.ErrorCorrelation
	for _, resource := range resources {
		if err := ctx.Err(); err != nil {
			return correlations, err
		}
		if len(flagged[resource]) < a.thresholds.MinObservations {
			continue
		}
		groups, names := groupByComponent(flagged[resource])
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				if corr, ok := a.correlatePair(resource, names[i], names[j], groups[names[i]], groups[names[j]]); ok {
					correlations = append(correlations, corr)
				}
			}
		}
	}
	return correlations, nil
}

func (a *ResourceAnalyzer) breachThreshold(resource string) float64 {
	if threshold, ok := a.resourceThresholds[resource]; ok {
		return threshold
	}
	return a.resourceThresholds[ResourceUnknown]
}

func (a *ResourceAnalyzer) correlatePair(resource, primary, secondary string, primaryEvents, secondaryEvents []models.ErrorEvent) (models.ErrorCorrelation, bool) {
	windowSeconds := a.simultaneityWindow.Seconds()

	simultaneous := 0
	var lastObserved time.Time
	for _, e1 := range primaryEvents {
		for _, e2 := range secondaryEvents {
			if math.Abs(e2.Timestamp.Sub(e1.Timestamp).Seconds()) <= windowSeconds {
				simultaneous++
				lastObserved = latestTimestamp(lastObserved, e1.Timestamp)
			}
		}
	}

	if simultaneous < a.thresholds.MinObservations {
		return models.ErrorCorrelation{}, false
	}

	smaller := len(primaryEvents)
	if len(secondaryEvents) < smaller {
		smaller = len(secondaryEvents)
	}
	strength := clamp(float64(simultaneous)/float64(smaller), 0, 1)
	confidence := clamp(math.Min(1, float64(simultaneous)/5)*resourceImportance[resource], 0, 1)
	if !a.thresholds.accepts(strength, confidence) {
		return models.ErrorCorrelation{}, false
	}

	impact := math.Min(10, float64(simultaneous)*resourceCriticality[resource])

	return models.ErrorCorrelation{
		ID:                 newCorrelationID(models.CorrelationResource),
		Type:               models.CorrelationResource,
		PrimaryComponent:   primary,
		SecondaryComponent: secondary,
		Strength:           strength,
		Confidence:         confidence,
		TimeWindowSeconds:  (5 * time.Minute).Seconds(),
		Frequency:          simultaneous,
		LastObserved:       lastObserved,
		ImpactScore:        impact,
		PatternDescription: fmt.Sprintf("Resource contention correlation on %s between %s and %s", resource, primary, secondary),
		TriggerConditions:  []string{fmt.Sprintf("High %s usage in %s", resource, primary)},
		PredictedEffects:   []string{fmt.Sprintf("Resource contention affecting %s", secondary)},
		MitigationStrategies: []string{
			fmt.Sprintf("Scale %s resources", resource),
			fmt.Sprintf("Implement %s usage monitoring", resource),
			"Add resource isolation between components",
			fmt.Sprintf("Optimize %s consumption", resource),
		},
		CorrelationCoefficient: strength,
		Significance:           significance(confidence),
		// Simultaneity is the defining property of resource contention.
		TemporalDelaySeconds: 0,
	}, true
}
