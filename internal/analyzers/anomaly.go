package analyzers

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// DefaultAnomalyWindow clusters anomalous events occurring within half an
// hour of each other.
const DefaultAnomalyWindow = 30 * time.Minute

// rareSignatureLimit marks a signature as rare when it has at most this many
// historical occurrences.
const rareSignatureLimit = 2

// SignatureHistory gives the analyzer access to the full per-signature
// history, which is wider than the scan window.
type SignatureHistory interface {
	BySignature(signature string) []models.ErrorEvent
}

// AnomalyAnalyzer finds clusters of rare or irregularly timed events
// spanning multiple components.
type AnomalyAnalyzer struct {
	thresholds Thresholds
	history    SignatureHistory
	window     time.Duration
}

// NewAnomalyAnalyzer constructs the analyzer; a non-positive window falls
// back to the default anomaly window.
func NewAnomalyAnalyzer(thresholds Thresholds, history SignatureHistory, window time.Duration) *AnomalyAnalyzer {
	if window <= 0 {
		window = DefaultAnomalyWindow
	}
	return &AnomalyAnalyzer{thresholds: thresholds, history: history, window: window}
}

// Type reports the correlation type this analyzer produces.
func (a *AnomalyAnalyzer) Type() models.CorrelationType {
	return models.CorrelationAnomaly
}

// Analyze filters the scan window down to anomalous events, clusters them in
// time, and correlates clusters spanning at least two components.
func (a *AnomalyAnalyzer) Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error) {
	var anomalous []models.ErrorEvent
	for _, event := range events {
		if a.isAnomalous(event) {
			anomalous = append(anomalous, event)
		}
	}
	if len(anomalous) < 2 {
		return nil, nil
	}

	windowSeconds := a.window.Seconds()

	var correlations []models.ErrorCorrelation
	for _, seed := range anomalous {
		if err := ctx.Err(); err != nil {
			return correlations, err
		}

		cluster := []models.ErrorEvent{seed}
		for _, other := range anomalous {
			if other.ID == seed.ID {
				continue
			}
			if math.Abs(other.Timestamp.Sub(seed.Timestamp).Seconds()) <= windowSeconds {
				cluster = append(cluster, other)
			}
		}

		if corr, ok := a.correlateCluster(cluster, windowSeconds); ok {
			correlations = append(correlations, corr)
		}
	}
	return correlations, nil
}

// isAnomalous flags an event when its signature is rare overall, or when its
// gap from the previous same-signature event deviates from the historical
// mean gap by more than a factor of two.
func (a *AnomalyAnalyzer) isAnomalous(event models.ErrorEvent) bool {
	var signatureEvents []models.ErrorEvent
	if a.history != nil {
		signatureEvents = a.history.BySignature(event.Signature)
	}

	if len(signatureEvents) <= rareSignatureLimit {
		return true
	}

	sorted := sortEventsByTime(signatureEvents)
	intervals := make([]float64, 0, len(sorted)-1)
	var previous time.Time
	for i := 1; i < len(sorted); i++ {
		intervals = append(intervals, sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Seconds())
		if sorted[i-1].Timestamp.Before(event.Timestamp) {
			previous = sorted[i-1].Timestamp
		}
	}
	if len(intervals) == 0 || previous.IsZero() {
		return false
	}

	gap := event.Timestamp.Sub(previous).Seconds()
	meanGap := mean(intervals)
	return math.Abs(gap-meanGap) > meanGap*2
}

func (a *AnomalyAnalyzer) correlateCluster(cluster []models.ErrorEvent, windowSeconds float64) (models.ErrorCorrelation, bool) {
	if len(cluster) < 3 {
		return models.ErrorCorrelation{}, false
	}
	components := uniqueComponents(cluster)
	if len(components) < 2 {
		return models.ErrorCorrelation{}, false
	}

	strength := clamp(float64(len(cluster))/10, 0, 1)
	confidence := anomalyConfidence(cluster, components)
	if !a.thresholds.accepts(strength, confidence) {
		return models.ErrorCorrelation{}, false
	}

	severities := make(map[models.Severity]bool)
	var lastObserved time.Time
	offsets := make([]float64, 0, len(cluster)-1)
	for i, event := range cluster {
		severities[event.Severity] = true
		lastObserved = latestTimestamp(lastObserved, event.Timestamp)
		if i > 0 {
			offsets = append(offsets, math.Abs(event.Timestamp.Sub(cluster[0].Timestamp).Seconds()))
		}
	}

	impact := math.Min(10, float64(len(cluster))*float64(len(severities))*0.8)

	return models.ErrorCorrelation{
		ID:                 newCorrelationID(models.CorrelationAnomaly),
		Type:               models.CorrelationAnomaly,
		PrimaryComponent:   components[0],
		SecondaryComponent: components[1],
		Strength:           strength,
		Confidence:         confidence,
		TimeWindowSeconds:  windowSeconds,
		Frequency:          1,
		LastObserved:       lastObserved,
		ImpactScore:        impact,
		PatternDescription: fmt.Sprintf("Correlated anomalous behavior between %s and %s", components[0], components[1]),
		TriggerConditions:  []string{"Unusual system behavior", "Anomalous conditions"},
		PredictedEffects:   []string{"Correlated system anomalies", "Unusual error patterns"},
		MitigationStrategies: []string{
			"Implement advanced anomaly detection",
			"Add alerting for unusual error patterns",
			"Review system changes that might cause anomalies",
			"Implement automated anomaly response",
		},
		CorrelationCoefficient: strength,
		Significance:           significance(confidence),
		TemporalDelaySeconds:   mean(offsets),
	}, true
}

// anomalyConfidence rewards diversity of components and error types relative
// to the cluster size (60%) plus the cluster volume itself (40%).
func anomalyConfidence(cluster []models.ErrorEvent, components []string) float64 {
	types := make(map[string]bool, len(cluster))
	for _, event := range cluster {
		types[event.Type] = true
	}

	diversity := float64(len(components)+len(types)) / float64(2*len(cluster))
	volume := math.Min(1, float64(len(cluster))/5)
	return clamp(diversity*0.6+volume*0.4, 0, 1)
}
