package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

type fakeSignatureHistory struct {
	clusters map[string][]models.ErrorEvent
}

func (f *fakeSignatureHistory) BySignature(signature string) []models.ErrorEvent {
	return f.clusters[signature]
}

func TestAnomalyAnalyzerDetectsRareCluster(t *testing.T) {
	// Empty history: every signature is rare, so every event is anomalous.
	history := &fakeSignatureHistory{clusters: map[string][]models.ErrorEvent{}}
	analyzer := NewAnomalyAnalyzer(Thresholds{Strength: 0.3, Confidence: 0.5, MinObservations: 3}, history, 30*time.Minute)
	base := time.Now()

	events := []models.ErrorEvent{
		testEvent("database", "CorruptPageError", models.SeverityCritical, base),
		testEvent("api_server", "PanicError", models.SeverityCritical, base.Add(2*time.Minute)),
		testEvent("database", "CorruptIndexError", models.SeverityHigh, base.Add(4*time.Minute)),
		testEvent("logging_system", "WriteStallError", models.SeverityMedium, base.Add(6*time.Minute)),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) == 0 {
		t.Fatalf("expected anomaly correlations from a multi-component cluster")
	}

	corr := correlations[0]
	if corr.Type != models.CorrelationAnomaly {
		t.Errorf("unexpected type %q", corr.Type)
	}
	if corr.PrimaryComponent == corr.SecondaryComponent {
		t.Errorf("anomaly clusters must span components, got %s/%s", corr.PrimaryComponent, corr.SecondaryComponent)
	}
	if corr.Frequency != 1 {
		t.Errorf("an anomaly cluster is a single incident, got frequency %d", corr.Frequency)
	}
}

func TestAnomalyAnalyzerSkipsCommonSignatures(t *testing.T) {
	base := time.Now()
	signature := models.EventSignature("database", "ConnectionError", models.CategorySystem)

	// A busy signature with even spacing: nothing anomalous about one more
	// occurrence on schedule.
	var cluster []models.ErrorEvent
	for i := 0; i < 10; i++ {
		cluster = append(cluster, testEvent("database", "ConnectionError", models.SeverityMedium, base.Add(time.Duration(i)*time.Minute)))
	}
	history := &fakeSignatureHistory{clusters: map[string][]models.ErrorEvent{signature: cluster}}
	analyzer := NewAnomalyAnalyzer(Thresholds{Strength: 0.1, Confidence: 0.1, MinObservations: 1}, history, 30*time.Minute)

	events := []models.ErrorEvent{
		testEvent("database", "ConnectionError", models.SeverityMedium, base.Add(10*time.Minute)),
		testEvent("database", "ConnectionError", models.SeverityMedium, base.Add(11*time.Minute)),
		testEvent("database", "ConnectionError", models.SeverityMedium, base.Add(12*time.Minute)),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 0 {
		t.Fatalf("on-schedule events for a common signature should not be anomalous, got %d", len(correlations))
	}
}

func TestAnomalyAnalyzerRequiresTwoComponents(t *testing.T) {
	history := &fakeSignatureHistory{clusters: map[string][]models.ErrorEvent{}}
	analyzer := NewAnomalyAnalyzer(Thresholds{Strength: 0.1, Confidence: 0.1, MinObservations: 1}, history, 30*time.Minute)
	base := time.Now()

	events := []models.ErrorEvent{
		testEvent("database", "CorruptPageError", models.SeverityCritical, base),
		testEvent("database", "CorruptIndexError", models.SeverityHigh, base.Add(time.Minute)),
		testEvent("database", "CorruptWALError", models.SeverityHigh, base.Add(2*time.Minute)),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 0 {
		t.Fatalf("single-component clusters must not correlate, got %d", len(correlations))
	}
}
