package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

func withMetrics(event models.ErrorEvent, metrics map[string]float64) models.ErrorEvent {
	event.MetricsSnapshot = metrics
	return event
}

func TestClassifyResource(t *testing.T) {
	cases := map[string]string{
		"memory_usage":    ResourceMemory,
		"ram_free":        ResourceMemory,
		"cpu_percent":     ResourceCPU,
		"processor_load":  ResourceCPU,
		"disk_io":         ResourceDisk,
		"storage_used":    ResourceDisk,
		"network_latency": ResourceNetwork,
		"bandwidth_used":  ResourceNetwork,
		"open_handles":    ResourceUnknown,
	}
	for metric, want := range cases {
		if got := ClassifyResource(metric); got != want {
			t.Errorf("ClassifyResource(%q) = %q, want %q", metric, got, want)
		}
	}
}

func TestResourceAnalyzerDetectsContention(t *testing.T) {
	analyzer := NewResourceAnalyzer(DefaultThresholds(), nil, time.Minute)
	base := time.Now()

	metrics := map[string]float64{"memory_usage": 92}
	var events []models.ErrorEvent
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * 10 * time.Second)
		events = append(events,
			withMetrics(testEvent("data_processor", "OOMError", models.SeverityCritical, ts), metrics),
			withMetrics(testEvent("performance_monitor", "SlowdownError", models.SeverityHigh, ts.Add(2*time.Second)), metrics),
		)
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 1 {
		t.Fatalf("expected 1 resource correlation, got %d", len(correlations))
	}

	corr := correlations[0]
	if corr.PrimaryComponent != "data_processor" || corr.SecondaryComponent != "performance_monitor" {
		t.Errorf("unexpected pair %s/%s", corr.PrimaryComponent, corr.SecondaryComponent)
	}
	if corr.TemporalDelaySeconds != 0 {
		t.Errorf("resource contention is simultaneous, got delay %v", corr.TemporalDelaySeconds)
	}
	if corr.ImpactScore > 10 {
		t.Errorf("impact exceeds scale: %v", corr.ImpactScore)
	}
}

func TestResourceAnalyzerIgnoresHealthyMetrics(t *testing.T) {
	analyzer := NewResourceAnalyzer(Thresholds{Strength: 0.1, Confidence: 0.1, MinObservations: 1}, nil, time.Minute)
	base := time.Now()

	metrics := map[string]float64{"memory_usage": 40, "cpu_percent": 30}
	events := []models.ErrorEvent{
		withMetrics(testEvent("data_processor", "OOMError", models.SeverityHigh, base), metrics),
		withMetrics(testEvent("performance_monitor", "SlowdownError", models.SeverityHigh, base.Add(time.Second)), metrics),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 0 {
		t.Fatalf("below-threshold metrics must not correlate, got %d", len(correlations))
	}
}

func TestResourceAnalyzerCountsEventOncePerResource(t *testing.T) {
	analyzer := NewResourceAnalyzer(Thresholds{Strength: 0.1, Confidence: 0.1, MinObservations: 6}, nil, time.Minute)
	base := time.Now()

	// Two memory metrics on one event still count as a single memory breach,
	// so the group stays below the six-observation gate.
	metrics := map[string]float64{"memory_usage": 95, "ram_used": 91}
	var events []models.ErrorEvent
	for i := 0; i < 5; i++ {
		events = append(events, withMetrics(testEvent("data_processor", "OOMError", models.SeverityHigh, base.Add(time.Duration(i)*time.Second)), metrics))
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 0 {
		t.Fatalf("duplicate metrics must not double-count breaches, got %d", len(correlations))
	}
}
