package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

func TestDependencyAnalyzerDetectsPropagation(t *testing.T) {
	graph := map[string][]string{"database": {"api_server"}}
	analyzer := NewDependencyAnalyzer(DefaultThresholds(), graph, 30*time.Minute)
	base := time.Now()

	// One database failure followed by three api_server failures.
	events := []models.ErrorEvent{
		testEvent("database", "ConnectionError", models.SeverityCritical, base),
		testEvent("api_server", "TimeoutError", models.SeverityHigh, base.Add(10*time.Second)),
		testEvent("api_server", "TimeoutError", models.SeverityHigh, base.Add(20*time.Second)),
		testEvent("api_server", "TimeoutError", models.SeverityHigh, base.Add(30*time.Second)),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 1 {
		t.Fatalf("expected 1 dependency correlation, got %d", len(correlations))
	}

	corr := correlations[0]
	if corr.PrimaryComponent != "database" || corr.SecondaryComponent != "api_server" {
		t.Errorf("unexpected edge %s -> %s", corr.PrimaryComponent, corr.SecondaryComponent)
	}
	if corr.Strength != 1 {
		t.Errorf("every primary failure propagated, want strength 1, got %v", corr.Strength)
	}
	if corr.TemporalDelaySeconds != 20 {
		t.Errorf("expected 20s average delay, got %v", corr.TemporalDelaySeconds)
	}
}

func TestDependencyAnalyzerCausalOrdering(t *testing.T) {
	graph := map[string][]string{"database": {"api_server"}}
	analyzer := NewDependencyAnalyzer(Thresholds{Strength: 0.1, Confidence: 0.1, MinObservations: 1}, graph, 30*time.Minute)
	base := time.Now()

	// Dependent failures strictly before the primary must not correlate.
	events := []models.ErrorEvent{
		testEvent("api_server", "TimeoutError", models.SeverityHigh, base),
		testEvent("api_server", "TimeoutError", models.SeverityHigh, base.Add(10*time.Second)),
		testEvent("database", "ConnectionError", models.SeverityCritical, base.Add(time.Minute)),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 0 {
		t.Fatalf("reversed ordering should not correlate, got %d", len(correlations))
	}
}

func TestDependencyAnalyzerIgnoresUnknownEdges(t *testing.T) {
	graph := map[string][]string{"database": {"api_server"}}
	analyzer := NewDependencyAnalyzer(Thresholds{Strength: 0.1, Confidence: 0.1, MinObservations: 1}, graph, 30*time.Minute)
	base := time.Now()

	events := []models.ErrorEvent{
		testEvent("web_scraper", "FetchError", models.SeverityMedium, base),
		testEvent("csv_parser", "ParseError", models.SeverityMedium, base.Add(5*time.Second)),
		testEvent("web_scraper", "FetchError", models.SeverityMedium, base.Add(10*time.Second)),
	}

	correlations, err := analyzer.Analyze(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(correlations) != 0 {
		t.Fatalf("components outside the graph should not correlate, got %d", len(correlations))
	}
}
