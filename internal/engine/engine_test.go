package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

type alertRecorder struct {
	mu     sync.Mutex
	alerts []models.ErrorCorrelation
}

func (r *alertRecorder) record(corr models.ErrorCorrelation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, corr)
}

func (r *alertRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func ingestBurst(engine *Engine, base time.Time) {
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * 10 * time.Second
		engine.Ingest(models.IngestRequest{
			Component: "database",
			Type:      "ConnectionError",
			Severity:  "critical",
			Category:  "network",
			Timestamp: base.Add(offset),
		})
		engine.Ingest(models.IngestRequest{
			Component: "api_server",
			Type:      "TimeoutError",
			Severity:  "critical",
			Category:  "network",
			Timestamp: base.Add(offset + 5*time.Second),
		})
	}
}

func TestEngineIngestAssignsID(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)

	id := engine.Ingest(models.IngestRequest{
		Component: "database",
		Type:      "ConnectionError",
		Severity:  "not-a-severity",
	})
	if !strings.HasPrefix(id, "evt-") {
		t.Fatalf("expected evt- prefixed ID, got %q", id)
	}

	stats := engine.GetStatistics()
	if stats.TotalEventsRecorded != 1 {
		t.Errorf("expected 1 recorded event, got %d", stats.TotalEventsRecorded)
	}
	if stats.SignatureClusters != 1 {
		t.Errorf("expected 1 signature cluster, got %d", stats.SignatureClusters)
	}
}

func TestEngineRealtimeAlert(t *testing.T) {
	recorder := &alertRecorder{}
	engine := NewEngine(Config{AlertImpactThreshold: 7}, nil, recorder.record)

	ingestBurst(engine, time.Now().Add(-30*time.Second))

	if recorder.count() == 0 {
		t.Fatalf("expected real-time alert for high-impact temporal correlation")
	}
	if len(engine.GetActiveCorrelations("temporal", 0)) == 0 {
		t.Fatalf("real-time scan should have registered a temporal correlation")
	}
}

func TestEngineComprehensiveAnalysis(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)
	ingestBurst(engine, time.Now().Add(-5*time.Minute))

	report := engine.RunComprehensiveAnalysis(context.Background(), 24)

	if report.TotalEventsAnalyzed != 6 {
		t.Fatalf("expected 6 analyzed events, got %d", report.TotalEventsAnalyzed)
	}
	if len(report.Correlations) == 0 {
		t.Fatalf("expected correlations from the temporal burst")
	}
	if len(report.Errors) != 0 {
		t.Fatalf("no analyzer should have failed: %v", report.Errors)
	}

	for _, corr := range report.Correlations {
		if corr.Strength < 0 || corr.Strength > 1 {
			t.Errorf("strength out of range: %v", corr.Strength)
		}
		if corr.Confidence < 0 || corr.Confidence > 1 {
			t.Errorf("confidence out of range: %v", corr.Confidence)
		}
		if corr.ImpactScore < 0 || corr.ImpactScore > 10 {
			t.Errorf("impact out of range: %v", corr.ImpactScore)
		}
		if corr.Significance < 0.01 {
			t.Errorf("significance below floor: %v", corr.Significance)
		}
	}

	if report.Summary.TotalCorrelations != len(report.Correlations) {
		t.Errorf("summary total mismatch: %d vs %d", report.Summary.TotalCorrelations, len(report.Correlations))
	}
	if len(report.Recommendations) == 0 {
		t.Errorf("expected recommendations")
	}
	if _, ok := report.ComponentImpacts["database"]; !ok {
		t.Errorf("component impacts should cover database")
	}
	if report.Performance.EventsPerSecond <= 0 {
		t.Errorf("expected positive throughput figure")
	}
}

func TestEngineAnalysisInsufficientEvents(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)
	engine.Ingest(models.IngestRequest{Component: "database", Type: "ConnectionError"})

	report := engine.RunComprehensiveAnalysis(context.Background(), 24)
	if report.Message != "Insufficient events for correlation analysis" {
		t.Fatalf("unexpected message %q", report.Message)
	}
	if len(report.Correlations) != 0 {
		t.Errorf("no correlations expected, got %d", len(report.Correlations))
	}
}

func TestEngineAnalysisCancelledContext(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)
	ingestBurst(engine, time.Now().Add(-5*time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := engine.RunComprehensiveAnalysis(ctx, 24)
	if len(report.Errors) == 0 {
		t.Fatalf("cancelled sweep should record an error")
	}
}

func TestEngineStatisticsAfterSweep(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)
	ingestBurst(engine, time.Now().Add(-5*time.Minute))
	engine.RunComprehensiveAnalysis(context.Background(), 24)

	stats := engine.GetStatistics()
	if stats.TotalEventsRecorded != 6 {
		t.Errorf("expected 6 events, got %d", stats.TotalEventsRecorded)
	}
	if stats.AnalysisRunCount != 1 {
		t.Errorf("expected 1 analysis run, got %d", stats.AnalysisRunCount)
	}
	if stats.ActiveCorrelations == 0 {
		t.Errorf("expected active correlations after sweep")
	}
	if stats.TotalCorrelationsDetected < stats.ActiveCorrelations {
		t.Errorf("cumulative detections (%d) can never trail active entries (%d)",
			stats.TotalCorrelationsDetected, stats.ActiveCorrelations)
	}
	if stats.Configuration.CorrelationThreshold != 0.7 || stats.Configuration.ConfidenceThreshold != 0.6 {
		t.Errorf("configuration echo mismatch: %+v", stats.Configuration)
	}
	if stats.Configuration.MaxTimeWindowSeconds != 3600 {
		t.Errorf("expected 3600s max window, got %v", stats.Configuration.MaxTimeWindowSeconds)
	}
}

func TestEngineGetActiveCorrelationsFilter(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)
	ingestBurst(engine, time.Now().Add(-5*time.Minute))
	engine.RunComprehensiveAnalysis(context.Background(), 24)

	all := engine.GetActiveCorrelations("", 0)
	temporal := engine.GetActiveCorrelations("temporal", 0)
	if len(temporal) == 0 || len(temporal) > len(all) {
		t.Fatalf("temporal filter out of bounds: %d of %d", len(temporal), len(all))
	}
	for _, corr := range temporal {
		if corr.Type != models.CorrelationTemporal {
			t.Errorf("filter leaked type %q", corr.Type)
		}
	}

	none := engine.GetActiveCorrelations("", 99)
	if len(none) != 0 {
		t.Errorf("impossible impact floor should match nothing, got %d", len(none))
	}
}
