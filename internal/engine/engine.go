// Package engine wires the event history, the six correlation analyzers, the
// ranker and the correlation registry into a single handle. Producers call
// Ingest concurrently; a cheap temporal-only scan runs inline on every ingest
// and the full six-analyzer sweep runs on demand or on a schedule.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelstack/sentinel-correlate/internal/analyzers"
	"github.com/sentinelstack/sentinel-correlate/internal/history"
	"github.com/sentinelstack/sentinel-correlate/internal/metrics"
	"github.com/sentinelstack/sentinel-correlate/internal/models"
	"github.com/sentinelstack/sentinel-correlate/internal/utils"
)

// Config tunes the correlation engine. Zero values fall back to the
// defaults from DefaultConfig.
type Config struct {
	HistoryCapacity      int
	SignatureClusterCap  int
	CorrelationThreshold float64
	ConfidenceThreshold  float64
	MinObservations      int
	AnalysisWindows      []time.Duration
	RealtimeWindow       time.Duration
	DependencyMap        map[string][]string
	PropagationWindow    time.Duration
	ResourceThresholds   map[string]float64
	SimultaneityWindow   time.Duration
	CascadeWindow        time.Duration
	AnomalyWindow        time.Duration
	RegistryMaxEntries   int
	RegistryTTL          time.Duration
	AlertImpactThreshold float64
	DefaultWindowHours   int
}

// DefaultConfig returns the reference engine tuning.
func DefaultConfig() Config {
	return Config{
		HistoryCapacity:      history.DefaultCapacity,
		SignatureClusterCap:  history.DefaultSignatureCap,
		CorrelationThreshold: 0.7,
		ConfidenceThreshold:  0.6,
		MinObservations:      3,
		AnalysisWindows:      analyzers.DefaultWindows,
		RealtimeWindow:       5 * time.Minute,
		DependencyMap:        DefaultDependencyMap(),
		PropagationWindow:    analyzers.DefaultPropagationWindow,
		ResourceThresholds:   analyzers.DefaultResourceThresholds(),
		SimultaneityWindow:   time.Minute,
		CascadeWindow:        analyzers.DefaultCascadeWindow,
		AnomalyWindow:        analyzers.DefaultAnomalyWindow,
		RegistryMaxEntries:   1000,
		RegistryTTL:          0,
		AlertImpactThreshold: highImpactThreshold,
		DefaultWindowHours:   24,
	}
}

// DefaultDependencyMap encodes the known component -> dependents edges used
// when no dependency map is configured.
func DefaultDependencyMap() map[string][]string {
	return map[string][]string{
		"database":       {"data_processor", "api_server", "web_scraper"},
		"network":        {"web_scraper", "external_services", "api_server"},
		"file_system":    {"csv_parser", "data_processor", "logging_system"},
		"memory":         {"data_processor", "performance_monitor"},
		"cpu":            {"all_components"},
		"api_server":     {"web_interface", "mobile_app"},
		"authentication": {"api_server", "web_interface", "mobile_app"},
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = defaults.HistoryCapacity
	}
	if c.SignatureClusterCap <= 0 {
		c.SignatureClusterCap = defaults.SignatureClusterCap
	}
	if c.CorrelationThreshold <= 0 {
		c.CorrelationThreshold = defaults.CorrelationThreshold
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = defaults.ConfidenceThreshold
	}
	if c.MinObservations <= 0 {
		c.MinObservations = defaults.MinObservations
	}
	if len(c.AnalysisWindows) == 0 {
		c.AnalysisWindows = defaults.AnalysisWindows
	}
	if c.RealtimeWindow <= 0 {
		c.RealtimeWindow = defaults.RealtimeWindow
	}
	if c.DependencyMap == nil {
		c.DependencyMap = defaults.DependencyMap
	}
	if c.PropagationWindow <= 0 {
		c.PropagationWindow = defaults.PropagationWindow
	}
	if len(c.ResourceThresholds) == 0 {
		c.ResourceThresholds = defaults.ResourceThresholds
	}
	if c.SimultaneityWindow <= 0 {
		c.SimultaneityWindow = defaults.SimultaneityWindow
	}
	if c.CascadeWindow <= 0 {
		c.CascadeWindow = defaults.CascadeWindow
	}
	if c.AnomalyWindow <= 0 {
		c.AnomalyWindow = defaults.AnomalyWindow
	}
	if c.RegistryMaxEntries <= 0 {
		c.RegistryMaxEntries = defaults.RegistryMaxEntries
	}
	if c.AlertImpactThreshold <= 0 {
		c.AlertImpactThreshold = defaults.AlertImpactThreshold
	}
	if c.DefaultWindowHours <= 0 {
		c.DefaultWindowHours = defaults.DefaultWindowHours
	}
	return c
}

// AlertFunc receives correlations whose impact clears the alert threshold.
// Implementations must not block: the engine calls it inline on the ingest
// path.
type AlertFunc func(models.ErrorCorrelation)

// Analyzer is the sweep-facing behaviour shared by all six analyzers.
type Analyzer interface {
	Type() models.CorrelationType
	Analyze(ctx context.Context, events []models.ErrorEvent) ([]models.ErrorCorrelation, error)
}

// Engine is the correlation engine handle. Construct one at startup and
// share it by reference.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	history  *history.Store
	registry *Registry
	ranker   *Ranker
	temporal *analyzers.TemporalAnalyzer
	sweep    []Analyzer
	alert    AlertFunc

	latencies *utils.LatencyTracker
	stats     *analysisStats
}

// NewEngine constructs an Engine from the given tuning. The alert hook may
// be nil.
func NewEngine(cfg Config, logger *slog.Logger, alert AlertFunc) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	thresholds := analyzers.Thresholds{
		Strength:        cfg.CorrelationThreshold,
		Confidence:      cfg.ConfidenceThreshold,
		MinObservations: cfg.MinObservations,
	}

	store := history.NewStore(cfg.HistoryCapacity, cfg.SignatureClusterCap)
	temporal := analyzers.NewTemporalAnalyzer(thresholds, cfg.AnalysisWindows)

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		history:  store,
		registry: NewRegistry(cfg.RegistryMaxEntries, cfg.RegistryTTL),
		ranker:   NewRanker(cfg.CorrelationThreshold, cfg.ConfidenceThreshold),
		temporal: temporal,
		sweep: []Analyzer{
			temporal,
			analyzers.NewDependencyAnalyzer(thresholds, cfg.DependencyMap, cfg.PropagationWindow),
			analyzers.NewResourceAnalyzer(thresholds, cfg.ResourceThresholds, cfg.SimultaneityWindow),
			analyzers.NewCascadeAnalyzer(thresholds, cfg.CascadeWindow),
			analyzers.NewPeriodicAnalyzer(thresholds),
			analyzers.NewAnomalyAnalyzer(thresholds, store, cfg.AnomalyWindow),
		},
		alert:     alert,
		latencies: utils.NewLatencyTracker(256),
		stats:     &analysisStats{},
	}
}

// Ingest normalises an inbound error into an immutable event, stores it, and
// runs the real-time temporal trigger. It never fails: malformed severity and
// category strings are coerced to their defaults.
func (e *Engine) Ingest(req models.IngestRequest) string {
	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	severity := models.ParseSeverity(req.Severity)
	category := models.ParseCategory(req.Category)

	event := models.ErrorEvent{
		ID:              "evt-" + uuid.NewString(),
		Timestamp:       timestamp,
		Component:       req.Component,
		Severity:        severity,
		Category:        category,
		Type:            req.Type,
		Message:         req.Message,
		Context:         req.Context,
		MetricsSnapshot: req.MetricsSnapshot,
		Signature:       models.EventSignature(req.Component, req.Type, category),
	}

	e.history.Append(event)
	metrics.RecordEvent(string(severity))

	e.realtimeScan(event)

	e.logger.Info("error event recorded",
		slog.String("event_id", event.ID),
		slog.String("component", event.Component),
		slog.String("error_type", event.Type),
		slog.String("severity", string(severity)),
		slog.String("signature", event.Signature),
	)

	return event.ID
}

// realtimeScan runs the temporal analyzer over the short recent window.
// Failures here are logged and swallowed: ingestion never fails because of
// the trigger.
func (e *Engine) realtimeScan(event models.ErrorEvent) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.Error("real-time correlation scan failed", slog.Any("panic", recovered))
		}
	}()

	recent := e.history.Window(event.Timestamp.Add(-e.cfg.RealtimeWindow), event.Timestamp)
	if len(recent) < 2 {
		return
	}

	candidates := e.temporal.AnalyzeWindow(recent, e.cfg.RealtimeWindow)
	for _, corr := range e.ranker.Rank(candidates) {
		if !e.registry.Insert(corr) {
			continue
		}
		metrics.RecordCorrelation(string(corr.Type))
		if corr.ImpactScore >= e.cfg.AlertImpactThreshold && e.alert != nil {
			e.alert(corr)
		}
	}
}

// RunComprehensiveAnalysis runs all six analyzers over the configured
// historical window, merges the candidates through the ranker, updates the
// registry, and returns the structured report. Analyzer failures and context
// cancellation are recorded in the report; the sweep never raises to the
// caller.
func (e *Engine) RunComprehensiveAnalysis(ctx context.Context, timeWindowHours int) models.AnalysisReport {
	if timeWindowHours <= 0 {
		timeWindowHours = e.cfg.DefaultWindowHours
	}

	start := time.Now()
	report := models.AnalysisReport{
		AnalysisTimestamp: start.UTC(),
		TimeWindowHours:   timeWindowHours,
		ComponentImpacts:  map[string]models.ComponentImpact{},
	}

	cutoff := start.Add(-time.Duration(timeWindowHours) * time.Hour)
	events := e.history.Since(cutoff)
	report.TotalEventsAnalyzed = len(events)

	e.logger.Info("starting comprehensive correlation analysis",
		slog.Int("time_window_hours", timeWindowHours),
		slog.Int("events", len(events)),
	)

	if len(events) < 2 {
		report.Message = "Insufficient events for correlation analysis"
		report.Summary = buildSummary(nil)
		report.Performance = performanceFigures(start, len(events), 0)
		return report
	}

	var candidates []models.ErrorCorrelation
	for _, analyzer := range e.sweep {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("analysis aborted: %v", err))
			break
		}
		found, err := runAnalyzer(ctx, analyzer, events)
		candidates = append(candidates, found...)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s analyzer: %v", analyzer.Type(), err))
			e.logger.Error("analyzer failed",
				slog.String("type", string(analyzer.Type())),
				slog.Any("error", err),
			)
		}
	}

	accepted := e.ranker.Rank(candidates)
	for _, corr := range accepted {
		if e.registry.Insert(corr) {
			metrics.RecordCorrelation(string(corr.Type))
		}
	}

	report.Correlations = accepted
	report.Summary = buildSummary(accepted)
	report.ComponentImpacts = buildComponentImpacts(events, accepted)
	report.Recommendations = buildRecommendations(accepted)
	report.Performance = performanceFigures(start, len(events), len(accepted))

	duration := time.Since(start)
	metrics.ObserveAnalysis(duration)
	e.latencies.Observe(duration)
	e.stats.record(duration)

	if count := e.latencies.Count(); count >= 20 && count%20 == 0 {
		e.logger.Info("sweep latency",
			slog.Duration("p95", e.latencies.Percentile(95)),
			slog.Int("samples", count),
		)
	}

	e.logger.Info("correlation analysis completed",
		slog.Int("correlations", len(accepted)),
		slog.Duration("elapsed", duration),
	)

	return report
}

// runAnalyzer isolates one analyzer call: a panic inside an analyzer is
// converted to an error so the sweep proceeds with the remaining analyzers.
func runAnalyzer(ctx context.Context, analyzer Analyzer, events []models.ErrorEvent) (found []models.ErrorCorrelation, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return analyzer.Analyze(ctx, events)
}

func performanceFigures(start time.Time, eventCount, correlationCount int) models.AnalysisPerformance {
	elapsed := time.Since(start).Seconds()
	denominator := elapsed
	if denominator < 0.001 {
		denominator = 0.001
	}
	return models.AnalysisPerformance{
		AnalysisSeconds:       elapsed,
		EventsPerSecond:       float64(eventCount) / denominator,
		CorrelationsPerSecond: float64(correlationCount) / denominator,
	}
}

// GetActiveCorrelations returns the registry's correlations, optionally
// filtered by type and minimum impact, sorted by impact descending.
func (e *Engine) GetActiveCorrelations(corrType string, minImpact float64) []models.ErrorCorrelation {
	return e.registry.Active(corrType, minImpact)
}

// GetStatistics snapshots the engine counters and configuration.
func (e *Engine) GetStatistics() models.EngineStatistics {
	active := e.registry.Snapshot()

	var impactSum, strengthSum float64
	for _, corr := range active {
		impactSum += corr.ImpactScore
		strengthSum += corr.Strength
	}
	avgImpact := 0.0
	avgStrength := 0.0
	if len(active) > 0 {
		avgImpact = impactSum / float64(len(active))
		avgStrength = strengthSum / float64(len(active))
	}

	runs, avgMillis := e.stats.snapshot()

	maxWindow := time.Duration(0)
	for _, window := range e.cfg.AnalysisWindows {
		if window > maxWindow {
			maxWindow = window
		}
	}

	return models.EngineStatistics{
		TotalEventsRecorded:       e.history.Len(),
		ActiveCorrelations:        len(active),
		CorrelationsByType:        e.registry.CountsByType(),
		AverageImpactScore:        avgImpact,
		AverageStrength:           avgStrength,
		SignatureClusters:         e.history.SignatureClusters(),
		TotalCorrelationsDetected: e.registry.TotalDetected(),
		AnalysisRunCount:          runs,
		AverageAnalysisTimeMillis: avgMillis,
		Configuration: models.StatisticsConfiguration{
			CorrelationThreshold: e.cfg.CorrelationThreshold,
			ConfidenceThreshold:  e.cfg.ConfidenceThreshold,
			MaxTimeWindowSeconds: maxWindow.Seconds(),
			MinObservations:      e.cfg.MinObservations,
			HistoryCapacity:      e.cfg.HistoryCapacity,
		},
	}
}
