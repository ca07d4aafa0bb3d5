package models

import "time"

// AnalysisReport is the result of a comprehensive correlation sweep.
type AnalysisReport struct {
	AnalysisTimestamp   time.Time                  `json:"analysis_timestamp"`
	TimeWindowHours     int                        `json:"time_window_hours"`
	TotalEventsAnalyzed int                        `json:"total_events_analyzed"`
	Correlations        []ErrorCorrelation         `json:"correlations_detected"`
	Summary             CorrelationSummary         `json:"correlation_summary"`
	ComponentImpacts    map[string]ComponentImpact `json:"component_impact_analysis"`
	Recommendations     []string                   `json:"recommendations"`
	Performance         AnalysisPerformance        `json:"analysis_performance"`

	// Message is set when the sweep could not run meaningfully, e.g. with
	// fewer than two events in the window.
	Message string `json:"message,omitempty"`
	// Errors records analyzer-level failures; the sweep proceeds with
	// whatever succeeded.
	Errors []string `json:"errors,omitempty"`
}

// CorrelationSummary aggregates the accepted correlations of one sweep.
type CorrelationSummary struct {
	TotalCorrelations      int                     `json:"total_correlations"`
	ByType                 map[CorrelationType]int `json:"correlations_by_type"`
	AverageStrength        float64                 `json:"average_strength"`
	AverageConfidence      float64                 `json:"average_confidence"`
	AverageImpactScore     float64                 `json:"average_impact_score"`
	MostAffectedComponents []ComponentInvolvement  `json:"most_affected_components"`
	HighImpactCorrelations int                     `json:"high_impact_correlations"`
}

// ComponentInvolvement counts how often a component appears in correlations.
type ComponentInvolvement struct {
	Component string `json:"component"`
	Count     int    `json:"count"`
}

// ComponentImpact is the per-component risk breakdown of a sweep.
type ComponentImpact struct {
	TotalErrors            int     `json:"total_errors"`
	CorrelationInvolvement int     `json:"correlation_involvement"`
	AsPrimaryCause         int     `json:"as_primary_cause"`
	AsSecondaryEffect      int     `json:"as_secondary_effect"`
	RiskScore              float64 `json:"risk_score"`
	RiskLevel              string  `json:"risk_level"`
}

// AnalysisPerformance captures sweep timing figures.
type AnalysisPerformance struct {
	AnalysisSeconds       float64 `json:"analysis_time_seconds"`
	EventsPerSecond       float64 `json:"events_per_second"`
	CorrelationsPerSecond float64 `json:"correlations_per_second"`
}

// EngineStatistics is the snapshot returned by the statistics query.
type EngineStatistics struct {
	TotalEventsRecorded        int                     `json:"total_events_recorded"`
	ActiveCorrelations         int                     `json:"active_correlations"`
	CorrelationsByType         map[CorrelationType]int `json:"correlations_by_type"`
	AverageImpactScore         float64                 `json:"average_impact_score"`
	AverageStrength            float64                 `json:"average_strength"`
	SignatureClusters          int                     `json:"signature_clusters"`
	TotalCorrelationsDetected  int                     `json:"total_correlations_detected"`
	AnalysisRunCount           int                     `json:"analysis_run_count"`
	AverageAnalysisTimeMillis  float64                 `json:"avg_analysis_time_ms"`
	Configuration              StatisticsConfiguration `json:"configuration"`
}

// StatisticsConfiguration echoes the engine tuning in statistics output.
type StatisticsConfiguration struct {
	CorrelationThreshold float64 `json:"correlation_threshold"`
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
	MaxTimeWindowSeconds float64 `json:"max_time_window_seconds"`
	MinObservations      int     `json:"min_observations"`
	HistoryCapacity      int     `json:"history_capacity"`
}
