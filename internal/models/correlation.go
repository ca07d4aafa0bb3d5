package models

import "time"

// CorrelationType enumerates the analyzers that can produce a correlation.
type CorrelationType string

const (
	CorrelationTemporal   CorrelationType = "temporal"
	CorrelationDependency CorrelationType = "dependency"
	CorrelationResource   CorrelationType = "resource"
	CorrelationCascade    CorrelationType = "cascade"
	CorrelationPeriodic   CorrelationType = "periodic"
	CorrelationAnomaly    CorrelationType = "anomaly"
)

// CorrelationTypes lists all known correlation types in reporting order.
var CorrelationTypes = []CorrelationType{
	CorrelationTemporal,
	CorrelationDependency,
	CorrelationResource,
	CorrelationCascade,
	CorrelationPeriodic,
	CorrelationAnomaly,
}

// ErrorCorrelation is a detected statistical relationship between two
// components' error series (or a component with itself for periodic
// patterns). Strength and Confidence are closed-form heuristics in [0,1];
// ImpactScore is in [0,10].
type ErrorCorrelation struct {
	ID                 string          `json:"correlation_id"`
	Type               CorrelationType `json:"type"`
	PrimaryComponent   string          `json:"primary_component"`
	SecondaryComponent string          `json:"secondary_component"`
	Strength           float64         `json:"strength"`
	Confidence         float64         `json:"confidence"`
	TimeWindowSeconds  float64         `json:"time_window_seconds"`
	Frequency          int             `json:"frequency"`
	LastObserved       time.Time       `json:"last_observed"`
	ImpactScore        float64         `json:"impact_score"`

	PatternDescription   string   `json:"pattern_description"`
	TriggerConditions    []string `json:"trigger_conditions"`
	PredictedEffects     []string `json:"predicted_effects"`
	MitigationStrategies []string `json:"mitigation_strategies"`

	CorrelationCoefficient float64 `json:"correlation_coefficient"`
	// Significance is max(0.01, 1-confidence): a bounded heuristic proxy for
	// statistical significance where lower means more significant. It is not
	// a calibrated p-value.
	Significance         float64 `json:"significance"`
	TemporalDelaySeconds float64 `json:"temporal_delay_seconds"`
}

// Key identifies the (type, primary, secondary) slot a correlation occupies
// in the registry; duplicates on this key are resolved by highest strength.
func (c ErrorCorrelation) Key() string {
	return string(c.Type) + ":" + c.PrimaryComponent + ":" + c.SecondaryComponent
}

// CompositeScore ranks correlations by strength, confidence and impact.
func (c ErrorCorrelation) CompositeScore() float64 {
	return c.Strength * c.Confidence * (c.ImpactScore / 10)
}
