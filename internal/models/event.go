package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Severity captures how serious an error event is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity maps an input string to a Severity. Unrecognised values fall
// back to SeverityMedium; this is the documented lenient-input policy, not an
// implicit side effect, so callers can never fail ingestion this way.
func ParseSeverity(value string) Severity {
	switch strings.ToLower(value) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Score returns the severity on the 1-4 scale used by cascade, periodic and
// anomaly impact scoring.
func (s Severity) Score() float64 {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 2
	}
}

// Weight returns the severity on the 0-10 scale used by temporal and
// dependency impact scoring.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 7.5
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2.5
	default:
		return 5
	}
}

// Category classifies the origin of an error event.
type Category string

const (
	CategoryNetwork         Category = "network"
	CategoryParsing         Category = "parsing"
	CategoryValidation      Category = "validation"
	CategoryConfiguration   Category = "configuration"
	CategorySystem          Category = "system"
	CategoryBusinessLogic   Category = "business_logic"
	CategoryExternalService Category = "external_service"
	CategoryUserInput       Category = "user_input"
)

// ParseCategory maps an input string to a Category, defaulting unrecognised
// values to CategorySystem under the same lenient-input policy as severity.
func ParseCategory(value string) Category {
	switch strings.ToLower(value) {
	case "network":
		return CategoryNetwork
	case "parsing":
		return CategoryParsing
	case "validation":
		return CategoryValidation
	case "configuration":
		return CategoryConfiguration
	case "system":
		return CategorySystem
	case "business_logic":
		return CategoryBusinessLogic
	case "external_service":
		return CategoryExternalService
	case "user_input":
		return CategoryUserInput
	default:
		return CategorySystem
	}
}

// ErrorEvent is an immutable error record owned by the history store.
type ErrorEvent struct {
	ID                string             `json:"event_id"`
	Timestamp         time.Time          `json:"timestamp"`
	Component         string             `json:"component"`
	Severity          Severity           `json:"severity"`
	Category          Category           `json:"category"`
	Type              string             `json:"error_type"`
	Message           string             `json:"error_message"`
	Context           map[string]any     `json:"system_context,omitempty"`
	MetricsSnapshot   map[string]float64 `json:"metrics_snapshot,omitempty"`
	RecoveryAttempted bool               `json:"recovery_attempted"`
	Signature         string             `json:"correlation_signature"`
}

// EventSignature computes the deterministic similarity signature grouping
// "the same kind of error" across time.
func EventSignature(component, errorType string, category Category) string {
	sum := md5.Sum([]byte(component + ":" + errorType + ":" + string(category)))
	return hex.EncodeToString(sum[:])
}

// IngestRequest carries the caller-supplied fields of a new error event.
// Severity and Category are free-form strings mapped leniently; a zero
// Timestamp means "now".
type IngestRequest struct {
	Component       string             `json:"component"`
	Type            string             `json:"error_type"`
	Message         string             `json:"error_message"`
	Severity        string             `json:"severity,omitempty"`
	Category        string             `json:"category,omitempty"`
	Context         map[string]any     `json:"system_context,omitempty"`
	MetricsSnapshot map[string]float64 `json:"metrics_snapshot,omitempty"`
	Timestamp       time.Time          `json:"timestamp,omitempty"`
}
