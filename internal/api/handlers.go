package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// Engine is the subset of engine behaviour the HTTP handlers depend on.
type Engine interface {
	Ingest(req models.IngestRequest) string
	RunComprehensiveAnalysis(ctx context.Context, timeWindowHours int) models.AnalysisReport
	GetActiveCorrelations(corrType string, minImpact float64) []models.ErrorCorrelation
	GetStatistics() models.EngineStatistics
}

// Handlers binds the engine to the HTTP routes.
type Handlers struct {
	engine Engine
	logger *slog.Logger
}

// NewHandlers constructs the API handler set.
func NewHandlers(engine Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{engine: engine, logger: logger}
}

// Routes builds the HTTP mux for the API surface.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/v1/events", h.handleIngest)
	mux.HandleFunc("/api/v1/analysis/run", h.handleAnalysis)
	mux.HandleFunc("/api/v1/correlations", h.handleCorrelations)
	mux.HandleFunc("/api/v1/statistics", h.handleStatistics)
	return mux
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Component) == "" || strings.TrimSpace(req.Type) == "" {
		writeError(w, http.StatusBadRequest, "component and error_type are required")
		return
	}

	eventID := h.engine.Ingest(req)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"event_id": eventID,
		"status":   "recorded",
	})
}

func (h *Handlers) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		TimeWindowHours int `json:"time_window_hours"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.TimeWindowHours < 0 {
		writeError(w, http.StatusBadRequest, "time_window_hours must be positive")
		return
	}

	report := h.engine.RunComprehensiveAnalysis(r.Context(), req.TimeWindowHours)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	corrType := r.URL.Query().Get("type")
	if corrType != "" && !validCorrelationType(corrType) {
		writeError(w, http.StatusBadRequest, "unknown correlation type: "+corrType)
		return
	}

	minImpact := 0.0
	if raw := r.URL.Query().Get("min_impact"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "min_impact must be a non-negative number")
			return
		}
		minImpact = parsed
	}

	correlations := h.engine.GetActiveCorrelations(corrType, minImpact)
	writeJSON(w, http.StatusOK, map[string]any{
		"correlations": correlations,
		"count":        len(correlations),
		"retrieved_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.GetStatistics())
}

func validCorrelationType(raw string) bool {
	for _, known := range models.CorrelationTypes {
		if string(known) == raw {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
