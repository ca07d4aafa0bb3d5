// Package alerting delivers high-impact correlations to external receivers.
// Dispatch is decoupled from detection through a bounded queue so a slow
// receiver never stalls ingestion or the analysis sweep.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
	"github.com/sentinelstack/sentinel-correlate/internal/utils"
)

// Sender delivers a single correlation alert.
type Sender interface {
	Send(ctx context.Context, corr models.ErrorCorrelation) error
}

// WebhookSender posts correlation alerts as JSON to a configured endpoint.
type WebhookSender struct {
	endpoint   string
	httpClient *http.Client
}

// NewWebhookSender constructs a sender targeting the given webhook URL.
func NewWebhookSender(endpoint string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		endpoint: strings.TrimSpace(endpoint),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the correlation to the webhook endpoint.
func (s *WebhookSender) Send(ctx context.Context, corr models.ErrorCorrelation) error {
	if s == nil || s.endpoint == "" {
		return fmt.Errorf("webhook endpoint not configured")
	}

	payload := map[string]any{
		"alert_type":          "error_correlation",
		"correlation_id":      corr.ID,
		"correlation_type":    corr.Type,
		"primary_component":   corr.PrimaryComponent,
		"secondary_component": corr.SecondaryComponent,
		"strength":            corr.Strength,
		"confidence":          corr.Confidence,
		"impact_score":        corr.ImpactScore,
		"pattern_description": corr.PatternDescription,
		"detected_at":         corr.LastObserved.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError("alerting.webhook", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError("alerting.webhook", "deliver alert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.NewAppError("alerting.webhook", "deliver alert", fmt.Errorf("receiver returned %s", resp.Status))
	}
	return nil
}

// LogSender writes alerts to the structured log. It is the fallback when no
// webhook is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the correlation at warning level.
func (s *LogSender) Send(_ context.Context, corr models.ErrorCorrelation) error {
	s.logger.Warn("high-impact correlation detected",
		slog.String("correlation_id", corr.ID),
		slog.String("type", string(corr.Type)),
		slog.String("primary_component", corr.PrimaryComponent),
		slog.String("secondary_component", corr.SecondaryComponent),
		slog.Float64("impact_score", corr.ImpactScore),
		slog.Float64("strength", corr.Strength),
		slog.Float64("confidence", corr.Confidence),
	)
	return nil
}
