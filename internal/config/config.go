package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the correlation engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Engine   EngineConfig   `yaml:"engine"`
	Alerting AlertingConfig `yaml:"alerting"`
	Sweep    SweepConfig    `yaml:"sweep"`
}

// ServerConfig controls the HTTP API and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// EngineConfig tunes correlation detection. Zero values fall back to the
// engine package defaults.
type EngineConfig struct {
	HistoryCapacity      int                 `yaml:"historyCapacity"`
	SignatureClusterCap  int                 `yaml:"signatureClusterCap"`
	CorrelationThreshold float64             `yaml:"correlationThreshold"`
	ConfidenceThreshold  float64             `yaml:"confidenceThreshold"`
	MinObservations      int                 `yaml:"minObservations"`
	RealtimeWindow       time.Duration       `yaml:"realtimeWindow"`
	PropagationWindow    time.Duration       `yaml:"propagationWindow"`
	SimultaneityWindow   time.Duration       `yaml:"simultaneityWindow"`
	CascadeWindow        time.Duration       `yaml:"cascadeWindow"`
	AnomalyWindow        time.Duration       `yaml:"anomalyWindow"`
	RegistryMaxEntries   int                 `yaml:"registryMaxEntries"`
	RegistryTTL          time.Duration       `yaml:"registryTTL"`
	AlertImpactThreshold float64             `yaml:"alertImpactThreshold"`
	DefaultWindowHours   int                 `yaml:"defaultWindowHours"`
	DependencyMap        map[string][]string `yaml:"dependencyMap"`
	ResourceThresholds   map[string]float64  `yaml:"resourceThresholds"`
}

// AlertingConfig controls the webhook dispatcher.
type AlertingConfig struct {
	WebhookURL string        `yaml:"webhookURL"`
	Timeout    time.Duration `yaml:"timeout"`
	QueueSize  int           `yaml:"queueSize"`
	RatePerSec float64       `yaml:"ratePerSec"`
	Burst      int           `yaml:"burst"`
}

// SweepConfig controls the background comprehensive analysis schedule.
type SweepConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Interval        time.Duration `yaml:"interval"`
	TimeWindowHours int           `yaml:"timeWindowHours"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SENTINEL_CORRELATE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8085",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Engine: EngineConfig{
			CorrelationThreshold: 0.7,
			ConfidenceThreshold:  0.6,
			MinObservations:      3,
			RealtimeWindow:       5 * time.Minute,
			AlertImpactThreshold: 7.0,
			DefaultWindowHours:   24,
		},
		Alerting: AlertingConfig{
			Timeout:    10 * time.Second,
			QueueSize:  128,
			RatePerSec: 1,
			Burst:      5,
		},
		Sweep: SweepConfig{
			Enabled:         true,
			Interval:        15 * time.Minute,
			TimeWindowHours: 24,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENTINEL_CORRELATE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SENTINEL_CORRELATE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SENTINEL_CORRELATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SENTINEL_CORRELATE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SENTINEL_CORRELATE_CORRELATION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.CorrelationThreshold = f
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_MIN_OBSERVATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MinObservations = n
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_HISTORY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.HistoryCapacity = n
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_REALTIME_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.RealtimeWindow = d
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_ALERT_IMPACT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.AlertImpactThreshold = f
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_WEBHOOK_URL"); v != "" {
		cfg.Alerting.WebhookURL = v
	}
	if v := os.Getenv("SENTINEL_CORRELATE_ALERT_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Alerting.RatePerSec = f
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_SWEEP_ENABLED"); v != "" {
		cfg.Sweep.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SENTINEL_CORRELATE_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sweep.Interval = d
		}
	}
	if v := os.Getenv("SENTINEL_CORRELATE_SWEEP_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sweep.TimeWindowHours = n
		}
	}
}
