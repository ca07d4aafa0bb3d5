package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelstack/sentinel-correlate/internal/alerting"
	"github.com/sentinelstack/sentinel-correlate/internal/api"
	"github.com/sentinelstack/sentinel-correlate/internal/config"
	"github.com/sentinelstack/sentinel-correlate/internal/engine"
	"github.com/sentinelstack/sentinel-correlate/internal/metrics"
	"github.com/sentinelstack/sentinel-correlate/internal/models"
	"github.com/sentinelstack/sentinel-correlate/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting sentinel-correlate", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var sender alerting.Sender
	if cfg.Alerting.WebhookURL != "" {
		sender = alerting.NewWebhookSender(cfg.Alerting.WebhookURL, cfg.Alerting.Timeout)
	} else {
		sender = alerting.NewLogSender(logger)
	}
	dispatcher := alerting.NewDispatcher(sender, logger, alerting.DispatcherOptions{
		QueueSize:   cfg.Alerting.QueueSize,
		RatePerSec:  cfg.Alerting.RatePerSec,
		Burst:       cfg.Alerting.Burst,
		SendTimeout: cfg.Alerting.Timeout,
	})
	defer dispatcher.Close()

	correlationEngine := engine.NewEngine(engine.Config{
		HistoryCapacity:      cfg.Engine.HistoryCapacity,
		SignatureClusterCap:  cfg.Engine.SignatureClusterCap,
		CorrelationThreshold: cfg.Engine.CorrelationThreshold,
		ConfidenceThreshold:  cfg.Engine.ConfidenceThreshold,
		MinObservations:      cfg.Engine.MinObservations,
		RealtimeWindow:       cfg.Engine.RealtimeWindow,
		DependencyMap:        cfg.Engine.DependencyMap,
		PropagationWindow:    cfg.Engine.PropagationWindow,
		ResourceThresholds:   cfg.Engine.ResourceThresholds,
		SimultaneityWindow:   cfg.Engine.SimultaneityWindow,
		CascadeWindow:        cfg.Engine.CascadeWindow,
		AnomalyWindow:        cfg.Engine.AnomalyWindow,
		RegistryMaxEntries:   cfg.Engine.RegistryMaxEntries,
		RegistryTTL:          cfg.Engine.RegistryTTL,
		AlertImpactThreshold: cfg.Engine.AlertImpactThreshold,
		DefaultWindowHours:   cfg.Engine.DefaultWindowHours,
	}, logger, func(corr models.ErrorCorrelation) {
		dispatcher.Dispatch(corr)
	})

	handlers := api.NewHandlers(correlationEngine, logger)
	server, err := api.NewServer(cfg.Server, handlers)
	if err != nil {
		logger.Error("failed to create API server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	if cfg.Sweep.Enabled && cfg.Sweep.Interval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Sweep.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					correlationEngine.RunComprehensiveAnalysis(ctx, cfg.Sweep.TimeWindowHours)
				}
			}
		}()
		logger.Info("background sweep enabled",
			slog.Duration("interval", cfg.Sweep.Interval),
			slog.Int("time_window_hours", cfg.Sweep.TimeWindowHours),
		)
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("API server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("sentinel-correlate stopped")
}
