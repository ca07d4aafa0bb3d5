package alerting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sentinelstack/sentinel-correlate/internal/metrics"
	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

const (
	defaultQueueSize   = 128
	defaultRateLimit   = rate.Limit(1)
	defaultRateBurst   = 5
	defaultSendTimeout = 10 * time.Second
)

// Dispatcher fans correlations out to a Sender from a bounded queue. Dispatch
// never blocks: when the queue is full the alert is dropped and counted.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	limiter *rate.Limiter
	queue   chan models.ErrorCorrelation

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// DispatcherOptions tunes the dispatcher. Zero values use the defaults.
type DispatcherOptions struct {
	QueueSize   int
	RatePerSec  float64
	Burst       int
	SendTimeout time.Duration
}

// NewDispatcher constructs and starts a dispatcher draining into sender.
func NewDispatcher(sender Sender, logger *slog.Logger, opts DispatcherOptions) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	limit := defaultRateLimit
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
		queue:   make(chan models.ErrorCorrelation, queueSize),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go d.run(ctx, sendTimeout)
	return d
}

// Dispatch enqueues a correlation for delivery. Returns false when the queue
// is full and the alert was dropped.
func (d *Dispatcher) Dispatch(corr models.ErrorCorrelation) bool {
	select {
	case d.queue <- corr:
		return true
	default:
		metrics.RecordAlertDropped()
		d.logger.Warn("alert queue full, dropping correlation alert",
			slog.String("correlation_id", corr.ID),
			slog.String("type", string(corr.Type)),
		)
		return false
	}
}

func (d *Dispatcher) run(ctx context.Context, sendTimeout time.Duration) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		case corr := <-d.queue:
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
			d.deliver(ctx, corr, sendTimeout)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, corr models.ErrorCorrelation, timeout time.Duration) {
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, corr); err != nil {
		d.logger.Error("alert delivery failed",
			slog.String("correlation_id", corr.ID),
			slog.Any("error", err),
		)
		return
	}
	metrics.RecordAlertDispatched()
	d.logger.Info("correlation alert delivered",
		slog.String("correlation_id", corr.ID),
		slog.String("type", string(corr.Type)),
		slog.Float64("impact_score", corr.ImpactScore),
	)
}

// Close stops the worker and waits for it to finish. Queued alerts that were
// not yet delivered are discarded.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.cancel()
		<-d.done
	})
}
