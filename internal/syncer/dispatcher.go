package syncer

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"linkq/internal/config"
	"linkq/internal/logging"
	"linkq/internal/telemetry"
)

// Dispatcher serializes delivery passes. Trigger sources call RequestSync;
// the run loop executes passes one at a time. A request that arrives while a
// pass is running is skipped outright, never queued, so a burst of triggers
// collapses into a single pass.
type Dispatcher struct {
	worker       *Worker
	logger       *slog.Logger
	pollInterval time.Duration

	running atomic.Bool
	wake    chan struct{}
}

// NewDispatcher constructs a dispatcher around the worker.
func NewDispatcher(cfg *config.Config, worker *Worker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	pollInterval := time.Duration(cfg.Sync.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Dispatcher{
		worker:       worker,
		logger:       logger.With(logging.String(logging.FieldComponent, "dispatcher")),
		pollInterval: pollInterval,
		wake:         make(chan struct{}, 1),
	}
}

// RequestSync asks for a pass. Returns true when the request was accepted
// and false when it was skipped because a pass is already running or one is
// already pending.
func (d *Dispatcher) RequestSync(reason string) bool {
	if d.running.Load() {
		telemetry.PassSkipCounter.Inc()
		d.logger.Debug("sync request skipped, pass in flight", logging.String("reason", reason))
		return false
	}
	select {
	case d.wake <- struct{}{}:
		d.logger.Debug("sync requested", logging.String("reason", reason))
		return true
	default:
		telemetry.PassSkipCounter.Inc()
		d.logger.Debug("sync request coalesced", logging.String("reason", reason))
		return false
	}
}

// Running reports whether a pass is currently executing.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// Run executes passes until the context ends: one on every poll tick and one
// per accepted wake request. Blocks; intended to run in its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runPass(ctx, "poll")
		case <-d.wake:
			d.runPass(ctx, "wake")
		}
	}
}

// RunPassNow executes a pass synchronously, honoring the single-flight
// guarantee. Returns false when a pass was already running.
func (d *Dispatcher) RunPassNow(ctx context.Context) (Summary, bool, error) {
	if !d.running.CompareAndSwap(false, true) {
		telemetry.PassSkipCounter.Inc()
		return Summary{}, false, nil
	}
	defer d.running.Store(false)

	summary, err := d.worker.Pass(ctx)
	return summary, true, err
}

func (d *Dispatcher) runPass(ctx context.Context, reason string) {
	if !d.running.CompareAndSwap(false, true) {
		telemetry.PassSkipCounter.Inc()
		return
	}
	defer d.running.Store(false)

	if _, err := d.worker.Pass(ctx); err != nil {
		d.logger.Error("pass failed", logging.String("reason", reason), logging.Error(err))
	}
}
