package trigger

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"linkq/internal/config"
	"linkq/internal/logging"
)

// SyncFunc requests a delivery pass; the reason is for logs only.
type SyncFunc func(reason string) bool

// ProbeFunc reports whether the network currently reaches the endpoint.
type ProbeFunc func(ctx context.Context) bool

const probeDialTimeout = 5 * time.Second

// Monitor watches connectivity and requests a sync whenever the network
// comes back. The first probe runs immediately so a daemon started while
// online drains the queue without waiting a full interval.
type Monitor struct {
	logger   *slog.Logger
	sync     SyncFunc
	probe    ProbeFunc
	interval time.Duration
	waker    *Waker
	online   atomic.Bool
}

// MonitorOption configures optional Monitor behavior.
type MonitorOption func(*Monitor)

// WithProbe overrides the connectivity probe (used in tests).
func WithProbe(probe ProbeFunc) MonitorOption {
	return func(m *Monitor) {
		m.probe = probe
	}
}

// NewMonitor constructs a connectivity monitor.
func NewMonitor(cfg *config.Config, logger *slog.Logger, sync SyncFunc, opts ...MonitorOption) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := time.Duration(cfg.Trigger.ProbeIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	monitor := &Monitor{
		logger:   logging.NewComponentLogger(logger, "connectivity"),
		sync:     sync,
		probe:    tcpProbe(cfg.Trigger.ProbeHost),
		interval: interval,
		waker:    NewWaker(),
	}
	for _, opt := range opts {
		opt(monitor)
	}
	return monitor
}

func tcpProbe(host string) ProbeFunc {
	return func(ctx context.Context) bool {
		dialer := net.Dialer{Timeout: probeDialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// Online reports the result of the most recent probe.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Poke requests an immediate probe ahead of the next interval tick.
func (m *Monitor) Poke() {
	m.waker.Wake()
}

// Run probes until the context ends. Blocks; intended to run in its own
// goroutine.
func (m *Monitor) Run(ctx context.Context) {
	m.check(ctx, true)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx, false)
		case <-m.waker.C():
			m.check(ctx, false)
		}
	}
}

func (m *Monitor) check(ctx context.Context, initial bool) {
	online := m.probe(ctx)
	wasOnline := m.online.Swap(online)

	switch {
	case online && initial:
		m.logger.Info("online at startup")
		m.requestSync("startup-online")
	case online && !wasOnline:
		m.logger.Info("connectivity restored")
		m.requestSync("connectivity-restored")
	case !online && (wasOnline || initial):
		m.logger.Warn("offline, deliveries will wait for reconnect")
	}
}

func (m *Monitor) requestSync(reason string) {
	if m.sync == nil {
		return
	}
	m.sync(reason)
}
