package trigger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"linkq/internal/config"
	"linkq/internal/logging"
)

// NetlinkMonitor listens for udev events on the net subsystem and pokes the
// connectivity monitor whenever an interface appears or changes state. This
// notices a reconnect within moments instead of waiting for the next probe
// interval.
type NetlinkMonitor struct {
	logger *slog.Logger
	poke   func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewNetlinkMonitor creates a netlink monitor that forwards network
// interface hints. Returns nil when hints are disabled in configuration.
func NewNetlinkMonitor(cfg *config.Config, logger *slog.Logger, poke func()) *NetlinkMonitor {
	if cfg == nil || !cfg.Trigger.NetlinkHints {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NetlinkMonitor{
		logger: logging.NewComponentLogger(logger, "netlink-monitor"),
		poke:   poke,
	}
}

// Start begins listening for udev netlink events.
func (m *NetlinkMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; reconnect detection will rely on the probe interval",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
		)
		return nil // non-fatal, the interval probe still runs
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("netlink monitor started",
		logging.String(logging.FieldEventType, "netlink_monitor_started"))
	return nil
}

// Stop shuts down the netlink monitor.
func (m *NetlinkMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("netlink monitor stopped",
		logging.String(logging.FieldEventType, "netlink_monitor_stopped"))
}

// Running reports whether the netlink monitor is active.
func (m *NetlinkMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *NetlinkMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"))
		}
	}
}

// buildMatcher selects interface arrivals and state changes:
// SUBSYSTEM=net, ACTION=add|change|move.
func (m *NetlinkMonitor) buildMatcher() netlink.Matcher {
	action := "add|change|move"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}

func (m *NetlinkMonitor) handleEvent(uevent netlink.UEvent) {
	iface := uevent.Env["INTERFACE"]
	if iface == "lo" {
		return
	}
	m.logger.Debug("network interface event",
		logging.String("interface", iface),
		logging.String("action", string(uevent.Action)))
	if m.poke != nil {
		m.poke()
	}
}
