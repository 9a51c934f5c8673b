package trigger

import (
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"linkq/internal/testsupport"
)

func TestNewNetlinkMonitorDisabled(t *testing.T) {
	if m := NewNetlinkMonitor(nil, nil, nil); m != nil {
		t.Error("expected nil monitor for nil config")
	}

	cfg := testsupport.NewConfig(t)
	cfg.Trigger.NetlinkHints = false
	if m := NewNetlinkMonitor(cfg, nil, nil); m != nil {
		t.Error("expected nil monitor when hints disabled")
	}
}

func TestNetlinkMonitorNilSafety(t *testing.T) {
	var m *NetlinkMonitor
	if err := m.Start(t.Context()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Error("nil monitor should not report running")
	}
}

func TestNetlinkMonitorStopUnstarted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := NewNetlinkMonitor(cfg, nil, nil)
	if m == nil {
		t.Fatal("expected monitor")
	}
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Error("unstarted monitor should not report running")
	}
}

func TestNetlinkMatcher(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := NewNetlinkMonitor(cfg, nil, nil)
	matcher := m.buildMatcher()

	up := netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan0"},
	}
	if !matcher.Evaluate(up) {
		t.Error("expected matcher to accept net add event")
	}

	change := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "eth0"},
	}
	if !matcher.Evaluate(change) {
		t.Error("expected matcher to accept net change event")
	}

	block := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "block"},
	}
	if matcher.Evaluate(block) {
		t.Error("expected matcher to reject non-net subsystem")
	}

	remove := netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan0"},
	}
	if matcher.Evaluate(remove) {
		t.Error("expected matcher to reject remove action")
	}
}

func TestNetlinkHandleEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	poked := 0
	m := NewNetlinkMonitor(cfg, nil, func() { poked++ })

	m.handleEvent(netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan0"},
	})
	if poked != 1 {
		t.Fatalf("poked = %d", poked)
	}

	// Loopback events are noise.
	m.handleEvent(netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "lo"},
	})
	if poked != 1 {
		t.Errorf("loopback event should not poke, poked = %d", poked)
	}
}
