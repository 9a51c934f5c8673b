package daemon_test

import (
	"context"
	"testing"
	"time"

	"linkq/internal/config"
	"linkq/internal/daemon"
	"linkq/internal/queue"
	"linkq/internal/testsupport"
)

func offlineProbe(context.Context) bool { return false }

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*daemon.Daemon, *testsupport.StubSaver, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Trigger.NetlinkHints = false

	saver := &testsupport.StubSaver{}
	d, err := daemon.New(cfg, nil, daemon.WithSaver(saver), daemon.WithProbe(offlineProbe))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d, saver, cfg
}

func TestDaemonRequiresEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Endpoint.URL = ""
	if _, err := daemon.New(cfg, nil); err == nil {
		t.Fatal("expected error without endpoint")
	}
}

func TestDaemonStartStop(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	if d.Running() {
		t.Fatal("daemon should not run before Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	d.Stop()
	if d.Running() {
		t.Error("daemon should not report running after Stop")
	}
	d.Stop() // idempotent
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Trigger.NetlinkHints = false

	first, err := daemon.New(cfg, nil, daemon.WithSaver(&testsupport.StubSaver{}), daemon.WithProbe(offlineProbe))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer first.Close()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := daemon.New(cfg, nil, daemon.WithSaver(&testsupport.StubSaver{}), daemon.WithProbe(offlineProbe))
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second instance should fail to acquire the lock")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second instance after first stop: %v", err)
	}
	second.Stop()
}

func TestDaemonEnqueueTriggersSync(t *testing.T) {
	d, saver, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	item, err := d.Enqueue(context.Background(), "https://example.com/queued", "Title", "note")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if item.Status != queue.StatusQueued {
		t.Errorf("status = %s", item.Status)
	}

	// The enqueue nudge wakes the dispatcher, which delivers the item.
	deadline := time.After(2 * time.Second)
	for len(saver.Calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("enqueue never triggered a delivery")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDaemonEnqueueRejectsBadURL(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if _, err := d.Enqueue(context.Background(), "not a url", "", ""); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestDaemonQueueOperations(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	ctx := context.Background()

	first, err := d.Enqueue(ctx, "https://example.com/one", "", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := d.Enqueue(ctx, "https://example.com/two", "", ""); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	items, err := d.ListQueue(ctx, nil)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("listed %d items", len(items))
	}

	got, err := d.GetQueueItem(ctx, first.ID)
	if err != nil || got == nil || got.URL != first.URL {
		t.Fatalf("GetQueueItem = %+v, err %v", got, err)
	}

	removed, err := d.RemoveItems(ctx, []int64{first.ID})
	if err != nil || removed != 1 {
		t.Fatalf("RemoveItems = %d, err %v", removed, err)
	}

	health, err := d.QueueHealth(ctx)
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Total != 1 || health.Queued != 1 {
		t.Errorf("health = %+v", health)
	}

	dbHealth, err := d.DatabaseHealth(ctx)
	if err != nil {
		t.Fatalf("DatabaseHealth: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.TableExists || !dbHealth.IntegrityCheck {
		t.Errorf("db health = %+v", dbHealth)
	}
	if len(dbHealth.MissingColumns) != 0 {
		t.Errorf("missing columns = %v", dbHealth.MissingColumns)
	}
}

func TestDaemonStatus(t *testing.T) {
	d, _, cfg := newTestDaemon(t)
	ctx := context.Background()

	if _, err := d.Enqueue(ctx, "https://example.com", "", ""); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	status := d.Status(ctx)
	if status.Running {
		t.Error("status should not report running before Start")
	}
	if status.QueueDBPath != cfg.DatabasePath() {
		t.Errorf("db path = %q", status.QueueDBPath)
	}
	if status.QueueStats[queue.StatusQueued] != 1 {
		t.Errorf("stats = %v", status.QueueStats)
	}
}
