package ipc_test

import (
	"context"
	"path/filepath"
	"testing"

	"linkq/internal/daemon"
	"linkq/internal/ipc"
	"linkq/internal/saveapi"
	"linkq/internal/testsupport"
)

func startServer(t *testing.T, saver *testsupport.StubSaver) *ipc.Client {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Trigger.NetlinkHints = false

	d, err := daemon.New(cfg, nil,
		daemon.WithSaver(saver),
		daemon.WithProbe(func(context.Context) bool { return false }))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	socketPath := filepath.Join(t.TempDir(), "linkq.sock")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := ipc.NewServer(ctx, socketPath, d, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestIPCAddAndList(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})

	added, err := client.Add("https://example.com/article", "Title", "note")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.Item.ID == 0 || added.Item.Status != "queued" {
		t.Fatalf("added = %+v", added.Item)
	}

	list, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].URL != "https://example.com/article" {
		t.Fatalf("list = %+v", list.Items)
	}

	described, err := client.QueueDescribe(added.Item.ID)
	if err != nil {
		t.Fatalf("QueueDescribe: %v", err)
	}
	if described.Item.Title != "Title" {
		t.Errorf("described = %+v", described.Item)
	}

	if _, err := client.QueueDescribe(9999); err == nil {
		t.Error("expected error for missing item")
	}
}

func TestIPCAddRejectsInvalidURL(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})
	if _, err := client.Add("::: not a url", "", ""); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestIPCListRejectsUnknownStatus(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})
	if _, err := client.QueueList([]string{"pending"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestIPCStatusAndSync(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.PID == 0 || status.QueueDBPath == "" {
		t.Errorf("status = %+v", status)
	}

	sync, err := client.Sync()
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !sync.Accepted {
		t.Errorf("sync = %+v", sync)
	}
}

func TestIPCQueueMaintenance(t *testing.T) {
	saver := &testsupport.StubSaver{}
	saver.Script(testsupport.SaveOutcome{Err: &saveapi.DeliveryError{Message: "boom"}})
	client := startServer(t, saver)

	added, err := client.Add("https://example.com/fail", "", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Nothing errored yet, so a blanket retry touches nothing.
	retried, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry: %v", err)
	}
	if retried.Updated != 0 {
		t.Errorf("retried = %+v", retried)
	}

	health, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Total != 1 {
		t.Errorf("health = %+v", health)
	}

	if _, err := client.QueueRemove(nil); err == nil {
		t.Error("QueueRemove without ids should fail")
	}
	removed, err := client.QueueRemove([]int64{added.Item.ID})
	if err != nil || removed.Removed != 1 {
		t.Fatalf("QueueRemove = %+v, err %v", removed, err)
	}

	purged, err := client.QueuePurge()
	if err != nil {
		t.Fatalf("QueuePurge: %v", err)
	}
	if purged.Removed != 0 {
		t.Errorf("purged = %+v", purged)
	}

	cleared, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear: %v", err)
	}
	if cleared.Removed != 0 {
		t.Errorf("cleared = %+v", cleared)
	}
}

func TestIPCDatabaseHealth(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})

	health, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth: %v", err)
	}
	if !health.DatabaseExists || !health.TableExists || !health.IntegrityCheck {
		t.Errorf("health = %+v", health)
	}
	if health.SchemaVersion == "" {
		t.Error("schema version missing")
	}
}

func TestIPCEventsEmpty(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})

	events, err := client.Events(10)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events.Events) != 0 {
		t.Errorf("events = %+v", events.Events)
	}
}

func TestIPCTestNotificationNoop(t *testing.T) {
	client := startServer(t, &testsupport.StubSaver{})

	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if !resp.Sent {
		t.Errorf("resp = %+v", resp)
	}
}
