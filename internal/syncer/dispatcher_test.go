package syncer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkq/internal/syncer"
	"linkq/internal/testsupport"
)

func TestDispatcherSkipsRequestsWhilePassRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewItem(t, store, "https://example.com/slow")

	gate := make(chan struct{})
	saver := &testsupport.StubSaver{Gate: gate}
	worker := syncer.NewWorker(cfg, store, saver, nil, nil)
	dispatcher := syncer.NewDispatcher(cfg, worker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passDone := make(chan error, 1)
	go func() {
		_, _, err := dispatcher.RunPassNow(ctx)
		passDone <- err
	}()

	// Wait for the pass to reach the blocked delivery.
	deadline := time.After(2 * time.Second)
	for !dispatcher.Running() {
		select {
		case <-deadline:
			t.Fatal("pass never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if dispatcher.RequestSync("test") {
		t.Error("request during running pass should be skipped")
	}
	if _, started, _ := dispatcher.RunPassNow(ctx); started {
		t.Error("second concurrent pass should not start")
	}

	close(gate)
	if err := <-passDone; err != nil {
		t.Fatalf("pass error: %v", err)
	}

	if !dispatcher.RequestSync("after") {
		t.Error("request after pass completion should be accepted")
	}
}

func TestDispatcherCoalescesPendingRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	worker := syncer.NewWorker(cfg, store, &testsupport.StubSaver{}, nil, nil)
	dispatcher := syncer.NewDispatcher(cfg, worker, nil)

	if !dispatcher.RequestSync("first") {
		t.Fatal("first request should be accepted")
	}
	if dispatcher.RequestSync("second") {
		t.Error("second request should coalesce into the pending one")
	}
}

func TestDispatcherRunExecutesWakeRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sync.PollIntervalSeconds = 3600
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewItem(t, store, "https://example.com/wake-me")

	saver := &testsupport.StubSaver{}
	worker := syncer.NewWorker(cfg, store, saver, nil, nil)
	dispatcher := syncer.NewDispatcher(cfg, worker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	dispatcher.RequestSync("connectivity")

	deadline := time.After(2 * time.Second)
	for len(saver.Calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("wake request never triggered a pass")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	wg.Wait()
}
