package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkq/internal/queue"
	"linkq/internal/testsupport"
)

func TestCreatePersistsQueuedItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item, err := store.Create(context.Background(), "https://example.com/post", "  A   Title ", "line one\n\nline two")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Status != queue.StatusQueued || item.RetryCount != 0 {
		t.Fatalf("item = %+v", item)
	}
	if item.Title != "A Title" {
		t.Errorf("title = %q", item.Title)
	}
	if item.Comment != "line one\n\nline two" {
		t.Errorf("comment = %q", item.Comment)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if item.NextRetryAt != nil || item.LastError != "" {
		t.Error("new item must not carry error state")
	}
}

func TestCreateRejectsInvalidURLs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	for _, raw := range []string{"", "   ", "not a url", "example.com/no-scheme", "https://"} {
		if _, err := store.Create(context.Background(), raw, "", ""); !errors.Is(err, queue.ErrInvalidURL) {
			t.Errorf("Create(%q) err = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item, err := store.GetByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item != nil {
		t.Errorf("item = %+v", item)
	}
}

func TestItemsSurviveReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	created := testsupport.NewItem(t, store, "https://example.com/durable")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	item, err := reopened.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if item == nil || item.URL != created.URL || item.Status != queue.StatusQueued {
		t.Fatalf("item = %+v", item)
	}
}

func TestMarkDoneStoresGeneratedContent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	created := testsupport.NewItem(t, store, "https://example.com/gen")
	ctx := context.Background()

	now := time.Now().UTC()
	ok, err := store.MarkDone(ctx, created.ID, now, queue.Generated{
		Comment: "auto comment",
		Summary: "auto summary",
		Tags:    []string{"go", "sqlite"},
	})
	if err != nil || !ok {
		t.Fatalf("MarkDone = %v, err %v", ok, err)
	}

	item, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusDone || !item.IsTerminal() {
		t.Errorf("status = %s", item.Status)
	}
	if item.GeneratedComment != "auto comment" || item.GeneratedSummary != "auto summary" {
		t.Errorf("generated = %+v", item)
	}
	if len(item.GeneratedTags) != 2 || item.GeneratedTags[0] != "go" {
		t.Errorf("tags = %v", item.GeneratedTags)
	}
}

func TestMarkErrorEnforcesInvariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	created := testsupport.NewItem(t, store, "https://example.com/err")
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := store.MarkError(ctx, created.ID, now, "boom", 0, now.Add(time.Minute)); err == nil {
		t.Error("retry count 0 should be rejected")
	}
	if _, err := store.MarkError(ctx, created.ID, now, "boom", 1, now.Add(-time.Minute)); err == nil {
		t.Error("past retry horizon should be rejected")
	}

	ok, err := store.MarkError(ctx, created.ID, now, "", 1, now.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("MarkError = %v, err %v", ok, err)
	}
	item, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusError || item.LastError == "" {
		t.Errorf("item = %+v", item)
	}
	if item.NextRetryAt == nil {
		t.Fatal("next retry missing")
	}
}

func TestEligibleSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()
	leaseTimeout := 2 * time.Minute

	queued := testsupport.NewItem(t, store, "https://example.com/queued")

	retryDue := testsupport.NewItem(t, store, "https://example.com/retry-due")
	if _, err := store.MarkError(ctx, retryDue.ID, now.Add(-10*time.Minute), "x", 1, now.Add(-time.Minute)); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	retryLater := testsupport.NewItem(t, store, "https://example.com/retry-later")
	if _, err := store.MarkError(ctx, retryLater.ID, now, "x", 1, now.Add(time.Hour)); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	staleLease := testsupport.NewItem(t, store, "https://example.com/stale")
	if _, err := store.MarkSending(ctx, staleLease.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("MarkSending: %v", err)
	}

	freshLease := testsupport.NewItem(t, store, "https://example.com/fresh")
	if _, err := store.MarkSending(ctx, freshLease.ID, now); err != nil {
		t.Fatalf("MarkSending: %v", err)
	}

	delivered := testsupport.NewItem(t, store, "https://example.com/done")
	if _, err := store.MarkDone(ctx, delivered.ID, now, queue.Generated{}); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	eligible, err := store.Eligible(ctx, now, leaseTimeout)
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}

	got := make(map[int64]bool, len(eligible))
	for _, item := range eligible {
		got[item.ID] = true
	}
	for _, want := range []*queue.Item{queued, retryDue, staleLease} {
		if !got[want.ID] {
			t.Errorf("item %d (%s) missing from eligible set", want.ID, want.URL)
		}
	}
	for _, skip := range []*queue.Item{retryLater, freshLease, delivered} {
		if got[skip.ID] {
			t.Errorf("item %d (%s) should not be eligible", skip.ID, skip.URL)
		}
	}

	// Oldest first.
	for i := 1; i < len(eligible); i++ {
		if eligible[i].CreatedAt.Before(eligible[i-1].CreatedAt) {
			t.Errorf("eligible not ordered oldest first: %v", eligible)
		}
	}
}

func TestRetryResetsErrorState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	failed := testsupport.NewItem(t, store, "https://example.com/failed")
	if _, err := store.MarkError(ctx, failed.ID, now, "boom", 3, now.Add(time.Hour)); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	queuedItem := testsupport.NewItem(t, store, "https://example.com/untouched")

	updated, err := store.Retry(ctx)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d", updated)
	}

	item, err := store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusQueued || item.RetryCount != 0 {
		t.Errorf("item = %+v", item)
	}
	if item.LastError != "" || item.NextRetryAt != nil {
		t.Errorf("error state not cleared: %+v", item)
	}

	// The already-queued item was never touched.
	other, err := store.GetByID(ctx, queuedItem.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if other.Status != queue.StatusQueued {
		t.Errorf("other = %+v", other)
	}
}

func TestRetrySelectedIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	first := testsupport.NewItem(t, store, "https://example.com/first")
	second := testsupport.NewItem(t, store, "https://example.com/second")
	for _, item := range []*queue.Item{first, second} {
		if _, err := store.MarkError(ctx, item.ID, now, "boom", 1, now.Add(time.Hour)); err != nil {
			t.Fatalf("MarkError: %v", err)
		}
	}

	updated, err := store.Retry(ctx, first.ID)
	if err != nil || updated != 1 {
		t.Fatalf("Retry = %d, err %v", updated, err)
	}

	stillFailed, err := store.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stillFailed.Status != queue.StatusError {
		t.Errorf("second item = %+v", stillFailed)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewItem(t, store, "https://example.com/a")
	b := testsupport.NewItem(t, store, "https://example.com/b")
	if _, err := store.MarkDone(ctx, a.ID, time.Now().UTC(), queue.Generated{}); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d items", len(all))
	}
	// Newest first for display.
	if all[0].ID != b.ID {
		t.Errorf("order = %d,%d", all[0].ID, all[1].ID)
	}

	done, err := store.List(ctx, queue.StatusDone)
	if err != nil {
		t.Fatalf("List(done): %v", err)
	}
	if len(done) != 1 || done[0].ID != a.ID {
		t.Errorf("done = %+v", done)
	}
}

func TestPurgeDoneRemoveClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	delivered := testsupport.NewItem(t, store, "https://example.com/old")
	pending := testsupport.NewItem(t, store, "https://example.com/pending")
	if _, err := store.MarkDone(ctx, delivered.ID, time.Now().UTC(), queue.Generated{}); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	purged, err := store.PurgeDone(ctx)
	if err != nil || purged != 1 {
		t.Fatalf("PurgeDone = %d, err %v", purged, err)
	}

	ok, err := store.Remove(ctx, pending.ID)
	if err != nil || !ok {
		t.Fatalf("Remove = %v, err %v", ok, err)
	}
	ok, err = store.Remove(ctx, pending.ID)
	if err != nil || ok {
		t.Fatalf("second Remove = %v, err %v", ok, err)
	}

	testsupport.NewItem(t, store, "https://example.com/x")
	testsupport.NewItem(t, store, "https://example.com/y")
	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 2 {
		t.Fatalf("Clear = %d, err %v", cleared, err)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	testsupport.NewItem(t, store, "https://example.com/1")
	failed := testsupport.NewItem(t, store, "https://example.com/2")
	if _, err := store.MarkError(ctx, failed.ID, now, "boom", 1, now.Add(time.Minute)); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusQueued] != 1 || stats[queue.StatusError] != 1 {
		t.Errorf("stats = %v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Queued != 1 || health.Errored != 1 {
		t.Errorf("health = %+v", health)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Queued "); !ok || status != queue.StatusQueued {
		t.Errorf("ParseStatus = %v, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("pending"); ok {
		t.Error("unknown status should not parse")
	}
	if _, ok := queue.ParseStatus(""); ok {
		t.Error("empty status should not parse")
	}
}

func TestItemHelpers(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	due := queue.Item{Status: queue.StatusError, NextRetryAt: &past}
	if !due.RetryDue(now) {
		t.Error("past horizon should be due")
	}
	notDue := queue.Item{Status: queue.StatusError, NextRetryAt: &future}
	if notDue.RetryDue(now) {
		t.Error("future horizon should not be due")
	}
	queued := queue.Item{Status: queue.StatusQueued}
	if queued.RetryDue(now) {
		t.Error("queued items are not retry candidates")
	}

	stale := queue.Item{Status: queue.StatusSending, UpdatedAt: now.Add(-3 * time.Minute)}
	if !stale.LeaseExpired(now, 2*time.Minute) {
		t.Error("old lease should be expired")
	}
	fresh := queue.Item{Status: queue.StatusSending, UpdatedAt: now}
	if fresh.LeaseExpired(now, 2*time.Minute) {
		t.Error("fresh lease should not be expired")
	}
}
