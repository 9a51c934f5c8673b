package testsupport

import (
	"context"
	"testing"

	"linkq/internal/config"
	"linkq/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem enqueues a save request for tests using the provided store.
func NewItem(t testing.TB, store *queue.Store, url string) *queue.Item {
	t.Helper()

	item, err := store.Create(context.Background(), url, "", "")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return item
}
