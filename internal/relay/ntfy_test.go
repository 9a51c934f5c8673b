package relay_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"linkq/internal/config"
	"linkq/internal/relay"
)

type capturedNotification struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, func() []capturedNotification) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedNotification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedNotification{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedNotification {
		mu.Lock()
		defer mu.Unlock()
		out := make([]capturedNotification, len(captured))
		copy(out, captured)
		return out
	}
}

func ntfyConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RequestTimeout = 2
	return &cfg
}

func TestNotifierSendsSaveFailed(t *testing.T) {
	server, captured := newNtfyServer(t)
	notifier := relay.NewNotifier(ntfyConfig(server.URL))

	next := time.Now().Add(5 * time.Minute)
	event := relay.Event{
		Kind:        relay.KindBookmarkError,
		URL:         "https://example.com",
		Error:       "save endpoint: request failed",
		RetryCount:  1,
		NextRetryAt: &next,
	}
	if err := notifier.NotifySaveFailed(context.Background(), event); err != nil {
		t.Fatalf("NotifySaveFailed: %v", err)
	}

	got := captured()
	if len(got) != 1 {
		t.Fatalf("captured %d notifications", len(got))
	}
	if got[0].title != "Linkq - Save Failed" {
		t.Errorf("title = %q", got[0].title)
	}
	if got[0].priority != "high" {
		t.Errorf("priority = %q", got[0].priority)
	}
	if !strings.Contains(got[0].body, "Retry 1 scheduled") {
		t.Errorf("body = %q", got[0].body)
	}
}

func TestNotifierSendsSaved(t *testing.T) {
	server, captured := newNtfyServer(t)
	notifier := relay.NewNotifier(ntfyConfig(server.URL))

	event := relay.Event{Kind: relay.KindBookmarkSuccess, Title: "Example", URL: "https://example.com"}
	if err := notifier.NotifySaved(context.Background(), event); err != nil {
		t.Fatalf("NotifySaved: %v", err)
	}

	got := captured()
	if len(got) != 1 || got[0].body != "Saved: Example" {
		t.Fatalf("captured = %+v", got)
	}
}

func TestNotifierFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic gone", http.StatusGone)
	}))
	defer server.Close()

	notifier := relay.NewNotifier(ntfyConfig(server.URL))
	err := notifier.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Fatalf("err = %v", err)
	}
}

func TestNotifierNoopWithoutTopic(t *testing.T) {
	notifier := relay.NewNotifier(ntfyConfig(""))
	if err := notifier.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop notifier returned error: %v", err)
	}
}

func TestBridgeForwardsEvents(t *testing.T) {
	server, captured := newNtfyServer(t)
	notifier := relay.NewNotifier(ntfyConfig(server.URL))
	hub := relay.NewHub(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Bridge(ctx, hub, notifier)
	}()

	hub.Publish(relay.Event{Kind: relay.KindBookmarkSuccess, URL: "https://example.com"})

	deadline := time.After(2 * time.Second)
	for len(captured()) == 0 {
		select {
		case <-deadline:
			t.Fatal("bridge never forwarded event")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop on context cancel")
	}
}
