package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"linkq/internal/config"
)

const userAgent = "linkq/0.1"

// Notifier pushes delivery outcomes to an external channel.
type Notifier interface {
	NotifySaved(ctx context.Context, event Event) error
	NotifySaveFailed(ctx context.Context, event Event) error
	TestNotification(ctx context.Context) error
}

// NewNotifier builds a notifier backed by ntfy when configured. When no ntfy
// topic is configured, a noop implementation is returned.
func NewNotifier(cfg *config.Config) Notifier {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopNotifier{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyNotifier) NotifySaved(ctx context.Context, event Event) error {
	data := payload{
		title:   "Linkq - Saved",
		message: event.Summary(),
		tags:    []string{"linkq", "save", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyNotifier) NotifySaveFailed(ctx context.Context, event Event) error {
	message := event.Summary()
	if event.NextRetryAt != nil {
		message = fmt.Sprintf("%s\nRetry %d scheduled for %s", message, event.RetryCount, event.NextRetryAt.Local().Format(time.Kitchen))
	}
	data := payload{
		title:    "Linkq - Save Failed",
		message:  message,
		tags:     []string{"linkq", "save", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyNotifier) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Linkq - Test",
		message:  "Notification system test",
		tags:     []string{"linkq", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyNotifier) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) NotifySaved(context.Context, Event) error      { return nil }
func (noopNotifier) NotifySaveFailed(context.Context, Event) error { return nil }
func (noopNotifier) TestNotification(context.Context) error        { return nil }

// Bridge subscribes to a hub and forwards each event to the notifier until
// the context ends. Intended to run in its own goroutine.
func Bridge(ctx context.Context, hub *Hub, notifier Notifier) {
	if hub == nil || notifier == nil {
		return
	}
	events, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Kind {
			case KindBookmarkSuccess:
				_ = notifier.NotifySaved(ctx, event)
			case KindBookmarkError:
				_ = notifier.NotifySaveFailed(ctx, event)
			}
		}
	}
}
