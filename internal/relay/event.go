package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind names the event variants the relay understands.
type Kind string

const (
	KindBookmarkSuccess Kind = "bookmark-success"
	KindBookmarkError   Kind = "bookmark-error"
)

// Event describes the outcome of one delivery attempt. Success events carry
// the endpoint's generated content; error events carry the failure message
// and the retry schedule.
type Event struct {
	Kind       Kind      `json:"kind"`
	ItemID     int64     `json:"item_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	// Success fields.
	GeneratedComment string   `json:"generated_comment,omitempty"`
	GeneratedSummary string   `json:"generated_summary,omitempty"`
	GeneratedTags    []string `json:"generated_tags,omitempty"`

	// Error fields.
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// Valid reports whether the event kind is one the relay understands.
func (k Kind) Valid() bool {
	switch k {
	case KindBookmarkSuccess, KindBookmarkError:
		return true
	}
	return false
}

// ParseEvent decodes an event from its wire form, rejecting unknown kinds so
// a listener never acts on a message it does not understand.
func ParseEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode relay event: %w", err)
	}
	if !event.Kind.Valid() {
		return Event{}, fmt.Errorf("unknown relay event kind %q", event.Kind)
	}
	return event, nil
}

// Encode renders the event in its wire form.
func (e Event) Encode() ([]byte, error) {
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("unknown relay event kind %q", e.Kind)
	}
	return json.Marshal(e)
}

// Summary renders a short single-line description for logs and push
// notifications.
func (e Event) Summary() string {
	label := e.URL
	if title := strings.TrimSpace(e.Title); title != "" {
		label = title
	}
	switch e.Kind {
	case KindBookmarkSuccess:
		return fmt.Sprintf("Saved: %s", label)
	case KindBookmarkError:
		return fmt.Sprintf("Save failed: %s (%s)", label, e.Error)
	}
	return string(e.Kind)
}
