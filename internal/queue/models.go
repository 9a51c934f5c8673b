package queue

import (
	"strings"
	"time"
)

// Status represents the delivery lifecycle of a queue item.
type Status string

const (
	// StatusQueued items are waiting for their first (or a manually retried)
	// delivery attempt and never carry error state.
	StatusQueued Status = "queued"
	// StatusSending marks an item leased by an in-progress pass.
	StatusSending Status = "sending"
	// StatusDone items were accepted by the save endpoint. They are retained
	// for history until explicitly purged.
	StatusDone Status = "done"
	// StatusError items failed their last attempt and wait for NextRetryAt.
	StatusError Status = "error"
)

var allStatuses = []Status{
	StatusQueued,
	StatusSending,
	StatusDone,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Item represents one durably persisted bookmark save request.
type Item struct {
	ID         int64
	URL        string
	Title      string
	Comment    string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastError  string
	RetryCount int
	// NextRetryAt is set only while Status is StatusError; it is the earliest
	// time a future pass may re-attempt delivery.
	NextRetryAt *time.Time

	// Generated* fields are filled by the save endpoint's content pipeline
	// after a successful delivery. They are opaque to the queue.
	GeneratedComment string
	GeneratedSummary string
	GeneratedTags    []string
}

// Generated carries the endpoint-produced content stored alongside a
// successful delivery.
type Generated struct {
	Comment string
	Summary string
	Tags    []string
}

// IsTerminal reports whether the item needs no further delivery attempts.
func (i Item) IsTerminal() bool {
	return i.Status == StatusDone
}

// RetryDue reports whether an errored item is eligible again at now.
func (i Item) RetryDue(now time.Time) bool {
	if i.Status != StatusError {
		return false
	}
	if i.NextRetryAt == nil {
		return true
	}
	return !i.NextRetryAt.After(now)
}

// LeaseExpired reports whether a sending lease is old enough to reclaim.
func (i Item) LeaseExpired(now time.Time, leaseTimeout time.Duration) bool {
	if i.Status != StatusSending {
		return false
	}
	return i.UpdatedAt.Before(now.Add(-leaseTimeout))
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total   int
	Queued  int
	Sending int
	Done    int
	Errored int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
