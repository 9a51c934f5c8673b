package ipc

import "linkq/internal/api"

// QueueItem mirrors the HTTP API queue DTO for internal IPC callers.
type QueueItem = api.QueueItem

// AddRequest enqueues a new save request.
type AddRequest struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// AddResponse returns the stored item.
type AddResponse struct {
	Item QueueItem `json:"item"`
}

// SyncRequest asks the daemon for an immediate delivery pass.
type SyncRequest struct{}

// SyncResponse indicates whether the pass was accepted.
type SyncResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// StopRequest shuts down the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	Online      bool           `json:"online"`
	SyncRunning bool           `json:"sync_running"`
	QueueStats  map[string]int `json:"queue_stats"`
	QueueDBPath string         `json:"queue_db_path"`
	LockPath    string         `json:"lock_path"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRetryRequest retries errored items. Empty list means all errored items.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueuePurgeRequest removes delivered items.
type QueuePurgeRequest struct{}

// QueuePurgeResponse reports number of removed entries.
type QueuePurgeResponse struct {
	Removed int64 `json:"removed"`
}

// QueueRemoveRequest removes specific items by ID.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports number of removed entries.
type QueueRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total   int `json:"total"`
	Queued  int `json:"queued"`
	Sending int `json:"sending"`
	Done    int `json:"done"`
	Errored int `json:"errored"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error"`
}

// EventsRequest fetches recent delivery events.
type EventsRequest struct {
	Limit int `json:"limit"`
}

// Event is one delivery outcome in wire form.
type Event struct {
	Kind        string   `json:"kind"`
	ItemID      int64    `json:"item_id"`
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	OccurredAt  string   `json:"occurred_at"`
	Error       string   `json:"error,omitempty"`
	RetryCount  int      `json:"retry_count,omitempty"`
	NextRetryAt string   `json:"next_retry_at,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// EventsResponse lists recent delivery events, oldest first.
type EventsResponse struct {
	Events []Event `json:"events"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
