package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID               int64    `json:"id"`
	URL              string   `json:"url"`
	Title            string   `json:"title,omitempty"`
	Comment          string   `json:"comment,omitempty"`
	Status           string   `json:"status"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
	LastError        string   `json:"lastError,omitempty"`
	RetryCount       int      `json:"retryCount"`
	NextRetryAt      string   `json:"nextRetryAt,omitempty"`
	GeneratedComment string   `json:"generatedComment,omitempty"`
	GeneratedSummary string   `json:"generatedSummary,omitempty"`
	GeneratedTags    []string `json:"generatedTags,omitempty"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Online       bool           `json:"online"`
	SyncRunning  bool           `json:"syncRunning"`
	QueueStats   map[string]int `json:"queueStats"`
}

// DatabaseHealth reports queue database diagnostics.
type DatabaseHealth struct {
	DBPath           string   `json:"dbPath"`
	SchemaVersion    string   `json:"schemaVersion"`
	DatabaseExists   bool     `json:"databaseExists"`
	DatabaseReadable bool     `json:"databaseReadable"`
	TableExists      bool     `json:"tableExists"`
	ColumnsPresent   []string `json:"columnsPresent,omitempty"`
	MissingColumns   []string `json:"missingColumns,omitempty"`
	TotalItems       int      `json:"totalItems"`
	IntegrityCheck   bool     `json:"integrityCheck"`
	Error            string   `json:"error,omitempty"`
}

// SyncResponse reports the outcome of a manual sync request.
type SyncResponse struct {
	Accepted bool   `json:"accepted"`
	Detail   string `json:"detail,omitempty"`
}
