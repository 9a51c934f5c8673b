package api

import (
	"linkq/internal/queue"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:               item.ID,
		URL:              item.URL,
		Title:            item.Title,
		Comment:          item.Comment,
		Status:           string(item.Status),
		LastError:        item.LastError,
		RetryCount:       item.RetryCount,
		GeneratedComment: item.GeneratedComment,
		GeneratedSummary: item.GeneratedSummary,
		GeneratedTags:    item.GeneratedTags,
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if item.NextRetryAt != nil && !item.NextRetryAt.IsZero() {
		dto.NextRetryAt = item.NextRetryAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStats converts a status-count map into its API representation.
func FromStats(stats map[queue.Status]int) map[string]int {
	if len(stats) == 0 {
		return map[string]int{}
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromDatabaseHealth converts database diagnostics into the API payload.
func FromDatabaseHealth(health queue.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		DBPath:           health.DBPath,
		SchemaVersion:    health.SchemaVersion,
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		TableExists:      health.TableExists,
		ColumnsPresent:   health.ColumnsPresent,
		MissingColumns:   health.MissingColumns,
		TotalItems:       health.TotalItems,
		IntegrityCheck:   health.IntegrityCheck,
		Error:            health.Error,
	}
}
