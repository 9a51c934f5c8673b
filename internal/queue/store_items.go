package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"linkq/internal/textutil"
)

// ErrInvalidURL rejects enqueue requests whose URL is empty or unparseable.
var ErrInvalidURL = errors.New("invalid bookmark url")

const itemColumns = "id, url, title, comment, status, created_at, updated_at, last_error, retry_count, next_retry_at, generated_comment, generated_summary, generated_tags"

// Create persists a new save request with status queued and returns it.
// The caller's UI may treat a successful Create as "saved"; no network I/O
// happens here.
func (s *Store) Create(ctx context.Context, rawURL, title, comment string) (*Item, error) {
	ctx = ensureContext(ctx)

	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, ErrInvalidURL
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (url, title, comment, status, created_at, updated_at, retry_count)
         VALUES (?, ?, ?, ?, ?, ?, 0)`,
		trimmed,
		nullableString(textutil.CleanTitle(title)),
		nullableString(textutil.CleanComment(comment)),
		StatusQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. Missing items return nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns queue items filtered by status set (or all items when no
// status is provided), newest first for display.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at DESC, id DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Eligible returns the items a pass should attempt, oldest first:
// queued items, errored items whose retry time has arrived, and sending
// items whose lease has been stale longer than leaseTimeout.
func (s *Store) Eligible(ctx context.Context, now time.Time, leaseTimeout time.Duration) ([]*Item, error) {
	ctx = ensureContext(ctx)

	nowStr := formatTime(now)
	staleStr := formatTime(now.Add(-leaseTimeout))

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE status = ?
            OR (status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?)
            OR (status = ? AND updated_at < ?)
         ORDER BY created_at, id`,
		StatusQueued,
		StatusError, nowStr,
		StatusSending, staleStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scan eligible items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// MarkSending acquires the delivery lease for an item. The returned bool is
// false when the item no longer exists, for example purged concurrently.
func (s *Store) MarkSending(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ?`,
		StatusSending,
		formatTime(now),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark sending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkDone records a successful delivery, clearing error state and storing
// whatever generated content the endpoint returned.
func (s *Store) MarkDone(ctx context.Context, id int64, now time.Time, gen Generated) (bool, error) {
	tagsJSON, err := encodeTags(gen.Tags)
	if err != nil {
		return false, err
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, updated_at = ?, last_error = NULL, next_retry_at = NULL,
             generated_comment = ?, generated_summary = ?, generated_tags = ?
         WHERE id = ?`,
		StatusDone,
		formatTime(now),
		nullableString(gen.Comment),
		nullableString(gen.Summary),
		nullableString(tagsJSON),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark done: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkError records a failed delivery attempt. retryCount must already be
// incremented by the caller and nextRetryAt must be in the future relative
// to now; both invariants are enforced here because an error row without a
// valid retry horizon would never drain.
func (s *Store) MarkError(ctx context.Context, id int64, now time.Time, message string, retryCount int, nextRetryAt time.Time) (bool, error) {
	if retryCount < 1 {
		return false, fmt.Errorf("mark error: retry count %d must be >= 1", retryCount)
	}
	if !nextRetryAt.After(now) {
		return false, fmt.Errorf("mark error: next retry %s is not after now", nextRetryAt.Format(time.RFC3339))
	}
	if strings.TrimSpace(message) == "" {
		message = "delivery failed"
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, updated_at = ?, last_error = ?, retry_count = ?, next_retry_at = ?
         WHERE id = ?`,
		StatusError,
		formatTime(now),
		message,
		retryCount,
		formatTime(nextRetryAt),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Retry moves errored items back to queued, clearing error state and the
// retry counter. An empty id list retries every errored item.
func (s *Store) Retry(ctx context.Context, ids ...int64) (int64, error) {
	now := formatTime(time.Now().UTC())

	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE queue_items
             SET status = ?, updated_at = ?, last_error = NULL, next_retry_at = NULL, retry_count = 0
             WHERE status = ?`,
			StatusQueued,
			now,
			StatusError,
		)
		if err != nil {
			return 0, fmt.Errorf("retry errored items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusQueued, now, StatusError)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET status = ?, updated_at = ?, last_error = NULL, next_retry_at = NULL, retry_count = 0
         WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected items: %w", err)
	}
	return res.RowsAffected()
}

// PurgeDone deletes delivered items. Housekeeping only; no effect on
// delivery guarantees.
func (s *Store) PurgeDone(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusDone)
	if err != nil {
		return 0, fmt.Errorf("purge done: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		itemURL      string
		title        sql.NullString
		comment      sql.NullString
		statusStr    string
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		lastError    sql.NullString
		retryCount   sql.NullInt64
		nextRetryRaw sql.NullString
		genComment   sql.NullString
		genSummary   sql.NullString
		genTagsJSON  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&itemURL,
		&title,
		&comment,
		&statusStr,
		&createdRaw,
		&updatedRaw,
		&lastError,
		&retryCount,
		&nextRetryRaw,
		&genComment,
		&genSummary,
		&genTagsJSON,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		URL:              itemURL,
		Title:            title.String,
		Comment:          comment.String,
		Status:           Status(statusStr),
		LastError:        lastError.String,
		RetryCount:       int(retryCount.Int64),
		GeneratedComment: genComment.String,
		GeneratedSummary: genSummary.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if nextRetryRaw.Valid {
		if next, err := parseTimeString(nextRetryRaw.String); err == nil {
			item.NextRetryAt = &next
		}
	}
	if genTagsJSON.Valid && genTagsJSON.String != "" {
		var tags []string
		if err := json.Unmarshal([]byte(genTagsJSON.String), &tags); err == nil {
			item.GeneratedTags = tags
		}
	}
	return item, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}
