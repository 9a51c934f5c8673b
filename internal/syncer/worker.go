package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkq/internal/config"
	"linkq/internal/logging"
	"linkq/internal/queue"
	"linkq/internal/relay"
	"linkq/internal/saveapi"
	"linkq/internal/telemetry"
)

// Summary reports what one pass accomplished.
type Summary struct {
	PassID    string
	Attempted int
	Delivered int
	Failed    int
	Reclaimed int
}

// Worker executes delivery passes against the queue.
type Worker struct {
	store        *queue.Store
	saver        saveapi.Saver
	hub          *relay.Hub
	logger       *slog.Logger
	leaseTimeout time.Duration
}

// NewWorker constructs a delivery worker. hub may be nil when no listener
// cares about per-item events.
func NewWorker(cfg *config.Config, store *queue.Store, saver saveapi.Saver, hub *relay.Hub, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	leaseTimeout := time.Duration(cfg.Sync.LeaseTimeoutSeconds) * time.Second
	if leaseTimeout <= 0 {
		leaseTimeout = 2 * time.Minute
	}
	return &Worker{
		store:        store,
		saver:        saver,
		hub:          hub,
		logger:       logger.With(logging.String(logging.FieldComponent, "syncer")),
		leaseTimeout: leaseTimeout,
	}
}

// Pass scans for eligible items and attempts each one in order. The scan
// includes stale sending leases, so a crash mid-delivery heals on the next
// pass without a dedicated reclaim step. Context cancellation stops the pass
// between items; the item in flight finishes its store update first.
func (w *Worker) Pass(ctx context.Context) (Summary, error) {
	summary := Summary{PassID: uuid.NewString()[:8]}
	passLogger := w.logger.With(logging.String(logging.FieldPassID, summary.PassID))

	now := time.Now().UTC()
	items, err := w.store.Eligible(ctx, now, w.leaseTimeout)
	if err != nil {
		return summary, err
	}
	telemetry.PassCounter.Inc()

	if len(items) == 0 {
		passLogger.Debug("nothing eligible")
		w.updateDepth(ctx)
		return summary, nil
	}
	passLogger.Info("pass started", logging.Int("eligible", len(items)))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			passLogger.Info("pass interrupted",
				logging.Int("attempted", summary.Attempted),
				logging.Error(err))
			break
		}

		reclaimed := item.Status == queue.StatusSending
		if reclaimed {
			passLogger.Warn("reclaiming stale lease",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Time("lease_taken_at", item.UpdatedAt))
		}

		w.attempt(ctx, passLogger, item, reclaimed, &summary)
	}

	w.updateDepth(ctx)
	passLogger.Info("pass finished",
		logging.Int("attempted", summary.Attempted),
		logging.Int("delivered", summary.Delivered),
		logging.Int("failed", summary.Failed),
		logging.Int("reclaimed", summary.Reclaimed))
	return summary, nil
}

func (w *Worker) attempt(ctx context.Context, passLogger *slog.Logger, item *queue.Item, reclaimed bool, summary *Summary) {
	now := time.Now().UTC()
	leased, err := w.store.MarkSending(ctx, item.ID, now)
	if err != nil {
		passLogger.Error("lease failed", logging.Int64(logging.FieldItemID, item.ID), logging.Error(err))
		return
	}
	if !leased {
		// Removed between scan and lease; nothing to do.
		return
	}
	summary.Attempted++
	if reclaimed {
		summary.Reclaimed++
		telemetry.ReclaimedCounter.Inc()
	}

	itemLogger := passLogger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldURL, item.URL),
	)

	result, saveErr := w.saver.Save(ctx, saveapi.Request{URL: item.URL, Comment: item.Comment})
	finished := time.Now().UTC()

	if saveErr == nil {
		gen := queue.Generated{
			Comment: result.GeneratedComment,
			Summary: result.GeneratedSummary,
			Tags:    result.GeneratedTags,
		}
		if _, err := w.store.MarkDone(ctx, item.ID, finished, gen); err != nil {
			itemLogger.Error("mark done failed", logging.Error(err))
			return
		}
		summary.Delivered++
		telemetry.DeliveredCounter.Inc()
		itemLogger.Info("delivered", logging.Int("attempt", item.RetryCount+1))
		w.publish(relay.Event{
			Kind:             relay.KindBookmarkSuccess,
			ItemID:           item.ID,
			URL:              item.URL,
			Title:            item.Title,
			OccurredAt:       finished,
			GeneratedComment: result.GeneratedComment,
			GeneratedSummary: result.GeneratedSummary,
			GeneratedTags:    result.GeneratedTags,
		})
		return
	}

	retryCount := item.RetryCount + 1
	nextRetryAt := finished.Add(Delay(retryCount))
	if _, err := w.store.MarkError(ctx, item.ID, finished, saveErr.Error(), retryCount, nextRetryAt); err != nil {
		itemLogger.Error("mark error failed", logging.Error(err))
		return
	}
	summary.Failed++
	telemetry.FailedCounter.Inc()
	itemLogger.Warn("delivery failed",
		logging.Error(saveErr),
		logging.Int("retry_count", retryCount),
		logging.Time("next_retry_at", nextRetryAt))
	w.publish(relay.Event{
		Kind:        relay.KindBookmarkError,
		ItemID:      item.ID,
		URL:         item.URL,
		Title:       item.Title,
		OccurredAt:  finished,
		Error:       saveErr.Error(),
		RetryCount:  retryCount,
		NextRetryAt: &nextRetryAt,
	})
}

func (w *Worker) publish(event relay.Event) {
	if w.hub != nil {
		w.hub.Publish(event)
	}
}

func (w *Worker) updateDepth(ctx context.Context) {
	health, err := w.store.Health(ctx)
	if err != nil {
		return
	}
	telemetry.QueueDepthGauge.Set(float64(health.Queued + health.Errored + health.Sending))
}
