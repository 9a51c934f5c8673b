package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"linkq/internal/config"
	"linkq/internal/logging"
	"linkq/internal/queue"
	"linkq/internal/relay"
	"linkq/internal/saveapi"
	"linkq/internal/syncer"
	"linkq/internal/telemetry"
	"linkq/internal/trigger"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store

	hub        *relay.Hub
	notifier   relay.Notifier
	dispatcher *syncer.Dispatcher
	monitor    *trigger.Monitor
	netlink    *trigger.NetlinkMonitor
	api        *apiServer

	lockPath string
	lock     *flock.Flock
	pidPath  string

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Online       bool
	SyncRunning  bool
	QueueStats   map[queue.Status]int
}

// Option overrides a daemon collaborator, used in tests.
type Option func(*options)

type options struct {
	saver saveapi.Saver
	probe trigger.ProbeFunc
}

// WithSaver substitutes the save endpoint client.
func WithSaver(saver saveapi.Saver) Option {
	return func(o *options) { o.saver = saver }
}

// WithProbe substitutes the connectivity probe.
func WithProbe(probe trigger.ProbeFunc) Option {
	return func(o *options) { o.probe = probe }
}

// New constructs a daemon with initialized dependencies. The queue store is
// opened here; delivery requires a configured save endpoint.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.ValidateEndpoint(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	saver := o.saver
	if saver == nil {
		client, err := saveapi.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		saver = client
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	hub := relay.NewHub(logger)
	worker := syncer.NewWorker(cfg, store, saver, hub, logger)
	dispatcher := syncer.NewDispatcher(cfg, worker, logger)

	d := &Daemon{
		cfg:        cfg,
		logger:     logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:      store,
		hub:        hub,
		notifier:   relay.NewNotifier(cfg),
		dispatcher: dispatcher,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
		pidPath:    cfg.PIDPath(),
	}

	monitorOpts := []trigger.MonitorOption{}
	if o.probe != nil {
		monitorOpts = append(monitorOpts, trigger.WithProbe(o.probe))
	}
	d.monitor = trigger.NewMonitor(cfg, logger, dispatcher.RequestSync, monitorOpts...)
	d.netlink = trigger.NewNetlinkMonitor(cfg, logger, d.monitor.Poke)

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.api = server

	return d, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another linkq daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		d.logger.Warn("failed to write pid file", logging.Error(err))
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatcher.Run(runCtx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.monitor.Run(runCtx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		relay.Bridge(runCtx, d.hub, d.notifier)
	}()

	if err := d.netlink.Start(runCtx); err != nil {
		d.logger.Warn("netlink monitor failed to start", logging.Error(err))
	}

	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.wg.Wait()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("linkq daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.netlink.Stop()
	d.api.stop()
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	if err := os.Remove(d.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("failed to remove pid file", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("linkq daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon's background services are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status aggregates runtime information for the CLI and HTTP surfaces.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Online:       d.monitor.Online(),
		SyncRunning:  d.dispatcher.Running(),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.QueueStats = stats
	}
	return status
}

// Enqueue persists a new save request and nudges the dispatcher. The item is
// durably stored before this returns, so callers may report success
// immediately.
func (d *Daemon) Enqueue(ctx context.Context, url, title, comment string) (*queue.Item, error) {
	item, err := d.store.Create(ctx, url, title, comment)
	if err != nil {
		return nil, err
	}
	telemetry.EnqueuedCounter.Inc()
	d.logger.Info("save request queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldURL, item.URL))
	d.dispatcher.RequestSync("enqueue")
	return item, nil
}

// SyncNow requests an immediate delivery pass. Returns false when a pass is
// already running or pending.
func (d *Daemon) SyncNow() bool {
	return d.dispatcher.RequestSync("manual")
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetQueueItem fetches a single queue item.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// RetryItems resets errored items (optionally a subset) back to queued and
// nudges the dispatcher.
func (d *Daemon) RetryItems(ctx context.Context, ids []int64) (int64, error) {
	updated, err := d.store.Retry(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		d.dispatcher.RequestSync("retry")
	}
	return updated, nil
}

// PurgeDone removes delivered items.
func (d *Daemon) PurgeDone(ctx context.Context) (int64, error) {
	return d.store.PurgeDone(ctx)
}

// RemoveItems deletes specific queue items.
func (d *Daemon) RemoveItems(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed queue database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// RecentEvents returns up to limit recent delivery events.
func (d *Daemon) RecentEvents(limit int) []relay.Event {
	return d.hub.Recent(limit)
}

// Subscribe attaches a listener to the delivery event stream.
func (d *Daemon) Subscribe() (<-chan relay.Event, func()) {
	return d.hub.Subscribe()
}

// TestNotification sends a test push and reports the outcome.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "notification sent", nil
}
