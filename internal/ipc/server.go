package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"linkq/internal/api"
	"linkq/internal/daemon"
	"linkq/internal/logging"
	"linkq/internal/queue"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Linkq", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun linkq daemon stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context

	// stopOnce guards the daemon shutdown requested over the socket.
	stopOnce sync.Once
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Add(req AddRequest, resp *AddResponse) error {
	item, err := s.daemon.Enqueue(s.ctx, req.URL, req.Title, req.Comment)
	if err != nil {
		return err
	}
	resp.Item = api.FromQueueItem(item)
	return nil
}

func (s *service) Sync(_ SyncRequest, resp *SyncResponse) error {
	accepted := s.daemon.SyncNow()
	resp.Accepted = accepted
	if accepted {
		resp.Message = "delivery pass requested"
	} else {
		resp.Message = "a delivery pass is already running or pending"
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.stopOnce.Do(func() {
		// Stop in the background so this RPC can still answer.
		go s.daemon.Stop()
	})
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Online = status.Online
	resp.SyncRunning = status.SyncRunning
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.QueueStats = api.FromStats(status.QueueStats)
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := queue.ParseStatus(status)
		if !ok {
			return fmt.Errorf("unknown status %q", status)
		}
		statuses = append(statuses, parsed)
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = api.FromQueueItems(items)
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid queue item id %d", req.ID)
	}
	item, err := s.daemon.GetQueueItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %d not found", req.ID)
	}
	resp.Item = api.FromQueueItem(item)
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	s.log().Debug("queue retry requested", logging.Int("item_count", len(req.IDs)))
	updated, err := s.daemon.RetryItems(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("queue items retried",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) QueuePurge(_ QueuePurgeRequest, resp *QueuePurgeResponse) error {
	removed, err := s.daemon.PurgeDone(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("delivered items purged",
		logging.String(logging.FieldEventType, "queue_purge"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("queue remove requires at least one id")
	}
	removed, err := s.daemon.RemoveItems(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	removed, err := s.daemon.ClearQueue(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.daemon.QueueHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = health.Total
	resp.Queued = health.Queued
	resp.Sending = health.Sending
	resp.Done = health.Done
	resp.Errored = health.Errored
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.TableExists = health.TableExists
	resp.ColumnsPresent = append(resp.ColumnsPresent, health.ColumnsPresent...)
	resp.MissingColumns = append(resp.MissingColumns, health.MissingColumns...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalItems = health.TotalItems
	resp.Error = health.Error
	return err
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	for _, event := range s.daemon.RecentEvents(req.Limit) {
		wire := Event{
			Kind:       string(event.Kind),
			ItemID:     event.ItemID,
			URL:        event.URL,
			Title:      event.Title,
			OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339),
			Error:      event.Error,
			RetryCount: event.RetryCount,
			Tags:       event.GeneratedTags,
		}
		if event.NextRetryAt != nil {
			wire.NextRetryAt = event.NextRetryAt.UTC().Format(time.RFC3339)
		}
		resp.Events = append(resp.Events, wire)
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
