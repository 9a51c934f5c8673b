// Package daemonrun hosts the foreground daemon process loop behind the
// CLI's hidden daemon command.
package daemonrun

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"linkq/internal/config"
	"linkq/internal/daemon"
	"linkq/internal/ipc"
	"linkq/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// SocketPath overrides the IPC socket location. Empty uses the
	// config-derived default.
	SocketPath string
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the linkq daemon runtime loop and blocks until the context is
// canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("linkq daemon shutting down")
	return nil
}
