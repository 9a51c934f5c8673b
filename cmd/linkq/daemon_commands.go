package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"linkq/internal/api"
	"linkq/internal/daemonctl"
	"linkq/internal/ipc"
	"linkq/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the linkq daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the linkq daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the linkq daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				fmt.Fprintln(stdout, renderSectionHeader("Daemon", colorize))
				stats := make(map[string]int)
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					fmt.Fprintln(stdout, renderStatusLine("Running", statusOK, fmt.Sprintf("yes (pid %d)", status.PID), colorize))
					onlineKind := statusWarn
					if status.Online {
						onlineKind = statusOK
					}
					fmt.Fprintln(stdout, renderStatusLine("Online", onlineKind, yesNo(status.Online), colorize))
					fmt.Fprintln(stdout, renderStatusLine("Sync running", statusInfo, yesNo(status.SyncRunning), colorize))
					fmt.Fprintln(stdout, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
					fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, ctx.socketPath(), colorize))
					stats = status.QueueStats
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Running", statusWarn, "no (showing local queue state)", colorize))
					counts, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					stats = api.FromStats(counts)
				}

				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderSectionHeader("Queue", colorize))
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
