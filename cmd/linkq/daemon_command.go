package main

import (
	"github.com/spf13/cobra"

	"linkq/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the linkq daemon in the foreground (internal)",
		Hidden:       true,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			socket := ""
			if ctx.socketFlag != nil {
				socket = *ctx.socketFlag
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				SocketPath: socket,
				LogLevel:   logLevel,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}
