package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkq/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Request an immediate delivery pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sync()
				if err != nil {
					return err
				}
				if resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				} else if resp.Accepted {
					fmt.Fprintln(cmd.OutOrStdout(), "Delivery pass requested")
				}
				return nil
			})
		},
	}
}
