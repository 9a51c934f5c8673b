package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkq/internal/ipc"
	"linkq/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var comment string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Queue a bookmark for delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if client != nil {
					resp, err := client.Add(args[0], title, comment)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued item %d: %s\n", resp.Item.ID, resp.Item.URL)
					return nil
				}

				// Daemon offline: persist directly so the bookmark survives
				// until the next daemon run picks it up.
				item, err := store.Create(cmd.Context(), args[0], title, comment)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Queued item %d: %s\n", item.ID, item.URL)
				fmt.Fprintln(out, "Daemon is not running; the item will be delivered on the next daemon start")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Bookmark title")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Comment to attach to the bookmark")
	return cmd
}
