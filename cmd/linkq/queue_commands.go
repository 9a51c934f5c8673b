package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"linkq/internal/api"
	"linkq/internal/ipc"
	"linkq/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the save queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueuePurgeCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stats := make(map[string]int)
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					stats = status.QueueStats
				} else {
					counts, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					stats = api.FromStats(counts)
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var items []api.QueueItem
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					items = resp.Items
				} else {
					statuses := make([]queue.Status, 0, len(listStatuses))
					for _, raw := range listStatuses {
						parsed, ok := queue.ParseStatus(raw)
						if !ok {
							return fmt.Errorf("unknown status %q", raw)
						}
						statuses = append(statuses, parsed)
					}
					stored, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					items = api.FromQueueItems(stored)
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "URL", "Title", "Status", "Retries", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			truncateText(item.URL, 48),
			truncateText(item.Title, 32),
			formatStatusLabel(item.Status),
			fmt.Sprintf("%d", item.RetryCount),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show details for a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var item api.QueueItem
				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						return err
					}
					item = resp.Item
				} else {
					stored, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if stored == nil {
						return fmt.Errorf("queue item %d not found", id)
					}
					item = api.FromQueueItem(stored)
				}
				printQueueItemDetail(cmd.OutOrStdout(), item)
				return nil
			})
		},
	}
}

func printQueueItemDetail(out io.Writer, item api.QueueItem) {
	fmt.Fprintf(out, "Item %d\n", item.ID)
	fmt.Fprintf(out, "  URL:         %s\n", item.URL)
	if item.Title != "" {
		fmt.Fprintf(out, "  Title:       %s\n", item.Title)
	}
	if item.Comment != "" {
		fmt.Fprintf(out, "  Comment:     %s\n", item.Comment)
	}
	fmt.Fprintf(out, "  Status:      %s\n", formatStatusLabel(item.Status))
	fmt.Fprintf(out, "  Created:     %s\n", formatDisplayTime(item.CreatedAt))
	fmt.Fprintf(out, "  Updated:     %s\n", formatDisplayTime(item.UpdatedAt))
	if item.RetryCount > 0 {
		fmt.Fprintf(out, "  Retries:     %d\n", item.RetryCount)
	}
	if item.LastError != "" {
		fmt.Fprintf(out, "  Last error:  %s\n", item.LastError)
	}
	if item.NextRetryAt != "" {
		fmt.Fprintf(out, "  Next retry:  %s\n", formatDisplayTime(item.NextRetryAt))
	}
	if item.GeneratedComment != "" {
		fmt.Fprintf(out, "  Generated comment: %s\n", item.GeneratedComment)
	}
	if item.GeneratedSummary != "" {
		fmt.Fprintf(out, "  Generated summary: %s\n", item.GeneratedSummary)
	}
	if len(item.GeneratedTags) > 0 {
		fmt.Fprintf(out, "  Generated tags:    %s\n", strings.Join(item.GeneratedTags, ", "))
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Make errored items immediately eligible again",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				if client != nil {
					resp, err := client.QueueRetry(ids)
					if err != nil {
						return err
					}
					updated = resp.Updated
				} else {
					var err error
					updated, err = store.Retry(cmd.Context(), ids...)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d errored items\n", updated)
				return nil
			})
		},
	}
}

func newQueuePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove delivered items from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.QueuePurge()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					var err error
					removed, err = store.PurgeDone(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d delivered items\n", removed)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID...>",
		Short: "Remove specific queue items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.QueueRemove(ids)
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					for _, id := range ids {
						ok, err := store.Remove(cmd.Context(), id)
						if err != nil {
							return err
						}
						if ok {
							removed++
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.QueueClear()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					var err error
					removed, err = store.Clear(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d queue items\n", removed)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if client != nil {
					health, err := client.QueueHealth()
					if err != nil {
						return err
					}
					printQueueHealth(out, health.Total, health.Queued, health.Sending, health.Done, health.Errored)

					db, err := client.DatabaseHealth()
					if err != nil {
						return err
					}
					printDatabaseHealth(out, db.DBPath, db.SchemaVersion, db.IntegrityCheck, db.MissingColumns, db.Error)
					return nil
				}

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				printQueueHealth(out, health.Total, health.Queued, health.Sending, health.Done, health.Errored)

				db, err := store.CheckHealth(cmd.Context())
				if err != nil && db.Error == "" {
					return err
				}
				printDatabaseHealth(out, db.DBPath, db.SchemaVersion, db.IntegrityCheck, db.MissingColumns, db.Error)
				return nil
			})
		},
	}
}

func printQueueHealth(out io.Writer, total, queued, sending, done, errored int) {
	fmt.Fprintf(out, "Total: %d\nQueued: %d\nSending: %d\nDone: %d\nErrored: %d\n",
		total, queued, sending, done, errored)
}

func printDatabaseHealth(out io.Writer, path, schemaVersion string, integrity bool, missingColumns []string, errMessage string) {
	fmt.Fprintf(out, "Database: %s (schema %s)\n", path, schemaVersion)
	fmt.Fprintf(out, "Integrity check: %s\n", yesNo(integrity))
	if len(missingColumns) > 0 {
		fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missingColumns, ", "))
	}
	if errMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", errMessage)
	}
}

func parsePositiveIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one item id is required")
	}
	return ids, nil
}
