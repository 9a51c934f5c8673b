package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"linkq/internal/ipc"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var follow bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent delivery events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()

				resp, err := client.Events(limit)
				if err != nil {
					return err
				}
				for _, event := range resp.Events {
					fmt.Fprintln(out, formatEventLine(event))
				}
				if !follow {
					if len(resp.Events) == 0 {
						fmt.Fprintln(out, "No delivery events yet")
					}
					return nil
				}

				seen := make(map[string]struct{}, len(resp.Events))
				for _, event := range resp.Events {
					seen[eventKey(event)] = struct{}{}
				}

				ticker := time.NewTicker(2 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-ticker.C:
					}
					resp, err := client.Events(0)
					if err != nil {
						return err
					}
					for _, event := range resp.Events {
						key := eventKey(event)
						if _, ok := seen[key]; ok {
							continue
						}
						seen[key] = struct{}{}
						fmt.Fprintln(out, formatEventLine(event))
					}
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Poll for new events until interrupted")
	return cmd
}

func eventKey(event ipc.Event) string {
	return fmt.Sprintf("%s|%d|%s", event.Kind, event.ItemID, event.OccurredAt)
}

func formatEventLine(event ipc.Event) string {
	label := event.URL
	if event.Title != "" {
		label = event.Title
	}
	when := formatDisplayTime(event.OccurredAt)
	switch event.Kind {
	case "bookmark-success":
		return fmt.Sprintf("%s  saved   item %d  %s", when, event.ItemID, label)
	case "bookmark-error":
		line := fmt.Sprintf("%s  failed  item %d  %s: %s", when, event.ItemID, label, event.Error)
		if event.NextRetryAt != "" {
			line += fmt.Sprintf(" (retry %d at %s)", event.RetryCount, formatDisplayTime(event.NextRetryAt))
		}
		return line
	default:
		return fmt.Sprintf("%s  %s  item %d  %s", when, event.Kind, event.ItemID, label)
	}
}
