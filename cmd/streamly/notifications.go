package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read your notifications",
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				result, err := client.Notifications.List(ctx, &streamly.PageQuery{Page: page, Limit: limit})
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), result)
				}

				rows := make([][]string, 0, len(result.Notifications))
				for _, n := range result.Notifications {
					status := "unread"
					if n.Read {
						status = "read"
					}
					rows = append(rows, []string{n.ID, string(n.Type), status, truncate(n.Title, 50)})
				}
				return printTable(cmd.OutOrStdout(), []string{"id", "type", "status", "title"}, rows)
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 20, "notifications per page")

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Show the unread notification count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				count, err := client.Notifications.UnreadCount(ctx)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), map[string]int{"count": count})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", count)
				return nil
			})
		},
	}

	cmd.AddCommand(list, unread)
	return cmd
}
