package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
)

func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage your collections",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				collections, err := client.Collections.List(ctx)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), collections)
				}

				rows := make([][]string, 0, len(collections))
				for _, c := range collections {
					count := c.ItemCount
					if count == 0 {
						count = len(c.Items)
					}
					rows = append(rows, []string{c.ID, truncate(c.Name, 40), string(c.Privacy), strconv.Itoa(count)})
				}
				return printTable(cmd.OutOrStdout(), []string{"id", "name", "privacy", "items"}, rows)
			})
		},
	}

	cmd.AddCommand(list)
	return cmd
}
