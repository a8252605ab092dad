package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives in the destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list archives: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No archives yet.")
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(entries))
			var total int64
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Name,
					formatTimestamp(entry.CreatedAt),
					formatAge(now.Sub(entry.CreatedAt)),
					formatBytes(entry.SizeBytes),
				})
				total += entry.SizeBytes
			}
			fmt.Fprintln(out, renderTable(
				[]string{"NAME", "CREATED", "AGE", "SIZE"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "%d archives, %s total\n", len(entries), formatBytes(total))
			return nil
		},
	}
}
