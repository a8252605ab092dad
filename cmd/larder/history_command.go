package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"larder/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent backup cycle outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openHistory()
			if err != nil {
				return fmt.Errorf("open history catalog: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No cycles recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := rec.Message
				if rec.Status == history.StatusCompleted {
					detail = fmt.Sprintf("%s, pruned %d", formatBytes(rec.ArchiveBytes), rec.Pruned)
				}
				rows = append(rows, []string{
					formatTimestamp(rec.StartedAt.Local()),
					string(rec.Status),
					rec.ArchiveName,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"STARTED", "STATUS", "ARCHIVE", "DETAIL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of cycles to show (0 for all)")
	return cmd
}
