package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"larder/internal/retention"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Apply the retention policy to the destination now",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list archives: %w", err)
			}

			doomed := retention.Plan(time.Now(), entries, retention.Config{
				ShortWindowMinutes: cfg.Retention.ShortWindowMinutes,
				MaxAgeMinutes:      cfg.Retention.MaxAgeMinutes,
			})

			out := cmd.OutOrStdout()
			if len(doomed) == 0 {
				printStatus(out, statusSuccess, "Nothing to prune; retention policy is satisfied")
				return nil
			}

			for _, name := range doomed {
				fmt.Fprintln(out, name)
			}
			if dryRun {
				printStatus(out, statusInfo, fmt.Sprintf("Would prune %d of %d archives (dry run)", len(doomed), len(entries)))
				return nil
			}

			if err := store.Remove(cmd.Context(), doomed); err != nil {
				return fmt.Errorf("prune archives: %w", err)
			}
			printStatus(out, statusSuccess, fmt.Sprintf("Pruned %d of %d archives", len(doomed), len(entries)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be pruned without deleting anything")
	return cmd
}
