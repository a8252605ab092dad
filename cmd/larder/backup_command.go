package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"larder/internal/archive"
	"larder/internal/daemon"
	"larder/internal/history"
	"larder/internal/logging"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Run a single backup cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.daemonLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store := archive.NewStore(cfg, logger)
			hist, err := history.Open(cfg)
			if err != nil {
				logger.Warn("opening history catalog failed; cycle outcome will not be recorded", logging.Error(err))
				hist = nil
			} else {
				defer hist.Close()
			}

			d, err := daemon.New(cfg, store, hist, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.RunOnce(cmd.Context()); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), statusSuccess, "Backup cycle finished")
			return nil
		},
	}
}
