package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"larder/internal/archive"
	"larder/internal/daemon"
	"larder/internal/history"
	"larder/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the backup daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

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
				// The catalog is advisory; run without it rather than refuse
				// to back anything up.
				logger.Warn("opening history catalog failed; cycle outcomes will not be recorded", logging.Error(err))
				hist = nil
			} else {
				defer hist.Close()
			}

			d, err := daemon.New(cfg, store, hist, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			return d.Start(signalCtx)
		},
	}
}
