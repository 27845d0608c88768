package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chapterize/internal/config"
	"chapterize/internal/logging"
	"chapterize/internal/watchfs"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <directory>",
		Short: "Process a book directory whenever new audio files settle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner, cleanup, err := ctx.newRunner(nil)
			if err != nil {
				return err
			}
			defer cleanup()

			runOnce := func(runCtx context.Context) {
				report, err := runner.Run(runCtx, root)
				switch {
				case err != nil:
					logger.Error("run failed", logging.Error(err))
				case report.Completed:
					logger.Info("book complete",
						logging.Int("entries", report.Entries),
						logging.Float64("total_duration", report.TotalDuration))
				}
			}

			watcher, err := watchfs.New(watchfs.Options{
				Root:       root,
				Extensions: cfg.Processing.AudioExtensions,
				Settle:     time.Duration(cfg.Watch.SettleSeconds) * time.Second,
				Logger:     logger,
				Trigger:    runOnce,
			})
			if err != nil {
				return err
			}
			defer watcher.Close()

			signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Catch up on anything that arrived while not watching.
			runOnce(signalCtx)
			return watcher.Run(signalCtx)
		},
	}
}
