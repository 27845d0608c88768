package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"chapterize/internal/config"
	"chapterize/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <directory>",
		Short: "Transcribe a book directory and record chapter markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			var progress pipeline.ProgressFunc
			var renderer *progressRenderer
			if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
				renderer = newProgressRenderer(cmd.ErrOrStderr())
				progress = renderer.update
			}

			runner, cleanup, err := ctx.newRunner(progress)
			if err != nil {
				return err
			}
			defer cleanup()

			report, runErr := runner.Run(cmd.Context(), root)
			if renderer != nil {
				renderer.finish()
			}
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderRunReport(report))
			}
			return runErr
		},
	}
}
