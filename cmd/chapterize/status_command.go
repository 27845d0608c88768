package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chapterize/internal/config"
	"chapterize/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <directory>",
		Short: "Show which files a run would process, skip, or redo",
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

			files, err := library.Discover(root, cfg.Processing.AudioExtensions)
			if err != nil {
				return err
			}

			classifier, cleanup, err := ctx.newClassifier()
			if err != nil {
				return err
			}
			defer cleanup()

			classification, err := classifier.Classify(cmd.Context(), files)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderClassification(root, classification))
			return nil
		},
	}
}
