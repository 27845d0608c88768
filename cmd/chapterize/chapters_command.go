package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"chapterize/internal/chapters"
	"chapterize/internal/config"
	"chapterize/internal/subtitles"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chapters <directory>",
		Short: "Show the chapters derived from a processed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			book, err := chapters.LoadChapters(filepath.Join(root, chapters.DefaultLogName))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoded, err := json.MarshalIndent(book, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(encoded))
				return nil
			}

			rows := make([][]string, 0, len(book))
			for _, chapter := range book {
				rows = append(rows, []string{
					strconv.Itoa(chapter.ID + 1),
					subtitles.FormatTimestamp(chapter.Start),
					subtitles.FormatTimestamp(chapter.End),
					chapter.Title,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "End", "Title"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit chapters as JSON")
	return cmd
}
