package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"chapterize/internal/chapters"
	"chapterize/internal/config"
	"chapterize/internal/library"
	"chapterize/internal/subtitles"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var itemID string
	var wholeBook bool
	var title string

	cmd := &cobra.Command{
		Use:   "upload <directory>",
		Short: "Publish derived chapters to an Audiobookshelf item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(itemID) == "" {
				return errors.New("--item is required")
			}

			var book []chapters.BookChapter
			if wholeBook {
				// Single-chapter publication is an explicit choice, never a
				// fallback for a book where detection found nothing.
				duration, err := stitchedDuration(ctx, root)
				if err != nil {
					return err
				}
				name := strings.TrimSpace(title)
				if name == "" {
					name = filepath.Base(root)
				}
				book = chapters.WholeBook(name, duration)
			} else {
				book, err = chapters.LoadChapters(filepath.Join(root, chapters.DefaultLogName))
				if err != nil {
					return err
				}
			}

			client, err := ctx.newPublisher()
			if err != nil {
				return err
			}
			if err := client.UpdateChapters(cmd.Context(), itemID, book); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d chapters to item %s\n", len(book), itemID)
			return nil
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "Audiobookshelf library item ID")
	cmd.Flags().BoolVar(&wholeBook, "whole-book", false, "Publish a single chapter spanning the whole book")
	cmd.Flags().StringVar(&title, "title", "", "Chapter title for --whole-book (defaults to the directory name)")
	return cmd
}

// stitchedDuration reads the book's total runtime from the final transcript.
func stitchedDuration(ctx *commandContext, root string) (float64, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return 0, err
	}
	files, err := library.Discover(root, cfg.Processing.AudioExtensions)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no audio files found in %s", root)
	}
	_, end, err := subtitles.LastEntry(files[len(files)-1].TranscriptPath())
	if err != nil {
		return 0, fmt.Errorf("book is not fully transcribed: %w", err)
	}
	return end, nil
}
