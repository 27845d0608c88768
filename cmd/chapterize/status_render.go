package main

import (
	"fmt"
	"strings"

	"chapterize/internal/library"
	"chapterize/internal/pipeline"
	"chapterize/internal/subtitles"
)

func renderRunReport(report *pipeline.Report) string {
	if len(report.Files) == 0 {
		return "No audio files found in " + report.Root
	}

	display := make(map[string]string)
	for _, path := range report.Processed {
		display[path] = "processed"
	}
	for _, path := range report.Failed {
		display[path] = "failed"
	}

	rows := make([][]string, 0, len(report.Files))
	for _, file := range report.Files {
		state := display[file.Path]
		if state == "" {
			state = report.States[file.Path].String()
		}
		rows = append(rows, []string{file.Base, state})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"File", "State"}, rows, []columnAlignment{alignLeft, alignLeft}))
	b.WriteString("\n")
	if report.Completed {
		fmt.Fprintf(&b, "Complete: %d entries written, total runtime %s",
			report.Entries, subtitles.FormatTimestamp(report.TotalDuration))
	} else {
		fmt.Fprintf(&b, "Incomplete: %d processed, %d failed",
			len(report.Processed), len(report.Failed))
	}
	return b.String()
}

func renderClassification(root string, classification library.Classification) string {
	if len(classification.Files) == 0 {
		return "No audio files found in " + root
	}

	rows := make([][]string, 0, len(classification.Files))
	for _, file := range classification.Files {
		rows = append(rows, []string{file.Base, classification.States[file.Path].String()})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"File", "State"}, rows, []columnAlignment{alignLeft, alignLeft}))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d files: %d unprocessed, %d partial, %d complete",
		len(classification.Files),
		len(classification.Unprocessed),
		len(classification.Partial),
		len(classification.Skipped))
	return b.String()
}
