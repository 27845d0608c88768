// Package logging constructs slog loggers for the chapterize CLI.
//
// Loggers are created from configuration (level, format) and write to stderr
// so transcript progress rendering on stdout stays clean. Console output is a
// compact human format; JSON output is line-delimited for ingestion.
//
// Helper constructors wrap slog.Attr so call sites stay terse, and
// NewComponentLogger standardizes the component attribute used across the
// pipeline.
package logging
