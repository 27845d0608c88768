// Package chapters detects chapter-heading utterances, persists chapter
// markers on the stitched timeline, and derives publishable chapter records.
//
// Detection is a best-effort heuristic over free text, not a semantic
// classifier: prose that happens to open with a number produces false
// positives and unusually phrased titles produce false negatives. Both are
// accepted limitations.
//
// The marker log is an append-only text file, one "seconds, title" line per
// detected heading, terminated by a sentinel line (timestamp, no title)
// marking the end of the book. BuildChapters turns the ordered markers into
// contiguous, non-overlapping chapter records.
package chapters
