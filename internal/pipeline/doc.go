// Package pipeline sequences one transcription run over a book directory.
//
// A run discovers the book's audio files, classifies each against its
// existing transcript, then processes the work queue strictly in order:
// transcribe, stitch onto the shared timeline, detect chapter headings, and
// append markers to the persistent chapter log. Runs are single-instance per
// book directory (flock) and safe to repeat; interrupted work is picked up
// from the first untrusted transcript.
package pipeline
