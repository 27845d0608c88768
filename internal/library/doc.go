// Package library discovers audiobook audio files and classifies their
// processing state from prior on-disk output.
//
// Discovery is recursive and deterministically ordered (lexicographic by
// path) so offset stitching reproduces the same timeline run after run.
// Classification is recomputed fresh each run; nothing is persisted besides
// the transcripts themselves.
package library
