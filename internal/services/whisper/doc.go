// Package whisper wraps a faster-whisper command line as the speech
// recognition engine.
//
// The engine is an opaque capability: given an audio file it yields an
// ordered sequence of time-stamped text segments plus the total duration. It
// is consumed through that narrow contract and never reimplemented here; the
// CLI writes JSON output which this package parses into a single-pass
// segment stream. Duration probing goes through ffprobe so classification
// never pays for a full transcription.
package whisper
