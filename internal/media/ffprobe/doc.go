// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it as the cheap duration probe: classification needs each
// audio file's total duration without paying for a full transcription.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns a parsed Result
//
// Helper methods on Result expose the container duration and audio stream
// properties.
package ffprobe
