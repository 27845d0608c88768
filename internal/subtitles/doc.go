// Package subtitles serializes recognition output into SRT transcripts and
// validates previously produced transcripts.
//
// Key pieces:
//   - FormatTimestamp / ParseTimestamp: the SRT timestamp codec (inverse of
//     each other to within 1ms, hours unbounded)
//   - Writer: consumes an ordered segment stream for one audio file and
//     writes numbered, time-offset entries
//   - StitchState: index/time offsets carried across sequential files so the
//     whole book forms one continuous timeline
//   - Validate: decides whether an existing transcript is complete enough to
//     skip reprocessing
//   - LastEntry: reads the final index and end time from a transcript so a
//     resumed run can reconstruct offsets from disk
package subtitles
