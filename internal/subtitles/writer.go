package subtitles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"chapterize/internal/services"
)

// Segment is one time-stamped utterance produced by the recognition engine.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Stream is a finite, single-pass, non-restartable sequence of segments in
// playback order. Next returns io.EOF when the stream is exhausted.
type Stream interface {
	Next() (Segment, error)
}

// StitchState carries the index and time offsets across a sequence of audio
// files so entry numbers and timestamps form one continuous timeline.
type StitchState struct {
	// NextIndex is the next available subtitle index (1-based).
	NextIndex int
	// TimeOffset is the cumulative seconds consumed by prior files.
	TimeOffset float64
}

// NewStitchState returns the state for the first file of a sequence.
func NewStitchState() StitchState {
	return StitchState{NextIndex: 1}
}

// MarkerSink receives chapter markers on the absolute (stitched) timeline.
type MarkerSink interface {
	Append(timestamp float64, title string) error
}

// ChapterTagPrefix introduces the annotation line written after the text of
// an entry whose utterance was detected as a chapter heading.
const ChapterTagPrefix = "[CHAPTER] "

// Writer serializes one audio file's segment stream into an SRT transcript.
// Heading, Markers and Progress are optional collaborators; a nil Heading
// disables chapter detection entirely.
type Writer struct {
	// Heading classifies an utterance as a chapter heading.
	Heading func(text string) bool
	// Markers records detected headings with absolute timestamps.
	Markers MarkerSink
	// TagEntries adds a ChapterTagPrefix annotation line to detected entries.
	// The spoken text is always kept; the tag augments, never replaces.
	TagEntries bool
	// Progress receives the rounded absolute end of the most recently
	// completed segment; values are monotonically non-decreasing and snap to
	// the reported total duration when the stream ends early.
	Progress func(completedSeconds float64)
}

// WriteResult reports what one file contributed to the stitched timeline.
type WriteResult struct {
	// Entries is the number of subtitle entries written.
	Entries int
	// State is the stitch state to carry into the next file.
	State StitchState
}

// WriteFile drains the stream into an SRT transcript at path. Segments are
// written in stream order with timestamps shifted by state.TimeOffset and
// indices seeded from state.NextIndex. totalDuration is the engine-reported
// length of the audio, used only for the final progress snap.
//
// The output handle is flushed and closed on every exit path; a failure
// mid-stream leaves a partial transcript on disk that Validate will flag on
// the next run, and the returned state must then be discarded by the caller.
func (w *Writer) WriteFile(path string, stream Stream, state StitchState, totalDuration float64) (WriteResult, error) {
	result := WriteResult{State: state}
	if stream == nil {
		return result, services.Wrap(services.ErrTransient, "subtitles", "write", "nil segment stream", nil)
	}
	if state.NextIndex < 1 {
		state.NextIndex = 1
		result.State.NextIndex = 1
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "subtitles", "write", "create transcript", err)
	}

	buf := bufio.NewWriter(file)
	index := state.NextIndex
	maxEnd := state.TimeOffset
	lastProgress := math.Inf(-1)
	entries := 0

	emit := func() error {
		for {
			segment, err := stream.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			text := strings.TrimSpace(segment.Text)
			absStart := segment.Start + state.TimeOffset
			absEnd := segment.End + state.TimeOffset
			if absEnd < absStart {
				absEnd = absStart
			}

			detected := w.Heading != nil && w.Heading(segment.Text)
			if detected && w.Markers != nil {
				if err := w.Markers.Append(absStart, text); err != nil {
					return fmt.Errorf("append chapter marker: %w", err)
				}
			}

			if _, err := fmt.Fprintf(buf, "%d\n%s --> %s\n%s\n", index, FormatTimestamp(absStart), FormatTimestamp(absEnd), text); err != nil {
				return err
			}
			if detected && w.TagEntries {
				if _, err := fmt.Fprintf(buf, "%s%s\n", ChapterTagPrefix, text); err != nil {
					return err
				}
			}
			if _, err := buf.WriteString("\n"); err != nil {
				return err
			}

			index++
			entries++
			if absEnd > maxEnd {
				maxEnd = absEnd
			}
			if w.Progress != nil {
				if completed := math.Round(absEnd); completed > lastProgress {
					w.Progress(completed)
					lastProgress = completed
				}
			}
		}
	}

	if err := emit(); err != nil {
		buf.Flush()
		file.Close()
		return result, services.Wrap(services.ErrTransient, "subtitles", "write", "serialize transcript", err)
	}

	if err := buf.Flush(); err != nil {
		file.Close()
		return result, services.Wrap(services.ErrTransient, "subtitles", "write", "flush transcript", err)
	}
	if err := file.Close(); err != nil {
		return result, services.Wrap(services.ErrTransient, "subtitles", "write", "close transcript", err)
	}

	// Trailing silence: the engine may stop short of the full runtime.
	if w.Progress != nil && totalDuration > 0 {
		if final := math.Round(state.TimeOffset + totalDuration); final > lastProgress {
			w.Progress(final)
		}
	}

	result.Entries = entries
	result.State = StitchState{NextIndex: index, TimeOffset: maxEnd}
	return result, nil
}

// SliceStream adapts an in-memory segment slice to the Stream interface.
type SliceStream struct {
	segments []Segment
	pos      int
}

// NewSliceStream wraps segments in a single-pass stream.
func NewSliceStream(segments []Segment) *SliceStream {
	return &SliceStream{segments: segments}
}

func (s *SliceStream) Next() (Segment, error) {
	if s.pos >= len(s.segments) {
		return Segment{}, io.EOF
	}
	segment := s.segments[s.pos]
	s.pos++
	return segment, nil
}
