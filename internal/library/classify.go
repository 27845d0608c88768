package library

import (
	"context"
	"log/slog"
	"os"

	"chapterize/internal/logging"
	"chapterize/internal/subtitles"
)

// State is the processing state of an AudioFile, recomputed each run.
type State int

const (
	// StateUnprocessed means no transcript exists yet.
	StateUnprocessed State = iota
	// StatePartial means a transcript exists but cannot be trusted; the file
	// is requeued for reprocessing.
	StatePartial
	// StateSkipped means the existing transcript validates.
	StateSkipped
	// StateFailed means processing was attempted this run and failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnprocessed:
		return "unprocessed"
	case StatePartial:
		return "partial"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Prober supplies an audio file's total duration without transcribing it.
type Prober interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// Classification partitions discovered files by processing state.
type Classification struct {
	// Files is every discovered audio file in processing order.
	Files []AudioFile
	// States maps file path to classified state.
	States map[string]State

	Unprocessed []AudioFile
	Partial     []AudioFile
	Skipped     []AudioFile
}

// Queue returns the files that need processing, in discovery order.
func (c Classification) Queue() []AudioFile {
	queue := make([]AudioFile, 0, len(c.Unprocessed)+len(c.Partial))
	for _, file := range c.Files {
		switch c.States[file.Path] {
		case StateUnprocessed, StatePartial:
			queue = append(queue, file)
		}
	}
	return queue
}

// Classifier decides which files can be skipped based on their transcripts.
type Classifier struct {
	prober    Prober
	tolerance float64
	logger    *slog.Logger
}

// NewClassifier builds a classifier around a duration prober. tolerance <= 0
// selects the default transcript duration tolerance.
func NewClassifier(prober Prober, tolerance float64, logger *slog.Logger) *Classifier {
	return &Classifier{
		prober:    prober,
		tolerance: tolerance,
		logger:    logging.NewComponentLogger(logger, "classifier"),
	}
}

// Classify walks files in order and validates each existing transcript
// against the expected absolute end time on the stitched timeline: the last
// valid transcript's end plus this file's probed duration. Once any file
// needs reprocessing, every later transcript was stitched against offsets
// that are about to change, so those files are requeued without probing.
func (c *Classifier) Classify(ctx context.Context, files []AudioFile) (Classification, error) {
	result := Classification{
		Files:  files,
		States: make(map[string]State, len(files)),
	}

	cumulative := 0.0
	stale := false
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return Classification{}, err
		}

		transcript := file.TranscriptPath()
		if _, err := os.Stat(transcript); err != nil {
			c.mark(&result, file, StateUnprocessed)
			stale = true
			continue
		}
		if stale {
			c.mark(&result, file, StatePartial)
			continue
		}

		duration, err := c.prober.Probe(ctx, file.Path)
		if err != nil {
			c.logger.Warn("duration probe failed, requeueing file",
				logging.String(logging.FieldFile, file.Path),
				logging.Error(err))
			c.mark(&result, file, StatePartial)
			stale = true
			continue
		}

		if err := subtitles.Validate(transcript, cumulative+duration, c.tolerance); err != nil {
			c.logger.Info("existing transcript failed validation",
				logging.String(logging.FieldFile, file.Path),
				logging.Error(err))
			c.mark(&result, file, StatePartial)
			stale = true
			continue
		}
		_, end, err := subtitles.LastEntry(transcript)
		if err != nil {
			c.mark(&result, file, StatePartial)
			stale = true
			continue
		}

		c.mark(&result, file, StateSkipped)
		cumulative = end
	}
	return result, nil
}

func (c *Classifier) mark(result *Classification, file AudioFile, state State) {
	result.States[file.Path] = state
	switch state {
	case StateUnprocessed:
		result.Unprocessed = append(result.Unprocessed, file)
	case StatePartial:
		result.Partial = append(result.Partial, file)
	case StateSkipped:
		result.Skipped = append(result.Skipped, file)
	}
}
