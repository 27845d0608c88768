package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"chapterize/internal/chapters"
	"chapterize/internal/library"
	"chapterize/internal/logging"
	"chapterize/internal/probecache"
	"chapterize/internal/services"
	"chapterize/internal/subtitles"
)

// LockFileName is the per-directory lock guarding against concurrent runs.
const LockFileName = ".chapterize.lock"

// Recognizer is the speech engine contract the runner depends on. Transcribe
// yields the file's ordered segment stream plus its total duration.
type Recognizer interface {
	library.Prober
	Transcribe(ctx context.Context, path string) (subtitles.Stream, float64, error)
}

// ProgressFunc receives transcription progress for the current file: seconds
// completed within that file against its total duration.
type ProgressFunc func(file library.AudioFile, completed, total float64)

// Options configures a Runner.
type Options struct {
	Recognizer Recognizer
	// Heuristic classifies utterances as chapter headings; nil selects the
	// default audiobook rules.
	Heuristic *chapters.Heuristic
	// Cache is the persistent duration cache; nil disables caching.
	Cache *probecache.Cache
	// Extensions are the audio extensions to discover (lowercase, dot-prefixed).
	Extensions []string
	// Tolerance is the transcript duration tolerance in seconds; <= 0 selects
	// the default.
	Tolerance  float64
	TagEntries bool
	Logger     *slog.Logger
	Progress   ProgressFunc
}

// Runner executes transcription runs over a book directory.
type Runner struct {
	recognizer Recognizer
	heuristic  *chapters.Heuristic
	classifier *library.Classifier
	extensions []string
	tagEntries bool
	logger     *slog.Logger
	progress   ProgressFunc
}

// NewRunner validates options and builds a runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Recognizer == nil {
		return nil, errors.New("pipeline runner requires a recognizer")
	}
	heuristic := opts.Heuristic
	if heuristic == nil {
		heuristic = chapters.DefaultHeuristic()
	}
	prober := NewCachedProber(opts.Recognizer, opts.Cache, opts.Logger)
	return &Runner{
		recognizer: opts.Recognizer,
		heuristic:  heuristic,
		classifier: library.NewClassifier(prober, opts.Tolerance, opts.Logger),
		extensions: opts.Extensions,
		tagEntries: opts.TagEntries,
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
		progress:   opts.Progress,
	}, nil
}

// Report summarizes one run for rendering and follow-up commands.
type Report struct {
	RunID     string
	Root      string
	MarkerLog string

	Files []library.AudioFile
	// States holds the classification decided at the start of the run; files
	// listed in Processed or Failed have moved on since.
	States map[string]library.State

	Processed []string
	Skipped   []string
	Failed    []string

	// Entries is the number of subtitle entries written this run.
	Entries int
	// TotalDuration is the stitched end of the book, valid when Completed.
	TotalDuration float64
	Elapsed       time.Duration
	// Completed reports that every file now has a trusted transcript and the
	// chapter log is terminated by the end-of-book sentinel.
	Completed bool
}

// Run processes the book directory at root. The returned report is non-nil
// whenever discovery succeeded, including runs that end in a file failure.
func (r *Runner) Run(ctx context.Context, root string) (*Report, error) {
	start := time.Now()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "book directory is not accessible", err)
	}

	lock := flock.New(filepath.Join(root, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "run", "acquire directory lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "run", "another run is active for this directory", nil)
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))
	report := &Report{
		RunID:     runID,
		Root:      root,
		MarkerLog: filepath.Join(root, chapters.DefaultLogName),
	}

	files, err := library.Discover(root, r.extensions)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "run", "discover audio files", err)
	}
	report.Files = files
	if len(files) == 0 {
		logger.Info("no audio files found", logging.String("root", root))
		report.States = map[string]library.State{}
		report.Elapsed = time.Since(start)
		return report, nil
	}

	classification, err := r.classifier.Classify(ctx, files)
	if err != nil {
		return nil, err
	}
	report.States = classification.States
	for _, file := range classification.Skipped {
		report.Skipped = append(report.Skipped, file.Path)
	}

	state, err := resumeState(classification)
	if err != nil {
		return report, err
	}

	queue := classification.Queue()
	logger.Info("run classified",
		logging.Int("files", len(files)),
		logging.Int("queued", len(queue)),
		logging.Int("skipped", len(classification.Skipped)),
		logging.Float64("resume_offset", state.TimeOffset))

	if len(queue) == 0 {
		report.TotalDuration = state.TimeOffset
		report.Completed = true
		report.Elapsed = time.Since(start)
		logger.Info("all transcripts valid, nothing to process")
		return report, nil
	}

	markerLog := chapters.NewLog(report.MarkerLog)
	if err := markerLog.PruneFrom(state.TimeOffset); err != nil {
		return report, services.Wrap(services.ErrTransient, "pipeline", "run", "prune chapter log", err)
	}

	var failures []error
	for i, file := range queue {
		// Cancellation is only safe between files; the next run's
		// classification picks up whatever is on disk.
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		logger.Info("transcribing file",
			logging.String(logging.FieldFile, file.Path),
			logging.Int("position", i+1),
			logging.Int("queued", len(queue)))

		stream, duration, err := r.recognizer.Transcribe(ctx, file.Path)
		if err != nil {
			r.recordFailure(report, &failures, file, "transcription failed", err, logger)
			continue
		}

		writer := &subtitles.Writer{
			Heading:    r.heuristic.IsHeading,
			Markers:    markerLog,
			TagEntries: r.tagEntries,
		}
		if r.progress != nil {
			offset := state.TimeOffset
			writer.Progress = func(completed float64) {
				r.progress(file, completed-offset, duration)
			}
		}

		result, err := writer.WriteFile(file.TranscriptPath(), stream, state, duration)
		if err != nil {
			r.recordFailure(report, &failures, file, "transcript write failed", err, logger)
			continue
		}

		state = result.State
		report.Entries += result.Entries
		report.Processed = append(report.Processed, file.Path)
		logger.Info("transcript written",
			logging.String(logging.FieldFile, file.Path),
			logging.Int("entries", result.Entries),
			logging.Float64("stitched_end", state.TimeOffset))
	}

	report.Elapsed = time.Since(start)
	if len(failures) > 0 {
		logger.Warn("run finished with failures",
			logging.Int("processed", len(report.Processed)),
			logging.Int("failed", len(report.Failed)))
		return report, services.Wrap(services.ErrTransient, "pipeline", "run",
			fmt.Sprintf("%d of %d files failed", len(report.Failed), len(queue)), errors.Join(failures...))
	}

	if err := markerLog.AppendSentinel(state.TimeOffset); err != nil {
		return report, services.Wrap(services.ErrTransient, "pipeline", "run", "append end-of-book sentinel", err)
	}

	report.TotalDuration = state.TimeOffset
	report.Completed = true
	logger.Info("run complete",
		logging.Int("processed", len(report.Processed)),
		logging.Int("entries", report.Entries),
		logging.Float64("total_duration", report.TotalDuration),
		logging.Duration("elapsed", report.Elapsed))
	return report, nil
}

// resumeState reconstructs stitch offsets from the trusted transcript prefix.
// Offsets always come from disk, never from a previous run's memory.
func resumeState(classification library.Classification) (subtitles.StitchState, error) {
	state := subtitles.NewStitchState()
	for _, file := range classification.Files {
		if classification.States[file.Path] != library.StateSkipped {
			break
		}
		index, end, err := subtitles.LastEntry(file.TranscriptPath())
		if err != nil {
			return state, err
		}
		state = subtitles.StitchState{NextIndex: index + 1, TimeOffset: end}
	}
	return state, nil
}

// recordFailure marks a file failed and moves on. Stitch offsets are not
// advanced past a failed file, so later files this run stitch against the last
// successful offset; the next run's cumulative validation requeues them once
// the failed file is fixed.
func (r *Runner) recordFailure(report *Report, failures *[]error, file library.AudioFile, message string, err error, logger *slog.Logger) {
	report.Failed = append(report.Failed, file.Path)
	report.States[file.Path] = library.StateFailed
	*failures = append(*failures, fmt.Errorf("%s: %w", file.Path, err))
	logger.Error(message,
		logging.String(logging.FieldFile, file.Path),
		logging.Error(err))
}
