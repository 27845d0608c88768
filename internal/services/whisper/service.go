package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"chapterize/internal/media/ffprobe"
	"chapterize/internal/services"
	"chapterize/internal/subtitles"
)

// Service invokes the recognition engine CLI and parses its output.
type Service struct {
	cfg           Config
	ffprobeBinary string
	commandRunner func(ctx context.Context, name string, args ...string) error
	probeFunc     func(ctx context.Context, path string) (float64, error)
}

// NewService creates an engine wrapper with the given configuration.
func NewService(cfg Config, ffprobeBinary string) *Service {
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Service{
		cfg:           cfg.withDefaults(),
		ffprobeBinary: ffprobeBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// WithProber overrides duration probing (for testing).
func (s *Service) WithProber(probe func(ctx context.Context, path string) (float64, error)) {
	s.probeFunc = probe
}

// Probe returns the audio file's total duration in seconds via ffprobe.
func (s *Service) Probe(ctx context.Context, path string) (float64, error) {
	if s.probeFunc != nil {
		return s.probeFunc(ctx, path)
	}
	result, err := ffprobe.Inspect(ctx, s.ffprobeBinary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "whisper", "probe", "inspect audio", err)
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, "whisper", "probe", fmt.Sprintf("no duration reported for %s", path), nil)
	}
	return duration, nil
}

// Transcribe runs the engine against one audio file and returns its ordered
// segment stream plus the total audio duration. The stream is finite and
// single-pass; output order matches engine order.
func (s *Service) Transcribe(ctx context.Context, path string) (subtitles.Stream, float64, error) {
	duration, err := s.Probe(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	outputDir, err := os.MkdirTemp("", "chapterize-whisper-")
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "whisper", "transcribe", "create output dir", err)
	}
	defer os.RemoveAll(outputDir)

	if err := s.run(ctx, s.cfg.Binary, s.buildArgs(path, outputDir)...); err != nil {
		return nil, 0, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "engine invocation failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	segments, err := loadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, 0, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "read engine output", err)
	}
	return subtitles.NewSliceStream(segments), duration, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Service) buildArgs(source, outputDir string) []string {
	return []string{
		source,
		"--model", s.cfg.Model,
		"--device", s.cfg.Device,
		"--compute_type", s.cfg.ComputeType,
		"--language", s.cfg.Language,
		"--threads", strconv.Itoa(s.cfg.Workers),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--vad_filter", "True",
		"--condition_on_previous_text", "True",
		"--initial_prompt", initialPrompt,
	}
}

// segment mirrors the engine's JSON segment shape.
type segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type enginePayload struct {
	Segments []segment `json:"segments"`
}

func loadSegments(jsonPath string) ([]subtitles.Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse engine json: %w", err)
	}
	segments := make([]subtitles.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, subtitles.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return segments, nil
}
