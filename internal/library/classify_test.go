package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"chapterize/internal/subtitles"
)

type stubProber struct {
	durations map[string]float64
	calls     int
}

func (p *stubProber) Probe(_ context.Context, path string) (float64, error) {
	p.calls++
	duration, ok := p.durations[path]
	if !ok {
		return 0, errors.New("unknown file")
	}
	return duration, nil
}

func writeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

// writeValidTranscript writes a transcript whose single entry spans the
// stitched range [start, end] with the given index.
func writeValidTranscript(t *testing.T, audioPath string, index int, start, end float64) {
	t.Helper()
	content := fmt.Sprintf("%d\n%s --> %s\nwords\n\n", index,
		subtitles.FormatTimestamp(start), subtitles.FormatTimestamp(end))
	srt := AudioFile{Path: audioPath}.TranscriptPath()
	if err := os.WriteFile(srt, []byte(content), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "02 second part.mp3")
	writeAudio(t, dir, "01 first part.mp3")
	writeAudio(t, dir, filepath.Join("bonus", "extra.m4b"))
	writeAudio(t, dir, "cover.jpg")
	writeAudio(t, dir, "notes.txt")

	files, err := Discover(dir, []string{".mp3", ".m4b"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 audio files, got %d", len(files))
	}
	// Lexicographic by full path: "01..." < "02..." < "bonus/extra".
	if files[0].Base != "01 first part" || files[1].Base != "02 second part" || files[2].Base != "extra" {
		t.Fatalf("unexpected order: %+v", files)
	}
}

func TestDiscoverMissingRootFails(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "absent"), []string{".mp3"}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestClassifyFreshDirectoryQueuesEverything(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "a.mp3")
	writeAudio(t, dir, "b.mp3")
	files, err := Discover(dir, []string{".mp3"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	prober := &stubProber{}
	classifier := NewClassifier(prober, 0, nil)
	result, err := classifier.Classify(context.Background(), files)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(result.Unprocessed) != 2 || len(result.Partial) != 0 || len(result.Skipped) != 0 {
		t.Fatalf("unexpected classification: %+v", result)
	}
	if prober.calls != 0 {
		t.Fatalf("fresh files must not be probed, got %d calls", prober.calls)
	}
	queue := result.Queue()
	if len(queue) != 2 || queue[0].Base != "a" {
		t.Fatalf("unexpected queue: %+v", queue)
	}
}

func TestClassifySkipsValidStitchedTranscripts(t *testing.T) {
	dir := t.TempDir()
	a := writeAudio(t, dir, "a.mp3")
	b := writeAudio(t, dir, "b.mp3")
	// File a: 0..600s, 10 entries. File b continues the timeline to 1195s
	// (engine trimmed 5s of trailing silence, inside tolerance).
	writeValidTranscript(t, a, 10, 0, 600)
	writeValidTranscript(t, b, 25, 600, 1195)

	files, _ := Discover(dir, []string{".mp3"})
	prober := &stubProber{durations: map[string]float64{a: 600, b: 600}}
	classifier := NewClassifier(prober, 0, nil)
	result, err := classifier.Classify(context.Background(), files)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected both skipped: %+v", result.States)
	}
	if len(result.Queue()) != 0 {
		t.Fatalf("expected empty queue, got %+v", result.Queue())
	}
}

func TestClassifyRequeuesEverythingAfterInvalidTranscript(t *testing.T) {
	dir := t.TempDir()
	a := writeAudio(t, dir, "a.mp3")
	b := writeAudio(t, dir, "b.mp3")
	c := writeAudio(t, dir, "c.mp3")
	writeValidTranscript(t, a, 10, 0, 600)
	// b's transcript stops far short of its duration: partial.
	writeValidTranscript(t, b, 12, 600, 700)
	// c validated against the old timeline; it must be requeued without
	// probing because its offsets are about to change.
	writeValidTranscript(t, c, 30, 1200, 1800)

	files, _ := Discover(dir, []string{".mp3"})
	prober := &stubProber{durations: map[string]float64{a: 600, b: 600, c: 600}}
	classifier := NewClassifier(prober, 0, nil)
	result, err := classifier.Classify(context.Background(), files)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if result.States[a] != StateSkipped {
		t.Fatalf("a should skip: %v", result.States[a])
	}
	if result.States[b] != StatePartial || result.States[c] != StatePartial {
		t.Fatalf("b and c should requeue: %+v", result.States)
	}
	queue := result.Queue()
	if len(queue) != 2 || queue[0].Path != b || queue[1].Path != c {
		t.Fatalf("unexpected queue: %+v", queue)
	}
	// c must not have been probed once the timeline went stale.
	if prober.calls != 2 {
		t.Fatalf("expected 2 probe calls, got %d", prober.calls)
	}
}

func TestClassifyProbeFailureRequeues(t *testing.T) {
	dir := t.TempDir()
	a := writeAudio(t, dir, "a.mp3")
	writeValidTranscript(t, a, 1, 0, 600)

	files, _ := Discover(dir, []string{".mp3"})
	classifier := NewClassifier(&stubProber{}, 0, nil)
	result, err := classifier.Classify(context.Background(), files)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.States[a] != StatePartial {
		t.Fatalf("probe failure must requeue: %v", result.States[a])
	}
}

func TestClassifyHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "a.mp3")
	files, _ := Discover(dir, []string{".mp3"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	classifier := NewClassifier(&stubProber{}, 0, nil)
	if _, err := classifier.Classify(ctx, files); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	pairs := map[State]string{
		StateUnprocessed: "unprocessed",
		StatePartial:     "partial",
		StateSkipped:     "skipped",
		StateFailed:      "failed",
		State(99):        "unknown",
	}
	for state, want := range pairs {
		if state.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), want)
		}
	}
}
