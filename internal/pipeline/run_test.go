package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"chapterize/internal/chapters"
	"chapterize/internal/services"
	"chapterize/internal/subtitles"
)

type fakeRecognizer struct {
	durations   map[string]float64
	segments    map[string][]subtitles.Segment
	failures    map[string]error
	transcribed []string
}

func (f *fakeRecognizer) Probe(_ context.Context, path string) (float64, error) {
	duration, ok := f.durations[path]
	if !ok {
		return 0, errors.New("unknown file")
	}
	return duration, nil
}

func (f *fakeRecognizer) Transcribe(_ context.Context, path string) (subtitles.Stream, float64, error) {
	f.transcribed = append(f.transcribed, path)
	if err := f.failures[path]; err != nil {
		return nil, 0, err
	}
	return subtitles.NewSliceStream(f.segments[path]), f.durations[path], nil
}

// newBook lays out a three part book and a recognizer that knows its files.
func newBook(t *testing.T) (string, *fakeRecognizer) {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"01.mp3", "02.mp3", "03.mp3"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	rec := &fakeRecognizer{
		durations: map[string]float64{
			filepath.Join(root, "01.mp3"): 10,
			filepath.Join(root, "02.mp3"): 12,
			filepath.Join(root, "03.mp3"): 8,
		},
		segments: map[string][]subtitles.Segment{
			filepath.Join(root, "01.mp3"): {
				{Start: 0, End: 3, Text: "Chapter One"},
				{Start: 3, End: 10, Text: "It begins."},
			},
			filepath.Join(root, "02.mp3"): {
				{Start: 0, End: 2, Text: "Chapter Two"},
				{Start: 2, End: 12, Text: "It continues."},
			},
			filepath.Join(root, "03.mp3"): {
				{Start: 0, End: 1, Text: "Chapter Three"},
				{Start: 1, End: 8, Text: "The end."},
			},
		},
		failures: map[string]error{},
	}
	return root, rec
}

func newRunner(t *testing.T, rec Recognizer) *Runner {
	t.Helper()
	runner, err := NewRunner(Options{
		Recognizer: rec,
		Extensions: []string{".mp3"},
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner
}

func TestRunProcessesBookAndWritesChapterLog(t *testing.T) {
	root, rec := newBook(t)
	runner := newRunner(t, rec)

	report, err := runner.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Completed {
		t.Fatal("expected completed run")
	}
	if len(report.Processed) != 3 || report.Entries != 6 {
		t.Fatalf("processed=%d entries=%d", len(report.Processed), report.Entries)
	}
	if report.TotalDuration != 30 {
		t.Fatalf("TotalDuration = %v", report.TotalDuration)
	}

	// Per-file transcripts carry stitched global timestamps and indices.
	index, end, err := subtitles.LastEntry(filepath.Join(root, "02.srt"))
	if err != nil {
		t.Fatalf("LastEntry: %v", err)
	}
	if index != 4 || end != 22 {
		t.Fatalf("stitched transcript: index=%d end=%v", index, end)
	}

	book, err := chapters.LoadChapters(report.MarkerLog)
	if err != nil {
		t.Fatalf("LoadChapters: %v", err)
	}
	if len(book) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(book))
	}
	want := []chapters.BookChapter{
		{ID: 0, Start: 0, End: 10, Title: "Chapter One"},
		{ID: 1, Start: 10, End: 22, Title: "Chapter Two"},
		{ID: 2, Start: 22, End: 30, Title: "Chapter Three"},
	}
	for i, chapter := range book {
		if chapter != want[i] {
			t.Errorf("chapter %d: got %+v want %+v", i, chapter, want[i])
		}
	}
}

func TestRunContinuesPastFailedFile(t *testing.T) {
	root, rec := newBook(t)
	rec.failures[filepath.Join(root, "02.mp3")] = services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "engine crashed", nil)
	runner := newRunner(t, rec)

	report, err := runner.Run(context.Background(), root)
	if err == nil {
		t.Fatal("expected run error")
	}
	if report == nil {
		t.Fatal("expected report despite failure")
	}
	if report.Completed {
		t.Fatal("run must not complete with a failed file")
	}
	if len(report.Processed) != 2 || len(report.Failed) != 1 {
		t.Fatalf("processed=%v failed=%v", report.Processed, report.Failed)
	}
	if report.Failed[0] != filepath.Join(root, "02.mp3") {
		t.Fatalf("failed = %v", report.Failed)
	}

	// Offsets do not advance past the failed file: the third file stitched
	// directly after the first.
	index, end, err := subtitles.LastEntry(filepath.Join(root, "03.srt"))
	if err != nil {
		t.Fatalf("LastEntry: %v", err)
	}
	if index != 4 || end != 18 {
		t.Fatalf("third file offsets: index=%d end=%v", index, end)
	}
	// No sentinel after an incomplete run.
	if _, err := chapters.LoadChapters(report.MarkerLog); err == nil {
		t.Fatal("chapter log must not parse without the sentinel")
	}
}

func TestRerunResumesAfterFailure(t *testing.T) {
	root, rec := newBook(t)
	rec.failures[filepath.Join(root, "02.mp3")] = errors.New("engine crashed")
	runner := newRunner(t, rec)

	if _, err := runner.Run(context.Background(), root); err == nil {
		t.Fatal("expected first run to fail")
	}

	delete(rec.failures, filepath.Join(root, "02.mp3"))
	rec.transcribed = nil

	report, err := runner.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !report.Completed {
		t.Fatal("expected completed second run")
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != filepath.Join(root, "01.mp3") {
		t.Fatalf("skipped = %v", report.Skipped)
	}
	if len(rec.transcribed) != 2 {
		t.Fatalf("expected only the untrusted files re-transcribed, got %v", rec.transcribed)
	}

	book, err := chapters.LoadChapters(report.MarkerLog)
	if err != nil {
		t.Fatalf("LoadChapters: %v", err)
	}
	if len(book) != 3 || book[1].Start != 10 || book[2].End != 30 {
		t.Fatalf("unexpected chapters after resume: %+v", book)
	}
}

func TestRunIsIdempotentWhenComplete(t *testing.T) {
	root, rec := newBook(t)
	runner := newRunner(t, rec)

	first, err := runner.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	logBefore, err := os.ReadFile(first.MarkerLog)
	if err != nil {
		t.Fatalf("read chapter log: %v", err)
	}

	second, err := runner.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Completed || len(second.Processed) != 0 {
		t.Fatalf("expected no-op second run: %+v", second)
	}
	if len(rec.transcribed) != 3 {
		t.Fatalf("second run must not transcribe, got %v", rec.transcribed)
	}

	logAfter, err := os.ReadFile(second.MarkerLog)
	if err != nil {
		t.Fatalf("read chapter log: %v", err)
	}
	if string(logBefore) != string(logAfter) {
		t.Fatal("chapter log changed on a no-op run")
	}
}

func TestRunWithNoAudioFiles(t *testing.T) {
	root := t.TempDir()
	runner := newRunner(t, &fakeRecognizer{failures: map[string]error{}})

	report, err := runner.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Files) != 0 || report.Completed {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRunRefusesConcurrentLock(t *testing.T) {
	root, rec := newBook(t)
	runner := newRunner(t, rec)

	other := flock.New(filepath.Join(root, LockFileName))
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("external lock: locked=%v err=%v", locked, err)
	}
	defer other.Unlock()

	if _, err := runner.Run(context.Background(), root); err == nil {
		t.Fatal("expected lock contention error")
	}
}
