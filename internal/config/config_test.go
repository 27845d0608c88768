package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chapterize/internal/services"
)

func TestLoadMissingDefaultFileYieldsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Whisper.Model != "base" {
		t.Fatalf("expected default model, got %q", cfg.Whisper.Model)
	}
	if cfg.Processing.DurationToleranceSeconds != 30 {
		t.Fatalf("expected default tolerance, got %v", cfg.Processing.DurationToleranceSeconds)
	}
	if !strings.HasSuffix(cfg.Paths.CacheDir, filepath.Join(".cache", "chapterize")) {
		t.Fatalf("cache dir not expanded: %q", cfg.Paths.CacheDir)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[whisper]
model = "large-v3"

[processing]
audio_extensions = ["MP3", " .flac ", "opus"]

[audiobookshelf]
url = "https://abs.example.com"
api_key = "token"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Whisper.Model != "large-v3" {
		t.Fatalf("model override lost: %q", cfg.Whisper.Model)
	}
	want := []string{".mp3", ".flac", ".opus"}
	if len(cfg.Processing.AudioExtensions) != len(want) {
		t.Fatalf("extensions = %v, want %v", cfg.Processing.AudioExtensions, want)
	}
	for i := range want {
		if cfg.Processing.AudioExtensions[i] != want[i] {
			t.Fatalf("extensions = %v, want %v", cfg.Processing.AudioExtensions, want)
		}
	}
	// Defaults survive partial files.
	if cfg.FFprobe.Binary != "ffprobe" {
		t.Fatalf("ffprobe default lost: %q", cfg.FFprobe.Binary)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[whisper]
model = ""
workers = 0

[audiobookshelf]
url = "not a url"

[logging]
format = "xml"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	for _, fragment := range []string{"whisper.model", "whisper.workers", "logging.format"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %v missing %q", err, fragment)
		}
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	// The sample must itself be loadable.
	if _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandPath("~/books")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "books") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if _, err := ExpandPath("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
