package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chapterize/internal/chapters"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[paths]\ncache_dir = \"" + t.TempDir() + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSampleOnce(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output missing target path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestConfigValidateAcceptsMinimalFile(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "-c", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestChaptersCommandEmitsJSON(t *testing.T) {
	cfgPath := writeTestConfig(t)
	root := t.TempDir()

	log := chapters.NewLog(filepath.Join(root, chapters.DefaultLogName))
	if err := log.Append(0, "chapter one"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(600, "chapter two"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.AppendSentinel(1800); err != nil {
		t.Fatalf("sentinel: %v", err)
	}

	out, err := runCommand(t, "-c", cfgPath, "chapters", root, "--json")
	if err != nil {
		t.Fatalf("chapters: %v", err)
	}

	var book []chapters.BookChapter
	if err := json.Unmarshal([]byte(out), &book); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(book) != 2 || book[0].Title != "Chapter One" || book[1].End != 1800 {
		t.Fatalf("unexpected chapters: %+v", book)
	}
}

func TestChaptersCommandFailsWithoutSentinel(t *testing.T) {
	cfgPath := writeTestConfig(t)
	root := t.TempDir()
	log := chapters.NewLog(filepath.Join(root, chapters.DefaultLogName))
	if err := log.Append(0, "chapter one"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := runCommand(t, "-c", cfgPath, "chapters", root); err == nil {
		t.Fatal("expected structural error without sentinel")
	}
}

func TestStatusCommandOnEmptyDirectory(t *testing.T) {
	cfgPath := writeTestConfig(t)
	root := t.TempDir()

	out, err := runCommand(t, "-c", cfgPath, "status", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "No audio files found") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestUploadRequiresItemFlag(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "-c", cfgPath, "upload", t.TempDir()); err == nil {
		t.Fatal("expected error without --item")
	}
}

func TestMissingConfigFileFailsExplicitly(t *testing.T) {
	if _, err := runCommand(t, "-c", "/nonexistent/config.toml", "status", t.TempDir()); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}
