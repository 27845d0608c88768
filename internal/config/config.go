package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Whisper configures the speech recognition engine invocation.
type Whisper struct {
	Binary      string `toml:"binary"`
	Model       string `toml:"model"`
	Device      string `toml:"device"`
	ComputeType string `toml:"compute_type"`
	Language    string `toml:"language"`
	Workers     int    `toml:"workers"`
}

// FFprobe configures the duration probe binary.
type FFprobe struct {
	Binary string `toml:"binary"`
}

// Processing configures classification and transcript output behavior.
type Processing struct {
	// DurationToleranceSeconds is how far a transcript's final timestamp may
	// differ from the expected duration and still count as complete.
	DurationToleranceSeconds float64 `toml:"duration_tolerance_seconds"`
	// AudioExtensions lists the file extensions discovered as audio.
	AudioExtensions []string `toml:"audio_extensions"`
	// TagChapterEntries writes a [CHAPTER] annotation line into transcript
	// entries whose utterance was detected as a heading.
	TagChapterEntries bool `toml:"tag_chapter_entries"`
}

// Audiobookshelf configures chapter publication to an Audiobookshelf server.
type Audiobookshelf struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Watch configures the directory watch mode.
type Watch struct {
	// SettleSeconds is how long the directory must stay quiet after a change
	// before a new processing run starts.
	SettleSeconds int `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for chapterize.
type Config struct {
	Paths          Paths          `toml:"paths"`
	Whisper        Whisper        `toml:"whisper"`
	FFprobe        FFprobe        `toml:"ffprobe"`
	Processing     Processing     `toml:"processing"`
	Audiobookshelf Audiobookshelf `toml:"audiobookshelf"`
	Watch          Watch          `toml:"watch"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/chapterize/config.toml")
}

// Load locates, parses, and validates a configuration file. An empty path
// selects the default location; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolved = defaultPath
	} else {
		expanded, err := ExpandPath(resolved)
		if err != nil {
			return nil, err
		}
		resolved = expanded
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if strings.TrimSpace(path) != "" {
			return nil, fmt.Errorf("config file not found: %s", resolved)
		}
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ to the user's home directory and returns an
// absolute path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

func (c *Config) normalize() error {
	for _, dir := range []*string{&c.Paths.LogDir, &c.Paths.CacheDir} {
		if strings.TrimSpace(*dir) == "" {
			continue
		}
		expanded, err := ExpandPath(*dir)
		if err != nil {
			return err
		}
		*dir = expanded
	}

	normalized := make([]string, 0, len(c.Processing.AudioExtensions))
	for _, ext := range c.Processing.AudioExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Processing.AudioExtensions = normalized
	return nil
}
