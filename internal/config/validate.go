package config

import (
	"fmt"
	"net/url"
	"strings"

	"chapterize/internal/services"
)

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Whisper.Binary) == "" {
		problems = append(problems, "whisper.binary must not be empty")
	}
	if strings.TrimSpace(c.Whisper.Model) == "" {
		problems = append(problems, "whisper.model must not be empty")
	}
	if c.Whisper.Workers < 1 {
		problems = append(problems, "whisper.workers must be at least 1")
	}
	if strings.TrimSpace(c.FFprobe.Binary) == "" {
		problems = append(problems, "ffprobe.binary must not be empty")
	}
	if c.Processing.DurationToleranceSeconds < 0 {
		problems = append(problems, "processing.duration_tolerance_seconds must not be negative")
	}
	if len(c.Processing.AudioExtensions) == 0 {
		problems = append(problems, "processing.audio_extensions must list at least one extension")
	}
	if c.Watch.SettleSeconds < 1 {
		problems = append(problems, "watch.settle_seconds must be at least 1")
	}
	if raw := strings.TrimSpace(c.Audiobookshelf.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("audiobookshelf.url %q is not a valid URL", raw))
		}
	}
	if c.Audiobookshelf.RequestTimeout < 1 {
		problems = append(problems, "audiobookshelf.request_timeout must be at least 1 second")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}
