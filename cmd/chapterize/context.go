package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"chapterize/internal/audiobookshelf"
	"chapterize/internal/config"
	"chapterize/internal/library"
	"chapterize/internal/logging"
	"chapterize/internal/pipeline"
	"chapterize/internal/probecache"
	"chapterize/internal/services/whisper"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		opts := logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		}
		if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
			opts.FilePath = filepath.Join(dir, "chapterize.log")
		}
		c.logger, c.loggerErr = logging.New(opts)
	})
	return c.logger, c.loggerErr
}

// openCache opens the persistent duration cache; failures degrade to no
// caching rather than blocking the run.
func (c *commandContext) openCache() *probecache.Cache {
	cfg, err := c.ensureConfig()
	if err != nil || strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		return nil
	}
	cache, err := probecache.Open(filepath.Join(cfg.Paths.CacheDir, "durations.db"))
	if err != nil {
		if logger, lerr := c.ensureLogger(); lerr == nil {
			logger.Warn("duration cache unavailable", logging.Error(err))
		}
		return nil
	}
	return cache
}

func (c *commandContext) newRecognizer() (*whisper.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return whisper.NewService(whisper.Config{
		Binary:      cfg.Whisper.Binary,
		Model:       cfg.Whisper.Model,
		Device:      cfg.Whisper.Device,
		ComputeType: cfg.Whisper.ComputeType,
		Language:    cfg.Whisper.Language,
		Workers:     cfg.Whisper.Workers,
	}, cfg.FFprobe.Binary), nil
}

// newRunner assembles the pipeline for process and watch commands. The
// returned cleanup closes the duration cache.
func (c *commandContext) newRunner(progress pipeline.ProgressFunc) (*pipeline.Runner, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	recognizer, err := c.newRecognizer()
	if err != nil {
		return nil, nil, err
	}

	cache := c.openCache()
	runner, err := pipeline.NewRunner(pipeline.Options{
		Recognizer: recognizer,
		Cache:      cache,
		Extensions: cfg.Processing.AudioExtensions,
		Tolerance:  cfg.Processing.DurationToleranceSeconds,
		TagEntries: cfg.Processing.TagChapterEntries,
		Logger:     logger,
		Progress:   progress,
	})
	if err != nil {
		cache.Close()
		return nil, nil, err
	}
	return runner, func() { cache.Close() }, nil
}

// newClassifier assembles classification-only dependencies for status.
func (c *commandContext) newClassifier() (*library.Classifier, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	recognizer, err := c.newRecognizer()
	if err != nil {
		return nil, nil, err
	}
	cache := c.openCache()
	prober := pipeline.NewCachedProber(recognizer, cache, logger)
	classifier := library.NewClassifier(prober, cfg.Processing.DurationToleranceSeconds, logger)
	return classifier, func() { cache.Close() }, nil
}

func (c *commandContext) newPublisher() (*audiobookshelf.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return audiobookshelf.New(
		cfg.Audiobookshelf.URL,
		cfg.Audiobookshelf.APIKey,
		time.Duration(cfg.Audiobookshelf.RequestTimeout)*time.Second,
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
