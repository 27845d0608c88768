package pipeline

import (
	"context"
	"log/slog"

	"chapterize/internal/library"
	"chapterize/internal/logging"
	"chapterize/internal/probecache"
)

// CachedProber fronts a duration prober with the persistent probe cache so
// repeated runs over large books never re-invoke ffprobe for unchanged files.
// A nil cache degrades to pass-through.
type CachedProber struct {
	inner  library.Prober
	cache  *probecache.Cache
	logger *slog.Logger
}

// NewCachedProber wraps inner with the given cache.
func NewCachedProber(inner library.Prober, cache *probecache.Cache, logger *slog.Logger) *CachedProber {
	return &CachedProber{
		inner:  inner,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "probecache"),
	}
}

// Probe returns the cached duration when the file is unchanged, otherwise
// probes and stores the result. Cache errors are logged and ignored; the
// probe result always wins.
func (p *CachedProber) Probe(ctx context.Context, path string) (float64, error) {
	if seconds, ok, err := p.cache.Get(ctx, path); err != nil {
		p.logger.Warn("probe cache read failed",
			logging.String(logging.FieldFile, path),
			logging.Error(err))
	} else if ok {
		return seconds, nil
	}

	seconds, err := p.inner.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := p.cache.Put(ctx, path, seconds); err != nil {
		p.logger.Warn("probe cache write failed",
			logging.String(logging.FieldFile, path),
			logging.Error(err))
	}
	return seconds, nil
}
