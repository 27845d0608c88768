package watchfs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"chapterize/internal/logging"
)

// DefaultSettle is how long the directory must stay quiet before a run.
const DefaultSettle = 5 * time.Second

// Options configures a Watcher.
type Options struct {
	Root string
	// Extensions are the audio extensions that count as activity
	// (lowercase, dot-prefixed).
	Extensions []string
	// Settle is the quiet period after the last relevant event; <= 0 selects
	// DefaultSettle.
	Settle time.Duration
	Logger *slog.Logger
	// Trigger runs once per settled burst of events.
	Trigger func(ctx context.Context)
}

// Watcher debounces filesystem events under a book directory.
type Watcher struct {
	root    string
	allowed map[string]struct{}
	settle  time.Duration
	logger  *slog.Logger
	trigger func(ctx context.Context)
	fsw     *fsnotify.Watcher
}

// New builds a watcher over opts.Root and registers its subdirectories.
func New(opts Options) (*Watcher, error) {
	if opts.Trigger == nil {
		return nil, errors.New("watcher requires a trigger")
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	allowed := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:    opts.Root,
		allowed: allowed,
		settle:  settle,
		logger:  logging.NewComponentLogger(opts.Logger, "watch"),
		trigger: opts.Trigger,
		fsw:     fsw,
	}
	if err := w.addTree(opts.Root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx is cancelled, firing Trigger after each settled burst
// of audio file activity. Newly created subdirectories are watched as they
// appear.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch new directory failed",
							logging.String(logging.FieldFile, event.Name),
							logging.Error(err))
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("audio activity",
				logging.String(logging.FieldFile, event.Name),
				logging.String("op", event.Op.String()))
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.settle)
			armed = true

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(err))

		case <-timer.C:
			armed = false
			w.logger.Info("activity settled, starting run")
			w.trigger(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.allowed[strings.ToLower(filepath.Ext(event.Name))]
	return ok
}
