// Package watcher ingests dataset files dropped into an inbox directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultPattern matches every supported dataset file at any depth.
const DefaultPattern = "**/*.{csv,json,xlsx,xls}"

// DefaultSettle is how long a file must stay unwritten before it is ingested.
const DefaultSettle = 500 * time.Millisecond

// IngestFunc loads the file at path.
type IngestFunc func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Dir     string
	Pattern string
	Settle  time.Duration
}

// Watcher watches Dir recursively and ingests files matching Pattern.
type Watcher struct {
	opts    Options
	ingest  IngestFunc
	logger  *slog.Logger
	running atomic.Bool

	mu   sync.Mutex
	seen map[string]time.Time
}

// New creates a Watcher. The pattern is matched against slash-separated
// paths relative to Dir.
func New(opts Options, ingest IngestFunc, logger *slog.Logger) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, errors.New("watch dir is required")
	}

	if ingest == nil {
		return nil, errors.New("ingest func is required")
	}

	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}

	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", opts.Pattern)
	}

	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		opts:   opts,
		ingest: ingest,
		logger: logger.With(slog.String("component", "watcher"), slog.String("dir", opts.Dir)),
		seen:   make(map[string]time.Time),
	}, nil
}

// Run ingests the files already in Dir, then watches for new ones until ctx
// is canceled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	deb := newDebouncer(w.opts.Settle)
	defer deb.stopAndWait()

	if err := w.addTree(ctx, fw, deb, w.opts.Dir); err != nil {
		return err
	}

	w.running.Store(true)
	defer w.running.Store(false)

	w.logger.InfoContext(ctx, "watching inbox", slog.String("pattern", w.opts.Pattern))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}

				return errors.New("watcher events channel closed")
			}

			w.handleEvent(ctx, fw, deb, event)

		case werr, ok := <-fw.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}

				return errors.New("watcher errors channel closed")
			}

			w.logger.ErrorContext(ctx, "fsnotify error", slog.Any("error", werr))
		}
	}
}

// Name implements ports.HealthChecker.
func (w *Watcher) Name() string {
	return "inbox-watcher"
}

// Check implements ports.HealthChecker.
func (w *Watcher) Check(context.Context) error {
	if !w.running.Load() {
		return errors.New("watcher is not running")
	}

	return nil
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, deb *debouncer, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(ctx, fw, deb, event.Name); err != nil {
				w.logger.WarnContext(ctx, "cannot watch new directory",
					slog.String("path", event.Name), slog.Any("error", err))
			}
		}

		return
	}

	if !w.Matches(event.Name) {
		return
	}

	w.logger.DebugContext(ctx, "file event", slog.String("path", event.Name), slog.String("op", event.Op.String()))

	path := event.Name
	deb.add(path, func() { w.process(ctx, path) })
}

// addTree watches dir and its subdirectories and schedules the matching files
// already in them.
func (w *Watcher) addTree(ctx context.Context, fw *fsnotify.Watcher, deb *debouncer, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}

			return nil
		}

		if w.Matches(path) {
			deb.add(path, func() { w.process(ctx, path) })
		}

		return nil
	})
}

// Matches reports whether path, inside Dir, matches the watch pattern.
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.opts.Dir, path)
	if err != nil {
		return false
	}

	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}

	ok, err := doublestar.Match(w.opts.Pattern, rel)

	return err == nil && ok
}

// process ingests path unless this modification time was already handled.
func (w *Watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		w.logger.DebugContext(ctx, "file vanished before ingest", slog.String("path", path))
		return
	}

	if !w.markSeen(path, info.ModTime()) {
		return
	}

	start := time.Now()

	if err := w.ingest(ctx, path); err != nil {
		w.logger.WarnContext(ctx, "inbox ingest failed",
			slog.String("path", path),
			slog.Any("error", err),
		)

		return
	}

	w.logger.InfoContext(ctx, "inbox file ingested",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
	)
}

func (w *Watcher) markSeen(path string, mod time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.seen[path]; ok && prev.Equal(mod) {
		return false
	}

	w.seen[path] = mod

	return true
}
