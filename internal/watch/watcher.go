// Package watch rebuilds on source changes and on a fixed schedule.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
)

// Reasons passed to BuildFunc.
const (
	ReasonChange   = "change"
	ReasonSchedule = "schedule"
	ReasonManual   = "manual"
)

// DefaultDebounce is the quiet window used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. Calls are never concurrent.
type BuildFunc func(ctx context.Context, reason string) error

// Options configure a Watcher.
type Options struct {
	// Roots are watched recursively.
	Roots []string

	// Ignore lists directories whose events never trigger a build, such as
	// the output directory.
	Ignore []string

	Debounce time.Duration

	// Interval schedules periodic rebuilds; zero disables them.
	Interval time.Duration
}

// Watcher serializes builds requested by file events, the scheduler and
// Trigger. Requests arriving while a build runs collapse into one follow-up.
type Watcher struct {
	opts  Options
	build BuildFunc

	requests chan string

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher.
func New(opts Options, build BuildFunc) (*Watcher, error) {
	if build == nil {
		return nil, errors.ValidationError("watch requires a build function").Build()
	}
	if len(opts.Roots) == 0 {
		return nil, errors.ValidationError("watch requires at least one root").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Interval < 0 {
		return nil, errors.ValidationError("rebuild interval must not be negative").Build()
	}

	w := &Watcher{opts: opts, build: build, requests: make(chan string, 1)}
	roots := make([]string, 0, len(opts.Roots))
	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve watch root").
				WithContext("path", root).
				Build()
		}
		roots = append(roots, abs)
	}
	w.opts.Roots = roots
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, abs)
		}
	}
	w.opts.Ignore = ignore
	return w, nil
}

// Trigger requests a debounced build.
func (w *Watcher) Trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.request(ReasonChange) })
}

// Rebuild requests an immediate build.
func (w *Watcher) Rebuild() {
	w.request(ReasonManual)
}

func (w *Watcher) request(reason string) {
	select {
	case w.requests <- reason:
	default:
		// a build is already pending
	}
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range w.opts.Roots {
		if err := w.addDirsRecursive(fsw, root); err != nil {
			return err
		}
	}

	stopScheduler, err := w.startScheduler()
	if err != nil {
		return err
	}
	defer stopScheduler()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()

	slog.Info("Watching for changes",
		slog.Any("roots", w.opts.Roots),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.requests:
			slog.Info("Rebuilding", slog.String("reason", reason))
			if err := w.build(ctx, reason); err != nil {
				slog.Warn("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) startScheduler() (func(), error) {
	if w.opts.Interval == 0 {
		return func() {}, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.request, ReasonSchedule),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to schedule periodic rebuild").
			WithContext("interval", w.opts.Interval.String()).
			Build()
	}
	s.Start()
	return func() {
		if err := s.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}, nil
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fsw, ev.Name)
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.Trigger()
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "watch root not accessible").
			WithContext("path", root).
			Build()
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports whether events for path are dropped: hidden and editor
// temporary files, and anything below an ignored directory.
func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.opts.Ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return ignoredName(filepath.Base(path))
}

func ignoredName(base string) bool {
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
