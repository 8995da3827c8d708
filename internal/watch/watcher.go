// Package watch runs a directory watcher that feeds newly arriving input
// files through the batch coordinator. Events are debounced so files are
// only processed after writes have settled; a periodic rescan catches
// anything fsnotify missed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/msageha/mgapi/internal/batch"
	"github.com/msageha/mgapi/internal/lock"
	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/resultfile"
)

const lockFileName = ".mgapi.watch.lock"

type Watcher struct {
	dir      string
	specName string
	coord    *batch.Coordinator
	opts     batch.Options

	debounce     time.Duration
	scanInterval time.Duration

	logger   *log.Logger
	logLevel batch.LogLevel

	mu      sync.Mutex
	pending map[string]time.Time
}

func New(dir, specName string, coord *batch.Coordinator, opts batch.Options, cfg model.WatchConfig, logger *log.Logger, level batch.LogLevel) *Watcher {
	debounce := 500 * time.Millisecond
	if cfg.DebounceMs > 0 {
		debounce = time.Duration(cfg.DebounceMs) * time.Millisecond
	}
	scanInterval := 30 * time.Second
	if cfg.ScanIntervalSec > 0 {
		scanInterval = time.Duration(cfg.ScanIntervalSec) * time.Second
	}

	return &Watcher{
		dir:          dir,
		specName:     specName,
		coord:        coord,
		opts:         opts,
		debounce:     debounce,
		scanInterval: scanInterval,
		logger:       logger,
		logLevel:     level,
		pending:      make(map[string]time.Time),
	}
}

// Run watches the directory until ctx ends. Only one watcher may run per
// directory; a second one fails to acquire the directory lock.
func (w *Watcher) Run(ctx context.Context) error {
	fl := lock.New(filepath.Join(w.dir, lockFileName))
	if err := fl.TryLock(); err != nil {
		return fmt.Errorf("watch lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.log(batch.LogLevelInfo, "watching %s for %s files", w.dir, w.specName)
	w.scanOnce()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.eventLoop(ctx, fw) })
	g.Go(func() error { return w.flushLoop(ctx) })
	g.Go(func() error { return w.scanLoop(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	w.log(batch.LogLevelInfo, "watcher stopped")
	return nil
}

// eventLoop records filesystem change events for debounced processing.
func (w *Watcher) eventLoop(ctx context.Context, fw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && Eligible(event.Name) {
				w.log(batch.LogLevelDebug, "fsnotify event=%s file=%s", event.Op, event.Name)
				w.enqueue(event.Name, time.Now())
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log(batch.LogLevelError, "fsnotify error=%v", err)
		}
	}
}

// flushLoop processes files whose events have settled past the debounce
// window.
func (w *Watcher) flushLoop(ctx context.Context) error {
	interval := w.debounce / 2
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, path := range w.takeDue(time.Now()) {
				w.processOne(ctx, path)
			}
		}
	}
}

// scanLoop is the fsnotify fallback: it periodically enqueues eligible files
// that have no result file yet.
func (w *Watcher) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.log(batch.LogLevelDebug, "periodic scan of %s", w.dir)
			w.scanOnce()
		}
	}
}

func (w *Watcher) scanOnce() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log(batch.LogLevelError, "scan %s: %v", w.dir, err)
		return
	}
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !Eligible(path) {
			continue
		}
		// Files that already carry a result are complete; the resume
		// semantics make reprocessing harmless but each pass would
		// produce a fresh backup.
		if _, err := os.Stat(resultfile.ResultPath(path)); err == nil {
			continue
		}
		w.enqueue(path, now)
	}
}

func (w *Watcher) processOne(ctx context.Context, path string) {
	w.log(batch.LogLevelInfo, "processing %s", path)

	_, results, err := w.coord.Run(ctx, w.specName, []string{path}, w.opts)
	if err != nil {
		w.log(batch.LogLevelError, "process %s: %v", path, err)
		return
	}
	for _, res := range results {
		if res.Err != nil {
			w.log(batch.LogLevelError, "file %s failed: %v", res.Input, res.Err)
			continue
		}
		w.log(batch.LogLevelInfo, "file %s done: total=%d success=%d failed=%d results=%s",
			res.Input, res.Stats.Total, res.Stats.Success, res.Stats.Failed, res.ResultPath)
	}
}

func (w *Watcher) enqueue(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

// takeDue removes and returns the pending paths whose last event is at least
// one debounce window old, sorted for deterministic processing order.
func (w *Watcher) takeDue(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []string
	for path, stamp := range w.pending {
		if now.Sub(stamp) >= w.debounce {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(due)
	return due
}

// Eligible reports whether a path is an input file the watcher should
// process: a visible .csv that is not a result, backup, lock, or temp file.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(base), ".csv") {
		return false
	}
	if strings.Contains(base, ".result.") || strings.Contains(base, ".backup.") {
		return false
	}
	return true
}

func (w *Watcher) log(level batch.LogLevel, format string, args ...any) {
	if w.logger == nil || level < w.logLevel {
		return
	}
	w.logger.Printf(format, args...)
}
