// Package watch reruns a callback when Go sources under a directory change.
//
// Events are debounced: a burst of writes (an editor saving through a temp
// file, a branch switch) fires the callback once with every changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// generatedSuffix marks files written by composegen itself.
const generatedSuffix = ".compose.go"

// Config holds the parameters for a Watcher.
type Config struct {
	// BaseDir is the watched root. Default: the working directory.
	BaseDir string

	// Ignore lists directories, absolute or relative to the working
	// directory, whose contents never trigger the callback.
	Ignore []string

	// Debounce is the quiet period before the callback fires.
	Debounce time.Duration

	// OnChange receives the changed paths relative to BaseDir, sorted.
	OnChange func(ctx context.Context, changed []string) error

	Logger *slog.Logger
}

// Watcher monitors a directory tree. Run must be called once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	baseDir  string
	ignores  []string
	debounce time.Duration
	logger   *slog.Logger
	started  atomic.Bool
}

// New creates a Watcher and registers every directory under cfg.BaseDir.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	var ignores []string
	for _, dir := range cfg.Ignore {
		d, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", dir, err)
		}
		ignores = append(ignores, d)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		baseDir:  abs,
		ignores:  ignores,
		debounce: orDefault(cfg.Debounce, defaultDebounce),
		logger:   cfg.Logger,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Run processes events until ctx is canceled. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}
	defer w.fsw.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("watch callback failed", slog.Any("error", err))
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if w.ignored(evt.Name) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.addTree(evt.Name); err != nil {
						w.logger.Warn("cannot watch new directory", slog.String("dir", evt.Name), slog.Any("error", err))
					}
					continue
				}
			}
			if !Relevant(evt.Name) || evt.Op == fsnotify.Chmod {
				continue
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			w.logger.Debug("file changed", slog.String("path", rel), slog.String("op", evt.Op.String()))

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// Relevant reports whether a change to path can affect generation: Go
// sources other than generated ones, and module files.
func Relevant(path string) bool {
	base := filepath.Base(path)
	switch {
	case base == "go.mod" || base == "go.sum":
		return true
	case strings.HasSuffix(base, generatedSuffix):
		return false
	default:
		return strings.HasSuffix(base, ".go")
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping path", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) || w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

// skipDir reports directories the go command itself ignores.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "testdata" || name == "vendor" || name == "node_modules"
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignores {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
