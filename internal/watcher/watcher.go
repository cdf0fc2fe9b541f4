// Package watcher re-runs extraction when source files change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

// DefaultDelay groups the bursts of events editors produce on save.
const DefaultDelay = 300 * time.Millisecond

// Filter reports whether a changed path is relevant.
type Filter func(path string) bool

// Handler is called with the distinct changed paths of one burst.
type Handler func(ctx context.Context, paths []string) error

// Debouncer collects paths and releases them once no new path arrived for
// the configured delay.
type Debouncer struct {
	delay   time.Duration
	output  chan []string
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		output:  make(chan []string, 1),
		pending: make(map[string]struct{}),
	}
}

// C delivers sorted, deduplicated bursts.
func (d *Debouncer) C() <-chan []string {
	return d.output
}

// Add records a path and restarts the quiet period.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

// Stop cancels a pending flush.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	clear(d.pending)

	slices.Sort(paths)
	// A burst still waiting to be handled absorbs this one.
	select {
	case d.output <- paths:
	default:
		select {
		case prev := <-d.output:
			paths = slices.Compact(slices.Sorted(slices.Values(append(prev, paths...))))
		default:
		}
		d.output <- paths
	}
}

// Watcher watches a directory tree.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	filter    Filter
	skipDir   func(path string) bool
}

// New creates a watcher on root and all its subdirectories. skipDir, when
// set, prunes directories from the watch.
func New(root string, delay time.Duration, filter Filter, skipDir func(string) bool) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fw, debouncer: NewDebouncer(delay), filter: filter, skipDir: skipDir}
	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir != nil && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// Run calls h for every burst of relevant changes until ctx is done.
// Handler errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	defer w.fs.Close()
	defer w.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("File watcher error")
		case paths := <-w.debouncer.C():
			log.Info().Int("changed", len(paths)).Msg("Sources changed, extracting again")
			if err := h(ctx, paths); err != nil {
				log.Error().Err(err).Msg("Extraction after change failed")
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				log.Warn().Err(err).Str("dir", ev.Name).Msg("Could not watch new directory")
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if w.filter != nil && !w.filter(ev.Name) {
		return
	}
	log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Change detected")
	w.debouncer.Add(ev.Name)
}

// ExtensionFilter accepts paths whose base name matches one of the glob
// patterns. Patterns use the same syntax as the file walker, braces
// included.
func ExtensionFilter(patterns ...string) (Filter, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile watch pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return func(path string) bool {
		base := filepath.Base(path)
		for _, g := range globs {
			if g.Match(base) {
				return true
			}
		}
		return false
	}, nil
}
