// Package watch coordinates filesystem observation for live builds. It keeps
// one registration per discovered source file per output, debounces bursts of
// raw change notifications per registration, and triggers a scoped rebuild of
// only the affected output. Rebuilds of the same output never overlap.
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

	ferrors "assetforge/internal/errors"
	"assetforge/internal/logfields"
	"assetforge/internal/metrics"
	"assetforge/internal/pathutil"
	"assetforge/internal/util/sets"
)

// DefaultDebounce is the fixed interval a burst of change events is coalesced
// into a single rebuild.
const DefaultDebounce = 2 * time.Second

// RebuildFunc rebuilds one output. changed is the path whose event fired the
// debounce window; pass-through outputs use it for stale-artifact
// reconciliation.
type RebuildFunc func(ctx context.Context, changed string)

// registration tracks one observed source file for one output, with its own
// pending debounce timer.
type registration struct {
	output  string
	file    string
	isDir   bool
	pending *time.Timer
}

// outputState serializes rebuilds per output: a rebuild requested while one is
// in flight is queued, and exactly one follow-up runs afterwards.
type outputState struct {
	rebuild RebuildFunc

	mu            sync.Mutex
	running       bool
	queued        bool
	queuedChanged string
}

// Coordinator owns the fsnotify watcher and all registrations.
type Coordinator struct {
	debounce time.Duration
	onError  func(error)
	recorder metrics.Recorder

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	dirs    sets.Set[string]                     // directories added to the fsnotify watcher
	regs    map[string]map[string]*registration // output -> file -> registration
	outputs map[string]*outputState
	closed  bool
}

// NewCoordinator creates a coordinator. onError receives every asynchronous
// watch or rebuild failure; it must be non-nil.
func NewCoordinator(debounce time.Duration, onError func(error), recorder metrics.Recorder) (*Coordinator, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryWatch, "create filesystem watcher")
	}
	return &Coordinator{
		debounce: debounce,
		onError:  onError,
		recorder: recorder,
		watcher:  watcher,
		dirs:     sets.New[string](),
		regs:     make(map[string]map[string]*registration),
		outputs:  make(map[string]*outputState),
	}, nil
}

// Register associates every member of files with output and its rebuild
// function. Registering the same file for the same output twice is a no-op;
// the same file may be registered for multiple outputs independently.
func (c *Coordinator) Register(output string, files []string, rebuild RebuildFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.outputs[output]; !ok {
		c.outputs[output] = &outputState{rebuild: rebuild}
	}
	for _, f := range files {
		c.addFileLocked(output, f)
	}
	c.recorder.SetWatchedFiles(c.registrationCountLocked())
}

// Extend idempotently adds newly discovered files to an existing output's
// watch set. Unknown outputs are ignored.
func (c *Coordinator) Extend(output string, files []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.outputs[output]; !ok {
		return
	}
	for _, f := range files {
		c.addFileLocked(output, f)
	}
	c.recorder.SetWatchedFiles(c.registrationCountLocked())
}

func (c *Coordinator) addFileLocked(output, file string) {
	byFile, ok := c.regs[output]
	if !ok {
		byFile = make(map[string]*registration)
		c.regs[output] = byFile
	}
	if _, exists := byFile[file]; exists {
		return
	}

	isDir := pathutil.IsDirPath(file)
	if !isDir {
		if info, err := os.Stat(file); err == nil && info.IsDir() {
			isDir = true
		}
	}
	byFile[file] = &registration{output: output, file: file, isDir: isDir}

	if isDir {
		c.addDirsRecursiveLocked(strings.TrimSuffix(file, "/"))
	} else {
		c.addDirLocked(filepath.Dir(file))
	}
}

func (c *Coordinator) addDirLocked(dir string) {
	if c.dirs.Has(dir) {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.onError(ferrors.Wrap(err, ferrors.CategoryWatch, "watch directory").WithContext("dir", dir))
		return
	}
	c.dirs.Add(dir)
}

func (c *Coordinator) addDirsRecursiveLocked(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			c.addDirLocked(path)
		}
		return nil
	})
}

// dropDirsLocked forgets name and every watched directory beneath it.
func (c *Coordinator) dropDirsLocked(name string) {
	prefix := pathutil.WithTrailingSlash(name)
	for dir := range c.dirs {
		if dir == name || strings.HasPrefix(dir, prefix) {
			c.dirs.Delete(dir)
		}
	}
}

func (c *Coordinator) registrationCountLocked() int {
	n := 0
	for _, byFile := range c.regs {
		n += len(byFile)
	}
	return n
}

// Run consumes watcher events until ctx is canceled or the coordinator is
// closed. Watch errors are routed to the error handler; watching continues.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = c.Close()
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(ctx, ev)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.onError(ferrors.Wrap(err, ferrors.CategoryWatch, "watcher error"))
		}
	}
}

func (c *Coordinator) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}

	// A deleted or renamed directory loses its kernel watch; drop the
	// bookkeeping so a recreation at the same path is watched again.
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		c.mu.Lock()
		c.dropDirsLocked(ev.Name)
		c.mu.Unlock()
	}

	// New directories under an observed tree join the watch set so files
	// created inside them are seen.
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			c.mu.Lock()
			if c.ownsDirLocked(ev.Name) {
				c.addDirsRecursiveLocked(ev.Name)
			}
			c.mu.Unlock()
		}
	}

	for _, reg := range c.ownersOf(ev.Name) {
		slog.Debug("change event", logfields.Output(reg.output), logfields.File(ev.Name), slog.String("op", ev.Op.String()))
		c.recorder.IncWatchEvent(reg.output)
		c.trigger(ctx, reg, ev.Name)
	}
}

// ownersOf returns every registration claiming the changed path: an exact file
// match, or containment in an observed directory registration.
func (c *Coordinator) ownersOf(name string) []*registration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var owners []*registration
	for _, byFile := range c.regs {
		for _, reg := range byFile {
			if reg.isDir {
				if strings.HasPrefix(name, pathutil.WithTrailingSlash(reg.file)) {
					owners = append(owners, reg)
				}
			} else if reg.file == name {
				owners = append(owners, reg)
			}
		}
	}
	return owners
}

// ownsDirLocked reports whether dir sits under any observed directory registration.
func (c *Coordinator) ownsDirLocked(dir string) bool {
	for _, byFile := range c.regs {
		for _, reg := range byFile {
			if reg.isDir && strings.HasPrefix(dir, pathutil.WithTrailingSlash(reg.file)) {
				return true
			}
		}
	}
	return false
}

// trigger starts the registration's debounce timer; events arriving while a
// timer is already pending are coalesced (ignored, not reset).
func (c *Coordinator) trigger(ctx context.Context, reg *registration, changed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || reg.pending != nil {
		return
	}
	reg.pending = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		reg.pending = nil
		st := c.outputs[reg.output]
		c.mu.Unlock()
		if st != nil {
			c.requestRebuild(ctx, st, reg.output, changed)
		}
	})
}

// requestRebuild runs the output's rebuild, guaranteeing that a second rebuild
// of the same output never starts while a prior one is in flight.
func (c *Coordinator) requestRebuild(ctx context.Context, st *outputState, output, changed string) {
	st.mu.Lock()
	if st.running {
		st.queued = true
		st.queuedChanged = changed
		st.mu.Unlock()
		return
	}
	st.running = true
	st.mu.Unlock()

	go func() {
		for {
			slog.Info("rebuilding output", logfields.Output(output), logfields.File(changed))
			st.rebuild(ctx, changed)

			st.mu.Lock()
			if st.queued {
				st.queued = false
				changed = st.queuedChanged
				st.mu.Unlock()
				continue
			}
			st.running = false
			st.mu.Unlock()
			return
		}
	}()
}

// Close stops all pending timers and releases the filesystem watcher.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, byFile := range c.regs {
		for _, reg := range byFile {
			if reg.pending != nil {
				reg.pending.Stop()
				reg.pending = nil
			}
		}
	}
	c.mu.Unlock()
	return c.watcher.Close()
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	if base == "Thumbs.db" {
		return true
	}

	return false
}
