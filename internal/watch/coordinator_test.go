package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetforge/internal/metrics"
)

func newTestCoordinator(t *testing.T, debounce time.Duration) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(debounce, func(err error) { t.Logf("watch error: %v", err) }, metrics.NoopRecorder{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDebounceCoalescesBurst(t *testing.T) {
	c := newTestCoordinator(t, 20*time.Millisecond)

	dir := t.TempDir()
	file := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	var rebuilds atomic.Int32
	c.Register("app.js", []string{file}, func(context.Context, string) {
		rebuilds.Add(1)
	})

	ev := fsnotify.Event{Name: file, Op: fsnotify.Write}
	ctx := context.Background()
	c.handleEvent(ctx, ev)
	c.handleEvent(ctx, ev)
	c.handleEvent(ctx, ev)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), rebuilds.Load(), "burst within the window must rebuild exactly once")

	// A fresh burst after the window fires again.
	c.handleEvent(ctx, ev)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), rebuilds.Load())
}

func TestRebuildsOfSameOutputNeverOverlap(t *testing.T) {
	c := newTestCoordinator(t, time.Millisecond)

	var (
		mu         sync.Mutex
		inFlight   int
		maxFlight  int
		totalRuns  int
		releaseRun = make(chan struct{})
	)
	rebuild := func(context.Context, string) {
		mu.Lock()
		inFlight++
		if inFlight > maxFlight {
			maxFlight = inFlight
		}
		mu.Unlock()

		<-releaseRun

		mu.Lock()
		inFlight--
		totalRuns++
		mu.Unlock()
	}

	st := &outputState{rebuild: rebuild}
	ctx := context.Background()
	c.requestRebuild(ctx, st, "app.js", "/src/a.js")
	// Second and third requests arrive while the first is running: they
	// collapse to exactly one queued follow-up.
	time.Sleep(10 * time.Millisecond)
	c.requestRebuild(ctx, st, "app.js", "/src/b.js")
	c.requestRebuild(ctx, st, "app.js", "/src/c.js")

	close(releaseRun)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxFlight, "rebuilds of one output must not overlap")
	assert.Equal(t, 2, totalRuns, "overlapping requests collapse to one follow-up")
}

func TestRegisterIsIdempotentAcrossOutputs(t *testing.T) {
	c := newTestCoordinator(t, 10*time.Millisecond)

	dir := t.TempDir()
	file := filepath.Join(dir, "shared.js")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	var a, b atomic.Int32
	c.Register("app.js", []string{file}, func(context.Context, string) { a.Add(1) })
	c.Register("admin.js", []string{file}, func(context.Context, string) { b.Add(1) })
	// Duplicate registration for the same output is a no-op.
	c.Extend("app.js", []string{file})

	c.handleEvent(context.Background(), fsnotify.Event{Name: file, Op: fsnotify.Write})
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), a.Load(), "each owning output rebuilds once")
	assert.Equal(t, int32(1), b.Load(), "each owning output rebuilds once")
}

func TestDirectoryRegistrationOwnsContainedFiles(t *testing.T) {
	c := newTestCoordinator(t, 10*time.Millisecond)

	dir := t.TempDir()
	src := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(src, 0o755))

	var changedPath atomic.Value
	c.Register("assets/", []string{src + "/"}, func(_ context.Context, changed string) {
		changedPath.Store(changed)
	})

	inside := filepath.Join(src, "logo.png")
	c.handleEvent(context.Background(), fsnotify.Event{Name: inside, Op: fsnotify.Create})
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, inside, changedPath.Load())
}

func TestRecreatedSubdirectoryRejoinsWatchSet(t *testing.T) {
	c := newTestCoordinator(t, 5*time.Millisecond)

	dir := t.TempDir()
	root := filepath.Join(dir, "static")
	sub := filepath.Join(root, "img")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	c.Register("assets/", []string{root + "/"}, func(context.Context, string) {})
	require.True(t, c.dirs.Has(sub))

	// Deleting the directory invalidates its kernel watch; the coordinator's
	// bookkeeping must follow, or the recreated directory is never re-added.
	require.NoError(t, os.RemoveAll(sub))
	c.handleEvent(context.Background(), fsnotify.Event{Name: sub, Op: fsnotify.Remove})
	assert.False(t, c.dirs.Has(sub))

	require.NoError(t, os.MkdirAll(sub, 0o755))
	c.handleEvent(context.Background(), fsnotify.Event{Name: sub, Op: fsnotify.Create})
	assert.True(t, c.dirs.Has(sub))
}

func TestIgnoredEventsDoNotTrigger(t *testing.T) {
	c := newTestCoordinator(t, 5*time.Millisecond)

	dir := t.TempDir()
	src := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(src, 0o755))

	var rebuilds atomic.Int32
	c.Register("docs/", []string{src + "/"}, func(context.Context, string) { rebuilds.Add(1) })

	for _, name := range []string{".hidden", "file.swp", "backup~", "#lock#", "Thumbs.db"} {
		c.handleEvent(context.Background(), fsnotify.Event{Name: filepath.Join(src, name), Op: fsnotify.Write})
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(0), rebuilds.Load())
}

func TestRealWatcherDeliversEvent(t *testing.T) {
	c := newTestCoordinator(t, 10*time.Millisecond)

	dir := t.TempDir()
	file := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))

	done := make(chan struct{}, 1)
	c.Register("app.js", []string{file}, func(context.Context, string) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	// Give the watcher a moment, then touch the file.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("v2"), 0o644))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch-triggered rebuild")
	}
}
