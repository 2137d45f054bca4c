// Package build drives one-shot and continuous (watch) builds: it resolves
// entry declarations, selects the owning file-type descriptor, invokes
// compilation or copy semantics, and reconciles stale output artifacts.
package build

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"assetforge/internal/config"
	ferrors "assetforge/internal/errors"
	"assetforge/internal/filetype"
	"assetforge/internal/fsops"
	"assetforge/internal/logfields"
	"assetforge/internal/metrics"
	"assetforge/internal/refmap"
	"assetforge/internal/state"
	"assetforge/internal/util/sets"
	"assetforge/internal/watch"
)

// ErrorHandler receives every asynchronous build failure. Exactly one handler
// is active per build session; it is injected at construction and threaded
// down, never a mutable ambient global.
type ErrorHandler func(error)

// Orchestrator composes reference discovery with artifact writing and
// stale-output reconciliation.
type Orchestrator struct {
	registry    filetype.Registry
	onError     ErrorHandler
	recorder    metrics.Recorder
	store       *state.Store
	incremental bool
	concurrency int
	debounce    time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithErrorHandler replaces the default slog-based handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *Orchestrator) {
		if h != nil {
			o.onError = h
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithStateStore attaches a signature store enabling incremental one-shot builds.
func WithStateStore(s *state.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithIncremental skips compiling entries whose reference-set content
// signature matches the stored one. Requires a state store.
func WithIncremental(on bool) Option {
	return func(o *Orchestrator) { o.incremental = on }
}

// WithConcurrency caps how many entries build in parallel within one pass.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithDebounce overrides the watch debounce window.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// New constructs an orchestrator over an explicit descriptor registry.
func New(registry filetype.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:    registry,
		recorder:    metrics.NoopRecorder{},
		concurrency: 4,
		debounce:    watch.DefaultDebounce,
	}
	o.onError = func(err error) {
		slog.Error("build error", slog.String("category", string(ferrors.CategoryOf(err))), logfields.Error(err))
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Once runs a single build pass over every entry. Entries build concurrently;
// each entry's failure is isolated, routed to the error handler, and never
// prevents other entries from completing. Once returns only after every entry
// has settled; its error reflects configuration problems alone.
func (o *Orchestrator) Once(ctx context.Context, m *config.AppMap) error {
	if err := o.checkMap(m); err != nil {
		return err
	}

	buildID := uuid.NewString()
	start := time.Now()
	slog.Info("starting build", logfields.BuildID(buildID), slog.Int("entries", len(m.Entries)))

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	for name, spec := range m.Entries {
		wg.Add(1)
		go func(name string, spec config.EntrySpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			entry := ResolveEntry(m, name, spec)
			entryStart := time.Now()
			result, err := o.buildEntry(ctx, entry)
			if err != nil {
				o.recorder.IncEntryOutcome(name, metrics.ResultFailed)
				o.onError(err)
				return
			}
			o.recorder.ObserveEntryDuration(name, time.Since(entryStart))
			o.recorder.IncEntryOutcome(name, result)
		}(name, spec)
	}
	wg.Wait()

	o.recorder.ObserveBuildDuration(time.Since(start))
	slog.Info("build finished", logfields.BuildID(buildID),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

// Live establishes filesystem observation for every entry's current reference
// set and returns once all registrations exist. Rebuilds then happen
// asynchronously for the remaining process lifetime; run the returned
// coordinator's Run loop to consume events.
func (o *Orchestrator) Live(ctx context.Context, m *config.AppMap) (*watch.Coordinator, error) {
	if err := o.checkMap(m); err != nil {
		return nil, err
	}

	coord, err := watch.NewCoordinator(o.debounce, func(err error) { o.onError(err) }, o.recorder)
	if err != nil {
		o.onError(err)
		return nil, err
	}

	for name, spec := range m.Entries {
		entry := ResolveEntry(m, name, spec)
		desc := o.registry.Select(name)

		refs := o.referenceSet(ctx, desc, entry)
		coord.Register(name, refs, o.rebuildFunc(coord, desc, m, name, spec))
		slog.Info("watching output", logfields.Output(name), slog.Int("files", len(refs)))
	}
	return coord, nil
}

func (o *Orchestrator) checkMap(m *config.AppMap) error {
	if m == nil || m.Entries == nil {
		err := ferrors.Config("application map has no entries mapping")
		o.onError(err)
		return err
	}
	return nil
}

// buildEntry performs the one-shot build of a single resolved entry.
func (o *Orchestrator) buildEntry(ctx context.Context, entry ResolvedEntry) (metrics.ResultLabel, error) {
	desc := o.registry.Select(entry.Output)
	if desc.PassThrough {
		if err := o.copyEntry(entry); err != nil {
			return metrics.ResultFailed, err
		}
		return metrics.ResultSuccess, nil
	}
	return o.compileEntry(ctx, desc, entry)
}

func (o *Orchestrator) compileEntry(ctx context.Context, desc filetype.Descriptor, entry ResolvedEntry) (metrics.ResultLabel, error) {
	var sig string
	if o.incremental && o.store != nil {
		refs := o.referenceSet(ctx, desc, entry)
		computed, err := state.Signature(refs, nil)
		if err == nil {
			sig = computed
			prev, getErr := o.store.Get(ctx, entry.Output)
			if getErr == nil && prev != "" && prev == sig && fsops.Exists(entry.Target) {
				slog.Debug("sources unchanged, skipping", logfields.Output(entry.Output))
				return metrics.ResultSkipped, nil
			}
		}
	}

	artifact, err := desc.Handler.Compile(ctx, filetype.Request{
		Sources:  entry.Sources,
		External: entry.External,
		Format:   entry.Format,
	})
	if err != nil {
		return metrics.ResultFailed, ferrors.Wrap(err, ferrors.CategoryCompile, "compile output").WithContext("output", entry.Output)
	}
	if err := fsops.WriteFile(entry.Target, artifact.Content); err != nil {
		return metrics.ResultFailed, ferrors.Wrap(err, ferrors.CategoryWrite, "write artifact").WithContext("target", entry.Target)
	}
	slog.Debug("wrote artifact", logfields.Output(entry.Output), logfields.Target(entry.Target))

	if sig != "" {
		if err := o.store.Put(ctx, entry.Output, sig); err != nil {
			o.onError(ferrors.Wrap(err, ferrors.CategoryState, "record build signature").WithContext("output", entry.Output))
		}
	}
	return metrics.ResultSuccess, nil
}

// copyEntry applies pass-through semantics: each resolved source is copied to
// the computed target path. All sources are attempted; failures accumulate.
func (o *Orchestrator) copyEntry(entry ResolvedEntry) error {
	var errs []error
	for _, src := range entry.Sources {
		if err := copySource(src, entry.Target); err != nil {
			errs = append(errs, ferrors.Wrap(err, ferrors.CategoryWrite, "copy source").
				WithContext("output", entry.Output).WithContext("source", src))
		}
	}
	return joinErrs(errs)
}

// copySource expands src, a literal path or a glob pattern, and copies every
// match to its computed target path.
func copySource(src, target string) error {
	matches, err := refmap.Glob(src)
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := copyMatch(m, target); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrs(errs)
}

func copyMatch(src, target string) error {
	dst := fsops.TargetPath(target, src)
	if fsops.IsDir(src) {
		return fsops.CopyTree(src, dst)
	}
	return fsops.CopyFile(src, dst)
}

// referenceSet gathers the current reference sets of every root source,
// deduplicated across roots. Per-branch discovery errors are routed to the
// handler; the partial set is still usable for watching.
func (o *Orchestrator) referenceSet(ctx context.Context, desc filetype.Descriptor, entry ResolvedEntry) []string {
	seen := sets.New[string]()
	var refs []string
	for _, src := range entry.Sources {
		files, err := desc.Handler.DiscoverReferences(ctx, src, entry.External)
		if err != nil {
			o.onError(ferrors.Wrap(err, ferrors.CategoryDiscovery, "discover references").
				WithContext("output", entry.Output).WithContext("source", src))
		}
		for _, f := range files {
			if seen.Has(f) {
				continue
			}
			seen.Add(f)
			refs = append(refs, f)
		}
	}
	return refs
}

// rebuildFunc builds the closure the watch coordinator invokes for one output.
// The entry is re-resolved on every invocation so stale-output decisions are
// always made against the current source list, never a cached one.
func (o *Orchestrator) rebuildFunc(coord *watch.Coordinator, desc filetype.Descriptor, m *config.AppMap, name string, spec config.EntrySpec) watch.RebuildFunc {
	return func(ctx context.Context, changed string) {
		entry := ResolveEntry(m, name, spec)
		if desc.PassThrough {
			o.rebuildCopy(entry, changed)
			return
		}
		o.rebuildCompile(ctx, coord, desc, entry)
	}
}

func (o *Orchestrator) rebuildCompile(ctx context.Context, coord *watch.Coordinator, desc filetype.Descriptor, entry ResolvedEntry) {
	// Re-discover so newly appearing references join the watch set.
	refs := o.referenceSet(ctx, desc, entry)
	coord.Extend(entry.Output, refs)

	if _, err := o.compileEntry(ctx, desc, entry); err != nil {
		o.recorder.IncRebuild(entry.Output, metrics.ResultFailed)
		o.onError(err)
		return
	}
	o.recorder.IncRebuild(entry.Output, metrics.ResultSuccess)
}

func (o *Orchestrator) rebuildCopy(entry ResolvedEntry, changed string) {
	if removed, err := ReconcileStale(entry, changed); err != nil {
		o.onError(ferrors.Wrap(err, ferrors.CategoryWrite, "remove stale artifact").WithContext("output", entry.Output))
	} else if removed {
		slog.Info("removed stale artifact", logfields.Output(entry.Output), logfields.File(changed))
	}

	var errs []error
	for _, src := range entry.Sources {
		matches, globErr := refmap.Glob(src)
		if globErr != nil {
			// Every match of this source is gone; the reconciliation
			// above already handled its artifacts.
			continue
		}
		for _, m := range matches {
			if err := copyMatch(m, entry.Target); err != nil {
				errs = append(errs, ferrors.Wrap(err, ferrors.CategoryWrite, "copy source").
					WithContext("output", entry.Output).WithContext("source", m))
			}
		}
	}
	if err := joinErrs(errs); err != nil {
		o.recorder.IncRebuild(entry.Output, metrics.ResultFailed)
		o.onError(err)
		return
	}
	o.recorder.IncRebuild(entry.Output, metrics.ResultSuccess)
}
