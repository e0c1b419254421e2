package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/compiler"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/detector"
	"github.com/vk/liveui/internal/differ"
	"github.com/vk/liveui/internal/edit"
	"github.com/vk/liveui/internal/restorer"
	"github.com/vk/liveui/internal/snapshot"
	"github.com/vk/liveui/internal/tree"
)

// Compiler is the subset of *compiler.Compiler the engine uses.
type Compiler interface {
	Compile(ctx context.Context, path string) (*artifact.Artifact, error)
	Forget(path string)
}

var _ Compiler = (*compiler.Compiler)(nil)

// Options configures an Engine.
type Options struct {
	Compiler Compiler
	Bus      *bus.Bus
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Result describes one reload cycle.
type Result struct {
	Compiled []string
	Failed   []string
	Removed  []string
	Edits    []edit.Edit
	Report   snapshot.Report
	Duration time.Duration
}

// Changed reports whether the cycle produced a new tree.
func (r Result) Changed() bool {
	return len(r.Edits) > 0
}

// Engine owns the artifacts and the live tree.
type Engine struct {
	compiler Compiler
	bus      *bus.Bus
	now      func() time.Time

	mu        sync.Mutex
	artifacts map[string]*artifact.Artifact
	// pending is the artifact set of the last cycle whose build failed. The
	// next cycle starts from it so compiled files are not lost while the
	// conflict is fixed in another file.
	pending map[string]*artifact.Artifact
	live    *tree.Tree

	cycles   atomic.Int64
	failures atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Cycles        int64 `json:"cycles"`
	CompileErrors int64 `json:"compile_errors"`
	Artifacts     int   `json:"artifacts"`
	Nodes         int   `json:"nodes"`
}

// New creates an engine with an empty live tree.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		compiler:  opts.Compiler,
		bus:       opts.Bus,
		now:       opts.Clock,
		artifacts: make(map[string]*artifact.Artifact),
	}
}

// Load runs the first cycle over the initial set of source files.
func (e *Engine) Load(ctx context.Context, paths []string) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	if len(paths) == 0 {
		logger.Warn("No source files found.")
	}
	logger.Info("Loading source files.", "count", len(paths))
	changes := make([]detector.Change, len(paths))
	for i, p := range paths {
		changes[i] = detector.Change{Path: p, Op: detector.OpCreate}
	}
	return e.Reload(ctx, changes)
}

// Reload runs one cycle for a batch of changes. Compile errors are
// published and reported in the result, not returned. An error is returned
// only when the new artifacts cannot form a valid tree; the live tree is
// then left as it was and the rejected artifacts are retried by the next
// cycle.
func (e *Engine) Reload(ctx context.Context, changes []detector.Change) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	start := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	files := make([]string, len(changes))
	for i, c := range changes {
		files[i] = c.Path
	}
	e.bus.Publish(bus.Rebuild{Files: files})
	e.cycles.Add(1)

	var res Result
	base := e.artifacts
	if e.pending != nil {
		base = e.pending
	}
	candidate := make(map[string]*artifact.Artifact, len(base))
	for k, v := range base {
		candidate[k] = v
	}
	changed := e.pending != nil
	for _, c := range changes {
		if c.Op == detector.OpRemove {
			removed := e.forget(candidate, c.Path)
			res.Removed = append(res.Removed, removed...)
			changed = changed || len(removed) > 0
			continue
		}
		art, err := e.compiler.Compile(ctx, c.Path)
		if err != nil {
			e.failures.Add(1)
			res.Failed = append(res.Failed, c.Path)
			logger.Warn("Compile failed, keeping previous artifact.", "path", c.Path, "error", err)
			e.bus.Publish(bus.Error{Message: err.Error(), Path: c.Path})
			continue
		}
		res.Compiled = append(res.Compiled, c.Path)
		if candidate[c.Path] != art {
			candidate[c.Path] = art
			changed = true
		}
	}
	if !changed && e.live != nil {
		logger.Debug("Nothing changed.", "files", len(files))
		res.Duration = e.now().Sub(start)
		return res, nil
	}

	next, err := tree.Build(sortedArtifacts(candidate))
	if err != nil {
		e.pending = candidate
		logger.Error("New declarations do not form a valid tree, keeping current UI.", "error", err)
		e.bus.Publish(bus.Error{Message: err.Error()})
		return res, fmt.Errorf("build tree: %w", err)
	}
	e.artifacts = candidate
	e.pending = nil

	var snap *snapshot.Snapshot
	var info snapshot.Info
	if e.live != nil {
		snap, err = snapshot.Capture(e.live, e.now())
		if err != nil {
			logger.Error("Some runtime state could not be captured and will reset.", "error", err)
			e.bus.Publish(bus.Error{Message: err.Error()})
		}
		info = snap.Info()
		e.bus.Publish(bus.SaveState{Snapshot: info})
	}
	restored, report, err := restorer.Apply(ctx, next, snap)
	if err != nil {
		return res, fmt.Errorf("restore state: %w", err)
	}
	res.Report = report
	if snap != nil {
		e.bus.Publish(bus.RestoreState{Snapshot: info, Report: report})
	}

	res.Edits = differ.Diff(e.live, restored)
	e.live = restored
	if len(res.Edits) > 0 {
		e.bus.Publish(bus.Update{Edits: res.Edits, Tree: restored.Clone()})
	}
	res.Duration = e.now().Sub(start)

	counts := edit.Count(res.Edits)
	logger.Info("🔁 Reload cycle finished.",
		"files", len(files),
		"failed", len(res.Failed),
		"edits", len(res.Edits),
		"added", counts[edit.KindAdded],
		"updated", counts[edit.KindUpdated],
		"removed", counts[edit.KindRemoved],
		"reordered", counts[edit.KindReordered],
		"restored", report.Restored,
		"dropped", report.Dropped,
		"duration", res.Duration,
	)
	return res, nil
}

// forget drops the artifact at path from set, or every artifact below path
// when it names a removed directory.
func (e *Engine) forget(set map[string]*artifact.Artifact, path string) []string {
	var removed []string
	prefix := path + string(filepath.Separator)
	for p := range set {
		if p == path || strings.HasPrefix(p, prefix) {
			removed = append(removed, p)
		}
	}
	sort.Strings(removed)
	for _, p := range removed {
		delete(set, p)
		e.compiler.Forget(p)
	}
	return removed
}

func sortedArtifacts(set map[string]*artifact.Artifact) []*artifact.Artifact {
	out := make([]*artifact.Artifact, 0, len(set))
	for _, a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Run reloads for every batch until batches is closed or ctx is done.
// Cycle errors are logged and never stop the loop.
func (e *Engine) Run(ctx context.Context, batches <-chan detector.Batch) error {
	logger := ctxlog.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-batches:
			if !ok {
				return nil
			}
			if _, err := e.Reload(ctx, b.Changes); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Reload cycle failed.", "error", err)
			}
		}
	}
}

// Live returns a copy of the live tree, or nil before the first load.
func (e *Engine) Live() *tree.Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live.Clone()
}

// Artifacts returns the current artifacts ordered by path.
func (e *Engine) Artifacts() []*artifact.Artifact {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedArtifacts(e.artifacts)
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Cycles:        e.cycles.Load(),
		CompileErrors: e.failures.Load(),
		Artifacts:     len(e.artifacts),
		Nodes:         e.live.Len(),
	}
}
