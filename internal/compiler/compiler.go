package compiler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs"

	"github.com/vk/liveui/internal/artifact"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/nodeid"
)

// Parser is the external parse-and-validate collaborator.
type Parser interface {
	ParseAndValidate(path string, src []byte) (*artifact.Declarations, artifact.Diagnostics)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFileSystem overrides the storage service used to read sources.
func WithFileSystem(fs afs.Service) Option {
	return func(c *Compiler) { c.fs = fs }
}

// WithClock overrides the time source used for CompiledAt.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) { c.now = now }
}

type entry struct {
	artifact *artifact.Artifact
}

// Compiler compiles source files and owns their artifact cache.
type Compiler struct {
	parser Parser
	fs     afs.Service
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*entry

	compiles  atomic.Int64
	cacheHits atomic.Int64
	failures  atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Compiles  int64 `json:"compiles"`
	CacheHits int64 `json:"cache_hits"`
	Failures  int64 `json:"failures"`
	Cached    int   `json:"cached"`
}

// New creates a Compiler backed by parser.
func New(parser Parser, opts ...Option) *Compiler {
	c := &Compiler{
		parser: parser,
		fs:     afs.New(),
		now:    time.Now,
		cache:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile returns the artifact for path, reusing the cached one when the
// source has not changed since the last successful compile.
func (c *Compiler) Compile(ctx context.Context, path string) (*artifact.Artifact, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := c.fs.DownloadWithURL(ctx, path)
	if err != nil {
		c.failures.Add(1)
		return nil, &CompileError{Path: path, Message: "read failed: " + err.Error(), Err: err}
	}
	hash, err := artifact.HashSource(src)
	if err != nil {
		c.failures.Add(1)
		return nil, &CompileError{Path: path, Message: "hash failed: " + err.Error(), Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[path]; ok && e.artifact.Hash == hash {
		c.cacheHits.Add(1)
		logger.Debug("Source unchanged, using cached artifact.", "path", path, "hash", hash)
		return e.artifact, nil
	}

	c.compiles.Add(1)
	decls, diags := c.parser.ParseAndValidate(path, src)
	if diags.HasErrors() || decls == nil {
		c.failures.Add(1)
		return nil, newCompileError(path, diags)
	}
	for _, d := range diags {
		logger.Warn("Compiler warning.", "path", path, "line", d.Line, "column", d.Column, "message", d.Message)
	}

	art := &artifact.Artifact{
		Path:         path,
		Module:       ModuleName(path),
		Declarations: *decls,
		Hash:         hash,
		CompiledAt:   c.now(),
	}
	c.cache[path] = &entry{artifact: art}
	logger.Debug("Compiled source.", "path", path, "hash", hash, "widgets", len(art.Widgets), "machines", len(art.Machines), "animations", len(art.Animations))
	return art, nil
}

// Cached returns the last successful artifact for path.
func (c *Compiler) Cached(path string) (*artifact.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[path]
	if !ok {
		return nil, false
	}
	return e.artifact, true
}

// Forget drops the cache entry for a path, e.g. after the file was removed.
func (c *Compiler) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, path)
}

// Clear drops every cache entry.
func (c *Compiler) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*entry)
}

// Stats returns the current counters.
func (c *Compiler) Stats() Stats {
	c.mu.Lock()
	cached := len(c.cache)
	c.mu.Unlock()
	return Stats{
		Compiles:  c.compiles.Load(),
		CacheHits: c.cacheHits.Load(),
		Failures:  c.failures.Load(),
		Cached:    cached,
	}
}

// ModuleName derives the identity segment for a source file from its name,
// dropping every extension ("main.ui" and "main.uihcl" both give "main").
func ModuleName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return nodeid.Sanitize(base)
}
