// Package testutil provides shared helpers for tests that drive the whole
// reload pipeline.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/compiler"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/detector"
	"github.com/vk/liveui/internal/differ"
	"github.com/vk/liveui/internal/engine"
	"github.com/vk/liveui/internal/hcl"
	"github.com/vk/liveui/internal/inmemorybackend"
	"github.com/vk/liveui/internal/scene"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by slash-separated relative name, below
// dir and returns their absolute paths sorted.
func WriteFiles(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Harness wires a compiler, bus, engine and scene over a temporary source
// directory. The scene is fed through a running applier, exactly as in the
// application.
type Harness struct {
	Dir      string
	Ctx      context.Context
	Logs     *SafeBuffer
	Compiler *compiler.Compiler
	Bus      *bus.Bus
	Engine   *engine.Engine
	Backend  *inmemorybackend.Backend
	Scene    *scene.Adapter
	// Messages records every message published on the bus.
	Messages *Recorder
}

// NewHarness writes files into a fresh temporary directory and starts the
// scene applier. Everything is torn down with the test.
func NewHarness(t *testing.T, files map[string]string) *Harness {
	t.Helper()

	logs := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))

	h := &Harness{
		Dir:      t.TempDir(),
		Ctx:      ctx,
		Logs:     logs,
		Compiler: compiler.New(hcl.NewParser()),
		Bus:      bus.New(bus.DefaultCapacity),
		Backend:  inmemorybackend.New(),
	}
	h.Engine = engine.New(engine.Options{Compiler: h.Compiler, Bus: h.Bus})
	h.Scene = scene.New(h.Backend)
	h.Messages = newRecorder(h.Bus)
	WriteFiles(t, h.Dir, files)

	applier := scene.NewApplier(h.Scene, h.Bus)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = applier.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		if os.Getenv("LIVEUI_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return h
}

// Path returns the absolute path of a source file in the harness directory.
func (h *Harness) Path(name string) string {
	return filepath.Join(h.Dir, filepath.FromSlash(name))
}

// Write creates or replaces one source file and returns its path.
func (h *Harness) Write(t *testing.T, name, content string) string {
	t.Helper()
	return WriteFiles(t, h.Dir, map[string]string{name: content})[0]
}

// Load discovers every source file in the directory and runs the first
// cycle.
func (h *Harness) Load(t *testing.T) engine.Result {
	t.Helper()
	filter := detector.NewFilter([]string{h.Dir}, detector.DefaultExtensions, detector.DefaultIgnore)
	var paths []string
	err := filepath.WalkDir(h.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filter.Match(path) {
			paths = append(paths, path)
		}
		return nil
	})
	require.NoError(t, err)
	res, err := h.Engine.Load(h.Ctx, paths)
	require.NoError(t, err)
	return res
}

// Modify reruns a cycle as if the named files had been written.
func (h *Harness) Modify(t *testing.T, names ...string) engine.Result {
	t.Helper()
	changes := make([]detector.Change, len(names))
	for i, n := range names {
		changes[i] = detector.Change{Path: h.Path(n), Op: detector.OpWrite}
	}
	res, err := h.Engine.Reload(h.Ctx, changes)
	require.NoError(t, err)
	return res
}

// WaitForScene blocks until the scene mirrors the engine's live tree.
func (h *Harness) WaitForScene(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		got, err := h.Scene.Tree()
		if err != nil {
			return false
		}
		return len(differ.Diff(got, h.Engine.Live())) == 0
	}, 2*time.Second, 5*time.Millisecond, "scene never caught up with the live tree")
	require.NoError(t, h.Scene.ValidateHierarchy())
}

// Recorder collects bus messages in the background.
type Recorder struct {
	mu   sync.Mutex
	msgs []bus.Message
	sub  *bus.Subscription
}

func newRecorder(b *bus.Bus) *Recorder {
	return &Recorder{sub: b.Subscribe()}
}

// Drain reads every message published so far and returns all messages
// recorded since the harness started.
func (r *Recorder) Drain() []bus.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.sub.Pending() > 0 {
		env, err := r.sub.Next(context.Background())
		if err != nil {
			break
		}
		r.msgs = append(r.msgs, env.Msg)
	}
	return append([]bus.Message(nil), r.msgs...)
}

// Types lists the type names of every recorded message.
func (r *Recorder) Types() []string {
	msgs := r.Drain()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type()
	}
	return out
}
