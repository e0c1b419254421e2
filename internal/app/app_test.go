package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/compiler"
	"github.com/vk/liveui/internal/config"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/differ"
	"github.com/vk/liveui/internal/inmemorybackend"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/testutil"
)

const sample = `
widget "Column" {
  key = "app"
  state "count" { initial = 0 }
  widget "Text" { text = "hello" }
}
`

func newTestApp(t *testing.T, files map[string]string) (*App, *inmemorybackend.Backend, *testutil.SafeBuffer) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	cfg := config.Default()
	cfg.Roots = []string{dir}
	cfg.DebounceMS = 20
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	require.NoError(t, cfg.Validate())

	logs := &testutil.SafeBuffer{}
	b := inmemorybackend.New()
	return New(logs, cfg, b), b, logs
}

func TestRun_LoadsAndStopsOnCancel(t *testing.T) {
	a, b, logs := newTestApp(t, map[string]string{"main.ui": sample})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return b.Len() == 3 }, 2*time.Second, 10*time.Millisecond)
	_, ok := a.Scene().Node(nodeid.ID("root.main.app.Text[0]"))
	assert.True(t, ok)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Contains(t, logs.String(), "Watching for changes.")
	assert.Contains(t, logs.String(), "Stopped.")
}

func TestCheck_CollectsCompileErrors(t *testing.T) {
	a, _, _ := newTestApp(t, map[string]string{
		"main.ui":  sample,
		"other.ui": `widget "Text" {`,
		"skip.txt": "not a source",
	})

	files, err := a.Check(context.Background())

	assert.Len(t, files, 2)
	require.Error(t, err)
	var ce *compiler.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Path, "other.ui")
}

func TestTree_BuildsFromSources(t *testing.T) {
	a, _, _ := newTestApp(t, map[string]string{"main.ui": sample})

	tr, res, err := a.Tree(context.Background())

	require.NoError(t, err)
	assert.Len(t, res.Compiled, 1)
	assert.Equal(t, 3, tr.Len())
}

func TestRouter(t *testing.T) {
	a, _, _ := newTestApp(t, map[string]string{"main.ui": sample})
	h := a.router()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("health", func(t *testing.T) {
		rec := get("/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK\n", rec.Body.String())
	})

	t.Run("empty scene", func(t *testing.T) {
		rec := get("/debug/scene")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{}`, rec.Body.String())
	})

	t.Run("scene after apply", func(t *testing.T) {
		ctx := ctxlog.WithLogger(context.Background(), a.Logger())
		live, _, err := a.Tree(ctx)
		require.NoError(t, err)
		require.NoError(t, a.Scene().Apply(ctx, differ.Diff(nil, live)))

		rec := get("/debug/scene")
		require.Equal(t, http.StatusOK, rec.Code)
		var view nodeView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "root", view.ID)
		require.Len(t, view.Children, 1)
		assert.Equal(t, "root.main.app", view.Children[0].ID)
		assert.Equal(t, "0", view.Children[0].Props["state.count"])
	})

	t.Run("node", func(t *testing.T) {
		rec := get("/debug/node/" + url.PathEscape("root.main.app.Text[0]"))
		require.Equal(t, http.StatusOK, rec.Code)
		var view sceneNodeView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "Text", view.Type)
		assert.Equal(t, "root.main.app", view.Parent)
		assert.Equal(t, `"hello"`, view.Props["text"])

		rec = get("/debug/node/root.main.app")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, []string{"root.main.app.Text[0]"}, view.Children)
	})

	t.Run("node lookup errors", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get("/debug/node/main.app").Code)
		assert.Equal(t, http.StatusBadRequest, get("/debug/node/"+url.PathEscape("root.bad id")).Code)
		assert.Equal(t, http.StatusNotFound, get("/debug/node/root.main.missing").Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := get("/debug/stats")
		require.Equal(t, http.StatusOK, rec.Code)
		var stats map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Contains(t, stats, "engine")
		assert.Contains(t, stats, "compiler")
		assert.Contains(t, stats, "scene")
	})

	t.Run("unknown route", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/nope").Code)
	})
}

func TestNewLogger_Levels(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newLogger("warn", "json", buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	// A buffer is never a terminal, so auto falls back to JSON.
	buf = &testutil.SafeBuffer{}
	newLogger("info", "auto", buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
