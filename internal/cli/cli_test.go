package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/testutil"
)

const sample = `
widget "Column" {
  key = "app"
  state "count" { initial = 0 }
  widget "Text" { text = "hello" }
}
`

func execute(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetErr(&logs)
	cmd.SetContext(context.Background())
	err = Execute(cmd, args)
	return out.String(), err
}

func TestCheck_ReportsSuccess(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"main.ui": sample, "notes.txt": "ignored"})

	out, err := execute(t, "check", "--root", dir)

	require.NoError(t, err)
	assert.Equal(t, "ok: 1 file(s)\n", out)
}

func TestCheck_ReportsCompileErrors(t *testing.T) {
	dir := t.TempDir()
	paths := testutil.WriteFiles(t, dir, map[string]string{
		"good.ui": sample,
		"bad.ui":  `widget "Text" {`,
	})

	out, err := execute(t, "check", "--root", dir)

	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok, "expected *ExitError, got %T", err)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "1 of 2 file(s) failed to compile", exitErr.Message)
	assert.True(t, strings.HasPrefix(out, paths[0]+":"), "unexpected output %q", out)
}

func TestTree_PrintsWidgets(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"main.ui": sample})

	out, err := execute(t, "tree", "--root", dir)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "root (Root)", lines[0])
	assert.Equal(t, "  root.main.app (Column) state.count=0", lines[1])
	assert.Equal(t, `    root.main.app.Text[0] (Text) text="hello"`, lines[2])
}

func TestFlags_InvalidValuesAreUsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "log level", args: []string{"check", "--log-level", "loud"}},
		{name: "log format", args: []string{"check", "--log-format", "xml"}},
		{name: "debounce", args: []string{"check", "--debounce", "-5"}},
		{name: "unknown flag", args: []string{"check", "--nope"}},
		{name: "missing config", args: []string{"check", "--config", "does-not-exist.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			exitErr, ok := err.(*ExitError)
			require.True(t, ok, "expected *ExitError, got %T", err)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
