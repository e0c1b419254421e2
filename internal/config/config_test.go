package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{".ui", ".uihcl"}, cfg.Extensions)
	assert.Contains(t, cfg.Ignore, "target")
	assert.Contains(t, cfg.Ignore, ".git")
	assert.Contains(t, cfg.Ignore, "node_modules")
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 100, cfg.BusCapacity)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "liveui.yaml", `
roots: [ui, screens]
debounce_ms: 120
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ui", "screens"}, cfg.Roots)
	assert.Equal(t, 120, cfg.DebounceMS)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{".ui", ".uihcl"}, cfg.Extensions, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoad_TOML(t *testing.T) {
	path := write(t, "liveui.toml", `
roots = ["app"]
ignore = ["gen"]
healthcheck_port = 8081
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"app"}, cfg.Roots)
	assert.Equal(t, []string{"gen"}, cfg.Ignore)
	assert.Equal(t, 8081, cfg.HealthcheckPort)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(write(t, "liveui.json", `{}`))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(write(t, "liveui.yaml", "roots: [a]\nbogus: 1\n"))
	assert.ErrorContains(t, err, "bogus")

	_, err = Load(write(t, "liveui.toml", "bogus = 1\n"))
	assert.ErrorContains(t, err, "unknown keys")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(write(t, "liveui.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := &Config{LogLevel: "loud", LogFormat: "xml", HealthcheckPort: -1}

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"root directory", "extension", "debounce_ms", "bus_capacity", "log_level", "log_format", "healthcheck_port"} {
		assert.ErrorContains(t, err, want)
	}
}
