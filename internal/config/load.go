package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Loader decodes one file format into a Config that already holds defaults.
type Loader interface {
	Decode(data []byte, into *Config) error
}

type yamlLoader struct{}

func (yamlLoader) Decode(data []byte, into *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type tomlLoader struct{}

func (tomlLoader) Decode(data []byte, into *Config) error {
	md, err := toml.Decode(string(data), into)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys: %v", undecoded)
	}
	return nil
}

// LoaderFor picks a Loader by file extension.
func LoaderFor(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlLoader{}, nil
	case ".toml":
		return tomlLoader{}, nil
	}
	return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
}

// DefaultFiles are tried, in order, when no config path is given.
var DefaultFiles = []string{"liveui.yaml", "liveui.yml", "liveui.toml"}

// Load reads the config file at path on top of the defaults. An empty path
// tries DefaultFiles in the working directory and falls back to defaults
// when none exists. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range DefaultFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	loader, err := LoaderFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, err
	}
	if err := loader.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}
