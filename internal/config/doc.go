// Package config defines the configuration surface of the live-update
// engine and loads it from YAML or TOML files.
//
// The Config struct is format-agnostic; a Loader per file format decodes
// into it. Values missing from a file keep their defaults, and command-line
// flags are applied on top by the CLI.
package config
