package detector

import (
	"time"
)

// Default option values.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultMaxBatch = 1000
)

// DefaultExtensions are the declarative UI source extensions.
var DefaultExtensions = []string{".ui", ".uihcl"}

// DefaultIgnore lists build-output, dependency and tooling directories.
var DefaultIgnore = []string{
	"target", ".git", ".hg", ".svn", "node_modules", "vendor", "build", "dist", ".vscode", ".idea",
}

// Options tunes the detector.
type Options struct {
	// Roots are the directories to watch recursively. Required.
	Roots []string
	// Extensions a file must have to be reported. Default: DefaultExtensions.
	Extensions []string
	// Ignore holds glob patterns matched against every path component
	// below a root. Default: DefaultIgnore.
	Ignore []string
	// Debounce is the quiet period that settles a batch. Default: 300ms.
	Debounce time.Duration
	// MaxBatch flushes immediately once this many distinct paths are
	// pending. Default: 1000.
	MaxBatch int
	// OnError is called for transient watch errors. They never stop the
	// detector.
	OnError func(error)
}

func (o *Options) defaults() {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.Ignore == nil {
		o.Ignore = DefaultIgnore
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.MaxBatch <= 0 {
		o.MaxBatch = DefaultMaxBatch
	}
}
