package detector

import (
	"path/filepath"
	"strings"
)

// Filter decides which paths are of interest.
type Filter struct {
	roots      []string
	extensions map[string]struct{}
	ignore     []string
}

// NewFilter builds a filter. Roots should be absolute and cleaned.
func NewFilter(roots, extensions, ignore []string) *Filter {
	f := &Filter{roots: roots, ignore: ignore, extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return f
}

// Match reports whether a file path should be reported.
func (f *Filter) Match(path string) bool {
	if _, ok := f.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return false
	}
	return !f.Ignored(path)
}

// Ignored reports whether any component of path below its root matches an
// ignore pattern. Components of the root itself are never tested.
func (f *Filter) Ignored(path string) bool {
	rel := f.relative(path)
	if rel == "." || rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		for _, pattern := range f.ignore {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

func (f *Filter) relative(path string) string {
	best := ""
	for _, root := range f.roots {
		if (path == root || strings.HasPrefix(path, root+string(filepath.Separator))) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return filepath.Clean(path)
	}
	rel, err := filepath.Rel(best, path)
	if err != nil {
		return filepath.Clean(path)
	}
	return rel
}
