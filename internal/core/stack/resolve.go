package stack

import (
	"path/filepath"
	"strings"
)

// MatchKind describes which rule resolved a path to a stack.
type MatchKind string

const (
	MatchNone     MatchKind = ""
	MatchExact    MatchKind = "exact"
	MatchPrefix   MatchKind = "prefix"
	MatchAncestor MatchKind = "ancestor"
)

// Match finds the registered stack id owning path.
// Rules, in order:
//   - exact key equality
//   - longest registered key that is a directory prefix of path
//   - walk the parents of path up to the root, checking exact equality
//
// path must already be normalized (absolute, ~ expanded, symlinks resolved when possible).
func Match(keys []string, path string) (string, MatchKind) {
	if path == "" {
		return "", MatchNone
	}

	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}

	if set[path] {
		return path, MatchExact
	}

	best := ""
	for _, k := range keys {
		if IsWithin(k, path) && len(k) > len(best) {
			best = k
		}
	}
	if best != "" {
		return best, MatchPrefix
	}

	dir := path
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if set[parent] {
			return parent, MatchAncestor
		}
		dir = parent
	}

	return "", MatchNone
}

// IsWithin reports whether path lies strictly inside the directory dir.
func IsWithin(dir, path string) bool {
	if dir == "" || dir == path {
		return false
	}
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	return strings.HasPrefix(path, prefix)
}
