// Package filestate implements the file state probe (C2, spec §4 data
// model): stat a file and produce a canonical-path/mtime/size snapshot
// usable as a cache-invalidation key.
package filestate

import (
	"os"
	"path/filepath"
)

// State is a single file's identity and freshness signature at the
// moment it was probed.
type State struct {
	CanonicalPath string `json:"canonical_path"`
	MtimeNS       int64  `json:"mtime_ns"`
	Size          int64  `json:"size"`
}

// Probe stats path and returns its State. The canonical path is the
// absolute, symlink-resolved form so that two different relative
// spellings of the same file compare equal.
func Probe(path string) (State, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return State{}, err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// A file that vanished between discovery and probing is reported
		// via the stat error below with its best-known canonical form.
		canonical = abs
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return State{}, err
	}
	return State{
		CanonicalPath: filepath.ToSlash(canonical),
		MtimeNS:       info.ModTime().UnixNano(),
		Size:          info.Size(),
	}, nil
}

// ProbeAll probes every path and returns a State per input, in the same
// order. The first stat error aborts and is returned.
func ProbeAll(paths []string) ([]State, error) {
	out := make([]State, 0, len(paths))
	for _, p := range paths {
		s, err := Probe(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Unchanged reports whether current matches stored: same set of canonical
// paths (regardless of order) each with identical (mtime_ns, size).
func Unchanged(stored, current []State) bool {
	if len(stored) != len(current) {
		return false
	}
	byPath := make(map[string]State, len(stored))
	for _, s := range stored {
		byPath[s.CanonicalPath] = s
	}
	for _, c := range current {
		s, ok := byPath[c.CanonicalPath]
		if !ok || s.MtimeNS != c.MtimeNS || s.Size != c.Size {
			return false
		}
	}
	return true
}
