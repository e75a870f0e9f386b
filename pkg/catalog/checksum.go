package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// checksumFiles computes the catalog-wide content checksum (spec §4.1): the
// SHA-256 of the catalog's relative file paths sorted lexicographically,
// each path followed by a NUL byte and its raw content. Sorting makes the
// result independent of filesystem traversal order; the NUL separator
// keeps a path/content boundary unambiguous even if a path happened to be
// a prefix of another file's bytes.
func checksumFiles(files map[string][]byte) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write(files[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}
