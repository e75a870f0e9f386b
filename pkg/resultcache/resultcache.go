// Package resultcache implements the content-addressed result cache (C3,
// spec §4.3): a filesystem-backed, at-most-once reuse store keyed by
// tool/action/command/token, fronted by an in-memory cost-aware tier so a
// single run never re-stats-and-reads the same entry twice.
package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	ristretto "github.com/dgraph-io/ristretto/v2"

	"github.com/lintforge/lintforge/pkg/execmodel"
	"github.com/lintforge/lintforge/pkg/filestate"
)

// Request identifies one cacheable invocation (spec §3 CacheRequest).
type Request struct {
	Tool    string
	Action  string
	Command []string
	Files   []string
	Token   string
}

// Entry is the on-disk JSON shape (spec §6 "Cache entry JSON").
type Entry struct {
	Outcome     execmodel.ToolOutcome `json:"outcome"`
	Files       []filestate.State     `json:"files"`
	FileMetrics map[string]any        `json:"file_metrics,omitempty"`
}

// Key returns the cache entry key: SHA-256 of
// `tool || "::" || action || "::" || cmd_parts joined with NUL || "::" || token`
// (spec §4.3).
func (r Request) Key() string {
	h := sha256.New()
	h.Write([]byte(r.Tool))
	h.Write([]byte("::"))
	h.Write([]byte(r.Action))
	h.Write([]byte("::"))
	h.Write([]byte(strings.Join(r.Command, "\x00")))
	h.Write([]byte("::"))
	h.Write([]byte(r.Token))
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is the C3 implementation: a directory of `<key>.json` files with
// an in-memory tier in front of it.
type Cache struct {
	dir string
	mem *ristretto.Cache[string, *Entry]
}

// New returns a Cache rooted at dir. dir is created lazily on first Store.
func New(dir string) (*Cache, error) {
	mem, err := ristretto.NewCache(&ristretto.Config[string, *Entry]{
		NumCounters: 10_000,
		MaxCost:     1 << 24, // 16MB of entries held in memory per run
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, mem: mem}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Load implements the lookup algorithm of spec §4.3: a miss (nil, false)
// is returned silently for any of "file missing", "unreadable",
// "malformed JSON", "file-state mismatch", or "path-set mismatch" — the
// cache never raises for a miss (CacheUnavailable, spec §7, is silent).
func (c *Cache) Load(req Request) (*Entry, bool) {
	key := req.Key()
	if entry, ok := c.mem.Get(key); ok {
		return c.validate(entry, req)
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	c.mem.Set(key, &entry, int64(len(data)))
	c.mem.Wait()
	return c.validate(&entry, req)
}

func (c *Cache) validate(entry *Entry, req Request) (*Entry, bool) {
	current, err := filestate.ProbeAll(req.Files)
	if err != nil {
		return nil, false
	}
	if !filestate.Unchanged(entry.Files, current) {
		return nil, false
	}
	result := *entry
	result.Outcome.Cached = true
	return &result, true
}

// Store persists entry under req's key via a temp-file-then-rename write
// (spec §9 "cache tearing"): a reader never observes a partially written
// file. Store is best-effort: any error is swallowed, matching the
// CacheUnavailable contract that neither read nor write ever raises.
func (c *Cache) Store(req Request, entry Entry) {
	current, err := filestate.ProbeAll(req.Files)
	if err != nil {
		return // a requested file vanished before capture; skip silently
	}
	entry.Files = current

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}

	key := req.Key()
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		return
	}
	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		os.Remove(tmpPath)
		return
	}
	c.mem.Set(key, &entry, int64(len(data)))
	c.mem.Wait()
}
