// Package runconfig holds the execution knobs a run is configured with
// (spec §3 RunConfig/ToolContext) and the cache-token fingerprint builder
// (spec §4.3) those knobs feed into.
package runconfig

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// DedupePreference selects how the diagnostic pipeline resolves a
// confirmed duplicate (spec §4.8).
type DedupePreference string

const (
	DedupeFirst    DedupePreference = "first"
	DedupeSeverity DedupePreference = "severity"
	DedupePrefer   DedupePreference = "prefer"
)

// DedupeConfig configures cross-tool diagnostic deduplication.
type DedupeConfig struct {
	By               DedupePreference `json:"by,omitempty"`
	Prefer           []string         `json:"prefer,omitempty"`
	SameFileOnly     bool             `json:"dedupe_same_file_only,omitempty"`
	LineFuzz         int              `json:"line_fuzz,omitempty"`
}

// FileDiscoveryConfig configures C4 (spec §4.4).
type FileDiscoveryConfig struct {
	Roots         []string `json:"roots,omitempty"`
	Excludes      []string `json:"excludes,omitempty"`
	ExplicitFiles []string `json:"explicit_files,omitempty"`
	LimitTo       []string `json:"limit_to,omitempty"`
}

// RunConfig is the full set of execution knobs consumed by the core
// (spec §3).
type RunConfig struct {
	Strict          bool                      `json:"strict,omitempty"`
	FixOnly         bool                      `json:"fix_only,omitempty"`
	CheckOnly       bool                      `json:"check_only,omitempty"`
	ForceAll        bool                      `json:"force_all,omitempty"`
	RespectConfig   bool                      `json:"respect_config,omitempty"`
	LineLength      int                       `json:"line_length,omitempty"`
	Jobs            int                       `json:"jobs,omitempty"`
	Bail            bool                      `json:"bail,omitempty"`
	CacheEnabled    bool                      `json:"cache_enabled,omitempty"`
	CacheDir        string                    `json:"cache_dir,omitempty"`
	UseLocalLinters bool                      `json:"use_local_linters,omitempty"`
	Only            []string                  `json:"only,omitempty"`
	Languages       []string                  `json:"languages,omitempty"`
	ToolSettings    map[string]map[string]any `json:"tool_settings,omitempty"`
	SeverityRules   []string                  `json:"severity_rules,omitempty"`
	Suppressions    []string                  `json:"suppressions,omitempty"`
	Dedupe          DedupeConfig              `json:"dedupe,omitempty"`
	FileDiscovery   FileDiscoveryConfig       `json:"file_discovery,omitempty"`
}

// Normalize applies the documented defaults: jobs must be at least 1,
// dedupe preference defaults to "first".
func (c RunConfig) Normalize() RunConfig {
	if c.Jobs < 1 {
		c.Jobs = 1
	}
	if c.Dedupe.By == "" {
		c.Dedupe.By = DedupeFirst
	}
	return c
}

// ToolContext is the read-only view passed to command builders and
// parsers for a single invocation (spec §3).
type ToolContext struct {
	Config   RunConfig
	Root     string
	Files    []string
	Settings map[string]any
}

// Token computes the cache project-fingerprint (spec §4.3): a
// `|`-separated concatenation of the scalar run knobs plus sorted
// severity rule strings, with the hex SHA-1 of tool_settings' canonical
// JSON appended when tool_settings is non-empty.
func (c RunConfig) Token() string {
	rules := append([]string(nil), c.SeverityRules...)
	sort.Strings(rules)

	parts := []string{
		strconv.FormatBool(c.Strict),
		strconv.FormatBool(c.FixOnly),
		strconv.FormatBool(c.CheckOnly),
		strconv.FormatBool(c.ForceAll),
		strconv.FormatBool(c.RespectConfig),
		strconv.Itoa(c.LineLength),
	}
	parts = append(parts, rules...)

	token := strings.Join(parts, "|")
	if len(c.ToolSettings) > 0 {
		token += "|" + hashCanonicalJSON(c.ToolSettings)
	}
	return token
}

// hashCanonicalJSON returns the hex SHA-1 of v's canonical (sorted-key)
// JSON encoding. encoding/json already emits map keys in sorted order, so
// a single Marshal is sufficient for canonicalization here.
func hashCanonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// ToolSettings is caller-constructed, JSON-safe data; a marshal
		// failure here would indicate a caller bug, not a runtime
		// condition worth propagating through Token()'s simple signature.
		return ""
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
