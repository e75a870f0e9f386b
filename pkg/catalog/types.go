// Package catalog implements the tool catalog loader (spec §4.1): scanning
// a catalog tree, validating documents against JSON Schema, resolving
// fragment inheritance, binding strategy references, and producing an
// immutable, checksummed CatalogSnapshot.
package catalog

// Phase is the coarse execution bucket a Tool belongs to. The canonical
// ordering, used by the selector, is Format < Lint < Analysis < Security <
// Test < Coverage < Utility.
type Phase string

const (
	PhaseFormat   Phase = "format"
	PhaseLint     Phase = "lint"
	PhaseAnalysis Phase = "analysis"
	PhaseSecurity Phase = "security"
	PhaseTest     Phase = "test"
	PhaseCoverage Phase = "coverage"
	PhaseUtility  Phase = "utility"
)

// PhaseOrder is the canonical phase bucketing order (spec §4.5 step 3).
// Phases not present here sort lexicographically after these, in bucket order.
var PhaseOrder = []Phase{
	PhaseFormat, PhaseLint, PhaseAnalysis, PhaseSecurity, PhaseTest, PhaseCoverage, PhaseUtility,
}

// StrategyKind classifies a Strategy and constrains which reference sites
// may bind to it.
type StrategyKind string

const (
	KindCommand      StrategyKind = "command"
	KindParser       StrategyKind = "parser"
	KindFormatter    StrategyKind = "formatter"
	KindPostProcess  StrategyKind = "postProcessor"
	KindInstaller    StrategyKind = "installer"
)

// StrategyRef is a catalog reference to a named, typed strategy
// implementation plus its document-local configuration.
type StrategyRef struct {
	Strategy string         `json:"strategy" yaml:"strategy"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// ExitCodeSets partitions an action's possible process exit codes into the
// three disjoint sets spec §3 names on ToolAction.
type ExitCodeSets struct {
	Success     []int `json:"success,omitempty" yaml:"success,omitempty"`
	Diagnostic  []int `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	ToolFailure []int `json:"tool_failure,omitempty" yaml:"tool_failure,omitempty"`
}

// Classify reports which of the three sets (if any) hold code.
func (s ExitCodeSets) Classify(code int) (isSuccess, isDiagnostic, isToolFailure bool) {
	return containsInt(s.Success, code), containsInt(s.Diagnostic, code), containsInt(s.ToolFailure, code)
}

func containsInt(set []int, v int) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

// ToolAction is owned by exactly one Tool: a single named invocation
// purpose (lint, fix, ...).
type ToolAction struct {
	Name           string            `json:"name" yaml:"name"`
	Command        StrategyRef       `json:"command" yaml:"command"`
	Parser         *StrategyRef      `json:"parser,omitempty" yaml:"parser,omitempty"`
	IsFix          bool              `json:"is_fix,omitempty" yaml:"is_fix,omitempty"`
	AppendFiles    bool              `json:"append_files,omitempty" yaml:"append_files,omitempty"`
	IgnoreExit     bool              `json:"ignore_exit,omitempty" yaml:"ignore_exit,omitempty"`
	// InternalRunner marks an action that never spawns a subprocess (e.g. a
	// pure in-process check), so the orchestrator skips the result cache
	// for it entirely (spec §4.9 step 6).
	InternalRunner bool              `json:"internal_runner,omitempty" yaml:"internal_runner,omitempty"`
	TimeoutSeconds *int              `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	Env            map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Filters        []string          `json:"filters,omitempty" yaml:"filters,omitempty"`
	ExitCodes      ExitCodeSets      `json:"exit_codes,omitempty" yaml:"exit_codes,omitempty"`
}

// RuntimeKind is the language/ecosystem runtime a Tool's executable belongs to.
type RuntimeKind string

const (
	RuntimePython RuntimeKind = "python"
	RuntimeNPM    RuntimeKind = "npm"
	RuntimeBinary RuntimeKind = "binary"
	RuntimeGo     RuntimeKind = "go"
	RuntimeLua    RuntimeKind = "lua"
	RuntimePerl   RuntimeKind = "perl"
	RuntimeRust   RuntimeKind = "rust"
)

// Runtime describes how a Tool's executable is resolved and installed.
type Runtime struct {
	Type               RuntimeKind `json:"type" yaml:"type"`
	VersionCommand     []string    `json:"version_command,omitempty" yaml:"version_command,omitempty"`
	VersionScheme      string      `json:"version_scheme,omitempty" yaml:"version_scheme,omitempty"`
	MinimumVersion     string      `json:"minimum_version,omitempty" yaml:"minimum_version,omitempty"`
	RecommendedVersion string      `json:"recommended_version,omitempty" yaml:"recommended_version,omitempty"`
	DisallowedVersions []string    `json:"disallowed_versions,omitempty" yaml:"disallowed_versions,omitempty"`
	Install            *StrategyRef `json:"install,omitempty" yaml:"install,omitempty"`
}

// DiagnosticsBundle holds the tool-level suppression patterns (spec §4.8 Filter).
type DiagnosticsBundle struct {
	Suppressions []string `json:"suppressions,omitempty" yaml:"suppressions,omitempty"`
}

// DocumentationBundle is rendered by pkg/catalogdocs into per-tool Markdown.
type DocumentationBundle struct {
	Summary   string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Examples  []string          `json:"examples,omitempty" yaml:"examples,omitempty"`
	Resources map[string]string `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// Tool is a named external program integrated via the catalog.
type Tool struct {
	SchemaVersion  string                `json:"schemaVersion" yaml:"schemaVersion"`
	Name           string                `json:"name" yaml:"name"`
	Description    string                `json:"description" yaml:"description"`
	Aliases        []string              `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Phase          Phase                 `json:"phase" yaml:"phase"`
	Before         []string              `json:"before,omitempty" yaml:"before,omitempty"`
	After          []string              `json:"after,omitempty" yaml:"after,omitempty"`
	Languages      []string              `json:"languages,omitempty" yaml:"languages,omitempty"`
	FileExtensions []string              `json:"file_extensions,omitempty" yaml:"file_extensions,omitempty"`
	ConfigFiles    []string              `json:"config_files,omitempty" yaml:"config_files,omitempty"`
	DefaultEnabled bool                  `json:"default_enabled,omitempty" yaml:"default_enabled,omitempty"`
	AutoInstall    bool                  `json:"auto_install,omitempty" yaml:"auto_install,omitempty"`
	Runtime        *Runtime              `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Actions        []ToolAction          `json:"actions" yaml:"actions"`
	Options        map[string]any        `json:"options,omitempty" yaml:"options,omitempty"`
	Diagnostics    DiagnosticsBundle     `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Documentation  *DocumentationBundle  `json:"documentation,omitempty" yaml:"documentation,omitempty"`

	// Extends is consumed during fragment resolution and not present on the
	// materialized Tool held by a CatalogSnapshot.
	Extends []string `json:"extends,omitempty" yaml:"extends,omitempty"`

	// sourceFile records provenance for error messages; not serialized.
	sourceFile string
}

// SourceFile returns the catalog-relative path the tool document was loaded
// from, for error reporting.
func (t Tool) SourceFile() string { return t.sourceFile }

// StrategyField describes one entry in a Strategy's declared config schema.
type StrategyField struct {
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Strategy is a named, typed implementation slot referenced by catalog
// entries (command/parser/installer/...).
type Strategy struct {
	SchemaVersion  string                   `json:"schemaVersion" yaml:"schemaVersion"`
	ID             string                   `json:"id" yaml:"id"`
	Type           StrategyKind             `json:"type" yaml:"type"`
	Implementation string                   `json:"implementation" yaml:"implementation"`
	ConfigSchema   map[string]StrategyField `json:"configSchema,omitempty" yaml:"configSchema,omitempty"`

	sourceFile string
}

func (s Strategy) SourceFile() string { return s.sourceFile }

// Fragment is a partial JSON object reusable via a Tool's `extends` list.
type Fragment struct {
	Name       string
	Body       map[string]any
	sourceFile string
}

// Snapshot is the immutable, validated result of loading a catalog tree: a
// fixed set of tools and strategies, indexed for O(1) lookup, plus the
// content checksum spec §4.1 requires callers be able to use as a cache
// fingerprint input.
type Snapshot struct {
	Checksum   string
	toolsByName map[string]Tool
	stratByID   map[string]Strategy
	order       []string // tool names in scan order, for deterministic iteration
}

// NewSnapshot builds a Snapshot from fully resolved tools and strategies.
// Callers (the loader) are responsible for having already run validation,
// extends-resolution, strategy binding, and the uniqueness checks in
// checkIntegrity — on a duplicate name/id this keeps the last entry seen
// rather than re-detecting the conflict, since Load is the only production
// caller and always rejects duplicates before reaching here.
func NewSnapshot(checksum string, tools []Tool, strategies []Strategy) *Snapshot {
	s := &Snapshot{
		Checksum:    checksum,
		toolsByName: make(map[string]Tool, len(tools)),
		stratByID:   make(map[string]Strategy, len(strategies)),
		order:       make([]string, 0, len(tools)),
	}
	for _, t := range tools {
		if _, exists := s.toolsByName[t.Name]; !exists {
			s.order = append(s.order, t.Name)
		}
		s.toolsByName[t.Name] = t
	}
	for _, st := range strategies {
		s.stratByID[st.ID] = st
	}
	return s
}

// Tool returns the named tool and whether it exists.
func (s *Snapshot) Tool(name string) (Tool, bool) {
	t, ok := s.toolsByName[name]
	return t, ok
}

// Tools returns every tool in scan order.
func (s *Snapshot) Tools() []Tool {
	out := make([]Tool, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.toolsByName[n])
	}
	return out
}

// Strategy returns the named strategy and whether it exists.
func (s *Snapshot) Strategy(id string) (Strategy, bool) {
	st, ok := s.stratByID[id]
	return st, ok
}

// Len reports how many tools the snapshot holds.
func (s *Snapshot) Len() int { return len(s.order) }
