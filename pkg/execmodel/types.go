// Package execmodel holds the execution-entity value types shared across
// the cache, executor, pipeline, and orchestrator packages (spec §3
// "Execution entities"), mirroring how the teacher centralizes its
// assessment value types in internal/assess/types.go for reuse by every
// category runner.
package execmodel

import "github.com/lintforge/lintforge/pkg/diagnostic"

// ExitCategory is the orchestrator's interpretation of a process exit
// beyond the raw return code (spec §4.7 step 6).
type ExitCategory string

const (
	ExitSuccess     ExitCategory = "success"
	ExitDiagnostic  ExitCategory = "diagnostic"
	ExitToolFailure ExitCategory = "tool_failure"
	ExitUnknown     ExitCategory = "unknown"
)

// PreparedCommand is the fully materialized, ready-to-spawn form of an
// action (spec §3).
type PreparedCommand struct {
	Cmd     []string
	Env     map[string]string
	Version string
	Source  string // "system" | "project"
}

// ActionInvocation is an immutable request to run one action of one tool.
type ActionInvocation struct {
	ToolName string
	Action   string
	Root     string
	Files    []string
	Command  PreparedCommand
	Settings map[string]any
	// Order is assigned at scheduling time; the orchestrator sorts final
	// outcomes by this index so output order is deterministic regardless
	// of completion order under parallel execution (spec §5).
	Order int
}

// ToolOutcome is the result of one action invocation, whether freshly
// executed or served from cache.
type ToolOutcome struct {
	Tool         string                    `json:"tool"`
	Action       string                    `json:"action"`
	ReturnCode   int                       `json:"returncode"`
	Stdout       []string                  `json:"stdout"`
	Stderr       []string                  `json:"stderr"`
	Diagnostics  []diagnostic.Diagnostic   `json:"diagnostics"`
	Cached       bool                      `json:"cached"`
	ExitCategory ExitCategory              `json:"exit_category"`
	Order        int                       `json:"-"`
}

// RunResult is the aggregate produced by one orchestrator run.
type RunResult struct {
	Root         string                           `json:"root"`
	Files        []string                         `json:"files"`
	Outcomes     []ToolOutcome                    `json:"outcomes"`
	ToolVersions map[string]string                `json:"tool_versions"`
	FileMetrics  map[string]diagnostic.FileMetrics `json:"file_metrics"`
	Analysis     map[string]any                   `json:"analysis,omitempty"`
}
