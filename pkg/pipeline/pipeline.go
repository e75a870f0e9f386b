// Package pipeline implements the diagnostic pipeline (C9, spec §4.8):
// normalize raw tool output into Diagnostics, apply severity-rule
// overrides, filter suppressed findings, and (in dedupe.go) collapse
// cross-tool duplicates.
package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// SeverityRule is one parsed "tool:pattern=severity" override (spec
// §4.8 Normalize: "Apply severity rules").
type SeverityRule struct {
	Tool     string
	Pattern  *regexp.Regexp
	Severity diagnostic.Severity
}

// ParseSeverityRules compiles the "tool:pattern=severity" strings
// configured for a run. An empty tool segment matches every tool.
func ParseSeverityRules(rules []string) ([]SeverityRule, error) {
	out := make([]SeverityRule, 0, len(rules))
	for _, raw := range rules {
		eq := strings.LastIndex(raw, "=")
		if eq < 0 {
			return nil, fmt.Errorf("invalid severity rule %q: missing '='", raw)
		}
		left, sevStr := raw[:eq], raw[eq+1:]
		colon := strings.Index(left, ":")
		if colon < 0 {
			return nil, fmt.Errorf("invalid severity rule %q: missing ':'", raw)
		}
		tool, patternStr := left[:colon], left[colon+1:]
		pattern, err := regexp.Compile(patternStr)
		if err != nil {
			return nil, fmt.Errorf("invalid severity rule %q: %w", raw, err)
		}
		out = append(out, SeverityRule{Tool: tool, Pattern: pattern, Severity: diagnostic.ParseSeverity(sevStr)})
	}
	return out, nil
}

// CompileSuppressions compiles a list of suppression regex strings, used
// for both tool-level (catalog DiagnosticsBundle.Suppressions) and
// config-level (spec §3 suppression list) filtering.
func CompileSuppressions(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid suppression pattern %q: %w", raw, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Normalize converts a RawDiagnostic into a Diagnostic (spec §4.8
// Normalize): default tool, map severity, resolve the file path to a
// project-root-relative POSIX string, and tidy the message's leading
// code prefix.
func Normalize(raw diagnostic.RawDiagnostic, defaultTool, root string) diagnostic.Diagnostic {
	tool := raw.Tool
	if tool == "" {
		tool = defaultTool
	}
	d := diagnostic.Diagnostic{
		File:     normalizeFilePath(root, raw.File),
		Line:     raw.Line,
		Column:   raw.Column,
		Severity: diagnostic.ParseSeverity(raw.Severity),
		Tool:     tool,
		Code:     raw.Code,
		Group:    raw.Group,
		Function: raw.Function,
		Hints:    raw.Hints,
		Tags:     raw.Tags,
		Meta:     raw.Meta,
	}
	d.Message = normalizeMessage(raw.Message, raw.Code)
	return d
}

func normalizeFilePath(root, file string) string {
	if file == "" || root == "" {
		return file
	}
	abs := file
	if !filepath.IsAbs(file) {
		abs = filepath.Join(root, file)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}

// codePrefixSeparators enumerates the leading "<code><sep>" shapes a tool
// commonly bakes into its own message, duplicating the Code field.
var codePrefixSeparators = []string{": ", " - ", " "}

func normalizeMessage(message, code string) string {
	msg := strings.TrimSpace(message)
	if code == "" {
		return msg
	}

	switch {
	case strings.HasPrefix(msg, "["+code+"]"):
		msg = strings.TrimSpace(strings.TrimPrefix(msg, "["+code+"]"))
	case strings.HasPrefix(msg, "("+code+")"):
		msg = strings.TrimSpace(strings.TrimPrefix(msg, "("+code+")"))
	default:
		for _, sep := range codePrefixSeparators {
			prefix := code + sep
			if strings.HasPrefix(msg, prefix) {
				msg = strings.TrimSpace(strings.TrimPrefix(msg, prefix))
				break
			}
		}
	}

	if !strings.HasPrefix(msg, code) {
		msg = code + ": " + msg
	}
	return msg
}

// ApplySeverityRules returns d with its severity replaced by the first
// rule whose tool matches (or is unset) and whose pattern matches the
// code, then the message.
func ApplySeverityRules(d diagnostic.Diagnostic, rules []SeverityRule) diagnostic.Diagnostic {
	for _, rule := range rules {
		if rule.Tool != "" && rule.Tool != d.Tool {
			continue
		}
		if d.Code != "" && rule.Pattern.MatchString(d.Code) {
			d.Severity = rule.Severity
			return d
		}
		if rule.Pattern.MatchString(d.Message) {
			d.Severity = rule.Severity
			return d
		}
	}
	return d
}

// Suppress drops diagnostics whose file or message matches any pattern
// (spec §4.8 Filter).
func Suppress(diags []diagnostic.Diagnostic, patterns []*regexp.Regexp) []diagnostic.Diagnostic {
	if len(patterns) == 0 {
		return diags
	}
	out := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if matchesAny(d, patterns) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesAny(d diagnostic.Diagnostic, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(d.File) || p.MatchString(d.Message) {
			return true
		}
	}
	return false
}

// Pipeline bundles the per-run-compiled severity rules and suppression
// patterns so the executor does not recompile regexes per action (spec
// §9: precompile once per run).
type Pipeline struct {
	SeverityRules []SeverityRule
	Suppressions  []*regexp.Regexp
}

// New compiles a Pipeline from the run's configured severity rules and
// suppression patterns.
func New(severityRules, suppressions []string) (*Pipeline, error) {
	rules, err := ParseSeverityRules(severityRules)
	if err != nil {
		return nil, err
	}
	patterns, err := CompileSuppressions(suppressions)
	if err != nil {
		return nil, err
	}
	return &Pipeline{SeverityRules: rules, Suppressions: patterns}, nil
}

// Process normalizes, applies severity rules, and filters one action's
// raw diagnostics (spec §4.7 step 5 / §4.8 Normalize+Filter). Cross-tool
// Dedupe (§4.8) runs once, separately, over the full run's diagnostics.
func (p *Pipeline) Process(raws []diagnostic.RawDiagnostic, defaultTool, root string, toolSuppressions []*regexp.Regexp) []diagnostic.Diagnostic {
	out := make([]diagnostic.Diagnostic, 0, len(raws))
	for _, raw := range raws {
		d := Normalize(raw, defaultTool, root)
		d = ApplySeverityRules(d, p.SeverityRules)
		out = append(out, d)
	}
	out = Suppress(out, toolSuppressions)
	out = Suppress(out, p.Suppressions)
	return out
}
