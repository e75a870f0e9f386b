package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

func TestNormalizeDefaultsToolAndSeverity(t *testing.T) {
	d := Normalize(diagnostic.RawDiagnostic{Message: "oops", Severity: "ERROR"}, "ruff", "/root")
	assert.Equal(t, "ruff", d.Tool)
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
}

func TestNormalizeUnknownSeverityBecomesWarning(t *testing.T) {
	d := Normalize(diagnostic.RawDiagnostic{Message: "oops", Severity: "bogus"}, "ruff", "/root")
	assert.Equal(t, diagnostic.SeverityWarning, d.Severity)
}

func TestNormalizeFilePathRelativizesToRoot(t *testing.T) {
	d := Normalize(diagnostic.RawDiagnostic{File: "/root/src/main.py", Message: "x"}, "ruff", "/root")
	assert.Equal(t, "src/main.py", d.File)
}

func TestNormalizeMessageDedupesLeadingCode(t *testing.T) {
	d := Normalize(diagnostic.RawDiagnostic{Code: "E501", Message: "E501: line too long"}, "ruff", "/root")
	assert.Equal(t, "E501: line too long", d.Message)
}

func TestNormalizeMessageEnsuresCodePrefix(t *testing.T) {
	d := Normalize(diagnostic.RawDiagnostic{Code: "E501", Message: "line too long"}, "ruff", "/root")
	assert.Equal(t, "E501: line too long", d.Message)
}

func TestApplySeverityRulesFirstMatchWins(t *testing.T) {
	rules, err := ParseSeverityRules([]string{"ruff:E5.*=notice", "ruff:E501=error"})
	require.NoError(t, err)
	d := diagnostic.Diagnostic{Tool: "ruff", Code: "E501", Severity: diagnostic.SeverityWarning}
	got := ApplySeverityRules(d, rules)
	assert.Equal(t, diagnostic.SeverityNotice, got.Severity)
}

func TestApplySeverityRulesScopedByTool(t *testing.T) {
	rules, err := ParseSeverityRules([]string{"mypy:.*=notice"})
	require.NoError(t, err)
	d := diagnostic.Diagnostic{Tool: "ruff", Code: "E501", Severity: diagnostic.SeverityWarning}
	got := ApplySeverityRules(d, rules)
	assert.Equal(t, diagnostic.SeverityWarning, got.Severity)
}

func TestParseSeverityRulesRejectsMalformed(t *testing.T) {
	_, err := ParseSeverityRules([]string{"not-a-rule"})
	assert.Error(t, err)
}

func TestSuppressDropsMatchingFileOrMessage(t *testing.T) {
	patterns, err := CompileSuppressions([]string{`vendor/`, `deprecated`})
	require.NoError(t, err)
	diags := []diagnostic.Diagnostic{
		{File: "vendor/x.py", Message: "irrelevant"},
		{File: "src/x.py", Message: "this api is deprecated"},
		{File: "src/y.py", Message: "keep me"},
	}
	got := Suppress(diags, patterns)
	require.Len(t, got, 1)
	assert.Equal(t, "src/y.py", got[0].File)
}

func TestPipelineProcessCombinesAllStages(t *testing.T) {
	p, err := New([]string{"ruff:E501=error"}, []string{`noisy`})
	require.NoError(t, err)
	raws := []diagnostic.RawDiagnostic{
		{Code: "E501", Message: "line too long", Severity: "warning"},
		{Code: "E999", Message: "this is noisy output"},
	}
	got := p.Process(raws, "ruff", "/root", nil)
	require.Len(t, got, 1)
	assert.Equal(t, diagnostic.SeverityError, got[0].Severity)
}
