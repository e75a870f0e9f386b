package runconfig

import "testing"

func TestTokenIsOrderIndependentOnSeverityRules(t *testing.T) {
	a := RunConfig{Strict: true, SeverityRules: []string{"ruff:E5.*=error", "eslint:.*=warning"}}
	b := RunConfig{Strict: true, SeverityRules: []string{"eslint:.*=warning", "ruff:E5.*=error"}}
	if a.Token() != b.Token() {
		t.Fatalf("token must not depend on severity_rules order: %q vs %q", a.Token(), b.Token())
	}
}

func TestTokenChangesWithScalarKnobs(t *testing.T) {
	a := RunConfig{Strict: true}
	b := RunConfig{Strict: false}
	if a.Token() == b.Token() {
		t.Fatal("token must change when strict changes")
	}
}

func TestTokenOmitsToolSettingsHashWhenEmpty(t *testing.T) {
	c := RunConfig{}
	if c.Token() == "" {
		t.Fatal("token should still include the scalar prefix even with no tool settings")
	}
	withSettings := RunConfig{ToolSettings: map[string]map[string]any{"ruff": {"line-length": 100}}}
	if c.Token() == withSettings.Token() {
		t.Fatal("token must change when tool_settings becomes non-empty")
	}
}

func TestTokenDeterministicForEqualToolSettings(t *testing.T) {
	a := RunConfig{ToolSettings: map[string]map[string]any{"ruff": {"a": 1, "b": 2}}}
	b := RunConfig{ToolSettings: map[string]map[string]any{"ruff": {"b": 2, "a": 1}}}
	if a.Token() != b.Token() {
		t.Fatal("token must be stable regardless of Go map iteration/insertion order")
	}
}

func TestNormalizeClampsJobs(t *testing.T) {
	c := RunConfig{Jobs: 0}.Normalize()
	if c.Jobs != 1 {
		t.Fatalf("expected jobs normalized to 1, got %d", c.Jobs)
	}
}
