package pipeline

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// PolicyEngine is an optional Rego policy layer on top of the severity-rule
// DSL, for checks too structured to express as "tool:pattern=severity"
// strings (e.g. "deny if more than N warnings share a tag in one file").
// It reports denial messages only; it does not change any diagnostic's
// severity. It is opt-in — a run with no policy configured skips it.
type PolicyEngine struct {
	regoCode string
	query    string
}

// NewPolicyEngine returns a PolicyEngine around a Rego module expected to
// define a `deny` rule under package `lintforge.diagnostics`. The module is
// compiled on each Evaluate call, not here.
func NewPolicyEngine(regoModule string) *PolicyEngine {
	return &PolicyEngine{regoCode: regoModule, query: "data.lintforge.diagnostics.deny"}
}

// Evaluate runs the policy against the run's diagnostics and returns the
// denial messages produced, if any. A PolicyEngine with no module loaded
// is a no-op.
func (e *PolicyEngine) Evaluate(ctx context.Context, diags []diagnostic.Diagnostic) ([]string, error) {
	if e == nil || e.regoCode == "" {
		return nil, nil
	}

	input := map[string]any{"diagnostics": diags}
	rs, err := rego.New(
		rego.Query(e.query),
		rego.Input(input),
		rego.Module("policy.rego", e.regoCode),
	).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	var messages []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, v := range values {
				if msg, ok := v.(string); ok {
					messages = append(messages, msg)
				}
			}
		}
	}
	return messages, nil
}
