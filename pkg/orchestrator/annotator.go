package orchestrator

import (
	"context"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// Annotator is the external collaborator spec §4.9 step 9 calls out as an
// "annotation pass (external collaborator) over diagnostics" — enrichment
// (owner lookup, historical trend, triage routing, …) that is explicitly
// out of scope for the core itself. A nil Annotator on Orchestrator skips
// the pass entirely.
type Annotator interface {
	Annotate(ctx context.Context, diags []diagnostic.Diagnostic) ([]diagnostic.Diagnostic, error)
}
