package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/diagnostic"
	"github.com/lintforge/lintforge/pkg/discovery"
	"github.com/lintforge/lintforge/pkg/execmodel"
	"github.com/lintforge/lintforge/pkg/prepare"
	"github.com/lintforge/lintforge/pkg/resultcache"
	"github.com/lintforge/lintforge/pkg/runconfig"
)

type argvBuilder struct {
	argv []string
}

func (b argvBuilder) Build(ctx context.Context, actx catalog.ActionContext) ([]string, error) {
	return b.argv, nil
}

type globStrategy struct{}

func (globStrategy) Discover(cfg runconfig.FileDiscoveryConfig, root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, filepath.Join(root, e.Name()))
		}
	}
	return out, nil
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("x = 1\n"), 0o644))
	return dir
}

func newTestOrchestrator(t *testing.T, argv []string, tools ...catalog.Tool) (*Orchestrator, string) {
	t.Helper()
	root := setupProject(t)

	registry := catalog.NewRegistry()
	registry.RegisterCommandBuilder("argv", argvBuilder{argv: argv})

	snapshot := catalog.NewSnapshot("test-checksum", tools, nil)
	disc := discovery.NewService(globStrategy{})
	preparer := prepare.New(registry)

	o := New(snapshot, registry, disc, preparer, nil)
	return o, root
}

func lintTool(name string, action catalog.ToolAction) catalog.Tool {
	return catalog.Tool{
		Name:           name,
		Phase:          catalog.PhaseLint,
		DefaultEnabled: true,
		Actions:        []catalog.ToolAction{action},
	}
}

func TestRunExecutesSelectedToolAndRecordsOutcome(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"true"}, lintTool("echoer", catalog.ToolAction{
		Name: "check", Command: catalog.StrategyRef{Strategy: "argv"},
	}))

	result, err := o.Run(context.Background(), runconfig.RunConfig{}, root)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "echoer", result.Outcomes[0].Tool)
	assert.Equal(t, execmodel.ExitSuccess, result.Outcomes[0].ExitCategory)
	assert.NotEmpty(t, result.FileMetrics)
}

func TestRunOrdersOutcomesByOrderRegardlessOfJobs(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"true"},
		lintTool("toolA", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
		lintTool("toolB", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
	)

	result, err := o.Run(context.Background(), runconfig.RunConfig{Jobs: 4}, root)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "toolA", result.Outcomes[0].Tool)
	assert.Equal(t, "toolB", result.Outcomes[1].Tool)
	assert.True(t, result.Outcomes[0].Order < result.Outcomes[1].Order)
}

func TestRunBailStopsAfterFirstFailure(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"false"},
		lintTool("toolA", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
		lintTool("toolB", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
	)

	result, err := o.Run(context.Background(), runconfig.RunConfig{Bail: true}, root)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "toolA", result.Outcomes[0].Tool)
	assert.Equal(t, execmodel.ExitUnknown, result.Outcomes[0].ExitCategory)
}

func TestRunFixOnlyFiltersNonFixActions(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"true"},
		lintTool("formatter", catalog.ToolAction{Name: "fix", IsFix: true, Command: catalog.StrategyRef{Strategy: "argv"}}),
		lintTool("linter", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
	)

	result, err := o.Run(context.Background(), runconfig.RunConfig{FixOnly: true}, root)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "formatter", result.Outcomes[0].Tool)
}

func TestRunUsesCacheOnSecondInvocation(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"true"},
		lintTool("cached-tool", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
	)
	cache, err := resultcache.New(t.TempDir())
	require.NoError(t, err)
	o.Cache = cache

	cfg := runconfig.RunConfig{CacheEnabled: true}

	first, err := o.Run(context.Background(), cfg, root)
	require.NoError(t, err)
	require.Len(t, first.Outcomes, 1)
	assert.False(t, first.Outcomes[0].Cached)

	second, err := o.Run(context.Background(), cfg, root)
	require.NoError(t, err)
	require.Len(t, second.Outcomes, 1)
	assert.True(t, second.Outcomes[0].Cached)
}

func TestRunFiresLifecycleHooks(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"true"},
		lintTool("echoer", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
	)

	var before, after []string
	var discoveredCount, plannedTotal int
	var executed bool
	o.Hooks = Hooks{
		BeforeTool:     func(name string) { before = append(before, name) },
		AfterTool:      func(outcome execmodel.ToolOutcome) { after = append(after, outcome.Tool) },
		AfterDiscovery: func(count int) { discoveredCount = count },
		AfterPlan:      func(total int) { plannedTotal = total },
		AfterExecution: func(result execmodel.RunResult) { executed = true },
	}

	_, err := o.Run(context.Background(), runconfig.RunConfig{}, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"echoer"}, before)
	assert.Equal(t, []string{"echoer"}, after)
	assert.Equal(t, 1, discoveredCount)
	assert.Equal(t, 1, plannedTotal)
	assert.True(t, executed)
}

func TestRunDedupesCrossToolDiagnosticsIntoAnalysis(t *testing.T) {
	o, root := newTestOrchestrator(t, []string{"true"},
		lintTool("echoer", catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}),
	)

	result, err := o.Run(context.Background(), runconfig.RunConfig{}, root)
	require.NoError(t, err)
	assert.Contains(t, result.Analysis, "diagnostics")
	assert.Contains(t, result.Analysis, "dedupe_summary")
}

// undefinedNameParser yields one "undefined name 'x'" RawDiagnostic per
// tool, keyed by the cross-tool equivalence class f821/reportUndefinedVariable
// (pkg/pipeline/dedupe.go), exercising spec §8 Scenario F end to end.
// Function is left unset on both sides, matching the literal scenario.
type undefinedNameParser struct{}

func (undefinedNameParser) Parse(ctx context.Context, actx catalog.ActionContext) ([]diagnostic.RawDiagnostic, error) {
	code := map[string]string{"ruff": "F821", "pyright": "reportUndefinedVariable"}[actx.ToolName]
	return []diagnostic.RawDiagnostic{{
		File: "a.py", Line: 1, Column: 1, Severity: "error",
		Message: "undefined name 'x'", Code: code,
	}}, nil
}

func TestRunDedupesAcrossToolsViaPreferList(t *testing.T) {
	root := setupProject(t)

	registry := catalog.NewRegistry()
	registry.RegisterCommandBuilder("argv", argvBuilder{argv: []string{"true"}})
	registry.RegisterParser("undefined-name", undefinedNameParser{})

	action := catalog.ToolAction{
		Name:    "check",
		Command: catalog.StrategyRef{Strategy: "argv"},
		Parser:  &catalog.StrategyRef{Strategy: "undefined-name"},
	}
	snapshot := catalog.NewSnapshot("test-checksum", []catalog.Tool{
		lintTool("ruff", action),
		lintTool("pyright", action),
	}, nil)
	disc := discovery.NewService(globStrategy{})
	preparer := prepare.New(registry)
	o := New(snapshot, registry, disc, preparer, nil)

	cfg := runconfig.RunConfig{Dedupe: runconfig.DedupeConfig{By: runconfig.DedupePrefer, Prefer: []string{"pyright", "ruff"}}}
	result, err := o.Run(context.Background(), cfg, root)
	require.NoError(t, err)

	deduped, ok := result.Analysis["diagnostics"].([]diagnostic.Diagnostic)
	require.True(t, ok)
	require.Len(t, deduped, 1)
	assert.Equal(t, "pyright", deduped[0].Tool)
}
