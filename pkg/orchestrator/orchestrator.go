// Package orchestrator implements the orchestrator (C10, spec §4.9): it
// drives discovery, selection, preparation, caching, and execution end to
// end, enforcing bail semantics, scheduling parallel or serial action
// execution (spec §5), merging outcomes, and persisting the tool-version
// manifest — the single entry point the rest of the core is wired behind.
package orchestrator

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/diagnostic"
	"github.com/lintforge/lintforge/pkg/discovery"
	"github.com/lintforge/lintforge/pkg/execmodel"
	"github.com/lintforge/lintforge/pkg/executor"
	"github.com/lintforge/lintforge/pkg/logger"
	"github.com/lintforge/lintforge/pkg/pipeline"
	"github.com/lintforge/lintforge/pkg/prepare"
	"github.com/lintforge/lintforge/pkg/resultcache"
	"github.com/lintforge/lintforge/pkg/runconfig"
	"github.com/lintforge/lintforge/pkg/selector"
)

const defaultCacheDirName = ".lintforge-cache"

// Orchestrator wires the rest of the core's components into a single
// run(cfg, root) entry point.
type Orchestrator struct {
	Snapshot  *catalog.Snapshot
	Registry  *catalog.Registry
	Discovery *discovery.Service
	Preparer  *prepare.Preparer
	Cache     *resultcache.Cache // nil disables caching regardless of cfg.CacheEnabled
	Policy    *pipeline.PolicyEngine
	Annotator Annotator
	Sink      *logger.Sink
	Hooks     Hooks
}

// New returns an Orchestrator over the given catalog snapshot and
// registry. Cache, Policy, Annotator, and Hooks are left zero-valued;
// assign them directly when the run needs them.
func New(snapshot *catalog.Snapshot, registry *catalog.Registry, disc *discovery.Service, preparer *prepare.Preparer, sink *logger.Sink) *Orchestrator {
	return &Orchestrator{
		Snapshot:  snapshot,
		Registry:  registry,
		Discovery: disc,
		Preparer:  preparer,
		Sink:      sink,
	}
}

// Run executes spec §4.9's ten-step algorithm and returns the aggregate
// RunResult. The returned error is reserved for conditions that prevent a
// result from being produced at all (e.g. discovery failing outright);
// every per-tool failure is instead recorded as a ToolOutcome.
func (o *Orchestrator) Run(ctx context.Context, cfg runconfig.RunConfig, root string) (execmodel.RunResult, error) {
	cfg = cfg.Normalize()

	root, err := filepath.Abs(root)
	if err != nil {
		return execmodel.RunResult{}, err
	}
	baseEnv := primeEnvironment(root)

	// Step 2: discovery.
	files, err := o.Discovery.Run(cfg.FileDiscovery, root)
	if err != nil {
		return execmodel.RunResult{}, err
	}

	// Step 3: severity rules, cache context, tool-versions manifest.
	runPipeline, err := pipeline.New(cfg.SeverityRules, cfg.Suppressions)
	if err != nil {
		return execmodel.RunResult{}, err
	}
	cacheDir := resolveCacheDir(cfg, root)
	cacheToken := cfg.Token()
	toolVersions := loadToolVersions(cacheDir)
	versionsDirty := false

	// Step 4.
	o.Hooks.fireAfterDiscovery(len(files))

	// Step 5: selection.
	selected := selector.Select(cfg, files, o.Snapshot)
	totalActions := countQualifyingActions(cfg, selected, o.Snapshot)
	o.Hooks.fireAfterPlan(totalActions)

	exec := executor.New(o.Registry, runPipeline, o.Sink)
	installed := prepare.NewInstalledSet()
	toolSuppressionCache := make(map[string][]*regexp.Regexp, len(selected))

	var outcomes []execmodel.ToolOutcome
	var scheduled []executor.Request
	bailTriggered := false
	order := 0
	nextOrder := func() int {
		i := order
		order++
		return i
	}

selection:
	for _, toolName := range selected {
		tool, ok := o.Snapshot.Tool(toolName)
		if !ok {
			continue
		}
		toolSuppressions := compiledSuppressions(toolSuppressionCache, tool)

		for _, action := range tool.Actions {
			if !actionQualifies(cfg, action) {
				continue
			}

			actx := catalog.ActionContext{
				ToolName:   tool.Name,
				ActionName: action.Name,
				Files:      files,
				WorkingDir: root,
				Config:     action.Command.Config,
			}

			o.Hooks.fireBeforeTool(tool.Name)

			prepared, err := o.Preparer.Prepare(ctx, tool, action, actx, cfg, installed)
			if err != nil {
				outcome := o.outcomeForPreparationError(tool, action, err, nextOrder())
				outcomes = append(outcomes, outcome)
				o.Hooks.fireAfterTool(outcome)
				if cfg.Bail {
					bailTriggered = true
					break selection
				}
				continue
			}
			if prepared.Version != "" && toolVersions[tool.Name] != prepared.Version {
				toolVersions[tool.Name] = prepared.Version
				versionsDirty = true
			}

			primedAction := action
			primedAction.Env = mergeStringMaps(baseEnv, action.Env)
			invocationOrder := nextOrder()

			cacheReq := resultcache.Request{
				Tool: tool.Name, Action: action.Name, Command: prepared.Cmd, Files: files, Token: cacheToken,
			}

			if !action.InternalRunner && cfg.CacheEnabled && o.Cache != nil {
				if entry, hit := o.Cache.Load(cacheReq); hit {
					outcome := entry.Outcome
					outcome.Order = invocationOrder
					outcome.Diagnostics = refilter(outcome.Diagnostics, runPipeline, toolSuppressions)
					outcomes = append(outcomes, outcome)
					o.Hooks.fireAfterTool(outcome)
					if cfg.Bail && outcome.ExitCategory != execmodel.ExitSuccess {
						bailTriggered = true
						break selection
					}
					continue
				}
			}

			req := executor.Request{
				Tool:             tool,
				Action:           primedAction,
				Command:          prepared,
				Root:             root,
				Files:            files,
				Settings:         cfg.ToolSettings[tool.Name],
				ToolSuppressions: toolSuppressions,
				Order:            invocationOrder,
			}

			if action.IsFix || cfg.Bail {
				outcome := exec.Execute(ctx, req)
				o.storeIfCacheable(action, cacheReq, outcome, cfg)
				outcomes = append(outcomes, outcome)
				o.Hooks.fireAfterTool(outcome)
				if cfg.Bail && outcome.ExitCategory != execmodel.ExitSuccess && !action.IgnoreExit {
					bailTriggered = true
					break selection
				}
				continue
			}

			scheduled = append(scheduled, req)
		}
	}

	// Step 7: execute scheduled actions (spec §5).
	if !bailTriggered && len(scheduled) > 0 {
		results := o.runScheduled(ctx, exec, scheduled, cfg)
		for i, req := range scheduled {
			outcome := results[i]
			o.storeIfCacheable(req.Action, resultcache.Request{
				Tool: req.Tool.Name, Action: req.Action.Name, Command: req.Command.Cmd, Files: req.Files, Token: cacheToken,
			}, outcome, cfg)
		}
		outcomes = append(outcomes, results...)
	}

	// Step 8: collect in order; compute missing file_metrics.
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].Order < outcomes[j].Order })
	fileMetrics := make(map[string]diagnostic.FileMetrics, len(files))
	for _, f := range files {
		fileMetrics[f] = computeFileMetrics(f)
	}

	// Step 9: build RunResult, dedupe, annotate.
	result := execmodel.RunResult{
		Root:         root,
		Files:        files,
		Outcomes:     outcomes,
		ToolVersions: toolVersions,
		FileMetrics:  fileMetrics,
		Analysis:     map[string]any{},
	}
	o.finishAnalysis(ctx, &result, cfg)

	// Step 10: persist manifest, fire after_execution.
	if versionsDirty {
		saveToolVersions(cacheDir, toolVersions)
	}
	o.Hooks.fireAfterExecution(result)
	return result, nil
}

// runScheduled executes req per spec §5: a bounded worker pool when
// cfg.Jobs > 1, otherwise strictly serial. Each slot in results is
// written by exactly one goroutine, so no mutex is needed to keep
// ExecutionState's outcome collection race-free (spec §5: "no worker
// writes to ExecutionState concurrently" — here each worker owns a
// disjoint slice index rather than a shared structure).
func (o *Orchestrator) runScheduled(ctx context.Context, exec *executor.Executor, reqs []executor.Request, cfg runconfig.RunConfig) []execmodel.ToolOutcome {
	results := make([]execmodel.ToolOutcome, len(reqs))

	if cfg.Jobs <= 1 {
		for i, req := range reqs {
			outcome := exec.Execute(ctx, req)
			results[i] = outcome
			o.Hooks.fireAfterTool(outcome)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			outcome := exec.Execute(ctx, req)
			results[i] = outcome
			o.Hooks.fireAfterTool(outcome)
			return nil
		})
	}
	// Actions never return a Go error from Execute (tool-side failures are
	// recorded in the outcome, not raised), so the only possible error here
	// is context cancellation; the run proceeds with whatever completed.
	_ = g.Wait()
	return results
}

func (o *Orchestrator) storeIfCacheable(action catalog.ToolAction, req resultcache.Request, outcome execmodel.ToolOutcome, cfg runconfig.RunConfig) {
	if action.InternalRunner || !cfg.CacheEnabled || o.Cache == nil {
		return
	}
	o.Cache.Store(req, resultcache.Entry{Outcome: outcome})
}

func (o *Orchestrator) outcomeForPreparationError(tool catalog.Tool, action catalog.ToolAction, err error, order int) execmodel.ToolOutcome {
	if o.Sink != nil {
		o.Sink.Log(logger.ErrorLevel, "orchestrator: action preparation failed",
			logger.String("tool", tool.Name),
			logger.String("action", action.Name),
			logger.Err(err),
		)
	}
	return execmodel.ToolOutcome{
		Tool:         tool.Name,
		Action:       action.Name,
		ReturnCode:   -1,
		ExitCategory: execmodel.ExitToolFailure,
		Order:        order,
	}
}

// finishAnalysis runs cross-tool dedupe and the optional annotation and
// policy passes over the aggregated diagnostics, recording results under
// result.Analysis (spec §4.9 step 9). Outcomes keep their own per-tool
// diagnostics unchanged; the deduped, cross-tool view lives only in
// Analysis — see DESIGN.md for why this run-level projection was chosen
// over mutating individual outcomes in place.
func (o *Orchestrator) finishAnalysis(ctx context.Context, result *execmodel.RunResult, cfg runconfig.RunConfig) {
	all := flattenDiagnostics(result.Outcomes)
	deduped, summary := pipeline.Dedupe(all, cfg.Dedupe)
	result.Analysis["dedupe_summary"] = summary

	if o.Annotator != nil {
		annotated, err := o.Annotator.Annotate(ctx, deduped)
		if err != nil {
			if o.Sink != nil {
				o.Sink.Log(logger.WarnLevel, "orchestrator: annotation pass failed", logger.Err(err))
			}
		} else {
			deduped = annotated
		}
	}
	result.Analysis["diagnostics"] = deduped

	if o.Policy != nil {
		violations, err := o.Policy.Evaluate(ctx, deduped)
		if err != nil {
			if o.Sink != nil {
				o.Sink.Log(logger.WarnLevel, "orchestrator: policy evaluation failed", logger.Err(err))
			}
		} else if len(violations) > 0 {
			result.Analysis["policy_violations"] = violations
		}
	}

	result.Analysis["suppressions"] = pipeline.Summarize(result.FileMetrics)
}

func flattenDiagnostics(outcomes []execmodel.ToolOutcome) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, o := range outcomes {
		out = append(out, o.Diagnostics...)
	}
	return out
}

// refilter re-applies severity rules and suppressions to a cached
// outcome's already-normalized diagnostics without re-running Normalize
// (spec §4.8: "Cached outcomes reuse diagnostics but still pass through
// normalization+filter so severity rules and config-specific suppressions
// reflect the current run").
func refilter(diags []diagnostic.Diagnostic, p *pipeline.Pipeline, toolSuppressions []*regexp.Regexp) []diagnostic.Diagnostic {
	out := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, pipeline.ApplySeverityRules(d, p.SeverityRules))
	}
	out = pipeline.Suppress(out, toolSuppressions)
	return pipeline.Suppress(out, p.Suppressions)
}

func compiledSuppressions(cache map[string][]*regexp.Regexp, tool catalog.Tool) []*regexp.Regexp {
	if compiled, ok := cache[tool.Name]; ok {
		return compiled
	}
	compiled, err := pipeline.CompileSuppressions(tool.Diagnostics.Suppressions)
	if err != nil {
		compiled = nil
	}
	cache[tool.Name] = compiled
	return compiled
}

func actionQualifies(cfg runconfig.RunConfig, action catalog.ToolAction) bool {
	if cfg.FixOnly && !action.IsFix {
		return false
	}
	if cfg.CheckOnly && action.IsFix {
		return false
	}
	return true
}

func countQualifyingActions(cfg runconfig.RunConfig, selected []string, snapshot *catalog.Snapshot) int {
	total := 0
	for _, name := range selected {
		tool, ok := snapshot.Tool(name)
		if !ok {
			continue
		}
		for _, action := range tool.Actions {
			if actionQualifies(cfg, action) {
				total++
			}
		}
	}
	return total
}

func resolveCacheDir(cfg runconfig.RunConfig, root string) string {
	if cfg.CacheDir != "" {
		if filepath.IsAbs(cfg.CacheDir) {
			return cfg.CacheDir
		}
		return filepath.Join(root, cfg.CacheDir)
	}
	return filepath.Join(root, defaultCacheDirName)
}
