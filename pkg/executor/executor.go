// Package executor implements the action executor (C8, spec §4.7): spawn
// a prepared command, filter its output, dispatch to the bound parser,
// normalize diagnostics through the pipeline, classify the exit, and log
// structured failures.
package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/diagnostic"
	"github.com/lintforge/lintforge/pkg/execmodel"
	"github.com/lintforge/lintforge/pkg/logger"
	"github.com/lintforge/lintforge/pkg/pipeline"
	"github.com/lintforge/lintforge/pkg/procrunner"
)

// defaultTimeout is used when an action leaves TimeoutSeconds unset.
const defaultTimeout = 120 * time.Second

// exitOneIsNoiseAllowlist names tools whose bare exit code 1 is routine
// chatter rather than a real failure signal (spec §4.7 step 6).
var exitOneIsNoiseAllowlist = map[string]bool{
	"pylint": true,
	"tombi":  true,
}

// Executor runs one action invocation end to end.
type Executor struct {
	Registry *catalog.Registry
	Pipeline *pipeline.Pipeline
	Sink     *logger.Sink
}

// New returns an Executor bound to registry, pipeline, and log sink.
func New(registry *catalog.Registry, p *pipeline.Pipeline, sink *logger.Sink) *Executor {
	return &Executor{Registry: registry, Pipeline: p, Sink: sink}
}

// Request is everything Execute needs for one action invocation.
type Request struct {
	Tool             catalog.Tool
	Action           catalog.ToolAction
	Command          execmodel.PreparedCommand
	Root             string
	Files            []string
	Settings         map[string]any
	ToolSuppressions []*regexp.Regexp
	Order            int
}

// Execute runs Request's command and produces a ToolOutcome (spec §4.7
// steps 1-8). Process failures, parser failures, and non-zero exits are
// all represented in the returned outcome. A command that cannot be
// spawned (e.g. a missing executable, which procrunner reports as a typed
// error) yields a tool_failure outcome with return code -1.
func (e *Executor) Execute(ctx context.Context, req Request) execmodel.ToolOutcome {
	env := composeEnv(req.Action.Env, req.Command.Env, stringifyEnv(req.Settings))

	timeout := defaultTimeout
	if req.Action.TimeoutSeconds != nil {
		timeout = time.Duration(*req.Action.TimeoutSeconds) * time.Second
	}

	result, err := procrunner.Run(ctx, procrunner.Options{
		Cmd:     req.Command.Cmd,
		Cwd:     req.Root,
		Env:     env,
		Timeout: timeout,
		Check:   false,
	})
	if err != nil {
		return e.outcomeForSpawnFailure(req, err)
	}

	stdoutLines := filterLines(result.Stdout, req.ToolSuppressions, e.Pipeline)
	stderrLines := filterLines(result.Stderr, req.ToolSuppressions, e.Pipeline)

	raws := e.parse(ctx, req, stdoutLines, stderrLines)
	diags := e.Pipeline.Process(raws, req.Tool.Name, req.Root, req.ToolSuppressions)

	adjustedCode, category := classifyExit(req.Tool.Name, req.Action, result.ReturnCode, diags)

	outcome := execmodel.ToolOutcome{
		Tool:         req.Tool.Name,
		Action:       req.Action.Name,
		ReturnCode:   adjustedCode,
		Stdout:       stdoutLines,
		Stderr:       stderrLines,
		Diagnostics:  diags,
		ExitCategory: category,
		Order:        req.Order,
	}

	if e.shouldLogFailure(category, adjustedCode, diags, req.Action) {
		e.logFailure(req, result, diags)
	}

	return outcome
}

func (e *Executor) outcomeForSpawnFailure(req Request, err error) execmodel.ToolOutcome {
	if e.Sink != nil {
		e.Sink.Log(logger.ErrorLevel, "executor: failed to spawn tool process",
			logger.String("tool", req.Tool.Name),
			logger.String("action", req.Action.Name),
			logger.Err(err),
		)
	}
	return execmodel.ToolOutcome{
		Tool:         req.Tool.Name,
		Action:       req.Action.Name,
		ReturnCode:   -1,
		ExitCategory: execmodel.ExitToolFailure,
		Order:        req.Order,
	}
}

func (e *Executor) parse(ctx context.Context, req Request, stdoutLines, stderrLines []string) []diagnostic.RawDiagnostic {
	if req.Action.Parser == nil {
		return nil
	}
	parser, err := e.Registry.Parser(req.Action.Parser.Strategy)
	if err != nil {
		e.warnParserFailure(req, err)
		return nil
	}

	actx := catalog.ActionContext{
		ToolName:   req.Tool.Name,
		ActionName: req.Action.Name,
		Files:      req.Files,
		WorkingDir: req.Root,
		Config:     req.Action.Parser.Config,
		Stdout:     []byte(strings.Join(stdoutLines, "\n")),
		Stderr:     []byte(strings.Join(stderrLines, "\n")),
	}
	raws, err := parser.Parse(ctx, actx)
	if err != nil {
		e.warnParserFailure(req, err)
		return nil
	}
	return raws
}

func (e *Executor) warnParserFailure(req Request, err error) {
	if e.Sink != nil {
		e.Sink.Log(logger.WarnLevel, "executor: parser failed, recording zero diagnostics",
			logger.String("tool", req.Tool.Name),
			logger.String("action", req.Action.Name),
			logger.Err(err),
		)
	}
}

// composeEnv layers action.env, then the prepared command's env
// overrides, then settings.env, coercing every value to a string (spec
// §4.7 step 1). Output is sorted for deterministic process environments.
func composeEnv(actionEnv, overrides, settingsEnv map[string]string) []string {
	merged := make(map[string]string, len(actionEnv)+len(overrides)+len(settingsEnv))
	for k, v := range actionEnv {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	for k, v := range settingsEnv {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// stringifyEnv extracts an "env" sub-map from a tool's settings, coercing
// every value to its string form.
func stringifyEnv(settings map[string]any) map[string]string {
	raw, ok := settings["env"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// filterLines splits raw process output into non-empty lines and drops
// any matching a suppression pattern (spec §4.7 step 3).
func filterLines(raw []byte, toolPatterns []*regexp.Regexp, p *pipeline.Pipeline) []string {
	var runPatterns []*regexp.Regexp
	if p != nil {
		runPatterns = p.Suppressions
	}
	lines := strings.Split(string(raw), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if matchesAnyPattern(line, toolPatterns) || matchesAnyPattern(line, runPatterns) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func matchesAnyPattern(line string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// classifyExit applies the exact priority order from spec §4.7 step 6 and
// returns the adjusted return code alongside the category.
func classifyExit(toolName string, action catalog.ToolAction, returncode int, diags []diagnostic.Diagnostic) (int, execmodel.ExitCategory) {
	isSuccess, isDiagnostic, isToolFailure := action.ExitCodes.Classify(returncode)

	category := execmodel.ExitUnknown
	switch {
	case returncode == 0:
		category = execmodel.ExitSuccess
	case isToolFailure:
		category = execmodel.ExitToolFailure
	case isSuccess:
		category = execmodel.ExitSuccess
	case isDiagnostic:
		category = execmodel.ExitDiagnostic
	case len(diags) > 0:
		category = execmodel.ExitDiagnostic
	case exitOneIsNoiseAllowlist[toolName]:
		category = execmodel.ExitSuccess
	case action.IsFix && returncode == 1:
		category = execmodel.ExitSuccess
	case action.IgnoreExit && len(diags) == 0 && returncode == 1:
		category = execmodel.ExitSuccess
	default:
		category = execmodel.ExitUnknown
	}

	adjusted := returncode
	if category == execmodel.ExitSuccess {
		adjusted = 0
	}
	return adjusted, category
}

func (e *Executor) shouldLogFailure(category execmodel.ExitCategory, adjustedCode int, diags []diagnostic.Diagnostic, action catalog.ToolAction) bool {
	if category == execmodel.ExitToolFailure {
		return true
	}
	return adjustedCode != 0 && len(diags) == 0 && !action.IgnoreExit
}

func (e *Executor) logFailure(req Request, result *procrunner.CompletedProcess, diags []diagnostic.Diagnostic) {
	if e.Sink == nil {
		return
	}

	filesForLog := req.Files
	if len(filesForLog) > 5 {
		filesForLog = filesForLog[:5]
	}
	relFiles := make([]string, 0, len(filesForLog))
	for _, f := range filesForLog {
		if rel, err := filepath.Rel(req.Root, f); err == nil {
			relFiles = append(relFiles, rel)
		} else {
			relFiles = append(relFiles, f)
		}
	}

	e.Sink.Log(logger.ErrorLevel, "executor: tool action failed",
		logger.String("tool", req.Tool.Name),
		logger.String("action", req.Action.Name),
		logger.String("command", shellQuoteAll(req.Command.Cmd)),
		logger.String("cwd", req.Root),
		logger.Int("diagnostic_count", len(diags)),
		logger.String("files", strings.Join(relFiles, ", ")),
		logger.String("last_stderr_line", lastNonEmptyLine(result.Stderr)),
		logger.String("last_stdout_line", lastNonEmptyLine(result.Stdout)),
	)
}

func lastNonEmptyLine(raw []byte) string {
	lines := strings.Split(string(raw), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if len(line) > 160 {
			line = line[:160]
		}
		return line
	}
	return ""
}

func shellQuoteAll(parts []string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = shellQuote(p)
	}
	return strings.Join(quoted, " ")
}

// shellQuote quotes a single argv element for safe display in a log line
// (not for execution — the process is always spawned argv-wise via
// os/exec, never through a shell). No pack example wires a dedicated
// shell-quoting library for this narrow purpose, so it is hand-rolled.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '/' || r == ':' || r == '=':
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
