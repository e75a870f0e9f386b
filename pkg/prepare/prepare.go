// Package prepare implements the command preparer (C7, spec §4.6): for
// each action, resolve the tool's runtime (system vs project-local),
// materialize its version, run the install step on first use, and
// produce a PreparedCommand ready for the executor to spawn.
package prepare

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/execmodel"
	"github.com/lintforge/lintforge/pkg/logger"
	"github.com/lintforge/lintforge/pkg/procrunner"
	"github.com/lintforge/lintforge/pkg/runconfig"
	"github.com/lintforge/lintforge/pkg/versioning"
)

// PreparationError reports that a command could not be composed: a
// missing required setting or an unresolvable runtime path (spec §7).
type PreparationError struct {
	Tool   string
	Action string
	Reason string
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("prepare: %s/%s: %s", e.Tool, e.Action, e.Reason)
}

// InstalledSet tracks which tools have had their install strategy
// invoked this run. It is owned by the orchestrator thread only (spec
// §5: ExecutionState is single-writer); the mutex additionally makes an
// accidental concurrent call safe rather than a data race.
type InstalledSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewInstalledSet returns an empty InstalledSet.
func NewInstalledSet() *InstalledSet {
	return &InstalledSet{seen: make(map[string]bool)}
}

func (s *InstalledSet) markIfAbsent(tool string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[tool] {
		return false
	}
	s.seen[tool] = true
	return true
}

// projectLocalDirs returns the project-local bin directories searched for
// a given runtime kind, as relative-to-root path segments.
func projectLocalDirs(kind catalog.RuntimeKind) []string {
	switch kind {
	case catalog.RuntimePython:
		return []string{".venv/bin", "venv/bin"}
	case catalog.RuntimeNPM:
		return []string{"node_modules/.bin"}
	default:
		return nil
	}
}

// Preparer resolves catalog-bound strategies into PreparedCommands.
type Preparer struct {
	Registry *catalog.Registry
}

// New returns a Preparer bound to registry.
func New(registry *catalog.Registry) *Preparer {
	return &Preparer{Registry: registry}
}

// Prepare builds the PreparedCommand for one action invocation.
func (p *Preparer) Prepare(ctx context.Context, tool catalog.Tool, action catalog.ToolAction, actx catalog.ActionContext, cfg runconfig.RunConfig, installed *InstalledSet) (execmodel.PreparedCommand, error) {
	builder, err := p.Registry.CommandBuilder(action.Command.Strategy)
	if err != nil {
		return execmodel.PreparedCommand{}, &PreparationError{Tool: tool.Name, Action: action.Name, Reason: err.Error()}
	}
	baseCmd, err := builder.Build(ctx, actx)
	if err != nil {
		return execmodel.PreparedCommand{}, &PreparationError{Tool: tool.Name, Action: action.Name, Reason: err.Error()}
	}
	if len(baseCmd) == 0 {
		return execmodel.PreparedCommand{}, &PreparationError{Tool: tool.Name, Action: action.Name, Reason: "command strategy returned an empty argv"}
	}

	if tool.Runtime != nil && tool.Runtime.Install != nil {
		if installed.markIfAbsent(tool.Name) {
			installer, err := p.Registry.Installer(tool.Runtime.Install.Strategy)
			if err != nil {
				return execmodel.PreparedCommand{}, &PreparationError{Tool: tool.Name, Action: action.Name, Reason: err.Error()}
			}
			if err := installer.Install(ctx, tool); err != nil {
				return execmodel.PreparedCommand{}, &PreparationError{Tool: tool.Name, Action: action.Name, Reason: "install: " + err.Error()}
			}
		}
	}

	if tool.Runtime == nil {
		return execmodel.PreparedCommand{Cmd: baseCmd, Source: "system"}, nil
	}

	resolvedPath, source, err := resolveRuntimePath(baseCmd[0], tool.Runtime.Type, actx.WorkingDir, cfg.UseLocalLinters)
	if err != nil {
		return execmodel.PreparedCommand{}, &PreparationError{Tool: tool.Name, Action: action.Name, Reason: err.Error()}
	}
	cmd := append([]string{resolvedPath}, baseCmd[1:]...)

	version := materializeVersion(ctx, tool.Runtime)
	if version != "" {
		checkVersionPolicy(tool, version)
	}

	return execmodel.PreparedCommand{Cmd: cmd, Version: version, Source: source}, nil
}

// resolveRuntimePath locates binaryName either on PATH or under one of the
// project-local directories for runtimeType, walking up from workDir to
// the filesystem root, honoring useLocal's preference order (spec §4.6).
func resolveRuntimePath(binaryName string, runtimeType catalog.RuntimeKind, workDir string, useLocal bool) (string, string, error) {
	systemPath, sysErr := exec.LookPath(binaryName)
	projectPath, projErr := findProjectLocal(binaryName, runtimeType, workDir)

	if useLocal {
		if projErr == nil {
			return projectPath, "project", nil
		}
		if sysErr == nil {
			return systemPath, "system", nil
		}
	} else {
		if sysErr == nil {
			return systemPath, "system", nil
		}
		if projErr == nil {
			return projectPath, "project", nil
		}
	}
	return "", "", fmt.Errorf("%s not found on PATH or in a project-local %s directory", binaryName, runtimeType)
}

func findProjectLocal(binaryName string, runtimeType catalog.RuntimeKind, workDir string) (string, error) {
	dirs := projectLocalDirs(runtimeType)
	if len(dirs) == 0 || workDir == "" {
		return "", fmt.Errorf("no project-local search path for runtime %q", runtimeType)
	}
	dir := workDir
	for {
		for _, rel := range dirs {
			candidate := filepath.Join(dir, rel, binaryName)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found under any project-local directory", binaryName)
}

// materializeVersion runs runtime.VersionCommand and returns its trimmed
// stdout, or "" if no version command is configured or it fails (spec
// §4.6: "else return None").
func materializeVersion(ctx context.Context, runtime *catalog.Runtime) string {
	if len(runtime.VersionCommand) == 0 {
		return ""
	}
	result, err := procrunner.Run(ctx, procrunner.Options{Cmd: runtime.VersionCommand})
	if err != nil || result.ReturnCode != 0 {
		return ""
	}
	return strings.TrimSpace(string(result.Stdout))
}

// checkVersionPolicy logs (does not fail the run) when a resolved runtime
// version falls outside the catalog-declared policy. This is a
// supplemented feature (see SPEC_FULL.md) layered on top of C7's baseline
// version materialization.
func checkVersionPolicy(tool catalog.Tool, version string) {
	runtime := tool.Runtime
	policy := versioning.Policy{
		Scheme:             versioning.Scheme(runtime.VersionScheme),
		MinimumVersion:     runtime.MinimumVersion,
		RecommendedVersion: runtime.RecommendedVersion,
		DisallowedVersions: runtime.DisallowedVersions,
	}
	if policy.IsZero() {
		return
	}
	eval, err := versioning.Evaluate(policy, version)
	if err != nil {
		logger.Warn("prepare: could not evaluate version policy", logger.String("tool", tool.Name), logger.Err(err))
		return
	}
	if eval.IsDisallowed {
		logger.Warn("prepare: resolved runtime version is disallowed", logger.String("tool", tool.Name), logger.String("version", version))
		return
	}
	if !eval.MeetsMinimum {
		logger.Warn("prepare: resolved runtime version is below the minimum", logger.String("tool", tool.Name), logger.String("version", version), logger.String("minimum", runtime.MinimumVersion))
		return
	}
	if !eval.MeetsRecommended {
		logger.Warn("prepare: resolved runtime version is below the recommended version", logger.String("tool", tool.Name), logger.String("version", version), logger.String("recommended", runtime.RecommendedVersion))
	}
}
