// Command lintforge is a thin wiring demo for the orchestration core.
// Argument parsing, progress UI, and per-tool strategy implementations are
// explicit external collaborators (spec §1 "Explicitly OUT of scope") —
// this binary only proves the package boundaries fit together: it loads a
// catalog, runs discovery + selection + execution through
// pkg/orchestrator, and prints the resulting RunResult as JSON. A real CLI
// would register actual CommandBuilders (ESLint, ruff, ...) with the
// catalog.Registry before calling Run; none are registered here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lintforge/lintforge/internal/config"
	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/discovery"
	"github.com/lintforge/lintforge/pkg/execmodel"
	"github.com/lintforge/lintforge/pkg/exitcode"
	"github.com/lintforge/lintforge/pkg/logger"
	"github.com/lintforge/lintforge/pkg/orchestrator"
	"github.com/lintforge/lintforge/pkg/prepare"
	"github.com/lintforge/lintforge/pkg/resultcache"
	"github.com/lintforge/lintforge/pkg/runconfig"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lintforge", flag.ContinueOnError)
	catalogDir := fs.String("catalog", ".lintforge", "path to the catalog directory")
	root := fs.String("root", ".", "project root to run against")
	include := fs.String("include", "**/*", "doublestar include glob for file discovery")
	jobs := fs.Int("jobs", 0, "worker count (0 = ambient default)")
	jsonLogs := fs.Bool("json-logs", false, "emit JSON-formatted logs")
	if err := fs.Parse(args); err != nil {
		return exitcode.ConfigError
	}

	if err := logger.Initialize(logger.Config{Level: logger.InfoLevel, JSON: *jsonLogs}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitcode.ConfigError
	}
	sink := logger.NewSink(nil)

	defaults, err := config.Load()
	if err != nil {
		logger.Error("failed to load ambient configuration", logger.Err(err))
		return exitcode.ConfigError
	}

	registry := catalog.NewRegistry()
	snapshot, err := catalog.Load(*catalogDir, registry)
	if err != nil {
		logger.Error("failed to load catalog", logger.Err(err))
		return exitcode.ConfigError
	}

	disc := discovery.NewService(discovery.GlobStrategy{Includes: []string{*include}})
	preparer := prepare.New(registry)

	cfg := defaults.ApplyTo(runconfig.RunConfig{Jobs: *jobs})

	o := orchestrator.New(snapshot, registry, disc, preparer, sink)
	if cfg.CacheEnabled {
		cacheDir := cfg.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(*root, ".lintforge-cache")
		} else if !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(*root, cacheDir)
		}
		if cache, err := resultcache.New(cacheDir); err == nil {
			o.Cache = cache
		} else {
			logger.Warn("result cache disabled", logger.Err(err))
		}
	}

	result, err := o.Run(context.Background(), cfg, *root)
	if err != nil {
		logger.Error("run failed", logger.Err(err))
		return exitcode.ConfigError
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", logger.Err(err))
		return exitcode.ConfigError
	}

	hadFailures, hadDiagnostics := summarize(result)
	return exitcode.ForRun(hadFailures, hadDiagnostics, cfg.Strict)
}

func summarize(result execmodel.RunResult) (hadFailures, hadDiagnostics bool) {
	for _, outcome := range result.Outcomes {
		if outcome.ExitCategory == execmodel.ExitToolFailure || outcome.ExitCategory == execmodel.ExitUnknown {
			hadFailures = true
		}
		if len(outcome.Diagnostics) > 0 {
			hadDiagnostics = true
		}
	}
	return hadFailures, hadDiagnostics
}
