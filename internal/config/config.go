// Package config holds the ambient, environment-driven orchestrator
// defaults (cache directory, worker count, tool-resolution mode) — not
// the catalog config loader, which is explicitly JSON/YAML+schema per
// spec §4.1. Grounded on pkg/config/config.go's viper.New + SetDefault +
// AutomaticEnv shape, generalized from goneat's GONEAT_* env prefix to
// LINTFORGE_*.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/lintforge/lintforge/pkg/runconfig"
)

// ToolMode selects how the orchestrator resolves tool executables,
// mirroring pkg/tools/executor.go's GONEAT_TOOL_MODE convention.
type ToolMode string

const (
	// ToolModeAuto prefers a project-local virtualenv/node_modules
	// install, falling back to whatever is on PATH.
	ToolModeAuto ToolMode = "auto"
	// ToolModeSystem only resolves tools already on PATH.
	ToolModeSystem ToolMode = "system"
	// ToolModeLocal only resolves project-local installs, never PATH.
	ToolModeLocal ToolMode = "local"
)

// Defaults are the ambient knobs read from the environment (and an
// optional config file) before a RunConfig is built from CLI flags or a
// request body. CLI/request values always win; Defaults only fill in
// what the caller left unset.
type Defaults struct {
	CacheDir     string   `mapstructure:"cache_dir"`
	CacheEnabled bool     `mapstructure:"cache_enabled"`
	Jobs         int      `mapstructure:"jobs"`
	ToolMode     ToolMode `mapstructure:"tool_mode"`
	Bail         bool     `mapstructure:"bail"`
}

var defaultDefaults = Defaults{
	CacheEnabled: true,
	Jobs:         4,
	ToolMode:     ToolModeAuto,
	Bail:         false,
}

// Load reads Defaults from the LINTFORGE_* environment and, if present,
// a `lintforge` config file discovered in the current directory or the
// user's home directory. A missing config file is not an error — it
// behaves exactly like goneat's LoadConfig, which ignores
// ReadInConfig's error to fall back to defaults.
func Load() (Defaults, error) {
	v := viper.New()

	v.SetDefault("cache_dir", defaultDefaults.CacheDir)
	v.SetDefault("cache_enabled", defaultDefaults.CacheEnabled)
	v.SetDefault("jobs", defaultDefaults.Jobs)
	v.SetDefault("tool_mode", string(defaultDefaults.ToolMode))
	v.SetDefault("bail", defaultDefaults.Bail)

	v.SetConfigName("lintforge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix("LINTFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	var d Defaults
	if err := v.Unmarshal(&d); err != nil {
		return Defaults{}, err
	}
	if d.Jobs < 1 {
		d.Jobs = 1
	}
	return d, nil
}

// ApplyTo folds d into cfg wherever cfg carries the unset zero value,
// leaving every explicitly-set field (CLI flag, request body) untouched.
func (d Defaults) ApplyTo(cfg runconfig.RunConfig) runconfig.RunConfig {
	if cfg.CacheDir == "" {
		cfg.CacheDir = d.CacheDir
	}
	if !cfg.CacheEnabled && d.CacheEnabled {
		cfg.CacheEnabled = d.CacheEnabled
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = d.Jobs
	}
	if !cfg.Bail && d.Bail {
		cfg.Bail = d.Bail
	}
	return cfg
}
