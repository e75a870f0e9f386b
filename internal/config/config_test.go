package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintforge/lintforge/pkg/runconfig"
)

func TestLoadDefaults(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)
	assert.True(t, d.CacheEnabled)
	assert.Equal(t, 4, d.Jobs)
	assert.Equal(t, ToolModeAuto, d.ToolMode)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("LINTFORGE_JOBS", "8")
	t.Setenv("LINTFORGE_TOOL_MODE", "system")
	t.Setenv("LINTFORGE_BAIL", "true")

	d, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, d.Jobs)
	assert.Equal(t, ToolMode("system"), d.ToolMode)
	assert.True(t, d.Bail)
}

func TestApplyToFillsOnlyUnsetFields(t *testing.T) {
	d := Defaults{CacheDir: "/var/cache/lintforge", CacheEnabled: true, Jobs: 8, Bail: true}

	cfg := d.ApplyTo(runconfig.RunConfig{})
	assert.Equal(t, "/var/cache/lintforge", cfg.CacheDir)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 8, cfg.Jobs)
	assert.True(t, cfg.Bail)

	explicit := runconfig.RunConfig{CacheDir: "/explicit", Jobs: 2}
	applied := d.ApplyTo(explicit)
	assert.Equal(t, "/explicit", applied.CacheDir)
	assert.Equal(t, 2, applied.Jobs)
}
