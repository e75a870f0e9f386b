package prepare

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/runconfig"
)

type fixedCommandBuilder struct {
	argv []string
	err  error
}

func (b fixedCommandBuilder) Build(ctx context.Context, actx catalog.ActionContext) ([]string, error) {
	return b.argv, b.err
}

type countingInstaller struct {
	calls int
	err   error
}

func (i *countingInstaller) Install(ctx context.Context, tool catalog.Tool) error {
	i.calls++
	return i.err
}

func registryWith(builder catalog.CommandBuilder, installer catalog.Installer) *catalog.Registry {
	r := catalog.NewRegistry()
	r.RegisterCommandBuilder("argv", builder)
	if installer != nil {
		r.RegisterInstaller("install-stub", installer)
	}
	return r
}

func TestPrepareNoRuntimeUsesBaseCommandAsIs(t *testing.T) {
	r := registryWith(fixedCommandBuilder{argv: []string{"ruff", "check"}}, nil)
	p := New(r)
	tool := catalog.Tool{Name: "ruff"}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}

	got, err := p.Prepare(context.Background(), tool, action, catalog.ActionContext{}, runconfig.RunConfig{}, NewInstalledSet())
	require.NoError(t, err)
	assert.Equal(t, []string{"ruff", "check"}, got.Cmd)
	assert.Equal(t, "system", got.Source)
}

func TestPrepareEmptyArgvIsPreparationError(t *testing.T) {
	r := registryWith(fixedCommandBuilder{argv: nil}, nil)
	p := New(r)
	tool := catalog.Tool{Name: "ruff"}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}

	_, err := p.Prepare(context.Background(), tool, action, catalog.ActionContext{}, runconfig.RunConfig{}, NewInstalledSet())
	require.Error(t, err)
	var prepErr *PreparationError
	require.ErrorAs(t, err, &prepErr)
}

func TestPrepareUnknownCommandStrategyIsPreparationError(t *testing.T) {
	r := catalog.NewRegistry()
	p := New(r)
	tool := catalog.Tool{Name: "ruff"}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "missing"}}

	_, err := p.Prepare(context.Background(), tool, action, catalog.ActionContext{}, runconfig.RunConfig{}, NewInstalledSet())
	require.Error(t, err)
	var prepErr *PreparationError
	require.ErrorAs(t, err, &prepErr)
}

func TestPrepareResolvesProjectLocalBinaryWhenUseLocalLinters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("binary resolution test assumes a POSIX-style bin layout")
	}
	dir := t.TempDir()
	binDir := filepath.Join(dir, ".venv", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	binPath := filepath.Join(binDir, "ruff")
	require.NoError(t, os.WriteFile(binPath, []byte("#!/bin/sh\n"), 0o755))

	r := registryWith(fixedCommandBuilder{argv: []string{"ruff", "check"}}, nil)
	p := New(r)
	tool := catalog.Tool{Name: "ruff", Runtime: &catalog.Runtime{Type: catalog.RuntimePython}}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}
	actx := catalog.ActionContext{WorkingDir: dir}

	got, err := p.Prepare(context.Background(), tool, action, actx, runconfig.RunConfig{UseLocalLinters: true}, NewInstalledSet())
	require.NoError(t, err)
	assert.Equal(t, binPath, got.Cmd[0])
	assert.Equal(t, "project", got.Source)
}

func TestPrepareMissingRuntimeBinaryIsPreparationError(t *testing.T) {
	dir := t.TempDir()
	r := registryWith(fixedCommandBuilder{argv: []string{"some-tool-that-does-not-exist-anywhere", "check"}}, nil)
	p := New(r)
	tool := catalog.Tool{Name: "ghost", Runtime: &catalog.Runtime{Type: catalog.RuntimePython}}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}
	actx := catalog.ActionContext{WorkingDir: dir}

	_, err := p.Prepare(context.Background(), tool, action, actx, runconfig.RunConfig{}, NewInstalledSet())
	require.Error(t, err)
	var prepErr *PreparationError
	require.ErrorAs(t, err, &prepErr)
}

func TestPrepareInstallsOnFirstUseOnly(t *testing.T) {
	installer := &countingInstaller{}
	r := registryWith(fixedCommandBuilder{argv: []string{"true", "check"}}, installer)
	p := New(r)
	tool := catalog.Tool{
		Name: "ruff",
		Runtime: &catalog.Runtime{
			Type:    catalog.RuntimeBinary,
			Install: &catalog.StrategyRef{Strategy: "install-stub"},
		},
	}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}
	installed := NewInstalledSet()

	_, err := p.Prepare(context.Background(), tool, action, catalog.ActionContext{}, runconfig.RunConfig{}, installed)
	require.NoError(t, err)
	_, err = p.Prepare(context.Background(), tool, action, catalog.ActionContext{}, runconfig.RunConfig{}, installed)
	require.NoError(t, err)

	assert.Equal(t, 1, installer.calls)
}

func TestPrepareInstallFailureIsPreparationError(t *testing.T) {
	installer := &countingInstaller{err: assert.AnError}
	r := registryWith(fixedCommandBuilder{argv: []string{"true", "check"}}, installer)
	p := New(r)
	tool := catalog.Tool{
		Name: "ruff",
		Runtime: &catalog.Runtime{
			Type:    catalog.RuntimeBinary,
			Install: &catalog.StrategyRef{Strategy: "install-stub"},
		},
	}
	action := catalog.ToolAction{Name: "check", Command: catalog.StrategyRef{Strategy: "argv"}}

	_, err := p.Prepare(context.Background(), tool, action, catalog.ActionContext{}, runconfig.RunConfig{}, NewInstalledSet())
	require.Error(t, err)
	var prepErr *PreparationError
	require.ErrorAs(t, err, &prepErr)
}
