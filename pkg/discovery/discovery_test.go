package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintforge/lintforge/pkg/runconfig"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type stubStrategy struct {
	paths []string
}

func (s stubStrategy) Discover(cfg runconfig.FileDiscoveryConfig, root string) ([]string, error) {
	return s.paths, nil
}

func TestServiceDedupesPreservingFirstSeenOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	writeFile(t, a, "1")

	svc := NewService(stubStrategy{paths: []string{a, a}}, stubStrategy{paths: []string{a}})
	got, err := svc.Run(runconfig.FileDiscoveryConfig{}, dir)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestServiceAppliesLimitTo(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "src", "a.py")
	outside := filepath.Join(dir, "vendor", "b.py")
	writeFile(t, inside, "1")
	writeFile(t, outside, "2")

	svc := NewService(stubStrategy{paths: []string{inside, outside}})
	got, err := svc.Run(runconfig.FileDiscoveryConfig{LimitTo: []string{filepath.Join(dir, "src")}}, dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "src")
}

func TestGitignoreStrategySkipsIgnoredFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.py\n")
	writeFile(t, filepath.Join(dir, "kept.py"), "1")
	writeFile(t, filepath.Join(dir, "ignored.py"), "2")

	strat := GitignoreStrategy{}
	got, err := strat.Discover(runconfig.FileDiscoveryConfig{}, dir)
	require.NoError(t, err)

	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	assert.Contains(t, names, "kept.py")
	assert.NotContains(t, names, "ignored.py")
}

func TestGitignoreStrategySkipsDotGitDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(dir, "kept.py"), "1")

	strat := GitignoreStrategy{}
	got, err := strat.Discover(runconfig.FileDiscoveryConfig{}, dir)
	require.NoError(t, err)
	for _, p := range got {
		assert.NotContains(t, p, ".git/")
	}
}

func TestGlobStrategyMatchesDoubleStarAndExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "b", "c.py"), "1")
	writeFile(t, filepath.Join(dir, "a", "b", "c_test.py"), "1")

	strat := GlobStrategy{Includes: []string{"**/*.py"}}
	got, err := strat.Discover(runconfig.FileDiscoveryConfig{
		Roots:    []string{dir},
		Excludes: []string{"**/*_test.py"},
	}, dir)
	require.NoError(t, err)

	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	assert.Contains(t, names, "c.py")
	assert.NotContains(t, names, "c_test.py")
}

func TestGlobStrategyIncludesExplicitFiles(t *testing.T) {
	strat := GlobStrategy{}
	got, err := strat.Discover(runconfig.FileDiscoveryConfig{ExplicitFiles: []string{"x.py"}}, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.py"}, got)
}
