package filestate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeReportsSizeAndMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	s, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.Size)
	assert.NotZero(t, s.MtimeNS)
}

func TestUnchangedDetectsMtimeDrift(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	before, err := Probe(path)
	require.NoError(t, err)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	after, err := Probe(path)
	require.NoError(t, err)

	assert.True(t, Unchanged([]State{before}, []State{before}))
	assert.False(t, Unchanged([]State{before}, []State{after}))
}

func TestUnchangedDetectsPathSetMismatch(t *testing.T) {
	a := State{CanonicalPath: "/a", MtimeNS: 1, Size: 1}
	b := State{CanonicalPath: "/b", MtimeNS: 1, Size: 1}
	assert.False(t, Unchanged([]State{a}, []State{a, b}))
	assert.False(t, Unchanged([]State{a}, []State{b}))
}

func TestProbeMissingFileErrors(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
