package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

func TestSummarizeAggregatesAcrossFiles(t *testing.T) {
	metrics := map[string]diagnostic.FileMetrics{
		"a.py": {Path: "a.py", LineCount: 10, Suppressions: map[string]int{"noqa": 2}},
		"b.py": {Path: "b.py", LineCount: 5, Suppressions: map[string]int{"noqa": 1, "type_ignore": 3}},
		"c.go": {Path: "c.go", LineCount: 20},
	}

	summary := Summarize(metrics)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.ByMarker["noqa"])
	assert.Equal(t, 3, summary.ByMarker["type_ignore"])
	assert.Equal(t, 2, summary.ByFile["a.py"])
	assert.Equal(t, 4, summary.ByFile["b.py"])
	assert.NotContains(t, summary.ByFile, "c.go")
	assert.Equal(t, "b.py", summary.TopFiles[0].Name)
	assert.Equal(t, 4, summary.TopFiles[0].Count)
}

func TestSummarizeEmptyMetricsYieldsZeroTotal(t *testing.T) {
	summary := Summarize(map[string]diagnostic.FileMetrics{})
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.TopFiles)
}
