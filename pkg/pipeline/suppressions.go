package pipeline

import (
	"sort"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// TopItem is a single aggregated name/count pair, grounded on
// internal/assess/suppressions.go's TopItem.
type TopItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SuppressionSummary aggregates the per-file suppression-marker counts
// FileMetrics carries into run-wide statistics, surfaced through
// RunResult.Analysis["suppressions"] — the spec's open-ended analysis
// map is exactly the slot this kind of supplemental report belongs in.
// Grounded on internal/assess/suppressions.go's SuppressionSummary, pared
// down to what a line-level marker scan (rather than a parsed suppression
// with author/commit/age) can actually support.
type SuppressionSummary struct {
	Total    int            `json:"total"`
	ByMarker map[string]int `json:"by_marker"`
	ByFile   map[string]int `json:"by_file"`
	TopFiles []TopItem      `json:"top_files,omitempty"`
}

// Summarize reduces a discovered file's metrics into a SuppressionSummary.
func Summarize(metrics map[string]diagnostic.FileMetrics) SuppressionSummary {
	summary := SuppressionSummary{ByMarker: map[string]int{}, ByFile: map[string]int{}}
	for path, fm := range metrics {
		fileTotal := 0
		for marker, count := range fm.Suppressions {
			summary.ByMarker[marker] += count
			fileTotal += count
		}
		if fileTotal > 0 {
			summary.ByFile[path] = fileTotal
			summary.Total += fileTotal
		}
	}

	summary.TopFiles = topN(summary.ByFile, 10)
	return summary
}

func topN(counts map[string]int, n int) []TopItem {
	items := make([]TopItem, 0, len(counts))
	for name, count := range counts {
		items = append(items, TopItem{Name: name, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}
