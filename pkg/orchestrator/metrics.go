package orchestrator

import (
	"bufio"
	"os"
	"regexp"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// suppressionMarkers are the inline suppression-comment shapes scanned
// when deriving FileMetrics for a file the cache never computed metrics
// for (spec §4.9 step 8: "compute/attach file_metrics for any discovered
// file lacking one"), grounded on the teacher's suppression-scan idiom in
// internal/assess/suppressions.go (it scans per-line for a fixed set of
// tool-specific disable comments rather than parsing each language).
var suppressionMarkers = map[string]*regexp.Regexp{
	"noqa":             regexp.MustCompile(`#\s*noqa\b`),
	"type_ignore":      regexp.MustCompile(`#\s*type:\s*ignore\b`),
	"pylint_disable":   regexp.MustCompile(`#\s*pylint:\s*disable\b`),
	"nolint":           regexp.MustCompile(`//\s*nolint\b`),
	"eslint_disable":   regexp.MustCompile(`//\s*eslint-disable`),
	"ts_ignore":        regexp.MustCompile(`@ts-(?:ignore|expect-error)\b`),
}

// computeFileMetrics derives line count and suppression-marker counts for
// path. A read failure yields zero-value metrics rather than an error —
// metrics are best-effort enrichment, not load-bearing for the run.
func computeFileMetrics(path string) diagnostic.FileMetrics {
	metrics := diagnostic.FileMetrics{Path: path, Suppressions: map[string]int{}}

	f, err := os.Open(path)
	if err != nil {
		return metrics
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		metrics.LineCount++
		line := scanner.Text()
		for label, pattern := range suppressionMarkers {
			if pattern.MatchString(line) {
				metrics.Suppressions[label]++
			}
		}
	}
	return metrics
}
