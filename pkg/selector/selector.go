// Package selector implements the tool selector (C6, spec §4.5): resolve
// a candidate tool set from config/languages/defaults, then order it by
// phase bucket and within-bucket dependency edges.
package selector

import (
	"sort"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/logger"
	"github.com/lintforge/lintforge/pkg/runconfig"
)

// Select resolves and orders the tool set to run for this invocation
// (spec §4.5 steps 1-4). files is the discovered file set, used only for
// language auto-detection when neither Only nor Languages is set.
func Select(cfg runconfig.RunConfig, files []string, snapshot *catalog.Snapshot) []string {
	candidates := candidateSet(cfg, files, snapshot)
	candidates = filterKnown(candidates, snapshot)
	buckets := bucketByPhase(candidates, snapshot)

	var out []string
	for _, bucket := range buckets {
		out = append(out, topoSortBucket(bucket, snapshot)...)
	}
	return out
}

func candidateSet(cfg runconfig.RunConfig, files []string, snapshot *catalog.Snapshot) []string {
	if len(cfg.Only) > 0 {
		return dedupPreserveOrder(cfg.Only)
	}
	if len(cfg.Languages) > 0 {
		return toolsForLanguages(cfg.Languages, snapshot)
	}
	detected := detectLanguages(files, snapshot)
	if len(detected) > 0 {
		return toolsForLanguages(detected, snapshot)
	}
	var out []string
	for _, t := range snapshot.Tools() {
		if t.DefaultEnabled {
			out = append(out, t.Name)
		}
	}
	return out
}

// toolsForLanguages returns the union, in declared-language order, of
// tools whose Languages include each language (spec §4.5 step 1).
func toolsForLanguages(languages []string, snapshot *catalog.Snapshot) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, lang := range languages {
		for _, t := range snapshot.Tools() {
			if !containsString(t.Languages, lang) {
				continue
			}
			if _, ok := seen[t.Name]; ok {
				continue
			}
			seen[t.Name] = struct{}{}
			out = append(out, t.Name)
		}
	}
	return out
}

// detectLanguages infers languages from the discovered files' extensions
// matched against each tool's declared FileExtensions, returning languages
// in a deterministic (sorted) order.
func detectLanguages(files []string, snapshot *catalog.Snapshot) []string {
	extToLang := make(map[string][]string)
	for _, t := range snapshot.Tools() {
		for _, ext := range t.FileExtensions {
			extToLang[ext] = t.Languages
		}
	}
	seen := make(map[string]struct{})
	for _, f := range files {
		ext := extensionOf(f)
		for _, lang := range extToLang[ext] {
			seen[lang] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func extensionOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func filterKnown(candidates []string, snapshot *catalog.Snapshot) []string {
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if _, ok := snapshot.Tool(name); !ok {
			logger.Warn("selector: dropping unknown tool from candidate set", logger.String("tool", name))
			continue
		}
		out = append(out, name)
	}
	return out
}

// bucketByPhase groups candidates by tool.phase in the canonical order
// (spec §4.5 step 3), appending unrecognized phases lexicographically
// after the canonical ones. Within a bucket, candidate order is
// preserved (stable).
func bucketByPhase(candidates []string, snapshot *catalog.Snapshot) [][]string {
	byPhase := make(map[catalog.Phase][]string)
	var extraPhases []string
	seenPhase := make(map[catalog.Phase]bool)

	for _, name := range candidates {
		tool, _ := snapshot.Tool(name)
		byPhase[tool.Phase] = append(byPhase[tool.Phase], name)
		if !seenPhase[tool.Phase] && !isCanonicalPhase(tool.Phase) {
			extraPhases = append(extraPhases, string(tool.Phase))
			seenPhase[tool.Phase] = true
		}
	}
	sort.Strings(extraPhases)

	order := append([]catalog.Phase{}, catalog.PhaseOrder...)
	for _, p := range extraPhases {
		order = append(order, catalog.Phase(p))
	}

	buckets := make([][]string, 0, len(order))
	for _, p := range order {
		if b, ok := byPhase[p]; ok {
			buckets = append(buckets, b)
		}
	}
	return buckets
}

func isCanonicalPhase(p catalog.Phase) bool {
	for _, c := range catalog.PhaseOrder {
		if c == p {
			return true
		}
	}
	return false
}

// topoSortBucket orders a single phase bucket by before/after edges
// restricted to tools present in the bucket, tie-broken by candidate
// order, using Kahn's algorithm. A cycle falls back to the bucket's
// original (candidate) order, deterministically (spec §4.5 step 4).
func topoSortBucket(bucket []string, snapshot *catalog.Snapshot) []string {
	index := make(map[string]int, len(bucket))
	inBucket := make(map[string]bool, len(bucket))
	for i, name := range bucket {
		index[name] = i
		inBucket[name] = true
	}

	// edges[a] = set of tools that must come after a
	edges := make(map[string]map[string]bool)
	indegree := make(map[string]int, len(bucket))
	for _, name := range bucket {
		edges[name] = make(map[string]bool)
		indegree[name] = 0
	}

	addEdge := func(from, to string) {
		if !inBucket[from] || !inBucket[to] || from == to {
			return
		}
		if edges[from][to] {
			return
		}
		edges[from][to] = true
		indegree[to]++
	}

	for _, name := range bucket {
		tool, _ := snapshot.Tool(name)
		for _, after := range tool.After {
			addEdge(after, name) // after lists B => edge B->A(name)
		}
		for _, before := range tool.Before {
			addEdge(name, before) // before lists C => edge A(name)->C
		}
	}

	// Priority queue keyed by candidate order index, implemented as a
	// sorted slice refill since bucket sizes are small (tens of tools).
	var ready []string
	for _, name := range bucket {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sortByIndex(ready, index)

	visited := make(map[string]bool, len(bucket))
	var out []string
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		out = append(out, n)

		var newlyReady []string
		targets := make([]string, 0, len(edges[n]))
		for to := range edges[n] {
			targets = append(targets, to)
		}
		sortByIndex(targets, index)
		for _, to := range targets {
			indegree[to]--
			if indegree[to] == 0 {
				newlyReady = append(newlyReady, to)
			}
		}
		ready = append(ready, newlyReady...)
		sortByIndex(ready, index)
	}

	if len(out) != len(bucket) {
		// cycle detected; deterministic fallback is the original order
		return append([]string{}, bucket...)
	}
	return out
}

func sortByIndex(names []string, index map[string]int) {
	sort.SliceStable(names, func(i, j int) bool {
		return index[names[i]] < index[names[j]]
	})
}

func dedupPreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
