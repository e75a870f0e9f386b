package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load scans root for catalog documents, validates each against its JSON
// Schema, resolves `extends` fragment inheritance, binds strategy
// references against registry, and returns an immutable Snapshot (spec
// §4.1). registry may be nil, in which case the check that each strategy
// id has a registered implementation is skipped; every referenced id must
// still be declared by a strategy document of the matching kind (useful
// for tooling that only needs the data model, e.g. a catalog linter run
// before any strategies are registered).
func Load(root string, registry *Registry) (*Snapshot, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	rawFiles := make(map[string][]byte)
	fragments := make(map[string]Fragment)
	var toolDocs []fileDoc
	var strategyDocs []fileDoc

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		parts := strings.Split(rel, "/")

		// docs/ assets contribute raw bytes to the checksum but are not
		// parsed as catalog documents (spec §4.1: "documentation files").
		if containsComponent(parts, "docs") {
			data, err := readDocBytes(path)
			if err != nil {
				return fmt.Errorf("catalog: read %s: %w", rel, err)
			}
			rawFiles[rel] = data
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filepath.Base(rel) == "cache.json" {
			return nil
		}

		data, err := readDocBytes(path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", rel, err)
		}
		rawFiles[rel] = data

		body, err := decodeDocument(ext, data)
		if err != nil {
			return fmt.Errorf("catalog: parse %s: %w", rel, err)
		}

		switch {
		case strings.HasPrefix(filepath.Base(rel), "_"):
			name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(rel), "_"), filepath.Ext(rel))
			if existing, dup := fragments[name]; dup {
				return &CatalogIntegrityError{Kind: "duplicate", Subject: name, Detail: fmt.Sprintf("fragment %q declared in both %s and %s", name, existing.sourceFile, rel)}
			}
			fragments[name] = Fragment{Name: name, Body: body, sourceFile: rel}
		case containsComponent(parts, "strategies"):
			strategyDocs = append(strategyDocs, fileDoc{path: rel, body: body})
		default:
			toolDocs = append(toolDocs, fileDoc{path: rel, body: body})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	strategies, err := loadStrategies(schemas, strategyDocs)
	if err != nil {
		return nil, err
	}

	tools, err := loadTools(schemas, toolDocs, fragments)
	if err != nil {
		return nil, err
	}

	if err := checkIntegrity(tools, strategies, registry); err != nil {
		return nil, err
	}

	checksum := checksumFiles(rawFiles)
	return NewSnapshot(checksum, tools, strategies), nil
}

type fileDoc struct {
	path string
	body map[string]any
}

func readDocBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func containsComponent(parts []string, component string) bool {
	for _, p := range parts {
		if p == component {
			return true
		}
	}
	return false
}

func decodeDocument(ext string, data []byte) (map[string]any, error) {
	var body map[string]any
	if ext == ".json" {
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return body, nil
	}
	if err := yaml.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func loadStrategies(schemas *compiledSchemas, docs []fileDoc) ([]Strategy, error) {
	out := make([]Strategy, 0, len(docs))
	for _, doc := range docs {
		if err := validateDocument(schemas.strategy, doc.path, doc.body); err != nil {
			return nil, err
		}
		var st Strategy
		if err := remarshal(doc.body, &st); err != nil {
			return nil, fmt.Errorf("catalog: decode strategy %s: %w", doc.path, err)
		}
		st.sourceFile = doc.path
		out = append(out, st)
	}
	return out, nil
}

func loadTools(schemas *compiledSchemas, docs []fileDoc, fragments map[string]Fragment) ([]Tool, error) {
	out := make([]Tool, 0, len(docs))
	for _, doc := range docs {
		resolved, err := resolveExtends(doc.path, doc.body, fragments, nil)
		if err != nil {
			return nil, err
		}
		if err := validateDocument(schemas.tool, doc.path, resolved); err != nil {
			return nil, err
		}
		var tool Tool
		if err := remarshal(resolved, &tool); err != nil {
			return nil, fmt.Errorf("catalog: decode tool %s: %w", doc.path, err)
		}
		tool.sourceFile = doc.path
		tool.Extends = nil
		out = append(out, tool)
	}
	return out, nil
}

// resolveExtends merges a tool document's named fragments into it,
// applying them in declaration order so later entries win on scalar
// conflicts (spec §4.1: extends is depth-first, declared-order). visiting
// detects cycles between fragments.
func resolveExtends(file string, doc map[string]any, fragments map[string]Fragment, visiting map[string]bool) (map[string]any, error) {
	rawExtends, ok := doc["extends"]
	if !ok {
		return doc, nil
	}
	names, err := stringSlice(rawExtends)
	if err != nil {
		return nil, &CatalogValidationError{File: file, Reasons: []string{"extends: " + err.Error()}}
	}

	merged := map[string]any{}
	for _, name := range names {
		frag, ok := fragments[name]
		if !ok {
			return nil, &CatalogIntegrityError{Kind: "extends", Subject: file, Detail: fmt.Sprintf("fragment %q not found", name)}
		}
		if visiting[name] {
			return nil, &CatalogIntegrityError{Kind: "extends", Subject: file, Detail: fmt.Sprintf("cyclic extends via fragment %q", name)}
		}
		nextVisiting := map[string]bool{name: true}
		for k, v := range visiting {
			nextVisiting[k] = v
		}
		fragBody := frag.Body
		if _, hasExtends := fragBody["extends"]; hasExtends {
			fragBody, err = resolveExtends(frag.sourceFile, fragBody, fragments, nextVisiting)
			if err != nil {
				return nil, err
			}
		}
		merged = mergeDocuments(merged, fragBody)
	}
	return mergeDocuments(merged, doc), nil
}

func stringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array of strings")
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("expected string entries")
		}
		out = append(out, s)
	}
	return out, nil
}

// remarshal is the cheapest correct way to turn a map[string]any document
// (already schema-validated) into a concrete Go struct: JSON round-trip
// via the struct's own json tags.
func remarshal(body map[string]any, dst any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// checkIntegrity verifies cross-references that JSON Schema cannot express:
// tool names and strategy ids are unique across the catalog, strategy ids
// resolve to a registered implementation of the right kind, before/after
// edges name tools present in this same snapshot, and no tool names a
// fellow tool in both its before and after sets (spec §4.1: "names unique
// across catalog", "strategy id unique", "before ∩ after = ∅").
func checkIntegrity(tools []Tool, strategies []Strategy, registry *Registry) error {
	toolNames := make(map[string]bool, len(tools))
	for _, t := range tools {
		if toolNames[t.Name] {
			return &CatalogIntegrityError{Kind: "duplicate", Subject: t.Name, Detail: fmt.Sprintf("tool name %q declared by more than one catalog document", t.Name)}
		}
		toolNames[t.Name] = true
	}
	stratKind := make(map[string]StrategyKind, len(strategies))
	for _, s := range strategies {
		if _, dup := stratKind[s.ID]; dup {
			return &CatalogIntegrityError{Kind: "duplicate", Subject: s.ID, Detail: fmt.Sprintf("strategy id %q declared by more than one .strategy document", s.ID)}
		}
		stratKind[s.ID] = s.Type
	}

	for _, t := range tools {
		for _, before := range t.Before {
			if !toolNames[before] {
				return &CatalogIntegrityError{Kind: "ordering", Subject: t.Name, Detail: fmt.Sprintf("before references unknown tool %q", before)}
			}
		}
		for _, after := range t.After {
			if !toolNames[after] {
				return &CatalogIntegrityError{Kind: "ordering", Subject: t.Name, Detail: fmt.Sprintf("after references unknown tool %q", after)}
			}
		}
		if overlap := stringSetIntersection(t.Before, t.After); len(overlap) > 0 {
			return &CatalogIntegrityError{Kind: "ordering", Subject: t.Name, Detail: fmt.Sprintf("before and after both name %q", overlap[0])}
		}
		for _, a := range t.Actions {
			if err := checkStrategyRef(registry, stratKind, t.Name, KindCommand, a.Command); err != nil {
				return err
			}
			if a.Parser != nil {
				if err := checkStrategyRef(registry, stratKind, t.Name, KindParser, *a.Parser); err != nil {
					return err
				}
			}
		}
		if t.Runtime != nil && t.Runtime.Install != nil {
			if err := checkStrategyRef(registry, stratKind, t.Name, KindInstaller, *t.Runtime.Install); err != nil {
				return err
			}
		}
	}
	return nil
}

// stringSetIntersection returns the elements present in both a and b, in
// a's order, for the before/after disjointness check.
func stringSetIntersection(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var out []string
	for _, v := range a {
		if inB[v] {
			out = append(out, v)
		}
	}
	return out
}

func checkStrategyRef(registry *Registry, stratKind map[string]StrategyKind, toolName string, wantKind StrategyKind, ref StrategyRef) error {
	kind, declared := stratKind[ref.Strategy]
	if !declared {
		return &CatalogIntegrityError{Kind: "strategy", Subject: toolName, Detail: fmt.Sprintf("strategy %q is not declared by any .strategy document", ref.Strategy)}
	}
	if kind != wantKind {
		return &CatalogIntegrityError{Kind: "strategy", Subject: toolName, Detail: fmt.Sprintf("strategy %q is declared as %q, expected %q", ref.Strategy, kind, wantKind)}
	}
	if registry != nil && !registry.Has(wantKind, ref.Strategy) {
		return &CatalogIntegrityError{Kind: "strategy", Subject: toolName, Detail: fmt.Sprintf("strategy %q has no registered %q implementation", ref.Strategy, wantKind)}
	}
	return nil
}
