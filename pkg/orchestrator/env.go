package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
)

// nodeDefaults are set only when the variable is absent from the process
// environment (spec §5 "Environment variables consumed").
var nodeDefaults = []struct{ key, value string }{
	{"CI", "1"},
	{"npm_config_yes", "true"},
	{"npm_config_fund", "false"},
	{"npm_config_audit", "false"},
	{"npm_config_progress", "false"},
	{"NPX_SILENT", "1"},
}

// primeEnvironment builds the base environment every invocation of this
// run layers its own env on top of (spec §4.9 step 1): the process's own
// environment, with the nearest virtualenv bin/ prepended to PATH and the
// Node CI defaults set where absent.
func primeEnvironment(root string) map[string]string {
	env := environToMap(os.Environ())

	if bin, ok := findNearestVenvBin(root); ok {
		sep := string(os.PathListSeparator)
		if existing := env["PATH"]; existing != "" {
			env["PATH"] = bin + sep + existing
		} else {
			env["PATH"] = bin
		}
	}

	for _, d := range nodeDefaults {
		if _, set := env[d.key]; !set {
			env[d.key] = d.value
		}
	}
	return env
}

// findNearestVenvBin walks upward from root looking for a `.venv/bin` or
// `venv/bin` directory, returning the first one found.
func findNearestVenvBin(root string) (string, bool) {
	dir := root
	for {
		for _, candidate := range []string{".venv/bin", "venv/bin"} {
			path := filepath.Join(dir, candidate)
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return path, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func environToMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}

// mergeStringMaps returns a new map holding base's entries overridden by
// overlay's. Either argument may be nil.
func mergeStringMaps(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
