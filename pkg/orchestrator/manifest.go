package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const toolVersionsFile = "tool-versions.json"

// loadToolVersions reads `<cache_dir>/tool-versions.json` (spec §6 "Cache
// directory layout"). A missing or malformed manifest is not an error —
// it behaves like an empty manifest, matching the cache's CacheUnavailable
// contract (spec §7): neither read nor write ever raises.
func loadToolVersions(cacheDir string) map[string]string {
	data, err := os.ReadFile(filepath.Join(cacheDir, toolVersionsFile))
	if err != nil {
		return map[string]string{}
	}
	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return map[string]string{}
	}
	return manifest
}

// saveToolVersions persists the manifest via temp-file-then-rename, the
// same tear-free write discipline pkg/resultcache uses for entries.
func saveToolVersions(cacheDir string, versions map[string]string) {
	data, err := json.MarshalIndent(versions, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return
	}
	tmp, err := os.CreateTemp(cacheDir, toolVersionsFile+".*.tmp")
	if err != nil {
		return
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		return
	}
	if err := os.Rename(tmpPath, filepath.Join(cacheDir, toolVersionsFile)); err != nil {
		os.Remove(tmpPath)
	}
}
