package discovery

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lintforge/lintforge/pkg/runconfig"
)

// GlobStrategy yields cfg.ExplicitFiles verbatim plus every file matching
// an include glob (supporting `**`, which filepath.Glob cannot express)
// under each of cfg.Roots, excluding files matching an exclude glob.
type GlobStrategy struct {
	Includes []string
}

func (s GlobStrategy) Discover(cfg runconfig.FileDiscoveryConfig, root string) ([]string, error) {
	var out []string
	out = append(out, cfg.ExplicitFiles...)

	if len(s.Includes) == 0 {
		return out, nil
	}

	roots := cfg.Roots
	if len(roots) == 0 {
		roots = []string{root}
	}

	for _, r := range roots {
		fsys := os.DirFS(r)
		for _, include := range s.Includes {
			matches, err := doublestar.Glob(fsys, include)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if excluded(m, cfg.Excludes) {
					continue
				}
				if info, err := fs.Stat(fsys, m); err == nil && info.IsDir() {
					continue
				}
				out = append(out, filepath.Join(r, m))
			}
		}
	}
	return out, nil
}

func excluded(relPath string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
