package discovery

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/lintforge/lintforge/pkg/runconfig"
)

// GitignoreStrategy walks cfg.Roots (or root if unset), yielding every
// regular file not excluded by .gitignore-family patterns plus a fixed
// set of always-ignored directories. It is grounded on the teacher's
// layered gitignore matcher, generalized here into one discovery
// strategy among several rather than a standalone package.
type GitignoreStrategy struct {
	// ExtraPatterns are appended after the repo's own gitignore patterns,
	// e.g. catalog-driven config_files exclusions.
	ExtraPatterns []string
}

// defaultIgnoredDirs are always skipped regardless of .gitignore content.
var defaultIgnoredDirs = []string{".git", "node_modules", ".scratchpad"}

func (s GitignoreStrategy) Discover(cfg runconfig.FileDiscoveryConfig, root string) ([]string, error) {
	roots := cfg.Roots
	if len(roots) == 0 {
		roots = []string{root}
	}

	var out []string
	for _, r := range roots {
		absRoot, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		matcher, err := buildMatcher(absRoot, append(append([]string{}, s.ExtraPatterns...), cfg.Excludes...))
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}
			parts := strings.Split(rel, "/")
			if d.IsDir() {
				if matcher.Match(parts, true) || isDefaultIgnoredDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if matcher.Match(parts, false) {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isDefaultIgnoredDir(name string) bool {
	for _, d := range defaultIgnoredDirs {
		if name == d {
			return true
		}
	}
	return false
}

func buildMatcher(root string, extraPatterns []string) (gitignore.Matcher, error) {
	fsys := osfs.New(root)

	var patterns []gitignore.Pattern
	for _, d := range defaultIgnoredDirs {
		patterns = append(patterns, gitignore.ParsePattern(d+"/**", nil))
	}
	if gitPatterns, err := gitignore.ReadPatterns(fsys, nil); err == nil {
		patterns = append(patterns, gitPatterns...)
	}
	for _, p := range extraPatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	return gitignore.NewMatcher(patterns), nil
}
