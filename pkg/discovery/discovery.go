// Package discovery implements the file discovery service (C4, spec
// §4.4): an ordered composition of strategies producing a deduplicated,
// root-bounded file list.
package discovery

import (
	"path/filepath"
	"strings"

	"github.com/lintforge/lintforge/pkg/runconfig"
)

// Strategy yields candidate paths for a run. Strategies may be lazy; the
// Service consumes them eagerly and does not assume order-stability
// across calls.
type Strategy interface {
	Discover(cfg runconfig.FileDiscoveryConfig, root string) ([]string, error)
}

// Service runs an ordered list of Strategies and reduces their combined
// output to a canonicalized, deduplicated, root-bounded file list.
type Service struct {
	strategies []Strategy
}

// NewService returns a Service that runs strategies in the given order.
func NewService(strategies ...Strategy) *Service {
	return &Service{strategies: strategies}
}

// Run executes every configured strategy in order, canonicalizes each
// yielded path, deduplicates by canonical path (first-seen order
// preserved), and applies limit_to filtering (spec §4.4).
func (s *Service) Run(cfg runconfig.FileDiscoveryConfig, root string) ([]string, error) {
	seen := make(map[string]struct{})
	var ordered []string

	for _, strat := range s.strategies {
		paths, err := strat.Discover(cfg, root)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			canonical, err := canonicalize(p)
			if err != nil {
				continue // path cannot be made absolute; skip rather than fail the run
			}
			if _, dup := seen[canonical]; dup {
				continue
			}
			seen[canonical] = struct{}{}
			ordered = append(ordered, canonical)
		}
	}

	if len(cfg.LimitTo) == 0 {
		return ordered, nil
	}

	limits := make([]string, 0, len(cfg.LimitTo))
	for _, l := range cfg.LimitTo {
		c, err := canonicalize(l)
		if err != nil {
			continue
		}
		limits = append(limits, c)
	}

	out := make([]string, 0, len(ordered))
	for _, p := range ordered {
		if underAnyLimit(p, limits) {
			out = append(out, p)
		}
	}
	return out, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = abs
	}
	return filepath.ToSlash(resolved), nil
}

// underAnyLimit reports whether path is, or is a descendant of, any
// resolved limit directory. Both arguments are slash-separated absolute
// canonical paths (see canonicalize), so a simple prefix check suffices.
func underAnyLimit(path string, limits []string) bool {
	for _, limit := range limits {
		if path == limit || strings.HasPrefix(path, limit+"/") {
			return true
		}
	}
	return false
}
