// Package versioning evaluates a resolved tool runtime's version string
// against a catalog-declared policy (minimum/recommended/disallowed),
// supporting the semver, calver, and lexical comparison schemes a tool
// catalog might declare for a given tool's runtime.
package versioning

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Scheme describes how to compare version strings.
type Scheme string

const (
	SchemeSemverFull    Scheme = "semver-full"
	SchemeSemverCompact Scheme = "semver-compact"
	SchemeSemverLegacy  Scheme = "semver"
	SchemeCalver        Scheme = "calver"
	SchemeLexical       Scheme = "lexical"
)

type Comparison int

const (
	ComparisonUnknown Comparison = iota
	ComparisonLess
	ComparisonEqual
	ComparisonGreater
)

// Policy is the version-policy portion of a catalog Tool.Runtime entry.
type Policy struct {
	Scheme             Scheme   `yaml:"version_scheme,omitempty" json:"version_scheme,omitempty"`
	MinimumVersion     string   `yaml:"minimum_version,omitempty" json:"minimum_version,omitempty"`
	RecommendedVersion string   `yaml:"recommended_version,omitempty" json:"recommended_version,omitempty"`
	DisallowedVersions []string `yaml:"disallowed_versions,omitempty" json:"disallowed_versions,omitempty"`
}

// IsZero reports whether the policy declares no version constraints and no
// scheme other than the lexical default.
func (p Policy) IsZero() bool {
	noConstraints := strings.TrimSpace(p.MinimumVersion) == "" && strings.TrimSpace(p.RecommendedVersion) == "" && len(p.DisallowedVersions) == 0
	if !noConstraints {
		return false
	}
	return p.Scheme == "" || p.Scheme == SchemeLexical
}

// Evaluation is the result of checking an actual resolved version against a Policy.
type Evaluation struct {
	Scheme             Scheme   `json:"scheme"`
	ActualVersion      string   `json:"actual_version"`
	MinimumVersion     string   `json:"minimum_version"`
	RecommendedVersion string   `json:"recommended_version"`
	DisallowedVersions []string `json:"disallowed_versions,omitempty"`

	MeetsMinimum     bool `json:"meets_minimum"`
	MeetsRecommended bool `json:"meets_recommended"`
	IsDisallowed     bool `json:"is_disallowed"`
}

var (
	semverPattern = regexp.MustCompile(`^(?:[vV])?(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)
	calverPattern = regexp.MustCompile(`^([0-9]{4})([._-])([0-9]{2})(?:([._-])([0-9]{2}))?$`)
)

// Evaluate checks an actual version against the policy and reports compliance.
func Evaluate(policy Policy, actual string) (Evaluation, error) {
	normalizedScheme := schemeOrDefault(policy.Scheme)
	eval := Evaluation{
		Scheme:             normalizedScheme,
		ActualVersion:      strings.TrimSpace(actual),
		MinimumVersion:     strings.TrimSpace(policy.MinimumVersion),
		RecommendedVersion: strings.TrimSpace(policy.RecommendedVersion),
		DisallowedVersions: append([]string(nil), policy.DisallowedVersions...),
	}

	if eval.ActualVersion == "" {
		return eval, errors.New("actual version cannot be empty")
	}

	if policy.Scheme != "" && normalizedScheme == SchemeLexical && policy.Scheme != SchemeLexical {
		return eval, fmt.Errorf("unsupported version scheme: %s", policy.Scheme)
	}

	if matchString(eval.ActualVersion, eval.DisallowedVersions) {
		eval.IsDisallowed = true
	}

	if eval.MinimumVersion != "" {
		cmp, err := Compare(eval.Scheme, eval.ActualVersion, eval.MinimumVersion)
		if err != nil {
			return eval, fmt.Errorf("minimum comparison failed: %w", err)
		}
		eval.MeetsMinimum = cmp == ComparisonGreater || cmp == ComparisonEqual
	} else {
		eval.MeetsMinimum = true
	}

	if eval.RecommendedVersion != "" {
		cmp, err := Compare(eval.Scheme, eval.ActualVersion, eval.RecommendedVersion)
		if err != nil {
			return eval, fmt.Errorf("recommended comparison failed: %w", err)
		}
		eval.MeetsRecommended = cmp == ComparisonGreater || cmp == ComparisonEqual
	} else {
		eval.MeetsRecommended = true
	}

	return eval, nil
}

// Compare determines ordering between version a and b using the provided scheme.
func Compare(scheme Scheme, a, b string) (Comparison, error) {
	switch schemeOrDefault(scheme) {
	case SchemeSemverFull:
		return compareSemverFull(a, b)
	case SchemeSemverCompact:
		return compareSemverCompact(a, b)
	case SchemeCalver:
		return compareCalver(a, b)
	default:
		return compareLexical(a, b), nil
	}
}

func schemeOrDefault(s Scheme) Scheme {
	switch s {
	case SchemeSemverCompact:
		return SchemeSemverCompact
	case SchemeCalver:
		return SchemeCalver
	case SchemeLexical:
		return SchemeLexical
	case SchemeSemverFull, SchemeSemverLegacy:
		return SchemeSemverFull
	default:
		return SchemeLexical
	}
}

type semverIdentifier struct {
	raw     string
	numeric bool
	num     int
}

type semverVersion struct {
	major int
	minor int
	patch int
	pre   []semverIdentifier
	build string
}

func compareSemverFull(a, b string) (Comparison, error) {
	av, err := parseSemverVersion(a)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver %q: %w", a, err)
	}
	bv, err := parseSemverVersion(b)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver %q: %w", b, err)
	}
	return compareSemverVersions(av, bv), nil
}

func compareSemverCompact(a, b string) (Comparison, error) {
	av, err := parseSemverVersion(a)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver %q: %w", a, err)
	}
	if len(av.pre) > 0 || av.build != "" {
		return ComparisonUnknown, fmt.Errorf("semver-compact forbids prerelease or build metadata: %s", a)
	}
	bv, err := parseSemverVersion(b)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver %q: %w", b, err)
	}
	if len(bv.pre) > 0 || bv.build != "" {
		return ComparisonUnknown, fmt.Errorf("semver-compact forbids prerelease or build metadata: %s", b)
	}
	return compareSemverVersions(av, bv), nil
}

func parseSemverVersion(input string) (*semverVersion, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New("empty version")
	}

	matches := semverPattern.FindStringSubmatch(trimmed)
	if len(matches) == 0 {
		return nil, fmt.Errorf("invalid format")
	}

	major, err := parseSegment(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid major segment: %w", err)
	}
	minor, err := parseSegment(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid minor segment: %w", err)
	}
	patch, err := parseSegment(matches[3])
	if err != nil {
		return nil, fmt.Errorf("invalid patch segment: %w", err)
	}

	version := &semverVersion{major: major, minor: minor, patch: patch}

	if prerelease := matches[4]; prerelease != "" {
		parts := strings.Split(prerelease, ".")
		version.pre = make([]semverIdentifier, len(parts))
		for i, part := range parts {
			if part == "" {
				return nil, fmt.Errorf("invalid prerelease identifier: empty segment")
			}
			if isNumeric(part) {
				if len(part) > 1 && strings.HasPrefix(part, "0") {
					return nil, fmt.Errorf("invalid prerelease identifier: leading zeros not allowed")
				}
				num, _ := strconv.Atoi(part)
				version.pre[i] = semverIdentifier{raw: part, numeric: true, num: num}
			} else {
				version.pre[i] = semverIdentifier{raw: part}
			}
		}
	}

	if build := matches[5]; build != "" {
		version.build = build
	}

	return version, nil
}

func parseSegment(raw string) (int, error) {
	if len(raw) > 1 && strings.HasPrefix(raw, "0") {
		return 0, fmt.Errorf("leading zeros not allowed: %s", raw)
	}
	return strconv.Atoi(raw)
}

func compareSemverVersions(a, b *semverVersion) Comparison {
	if c := compareInt(a.major, b.major); c != ComparisonEqual {
		return c
	}
	if c := compareInt(a.minor, b.minor); c != ComparisonEqual {
		return c
	}
	if c := compareInt(a.patch, b.patch); c != ComparisonEqual {
		return c
	}

	if len(a.pre) == 0 && len(b.pre) == 0 {
		return ComparisonEqual
	}
	if len(a.pre) == 0 {
		return ComparisonGreater
	}
	if len(b.pre) == 0 {
		return ComparisonLess
	}

	limit := min(len(a.pre), len(b.pre))
	for i := 0; i < limit; i++ {
		ai, bi := a.pre[i], b.pre[i]
		if ai.numeric && bi.numeric {
			if c := compareInt(ai.num, bi.num); c != ComparisonEqual {
				return c
			}
			continue
		}
		if ai.numeric && !bi.numeric {
			return ComparisonLess
		}
		if !ai.numeric && bi.numeric {
			return ComparisonGreater
		}
		if cmp := strings.Compare(ai.raw, bi.raw); cmp != 0 {
			if cmp < 0 {
				return ComparisonLess
			}
			return ComparisonGreater
		}
	}

	return compareInt(len(a.pre), len(b.pre))
}

func compareInt(a, b int) Comparison {
	switch {
	case a < b:
		return ComparisonLess
	case a > b:
		return ComparisonGreater
	default:
		return ComparisonEqual
	}
}

func compareCalver(a, b string) (Comparison, error) {
	aParts, err := parseCalver(a)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid calver %q: %w", a, err)
	}
	bParts, err := parseCalver(b)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid calver %q: %w", b, err)
	}

	longest := max(len(aParts), len(bParts))
	for len(aParts) < longest {
		aParts = append(aParts, 0)
	}
	for len(bParts) < longest {
		bParts = append(bParts, 0)
	}

	for i := 0; i < longest; i++ {
		if c := compareInt(aParts[i], bParts[i]); c != ComparisonEqual {
			return c, nil
		}
	}
	return ComparisonEqual, nil
}

func parseCalver(v string) ([]int, error) {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil, errors.New("empty version")
	}

	matches := calverPattern.FindStringSubmatch(trimmed)
	if len(matches) == 0 {
		return nil, fmt.Errorf("calver requires strict format YYYY.MM or YYYY.MM.DD with consistent separators")
	}

	sep := matches[2]
	if matches[4] != "" && matches[4] != sep {
		return nil, fmt.Errorf("calver requires consistent separators")
	}

	year, err := strconv.Atoi(matches[1])
	if err != nil || year <= 0 {
		return nil, fmt.Errorf("invalid year %q", matches[1])
	}
	month, err := strconv.Atoi(matches[3])
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %q", matches[3])
	}

	segments := []int{year, month}
	if matches[5] != "" {
		day, err := strconv.Atoi(matches[5])
		if err != nil || day < 1 || day > 31 {
			return nil, fmt.Errorf("invalid day %q", matches[5])
		}
		segments = append(segments, day)
	}

	return segments, nil
}

func compareLexical(a, b string) Comparison {
	cmp := strings.Compare(strings.TrimSpace(a), strings.TrimSpace(b))
	switch {
	case cmp < 0:
		return ComparisonLess
	case cmp > 0:
		return ComparisonGreater
	default:
		return ComparisonEqual
	}
}

func matchString(target string, set []string) bool {
	target = strings.TrimSpace(target)
	for _, candidate := range set {
		if target == strings.TrimSpace(candidate) {
			return true
		}
	}
	return false
}

// SortDisallowed returns a sorted copy of the provided versions, for
// consistent reporting in diagnostics/logs.
func SortDisallowed(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	items := append([]string(nil), values...)
	sort.SliceStable(items, func(i, j int) bool {
		cmp, err := compareSemverFull(items[i], items[j])
		if err == nil {
			return cmp == ComparisonLess
		}
		return strings.TrimSpace(items[i]) < strings.TrimSpace(items[j])
	})
	return items
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
