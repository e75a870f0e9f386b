package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareSemverFull(t *testing.T) {
	cases := []struct {
		a, b string
		want Comparison
	}{
		{"1.2.3", "1.2.3", ComparisonEqual},
		{"1.2.3", "1.2.4", ComparisonLess},
		{"2.0.0", "1.9.9", ComparisonGreater},
		{"1.0.0-alpha", "1.0.0", ComparisonLess},
		{"1.0.0-alpha.1", "1.0.0-alpha.2", ComparisonLess},
		{"v1.2.3", "1.2.3", ComparisonEqual},
	}
	for _, tc := range cases {
		got, err := Compare(SchemeSemverFull, tc.a, tc.b)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got, "Compare(%s, %s)", tc.a, tc.b)
	}
}

func TestCompareSemverCompactRejectsPrerelease(t *testing.T) {
	_, err := Compare(SchemeSemverCompact, "1.2.3-rc1", "1.2.3")
	assert.Error(t, err)
}

func TestCompareCalver(t *testing.T) {
	got, err := Compare(SchemeCalver, "2024.01", "2024.02")
	require.NoError(t, err)
	assert.Equal(t, ComparisonLess, got)

	got, err = Compare(SchemeCalver, "2024.01.15", "2024.01.02")
	require.NoError(t, err)
	assert.Equal(t, ComparisonGreater, got)

	_, err = Compare(SchemeCalver, "2024-01", "2024.01")
	assert.Error(t, err)
}

func TestCompareLexicalDefault(t *testing.T) {
	got, err := Compare("", "abc", "abd")
	require.NoError(t, err)
	assert.Equal(t, ComparisonLess, got)
}

func TestEvaluatePolicy(t *testing.T) {
	policy := Policy{
		Scheme:             SchemeSemverFull,
		MinimumVersion:     "1.0.0",
		RecommendedVersion: "2.0.0",
		DisallowedVersions: []string{"1.5.0"},
	}

	eval, err := Evaluate(policy, "1.5.0")
	require.NoError(t, err)
	assert.True(t, eval.MeetsMinimum)
	assert.False(t, eval.MeetsRecommended)
	assert.True(t, eval.IsDisallowed)

	eval, err = Evaluate(policy, "2.1.0")
	require.NoError(t, err)
	assert.True(t, eval.MeetsMinimum)
	assert.True(t, eval.MeetsRecommended)
	assert.False(t, eval.IsDisallowed)
}

func TestEvaluateEmptyVersionErrors(t *testing.T) {
	_, err := Evaluate(Policy{}, "")
	assert.Error(t, err)
}

func TestEvaluateRejectsUnrecognizedScheme(t *testing.T) {
	_, err := Evaluate(Policy{Scheme: "not-a-real-scheme"}, "1.2.3")
	assert.ErrorContains(t, err, "unsupported version scheme")
}

func TestPolicyIsZero(t *testing.T) {
	assert.True(t, Policy{}.IsZero())
	assert.False(t, Policy{MinimumVersion: "1.0.0"}.IsZero())
}

func TestSortDisallowed(t *testing.T) {
	got := SortDisallowed([]string{"1.10.0", "1.2.0", "1.9.0"})
	assert.Equal(t, []string{"1.2.0", "1.9.0", "1.10.0"}, got)
}
