package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterEquality(t *testing.T) {
	filter, err := ParseFilter("(osgi.wiring.package=com.example.api)")
	require.NoError(t, err)
	require.True(t, filter.Matches(map[string]any{"osgi.wiring.package": "com.example.api"}))
	require.False(t, filter.Matches(map[string]any{"osgi.wiring.package": "com.example.impl"}))
	require.False(t, filter.Matches(map[string]any{}))
}

func TestFilterWildcard(t *testing.T) {
	filter, err := ParseFilter("(osgi.wiring.package=com.example.*)")
	require.NoError(t, err)
	require.True(t, filter.Matches(map[string]any{"osgi.wiring.package": "com.example.api"}))
	require.False(t, filter.Matches(map[string]any{"osgi.wiring.package": "org.other"}))
}

func TestFilterConjunctionWithVersionRange(t *testing.T) {
	filter, err := ParseFilter("(&(osgi.wiring.package=com.example.api)(version>=1.2.0))")
	require.NoError(t, err)
	require.True(t, filter.Matches(map[string]any{
		"osgi.wiring.package": "com.example.api",
		"version":             "1.3.0",
	}))
	require.False(t, filter.Matches(map[string]any{
		"osgi.wiring.package": "com.example.api",
		"version":             "1.1.0",
	}))
}

func TestFilterDisjunctionAndNegation(t *testing.T) {
	filter, err := ParseFilter("(|(a=1)(a=2))")
	require.NoError(t, err)
	require.True(t, filter.Matches(map[string]any{"a": "2"}))
	require.False(t, filter.Matches(map[string]any{"a": "3"}))

	negated, err := ParseFilter("(!(a=1))")
	require.NoError(t, err)
	require.False(t, negated.Matches(map[string]any{"a": "1"}))
	require.True(t, negated.Matches(map[string]any{"a": "2"}))
}

func TestFilterNumericComparison(t *testing.T) {
	filter, err := ParseFilter("(weight<=10)")
	require.NoError(t, err)
	require.True(t, filter.Matches(map[string]any{"weight": 9}))
	require.False(t, filter.Matches(map[string]any{"weight": 11}))
}

func TestFilterListAttribute(t *testing.T) {
	filter, err := ParseFilter("(tag=stable)")
	require.NoError(t, err)
	require.True(t, filter.Matches(map[string]any{"tag": []any{"beta", "stable"}}))
	require.False(t, filter.Matches(map[string]any{"tag": []any{"beta"}}))
}

func TestFilterEmptyMatchesEverything(t *testing.T) {
	filter, err := ParseFilter("")
	require.NoError(t, err)
	require.True(t, filter.Matches(nil))
}

func TestFilterRejectsMalformedInput(t *testing.T) {
	for _, expr := range []string{"(", "(a=)", "a=b", "(&)", "(a=b)(c=d)"} {
		_, err := ParseFilter(expr)
		require.Error(t, err, "expected parse failure for %q", expr)
	}
}
