package policies

import (
	"testing"

	semver "github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"

	"modwire/internal/types"
)

func capOf(id string, version string) types.Capability {
	var parsed *semver.Version
	if version != "" {
		parsed = semver.MustParse(version)
	}
	m := types.NewModule(id, id, parsed)
	return m.AddCapability(types.PackageNamespace,
		map[string]any{types.PackageAttr: "p"}, nil, nil)
}

func TestOrderPrefersHighestVersion(t *testing.T) {
	policy := NewPreferencePolicy()
	ordered := policy.Order([]types.Capability{
		capOf("a", "1.0.0"),
		capOf("b", "2.1.0"),
		capOf("c", "2.0.0"),
	})
	require.Equal(t, "b", ordered[0].Owner().ID())
	require.Equal(t, "c", ordered[1].Owner().ID())
	require.Equal(t, "a", ordered[2].Owner().ID())
}

func TestOrderBreaksTiesByModuleID(t *testing.T) {
	policy := NewPreferencePolicy()
	ordered := policy.Order([]types.Capability{
		capOf("zeta", "1.0.0"),
		capOf("alpha", "1.0.0"),
	})
	require.Equal(t, "alpha", ordered[0].Owner().ID())
	require.Equal(t, "zeta", ordered[1].Owner().ID())
}

func TestOrderPutsVersionlessLast(t *testing.T) {
	policy := NewPreferencePolicy()
	ordered := policy.Order([]types.Capability{
		capOf("bare", ""),
		capOf("versioned", "0.1.0"),
	})
	require.Equal(t, "versioned", ordered[0].Owner().ID())
	require.Equal(t, "bare", ordered[1].Owner().ID())
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	policy := NewPreferencePolicy()
	input := []types.Capability{
		capOf("a", "1.0.0"),
		capOf("b", "2.0.0"),
	}
	_ = policy.Order(input)
	require.Equal(t, "a", input[0].Owner().ID())
}
