package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"modwire/internal/types"
)

func buildSpaces(t *testing.T, env *testEnv, root types.Module) (*Resolver, *Candidates, map[types.Module]*packageSpace) {
	t.Helper()
	resolver := NewResolver()
	cands, err := NewCandidates(env, root)
	require.NoError(t, err)
	require.NoError(t, cands.Prepare())
	spaces := map[types.Module]*packageSpace{}
	resolver.buildPackageSpaces(cands.WrappedHost(root), cands, spaces,
		map[types.Capability][]types.Module{}, map[types.Module]bool{})
	return resolver, cands, spaces
}

func TestSpacesSubstitutableExportElided(t *testing.T) {
	a := newModule("a", "1.0.0")
	aCap := exportPkg(a, "p")
	b := newModule("b", "1.0.0")
	exportPkg(b, "p")
	bImp := importPkg(b, "p")
	env := newTestEnv(a, b)
	env.order(bImp, aCap)

	_, _, spaces := buildSpaces(t, env, b)

	space := spaces[types.Module(b)]
	require.NotContains(t, space.exported, "p")
	require.Len(t, space.imported["p"], 1)
	require.Equal(t, aCap, space.imported["p"][0].cap)
}

func TestSpacesRequireBundleReexportClosure(t *testing.T) {
	a := newModule("a", "1.0.0")
	aCap := exportPkg(a, "pa")
	provideBundle(a, "a")
	b := newModule("b", "1.0.0")
	bCap := exportPkg(b, "pb")
	provideBundle(b, "b")
	requireBundle(b, "a", true)
	c := newModule("c", "1.0.0")
	requireBundle(c, "b", false)
	env := newTestEnv(a, b, c)

	_, _, spaces := buildSpaces(t, env, c)

	space := spaces[types.Module(c)]
	require.Len(t, space.required["pb"], 1)
	require.Equal(t, bCap, space.required["pb"][0].cap)
	// The reexported bundle edge pulls a's exports through b.
	require.Len(t, space.required["pa"], 1)
	require.Equal(t, aCap, space.required["pa"][0].cap)
}

func TestSpacesPrivateRequireBundleDoesNotReexport(t *testing.T) {
	a := newModule("a", "1.0.0")
	exportPkg(a, "pa")
	provideBundle(a, "a")
	b := newModule("b", "1.0.0")
	exportPkg(b, "pb")
	provideBundle(b, "b")
	requireBundle(b, "a", false)
	c := newModule("c", "1.0.0")
	requireBundle(c, "b", false)
	env := newTestEnv(a, b, c)

	_, _, spaces := buildSpaces(t, env, c)

	space := spaces[types.Module(c)]
	require.Len(t, space.required["pb"], 1)
	require.NotContains(t, space.required, "pa")
}

func TestSpacesUsesClosureRecordsCommitments(t *testing.T) {
	a := newModule("a", "1.0.0")
	aCap := exportPkg(a, "p")
	u := newModule("u", "1.0.0")
	exportPkg(u, "q", "p")
	uImp := importPkg(u, "p")
	c := newModule("c", "1.0.0")
	importPkg(c, "q")
	env := newTestEnv(a, u, c)
	env.order(uImp, aCap)

	_, _, spaces := buildSpaces(t, env, c)

	space := spaces[types.Module(c)]
	require.Len(t, space.used["p"], 1)
	require.Equal(t, aCap, space.used["p"][0].cap)
	// The blame chain runs through c's import of q and u's import of p.
	require.Len(t, space.used["p"][0].reqs, 2)
}

func TestSpacesSelfImportElidedFromUses(t *testing.T) {
	a := newModule("a", "1.0.0")
	aCap := exportPkg(a, "p")
	aImp := importPkg(a, "p")
	env := newTestEnv(a)
	env.order(aImp, aCap)

	_, _, spaces := buildSpaces(t, env, a)

	space := spaces[types.Module(a)]
	require.Empty(t, space.used)
}

func TestPackageSourcesFollowRequiredBundles(t *testing.T) {
	a := newModule("a", "1.0.0")
	aCap := exportPkg(a, "p")
	provideBundle(a, "a")
	b := newModule("b", "1.0.0")
	bCap := exportPkg(b, "p")
	requireBundle(b, "a", true)
	c := newModule("c", "1.0.0")
	cImp := importPkg(c, "p")
	env := newTestEnv(a, b, c)
	env.order(cImp, bCap)

	resolver, _, spaces := buildSpaces(t, env, c)

	sources := resolver.packageSources(bCap, spaces)
	require.Contains(t, sources, types.Capability(bCap))
	require.Contains(t, sources, types.Capability(aCap))
}

func TestIsCompatibleSubsetRule(t *testing.T) {
	a := newModule("a", "1.0.0")
	aCap := exportPkg(a, "p")
	b := newModule("b", "1.0.0")
	bCap := exportPkg(b, "p")
	c := newModule("c", "1.0.0")
	cImp := importPkg(c, "p")
	env := newTestEnv(a, b, c)
	env.order(cImp, aCap)

	resolver, _, spaces := buildSpaces(t, env, c)

	require.True(t, resolver.isCompatible(aCap, aCap, spaces))
	require.False(t, resolver.isCompatible(aCap, bCap, spaces))
	require.True(t, resolver.isCompatible(nil, bCap, spaces))
}
