package core

import "modwire/internal/types"

// packageSources returns every capability that contributes the same
// package as cap to cap's owner: the owner's own exports of that name
// plus anything reachable through reexported require-bundle edges.
// Memoized per resolve attempt; the cache is cleared whenever the
// candidate map changes.
func (r *Resolver) packageSources(cap types.Capability, spaces map[types.Module]*packageSpace) []types.Capability {
	if cap.Namespace() == types.PackageNamespace {
		if sources, ok := r.sourcesCache[cap]; ok {
			return sources
		}
		sources := packageSourcesInternal(cap, spaces, nil, map[types.Capability]bool{})
		r.sourcesCache[cap] = sources
		return sources
	}
	// Capabilities in other namespaces with a uses directive act as
	// their own single source so generic uses propagation works.
	if len(cap.Uses()) > 0 {
		return []types.Capability{cap}
	}
	return nil
}

func packageSourcesInternal(
	cap types.Capability,
	spaces map[types.Module]*packageSpace,
	sources []types.Capability,
	cycle map[types.Capability]bool,
) []types.Capability {
	if cap.Namespace() != types.PackageNamespace {
		return sources
	}
	if cycle[cap] {
		return sources
	}
	cycle[cap] = true

	pkgName := types.PackageName(cap)
	owner := cap.Owner()

	caps := owner.DeclaredCapabilities("")
	if owner.Wiring() != nil {
		caps = owner.Wiring().Capabilities("")
	}
	for _, ownerCap := range caps {
		if ownerCap.Namespace() == types.PackageNamespace && types.PackageName(ownerCap) == pkgName {
			sources = append(sources, ownerCap)
		}
	}

	if space := spaces[owner]; space != nil {
		for _, required := range space.required[pkgName] {
			sources = packageSourcesInternal(required.cap, spaces, sources, cycle)
		}
	}
	return sources
}

// isCompatible reports whether two capabilities may both be visible as
// the same package: their source sets must be equal or one must
// contain the other. Disjoint provider sets for one package name are
// an incompatibility.
func (r *Resolver) isCompatible(currentCap, candCap types.Capability, spaces map[types.Module]*packageSpace) bool {
	if currentCap == nil || candCap == nil || currentCap == candCap {
		return true
	}
	currentSources := r.packageSources(currentCap, spaces)
	candSources := r.packageSources(candCap, spaces)
	return containsAll(currentSources, candSources) || containsAll(candSources, currentSources)
}

func containsAll(haystack, needles []types.Capability) bool {
	for _, needle := range needles {
		found := false
		for _, cap := range haystack {
			if cap == needle {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
