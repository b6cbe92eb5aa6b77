package core

import "modwire/internal/types"

// populateWireMap converts the winning candidate map into per-module
// wire lists: package wires first, then bundle wires, then generic
// capability wires, stable by declaration order. Hosted wrappers are
// unwrapped so consumers see declared owners.
func populateWireMap(
	m types.Module,
	spaces map[types.Module]*packageSpace,
	wireMap map[types.Module][]*types.Wire,
	cands *Candidates,
) {
	unwrapped := actualModule(m)
	if unwrapped.Wiring() != nil {
		return
	}
	if _, ok := wireMap[unwrapped]; ok {
		return
	}
	wireMap[unwrapped] = []*types.Wire{}

	var packageWires, bundleWires, capabilityWires []*types.Wire
	for _, req := range m.DeclaredRequirements("") {
		candidates := cands.GetCandidates(req)
		if len(candidates) == 0 {
			continue
		}
		chosen := candidates[0]
		provider := chosen.Owner()
		if provider != m {
			populateWireMap(provider, spaces, wireMap, cands)
		}
		wire := &types.Wire{
			Requirer:    unwrapped,
			Requirement: actualRequirement(req),
			Provider:    actualModule(provider),
			Capability:  actualCapability(chosen),
		}
		switch req.Namespace() {
		case types.PackageNamespace:
			packageWires = append(packageWires, wire)
		case types.BundleNamespace:
			bundleWires = append(bundleWires, wire)
		case types.HostNamespace:
			// Host wires are emitted below, from the host side.
		default:
			capabilityWires = append(capabilityWires, wire)
		}
	}
	wires := append(packageWires, bundleWires...)
	wires = append(wires, capabilityWires...)
	wireMap[unwrapped] = wires

	if host, ok := m.(*HostModule); ok {
		hostCaps := host.Host().DeclaredCapabilities(types.HostNamespace)
		for _, fragment := range host.Fragments() {
			hostWire := &types.Wire{
				Requirer:    fragment,
				Requirement: fragment.DeclaredRequirements(types.HostNamespace)[0],
				Provider:    host.Host(),
				Capability:  hostCaps[0],
			}
			wireMap[fragment] = append(wireMap[fragment], hostWire)
		}
	}
}

// populateDynamicWireMap emits the single-package wire list for a
// dynamic import. The emitted wire carries a fresh synthetic
// requirement so repeated dynamic imports stay distinct.
func populateDynamicWireMap(
	m types.Module,
	pkgName string,
	spaces map[types.Module]*packageSpace,
	wireMap map[types.Module][]*types.Wire,
	cands *Candidates,
) {
	wireMap[m] = []*types.Wire{}

	var packageWires []*types.Wire
	space := spaces[cands.WrappedHost(m)]
	for _, blames := range space.imported {
		for _, imported := range blames {
			provider := imported.cap.Owner()
			if provider == m || types.PackageName(imported.cap) != pkgName {
				continue
			}
			if actualModule(provider).Wiring() == nil {
				populateWireMap(provider, spaces, wireMap, cands)
			}
			revision, ok := m.(*types.ModuleRevision)
			if !ok {
				continue
			}
			packageWires = append(packageWires, &types.Wire{
				Requirer:    m,
				Requirement: types.NewDynamicRequirement(revision, pkgName),
				Provider:    actualModule(provider),
				Capability:  actualCapability(imported.cap),
			})
		}
	}
	wireMap[m] = packageWires
}
