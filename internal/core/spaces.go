package core

import (
	"strings"

	"modwire/internal/types"
)

// blame is a capability plus the requirement chain explaining why it
// is visible to a subject module. A nil chain means the capability is
// exported directly by the subject.
type blame struct {
	cap  types.Capability
	reqs []types.Requirement
}

// packageSpace is the per-module view of exported, imported, required,
// and transitively used packages.
type packageSpace struct {
	module   types.Module
	exported map[string]*blame
	imported map[string][]*blame
	required map[string][]*blame
	used     map[string][]*blame
}

func newPackageSpace(m types.Module) *packageSpace {
	return &packageSpace{
		module:   m,
		exported: map[string]*blame{},
		imported: map[string][]*blame{},
		required: map[string][]*blame{},
		used:     map[string][]*blame{},
	}
}

// dynamicRequirements filters a requirement list down to the
// dynamically resolved ones.
func dynamicRequirements(reqs []types.Requirement) []types.Requirement {
	var out []types.Requirement
	for _, req := range reqs {
		if types.IsDynamic(req) {
			out = append(out, req)
		}
	}
	return out
}

// buildPackageSpaces computes the package space of a module and,
// transitively, of every module its current candidate choices reach.
// The four phases are ordered because later phases read earlier ones:
// exports first, then imports/requires, then recursion, then the
// uses closure for resolving (or dynamically importing) modules.
func (r *Resolver) buildPackageSpaces(
	m types.Module,
	cands *Candidates,
	spaces map[types.Module]*packageSpace,
	usesCycle map[types.Capability][]types.Module,
	cycle map[types.Module]bool,
) {
	if cycle[m] {
		return
	}
	cycle[m] = true

	var reqs []types.Requirement
	var caps []types.Capability
	isDynamicImporting := false
	if m.Wiring() != nil {
		for _, wire := range m.Wiring().RequiredWires() {
			reqs = append(reqs, wire.Requirement)
			caps = append(caps, wire.Capability)
		}
		// A wired module may be in the middle of a dynamic import;
		// only one dynamic package resolves at a time.
		for _, req := range dynamicRequirements(m.Wiring().Requirements("")) {
			candidates := cands.GetCandidates(req)
			if len(candidates) == 0 {
				continue
			}
			reqs = append(reqs, req)
			caps = append(caps, candidates[0])
			isDynamicImporting = true
			break
		}
	} else {
		for _, req := range m.DeclaredRequirements("") {
			if types.IsDynamic(req) {
				continue
			}
			candidates := cands.GetCandidates(req)
			if len(candidates) == 0 {
				continue
			}
			reqs = append(reqs, req)
			caps = append(caps, candidates[0])
		}
	}

	calculateExportedPackages(m, cands, spaces)
	space := spaces[m]

	for i := range reqs {
		calculateExportedPackages(caps[i].Owner(), cands, spaces)
		mergeCandidatePackages(m, reqs[i], caps[i], spaces, cands, map[types.Capability]bool{})
	}

	for i := range caps {
		r.buildPackageSpaces(caps[i].Owner(), cands, spaces, usesCycle, cycle)
	}

	// The uses closure only matters while a module is being resolved
	// (or while a wired module takes on a dynamic import); a wired
	// module's space is consistent by definition.
	if m.Wiring() != nil && !isDynamicImporting {
		return
	}
	for i := range reqs {
		if caps[i].Owner() == m {
			continue
		}
		r.mergeUses(m, space, caps[i], []types.Requirement{reqs[i]}, spaces, usesCycle)
	}
	for _, blames := range space.imported {
		for _, imported := range blames {
			if imported.cap.Owner() == m {
				continue
			}
			r.mergeUses(m, space, imported.cap, []types.Requirement{imported.reqs[0]}, spaces, usesCycle)
		}
	}
	for _, blames := range space.required {
		for _, required := range blames {
			r.mergeUses(m, space, required.cap, []types.Requirement{required.reqs[0]}, spaces, usesCycle)
		}
	}
}

// calculateExportedPackages fills a module's exported map, eliding
// substitutable exports: a package both exported and imported is seen
// through the import.
func calculateExportedPackages(m types.Module, cands *Candidates, spaces map[types.Module]*packageSpace) {
	if _, ok := spaces[m]; ok {
		return
	}
	space := newPackageSpace(m)

	caps := m.DeclaredCapabilities("")
	if m.Wiring() != nil {
		caps = m.Wiring().Capabilities("")
	}
	exports := map[string]types.Capability{}
	for _, cap := range caps {
		if cap.Namespace() == types.PackageNamespace {
			exports[types.PackageName(cap)] = cap
		}
	}
	if len(exports) > 0 {
		if m.Wiring() != nil {
			for _, wire := range m.Wiring().RequiredWires() {
				if wire.Requirement.Namespace() == types.PackageNamespace {
					delete(exports, types.PackageName(wire.Capability))
				}
			}
		} else {
			for _, req := range m.DeclaredRequirements("") {
				if req.Namespace() != types.PackageNamespace {
					continue
				}
				candidates := cands.GetCandidates(req)
				if len(candidates) == 0 {
					continue
				}
				delete(exports, types.PackageName(candidates[0]))
			}
		}
		for pkg, cap := range exports {
			space.exported[pkg] = &blame{cap: cap}
		}
	}
	spaces[m] = space
}

// mergeCandidatePackages records what a chosen candidate makes visible
// to the current module: a single package for package-namespace
// candidates, or the provider's whole export set (plus reexported
// require-bundle closures) for bundle-namespace ones.
func mergeCandidatePackages(
	current types.Module,
	currentReq types.Requirement,
	candCap types.Capability,
	spaces map[types.Module]*packageSpace,
	cands *Candidates,
	visited map[types.Capability]bool,
) {
	if visited[candCap] {
		return
	}
	visited[candCap] = true

	switch candCap.Namespace() {
	case types.PackageNamespace:
		mergeCandidatePackage(current, false, currentReq, candCap, spaces)
	case types.BundleNamespace:
		provider := candCap.Owner()
		calculateExportedPackages(provider, cands, spaces)
		for _, exported := range spaces[provider].exported {
			mergeCandidatePackage(current, true, currentReq, exported.cap, spaces)
		}
		reqs := provider.DeclaredRequirements("")
		if provider.Wiring() != nil {
			reqs = provider.Wiring().Requirements("")
		}
		for _, req := range reqs {
			if req.Namespace() != types.BundleNamespace || !types.IsReexport(req) {
				continue
			}
			candidates := cands.GetCandidates(req)
			if len(candidates) == 0 {
				continue
			}
			mergeCandidatePackages(current, currentReq, candidates[0], spaces, cands, visited)
		}
	}
}

func mergeCandidatePackage(
	current types.Module,
	requires bool,
	currentReq types.Requirement,
	candCap types.Capability,
	spaces map[types.Module]*packageSpace,
) {
	if candCap.Namespace() != types.PackageNamespace {
		return
	}
	pkgName := types.PackageName(candCap)
	entry := &blame{cap: candCap, reqs: []types.Requirement{currentReq}}
	space := spaces[current]
	if requires {
		space.required[pkgName] = append(space.required[pkgName], entry)
	} else {
		space.imported[pkgName] = append(space.imported[pkgName], entry)
	}
}

// mergeUses walks the uses directives of a visible capability's
// package sources and records, per used package, which provider the
// current module is thereby committed to. The cycle map keys on the
// capability and remembers which subjects it was already merged for.
func (r *Resolver) mergeUses(
	current types.Module,
	currentSpace *packageSpace,
	mergeCap types.Capability,
	blameReqs []types.Requirement,
	spaces map[types.Module]*packageSpace,
	cycleMap map[types.Capability][]types.Module,
) {
	if current == mergeCap.Owner() {
		return
	}
	for _, subject := range cycleMap[mergeCap] {
		if subject == current {
			return
		}
	}
	cycleMap[mergeCap] = append(cycleMap[mergeCap], current)

	for _, sourceCap := range r.packageSources(mergeCap, spaces) {
		for _, usedPkgName := range sourceCap.Uses() {
			sourceSpace := spaces[sourceCap.Owner()]
			if sourceSpace == nil {
				continue
			}
			var sourceBlames []*blame
			if exported, ok := sourceSpace.exported[usedPkgName]; ok {
				sourceBlames = []*blame{exported}
			} else {
				sourceBlames = sourceSpace.imported[usedPkgName]
			}
			if len(sourceBlames) == 0 {
				continue
			}
			for _, sourceBlame := range sourceBlames {
				extended := blameReqs
				if len(sourceBlame.reqs) > 0 {
					extended = append(append([]types.Requirement(nil), blameReqs...),
						sourceBlame.reqs[len(sourceBlame.reqs)-1])
				}
				currentSpace.used[usedPkgName] = append(
					currentSpace.used[usedPkgName],
					&blame{cap: sourceBlame.cap, reqs: extended})
				r.mergeUses(current, currentSpace, sourceBlame.cap, extended, spaces, cycleMap)
			}
		}
	}
}

// formatBlame renders a blame chain as an indented dependency path.
func formatBlame(b *blame) string {
	if len(b.reqs) == 0 {
		return "  " + types.Describe(b.cap.Owner())
	}
	var sb strings.Builder
	for _, req := range b.reqs {
		sb.WriteString("  ")
		sb.WriteString(types.Describe(req.Owner()))
		sb.WriteString("\n")
		if req.Namespace() == types.PackageNamespace {
			sb.WriteString("    import: ")
		} else {
			sb.WriteString("    require: ")
		}
		sb.WriteString(req.Filter())
		sb.WriteString("\n")
	}
	sb.WriteString("    export: ")
	sb.WriteString(types.PackageAttr)
	sb.WriteString("=")
	sb.WriteString(types.PackageName(b.cap))
	sb.WriteString("\n  ")
	sb.WriteString(types.Describe(b.cap.Owner()))
	return sb.String()
}
