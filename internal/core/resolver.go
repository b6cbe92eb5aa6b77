package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"modwire/internal/ports"
	"modwire/internal/types"
)

// Resolver decides whether a consistent provider assignment exists for
// a root module and emits the wires realizing it. Instance state is
// the permutation stacks and the package-sources cache; both live for
// one resolve call, so a Resolver must not be entered concurrently.
type Resolver struct {
	usesPermutations   []*Candidates
	importPermutations []*Candidates
	sourcesCache       map[types.Capability][]types.Capability
	retracted          []types.Module

	// UseSatPrecheck runs a satisfiability check over the candidate
	// space before the backtracking search, failing fast when no
	// assignment can exist even without uses constraints.
	UseSatPrecheck bool
}

func NewResolver() *Resolver {
	return &Resolver{
		sourcesCache: map[types.Capability][]types.Capability{},
	}
}

func (r *Resolver) reset() {
	r.usesPermutations = nil
	r.importPermutations = nil
	r.sourcesCache = map[types.Capability][]types.Capability{}
}

// Resolve computes the wire map for a root module against the
// environment. Optional modules (typically hinted fragments) are
// attached when possible and retracted when they are to blame for a
// failure.
func (r *Resolver) Resolve(ctx context.Context, env ports.EnvironmentPort, root types.Module, optional []types.Module) (map[types.Module][]*types.Wire, error) {
	wireMap := map[types.Module][]*types.Wire{}
	if root.Wiring() != nil {
		return wireMap, nil
	}
	optionals := append([]types.Module(nil), optional...)
	r.retracted = nil
	defer r.reset()

	retry := true
	for retry {
		retry = false
		r.reset()

		allCandidates, err := NewCandidates(env, root)
		if err != nil {
			return nil, wrapResolveError(err)
		}
		for _, opt := range optionals {
			if err := allCandidates.PopulateOptional(opt); err != nil {
				log.Ctx(ctx).Debug().Str("module", opt.ID()).Err(err).
					Msg("optional module dropped during population")
			}
		}

		var failure *ResolveError
		var finalCands *Candidates
		var spaces map[types.Module]*packageSpace
		target := root

		if err := allCandidates.Prepare(); err != nil {
			failure = asResolveError(err)
		} else {
			hostReqs := root.DeclaredRequirements(types.HostNamespace)
			if r.UseSatPrecheck {
				if err := r.satPrecheck(ctx, allCandidates, root); err != nil {
					return nil, wrapResolveError(err)
				}
			}
			r.usesPermutations = append(r.usesPermutations, allCandidates)
			for len(r.usesPermutations) > 0 || len(r.importPermutations) > 0 {
				cands := r.popPermutation()
				r.sourcesCache = map[types.Capability][]types.Capability{}
				spaces = map[types.Module]*packageSpace{}

				// A fragment root is verified through its host.
				if len(hostReqs) > 0 {
					hostCands := cands.GetCandidates(hostReqs[0])
					if len(hostCands) == 0 {
						failure = newResolveError(FailureUnsatisfied, root, hostReqs[0],
							fmt.Sprintf("fragment %s matches no host", types.Describe(root)))
						continue
					}
					target = hostCands[0].Owner()
				}
				subject := cands.WrappedHost(target)

				r.buildPackageSpaces(subject, cands, spaces,
					map[types.Capability][]types.Module{}, map[types.Module]bool{})
				err := r.checkPackageSpaces(ctx, false, subject, cands, spaces, map[types.Module]bool{})
				if err == nil {
					failure = nil
					finalCands = cands
					break
				}
				failure = asResolveError(err)
			}
		}

		if failure != nil {
			blamed := actualModule(failure.Module)
			if hosted, ok := failure.Requirement.(*HostedRequirement); ok {
				blamed = hosted.Declared().Owner()
			}
			if removed, rest := removeModule(optionals, blamed); removed {
				optionals = rest
				r.retracted = append(r.retracted, blamed)
				retry = true
				log.Ctx(ctx).Debug().Str("module", blamed.ID()).
					Msg("retracting blamed optional module and retrying")
				continue
			}
			return nil, wrapResolveError(failure)
		}

		populateWireMap(finalCands.WrappedHost(target), spaces, wireMap, finalCands)
	}
	log.Ctx(ctx).Debug().Int("modules", len(wireMap)).Msg("resolve completed")
	return wireMap, nil
}

// ResolveDynamic resolves a single dynamic package import against an
// already-wired module. Returns a nil map without error when the
// dynamic import is inapplicable or no provider exists.
func (r *Resolver) ResolveDynamic(ctx context.Context, env ports.EnvironmentPort, root types.Module, pkgName string, optional []types.Module) (map[types.Module][]*types.Wire, error) {
	optionals := append([]types.Module(nil), optional...)
	wireMap := map[types.Module][]*types.Wire{}
	r.retracted = nil
	defer r.reset()

	retry := true
	for retry {
		retry = false
		r.reset()

		allCandidates := getDynamicImportCandidates(env, root, pkgName)
		if allCandidates == nil {
			return nil, nil
		}
		for _, opt := range optionals {
			if err := allCandidates.PopulateOptional(opt); err != nil {
				log.Ctx(ctx).Debug().Str("module", opt.ID()).Err(err).
					Msg("optional module dropped during population")
			}
		}

		var failure *ResolveError
		var finalCands *Candidates
		var spaces map[types.Module]*packageSpace

		if err := allCandidates.Prepare(); err != nil {
			failure = asResolveError(err)
		} else {
			r.usesPermutations = append(r.usesPermutations, allCandidates)
			for len(r.usesPermutations) > 0 || len(r.importPermutations) > 0 {
				cands := r.popPermutation()
				r.sourcesCache = map[types.Capability][]types.Capability{}
				spaces = map[types.Module]*packageSpace{}

				subject := cands.WrappedHost(root)
				r.buildPackageSpaces(subject, cands, spaces,
					map[types.Capability][]types.Module{}, map[types.Module]bool{})
				err := r.checkPackageSpaces(ctx, true, subject, cands, spaces, map[types.Module]bool{})
				if err == nil {
					failure = nil
					finalCands = cands
					break
				}
				failure = asResolveError(err)
			}
		}

		if failure != nil {
			blamed := actualModule(failure.Module)
			if hosted, ok := failure.Requirement.(*HostedRequirement); ok {
				blamed = hosted.Declared().Owner()
			}
			if removed, rest := removeModule(optionals, blamed); removed {
				optionals = rest
				r.retracted = append(r.retracted, blamed)
				retry = true
				continue
			}
			return nil, wrapResolveError(failure)
		}

		populateDynamicWireMap(root, pkgName, spaces, wireMap, finalCands)
	}
	return wireMap, nil
}

// getDynamicImportCandidates checks the dynamic-import preconditions
// and returns the pre-filtered candidate set, or nil when the import
// is inapplicable: the module must be wired, the package non-empty,
// not already sourced, not exported by the module itself, and matched
// by one of the module's dynamic requirements.
func getDynamicImportCandidates(env ports.EnvironmentPort, m types.Module, pkgName string) *Candidates {
	if m.Wiring() == nil || pkgName == "" {
		return nil
	}
	dynamics := dynamicRequirements(m.Wiring().Requirements(""))
	if len(dynamics) == 0 {
		return nil
	}
	for _, cap := range m.Wiring().Capabilities(types.PackageNamespace) {
		if types.PackageName(cap) == pkgName {
			return nil
		}
	}
	if hasPackageSource(m, pkgName) {
		return nil
	}

	revision, ok := m.(*types.ModuleRevision)
	if !ok {
		return nil
	}
	probe := types.NewDynamicRequirement(revision, pkgName)
	candidates := env.Candidates(probe, false)
	if len(candidates) == 0 {
		return nil
	}

	var dynReq types.Requirement
	for _, dyn := range dynamics {
		for _, cap := range candidates {
			if env.Matches(dyn, cap) {
				dynReq = dyn
				break
			}
		}
		if dynReq != nil {
			break
		}
	}
	if dynReq == nil {
		return nil
	}
	var matched []types.Capability
	for _, cap := range candidates {
		if env.Matches(dynReq, cap) {
			matched = append(matched, cap)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return NewDynamicCandidates(env, dynReq, matched)
}

// hasPackageSource reports whether a wired module already sees the
// package through an import or a (reexported) require-bundle edge.
func hasPackageSource(m types.Module, pkgName string) bool {
	for _, wire := range m.Wiring().RequiredWires() {
		switch wire.Requirement.Namespace() {
		case types.PackageNamespace:
			if types.PackageName(wire.Capability) == pkgName {
				return true
			}
		case types.BundleNamespace:
			if providerExports(wire.Provider, pkgName, map[types.Module]bool{}) {
				return true
			}
		}
	}
	return false
}

func providerExports(provider types.Module, pkgName string, visited map[types.Module]bool) bool {
	if visited[provider] {
		return false
	}
	visited[provider] = true
	caps := provider.DeclaredCapabilities(types.PackageNamespace)
	if provider.Wiring() != nil {
		caps = provider.Wiring().Capabilities(types.PackageNamespace)
	}
	for _, cap := range caps {
		if types.PackageName(cap) == pkgName {
			return true
		}
	}
	if provider.Wiring() == nil {
		return false
	}
	for _, wire := range provider.Wiring().RequiredWires() {
		if wire.Requirement.Namespace() == types.BundleNamespace && types.IsReexport(wire.Requirement) {
			if providerExports(wire.Provider, pkgName, visited) {
				return true
			}
		}
	}
	return false
}

// Retracted lists the optional modules dropped during the last
// resolve.
func (r *Resolver) Retracted() []types.Module {
	return append([]types.Module(nil), r.retracted...)
}

// popPermutation drains the uses stack before the import stack, newest
// first.
func (r *Resolver) popPermutation() *Candidates {
	if n := len(r.usesPermutations); n > 0 {
		cands := r.usesPermutations[n-1]
		r.usesPermutations = r.usesPermutations[:n-1]
		return cands
	}
	n := len(r.importPermutations)
	cands := r.importPermutations[n-1]
	r.importPermutations = r.importPermutations[:n-1]
	return cands
}

func removeModule(modules []types.Module, target types.Module) (bool, []types.Module) {
	for i, m := range modules {
		if m == target {
			return true, append(append([]types.Module(nil), modules[:i]...), modules[i+1:]...)
		}
	}
	return false, modules
}

func asResolveError(err error) *ResolveError {
	var rerr *ResolveError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &ResolveError{Kind: FailureUnsatisfied, Message: err.Error(), Cause: err}
}

// wrapResolveError attaches the error-code envelope the rest of the
// application speaks.
func wrapResolveError(err error) error {
	rerr := asResolveError(err)
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(rerr.Message).
		WithCause(rerr)
}
