package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"modwire/internal/types"
)

// checkPackageSpaces verifies that every module reachable from m sees
// a single coherent provider for every package. On a violation it
// pushes candidate permutations for the retry loop and returns the
// failure for this attempt.
func (r *Resolver) checkPackageSpaces(
	ctx context.Context,
	isDynamicImporting bool,
	m types.Module,
	cands *Candidates,
	spaces map[types.Module]*packageSpace,
	checked map[types.Module]bool,
) error {
	if m.Wiring() != nil && !isDynamicImporting {
		return nil
	}
	if checked[m] {
		return nil
	}

	space := spaces[m]

	// Conflicting imports of one package through fragments are
	// unrecoverable for this candidate map; permute both blamed
	// requirements and fail the attempt.
	for pkgName, blames := range space.imported {
		if len(blames) < 2 {
			continue
		}
		source := blames[0]
		for _, other := range blames[1:] {
			if actualModule(source.cap.Owner()) == actualModule(other.cap.Owner()) {
				continue
			}
			r.permutate(cands, other.reqs[0], &r.importPermutations)
			r.permutate(cands, source.reqs[0], &r.importPermutations)
			failure := newResolveError(FailureFragmentConflict, m, other.reqs[0],
				fmt.Sprintf("unable to resolve %s: package %q is imported from both %s and %s via two dependency chains\n\nChain 1:\n%s\n\nChain 2:\n%s",
					types.Describe(m), pkgName,
					types.Describe(source.cap.Owner()), types.Describe(other.cap.Owner()),
					formatBlame(source), formatBlame(other)))
			log.Ctx(ctx).Debug().Str("module", m.ID()).Str("package", pkgName).
				Msg("candidate permutation failed on a fragment import conflict")
			return failure
		}
	}

	var failure *ResolveError
	var permutation *Candidates
	mutated := map[types.Requirement]bool{}

	// An exported package must agree with every provider the module is
	// committed to through the uses closure.
	for pkgName, exportBlame := range space.exported {
		for _, usedBlame := range space.used[pkgName] {
			if r.isCompatible(exportBlame.cap, usedBlame.cap, spaces) {
				continue
			}
			if permutation == nil {
				permutation = cands.Copy()
			}
			if failure == nil {
				failure = newResolveError(FailureUsesConflict, m, nil,
					fmt.Sprintf("uses constraint violation: %s exports package %q and is also exposed to it from %s via the dependency chain:\n\n%s",
						types.Describe(m), pkgName,
						types.Describe(usedBlame.cap.Owner()), formatBlame(usedBlame)))
			}
			mutateBlameChain(permutation, usedBlame, mutated)
		}
	}
	if failure != nil {
		if len(mutated) > 0 {
			r.usesPermutations = append(r.usesPermutations, permutation)
		}
		log.Ctx(ctx).Debug().Str("module", m.ID()).
			Msg("candidate permutation failed on an export/used conflict")
		return failure
	}

	// Every imported package must agree with the uses closure as well;
	// beyond uses-level mutations, force backtracking on the original
	// import decision.
	for pkgName, blames := range space.imported {
		for _, importBlame := range blames {
			for _, usedBlame := range space.used[pkgName] {
				if r.isCompatible(importBlame.cap, usedBlame.cap, spaces) {
					continue
				}
				if permutation == nil {
					permutation = cands.Copy()
				}
				if failure == nil {
					failure = newResolveError(FailureUsesConflict, m, importBlame.reqs[0],
						fmt.Sprintf("uses constraint violation: %s is exposed to package %q from both %s and %s via two dependency chains\n\nChain 1:\n%s\n\nChain 2:\n%s",
							types.Describe(m), pkgName,
							types.Describe(importBlame.cap.Owner()),
							types.Describe(usedBlame.cap.Owner()),
							formatBlame(importBlame), formatBlame(usedBlame)))
				}
				mutateBlameChain(permutation, usedBlame, mutated)
			}
			if failure != nil {
				if len(mutated) > 0 {
					r.usesPermutations = append(r.usesPermutations, permutation)
				}
				if !mutated[importBlame.reqs[0]] {
					r.permutateIfNeeded(cands, importBlame.reqs[0])
				}
				log.Ctx(ctx).Debug().Str("module", m.ID()).Str("package", pkgName).
					Msg("candidate permutation failed on an import/used conflict")
				return failure
			}
		}
	}

	checked[m] = true

	// Recurse into providers; if a deeper failure produced no new
	// permutation, backtrack on the import that led there so the search
	// keeps moving.
	permCount := len(r.usesPermutations) + len(r.importPermutations)
	for _, blames := range space.imported {
		for _, importBlame := range blames {
			if importBlame.cap.Owner() == m {
				continue
			}
			err := r.checkPackageSpaces(ctx, false, importBlame.cap.Owner(), cands, spaces, checked)
			if err == nil {
				continue
			}
			if permCount == len(r.usesPermutations)+len(r.importPermutations) {
				r.permutate(cands, importBlame.reqs[0], &r.importPermutations)
			}
			return err
		}
	}
	return nil
}

// mutateBlameChain walks a used-blame chain from the deepest
// requirement back toward the subject and drops the current choice of
// the first requirement that still has an alternative and has not been
// mutated within this failure.
func mutateBlameChain(permutation *Candidates, usedBlame *blame, mutated map[types.Requirement]bool) {
	for i := len(usedBlame.reqs) - 1; i >= 0; i-- {
		req := usedBlame.reqs[i]
		if mutated[req] {
			continue
		}
		if candidates := permutation.GetCandidates(req); len(candidates) > 1 {
			mutated[req] = true
			permutation.removeFirst(req)
			return
		}
	}
}

// permutate pushes a copy of the candidate map with the requirement's
// current choice dropped, when an alternative exists.
func (r *Resolver) permutate(cands *Candidates, req types.Requirement, stack *[]*Candidates) {
	if len(cands.GetCandidates(req)) <= 1 {
		return
	}
	permutation := cands.Copy()
	permutation.removeFirst(req)
	*stack = append(*stack, permutation)
}

// permutateIfNeeded deduplicates import-level backtracking: the
// requirement is only permuted when no queued import permutation
// already carries a different first candidate for it.
func (r *Resolver) permutateIfNeeded(cands *Candidates, req types.Requirement) {
	candidates := cands.GetCandidates(req)
	if len(candidates) <= 1 {
		return
	}
	for _, existing := range r.importPermutations {
		existingCands := existing.GetCandidates(req)
		if len(existingCands) > 0 && existingCands[0] != candidates[0] {
			return
		}
	}
	r.permutate(cands, req, &r.importPermutations)
}
