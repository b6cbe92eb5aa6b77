package core

import (
	"context"
	"fmt"

	"github.com/crillab/gophersat/solver"
	"github.com/rs/zerolog/log"

	"modwire/internal/types"
)

// satState numbers the boolean variables of one pre-check: a selection
// variable per reachable unresolved module and a choice variable per
// (requirement, candidate) pair.
type satState struct {
	next    int
	modules map[types.Module]int
	choices map[types.Requirement][]int
	owners  map[int]types.Module
	pkgs    map[int]string
	clauses [][]int
}

// satPrecheck encodes the prepared candidate space as a boolean
// problem and rejects it when no provider assignment can exist even
// before uses constraints are considered: the root is asserted, every
// selected module needs one chosen provider per mandatory requirement,
// a chosen provider must itself be selected, and one module may not
// import the same package from two different providers. Unsatisfiable
// here means the backtracking search cannot succeed either;
// satisfiable proves nothing and the search proceeds unchanged.
func (r *Resolver) satPrecheck(ctx context.Context, cands *Candidates, root types.Module) error {
	s := &satState{
		modules: map[types.Module]int{},
		choices: map[types.Requirement][]int{},
		owners:  map[int]types.Module{},
		pkgs:    map[int]string{},
	}

	rootVar := s.moduleVar(cands.WrappedHost(root))
	s.clauses = append(s.clauses, []int{rootVar})

	visited := map[types.Module]bool{}
	queue := []types.Module{cands.WrappedHost(root)}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if visited[m] || m.Wiring() != nil {
			continue
		}
		visited[m] = true
		queue = append(queue, s.encodeModule(m, cands)...)
	}

	for _, m := range queueModules(visited) {
		s.encodeImportExclusivity(m, cands)
	}

	problem := solver.ParseSliceNb(s.clauses, s.next)
	sat := solver.New(problem)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sat.Solve() != solver.Sat {
		return newResolveError(FailureUnsatisfied, root, nil,
			fmt.Sprintf("unable to resolve %s: candidate space is unsatisfiable", types.Describe(root)))
	}
	log.Ctx(ctx).Debug().Int("variables", s.next).Int("clauses", len(s.clauses)).
		Msg("sat precheck passed")
	return nil
}

// encodeModule emits the demand and implication clauses for one module
// and returns the provider modules to visit next.
func (s *satState) encodeModule(m types.Module, cands *Candidates) []types.Module {
	var providers []types.Module
	moduleVar := s.moduleVar(m)
	for _, req := range m.DeclaredRequirements("") {
		if types.IsDynamic(req) || req.Namespace() == types.HostNamespace {
			continue
		}
		candidates := cands.GetCandidates(req)
		if len(candidates) == 0 {
			continue
		}
		demand := []int{-moduleVar}
		for _, cap := range candidates {
			owner := cap.Owner()
			choice := s.choiceVar(req, owner, types.PackageName(cap))
			demand = append(demand, choice)
			if owner.Wiring() == nil && owner != m {
				s.clauses = append(s.clauses, []int{-choice, s.moduleVar(owner)})
				providers = append(providers, owner)
			}
		}
		if !types.IsOptional(req) {
			s.clauses = append(s.clauses, demand)
		}
	}
	return providers
}

// encodeImportExclusivity forbids two chosen package providers for the
// same package name within one module, mirroring the checker's
// fragment import conflict rule.
func (s *satState) encodeImportExclusivity(m types.Module, cands *Candidates) {
	byPackage := map[string][]int{}
	for _, req := range m.DeclaredRequirements(types.PackageNamespace) {
		for _, choice := range s.choices[req] {
			if pkg := s.pkgs[choice]; pkg != "" {
				byPackage[pkg] = append(byPackage[pkg], choice)
			}
		}
	}
	for _, choices := range byPackage {
		for i := 0; i < len(choices); i++ {
			for j := i + 1; j < len(choices); j++ {
				if s.owners[choices[i]] == s.owners[choices[j]] {
					continue
				}
				s.clauses = append(s.clauses, []int{-choices[i], -choices[j]})
			}
		}
	}
}

func (s *satState) moduleVar(m types.Module) int {
	if id, ok := s.modules[m]; ok {
		return id
	}
	s.next++
	s.modules[m] = s.next
	return s.next
}

func (s *satState) choiceVar(req types.Requirement, owner types.Module, pkg string) int {
	s.next++
	s.choices[req] = append(s.choices[req], s.next)
	s.owners[s.next] = owner
	s.pkgs[s.next] = pkg
	return s.next
}

func queueModules(visited map[types.Module]bool) []types.Module {
	out := make([]types.Module, 0, len(visited))
	for m := range visited {
		out = append(out, m)
	}
	return out
}
