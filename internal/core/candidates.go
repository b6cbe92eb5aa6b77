package core

import (
	"fmt"
	"sort"

	"modwire/internal/ports"
	"modwire/internal/types"
)

type populateState int

const (
	populateNone populateState = iota
	populatePending
	populateOK
	populateFailed
)

// Candidates is the mutable assignment of providers to open
// requirements. The first candidate of each requirement is the current
// choice; the resolver only ever removes candidates, never reorders.
type Candidates struct {
	env ports.EnvironmentPort

	candidateMap map[types.Requirement][]types.Capability

	populated map[types.Module]populateState
	failures  map[types.Module]*ResolveError

	// hosts maps a declared host module to its merged fragment view,
	// populated by Prepare.
	hosts map[types.Module]*HostModule
}

func newCandidates(env ports.EnvironmentPort) *Candidates {
	return &Candidates{
		env:          env,
		candidateMap: map[types.Requirement][]types.Capability{},
		populated:    map[types.Module]populateState{},
		failures:     map[types.Module]*ResolveError{},
		hosts:        map[types.Module]*HostModule{},
	}
}

// NewCandidates seeds the candidate map from the root module,
// recursing through every selected provider that is not already wired.
func NewCandidates(env ports.EnvironmentPort, root types.Module) (*Candidates, error) {
	c := newCandidates(env)
	if err := c.populate(root); err != nil {
		return nil, err
	}
	return c, nil
}

// NewDynamicCandidates builds a candidate set holding a single dynamic
// requirement with the given pre-filtered providers. Returns nil when
// no provider survives population.
func NewDynamicCandidates(env ports.EnvironmentPort, req types.Requirement, caps []types.Capability) *Candidates {
	c := newCandidates(env)
	var kept []types.Capability
	for _, cap := range caps {
		owner := cap.Owner()
		if owner.Wiring() != nil {
			kept = append(kept, cap)
			continue
		}
		if err := c.populate(owner); err != nil {
			continue
		}
		kept = append(kept, cap)
	}
	if len(kept) == 0 {
		return nil
	}
	c.candidateMap[req] = kept
	return c
}

// populate makes a module's requirements part of the candidate space.
// A module whose population is already in progress cannot yet serve as
// a provider; requirements that can only be satisfied by such in-flight
// modules fail, which rejects unresolved dependency cycles that have no
// external provider.
func (c *Candidates) populate(m types.Module) error {
	if m.Wiring() != nil {
		return nil
	}
	switch c.populated[m] {
	case populateOK:
		return nil
	case populateFailed:
		return c.failures[m]
	case populatePending:
		return newResolveError(FailureUnsatisfied, m, nil,
			fmt.Sprintf("module %s is part of an unresolved dependency cycle", types.Describe(m)))
	}
	c.populated[m] = populatePending

	reqs := m.DeclaredRequirements("")
	if types.IsFragment(m) {
		reqs = m.DeclaredRequirements(types.HostNamespace)
	}
	for _, req := range reqs {
		if types.IsDynamic(req) {
			continue
		}
		if err := c.populateRequirement(req); err != nil {
			c.populated[m] = populateFailed
			if rerr, ok := err.(*ResolveError); ok {
				c.failures[m] = rerr
			}
			return err
		}
	}
	c.populated[m] = populateOK
	return nil
}

// populateRequirement queries the environment and keeps every
// candidate whose owner can itself be populated. A mandatory
// requirement left without candidates is a hard failure; an optional
// one simply gets no entry.
func (c *Candidates) populateRequirement(req types.Requirement) error {
	candidates := c.env.Candidates(req, true)
	kept := make([]types.Capability, 0, len(candidates))
	var lastFailure error
	for _, cap := range candidates {
		owner := cap.Owner()
		if owner.Wiring() != nil || owner == req.Owner() {
			kept = append(kept, cap)
			continue
		}
		if err := c.populate(owner); err != nil {
			lastFailure = err
			continue
		}
		kept = append(kept, cap)
	}
	if len(kept) == 0 {
		if types.IsOptional(req) {
			return nil
		}
		failure := newResolveError(FailureUnsatisfied, req.Owner(), req,
			fmt.Sprintf("unable to resolve %s: missing mandatory requirement %s %s",
				types.Describe(req.Owner()), req.Namespace(), req.Filter()))
		failure.Cause = lastFailure
		return failure
	}
	c.candidateMap[req] = kept
	return nil
}

// PopulateOptional adds an optional module (typically a hinted
// fragment) to the candidate space. The caller decides whether a
// failure drops the optional or surfaces.
func (c *Candidates) PopulateOptional(m types.Module) error {
	return c.populate(m)
}

// GetCandidates returns the still-viable providers for a requirement,
// most preferred first, or nil when the requirement has no entry.
func (c *Candidates) GetCandidates(req types.Requirement) []types.Capability {
	return c.candidateMap[req]
}

// Copy clones the candidate map cheaply: the map header is duplicated
// while candidate slices and the population bookkeeping are shared.
// Removing a candidate from the copy never affects the original.
func (c *Candidates) Copy() *Candidates {
	dup := &Candidates{
		env:          c.env,
		candidateMap: make(map[types.Requirement][]types.Capability, len(c.candidateMap)),
		populated:    c.populated,
		failures:     c.failures,
		hosts:        c.hosts,
	}
	for req, caps := range c.candidateMap {
		dup.candidateMap[req] = caps
	}
	return dup
}

// removeFirst drops the current choice for a requirement. Callers
// guarantee at least one candidate remains.
func (c *Candidates) removeFirst(req types.Requirement) {
	c.candidateMap[req] = c.candidateMap[req][1:]
}

// WrappedHost returns the merged fragment view of a module when
// fragments are attached, or the module itself.
func (c *Candidates) WrappedHost(m types.Module) types.Module {
	if _, ok := m.(*HostModule); ok {
		return m
	}
	if host, ok := c.hosts[m]; ok {
		return host
	}
	return m
}

// Prepare merges every attached fragment into its chosen host: the
// fragment's declarations are re-owned by the host, the candidate map
// is re-keyed onto the hosted wrappers, and the fragments' own
// requirements are populated under host ownership.
func (c *Candidates) Prepare() error {
	attachments := map[types.Module][]types.Module{}
	chosenHost := map[types.Module]types.Module{}
	for req, caps := range c.candidateMap {
		if req.Namespace() != types.HostNamespace || len(caps) == 0 {
			continue
		}
		fragment := req.Owner()
		host := actualModule(caps[0].Owner())
		attachments[host] = append(attachments[host], fragment)
		chosenHost[fragment] = host
	}
	if len(attachments) == 0 {
		return nil
	}

	if err := c.checkHostCycles(chosenHost); err != nil {
		return err
	}

	// Fragment order within a host is by module ID so sibling merges
	// are deterministic.
	for host, fragments := range attachments {
		sort.Slice(fragments, func(i, j int) bool {
			return fragments[i].ID() < fragments[j].ID()
		})
		c.hosts[host] = newHostModule(host, fragments)
	}

	capWrap := map[types.Capability]types.Capability{}
	reqWrap := map[types.Requirement]types.Requirement{}
	for _, host := range c.hosts {
		for _, cap := range host.caps {
			capWrap[cap.(*HostedCapability).declared] = cap
		}
		for _, req := range host.reqs {
			reqWrap[req.(*HostedRequirement).declared] = req
		}
	}

	// Fragment requirements were deferred until attachment; populate
	// them now under host ownership, before the map rewrite so the new
	// entries get the same wrapping treatment.
	for _, host := range c.hosts {
		for _, req := range host.reqs {
			hosted := req.(*HostedRequirement)
			if hosted.declared.Owner() == host.Host() {
				continue
			}
			if types.IsDynamic(hosted) {
				continue
			}
			if _, ok := c.candidateMap[hosted]; ok {
				continue
			}
			if err := c.populateRequirement(hosted); err != nil {
				return err
			}
		}
	}

	rekeyed := make(map[types.Requirement][]types.Capability, len(c.candidateMap))
	for req, caps := range c.candidateMap {
		key := req
		// Host-namespace entries stay declared-keyed so the driver and
		// wire emitter can find a fragment's host choice directly.
		if req.Namespace() != types.HostNamespace {
			if wrapped, ok := reqWrap[req]; ok {
				key = wrapped
			}
		}
		wrappedCaps := make([]types.Capability, len(caps))
		for i, cap := range caps {
			if wrapped, ok := capWrap[cap]; ok {
				wrappedCaps[i] = wrapped
			} else {
				wrappedCaps[i] = cap
			}
		}
		rekeyed[key] = wrappedCaps
	}
	c.candidateMap = rekeyed
	return nil
}

// checkHostCycles rejects a fragment whose host attachment chain loops
// back on itself.
func (c *Candidates) checkHostCycles(chosenHost map[types.Module]types.Module) error {
	for fragment := range chosenHost {
		visited := map[types.Module]bool{fragment: true}
		current := fragment
		for {
			host, ok := chosenHost[current]
			if !ok {
				break
			}
			if visited[host] {
				return newResolveError(FailureCircularHost, fragment,
					fragment.DeclaredRequirements(types.HostNamespace)[0],
					fmt.Sprintf("fragment %s forms a circular host attachment through %s",
						types.Describe(fragment), types.Describe(host)))
			}
			visited[host] = true
			current = host
		}
	}
	return nil
}
