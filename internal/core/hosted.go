package core

import (
	semver "github.com/Masterminds/semver/v3"

	"modwire/internal/types"
)

// HostModule is the merged view of a host with its attached fragments.
// Every capability and requirement it exposes is a hosted wrapper whose
// effective owner is the HostModule itself; the fragment (or host) that
// declared it is retained for diagnostics and wire emission.
type HostModule struct {
	host      types.Module
	fragments []types.Module
	caps      []types.Capability
	reqs      []types.Requirement
}

// newHostModule wraps the host's declarations plus each fragment's
// capabilities and non-host requirements. Duplicate declarations across
// sibling fragments coalesce by identity of the underlying declaration.
func newHostModule(host types.Module, fragments []types.Module) *HostModule {
	hm := &HostModule{host: host, fragments: fragments}

	seenCaps := map[types.Capability]bool{}
	seenReqs := map[types.Requirement]bool{}

	for _, cap := range host.DeclaredCapabilities("") {
		seenCaps[cap] = true
		hm.caps = append(hm.caps, &HostedCapability{host: hm, declared: cap})
	}
	for _, req := range host.DeclaredRequirements("") {
		seenReqs[req] = true
		hm.reqs = append(hm.reqs, &HostedRequirement{host: hm, declared: req})
	}
	for _, fragment := range fragments {
		for _, cap := range fragment.DeclaredCapabilities("") {
			if seenCaps[cap] {
				continue
			}
			seenCaps[cap] = true
			hm.caps = append(hm.caps, &HostedCapability{host: hm, declared: cap})
		}
		for _, req := range fragment.DeclaredRequirements("") {
			if req.Namespace() == types.HostNamespace || seenReqs[req] {
				continue
			}
			seenReqs[req] = true
			hm.reqs = append(hm.reqs, &HostedRequirement{host: hm, declared: req})
		}
	}
	return hm
}

func (h *HostModule) ID() string               { return h.host.ID() }
func (h *HostModule) SymbolicName() string     { return h.host.SymbolicName() }
func (h *HostModule) Version() *semver.Version { return h.host.Version() }
func (h *HostModule) Wiring() types.Wiring     { return h.host.Wiring() }

func (h *HostModule) Host() types.Module        { return h.host }
func (h *HostModule) Fragments() []types.Module { return h.fragments }

func (h *HostModule) DeclaredCapabilities(namespace string) []types.Capability {
	if namespace == "" {
		return append([]types.Capability(nil), h.caps...)
	}
	var out []types.Capability
	for _, cap := range h.caps {
		if cap.Namespace() == namespace {
			out = append(out, cap)
		}
	}
	return out
}

func (h *HostModule) DeclaredRequirements(namespace string) []types.Requirement {
	if namespace == "" {
		return append([]types.Requirement(nil), h.reqs...)
	}
	var out []types.Requirement
	for _, req := range h.reqs {
		if req.Namespace() == namespace {
			out = append(out, req)
		}
	}
	return out
}

// HostedCapability re-owns a declared capability under a host.
type HostedCapability struct {
	host     *HostModule
	declared types.Capability
}

func (c *HostedCapability) Owner() types.Module           { return c.host }
func (c *HostedCapability) Namespace() string             { return c.declared.Namespace() }
func (c *HostedCapability) Attributes() map[string]any    { return c.declared.Attributes() }
func (c *HostedCapability) Directives() map[string]string { return c.declared.Directives() }
func (c *HostedCapability) Uses() []string                { return c.declared.Uses() }

// Declared returns the underlying declaration.
func (c *HostedCapability) Declared() types.Capability { return c.declared }

// HostedRequirement re-owns a declared requirement under a host.
type HostedRequirement struct {
	host     *HostModule
	declared types.Requirement
}

func (r *HostedRequirement) Owner() types.Module           { return r.host }
func (r *HostedRequirement) Namespace() string             { return r.declared.Namespace() }
func (r *HostedRequirement) Filter() string                { return r.declared.Filter() }
func (r *HostedRequirement) Directives() map[string]string { return r.declared.Directives() }

// Declared returns the underlying declaration.
func (r *HostedRequirement) Declared() types.Requirement { return r.declared }

// actualModule unwraps a host view back to the declared module.
func actualModule(m types.Module) types.Module {
	if host, ok := m.(*HostModule); ok {
		return host.Host()
	}
	return m
}

// actualCapability unwraps a hosted capability back to its declaration.
func actualCapability(c types.Capability) types.Capability {
	if hosted, ok := c.(*HostedCapability); ok {
		return hosted.Declared()
	}
	return c
}

// actualRequirement unwraps a hosted requirement back to its declaration.
func actualRequirement(r types.Requirement) types.Requirement {
	if hosted, ok := r.(*HostedRequirement); ok {
		return hosted.Declared()
	}
	return r
}
