package adapters

import (
	"modwire/internal/policies"
	"modwire/internal/ports"
	"modwire/internal/types"
)

// EnvironmentAdapter answers candidate queries over a fixed set of
// installed modules, evaluating requirement filters against capability
// attributes and ordering matches by the preference policy.
type EnvironmentAdapter struct {
	modules []types.Module
	policy  policies.PreferencePolicy
	filters map[string]*Filter
}

func NewEnvironmentAdapter(modules []types.Module) *EnvironmentAdapter {
	return &EnvironmentAdapter{
		modules: modules,
		policy:  policies.NewPreferencePolicy(),
		filters: map[string]*Filter{},
	}
}

func (e *EnvironmentAdapter) Candidates(req types.Requirement, obeyMandatory bool) []types.Capability {
	if effective, ok := req.Directives()[types.EffectiveDirective]; ok && effective != types.EffectiveResolve {
		return nil
	}
	var matches []types.Capability
	for _, module := range e.modules {
		caps := module.DeclaredCapabilities(req.Namespace())
		if module.Wiring() != nil {
			caps = module.Wiring().Capabilities(req.Namespace())
		}
		for _, cap := range caps {
			if e.Matches(req, cap) {
				matches = append(matches, cap)
			}
		}
	}
	return e.policy.Order(matches)
}

func (e *EnvironmentAdapter) Matches(req types.Requirement, cap types.Capability) bool {
	if req.Namespace() != cap.Namespace() {
		return false
	}
	filter, err := e.filterFor(req.Filter())
	if err != nil {
		return false
	}
	return filter.Matches(capabilityAttributes(cap))
}

func (e *EnvironmentAdapter) filterFor(expr string) (*Filter, error) {
	if cached, ok := e.filters[expr]; ok {
		return cached, nil
	}
	parsed, err := ParseFilter(expr)
	if err != nil {
		return nil, err
	}
	e.filters[expr] = parsed
	return parsed, nil
}

// capabilityAttributes widens the declared attributes with the owner's
// version so filters can constrain it without every capability
// repeating it.
func capabilityAttributes(cap types.Capability) map[string]any {
	attrs := cap.Attributes()
	if _, ok := attrs["version"]; ok || cap.Owner().Version() == nil {
		return attrs
	}
	widened := make(map[string]any, len(attrs)+1)
	for key, value := range attrs {
		widened[key] = value
	}
	widened["version"] = cap.Owner().Version().String()
	return widened
}

var _ ports.EnvironmentPort = (*EnvironmentAdapter)(nil)
