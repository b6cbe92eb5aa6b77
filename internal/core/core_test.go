package core

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"modwire/internal/types"
)

// testEnv is a minimal environment: explicit candidate lists win, and
// package-namespace requirements otherwise match by package name
// against every known module, in module declaration order.
type testEnv struct {
	modules    []types.Module
	candidates map[types.Requirement][]types.Capability
}

func newTestEnv(modules ...types.Module) *testEnv {
	return &testEnv{
		modules:    modules,
		candidates: map[types.Requirement][]types.Capability{},
	}
}

func (e *testEnv) order(req types.Requirement, caps ...types.Capability) {
	e.candidates[req] = caps
}

func (e *testEnv) Candidates(req types.Requirement, obeyMandatory bool) []types.Capability {
	if caps, ok := e.candidates[req]; ok {
		return caps
	}
	if caps, ok := e.candidates[actualRequirement(req)]; ok {
		return caps
	}
	var out []types.Capability
	for _, module := range e.modules {
		caps := module.DeclaredCapabilities(req.Namespace())
		if module.Wiring() != nil {
			caps = module.Wiring().Capabilities(req.Namespace())
		}
		for _, cap := range caps {
			if e.Matches(req, cap) {
				out = append(out, cap)
			}
		}
	}
	return out
}

func (e *testEnv) Matches(req types.Requirement, cap types.Capability) bool {
	if req.Namespace() != cap.Namespace() {
		return false
	}
	if req.Namespace() == types.PackageNamespace {
		return matchesName(filterValue(req.Filter(), types.PackageAttr), types.PackageName(cap))
	}
	if req.Namespace() == types.HostNamespace {
		name, _ := cap.Attributes()[types.HostNamespace].(string)
		return matchesName(filterValue(req.Filter(), types.HostNamespace), name)
	}
	if req.Namespace() == types.BundleNamespace {
		name, _ := cap.Attributes()[types.BundleNamespace].(string)
		return matchesName(filterValue(req.Filter(), types.BundleNamespace), name)
	}
	return true
}

func matchesName(expected, actual string) bool {
	if suffix, ok := strings.CutSuffix(expected, "*"); ok {
		return strings.HasPrefix(actual, suffix)
	}
	return expected == actual
}

// filterValue pulls the value of a single (key=value) term out of a
// filter expression.
func filterValue(filter string, key string) string {
	marker := key + "="
	idx := strings.Index(filter, marker)
	if idx < 0 {
		return ""
	}
	rest := filter[idx+len(marker):]
	if end := strings.IndexByte(rest, ')'); end >= 0 {
		return rest[:end]
	}
	return rest
}

func newModule(id string, version string) *types.ModuleRevision {
	var parsed *semver.Version
	if version != "" {
		parsed = semver.MustParse(version)
	}
	return types.NewModule(id, id, parsed)
}

func exportPkg(m *types.ModuleRevision, name string, uses ...string) *types.DeclaredCapability {
	return m.AddCapability(types.PackageNamespace,
		map[string]any{types.PackageAttr: name}, nil, uses)
}

func importPkg(m *types.ModuleRevision, name string) *types.DeclaredRequirement {
	return m.AddRequirement(types.PackageNamespace,
		"("+types.PackageAttr+"="+name+")", nil)
}

func provideBundle(m *types.ModuleRevision, name string) *types.DeclaredCapability {
	return m.AddCapability(types.BundleNamespace,
		map[string]any{types.BundleNamespace: name}, nil, nil)
}

func requireBundle(m *types.ModuleRevision, name string, reexport bool) *types.DeclaredRequirement {
	var dirs map[string]string
	if reexport {
		dirs = map[string]string{types.VisibilityDirective: types.VisibilityReexport}
	}
	return m.AddRequirement(types.BundleNamespace,
		"("+types.BundleNamespace+"="+name+")", dirs)
}

func provideHost(m *types.ModuleRevision, name string) *types.DeclaredCapability {
	return m.AddCapability(types.HostNamespace,
		map[string]any{types.HostNamespace: name}, nil, nil)
}

func requireHost(m *types.ModuleRevision, name string) *types.DeclaredRequirement {
	return m.AddRequirement(types.HostNamespace,
		"("+types.HostNamespace+"="+name+")", nil)
}

func installWiring(m *types.ModuleRevision, wires ...*types.Wire) {
	m.SetWiring(types.NewInstalledWiring(wires,
		m.DeclaredCapabilities(""), m.DeclaredRequirements("")))
}

// wireTuples projects a wire map into comparable (requirer, provider,
// package) triples for assertions.
func wireTuples(wireMap map[types.Module][]*types.Wire) map[string][]string {
	out := map[string][]string{}
	for module, wires := range wireMap {
		tuples := []string{}
		for _, wire := range wires {
			tuples = append(tuples, wire.Requirer.ID()+"->"+wire.Provider.ID()+":"+types.PackageName(wire.Capability))
		}
		out[module.ID()] = tuples
	}
	return out
}
