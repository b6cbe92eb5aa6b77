package types

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// ModuleRevision is the concrete declared module. Capabilities and
// requirements are appended during construction and frozen afterwards.
type ModuleRevision struct {
	id      string
	name    string
	version *semver.Version
	caps    []Capability
	reqs    []Requirement
	wiring  Wiring
}

func NewModule(id string, symbolicName string, version *semver.Version) *ModuleRevision {
	return &ModuleRevision{
		id:      id,
		name:    symbolicName,
		version: version,
	}
}

func (m *ModuleRevision) ID() string               { return m.id }
func (m *ModuleRevision) SymbolicName() string     { return m.name }
func (m *ModuleRevision) Version() *semver.Version { return m.version }
func (m *ModuleRevision) Wiring() Wiring           { return m.wiring }

func (m *ModuleRevision) DeclaredCapabilities(namespace string) []Capability {
	return filterCapabilities(m.caps, namespace)
}

func (m *ModuleRevision) DeclaredRequirements(namespace string) []Requirement {
	return filterRequirements(m.reqs, namespace)
}

// AddCapability declares a capability owned by this module and
// returns it so callers can reference it in assertions or wires.
func (m *ModuleRevision) AddCapability(namespace string, attrs map[string]any, dirs map[string]string, uses []string) *DeclaredCapability {
	cap := &DeclaredCapability{
		owner:      m,
		namespace:  namespace,
		attributes: attrs,
		directives: dirs,
		uses:       uses,
	}
	m.caps = append(m.caps, cap)
	return cap
}

// AddRequirement declares a requirement owned by this module.
func (m *ModuleRevision) AddRequirement(namespace string, filter string, dirs map[string]string) *DeclaredRequirement {
	req := &DeclaredRequirement{
		owner:      m,
		namespace:  namespace,
		filter:     filter,
		directives: dirs,
	}
	m.reqs = append(m.reqs, req)
	return req
}

// SetWiring installs the finalized wiring, freezing the module.
func (m *ModuleRevision) SetWiring(w Wiring) { m.wiring = w }

func (m *ModuleRevision) String() string { return Describe(m) }

type DeclaredCapability struct {
	owner      *ModuleRevision
	namespace  string
	attributes map[string]any
	directives map[string]string
	uses       []string
}

func (c *DeclaredCapability) Owner() Module                 { return c.owner }
func (c *DeclaredCapability) Namespace() string             { return c.namespace }
func (c *DeclaredCapability) Attributes() map[string]any    { return c.attributes }
func (c *DeclaredCapability) Directives() map[string]string { return c.directives }
func (c *DeclaredCapability) Uses() []string                { return c.uses }

func (c *DeclaredCapability) String() string {
	if pkg := PackageName(c); pkg != "" {
		return fmt.Sprintf("%s=%s from %s", PackageAttr, pkg, Describe(c.owner))
	}
	return fmt.Sprintf("%s capability of %s", c.namespace, Describe(c.owner))
}

type DeclaredRequirement struct {
	owner       *ModuleRevision
	namespace   string
	filter      string
	directives  map[string]string
	syntheticID string
}

func (r *DeclaredRequirement) Owner() Module                 { return r.owner }
func (r *DeclaredRequirement) Namespace() string             { return r.namespace }
func (r *DeclaredRequirement) Filter() string                { return r.filter }
func (r *DeclaredRequirement) Directives() map[string]string { return r.directives }

func (r *DeclaredRequirement) String() string {
	return fmt.Sprintf("%s %s of %s", r.namespace, r.filter, Describe(r.owner))
}

// NewDynamicRequirement creates the synthetic single-package
// requirement recorded on an emitted dynamic-import wire. Each call
// produces a distinct identity so repeated dynamic imports through the
// same declared requirement stay distinguishable.
func NewDynamicRequirement(owner *ModuleRevision, pkgName string) *DeclaredRequirement {
	return &DeclaredRequirement{
		owner:       owner,
		namespace:   PackageNamespace,
		filter:      fmt.Sprintf("(%s=%s)", PackageAttr, pkgName),
		directives:  map[string]string{ResolutionDirective: ResolutionDynamic},
		syntheticID: uuid.NewString(),
	}
}

// SyntheticID returns the unique id of a synthetic requirement, or ""
// for declared ones.
func (r *DeclaredRequirement) SyntheticID() string { return r.syntheticID }

// InstalledWiring is the frozen wiring of a resolved module.
type InstalledWiring struct {
	wires []*Wire
	caps  []Capability
	reqs  []Requirement
}

func NewInstalledWiring(wires []*Wire, caps []Capability, reqs []Requirement) *InstalledWiring {
	return &InstalledWiring{wires: wires, caps: caps, reqs: reqs}
}

func (w *InstalledWiring) RequiredWires() []*Wire { return w.wires }

func (w *InstalledWiring) Capabilities(namespace string) []Capability {
	return filterCapabilities(w.caps, namespace)
}

func (w *InstalledWiring) Requirements(namespace string) []Requirement {
	return filterRequirements(w.reqs, namespace)
}

func filterCapabilities(caps []Capability, namespace string) []Capability {
	if namespace == "" {
		return append([]Capability(nil), caps...)
	}
	var out []Capability
	for _, cap := range caps {
		if cap.Namespace() == namespace {
			out = append(out, cap)
		}
	}
	return out
}

func filterRequirements(reqs []Requirement, namespace string) []Requirement {
	if namespace == "" {
		return append([]Requirement(nil), reqs...)
	}
	var out []Requirement
	for _, req := range reqs {
		if req.Namespace() == namespace {
			out = append(out, req)
		}
	}
	return out
}
