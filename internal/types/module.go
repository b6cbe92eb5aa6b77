package types

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"
)

// Module is a versioned unit that declares capabilities it provides
// and requirements it needs. A module with a non-nil Wiring is already
// resolved and its declarations are frozen.
type Module interface {
	ID() string
	SymbolicName() string
	Version() *semver.Version

	// DeclaredCapabilities returns the declared capabilities in the
	// given namespace, or all of them when namespace is empty.
	DeclaredCapabilities(namespace string) []Capability
	// DeclaredRequirements returns the declared requirements in the
	// given namespace, or all of them when namespace is empty.
	DeclaredRequirements(namespace string) []Requirement

	// Wiring returns the installed wiring, or nil while unresolved.
	Wiring() Wiring
}

// Wiring is the finalized view of an already-resolved module.
type Wiring interface {
	RequiredWires() []*Wire
	Capabilities(namespace string) []Capability
	Requirements(namespace string) []Requirement
}

// Capability advertises a provided facet in some namespace. Owner is
// the effective owner: the declaring module, or the host once a
// fragment capability has been attached.
type Capability interface {
	Owner() Module
	Namespace() string
	Attributes() map[string]any
	Directives() map[string]string
	Uses() []string
}

// Requirement demands a capability matched by filter. Owner follows
// the same effective-owner rule as Capability.
type Requirement interface {
	Owner() Module
	Namespace() string
	Filter() string
	Directives() map[string]string
}

// Describe renders a module as "name [id version]" for diagnostics.
func Describe(m Module) string {
	if m == nil {
		return "<none>"
	}
	if m.Version() != nil {
		return fmt.Sprintf("%s [%s %s]", m.SymbolicName(), m.ID(), m.Version())
	}
	return fmt.Sprintf("%s [%s]", m.SymbolicName(), m.ID())
}

// IsFragment reports whether a module attaches to a host rather than
// resolving on its own.
func IsFragment(m Module) bool {
	return len(m.DeclaredRequirements(HostNamespace)) > 0
}
