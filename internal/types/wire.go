package types

import "fmt"

// Wire is a realized requirement-to-capability edge between two
// modules after resolution. Requirer and Provider are declared owners;
// hosted wrappers never escape into emitted wires.
type Wire struct {
	Requirer    Module
	Requirement Requirement
	Provider    Module
	Capability  Capability
}

func (w *Wire) String() string {
	return fmt.Sprintf("%s -> %s (%s)", Describe(w.Requirer), Describe(w.Provider), w.Requirement.Namespace())
}
