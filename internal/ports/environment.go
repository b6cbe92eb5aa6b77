package ports

import "modwire/internal/types"

// EnvironmentPort supplies candidate providers for a requirement in
// preference order. The resolver never reorders what it receives; it
// only removes candidates while permutating.
type EnvironmentPort interface {
	// Candidates returns the providers matching the requirement, most
	// preferred first. When obeyMandatory is true an unsatisfiable
	// requirement yields an empty result rather than partial matches.
	Candidates(req types.Requirement, obeyMandatory bool) []types.Capability

	// Matches reports whether a single capability satisfies the
	// requirement's namespace and filter. Used for dynamic-import
	// requirement selection.
	Matches(req types.Requirement, cap types.Capability) bool
}
