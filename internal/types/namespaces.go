package types

// Namespace identifiers. Package, bundle, and host carry resolver
// semantics; any other namespace participates in wiring only.
const (
	PackageNamespace = "osgi.wiring.package"
	BundleNamespace  = "osgi.wiring.bundle"
	HostNamespace    = "osgi.wiring.host"
)

// PackageAttr is the capability attribute key holding the package name
// for package-namespace capabilities.
const PackageAttr = "osgi.wiring.package"

// Directive names recognized by the resolver.
const (
	ResolutionDirective = "resolution"
	VisibilityDirective = "visibility"
	EffectiveDirective  = "effective"
)

// Resolution directive values.
const (
	ResolutionMandatory = "mandatory"
	ResolutionOptional  = "optional"
	ResolutionDynamic   = "dynamic"
)

// Visibility directive values for bundle-namespace requirements.
const (
	VisibilityPrivate  = "private"
	VisibilityReexport = "reexport"
)

// EffectiveResolve is the only effective-directive value the resolver
// acts on; requirements with any other effective time are ignored.
const EffectiveResolve = "resolve"

// Resolution returns the resolution directive of a requirement,
// defaulting to mandatory when absent.
func Resolution(req Requirement) string {
	if value, ok := req.Directives()[ResolutionDirective]; ok && value != "" {
		return value
	}
	return ResolutionMandatory
}

// IsOptional reports whether a requirement may go unsatisfied.
func IsOptional(req Requirement) bool {
	return Resolution(req) == ResolutionOptional
}

// IsDynamic reports whether a requirement is resolved on demand rather
// than during a static resolve.
func IsDynamic(req Requirement) bool {
	return Resolution(req) == ResolutionDynamic
}

// IsReexport reports whether a bundle-namespace requirement re-exports
// the provider's packages to its own dependents.
func IsReexport(req Requirement) bool {
	return req.Directives()[VisibilityDirective] == VisibilityReexport
}

// PackageName returns the package name advertised by a
// package-namespace capability, or "" for other namespaces.
func PackageName(cap Capability) string {
	if cap.Namespace() != PackageNamespace {
		return ""
	}
	if value, ok := cap.Attributes()[PackageAttr].(string); ok {
		return value
	}
	return ""
}
