package types

// IndexFile is the on-disk module index: every installed module with
// its declared capabilities and requirements.
type IndexFile struct {
	APIVersion string        `yaml:"api_version"`
	Modules    []IndexModule `yaml:"modules"`
}

type IndexModule struct {
	ID           string             `yaml:"id"`
	SymbolicName string             `yaml:"symbolic_name"`
	Version      string             `yaml:"version"`
	Capabilities []IndexCapability  `yaml:"capabilities,omitempty"`
	Requirements []IndexRequirement `yaml:"requirements,omitempty"`
}

type IndexCapability struct {
	Namespace  string            `yaml:"namespace"`
	Attributes map[string]any    `yaml:"attributes,omitempty"`
	Directives map[string]string `yaml:"directives,omitempty"`

	// Uses lists the packages whose provider identity must match the
	// owner's view; meaningful on package-namespace capabilities.
	Uses []string `yaml:"uses,omitempty"`
}

type IndexRequirement struct {
	Namespace  string            `yaml:"namespace"`
	Filter     string            `yaml:"filter,omitempty"`
	Directives map[string]string `yaml:"directives,omitempty"`
}
