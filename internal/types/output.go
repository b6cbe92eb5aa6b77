package types

// WireRecord is the serialized form of a single emitted wire.
type WireRecord struct {
	Namespace string `yaml:"namespace"`
	Filter    string `yaml:"filter,omitempty"`
	Provider  string `yaml:"provider"`
	Package   string `yaml:"package,omitempty"`
}

// ModuleWireRecord groups the wires of one resolved module.
type ModuleWireRecord struct {
	Module       string       `yaml:"module"`
	SymbolicName string       `yaml:"symbolic_name"`
	Version      string       `yaml:"version,omitempty"`
	Wires        []WireRecord `yaml:"wires"`
}

// WireMapFile is the wires.yaml document written after a successful
// resolve.
type WireMapFile struct {
	Root    string             `yaml:"root"`
	Modules []ModuleWireRecord `yaml:"modules"`
}

// ResolutionReport summarizes how a resolve run went.
type ResolutionReport struct {
	ResolveID string   `yaml:"resolve_id"`
	Root      string   `yaml:"root"`
	Dynamic   string   `yaml:"dynamic_package,omitempty"`
	Modules   int      `yaml:"modules"`
	Wires     int      `yaml:"wires"`
	Retracted []string `yaml:"retracted_optionals,omitempty"`
	CreatedAt string   `yaml:"created_at"`
}
