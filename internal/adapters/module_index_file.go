package adapters

import (
	"fmt"
	"os"

	semver "github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"modwire/internal/ports"
	"modwire/internal/types"
)

// ModuleIndexFileAdapter loads the YAML module index and caches it for
// the lifetime of the adapter.
type ModuleIndexFileAdapter struct {
	Path   string
	cached types.IndexFile
	loaded bool
}

func NewModuleIndexFileAdapter(path string) *ModuleIndexFileAdapter {
	return &ModuleIndexFileAdapter{Path: path}
}

func (a *ModuleIndexFileAdapter) Load() (types.IndexFile, error) {
	if a.loaded {
		return a.cached, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("module index file not found").
			WithCause(err)
	}
	var index types.IndexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid module index format").
			WithCause(err)
	}
	a.cached = index
	a.loaded = true
	return index, nil
}

var _ ports.ModuleIndexPort = (*ModuleIndexFileAdapter)(nil)

// BuildModules materializes the declared module graph from a loaded
// index document.
func BuildModules(index types.IndexFile) ([]types.Module, error) {
	modules := make([]types.Module, 0, len(index.Modules))
	for _, entry := range index.Modules {
		var version *semver.Version
		if entry.Version != "" {
			parsed, err := semver.NewVersion(entry.Version)
			if err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("module %s has invalid version %q", entry.ID, entry.Version)).
					WithCause(err)
			}
			version = parsed
		}
		module := types.NewModule(entry.ID, entry.SymbolicName, version)
		for _, cap := range entry.Capabilities {
			module.AddCapability(cap.Namespace, cap.Attributes, cap.Directives, cap.Uses)
		}
		for _, req := range entry.Requirements {
			module.AddRequirement(req.Namespace, req.Filter, req.Directives)
		}
		modules = append(modules, module)
	}
	return modules, nil
}
