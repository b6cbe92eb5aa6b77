package app

import (
	"context"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"modwire/internal/adapters"
	"modwire/internal/shared"
)

func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	file, err := adapters.NewOutputReaderAdapter(outputDir).ReadWireMap()
	if err != nil {
		return InspectResult{}, err
	}
	result := InspectResult{Root: file.Root, Modules: len(file.Modules)}
	var packages []string
	for _, module := range file.Modules {
		result.Wires += len(module.Wires)
		for _, wire := range module.Wires {
			if wire.Package != "" {
				packages = append(packages, wire.Package)
			}
		}
	}
	sort.Strings(packages)
	result.Packages = shared.UniqueStrings(packages)
	return result, nil
}
