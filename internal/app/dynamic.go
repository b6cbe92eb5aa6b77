package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"modwire/internal/adapters"
	"modwire/internal/core"
	"modwire/internal/types"
)

// Dynamic resolves a single on-demand package import for a module.
// The module index describes unresolved declarations, so the root is
// statically resolved and its wiring installed before the dynamic
// import is attempted against it.
func (s Service) Dynamic(ctx context.Context, req DynamicRequest) (DynamicResult, error) {
	indexPath := strings.TrimSpace(req.IndexPath)
	if indexPath == "" {
		return DynamicResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module index path is required")
	}
	rootID := strings.TrimSpace(req.RootID)
	if rootID == "" {
		return DynamicResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("root module id is required")
	}
	pkgName := strings.TrimSpace(req.PackageName)
	if pkgName == "" {
		return DynamicResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return DynamicResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	env, modules, err := loadEnvironment(ctx, indexPath)
	if err != nil {
		return DynamicResult{}, err
	}
	root, err := findModule(modules, rootID)
	if err != nil {
		return DynamicResult{}, err
	}
	optionals, err := findModules(modules, req.OptionalIDs)
	if err != nil {
		return DynamicResult{}, err
	}

	resolver := core.NewResolver()
	if root.Wiring() == nil {
		staticWires, err := resolver.Resolve(ctx, env, root, nil)
		if err != nil {
			return DynamicResult{}, err
		}
		InstallWires(staticWires)
	}

	wireMap, err := resolver.ResolveDynamic(ctx, env, root, pkgName, optionals)
	if err != nil {
		return DynamicResult{}, err
	}
	if wireMap == nil {
		log.Ctx(ctx).Info().Str("root", root.ID()).Str("package", pkgName).
			Msg("dynamic import is inapplicable")
		return DynamicResult{Root: root.ID(), Package: pkgName, Applied: false}, nil
	}

	file := buildWireMapFile(root, wireMap)
	report := buildReport(root, pkgName, wireMap, resolver.Retracted(), s.now())

	output := adapters.NewOutputFileAdapter(outputDir)
	if err := output.WriteWireMap(file); err != nil {
		return DynamicResult{}, err
	}
	if err := output.WriteResolutionReport(report); err != nil {
		return DynamicResult{}, err
	}
	return DynamicResult{
		Root:      root.ID(),
		Package:   pkgName,
		Applied:   true,
		Wires:     report.Wires,
		OutputDir: outputDir,
	}, nil
}

// InstallWires freezes every module in a wire map by installing its
// emitted wires as wiring.
func InstallWires(wireMap map[types.Module][]*types.Wire) {
	for module, wires := range wireMap {
		revision, ok := module.(*types.ModuleRevision)
		if ok && revision.Wiring() == nil {
			revision.SetWiring(types.NewInstalledWiring(
				wires,
				revision.DeclaredCapabilities(""),
				revision.DeclaredRequirements("")))
		}
	}
}
