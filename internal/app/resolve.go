package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"modwire/internal/adapters"
	"modwire/internal/core"
	"modwire/internal/ports"
	"modwire/internal/shared"
	"modwire/internal/types"
)

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	indexPath := strings.TrimSpace(req.IndexPath)
	if indexPath == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module index path is required")
	}
	rootID := strings.TrimSpace(req.RootID)
	if rootID == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("root module id is required")
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	env, modules, err := loadEnvironment(ctx, indexPath)
	if err != nil {
		return ResolveResult{}, err
	}
	root, err := findModule(modules, rootID)
	if err != nil {
		return ResolveResult{}, err
	}
	optionals, err := findModules(modules, req.OptionalIDs)
	if err != nil {
		return ResolveResult{}, err
	}

	resolver := core.NewResolver()
	resolver.UseSatPrecheck = req.SatPrecheck
	wireMap, err := resolver.Resolve(ctx, env, root, optionals)
	if err != nil {
		return ResolveResult{}, err
	}

	file := buildWireMapFile(root, wireMap)
	report := buildReport(root, "", wireMap, resolver.Retracted(), s.now())

	output := adapters.NewOutputFileAdapter(outputDir)
	if err := output.WriteWireMap(file); err != nil {
		return ResolveResult{}, err
	}
	if err := output.WriteResolutionReport(report); err != nil {
		return ResolveResult{}, err
	}

	log.Ctx(ctx).Info().Str("root", root.ID()).Int("modules", report.Modules).
		Int("wires", report.Wires).Msg("resolve written")
	return ResolveResult{
		Root:      root.ID(),
		Modules:   report.Modules,
		Wires:     report.Wires,
		Retracted: report.Retracted,
		OutputDir: outputDir,
	}, nil
}

// loadEnvironment loads and validates the index, then materializes the
// module graph and its candidate environment.
func loadEnvironment(ctx context.Context, indexPath string) (ports.EnvironmentPort, []types.Module, error) {
	index, err := adapters.NewModuleIndexFileAdapter(indexPath).Load()
	if err != nil {
		return nil, nil, err
	}
	if err := core.NewIndexCompiler().ValidateIndex(ctx, index); err != nil {
		return nil, nil, err
	}
	modules, err := adapters.BuildModules(index)
	if err != nil {
		return nil, nil, err
	}
	return adapters.NewEnvironmentAdapter(modules), modules, nil
}

func findModule(modules []types.Module, id string) (types.Module, error) {
	normalized := shared.NormalizeID(id)
	for _, module := range modules {
		if shared.NormalizeID(module.ID()) == normalized {
			return module, nil
		}
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("module %q not found in index", id))
}

func findModules(modules []types.Module, ids []string) ([]types.Module, error) {
	var out []types.Module
	for _, id := range ids {
		module, err := findModule(modules, id)
		if err != nil {
			return nil, err
		}
		out = append(out, module)
	}
	return out, nil
}

func buildWireMapFile(root types.Module, wireMap map[types.Module][]*types.Wire) types.WireMapFile {
	file := types.WireMapFile{Root: root.ID()}
	for module, wires := range wireMap {
		record := types.ModuleWireRecord{
			Module:       module.ID(),
			SymbolicName: module.SymbolicName(),
			Wires:        []types.WireRecord{},
		}
		if module.Version() != nil {
			record.Version = module.Version().String()
		}
		for _, wire := range wires {
			record.Wires = append(record.Wires, types.WireRecord{
				Namespace: wire.Requirement.Namespace(),
				Filter:    wire.Requirement.Filter(),
				Provider:  wire.Provider.ID(),
				Package:   types.PackageName(wire.Capability),
			})
		}
		file.Modules = append(file.Modules, record)
	}
	sort.Slice(file.Modules, func(i, j int) bool {
		return file.Modules[i].Module < file.Modules[j].Module
	})
	return file
}

func buildReport(root types.Module, dynamicPkg string, wireMap map[types.Module][]*types.Wire, retracted []types.Module, now time.Time) types.ResolutionReport {
	report := types.ResolutionReport{
		ResolveID: uuid.NewString(),
		Root:      root.ID(),
		Dynamic:   dynamicPkg,
		Modules:   len(wireMap),
		CreatedAt: now.Format(time.RFC3339),
	}
	for _, wires := range wireMap {
		report.Wires += len(wires)
	}
	for _, module := range retracted {
		report.Retracted = append(report.Retracted, module.ID())
	}
	sort.Strings(report.Retracted)
	return report
}
