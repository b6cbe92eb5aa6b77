package core

import (
	"context"
	"fmt"

	semver "github.com/Masterminds/semver/v3"
	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"modwire/internal/types"
)

type IndexCompiler struct{}

var knownResolutions = map[string]struct{}{
	types.ResolutionMandatory: {},
	types.ResolutionOptional:  {},
	types.ResolutionDynamic:   {},
}

var knownVisibilities = map[string]struct{}{
	types.VisibilityPrivate:  {},
	types.VisibilityReexport: {},
}

func NewIndexCompiler() IndexCompiler {
	return IndexCompiler{}
}

// ValidateIndex checks a loaded module index for the structural
// problems that would otherwise surface as confusing resolve failures.
func (c IndexCompiler) ValidateIndex(ctx context.Context, index types.IndexFile) error {
	assert.NotEmpty(ctx, index.APIVersion, "api_version must be set")
	if len(index.Modules) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module index must list at least one module")
	}
	seen := map[string]struct{}{}
	for _, module := range index.Modules {
		if err := c.validateModule(module); err != nil {
			return err
		}
		if _, ok := seen[module.ID]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate module id %q", module.ID))
		}
		seen[module.ID] = struct{}{}
	}
	log.Ctx(ctx).Debug().Int("modules", len(index.Modules)).Msg("module index validated")
	return nil
}

func (c IndexCompiler) validateModule(module types.IndexModule) error {
	if module.ID == "" || module.SymbolicName == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module id and symbolic_name must be set")
	}
	if module.Version != "" {
		if _, err := semver.NewVersion(module.Version); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("module %s has invalid version %q", module.ID, module.Version)).
				WithCause(err)
		}
	}
	for _, cap := range module.Capabilities {
		if cap.Namespace == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("module %s declares a capability without a namespace", module.ID))
		}
		if cap.Namespace == types.PackageNamespace {
			if name, _ := cap.Attributes[types.PackageAttr].(string); name == "" {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("module %s declares a package capability without the %s attribute", module.ID, types.PackageAttr))
			}
		} else if len(cap.Uses) > 0 && cap.Namespace == types.HostNamespace {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("module %s declares uses on a host capability", module.ID))
		}
	}
	for _, req := range module.Requirements {
		if req.Namespace == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("module %s declares a requirement without a namespace", module.ID))
		}
		if value, ok := req.Directives[types.ResolutionDirective]; ok {
			if _, known := knownResolutions[value]; !known {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("module %s uses unknown resolution directive %q", module.ID, value))
			}
		}
		if value, ok := req.Directives[types.VisibilityDirective]; ok {
			if _, known := knownVisibilities[value]; !known {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("module %s uses unknown visibility directive %q", module.ID, value))
			}
		}
	}
	return nil
}
