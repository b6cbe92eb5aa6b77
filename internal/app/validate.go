package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"modwire/internal/adapters"
	"modwire/internal/core"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	indexPath := strings.TrimSpace(req.IndexPath)
	if indexPath == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module index path is required")
	}
	index, err := adapters.NewModuleIndexFileAdapter(indexPath).Load()
	if err != nil {
		return ValidateResult{}, err
	}
	if err := core.NewIndexCompiler().ValidateIndex(ctx, index); err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{Modules: len(index.Modules)}, nil
}
