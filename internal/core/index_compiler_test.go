package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"modwire/internal/types"
)

func validIndex() types.IndexFile {
	return types.IndexFile{
		APIVersion: "v1",
		Modules: []types.IndexModule{
			{
				ID:           "a",
				SymbolicName: "a",
				Version:      "1.0.0",
				Capabilities: []types.IndexCapability{
					{
						Namespace:  types.PackageNamespace,
						Attributes: map[string]any{types.PackageAttr: "p"},
					},
				},
			},
			{
				ID:           "b",
				SymbolicName: "b",
				Version:      "1.0.0",
				Requirements: []types.IndexRequirement{
					{
						Namespace: types.PackageNamespace,
						Filter:    "(" + types.PackageAttr + "=p)",
					},
				},
			},
		},
	}
}

func TestValidateIndexAcceptsWellFormedIndex(t *testing.T) {
	err := NewIndexCompiler().ValidateIndex(t.Context(), validIndex())
	require.NoError(t, err)
}

func TestValidateIndexRejectsDuplicateIDs(t *testing.T) {
	index := validIndex()
	index.Modules[1].ID = "a"
	err := NewIndexCompiler().ValidateIndex(t.Context(), index)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate module id")
}

func TestValidateIndexRejectsBadVersion(t *testing.T) {
	index := validIndex()
	index.Modules[0].Version = "not-a-version"
	err := NewIndexCompiler().ValidateIndex(t.Context(), index)
	require.Error(t, err)
}

func TestValidateIndexRejectsPackageCapabilityWithoutName(t *testing.T) {
	index := validIndex()
	index.Modules[0].Capabilities[0].Attributes = nil
	err := NewIndexCompiler().ValidateIndex(t.Context(), index)
	require.Error(t, err)
}

func TestValidateIndexRejectsUnknownResolution(t *testing.T) {
	index := validIndex()
	index.Modules[1].Requirements[0].Directives = map[string]string{
		types.ResolutionDirective: "later",
	}
	err := NewIndexCompiler().ValidateIndex(t.Context(), index)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown resolution directive")
}

func TestValidateIndexRejectsEmptyIndex(t *testing.T) {
	err := NewIndexCompiler().ValidateIndex(t.Context(), types.IndexFile{APIVersion: "v1"})
	require.Error(t, err)
}
