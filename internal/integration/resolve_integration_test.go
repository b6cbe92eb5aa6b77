package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"modwire/internal/app"
)

func TestResolveIntegration(t *testing.T) {
	root := repoRoot(t)
	indexPath := filepath.Join(root, "fixtures/module-index.yaml")
	outDir := t.TempDir()

	service := app.NewService()
	result, err := service.Resolve(t.Context(), app.ResolveRequest{
		IndexPath: indexPath,
		RootID:    "consumer",
		OutputDir: outDir,
	})
	require.NoError(t, err)
	require.Equal(t, "consumer", result.Root)
	require.Equal(t, 3, result.Modules)
	require.Equal(t, 3, result.Wires)

	_, err = os.Stat(filepath.Join(outDir, "wires.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "resolution.yaml"))
	require.NoError(t, err)

	inspected, err := service.Inspect(t.Context(), app.InspectRequest{OutputDir: outDir})
	require.NoError(t, err)
	require.Equal(t, result.Wires, inspected.Wires)
	require.Contains(t, inspected.Packages, "com.example.api")
	require.Contains(t, inspected.Packages, "com.example.base")
}

func TestResolveIntegrationWithSatPrecheck(t *testing.T) {
	root := repoRoot(t)
	service := app.NewService()
	result, err := service.Resolve(t.Context(), app.ResolveRequest{
		IndexPath:   filepath.Join(root, "fixtures/module-index.yaml"),
		RootID:      "consumer",
		OutputDir:   t.TempDir(),
		SatPrecheck: true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Modules)
}

func repoRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}
