package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"modwire/internal/adapters"
	"modwire/internal/app"
	"modwire/internal/types"
	"modwire/tests/testutil"
)

// TestResolveMatchesGolden compares a full resolve of the sample index
// against the checked-in wire map, structurally rather than textually
// so encoder formatting does not matter.
func TestResolveMatchesGolden(t *testing.T) {
	root := testutil.RepoRoot(t)
	outDir := t.TempDir()

	service := app.NewService()
	_, err := service.Resolve(t.Context(), app.ResolveRequest{
		IndexPath: filepath.Join(root, "fixtures/module-index.yaml"),
		RootID:    "consumer",
		OutputDir: outDir,
	})
	require.NoError(t, err)

	actual, err := adapters.NewOutputReaderAdapter(outDir).ReadWireMap()
	require.NoError(t, err)

	goldenData, err := os.ReadFile(filepath.Join(root, "fixtures/golden/wires.yaml"))
	require.NoError(t, err)
	var golden types.WireMapFile
	require.NoError(t, yaml.Unmarshal(goldenData, &golden))

	if diff := cmp.Diff(golden, actual); diff != "" {
		t.Fatalf("wire map differs from golden (-golden +actual):\n%s", diff)
	}
}
