// Package testutil provides shared test helpers used across
// integration, e2e, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the path two directories above the current working
// directory, which is the repository root for test packages under
// tests/. It fails the test if the working directory cannot be
// determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteIndex writes a module index document into a temp directory and
// returns its path.
func WriteIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
