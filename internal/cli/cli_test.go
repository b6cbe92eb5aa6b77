package cli

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	expected := []string{"validate", "resolve", "dynamic", "inspect"}
	for _, name := range expected {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestResolveCommandFlags(t *testing.T) {
	cmd := newResolveCommand()
	for _, name := range []string{"index", "root", "optional", "output", "sat-precheck"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestDynamicCommandFlags(t *testing.T) {
	cmd := newDynamicCommand()
	for _, name := range []string{"index", "root", "package", "optional", "output"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid argument",
			err:  errbuilder.New().WithCode(errbuilder.CodeInvalidArgument).WithMsg("bad input"),
			want: 2,
		},
		{
			name: "uses constraint violation",
			err:  errbuilder.New().WithCode(errbuilder.CodeFailedPrecondition).WithMsg("uses constraint violation: conflict"),
			want: 3,
		},
		{
			name: "unsatisfied requirement",
			err:  errbuilder.New().WithCode(errbuilder.CodeFailedPrecondition).WithMsg("unable to resolve x"),
			want: 4,
		},
		{
			name: "not found",
			err:  errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("missing"),
			want: 5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCodeForError(tc.err))
		})
	}
}

// ---------- Flag precedence tests ----------

func TestResolveStringPrefersChangedFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("index", "", "")
	require.NoError(t, cmd.Flags().Set("index", "explicit.yaml"))
	assert.Equal(t, "explicit.yaml", resolveString(cmd, "explicit.yaml", "index", "index"))
}

func TestResolveStringFallsBackWithoutCommand(t *testing.T) {
	assert.Equal(t, "direct.yaml", resolveString(nil, "direct.yaml", "index", "index"))
}
