package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"modwire/internal/app"
)

type resolveOptions struct {
	Index       string
	Root        string
	Optionals   []string
	OutputDir   string
	SatPrecheck bool
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a root module and emit its wire map",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Index, "index", "", "Module index file")
	cmd.Flags().StringVar(&opts.Root, "root", "", "Root module id")
	cmd.Flags().StringSliceVar(&opts.Optionals, "optional", nil, "Optional module ids (typically fragments)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().BoolVar(&opts.SatPrecheck, "sat-precheck", false, "Run a satisfiability pre-check before the search")

	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("optionals", cmd.Flags().Lookup("optional"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("sat_precheck", cmd.Flags().Lookup("sat-precheck"))

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		IndexPath:   resolveString(cmd, opts.Index, "index", "index"),
		RootID:      resolveString(cmd, opts.Root, "root", "root"),
		OptionalIDs: resolveStrings(cmd, opts.Optionals, "optionals", "optional"),
		OutputDir:   resolveString(cmd, opts.OutputDir, "output", "output"),
		SatPrecheck: resolveBool(cmd, opts.SatPrecheck, "sat_precheck", "sat-precheck"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("resolved: %s (%d modules, %d wires)\n", result.Root, result.Modules, result.Wires)
	return nil
}
