package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"modwire/internal/app"
)

type dynamicOptions struct {
	Index     string
	Root      string
	Package   string
	Optionals []string
	OutputDir string
}

func newDynamicCommand() *cobra.Command {
	opts := dynamicOptions{}
	cmd := &cobra.Command{
		Use:   "dynamic",
		Short: "Resolve a dynamic package import for a module",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDynamic(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Index, "index", "", "Module index file")
	cmd.Flags().StringVar(&opts.Root, "root", "", "Root module id")
	cmd.Flags().StringVar(&opts.Package, "package", "", "Package name to import dynamically")
	cmd.Flags().StringSliceVar(&opts.Optionals, "optional", nil, "Optional module ids (typically fragments)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")

	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("package", cmd.Flags().Lookup("package"))
	_ = viper.BindPFlag("optionals", cmd.Flags().Lookup("optional"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))

	return cmd
}

func runDynamic(ctx context.Context, cmd *cobra.Command, opts dynamicOptions) error {
	service := newAppService()
	result, err := service.Dynamic(ctx, app.DynamicRequest{
		IndexPath:   resolveString(cmd, opts.Index, "index", "index"),
		RootID:      resolveString(cmd, opts.Root, "root", "root"),
		PackageName: resolveString(cmd, opts.Package, "package", "package"),
		OptionalIDs: resolveStrings(cmd, opts.Optionals, "optionals", "optional"),
		OutputDir:   resolveString(cmd, opts.OutputDir, "output", "output"),
	})
	if err != nil {
		return err
	}
	if !result.Applied {
		fmt.Printf("dynamic import of %s is not applicable for %s\n", result.Package, result.Root)
		return nil
	}
	fmt.Printf("dynamic import resolved: %s -> %s (%d wires)\n", result.Root, result.Package, result.Wires)
	return nil
}
