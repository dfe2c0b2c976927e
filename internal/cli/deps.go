// internal/cli/deps.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativekit/nativekit"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

var depsCmd = &cobra.Command{
	Use:   "deps [library-file...]",
	Short: "Print the transitive native dependencies of libraries",
	Long: `Resolve the transitive closure of interesting (non-system) native
dependencies of the given library files.

Examples:
  nativekit deps /usr/local/lib/libheif.dylib
  nativekit deps libfoo.dylib --config build.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDeps,
}

func runDeps(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	packager := nativekit.NewPackager(config, reporter)

	var required []nativelib.Library
	for _, file := range args {
		lib, err := packager.Inspector().CreateForFile(ctx, file)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", file, err)
		}
		required = append(required, lib)
	}

	closure, err := packager.Closure(ctx, required)
	if err != nil {
		return fmt.Errorf("resolving dependencies: %w", err)
	}

	for _, lib := range closure {
		if file, ok := lib.File(); ok {
			fmt.Printf("%s %v %s\n", lib.Name(), lib.Architectures(), file)
			continue
		}
		fmt.Printf("%s %v (per-architecture files)\n", lib.Name(), lib.Architectures())
	}
	return nil
}
