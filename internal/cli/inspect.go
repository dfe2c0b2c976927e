// internal/cli/inspect.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativekit/nativekit"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file...]",
	Short: "Show the supported architectures of native library files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	packager := nativekit.NewPackager(config, reporter)

	for _, file := range args {
		lib, err := packager.Inspector().CreateForFile(ctx, file)
		if err != nil {
			fmt.Printf("%s: %v\n", file, err)
			continue
		}
		fmt.Printf("%s: %s %v\n", file, lib.Name(), lib.Architectures())
	}
	return nil
}
