// internal/cli/expand.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativekit/nativekit"
)

var (
	expandClassDest     string
	expandLibDest       string
	expandFrameworkDest string
)

var expandCmd = &cobra.Command{
	Use:   "expand [source...]",
	Short: "Expand sources into classified destinations",
	Long: `Expand zip archives, tar.xz archives, nar archives, loose files and
directory trees into the configured destinations, classifying every
item as class/resource content, native library, framework, or debug
symbols and resolving name collisions.

Examples:
  nativekit expand app.jar --classes out/classes --libs out/libs
  nativekit expand natives/ extra.zip --libs out/libs --frameworks out/fw`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().StringVar(&expandClassDest, "classes", "", "class/resource destination directory")
	expandCmd.Flags().StringVar(&expandLibDest, "libs", "", "native-library destination directory")
	expandCmd.Flags().StringVar(&expandFrameworkDest, "frameworks", "", "framework destination directory")
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg := *config
	cfg.Sources = args
	if expandClassDest != "" {
		cfg.ClassDest = expandClassDest
	}
	if expandLibDest != "" {
		cfg.LibDest = expandLibDest
	}
	if expandFrameworkDest != "" {
		cfg.FrameworkDest = expandFrameworkDest
	}

	packager := nativekit.NewPackager(&cfg, reporter)
	result, err := packager.Expand(context.Background())
	if err != nil {
		return err
	}

	for _, lib := range result.Libraries {
		line := fmt.Sprintf("library %s %v", lib.Name(), lib.Architectures())
		if dir, ok := lib.DebugSymbols(); ok {
			line += fmt.Sprintf(" (debug symbols: %s)", dir)
		}
		fmt.Println(line)
	}
	for _, fw := range result.Frameworks {
		fmt.Printf("framework %s\n", fw.Name())
	}

	if result.ErrorsFound {
		return fmt.Errorf("errors found while expanding sources")
	}
	return nil
}
