// internal/cli/lipo.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nativekit/nativekit"
)

var lipoOutput string

var lipoCmd = &cobra.Command{
	Use:   "lipo [input...]",
	Short: "Combine single-architecture files into a universal binary",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLipo,
}

func init() {
	lipoCmd.Flags().StringVarP(&lipoOutput, "output", "o", "", "output file (required)")
	lipoCmd.MarkFlagRequired("output")
}

func runLipo(cmd *cobra.Command, args []string) error {
	packager := nativekit.NewPackager(config, reporter)
	if err := packager.Inspector().CreateUniversal(context.Background(), lipoOutput, args...); err != nil {
		return fmt.Errorf("creating universal binary: %w", err)
	}
	fmt.Printf("created %s\n", lipoOutput)
	return nil
}
