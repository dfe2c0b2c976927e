// internal/cli/root.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nativekit/nativekit/pkg/core"
)

var (
	cfgFile  string
	verbose  bool
	config   *core.Config
	reporter core.Reporter
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nativekit",
	Short: "Native library packaging toolkit",
	Long: `nativekit - Native library packaging toolkit

Discovers native libraries and frameworks inside archives and directory
trees, resolves their transitive dependencies, and merges heterogeneous
sources into classified output locations.`,
	Version: "0.1.0",
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nativekit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostics")

	// Add commands
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(lipoCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	if verbose {
		config.Debug = true
	}
	reporter = core.NewReporter(os.Stderr, config.Debug)
}
