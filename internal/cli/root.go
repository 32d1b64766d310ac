package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schemagraph",
	Short: "Schemagraph - Mongoose schema diagrams from source code",
	Long: `Schemagraph reads a JavaScript or TypeScript repository, finds its Mongoose
schema definitions and reconstructs the models, fields and relationships
without running any of the code.

Repositories can be scanned from a local directory or directly from GitHub.
Results can be printed as JSON, a Graphviz diagram or a short summary, and
saved for later under a per-user plan.

Configuration is read from .schemagraph/config.yml and SCHEMAGRAPH_*
environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
