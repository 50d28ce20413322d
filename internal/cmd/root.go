/*
Package cmd provides the CLI commands for releash.
*/
package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	verbose  bool
	debug    bool
	timeout  string
	packages []string
	dryRun   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "releash",
	Short: "Release automation for header-only C++ libraries",
	Long: `releash bumps the version macros of a header-only library, tags and
pushes the release and updates its conda-forge feedstock.

Example:
  releash status                 # Show the current versions
  releash bump patch             # Bump and commit the version macros
  releash release                # Tag, push and update the feedstock
  releash release --bump minor   # Bump, then release`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .releash.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "30m", "timeout for the entire release")
	rootCmd.PersistentFlags().StringSliceVar(&packages, "package", nil, "only operate on these packages")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(bumpCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	log.SetOutput(rootCmd.ErrOrStderr())

	// Dry runs report their planned actions at info level.
	if debug {
		log.SetLevel(log.DebugLevel)
	} else if verbose || dryRun {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}
