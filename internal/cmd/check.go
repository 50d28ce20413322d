package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantstack/releash"
	"github.com/quantstack/releash/internal/config"
	"github.com/quantstack/releash/internal/pipeline"
	"github.com/quantstack/releash/internal/release"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration file",
	Long: `Check if the configuration file is valid.

This validates:
  - YAML syntax and includes
  - Required fields
  - Template syntax
  - git_push references and release order
  - That every version header can be read`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = pipeline.FindConfigFile()
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		pkgs, err := release.FromConfig(cfg)
		if err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		for _, pkg := range pkgs {
			if _, err := pkg.CurrentVersion(cmd.Context()); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration file %s is valid\n", configPath)
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long: `Initialize a new .releash.yaml configuration file.

The generated file releases a header-only library with an annotated tag,
a push to upstream and a conda-forge feedstock update.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := ".releash.yaml"
		if cfgFile != "" {
			configPath = cfgFile
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s", configPath)
		}

		if err := os.WriteFile(configPath, []byte(config.DefaultTemplate()), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", configPath)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "releash %s\n", releash.Version)
		if releash.GitCommit != "" {
			fmt.Fprintf(out, "  Commit: %s\n", releash.GitCommit)
		}
		if releash.BuildDate != "" {
			fmt.Fprintf(out, "  Built:  %s\n", releash.BuildDate)
		}
	},
}
