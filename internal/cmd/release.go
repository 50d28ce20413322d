package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantstack/releash/internal/pipeline"
	"github.com/quantstack/releash/internal/version"
)

var (
	bumpPart   string
	allowDirty bool
	noCommit   bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the release targets",
	Long: `Release every package by running its release targets in order.

For the default configuration this:
  - creates an annotated tag named after the header version
  - pushes the branch and tags to the upstream remote
  - updates the conda-forge feedstock recipe and commits it

Use --bump to bump the version before releasing.
Use --dry-run to print the actions without performing them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts := pipeline.Options{
			ConfigFile: cfgFile,
			Packages:   packages,
			DryRun:     dryRun,
			AllowDirty: allowDirty,
			Timeout:    timeout,
		}
		if bumpPart != "" {
			part, err := version.ParsePart(bumpPart)
			if err != nil {
				return err
			}
			opts.Bump = part
		}

		p, err := pipeline.New(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		if err := p.Run(ctx); err != nil {
			return fmt.Errorf("release failed: %w", err)
		}

		return nil
	},
}

var bumpCmd = &cobra.Command{
	Use:       "bump <major|minor|patch>",
	Short:     "Bump the version of every package",
	Long:      `Bump the version macros of every package and commit the change.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(version.PartMajor), string(version.PartMinor), string(version.PartPatch)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		part, err := version.ParsePart(args[0])
		if err != nil {
			return err
		}

		p, err := pipeline.New(ctx, pipeline.Options{
			ConfigFile: cfgFile,
			Packages:   packages,
			DryRun:     dryRun,
			NoCommit:   noCommit,
		})
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		bumped, err := p.Bump(ctx, part)
		if err != nil {
			return fmt.Errorf("bump failed: %w", err)
		}

		for _, pkg := range p.Packages() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", pkg.Name, bumped[pkg.Name])
		}
		return nil
	},
}

func init() {
	releaseCmd.Flags().StringVar(&bumpPart, "bump", "", "bump this version part first (major, minor, patch)")
	releaseCmd.Flags().BoolVar(&allowDirty, "allow-dirty", false, "release from a working tree with uncommitted changes")
	releaseCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the actions without performing them")

	bumpCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the new versions without writing them")
	bumpCmd.Flags().BoolVar(&noCommit, "no-commit", false, "write the version files without committing")
}
