package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quantstack/releash/internal/pipeline"
)

var (
	nameStyle    = lipgloss.NewStyle().Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current version of every package",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), pipeline.Options{
			ConfigFile: cfgFile,
			Packages:   packages,
		})
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		statuses, err := p.Status(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, s := range statuses {
			fmt.Fprintln(out, formatStatus(s))
		}
		return nil
	},
}

func formatStatus(s pipeline.PackageStatus) string {
	targets := "no release targets"
	if len(s.Targets) > 0 {
		targets = strings.Join(s.Targets, " → ")
	}
	return fmt.Sprintf("%s %s %s",
		nameStyle.Render(s.Name),
		versionStyle.Render(s.Version.String()),
		mutedStyle.Render("("+targets+")"),
	)
}
