package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/buildinfo"
	"github.com/watchfire-io/nearby/internal/config"
	"github.com/watchfire-io/nearby/internal/models"
)

var (
	dStyleBrand   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "45"})
	dStyleVersion = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "40"})
	dStyleLabel   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
	dStyleValue   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
	dStyleHint    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
)

var daemonVersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version and transport configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		settings, err := config.LoadSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		writeVersion(os.Stdout, path, settings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonVersionCmd)
}

// writeVersion prints the build and the transports nearbyd would start with.
func writeVersion(w io.Writer, settingsPath string, s *models.Settings) {
	row := func(label, value string) {
		fmt.Fprintf(w, "    %-9s %s\n", dStyleLabel.Render(label), dStyleValue.Render(value))
	}

	fmt.Fprintf(w, "  %s %s %s\n",
		dStyleBrand.Render("nearbyd"),
		dStyleVersion.Render(buildinfo.Version),
		dStyleHint.Render("("+buildinfo.Codename+")"),
	)
	row("Commit", buildinfo.CommitHash)
	row("Built", buildinfo.BuildDate)
	row("Platform", runtime.GOOS+"/"+runtime.GOARCH+" "+runtime.Version())

	fmt.Fprintln(w)
	row("Settings", settingsPath)
	row("gRPC", portLabel(s.Transport.Port))
	row("Web", portLabel(s.Transport.WebPort))
	if s.Transport.RedisURL == "" {
		row("Redis", "disabled")
	} else {
		row("Redis", s.Transport.RedisURL+" "+dStyleHint.Render("("+s.Transport.RedisChannel+")"))
	}
}

func portLabel(port int) string {
	switch {
	case port < 0:
		return "disabled"
	case port == 0:
		return "dynamic port"
	default:
		return fmt.Sprintf("port %d", port)
	}
}
