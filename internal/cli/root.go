// Package cli implements the nearby CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Show who is connected nearby",
	Long: `Nearby drives the presence surfaces of the nearbyd daemon: the status
notification in the system tray and the floating overlay widget.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(overlayCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}
