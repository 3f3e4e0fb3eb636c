// Package cmd implements the nearbyd daemon command line.
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/config"
)

var flags struct {
	foreground bool
	port       int
	webPort    int
	redisURL   string
}

var rootCmd = &cobra.Command{
	Use:   "nearbyd",
	Short: "Nearby presence daemon",
	Long: `nearbyd keeps the Nearby presence surfaces on screen: the status
notification in the system tray and the floating overlay widget. Commands
arrive over gRPC, grpc-web, WebSocket or Redis pub/sub.`,
	SilenceUsage: true,
	RunE:         runDaemon,
}

// Execute runs the daemon command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.BoolVar(&flags.foreground, "foreground", false, "Run in foreground (no system tray; the overlay draws on this terminal)")
	f.IntVar(&flags.port, "port", 0, "gRPC port (0 for dynamic allocation)")
	f.IntVar(&flags.webPort, "web-port", -1, "grpc-web and WebSocket port (-1 disables, 0 for dynamic)")
	f.StringVar(&flags.redisURL, "redis-url", "", "Redis URL to receive commands from")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.SetPrefix("[nearbyd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Ensure global directory exists
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	// Check if daemon is already running
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	fl := cmd.Flags()
	if fl.Changed("port") {
		settings.Transport.Port = flags.port
	}
	if fl.Changed("web-port") {
		settings.Transport.WebPort = flags.webPort
	}
	if fl.Changed("redis-url") {
		settings.Transport.RedisURL = flags.redisURL
	}

	if flags.foreground {
		log.Println("Running in foreground mode (no system tray)")
		return runForeground(settings)
	}
	log.Println("Running in background mode (with system tray)")
	return runWithTray(settings)
}
