package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/config"
	"github.com/watchfire-io/nearby/internal/daemon/server"
	"github.com/watchfire-io/nearby/internal/models"
)

var startFlags daemonArgs

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the Nearby daemon",
	Long:  `Start, inspect and stop nearbyd, the process that owns the tray notification and the overlay.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and surface states",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonStartCmd.Flags().IntVar(&startFlags.webPort, "web-port", -1, "Serve grpc-web and WebSocket on this port (0 for dynamic)")
	daemonStartCmd.Flags().StringVar(&startFlags.redisURL, "redis-url", "", "Also receive commands from this Redis server")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := daemonState()
	if err != nil {
		return err
	}
	if running {
		fmt.Printf("Daemon is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	fmt.Print("Starting daemon...")
	info, err = launchDaemon(startFlags)
	if err != nil {
		fmt.Println()
		return err
	}
	fmt.Printf(" %s (PID %d, port %d).\n", styleSuccess.Render("started"), info.PID, info.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := daemonState()
	if err != nil {
		return err
	}
	if !running {
		fmt.Println("Daemon is not running.")
		return nil
	}

	printDaemonInfo(info)

	// Surface state comes from the daemon itself; skip it if unreachable.
	conn, err := connectDaemon()
	if err != nil {
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	st, err := server.NewClient(conn).Status(ctx)
	if err != nil {
		fmt.Println(styleWarning.Render("\nCould not query surfaces: ") + err.Error())
		return nil
	}
	printSurfaces(st)
	return nil
}

func printDaemonInfo(info *models.DaemonInfo) {
	row := func(label string, value any) {
		fmt.Printf("  %-13s %s\n", styleLabel.Render(label+":"), styleValue.Render(fmt.Sprint(value)))
	}

	fmt.Println(styleSuccess.Render("Daemon is running."))
	row("Address", info.Address())
	if info.WebPort > 0 {
		row("Web port", info.WebPort)
	}
	row("PID", info.PID)
	row("Uptime", time.Since(info.StartedAt).Truncate(time.Second))
}

func printSurfaces(st map[string]any) {
	fmt.Println()
	if surfaces, ok := st["surfaces"].(map[string]any); ok {
		names := make([]string, 0, len(surfaces))
		for name := range surfaces {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := fmt.Sprint(surfaces[name])
			style := styleHint
			if state == "visible" {
				style = styleSuccess
			}
			fmt.Printf("  %-13s %s\n", styleLabel.Render(name+":"), style.Render(state))
		}
	}
	fmt.Printf("  %-13s %v\n", styleLabel.Render("overlay ok:"), st["overlayPermission"])
	if requested, _ := st["overlayRequested"].(bool); requested {
		fmt.Printf("  %-13s %s\n", styleLabel.Render(""), styleWarning.Render("waiting for the user to grant the overlay"))
	}
	if clients, ok := st["webClients"].(float64); ok && clients > 0 {
		fmt.Printf("  %-13s %v\n", styleLabel.Render("ws clients:"), clients)
	}
	fmt.Printf("  %-13s %v: %v (%v connected)\n", styleLabel.Render("presence:"), st["selfName"], st["selfActivity"], st["connectedCount"])
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := daemonState()
	if err != nil {
		return err
	}
	if !running {
		fmt.Println("Daemon is not running.")
		return nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	stopped := poll(stopTimeout, func() bool {
		alive, _, err := config.IsDaemonRunning()
		return err == nil && !alive
	})
	if !stopped {
		return fmt.Errorf("daemon did not stop within %s", stopTimeout)
	}
	fmt.Println("Daemon stopped.")
	return nil
}
