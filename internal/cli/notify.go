package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/daemon/server"
)

var notifyFlags payloadFlags

var notifyCmd = &cobra.Command{
	Use:     "notify",
	Aliases: []string{"n"},
	Short:   "Control the status notification",
}

var notifyStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Show the notification, or replace its content if shown",
	Example: `  nearby notify start --name Ana --activity Typing --user Bo:Browsing --user Cy:Idle
  nearby notify start --json '{"selfName":"Ana","connectedCount":5}'`,
	RunE: runNotifyStart,
}

var notifyStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Remove the notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *server.Client) error {
			if err := c.StopNotification(ctx); err != nil {
				return fmt.Errorf("failed to stop notification: %w", err)
			}
			fmt.Println(styleSuccess.Render("Notification removed."))
			return nil
		})
	},
}

func init() {
	addPayloadFlags(notifyStartCmd, &notifyFlags)
	notifyCmd.AddCommand(notifyStartCmd)
	notifyCmd.AddCommand(notifyStopCmd)
}

func runNotifyStart(cmd *cobra.Command, args []string) error {
	payload, err := buildPayload(notifyFlags.input(cmd), os.Stdin)
	if err != nil {
		return err
	}
	return withClient(func(ctx context.Context, c *server.Client) error {
		if err := c.StartNotification(ctx, payload); err != nil {
			return fmt.Errorf("failed to show notification: %w", err)
		}
		fmt.Println(styleSuccess.Render("Notification shown."))
		return nil
	})
}
