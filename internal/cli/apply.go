package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/daemon/server"
)

var applyFlags payloadFlags

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Push a presence snapshot to every visible surface",
	Long: `Push a presence snapshot to the notification and the overlay at once.
Surfaces that are hidden stay hidden; the snapshot is used when they are next shown.`,
	Example: `  nearby apply --name Ana --activity "Editing Document" --count 4 --user Bo:Typing
  echo '{"selfName":"Ana","connectedCount":0}' | nearby apply --json -`,
	RunE: runApply,
}

func init() {
	addPayloadFlags(applyCmd, &applyFlags)
}

func runApply(cmd *cobra.Command, args []string) error {
	payload, err := buildPayload(applyFlags.input(cmd), os.Stdin)
	if err != nil {
		return err
	}
	return withClient(func(ctx context.Context, c *server.Client) error {
		if err := c.ApplyPresence(ctx, payload); err != nil {
			return fmt.Errorf("failed to apply presence: %w", err)
		}
		fmt.Println(styleSuccess.Render("Presence applied."))
		return nil
	})
}
