package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/daemon/server"
)

var (
	overlayFlags      payloadFlags
	overlayRequestArg bool
)

var overlayCmd = &cobra.Command{
	Use:     "overlay",
	Aliases: []string{"o"},
	Short:   "Control the floating overlay widget",
}

var overlayShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the overlay (requires the overlay permission)",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := buildPayload(overlayFlags.input(cmd), os.Stdin)
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *server.Client) error {
			shown, err := c.ShowOverlay(ctx, payload)
			if err != nil {
				return fmt.Errorf("failed to show overlay: %w", err)
			}
			if !shown {
				fmt.Println(styleWarning.Render("Overlay not shown."))
				fmt.Println(styleHint.Render("  Grant the permission with: nearby overlay permission --request"))
				return nil
			}
			fmt.Println(styleSuccess.Render("Overlay shown."))
			return nil
		})
	},
}

var overlayUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace the overlay content if it is showing",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := buildPayload(overlayFlags.input(cmd), os.Stdin)
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *server.Client) error {
			if err := c.UpdateOverlay(ctx, payload); err != nil {
				return fmt.Errorf("failed to update overlay: %w", err)
			}
			return nil
		})
	},
}

var overlayHideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Remove the overlay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *server.Client) error {
			if err := c.HideOverlay(ctx); err != nil {
				return fmt.Errorf("failed to hide overlay: %w", err)
			}
			fmt.Println(styleSuccess.Render("Overlay hidden."))
			return nil
		})
	},
}

var overlayPermissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Check or request the overlay permission",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *server.Client) error {
			var (
				granted bool
				err     error
			)
			if overlayRequestArg {
				granted, err = c.RequestOverlayPermission(ctx)
			} else {
				granted, err = c.CheckOverlayPermission(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to query overlay permission: %w", err)
			}

			switch {
			case granted:
				fmt.Println(styleSuccess.Render("Overlay permission granted."))
			case overlayRequestArg:
				fmt.Println(styleWarning.Render("Overlay permission requested."))
				fmt.Println(styleHint.Render("  Allow it from the tray menu, or set overlay.permitted in settings."))
			default:
				fmt.Println(styleError.Render("Overlay permission not granted."))
			}
			return nil
		})
	},
}

func init() {
	addPayloadFlags(overlayShowCmd, &overlayFlags)
	addPayloadFlags(overlayUpdateCmd, &overlayFlags)
	overlayPermissionCmd.Flags().BoolVar(&overlayRequestArg, "request", false, "ask the user for the permission")

	overlayCmd.AddCommand(overlayShowCmd)
	overlayCmd.AddCommand(overlayUpdateCmd)
	overlayCmd.AddCommand(overlayHideCmd)
	overlayCmd.AddCommand(overlayPermissionCmd)
}
