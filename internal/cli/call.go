package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/daemon/server"
	"github.com/watchfire-io/nearby/internal/engine"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [json]",
	Short: "Send a raw command to the daemon",
	Long: fmt.Sprintf(`Send a command by name with optional JSON arguments and print the result.

Known methods: %v`, engine.Methods()),
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	method := args[0]

	var arguments map[string]any
	if len(args) == 2 {
		var err error
		arguments, err = buildPayload(payloadInput{JSON: args[1]}, os.Stdin)
		if err != nil {
			return err
		}
	}

	return withClient(func(ctx context.Context, c *server.Client) error {
		result, err := c.Call(ctx, method, arguments)
		if err != nil {
			return fmt.Errorf("%s failed: %w", method, err)
		}
		out, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	})
}
