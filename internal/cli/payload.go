package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/watchfire-io/nearby/internal/presence"
)

// payloadFlags are the flags shared by every command that carries a
// presence snapshot.
type payloadFlags struct {
	json     string
	selfName string
	activity string
	count    int
	users    []string
	avatar   string
}

func addPayloadFlags(cmd *cobra.Command, f *payloadFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.json, "json", "", "payload as JSON, @file to read a file, or - for stdin")
	flags.StringVar(&f.selfName, "name", "", "local user's display name")
	flags.StringVar(&f.activity, "activity", "", "local user's activity")
	flags.IntVar(&f.count, "count", 0, "connected user count (defaults to the number of --user flags)")
	flags.StringArrayVar(&f.users, "user", nil, "connected user as name:activity (repeatable)")
	flags.StringVar(&f.avatar, "avatar", "", "avatar image URL")
}

// payloadInput is what the user supplied; nil fields were not given.
type payloadInput struct {
	JSON     string
	SelfName *string
	Activity *string
	Count    *int
	Users    []string
	Avatar   *string
}

func (f *payloadFlags) input(cmd *cobra.Command) payloadInput {
	in := payloadInput{JSON: f.json, Users: f.users}
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.SelfName = &f.selfName
	}
	if flags.Changed("activity") {
		in.Activity = &f.activity
	}
	if flags.Changed("count") {
		in.Count = &f.count
	}
	if flags.Changed("avatar") {
		in.Avatar = &f.avatar
	}
	return in
}

// buildPayload merges the JSON body with flag overrides. Flags win.
func buildPayload(in payloadInput, stdin io.Reader) (map[string]any, error) {
	payload := map[string]any{}

	if in.JSON != "" {
		data, err := readJSONArg(in.JSON, stdin)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid payload JSON: %w", err)
		}
		if payload == nil {
			payload = map[string]any{}
		}
	}

	if in.SelfName != nil {
		payload[presence.KeySelfName] = *in.SelfName
	}
	if in.Activity != nil {
		payload[presence.KeySelfActivity] = *in.Activity
	}
	if in.Avatar != nil {
		payload[presence.KeyAvatarURL] = *in.Avatar
	}

	if len(in.Users) > 0 {
		users := make([]any, 0, len(in.Users))
		for _, u := range in.Users {
			users = append(users, parseUser(u))
		}
		payload[presence.KeyUsers] = users
		if _, ok := payload[presence.KeyConnectedCount]; !ok && in.Count == nil {
			payload[presence.KeyConnectedCount] = len(users)
		}
	}
	if in.Count != nil {
		payload[presence.KeyConnectedCount] = *in.Count
	}

	return payload, nil
}

func readJSONArg(arg string, stdin io.Reader) ([]byte, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return data, nil
	default:
		return []byte(arg), nil
	}
}

// parseUser parses "name:activity". A missing activity is left out so the
// daemon applies its default.
func parseUser(s string) map[string]any {
	name, activity, found := strings.Cut(s, ":")
	user := map[string]any{presence.KeyPeerName: strings.TrimSpace(name)}
	if found {
		user[presence.KeyPeerActivity] = strings.TrimSpace(activity)
	}
	return user
}
