package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/watchfire-io/nearby/internal/config"
	"github.com/watchfire-io/nearby/internal/drag"
	"github.com/watchfire-io/nearby/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Show global settings",
	Long: `Show the global settings in ~/.nearby/settings.yaml.

A running daemon reloads the file when it changes.`,
	RunE: runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Keys:
` + settingKeysHelp(),
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	path, _ := config.GlobalSettingsFile()
	fmt.Println(styleHint.Render("# " + path))
	fmt.Print(string(data))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	var applyErr error
	_, err := config.UpdateSettings(func(s *models.Settings) {
		applyErr = applySetting(s, args[0], args[1])
	})
	if applyErr != nil {
		return applyErr
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s %s = %s\n", styleSuccess.Render("Updated"), styleLabel.Render(args[0]), styleValue.Render(args[1]))
	return nil
}

// settingSetters maps settings keys to parsers that apply a value.
var settingSetters = map[string]func(s *models.Settings, v string) error{
	"notification.app_label": func(s *models.Settings, v string) error {
		s.Notification.AppLabel = v
		return nil
	},
	"overlay.permitted": func(s *models.Settings, v string) error {
		return parseInto(v, strconv.ParseBool, &s.Overlay.Permitted)
	},
	"overlay.anchor": func(s *models.Settings, v string) error {
		if _, err := drag.ParseAnchor(v); err != nil {
			return err
		}
		s.Overlay.Anchor = v
		return nil
	},
	"overlay.offset_x": func(s *models.Settings, v string) error {
		return parseInto(v, strconv.Atoi, &s.Overlay.OffsetX)
	},
	"overlay.offset_y": func(s *models.Settings, v string) error {
		return parseInto(v, strconv.Atoi, &s.Overlay.OffsetY)
	},
	"avatar.timeout": func(s *models.Settings, v string) error {
		return parseInto(v, time.ParseDuration, &s.Avatar.Timeout)
	},
	"avatar.cache_size": func(s *models.Settings, v string) error {
		return parseInto(v, strconv.Atoi, &s.Avatar.CacheSize)
	},
	"transport.port": func(s *models.Settings, v string) error {
		return parseInto(v, strconv.Atoi, &s.Transport.Port)
	},
	"transport.web_port": func(s *models.Settings, v string) error {
		return parseInto(v, strconv.Atoi, &s.Transport.WebPort)
	},
	"transport.redis_url": func(s *models.Settings, v string) error {
		s.Transport.RedisURL = v
		return nil
	},
	"transport.redis_channel": func(s *models.Settings, v string) error {
		s.Transport.RedisChannel = v
		return nil
	},
}

func applySetting(s *models.Settings, key, value string) error {
	set, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := set(s, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

func parseInto[T any](v string, parse func(string) (T, error), dst *T) error {
	parsed, err := parse(v)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func settingKeysHelp() string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	help := ""
	for _, k := range keys {
		help += "  " + k + "\n"
	}
	return help
}
