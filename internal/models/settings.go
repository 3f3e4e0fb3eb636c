package models

import "time"

// NotificationConfig holds settings for the status notification surface.
type NotificationConfig struct {
	AppLabel string `yaml:"app_label"`
	// OpenCommand runs when the notification or overlay is tapped, e.g.
	// ["open", "-a", "Nearby"]. Empty means the tap is only logged.
	OpenCommand []string `yaml:"open_command,omitempty"`
}

// OverlayConfig holds settings for the floating overlay surface.
type OverlayConfig struct {
	// Permitted is the user's grant to draw the overlay. It is set from the
	// tray menu or by editing settings.yaml, never by the host application.
	Permitted bool   `yaml:"permitted"`
	Anchor    string `yaml:"anchor"` // "top-start" | "top-end" | "bottom-start" | "bottom-end"
	OffsetX   int    `yaml:"offset_x"`
	OffsetY   int    `yaml:"offset_y"`
}

// AvatarConfig holds settings for avatar image loading.
type AvatarConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
}

// TransportConfig holds settings for inbound command transports.
type TransportConfig struct {
	Port         int    `yaml:"port"`     // gRPC, 0 = dynamic
	WebPort      int    `yaml:"web_port"` // grpc-web + WebSocket, -1 = disabled
	RedisURL     string `yaml:"redis_url,omitempty"`
	RedisChannel string `yaml:"redis_channel"`
}

// Settings represents global daemon settings.
// This corresponds to ~/.nearby/settings.yaml.
type Settings struct {
	Version      int                `yaml:"version"`
	Notification NotificationConfig `yaml:"notification"`
	Overlay      OverlayConfig      `yaml:"overlay"`
	Avatar       AvatarConfig       `yaml:"avatar"`
	Transport    TransportConfig    `yaml:"transport"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Notification: NotificationConfig{
			AppLabel: "Nearby Connections",
		},
		Overlay: OverlayConfig{
			Permitted: false,
			Anchor:    "top-end",
			OffsetX:   16,
			OffsetY:   100,
		},
		Avatar: AvatarConfig{
			Timeout:   3 * time.Second,
			CacheSize: 32,
		},
		Transport: TransportConfig{
			Port:         0,
			WebPort:      -1,
			RedisChannel: "nearby:presence",
		},
	}
}
