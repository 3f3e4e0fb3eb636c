package tray

import (
	"log"
	"strings"

	"github.com/watchfire-io/nearby/internal/surface"
)

// LogNotifier presents notifications as log lines. The daemon uses it when
// running in the foreground without a tray.
type LogNotifier struct {
	last string
}

// Notify logs spec when its content changed.
func (n *LogNotifier) Notify(spec surface.NotificationSpec) error {
	line := formatTooltip(&spec)
	if len(spec.Lines) > 0 {
		line += " [" + strings.Join(spec.Lines, ", ") + "]"
	}
	if line == n.last {
		return nil
	}
	n.last = line
	log.Printf("[tray] %s", line)
	return nil
}

// Cancel logs that the notification was removed.
func (n *LogNotifier) Cancel() error {
	n.last = ""
	log.Printf("[tray] Notification removed")
	return nil
}
