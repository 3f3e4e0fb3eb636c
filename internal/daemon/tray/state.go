// Package tray implements the system tray notification surface for the daemon.
package tray

// Host provides the daemon actions the tray menu can trigger.
type Host interface {
	Port() int
	// BringToFront restores the host application; it is the notification's
	// tap action.
	BringToFront()
	// GrantOverlay records the user's overlay permission decision.
	GrantOverlay(granted bool)
	RequestShutdown()
}
