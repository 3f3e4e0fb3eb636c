package tray

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

// One slot per displayed peer plus one for the overflow line.
const maxLineSlots = presence.DisplayLimit + 1

const idleTooltip = "Nearby: not sharing presence"

var (
	host    Host
	onStart func()
	onExit  func()

	titleItem   *systray.MenuItem
	bodyItem    *systray.MenuItem
	elapsedItem *systray.MenuItem
	portItem    *systray.MenuItem

	// Pre-allocated line slots
	lineSlots [maxLineSlots]*systray.MenuItem
	idleItem  *systray.MenuItem

	openItem    *systray.MenuItem
	overlayItem *systray.MenuItem
	quitItem    *systray.MenuItem

	// Serializes menu renders; taken before mu.
	applyMu sync.Mutex
	render  = apply

	// Guards everything the notifier touches after onReady.
	mu      sync.Mutex
	ready   bool
	current *surface.NotificationSpec
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (launch the servers here).
// onExitFn is called when the tray exits (cleanup here).
func Run(h Host, onStartFn, onExitFn func()) {
	host = h
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip(idleTooltip)

	// Notification content
	titleItem = systray.AddMenuItem("Nearby", "")
	titleItem.Disable()
	bodyItem = systray.AddMenuItem("", "")
	bodyItem.Disable()
	elapsedItem = systray.AddMenuItem("", "")
	elapsedItem.Disable()

	systray.AddSeparator()

	// Pre-allocate line slots (hidden by default)
	for i := 0; i < maxLineSlots; i++ {
		lineSlots[i] = systray.AddMenuItem("", "")
		lineSlots[i].Disable()
		lineSlots[i].Hide()
	}

	// "Not sharing" placeholder
	idleItem = systray.AddMenuItem("Not sharing presence", "")
	idleItem.Disable()

	systray.AddSeparator()

	// Actions
	openItem = systray.AddMenuItem("Open Nearby", "Bring the app to the front")
	overlayItem = systray.AddMenuItemCheckbox("Allow floating overlay", "Let Nearby draw the overlay widget", false)
	portItem = systray.AddMenuItem("Starting...", "")
	portItem.Disable()
	quitItem = systray.AddMenuItem("Quit", "Shut down the Nearby daemon")

	// Start the daemon services
	if onStart != nil {
		onStart()
	}

	if host != nil {
		portItem.SetTitle(fmt.Sprintf("Running on port: %d", host.Port()))
	}

	mu.Lock()
	ready = true
	mu.Unlock()
	refresh()

	go handleClicks()
	go tickElapsed()
}

func onQuit() {
	mu.Lock()
	ready = false
	mu.Unlock()
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-openItem.ClickedCh:
			if host != nil {
				host.BringToFront()
			}

		case <-overlayItem.ClickedCh:
			granted := !overlayItem.Checked()
			SetOverlayPermitted(granted)
			if host != nil {
				host.GrantOverlay(granted)
			}

		case <-quitItem.ClickedCh:
			if host != nil {
				host.RequestShutdown()
			}
		}
	}
}

// tickElapsed keeps the elapsed-time line moving between updates. The base
// comes from the NotificationSpec, so updates never reset it.
func tickElapsed() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		mu.Lock()
		if !ready {
			mu.Unlock()
			return
		}
		spec := current
		mu.Unlock()

		if spec != nil && spec.ShowChronometer {
			elapsedItem.SetTitle(formatElapsed(time.Since(spec.ChronometerBase)))
		}
	}
}

// SetOverlayPermitted reflects the overlay permission in the menu. It may be
// called from onStart, before the notifier is ready.
func SetOverlayPermitted(granted bool) {
	mu.Lock()
	defer mu.Unlock()
	if overlayItem == nil {
		return
	}
	overlayItem.SetTitle("Allow floating overlay")
	if granted {
		overlayItem.Check()
	} else {
		overlayItem.Uncheck()
	}
}

// PromptOverlayPermission marks the overlay item as awaiting the user's
// decision. It is the external grant flow behind requestOverlayPermission.
func PromptOverlayPermission() {
	mu.Lock()
	defer mu.Unlock()
	if overlayItem == nil {
		return
	}
	overlayItem.SetTitle("Allow floating overlay (requested)")
	overlayItem.Show()
}

// Notifier presents NotificationSpecs in the tray. It implements
// surface.NotificationPresenter.
type Notifier struct{}

// NewNotifier returns the tray notifier. Specs sent before the tray is ready
// are applied once it is.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify shows spec in the tray, replacing whatever was shown.
func (n *Notifier) Notify(spec surface.NotificationSpec) error {
	mu.Lock()
	current = &spec
	mu.Unlock()
	refresh()
	return nil
}

// Cancel removes the notification content from the tray.
func (n *Notifier) Cancel() error {
	mu.Lock()
	current = nil
	mu.Unlock()
	refresh()
	return nil
}

// refresh renders the current spec. current is read while holding applyMu,
// so a render can never be followed by one of an older spec.
func refresh() {
	applyMu.Lock()
	defer applyMu.Unlock()

	mu.Lock()
	if !ready {
		mu.Unlock()
		return
	}
	spec := current
	mu.Unlock()

	render(spec)
}

// apply renders spec onto the menu, starting from blank slots every time.
func apply(spec *surface.NotificationSpec) {
	// Hide all slots first
	for i := 0; i < maxLineSlots; i++ {
		lineSlots[i].Hide()
	}

	if spec == nil {
		titleItem.SetTitle("Nearby")
		bodyItem.Hide()
		elapsedItem.Hide()
		idleItem.Show()
		systray.SetTemplateIcon(iconData, iconData)
		systray.SetTooltip(idleTooltip)
		return
	}

	idleItem.Hide()
	titleItem.SetTitle(spec.Title)
	bodyItem.SetTitle(spec.Body)
	bodyItem.Show()

	if spec.ShowChronometer {
		elapsedItem.SetTitle(formatElapsed(time.Since(spec.ChronometerBase)))
		elapsedItem.Show()
	} else {
		elapsedItem.Hide()
	}

	for i, line := range visibleLines(spec) {
		lineSlots[i].SetTitle(line)
		lineSlots[i].Show()
	}

	if spec.LargeIcon != nil {
		systray.SetIcon(spec.LargeIcon)
	} else {
		systray.SetTemplateIcon(iconData, iconData)
	}
	systray.SetTooltip(formatTooltip(spec))

	if spec.Degraded {
		log.Printf("[tray] Showing degraded notification")
	}
}

// visibleLines returns the expanded-section lines that fit the slots.
func visibleLines(spec *surface.NotificationSpec) []string {
	if len(spec.Lines) > maxLineSlots {
		return spec.Lines[:maxLineSlots]
	}
	return spec.Lines
}

func formatTooltip(spec *surface.NotificationSpec) string {
	if spec.SubText == "" {
		return fmt.Sprintf("%s · %s", spec.Title, spec.Body)
	}
	return fmt.Sprintf("%s · %s · %s", spec.SubText, spec.Title, spec.Body)
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("Active for %d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("Active for %02d:%02d", m, s)
}
