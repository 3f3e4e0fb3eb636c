package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/watchfire-io/nearby/internal/daemon/server"
	"github.com/watchfire-io/nearby/internal/daemon/tray"
	"github.com/watchfire-io/nearby/internal/models"
)

// runForeground runs the daemon without a system tray, blocking on signals.
func runForeground(settings *models.Settings) error {
	d, err := newDaemon(settings, false)
	if err != nil {
		return err
	}
	if err := d.start(); err != nil {
		d.server.Stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-d.errCh:
		log.Printf("Server error: %v", err)
	}

	d.stop()
	fmt.Println("Daemon stopped")
	return nil
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(settings *models.Settings) error {
	var d *daemon
	var startErr error

	onStart := func() {
		var err error
		d, err = newDaemon(settings, true)
		if err == nil {
			err = d.start()
		}
		if err != nil {
			startErr = err
			log.Printf("Failed to start daemon: %v", err)
			tray.Quit()
			return
		}
		tray.SetOverlayPermitted(settings.Overlay.Permitted)

		go func() {
			if err := <-d.errCh; err != nil {
				log.Printf("Server error: %v", err)
				tray.Quit()
			}
		}()

		// Handle OS signals, quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			tray.Quit()
		}()
	}

	onExit := func() {
		if d != nil && startErr == nil {
			d.stop()
		}
		fmt.Println("Daemon stopped")
	}

	// The tray needs a Host before the server exists, so the lazy wrapper
	// defers to the real TrayHost once onStart has run.
	host := &lazyHost{get: func() *server.TrayHost {
		if d == nil || startErr != nil {
			return nil
		}
		return server.NewTrayHost(d.server, d.bringToFront, d.grantOverlay)
	}}

	// This blocks the main goroutine until tray exits.
	tray.Run(host, onStart, onExit)
	return startErr
}

// lazyHost wraps server.TrayHost with lazy initialization.
type lazyHost struct {
	get func() *server.TrayHost
}

func (l *lazyHost) Port() int {
	if h := l.get(); h != nil {
		return h.Port()
	}
	return 0
}

func (l *lazyHost) BringToFront() {
	if h := l.get(); h != nil {
		h.BringToFront()
	}
}

func (l *lazyHost) GrantOverlay(granted bool) {
	if h := l.get(); h != nil {
		h.GrantOverlay(granted)
	}
}

func (l *lazyHost) RequestShutdown() {
	if h := l.get(); h != nil {
		h.RequestShutdown()
		return
	}
	tray.Quit()
}
