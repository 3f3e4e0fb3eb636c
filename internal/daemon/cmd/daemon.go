package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"

	"github.com/watchfire-io/nearby/internal/avatar"
	"github.com/watchfire-io/nearby/internal/config"
	"github.com/watchfire-io/nearby/internal/daemon/ingress"
	"github.com/watchfire-io/nearby/internal/daemon/overlay"
	"github.com/watchfire-io/nearby/internal/daemon/permission"
	"github.com/watchfire-io/nearby/internal/daemon/server"
	"github.com/watchfire-io/nearby/internal/daemon/tray"
	"github.com/watchfire-io/nearby/internal/daemon/watcher"
	"github.com/watchfire-io/nearby/internal/drag"
	"github.com/watchfire-io/nearby/internal/engine"
	"github.com/watchfire-io/nearby/internal/models"
	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

// daemon owns every long-lived component and their wiring.
type daemon struct {
	withTray bool

	mu       sync.Mutex
	settings *models.Settings

	renderer   *surface.NotificationRenderer
	fetcher    *avatar.Fetcher
	window     *overlay.Window
	permission *permission.Overlay
	engine     *engine.Engine
	dispatcher *engine.Dispatcher
	server     *server.Server
	redis      *ingress.Redis
	watcher    *watcher.Watcher

	cancel context.CancelFunc
	errCh  chan error
}

func newDaemon(settings *models.Settings, withTray bool) (*daemon, error) {
	d := &daemon{
		withTray: withTray,
		settings: settings,
		errCh:    make(chan error, 1),
	}

	anchor, err := drag.ParseAnchor(settings.Overlay.Anchor)
	if err != nil {
		log.Printf("Invalid overlay anchor, using %s: %v", anchor, err)
	}

	logFile := ""
	if err := config.EnsureGlobalLogsDir(); err == nil {
		logFile, _ = config.DaemonLogFile()
	}

	d.permission = permission.NewOverlay(settings.Overlay.Permitted, nil, d.promptOverlay)
	d.renderer = surface.NewNotificationRenderer(settings.Notification.AppLabel)
	d.window = overlay.NewWindow(overlay.Options{
		Anchor:    anchor,
		Offset:    drag.Offset{X: settings.Overlay.OffsetX, Y: settings.Overlay.OffsetY},
		LogFile:   logFile,
		OnTap:     d.bringToFront,
		OnDismiss: d.dismissOverlay,
		OnMoved:   d.saveOffset,
	})

	var notifier surface.NotificationPresenter = &tray.LogNotifier{}
	if withTray {
		notifier = tray.NewNotifier()
	}

	d.engine = engine.New(
		surface.NewNotificationSurface(d.renderer, notifier),
		surface.NewOverlaySurface(d.window),
	)

	d.fetcher, err = avatar.NewFetcher(settings.Avatar.Timeout, settings.Avatar.CacheSize, func(string) {
		d.engine.Refresh()
	})
	if err != nil {
		return nil, err
	}
	d.renderer.Decorate = d.fetcher.Decorate
	d.engine.OnState(func(s presence.State) {
		d.fetcher.Prefetch(s.AvatarURL)
	})

	d.dispatcher = engine.NewDispatcher(d.engine, d.permission)

	d.server, err = server.New(settings.Transport.Port, d.dispatcher, d.permission)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return d, nil
}

// start launches every transport and records the daemon info.
func (d *daemon) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	// Serve gRPC in background
	go func() {
		if err := d.server.Serve(); err != nil {
			d.errCh <- err
		}
	}()

	info := models.NewDaemonInfo("localhost", d.server.Port(), os.Getpid())
	if port := d.settings.Transport.WebPort; port >= 0 {
		webPort, err := d.server.ServeWeb(port)
		if err != nil {
			log.Printf("Web gateway disabled: %v", err)
		} else {
			info.WebPort = webPort
		}
	}
	if err := config.SaveDaemonInfo(info); err != nil {
		return fmt.Errorf("failed to write daemon info: %w", err)
	}

	if url := d.settings.Transport.RedisURL; url != "" {
		r, err := ingress.NewRedis(url, d.settings.Transport.RedisChannel, d.dispatcher)
		if err != nil {
			log.Printf("Redis ingress disabled: %v", err)
		} else {
			d.redis = r
			go func() {
				if err := r.Run(ctx); err != nil {
					log.Printf("[redis] Stopped: %v", err)
				}
			}()
		}
	}

	w, err := watcher.New("")
	if err != nil {
		log.Printf("Settings watcher disabled: %v", err)
	} else if err := w.Start(); err != nil {
		log.Printf("Settings watcher disabled: %v", err)
		w.Stop()
	} else {
		d.watcher = w
		go d.watch(ctx, w)
	}

	log.Printf("Daemon started on port %d (PID %d)", d.server.Port(), os.Getpid())
	return nil
}

// stop tears everything down in reverse order. Surfaces are hidden first so
// the overlay releases the terminal before anything else logs.
func (d *daemon) stop() {
	d.engine.HideAll()

	if d.cancel != nil {
		d.cancel()
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	d.server.Stop()

	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}
}

func (d *daemon) watch(ctx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-w.Events():
			switch e.Type {
			case watcher.EventSettingsChanged:
				d.reload()
			case watcher.EventDaemonFileRemoved:
				d.restoreDaemonInfo()
			}
		}
	}
}

// reload applies settings.yaml changes that make sense at runtime.
func (d *daemon) reload() {
	s, err := config.LoadSettings()
	if err != nil {
		log.Printf("Keeping previous settings: %v", err)
		return
	}

	d.mu.Lock()
	d.settings.Notification = s.Notification
	d.settings.Overlay.Permitted = s.Overlay.Permitted
	d.mu.Unlock()

	d.applyGrant(s.Overlay.Permitted)
	d.renderer.SetAppLabel(s.Notification.AppLabel)
	d.engine.Refresh()
	log.Printf("Settings reloaded")
}

func (d *daemon) applyGrant(granted bool) {
	d.permission.Set(granted)
	if d.withTray {
		tray.SetOverlayPermitted(granted)
	}
	if !granted {
		_ = d.engine.Hide(surface.NameOverlay)
	}
}

// restoreDaemonInfo rewrites daemon.yaml if something deleted it while the
// daemon is still serving.
func (d *daemon) restoreDaemonInfo() {
	info := models.NewDaemonInfo("localhost", d.server.Port(), os.Getpid())
	if port := d.server.WebPort(); port >= 0 {
		info.WebPort = port
	}
	if err := config.SaveDaemonInfo(info); err != nil {
		log.Printf("Failed to restore daemon info: %v", err)
	}
}

// promptOverlay starts the external grant flow for requestOverlayPermission.
func (d *daemon) promptOverlay() {
	if d.withTray {
		tray.PromptOverlayPermission()
		return
	}
	log.Printf("Overlay permission requested. Grant it with: nearby settings set overlay.permitted true")
}

// grantOverlay records a decision made from the tray menu.
func (d *daemon) grantOverlay(granted bool) {
	d.applyGrant(granted)
	if _, err := config.UpdateSettings(func(s *models.Settings) { s.Overlay.Permitted = granted }); err != nil {
		log.Printf("Failed to save overlay permission: %v", err)
	}
}

// bringToFront is the tap action of both surfaces.
func (d *daemon) bringToFront() {
	d.mu.Lock()
	argv := append([]string(nil), d.settings.Notification.OpenCommand...)
	d.mu.Unlock()

	if len(argv) == 0 {
		log.Printf("Open requested (no notification.open_command configured)")
		return
	}
	c := exec.Command(argv[0], argv[1:]...)
	if err := c.Start(); err != nil {
		log.Printf("Failed to run open command: %v", err)
		return
	}
	go func() { _ = c.Wait() }()
}

func (d *daemon) dismissOverlay() {
	if err := d.engine.Hide(surface.NameOverlay); err != nil {
		log.Printf("Failed to hide overlay: %v", err)
	}
}

func (d *daemon) saveOffset(off drag.Offset) {
	_, err := config.UpdateSettings(func(s *models.Settings) {
		s.Overlay.OffsetX = off.X
		s.Overlay.OffsetY = off.Y
	})
	if err != nil {
		log.Printf("Failed to save overlay position: %v", err)
	}
}
