package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/watchfire-io/nearby/internal/surface"
)

// ErrNotImplemented is returned for a command name the dispatcher does not know.
var ErrNotImplemented = errors.New("not implemented")

// Command names accepted from the host application.
const (
	MethodStartNotification         = "startNotification"
	MethodUpdateNotification        = "updateNotification"
	MethodStartOrUpdateNotification = "startOrUpdateNotification"
	MethodStopNotification          = "stopNotification"
	MethodCheckOverlayPermission    = "checkOverlayPermission"
	MethodRequestOverlayPermission  = "requestOverlayPermission"
	MethodShowOverlay               = "showOverlay"
	MethodUpdateOverlay             = "updateOverlay"
	MethodHideOverlay               = "hideOverlay"
	MethodApplyPresence             = "applyPresence"
)

// Methods lists every command name in a stable order.
func Methods() []string {
	return []string{
		MethodStartNotification,
		MethodUpdateNotification,
		MethodStartOrUpdateNotification,
		MethodStopNotification,
		MethodCheckOverlayPermission,
		MethodRequestOverlayPermission,
		MethodShowOverlay,
		MethodUpdateOverlay,
		MethodHideOverlay,
		MethodApplyPresence,
	}
}

// Permission gates the overlay surface.
type Permission interface {
	Granted() bool
	// Request may start an asynchronous grant flow and return false while it
	// is pending; callers re-check rather than assume a synchronous grant.
	Request(ctx context.Context) (bool, error)
}

// Dispatcher maps host commands onto engine operations.
type Dispatcher struct {
	engine     *Engine
	permission Permission
}

// NewDispatcher creates a dispatcher for e.
func NewDispatcher(e *Engine, p Permission) *Dispatcher {
	return &Dispatcher{engine: e, permission: p}
}

// Engine returns the engine commands are applied to.
func (d *Dispatcher) Engine() *Engine {
	return d.engine
}

// Handle executes one command. The result is nil or a bool. Only unknown
// methods and unknown surfaces produce errors; surface failures are logged.
//
// A command addressed to one surface also brings every other visible
// surface up to the new snapshot, so the two never disagree.
func (d *Dispatcher) Handle(ctx context.Context, method string, args map[string]any) (any, error) {
	switch method {
	case MethodStartNotification, MethodUpdateNotification, MethodStartOrUpdateNotification:
		if err := d.engine.Show(surface.NameNotification, args); err != nil {
			return nil, err
		}
		d.engine.refreshExcept(surface.NameNotification)
		return nil, nil

	case MethodStopNotification:
		return nil, d.engine.Hide(surface.NameNotification)

	case MethodCheckOverlayPermission:
		return d.permission.Granted(), nil

	case MethodRequestOverlayPermission:
		granted, err := d.permission.Request(ctx)
		if err != nil {
			log.Printf("[dispatch] Overlay permission request failed: %v", err)
			return false, nil
		}
		return granted, nil

	case MethodShowOverlay:
		if !d.permission.Granted() {
			log.Printf("[dispatch] showOverlay without overlay permission")
			return false, nil
		}
		if err := d.engine.Show(surface.NameOverlay, args); err != nil {
			if errors.Is(err, ErrUnknownSurface) {
				return false, err
			}
			return false, nil
		}
		d.engine.refreshExcept(surface.NameOverlay)
		return true, nil

	case MethodUpdateOverlay:
		if err := d.engine.Update(surface.NameOverlay, args); err != nil {
			return nil, err
		}
		d.engine.refreshExcept(surface.NameOverlay)
		return nil, nil

	case MethodHideOverlay:
		return nil, d.engine.Hide(surface.NameOverlay)

	case MethodApplyPresence:
		d.engine.Apply(args)
		return nil, nil
	}

	log.Printf("[dispatch] Unknown method: %q", method)
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, method)
}
