// Package permission tracks the user's grant to draw the floating overlay.
package permission

import (
	"context"
	"log"
	"os"
	"sync"

	"golang.org/x/term"
)

// TerminalAttached reports whether stdin and stdout are a terminal the
// overlay window can draw on.
func TerminalAttached() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Overlay is the overlay permission. The grant is owned by the user: the
// host application can only ask for it.
type Overlay struct {
	mu        sync.Mutex
	permitted bool
	pending   bool

	display   func() bool
	onRequest func()
}

// NewOverlay creates the permission. display reports whether the platform
// can draw an overlay at all; onRequest starts the external grant flow.
func NewOverlay(permitted bool, display func() bool, onRequest func()) *Overlay {
	if display == nil {
		display = TerminalAttached
	}
	return &Overlay{permitted: permitted, display: display, onRequest: onRequest}
}

// Granted reports whether the overlay may be shown right now.
func (o *Overlay) Granted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.permitted && o.display()
}

// Request returns true if the permission is already granted. Otherwise it
// starts the grant flow and returns false; callers poll Granted afterwards.
func (o *Overlay) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	o.mu.Lock()
	if o.permitted && o.display() {
		o.mu.Unlock()
		return true, nil
	}
	if !o.display() {
		o.mu.Unlock()
		log.Printf("[permission] Overlay unavailable: no terminal attached")
		return false, nil
	}
	first := !o.pending
	o.pending = true
	onRequest := o.onRequest
	o.mu.Unlock()

	if first {
		log.Printf("[permission] Overlay permission requested")
		if onRequest != nil {
			onRequest()
		}
	}
	return false, nil
}

// Set records the user's decision, ending any pending request.
func (o *Overlay) Set(permitted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permitted = permitted
	o.pending = false
}

// Pending reports whether a request is waiting for the user.
func (o *Overlay) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}
