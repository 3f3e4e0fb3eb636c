// Package engine keeps every registered surface in sync with the latest
// presence snapshot.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

// ErrUnknownSurface is returned for a surface name that was never registered.
var ErrUnknownSurface = errors.New("unknown surface")

// SurfaceState is the lifecycle state of one surface.
type SurfaceState int

// Surface states. Hidden → Visible on show, Visible → Visible on update,
// Visible → Hidden on hide.
const (
	Hidden SurfaceState = iota
	Visible
)

func (s SurfaceState) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// slot serializes every call into one surface, so hide can never interleave
// with a half-finished present.
type slot struct {
	mu      sync.Mutex
	surface surface.Surface
	visible bool
}

// Engine fans presence snapshots out to surfaces with per-surface failure
// isolation. It is safe for concurrent use.
type Engine struct {
	current atomic.Pointer[presence.State]
	order   []string
	slots   map[string]*slot
	onState func(presence.State)
}

// New registers surfaces in fan-out order.
func New(surfaces ...surface.Surface) *Engine {
	e := &Engine{slots: make(map[string]*slot, len(surfaces))}
	for _, s := range surfaces {
		e.order = append(e.order, s.Name())
		e.slots[s.Name()] = &slot{surface: s}
	}
	initial := presence.Normalize(nil)
	e.current.Store(&initial)
	return e
}

// OnState registers a hook called with every newly normalized snapshot,
// before any surface renders it. Must be set before the engine is used.
func (e *Engine) OnState(fn func(presence.State)) {
	e.onState = fn
}

// Current returns the latest snapshot.
func (e *Engine) Current() presence.State {
	return *e.current.Load()
}

func (e *Engine) store(raw map[string]any) {
	s := presence.Normalize(raw)
	e.current.Store(&s)
	if e.onState != nil {
		e.onState(s)
	}
}

// Apply normalizes raw and presents it to every visible surface. A failing
// surface is logged and skipped; the others still update.
func (e *Engine) Apply(raw map[string]any) {
	e.store(raw)
	e.Refresh()
}

// Refresh re-presents the current snapshot to every visible surface.
func (e *Engine) Refresh() {
	e.refreshExcept("")
}

// refreshExcept re-presents the current snapshot to every visible surface
// other than skip.
func (e *Engine) refreshExcept(skip string) {
	for _, name := range e.order {
		if name == skip {
			continue
		}
		sl := e.slots[name]
		sl.mu.Lock()
		if sl.visible {
			e.present(sl)
		}
		sl.mu.Unlock()
	}
}

// Show makes the named surface visible with the snapshot in raw. Showing a
// visible surface behaves as Update and never opens a second instance.
func (e *Engine) Show(name string, raw map[string]any) error {
	sl, err := e.slot(name)
	if err != nil {
		return err
	}
	e.store(raw)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.visible {
		if err := call(sl.surface.Open); err != nil {
			log.Printf("[engine] Failed to open %s: %v", name, err)
			return fmt.Errorf("open %s: %w", name, err)
		}
		sl.visible = true
		log.Printf("[engine] %s: hidden -> visible", name)
	}
	e.present(sl)
	return nil
}

// Update re-renders a visible surface. On a hidden surface it only stores
// the snapshot; it never creates the surface.
func (e *Engine) Update(name string, raw map[string]any) error {
	sl, err := e.slot(name)
	if err != nil {
		return err
	}
	e.store(raw)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.visible {
		log.Printf("[engine] Ignoring update for hidden %s", name)
		return nil
	}
	e.present(sl)
	return nil
}

// Hide tears the surface down. Hiding a hidden surface is a no-op.
func (e *Engine) Hide(name string) error {
	sl, err := e.slot(name)
	if err != nil {
		return err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.visible {
		return nil
	}
	sl.visible = false
	if err := call(sl.surface.Close); err != nil {
		log.Printf("[engine] Failed to close %s: %v", name, err)
	}
	log.Printf("[engine] %s: visible -> hidden", name)
	return nil
}

// HideAll hides every surface, in reverse registration order.
func (e *Engine) HideAll() {
	for i := len(e.order) - 1; i >= 0; i-- {
		_ = e.Hide(e.order[i])
	}
}

// State reports the lifecycle state of the named surface.
func (e *Engine) State(name string) SurfaceState {
	sl, ok := e.slots[name]
	if !ok {
		return Hidden
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.visible {
		return Visible
	}
	return Hidden
}

// Surfaces returns registered surface names in fan-out order.
func (e *Engine) Surfaces() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

func (e *Engine) slot(name string) (*slot, error) {
	sl, ok := e.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSurface, name)
	}
	return sl, nil
}

// present renders the latest snapshot, not the one that triggered the call.
// The caller holds sl.mu.
func (e *Engine) present(sl *slot) {
	s := e.Current()
	err := call(func() error { return sl.surface.Present(s) })
	if err != nil {
		log.Printf("[engine] Failed to present %s: %v", sl.surface.Name(), err)
	}
}

// call runs fn and turns a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
