package surface

import (
	"fmt"
	"log"
	"strconv"

	"github.com/watchfire-io/nearby/internal/presence"
)

const noOneConnected = "No one connected"

// OverlaySlot is one peer row on the overlay.
type OverlaySlot struct {
	Visible  bool
	Name     string
	Activity string
	Icon     presence.IconID
}

// OverlaySpec describes overlay content. It never carries position and is
// comparable, so two renders of the same snapshot compare equal with ==.
type OverlaySpec struct {
	SelfName     string
	SelfActivity string
	SelfIcon     presence.IconID
	Connected    string

	Slots [presence.DisplayLimit]OverlaySlot

	Overflow        string
	OverflowVisible bool

	EmptyText    string
	EmptyVisible bool

	Degraded bool
}

// OverlayRenderer builds OverlaySpecs. It holds no state.
type OverlayRenderer struct{}

// Render produces the overlay content for s.
func (OverlayRenderer) Render(s presence.State) Result[OverlaySpec] {
	return guard(
		func() (OverlaySpec, error) { return renderOverlay(s), nil },
		func() OverlaySpec { return FallbackOverlay(s) },
	)
}

func renderOverlay(s presence.State) OverlaySpec {
	d := presence.Plan(s)

	spec := OverlaySpec{
		SelfName:     s.SelfName,
		SelfActivity: s.SelfActivity,
		SelfIcon:     presence.ResolveIcon(s.SelfActivity),
		Connected:    strconv.Itoa(s.ConnectedCount),
	}
	for i, slot := range d.Slots {
		if !slot.Active {
			continue
		}
		spec.Slots[i] = OverlaySlot{
			Visible:  true,
			Name:     slot.Peer.Name,
			Activity: slot.Peer.Activity,
			Icon:     presence.ResolveIcon(slot.Peer.Activity),
		}
	}
	if more := d.OverflowText(); more != "" {
		spec.Overflow = more
		spec.OverflowVisible = true
	}
	if d.Empty {
		spec.EmptyText = noOneConnected
		spec.EmptyVisible = true
	}
	return spec
}

// FallbackOverlay shows only the local user with every slot hidden.
func FallbackOverlay(s presence.State) OverlaySpec {
	return OverlaySpec{
		SelfName:     s.SelfName,
		SelfActivity: s.SelfActivity,
		SelfIcon:     presence.IconUnknown,
		Degraded:     true,
	}
}

// OverlayPresenter owns the floating window.
type OverlayPresenter interface {
	Open() error
	Draw(spec OverlaySpec) error
	Close() error
}

// OverlaySurface adapts the renderer and a presenter to Surface. Calls are
// serialized by the engine.
type OverlaySurface struct {
	renderer  OverlayRenderer
	presenter OverlayPresenter

	open bool
	last *OverlaySpec
}

// NewOverlaySurface creates the overlay surface.
func NewOverlaySurface(p OverlayPresenter) *OverlaySurface {
	return &OverlaySurface{presenter: p}
}

// Name implements Surface.
func (o *OverlaySurface) Name() string { return NameOverlay }

// Open creates the window.
func (o *OverlaySurface) Open() error {
	if o.open {
		return nil
	}
	if err := o.presenter.Open(); err != nil {
		return fmt.Errorf("open overlay: %w", err)
	}
	o.open = true
	o.last = nil
	return nil
}

// Present draws s unless the window already shows identical content.
func (o *OverlaySurface) Present(s presence.State) error {
	res := o.renderer.Render(s)
	if res.Err != nil {
		log.Printf("[overlay] Rendering degraded: %v", res.Err)
	}
	if o.last != nil && *o.last == res.Spec {
		return nil
	}
	if err := o.presenter.Draw(res.Spec); err != nil {
		o.last = nil
		return fmt.Errorf("draw overlay: %w", err)
	}
	spec := res.Spec
	o.last = &spec
	return nil
}

// Close removes the window.
func (o *OverlaySurface) Close() error {
	if !o.open {
		return nil
	}
	o.open = false
	o.last = nil
	if err := o.presenter.Close(); err != nil {
		return fmt.Errorf("close overlay: %w", err)
	}
	return nil
}
