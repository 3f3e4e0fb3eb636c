package presence

import "fmt"

// DisplayLimit is the number of peer slots every surface shows.
const DisplayLimit = 3

// Slot is one fixed peer position on a surface.
type Slot struct {
	Active bool
	Peer   Peer
}

// Display is the truncation decision shared by all surfaces.
type Display struct {
	Slots    [DisplayLimit]Slot
	Overflow int

	// Empty selects the "no one connected" presentation.
	Empty bool
}

// Plan applies the truncation policy to a state. Slots start blank on every
// call and only the ones backed by the snapshot are activated.
func Plan(s State) Display {
	var d Display
	for i := 0; i < DisplayLimit; i++ {
		if p, ok := s.PeerAt(i); ok {
			d.Slots[i] = Slot{Active: true, Peer: p}
		}
	}
	if s.ConnectedCount > DisplayLimit {
		d.Overflow = s.ConnectedCount - DisplayLimit
	}
	d.Empty = s.Idle()
	return d
}

// Shown returns the active slots in order.
func (d Display) Shown() []Peer {
	out := make([]Peer, 0, DisplayLimit)
	for _, slot := range d.Slots {
		if slot.Active {
			out = append(out, slot.Peer)
		}
	}
	return out
}

// OverflowText is "+N more", or "" when the indicator must be hidden.
func (d Display) OverflowText() string {
	if d.Overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", d.Overflow)
}

// PeerLine formats a peer as "name: activity".
func PeerLine(p Peer) string {
	return p.Name + ": " + p.Activity
}
