// Package drag translates pointer gestures into overlay window offsets.
package drag

import "fmt"

// Point is a pointer position in screen coordinates.
type Point struct {
	X, Y int
}

// Offset is the window's distance from its anchor corner.
type Offset struct {
	X, Y int
}

// Anchor is the window corner the offset is measured from.
type Anchor int

// Anchor corners. The overlay is placed top-end by default.
const (
	TopStart Anchor = iota
	TopEnd
	BottomStart
	BottomEnd
)

func (a Anchor) farX() bool { return a == TopEnd || a == BottomEnd }
func (a Anchor) farY() bool { return a == BottomStart || a == BottomEnd }

// Controller tracks one drag gesture at a time. It keeps no state between
// gestures and never touches presence data.
type Controller struct {
	anchor Anchor

	active  bool
	initial Offset
	start   Point
}

// NewController returns a controller for a window anchored at a.
func NewController(a Anchor) *Controller {
	return &Controller{anchor: a}
}

// Begin captures the window offset and pointer position at gesture start.
func (c *Controller) Begin(current Offset, pointer Point) {
	c.active = true
	c.initial = current
	c.start = pointer
}

// Move returns the new window offset for the pointer position. The second
// result is false when no gesture is in progress.
//
// On an axis measured from the far edge the offset grows as the pointer moves
// back toward the origin: offset = initial + (start - current). On a near-edge
// axis it is initial + (current - start).
func (c *Controller) Move(pointer Point) (Offset, bool) {
	if !c.active {
		return Offset{}, false
	}
	dx := pointer.X - c.start.X
	dy := pointer.Y - c.start.Y
	if c.anchor.farX() {
		dx = -dx
	}
	if c.anchor.farY() {
		dy = -dy
	}
	return Offset{X: c.initial.X + dx, Y: c.initial.Y + dy}, true
}

// End finishes the gesture. The last offset returned by Move stays in effect.
func (c *Controller) End() {
	c.active = false
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	return c.active
}

var anchorNames = map[Anchor]string{
	TopStart:    "top-start",
	TopEnd:      "top-end",
	BottomStart: "bottom-start",
	BottomEnd:   "bottom-end",
}

// String returns the settings name of the anchor.
func (a Anchor) String() string {
	if name, ok := anchorNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAnchor parses a settings anchor name such as "top-end".
func ParseAnchor(name string) (Anchor, error) {
	for a, n := range anchorNames {
		if n == name {
			return a, nil
		}
	}
	return TopEnd, fmt.Errorf("unknown anchor %q", name)
}
