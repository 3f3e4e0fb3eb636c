package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/watchfire-io/nearby/internal/drag"
	"github.com/watchfire-io/nearby/internal/surface"
)

// Offsets are kept in density-independent units so settings and drag
// gestures agree with the mobile host. One terminal cell is cellWidth by
// cellHeight units.
const (
	cellWidth  = 8
	cellHeight = 16

	maxTextWidth = 28
)

// specMsg replaces the content shown by the widget.
type specMsg surface.OverlaySpec

// Callbacks are invoked from commands, never from Update itself.
type callbacks struct {
	onTap     func()
	onDismiss func()
	onMoved   func(drag.Offset)
}

// Model is the overlay widget program.
type Model struct {
	spec    surface.OverlaySpec
	hasSpec bool

	anchor drag.Anchor
	offset drag.Offset
	drag   *drag.Controller
	moved  bool

	width  int
	height int

	cb callbacks
}

func newModel(anchor drag.Anchor, offset drag.Offset, cb callbacks) Model {
	return Model{
		anchor: anchor,
		offset: offset,
		drag:   drag.NewController(anchor),
		cb:     cb,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case specMsg:
		m.spec = surface.OverlaySpec(msg)
		m.hasSpec = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Dismiss):
		return m, invoke(m.cb.onDismiss)
	case key.Matches(msg, keys.Open):
		return m, invoke(m.cb.onTap)
	case key.Matches(msg, keys.Nudge.Left):
		return m.nudge(-cellWidth, 0)
	case key.Matches(msg, keys.Nudge.Right):
		return m.nudge(cellWidth, 0)
	case key.Matches(msg, keys.Nudge.Up):
		return m.nudge(0, -cellHeight)
	case key.Matches(msg, keys.Nudge.Down):
		return m.nudge(0, cellHeight)
	}
	return m, nil
}

// nudge runs a one-step gesture so keyboard moves follow the same anchor
// rules as mouse drags.
func (m Model) nudge(dx, dy int) (tea.Model, tea.Cmd) {
	if m.drag.Active() {
		return m, nil
	}
	m.drag.Begin(m.offset, drag.Point{})
	off, _ := m.drag.Move(drag.Point{X: dx, Y: dy})
	m.drag.End()
	if off == m.offset {
		return m, nil
	}
	m.offset = off
	return m, m.movedCmd()
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	pointer := drag.Point{X: msg.X * cellWidth, Y: msg.Y * cellHeight}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.hit(msg.X, msg.Y) {
			return m, nil
		}
		m.drag.Begin(m.offset, pointer)
		m.moved = false

	case tea.MouseActionMotion:
		off, ok := m.drag.Move(pointer)
		if ok && off != m.offset {
			m.offset = off
			m.moved = true
		}

	case tea.MouseActionRelease:
		if !m.drag.Active() {
			return m, nil
		}
		m.drag.End()
		if m.moved {
			m.moved = false
			return m, m.movedCmd()
		}
		return m, invoke(m.cb.onTap)
	}
	return m, nil
}

func (m Model) movedCmd() tea.Cmd {
	if m.cb.onMoved == nil {
		return nil
	}
	off := m.offset
	return func() tea.Msg {
		m.cb.onMoved(off)
		return nil
	}
}

func invoke(fn func()) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		fn()
		return nil
	}
}

// Offset returns the widget's current offset from its anchor corner.
func (m Model) Offset() drag.Offset {
	return m.offset
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.hasSpec {
		return ""
	}
	box := m.renderBox()
	if m.width == 0 || m.height == 0 {
		return box
	}
	left, top := m.position(lipgloss.Width(box), lipgloss.Height(box))
	return place(box, left, top, m.width)
}

func (m Model) renderBox() string {
	s := m.spec
	var lines []string

	self := fmt.Sprintf("%s %s", s.SelfIcon.Glyph(), selfStyle.Render(s.SelfName))
	lines = append(lines, fit(self+" "+activityStyle.Render(s.SelfActivity)))
	if s.Connected != "" {
		lines = append(lines, countStyle.Render("Connected: "+s.Connected))
	}

	for _, slot := range s.Slots {
		if !slot.Visible {
			continue
		}
		row := fmt.Sprintf("%s %s %s", slot.Icon.Glyph(), peerNameStyle.Render(slot.Name), activityStyle.Render(slot.Activity))
		lines = append(lines, fit(row))
	}
	if s.OverflowVisible {
		lines = append(lines, dimStyle.Render(s.Overflow))
	}
	if s.EmptyVisible {
		lines = append(lines, dimStyle.Render(s.EmptyText))
	}

	style := boxStyle
	switch {
	case m.drag.Active():
		style = draggingBoxStyle
	case s.Degraded:
		style = degradedBoxStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// position converts the offset to the box's top-left cell, keeping the box
// fully on screen.
func (m Model) position(boxW, boxH int) (left, top int) {
	offX := m.offset.X / cellWidth
	offY := m.offset.Y / cellHeight

	switch m.anchor {
	case drag.TopEnd, drag.BottomEnd:
		left = m.width - boxW - offX
	default:
		left = offX
	}
	switch m.anchor {
	case drag.BottomStart, drag.BottomEnd:
		top = m.height - boxH - offY
	default:
		top = offY
	}
	return clamp(left, 0, m.width-boxW), clamp(top, 0, m.height-boxH)
}

// hit reports whether the cell (x, y) is inside the widget.
func (m Model) hit(x, y int) bool {
	if !m.hasSpec {
		return false
	}
	box := m.renderBox()
	w, h := lipgloss.Width(box), lipgloss.Height(box)
	if m.width == 0 || m.height == 0 {
		return x >= 0 && x < w && y >= 0 && y < h
	}
	left, top := m.position(w, h)
	return x >= left && x < left+w && y >= top && y < top+h
}

func fit(s string) string {
	return ansi.Truncate(s, maxTextWidth, "…")
}

func place(box string, left, top, width int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("\n", top))
	pad := strings.Repeat(" ", left)
	for i, line := range strings.Split(box, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ansi.Truncate(pad+line, width, ""))
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
