package drag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveTopEnd(t *testing.T) {
	c := NewController(TopEnd)
	c.Begin(Offset{X: 16, Y: 100}, Point{X: 200, Y: 300})

	// Pointer moves left 30 and down 20: the window moves away from the
	// right edge and further from the top.
	off, ok := c.Move(Point{X: 170, Y: 320})

	assert.True(t, ok)
	assert.Equal(t, Offset{X: 46, Y: 120}, off)
}

func TestMoveAnchors(t *testing.T) {
	tests := []struct {
		name   string
		anchor Anchor
		want   Offset
	}{
		{"top start", TopStart, Offset{X: 15, Y: 15}},
		{"top end", TopEnd, Offset{X: 5, Y: 15}},
		{"bottom start", BottomStart, Offset{X: 15, Y: 5}},
		{"bottom end", BottomEnd, Offset{X: 5, Y: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(tt.anchor)
			c.Begin(Offset{X: 10, Y: 10}, Point{X: 0, Y: 0})
			off, _ := c.Move(Point{X: 5, Y: 5})
			assert.Equal(t, tt.want, off)
		})
	}
}

func TestMoveIsRelativeToGestureStart(t *testing.T) {
	c := NewController(TopEnd)
	c.Begin(Offset{X: 0, Y: 0}, Point{X: 50, Y: 50})

	c.Move(Point{X: 40, Y: 60})
	off, _ := c.Move(Point{X: 45, Y: 55})

	assert.Equal(t, Offset{X: 5, Y: 5}, off)
}

func TestMoveOutsideGesture(t *testing.T) {
	c := NewController(TopEnd)

	_, ok := c.Move(Point{X: 1, Y: 1})
	assert.False(t, ok)

	c.Begin(Offset{}, Point{})
	assert.True(t, c.Active())
	c.End()
	assert.False(t, c.Active())

	_, ok = c.Move(Point{X: 1, Y: 1})
	assert.False(t, ok)
}

func BenchmarkMove(b *testing.B) {
	c := NewController(TopEnd)
	c.Begin(Offset{X: 16, Y: 100}, Point{X: 200, Y: 300})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Move(Point{X: i % 400, Y: i % 300})
	}
}

func TestParseAnchor(t *testing.T) {
	for _, a := range []Anchor{TopStart, TopEnd, BottomStart, BottomEnd} {
		got, err := ParseAnchor(a.String())
		assert.NoError(t, err)
		assert.Equal(t, a, got)
	}

	got, err := ParseAnchor("middle")
	assert.Error(t, err)
	assert.Equal(t, TopEnd, got)
}
