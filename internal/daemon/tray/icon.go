package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 22

// iconData is the monochrome template icon: a filled dot inside a ring.
var iconData = renderIcon(iconSize)

func renderIcon(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	outer := c
	inner := c * 0.45

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			d := dx*dx + dy*dy
			switch {
			case d <= inner*inner:
				img.Set(x, y, color.NRGBA{A: 0xff})
			case d <= outer*outer && d >= (outer-2)*(outer-2):
				img.Set(x, y, color.NRGBA{A: 0xff})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
