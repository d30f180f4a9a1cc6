// internal/annotate/draw.go
package annotate

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// setPixelSafe writes a single pixel, ignoring coordinates outside the
// image. All primitives clip through this so markers near an edge degrade
// instead of faulting.
func setPixelSafe(img draw.Image, x, y int, col color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, col)
	}
}

// fillCircle draws a filled disc of radius r centered at (cx, cy).
// r <= 0 stamps a single pixel.
func fillCircle(img draw.Image, cx, cy, r int, col color.Color) {
	if r <= 0 {
		setPixelSafe(img, cx, cy, col)
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setPixelSafe(img, cx+dx, cy+dy, col)
			}
		}
	}
}

// strokeCircle draws a ring of the given radius and stroke width centered
// at (cx, cy). The sweep step count scales with the radius so large rings
// stay gap free.
func strokeCircle(img draw.Image, cx, cy, r, width int, col color.Color) {
	if r <= 0 {
		fillCircle(img, cx, cy, width/2, col)
		return
	}
	steps := 8 * r
	if steps < 64 {
		steps = 64
	}
	stamp := width / 2
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(float64(r)*math.Cos(theta)))
		y := cy + int(math.Round(float64(r)*math.Sin(theta)))
		fillCircle(img, x, y, stamp, col)
	}
}

// drawLine draws a straight segment between two points using Bresenham
// stepping, stamping a disc at every step so thicker strokes stay round.
func drawLine(img draw.Image, x0, y0, x1, y1, width int, col color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	stamp := width / 2

	for {
		fillCircle(img, x0, y0, stamp, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

// drawText renders s with its top-left corner at (x, y) in the fixed 7x13
// face. Glyphs falling outside the image are clipped by the drawer.
func drawText(img draw.Image, x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}

// drawOutlinedText renders s twice: an 8-neighbour halo in the outline
// color, then the main color on top, so the label survives any background.
func drawOutlinedText(img draw.Image, x, y int, s string, col, outline color.Color) {
	for ox := -1; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			if ox == 0 && oy == 0 {
				continue
			}
			drawText(img, x+ox, y+oy, s, outline)
		}
	}
	drawText(img, x, y, s, col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
