// internal/annotate/arrow.go
package annotate

import (
	"fmt"
	"image/color"
	"image/draw"
	"math"
)

const (
	// scrollMargin keeps the arrow tip at least this many pixels away from
	// every image edge when the displacement would otherwise run past it.
	scrollMargin = 15

	arrowHeadLength   = 15
	arrowHeadAngle    = math.Pi / 6
	arrowOutlineWidth = 4
	arrowMainWidth    = 2
)

// drawScrollArrow renders the scroll displacement as an arrow anchored at
// the image center. The displacement is shrunk by a single uniform factor
// so the tip keeps scrollMargin pixels of clearance on both axes, the whole
// arrow is drawn twice (a wide contrast pass under the main stroke), and an
// outlined label naming the vertical scroll fraction sits beside the tip.
func drawScrollArrow(img draw.Image, vec Vector2D, col color.Color) error {
	if !vec.IsFinite() {
		return fmt.Errorf("scroll displacement is not finite: (%v, %v)", vec.X, vec.Y)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("image has no drawable area: %v", bounds)
	}

	cx, cy := float64(w)/2, float64(h)/2
	scale := math.Min(1, math.Min(axisBound(cx, vec.X, float64(w)), axisBound(cy, vec.Y, float64(h))))
	scale = math.Max(scale, 0)

	sx, sy := vec.X*scale, vec.Y*scale
	x0 := bounds.Min.X + int(math.Round(cx))
	y0 := bounds.Min.Y + int(math.Round(cy))
	x1 := bounds.Min.X + int(math.Round(cx+sx))
	y1 := bounds.Min.Y + int(math.Round(cy+sy))

	// Head segments run backwards from the tip at ±30° around the shaft.
	angle := math.Atan2(sy, sx)
	hx1 := x1 - int(math.Round(arrowHeadLength*math.Cos(angle-arrowHeadAngle)))
	hy1 := y1 - int(math.Round(arrowHeadLength*math.Sin(angle-arrowHeadAngle)))
	hx2 := x1 - int(math.Round(arrowHeadLength*math.Cos(angle+arrowHeadAngle)))
	hy2 := y1 - int(math.Round(arrowHeadLength*math.Sin(angle+arrowHeadAngle)))

	drawLine(img, x0, y0, x1, y1, arrowOutlineWidth, colorOutline)
	drawLine(img, x1, y1, hx1, hy1, arrowOutlineWidth, colorOutline)
	drawLine(img, x1, y1, hx2, hy2, arrowOutlineWidth, colorOutline)

	drawLine(img, x0, y0, x1, y1, arrowMainWidth, col)
	drawLine(img, x1, y1, hx1, hy1, arrowMainWidth, col)
	drawLine(img, x1, y1, hx2, hy2, arrowMainWidth, col)

	label := fmt.Sprintf("Scroll page (%.2f)", vec.Y/float64(h))
	drawOutlinedText(img, x1+labelOffset, y1+labelOffset, label, col, colorOutline)
	return nil
}

// axisBound returns the largest scale factor that keeps center+scale*comp
// inside [scrollMargin, dim-scrollMargin] along one axis. A zero component
// never constrains.
func axisBound(center, comp, dim float64) float64 {
	switch {
	case comp > 0:
		return (dim - scrollMargin - center) / comp
	case comp < 0:
		return (center - scrollMargin) / -comp
	default:
		return math.Inf(1)
	}
}
