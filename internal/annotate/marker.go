// internal/annotate/marker.go
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Marker palette. The halo and outline color is shared; the main stroke
// color distinguishes the action kind, and the label text distinguishes it
// again for color-blind readers.
var (
	colorClick   = color.RGBA{R: 255, A: 255}
	colorMove    = color.RGBA{B: 255, A: 255}
	colorScroll  = color.RGBA{A: 255}
	colorOutline = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	// markerDivisor scales the ring to the screenshot: radius is the
	// shorter image dimension divided by this.
	markerDivisor = 15

	ringWidth       = 2
	dotRadius       = 2
	dotOutlineWidth = 4
	labelOffset     = 10
)

// labelOffsets are the candidate label anchors relative to the marker
// center, tried in order; the first one inside the image wins.
var labelOffsets = []image.Point{
	{X: labelOffset, Y: labelOffset},
	{X: -labelOffset, Y: -labelOffset},
	{X: labelOffset, Y: -labelOffset},
	{X: -labelOffset, Y: labelOffset},
}

// markerRadius returns the ring radius for a w×h image.
func markerRadius(w, h int) int {
	return min(w, h) / markerDivisor
}

// drawPointMarker renders the concentric click/moveTo marker: a contrast
// halo ring two pixels outside the main ring, the main ring, an outlined
// center dot, and a label at the first in-bounds candidate offset.
func drawPointMarker(img draw.Image, target *Vector2D, label string, col color.Color) error {
	if target == nil {
		return fmt.Errorf("action has no parseable coordinates")
	}
	if !target.IsFinite() {
		return fmt.Errorf("coordinates are not finite: (%v, %v)", target.X, target.Y)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("image has no drawable area: %v", bounds)
	}

	// Denormalize, truncating toward zero like the source coordinates.
	px := bounds.Min.X + int(target.X*float64(w))
	py := bounds.Min.Y + int(target.Y*float64(h))
	radius := markerRadius(w, h)

	strokeCircle(img, px, py, radius+2, ringWidth, colorOutline)
	strokeCircle(img, px, py, radius, ringWidth, col)
	fillCircle(img, px, py, dotRadius+dotOutlineWidth, colorOutline)
	fillCircle(img, px, py, dotRadius, col)

	if anchor, ok := labelAnchor(px, py, bounds); ok {
		drawText(img, anchor.X, anchor.Y, label, col)
	}
	return nil
}

// labelAnchor picks the first candidate offset whose anchor point lies
// inside the image. ok is false when the marker is so close to every edge
// that no candidate fits; the label is then skipped entirely.
func labelAnchor(px, py int, bounds image.Rectangle) (image.Point, bool) {
	for _, off := range labelOffsets {
		anchor := image.Pt(px+off.X, py+off.Y)
		if anchor.In(bounds) {
			return anchor, true
		}
	}
	return image.Point{}, false
}
