// internal/annotate/draw_test.go
package annotate

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBG is the canvas fill used by the rendering tests; a non-zero color
// so that "pixel untouched" and "pixel drawn" are both observable.
var testBG = color.RGBA{R: 17, G: 17, B: 17, A: 255}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(testBG), image.Point{}, draw.Src)
	return img
}

// containsColor reports whether any pixel of img inside rect equals col.
func containsColor(img *image.RGBA, rect image.Rectangle, col color.RGBA) bool {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.RGBAAt(x, y) == col {
				return true
			}
		}
	}
	return false
}

// countNotColor counts pixels of img inside rect that differ from col.
func countNotColor(img *image.RGBA, rect image.Rectangle, col color.RGBA) int {
	rect = rect.Intersect(img.Bounds())
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.RGBAAt(x, y) != col {
				n++
			}
		}
	}
	return n
}

func TestSetPixelSafeClipsOutOfBounds(t *testing.T) {
	t.Parallel()

	img := newCanvas(10, 10)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	setPixelSafe(img, -1, 5, white)
	setPixelSafe(img, 5, -1, white)
	setPixelSafe(img, 10, 5, white)
	setPixelSafe(img, 5, 10, white)
	assert.Zero(t, countNotColor(img, img.Bounds(), testBG))

	setPixelSafe(img, 0, 0, white)
	assert.Equal(t, white, img.RGBAAt(0, 0))
}

func TestFillCircle(t *testing.T) {
	t.Parallel()

	img := newCanvas(20, 20)
	red := color.RGBA{R: 255, A: 255}
	fillCircle(img, 10, 10, 3, red)

	assert.Equal(t, red, img.RGBAAt(10, 10))
	assert.Equal(t, red, img.RGBAAt(13, 10))
	assert.Equal(t, red, img.RGBAAt(12, 12))
	assert.Equal(t, testBG, img.RGBAAt(14, 10))
	assert.Equal(t, testBG, img.RGBAAt(13, 13))
}

func TestFillCircleZeroRadiusStampsOnePixel(t *testing.T) {
	t.Parallel()

	img := newCanvas(9, 9)
	red := color.RGBA{R: 255, A: 255}
	fillCircle(img, 4, 4, 0, red)

	assert.Equal(t, red, img.RGBAAt(4, 4))
	assert.Equal(t, 1, countNotColor(img, img.Bounds(), testBG))
}

func TestStrokeCircleLeavesInteriorUntouched(t *testing.T) {
	t.Parallel()

	img := newCanvas(40, 40)
	blue := color.RGBA{B: 255, A: 255}
	strokeCircle(img, 20, 20, 8, 2, blue)

	assert.Equal(t, blue, img.RGBAAt(28, 20))
	assert.Equal(t, blue, img.RGBAAt(20, 28))
	assert.Equal(t, blue, img.RGBAAt(12, 20))
	assert.Equal(t, blue, img.RGBAAt(20, 12))
	assert.Equal(t, testBG, img.RGBAAt(20, 20))
	assert.Equal(t, testBG, img.RGBAAt(24, 20))
}

func TestDrawLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		x0, y0, x1, y1 int
		width          int
		wantSet        []image.Point
		wantClear      []image.Point
	}{
		{
			name: "horizontal width one",
			x0:   2, y0: 5, x1: 8, y1: 5, width: 1,
			wantSet:   []image.Point{{2, 5}, {5, 5}, {8, 5}},
			wantClear: []image.Point{{1, 5}, {9, 5}, {5, 4}, {5, 6}},
		},
		{
			name: "diagonal width one",
			x0:   0, y0: 0, x1: 5, y1: 5, width: 1,
			wantSet:   []image.Point{{0, 0}, {3, 3}, {5, 5}},
			wantClear: []image.Point{{5, 0}, {0, 5}},
		},
		{
			name: "reversed endpoints",
			x0:   8, y0: 5, x1: 2, y1: 5, width: 1,
			wantSet:   []image.Point{{2, 5}, {8, 5}},
			wantClear: []image.Point{{1, 5}, {9, 5}},
		},
		{
			name: "degenerate segment",
			x0:   4, y0: 4, x1: 4, y1: 4, width: 1,
			wantSet:   []image.Point{{4, 4}},
			wantClear: []image.Point{{3, 4}, {5, 4}},
		},
		{
			name: "thick stroke stamps around the path",
			x0:   2, y0: 5, x1: 8, y1: 5, width: 4,
			wantSet:   []image.Point{{5, 5}, {5, 3}, {5, 7}},
			wantClear: []image.Point{{5, 2}, {5, 8}},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			img := newCanvas(12, 12)
			black := color.RGBA{A: 255}
			drawLine(img, tc.x0, tc.y0, tc.x1, tc.y1, tc.width, black)

			for _, p := range tc.wantSet {
				assert.Equalf(t, black, img.RGBAAt(p.X, p.Y), "pixel %v should be drawn", p)
			}
			for _, p := range tc.wantClear {
				assert.Equalf(t, testBG, img.RGBAAt(p.X, p.Y), "pixel %v should be untouched", p)
			}
		})
	}
}

func TestDrawTextStaysInGlyphBox(t *testing.T) {
	t.Parallel()

	img := newCanvas(60, 30)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	drawText(img, 2, 2, "Click", white)

	// Face7x13 advances 7px per glyph and is 13px tall.
	box := image.Rect(2, 2, 2+5*7, 2+13)
	require.True(t, containsColor(img, box, white))

	outside := countNotColor(img, img.Bounds(), testBG) - countNotColor(img, box, testBG)
	assert.Zero(t, outside, "no pixels outside the glyph box")
}

func TestDrawTextClipsOffImage(t *testing.T) {
	t.Parallel()

	img := newCanvas(30, 20)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	drawText(img, -80, -40, "far away", white)
	drawText(img, 300, 200, "far away", white)
	assert.Zero(t, countNotColor(img, img.Bounds(), testBG))
}

func TestDrawOutlinedTextHasBothColors(t *testing.T) {
	t.Parallel()

	img := newCanvas(40, 30)
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	drawOutlinedText(img, 5, 5, "S", black, white)

	box := image.Rect(3, 3, 15, 21)
	assert.True(t, containsColor(img, box, black), "main color present")
	assert.True(t, containsColor(img, box, white), "outline color present")
}
