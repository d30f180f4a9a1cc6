// internal/annotate/annotate_test.go
package annotate

import (
	"bytes"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestMarkerRadius(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 48, markerRadius(1200, 720))
	assert.Equal(t, 48, markerRadius(720, 1200))
	assert.Equal(t, 10, markerRadius(200, 150))
	assert.Equal(t, 0, markerRadius(10, 10))
}

func TestLabelAnchor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		bounds image.Rectangle
		px, py int
		want   image.Point
		ok     bool
	}{
		{
			name:   "clear of all edges picks south-east",
			bounds: image.Rect(0, 0, 100, 80),
			px:     50, py: 40,
			want: image.Pt(60, 50), ok: true,
		},
		{
			name:   "bottom-right corner falls back north-west",
			bounds: image.Rect(0, 0, 100, 80),
			px:     95, py: 75,
			want: image.Pt(85, 65), ok: true,
		},
		{
			name:   "bottom-left corner falls back north-east",
			bounds: image.Rect(0, 0, 100, 80),
			px:     5, py: 75,
			want: image.Pt(15, 65), ok: true,
		},
		{
			name:   "top-right corner falls back south-west",
			bounds: image.Rect(0, 0, 100, 80),
			px:     95, py: 5,
			want: image.Pt(85, 15), ok: true,
		},
		{
			name:   "no candidate fits a tiny image",
			bounds: image.Rect(0, 0, 15, 15),
			px:     7, py: 7,
			ok: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := labelAnchor(tc.px, tc.py, tc.bounds)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestAxisBound(t *testing.T) {
	t.Parallel()

	assert.True(t, math.IsInf(axisBound(360, 0, 720), 1))
	assert.InDelta(t, 345.0/360.0, axisBound(360, 360, 720), 1e-12)
	assert.InDelta(t, 345.0/360.0, axisBound(360, -360, 720), 1e-12)
	assert.InDelta(t, 2.0, axisBound(100, 200, 515), 1e-12)
}

func TestScrollVector(t *testing.T) {
	t.Parallel()

	vec := scrollVector(Action{Page: -0.5}, 1200, 720)
	assert.InDelta(t, 0, vec.X, 1e-12)
	assert.InDelta(t, 360, vec.Y, 1e-12)

	vec = scrollVector(Action{Page: 0.5, Horizontal: 0.25}, 1200, 720)
	assert.InDelta(t, 300, vec.X, 1e-12)
	assert.InDelta(t, -360, vec.Y, 1e-12)
}

func TestAnnotateClickCenterGeometry(t *testing.T) {
	t.Parallel()

	img := newCanvas(1200, 720)
	out, res := New(zaptest.NewLogger(t)).Annotate(img, "pyautogui.click(x=0.5, y=0.5)")

	require.True(t, res.OK)
	require.Equal(t, 1, res.Drawn)
	require.Empty(t, res.Faults)
	assert.Same(t, img, out, "annotation mutates in place")

	// Center (600, 360), ring radius min(1200,720)/15 = 48, halo at 50.
	cx, cy := 600, 360
	assert.Equal(t, colorClick, img.RGBAAt(cx, cy), "inner dot")
	assert.Equal(t, colorOutline, img.RGBAAt(cx+4, cy), "dot outline")
	assert.Equal(t, colorClick, img.RGBAAt(cx+48, cy), "main ring east")
	assert.Equal(t, colorClick, img.RGBAAt(cx, cy-48), "main ring north")
	assert.Equal(t, colorOutline, img.RGBAAt(cx+50, cy), "halo ring")
	assert.Equal(t, testBG, img.RGBAAt(cx+53, cy), "outside the halo")

	// Label at the first candidate offset, in the marker color.
	assert.True(t, containsColor(img, image.Rect(cx+10, cy+10, cx+10+5*7, cy+10+13), colorClick))
}

func TestAnnotateClickDenormalizesTruncating(t *testing.T) {
	t.Parallel()

	img := newCanvas(200, 150)
	_, res := New(zap.NewNop()).Annotate(img, "pyautogui.click(x=0.333, y=0.667)")

	require.True(t, res.OK)

	// int(0.333*200) = 66, int(0.667*150) = 100; ring radius 150/15 = 10.
	assert.Equal(t, colorClick, img.RGBAAt(66, 100))
	assert.Equal(t, colorClick, img.RGBAAt(66+10, 100))
	assert.Equal(t, colorOutline, img.RGBAAt(66+12, 100))
}

func TestAnnotateMoveToSharesClickGeometry(t *testing.T) {
	t.Parallel()

	clickImg := newCanvas(1200, 720)
	moveImg := newCanvas(1200, 720)
	a := New(zap.NewNop())

	_, clickRes := a.Annotate(clickImg, "pyautogui.click(x=0.25, y=0.75)")
	_, moveRes := a.Annotate(moveImg, "pyautogui.moveTo(x=0.25, y=0.75)")
	require.True(t, clickRes.OK)
	require.True(t, moveRes.OK)

	cx, cy := 300, 540
	assert.Equal(t, colorClick, clickImg.RGBAAt(cx, cy))
	assert.Equal(t, colorMove, moveImg.RGBAAt(cx, cy))
	assert.Equal(t, colorClick, clickImg.RGBAAt(cx+48, cy))
	assert.Equal(t, colorMove, moveImg.RGBAAt(cx+48, cy))

	// Identical geometry away from the label: compare the north-west
	// quadrant of the marker, which no label candidate reaches.
	quad := image.Rect(cx-51, cy-51, cx+1, cy+1)
	assert.Equal(t,
		countNotColor(clickImg, quad, testBG),
		countNotColor(moveImg, quad, testBG))
}

func TestAnnotateScrollDownClampsAtMargin(t *testing.T) {
	t.Parallel()

	img := newCanvas(1200, 720)
	_, res := New(zaptest.NewLogger(t)).Annotate(img, "pyautogui.scroll(page=-0.5)")

	require.True(t, res.OK)
	require.Equal(t, 1, res.Drawn)

	// One page is one viewport height; page=-0.5 moves down the document,
	// so the arrow runs from (600,360) toward (600,720), clamped 15px
	// short of the edge: tip at (600,705).
	assert.Equal(t, colorScroll, img.RGBAAt(600, 705), "arrow tip")
	assert.Equal(t, colorScroll, img.RGBAAt(600, 500), "shaft")
	assert.Equal(t, colorOutline, img.RGBAAt(602, 500), "outline pass beside the shaft")
	assert.Equal(t, testBG, img.RGBAAt(600, 300), "no shaft above center")
	assert.Equal(t, testBG, img.RGBAAt(600, 710), "clamped short of the bottom")

	// Label "Scroll page (0.50)" beside the tip, outlined.
	labelBox := image.Rect(608, 713, 760, 720)
	assert.True(t, containsColor(img, labelBox, colorScroll))
	assert.True(t, containsColor(img, labelBox, colorOutline))
}

func TestAnnotateScrollUpTravelsBoundTimesMagnitude(t *testing.T) {
	t.Parallel()

	img := newCanvas(1200, 720)
	_, res := New(zap.NewNop()).Annotate(img, "pyautogui.scroll(page=2)")

	require.True(t, res.OK)

	// Displacement (0, -1440) shrinks by (360-15)/1440, tip at (600, 15).
	assert.Equal(t, colorScroll, img.RGBAAt(600, 15))
	assert.Equal(t, colorScroll, img.RGBAAt(600, 100))
	assert.Equal(t, testBG, img.RGBAAt(600, 10))
	assert.Equal(t, testBG, img.RGBAAt(600, 500))
}

func TestAnnotateScrollHorizontal(t *testing.T) {
	t.Parallel()

	img := newCanvas(1200, 720)
	_, res := New(zap.NewNop()).Annotate(img, "pyautogui.scroll(page=0, horizontal=0.25)")

	require.True(t, res.OK)

	// Displacement (300, 0) fits: tip at (900, 360).
	assert.Equal(t, colorScroll, img.RGBAAt(900, 360))
	assert.Equal(t, colorScroll, img.RGBAAt(750, 360))
	assert.Equal(t, testBG, img.RGBAAt(500, 360))
}

func TestAnnotateScrollZeroVectorStillDraws(t *testing.T) {
	t.Parallel()

	img := newCanvas(400, 300)
	_, res := New(zap.NewNop()).Annotate(img, "pyautogui.scroll(page=0)")

	require.True(t, res.OK)
	require.Equal(t, 1, res.Drawn)
	assert.Equal(t, colorScroll, img.RGBAAt(200, 150))
}

func TestAnnotateMalformedClickFaults(t *testing.T) {
	t.Parallel()

	img := newCanvas(300, 200)
	before := append([]uint8(nil), img.Pix...)

	_, res := New(zaptest.NewLogger(t)).Annotate(img, "pyautogui.click(x=abc, y=2)")

	assert.False(t, res.OK)
	assert.Zero(t, res.Drawn)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, 0, res.Faults[0].Line)
	assert.Equal(t, "pyautogui.click(x=abc, y=2)", res.Faults[0].Raw)
	assert.Error(t, res.Faults[0].Err)
	assert.True(t, bytes.Equal(before, img.Pix), "faulted line must not touch the image")
}

func TestAnnotateIgnoresUnrecognizedLines(t *testing.T) {
	t.Parallel()

	img := newCanvas(300, 200)
	before := append([]uint8(nil), img.Pix...)

	trace := "pyautogui.press(keys=['enter'])\nThe page looks ready.\n"
	_, res := New(zap.NewNop()).Annotate(img, trace)

	assert.True(t, res.OK)
	assert.Zero(t, res.Drawn)
	assert.Empty(t, res.Faults)
	assert.True(t, bytes.Equal(before, img.Pix))
}

func TestAnnotateAggregatesAcrossLines(t *testing.T) {
	t.Parallel()

	trace := "pyautogui.click(x=0.2, y=0.2)\n" +
		"pyautogui.click(x=nope, y=nope)\n" +
		"pyautogui.scroll(page=-1)"

	img := newCanvas(600, 400)
	_, res := New(zaptest.NewLogger(t)).Annotate(img, trace)

	assert.False(t, res.OK, "one faulted line fails the whole pass")
	assert.Equal(t, 2, res.Drawn, "good lines still draw")
	require.Len(t, res.Faults, 1)
	assert.Equal(t, 1, res.Faults[0].Line)
}

func TestAnnotateStacksAcrossCalls(t *testing.T) {
	t.Parallel()

	img := newCanvas(600, 400)
	a := New(zap.NewNop())

	_, res := a.Annotate(img, "pyautogui.click(x=0.25, y=0.5)")
	require.True(t, res.OK)
	first := append([]uint8(nil), img.Pix...)

	_, res = a.Annotate(img, "pyautogui.click(x=0.75, y=0.5)")
	require.True(t, res.OK)
	assert.False(t, bytes.Equal(first, img.Pix), "second call draws again")

	// Both markers are present; nothing is cleared between calls.
	assert.Equal(t, colorClick, img.RGBAAt(150, 200))
	assert.Equal(t, colorClick, img.RGBAAt(450, 200))
}

func TestAnnotateEmptyTraceSucceedsVacuously(t *testing.T) {
	t.Parallel()

	_, res := New(zap.NewNop()).Annotate(newCanvas(100, 100), "")
	assert.True(t, res.OK)
	assert.Zero(t, res.Drawn)
}

func TestAnnotateNilImage(t *testing.T) {
	t.Parallel()

	out, res := New(zap.NewNop()).Annotate(nil, "pyautogui.click(x=0.5, y=0.5)")
	assert.Nil(t, out)
	assert.False(t, res.OK)
	require.Len(t, res.Faults, 1)

	_, ok := Annotate(nil, "")
	assert.False(t, ok)
}

func TestAnnotateSubImageRespectsBounds(t *testing.T) {
	t.Parallel()

	base := newCanvas(400, 300)
	sub, ok := base.SubImage(image.Rect(100, 50, 340, 230)).(*image.RGBA)
	require.True(t, ok)

	_, res := New(zap.NewNop()).Annotate(sub, "pyautogui.click(x=0.5, y=0.5)")
	require.True(t, res.OK)

	// Sub-image is 240x180: center lands at (100+120, 50+90), radius 12.
	assert.Equal(t, colorClick, base.RGBAAt(220, 140))
	assert.Equal(t, colorClick, base.RGBAAt(232, 140))

	// Nothing may leak outside the sub-image rectangle.
	assert.Zero(t, countNotColor(base, image.Rect(0, 0, 100, 300), testBG))
	assert.Zero(t, countNotColor(base, image.Rect(340, 0, 400, 300), testBG))
	assert.Zero(t, countNotColor(base, image.Rect(0, 0, 400, 50), testBG))
	assert.Zero(t, countNotColor(base, image.Rect(0, 230, 400, 300), testBG))
}

func TestAnnotateConvenienceWrapper(t *testing.T) {
	t.Parallel()

	_, ok := Annotate(newCanvas(120, 90), "pyautogui.click(x=0.5, y=0.5)")
	assert.True(t, ok)

	_, ok = Annotate(newCanvas(120, 90), "pyautogui.click(x=oops, y=0.5)")
	assert.False(t, ok)
}
