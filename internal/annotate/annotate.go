// internal/annotate/annotate.go

// Package annotate renders agent action traces onto screenshots. Click and
// moveTo lines become concentric ring markers at the denormalized target,
// scroll lines become a labeled arrow from the image center, and everything
// else in the trace is passed over untouched.
package annotate

import (
	"fmt"
	"image/draw"
	"strings"

	"go.uber.org/zap"
)

// Fault records one action line the renderer could not draw. The line index
// is zero-based within the trace.
type Fault struct {
	Line int
	Raw  string
	Err  error
}

func (f Fault) String() string {
	return fmt.Sprintf("line %d: %v (%q)", f.Line, f.Err, f.Raw)
}

// Result summarizes one annotation pass. OK is true only when every
// recognized action line was drawn; unrecognized lines affect neither OK
// nor Drawn.
type Result struct {
	OK     bool
	Drawn  int
	Faults []Fault
}

// Annotator draws action traces onto images. The zero-cost way to get one
// is New; a nil logger is replaced with a no-op.
type Annotator struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Annotator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{logger: logger.Named("annotator")}
}

// Annotate draws every recognized action in the trace onto img, in trace
// order, mutating img in place; the returned image is the same reference.
// Later markers stack on top of earlier ones. A line that names an action
// but cannot be drawn is recorded as a Fault and skipped without touching
// the image; the pass keeps going.
func (a *Annotator) Annotate(img draw.Image, trace string) (draw.Image, Result) {
	if img == nil {
		return nil, Result{Faults: []Fault{{Err: fmt.Errorf("no image to annotate")}}}
	}

	res := Result{OK: true}
	for i, line := range strings.Split(trace, "\n") {
		action, ok := parseLine(line)
		if !ok {
			continue
		}
		if err := a.drawAction(img, action); err != nil {
			res.OK = false
			res.Faults = append(res.Faults, Fault{Line: i, Raw: action.Raw, Err: err})
			a.logger.Warn("skipping undrawable action",
				zap.Int("line", i),
				zap.String("raw", action.Raw),
				zap.Error(err),
			)
			continue
		}
		res.Drawn++
	}
	return img, res
}

// Annotate is the package-level convenience wrapper: the annotated image
// plus whether every recognized action was drawn.
func Annotate(img draw.Image, trace string) (draw.Image, bool) {
	out, res := New(nil).Annotate(img, trace)
	return out, res.OK
}

func (a *Annotator) drawAction(img draw.Image, action Action) error {
	switch action.Kind {
	case KindClick:
		return drawPointMarker(img, action.Target, "Click", colorClick)
	case KindMoveTo:
		return drawPointMarker(img, action.Target, "MoveTo", colorMove)
	case KindScroll:
		bounds := img.Bounds()
		vec := scrollVector(action, bounds.Dx(), bounds.Dy())
		return drawScrollArrow(img, vec, colorScroll)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// scrollVector converts the page/horizontal scroll amounts into a pixel
// displacement. One page is one image height; positive page scrolls up, so
// the arrow points up the screen (negative y).
func scrollVector(action Action, w, h int) Vector2D {
	return Vector2D{
		X: action.Horizontal * float64(w),
		Y: -action.Page * float64(h),
	}
}
