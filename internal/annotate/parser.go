// internal/annotate/parser.go
package annotate

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the recognized action vocabulary. Anything else in an
// action log is ignored, not failed.
type Kind string

const (
	KindClick  Kind = "click"
	KindMoveTo Kind = "moveTo"
	KindScroll Kind = "scroll"
)

// Action log lines are recognized by these literal prefixes.
const (
	prefixClick  = "pyautogui.click"
	prefixMoveTo = "pyautogui.moveTo"
	prefixScroll = "pyautogui.scroll"
)

var (
	// Named x=/y= arguments, searched in the text after a click/moveTo
	// prefix. Numbers are signed and optionally fractional.
	coordArgsRe = regexp.MustCompile(`\(\s*x\s*=\s*([-+]?\d*\.?\d+)\s*,\s*y\s*=\s*([-+]?\d*\.?\d+)\s*\)`)
	pageArgRe   = regexp.MustCompile(`page\s*=\s*([-+]?\d*\.?\d+)`)
	horizArgRe  = regexp.MustCompile(`\b(?:horizontal|h)\s*=\s*([-+]?\d*\.?\d+)`)
	numberRe    = regexp.MustCompile(`[-+]?\d*\.?\d+`)
)

// Action is one recognized action-log line.
type Action struct {
	Kind Kind
	Raw  string

	// Target is the normalized click/moveTo location, each component in
	// [0,1] for on-screen points. Nil when the arguments failed to parse;
	// the renderer reports a fault for such actions.
	Target *Vector2D

	// Page is the vertical scroll distance in viewport pages (positive
	// scrolls up) and Horizontal the horizontal distance in viewport
	// widths. Absent or malformed values are zero, never an error.
	Page       float64
	Horizontal float64
}

// ParseActions splits an action log into recognized actions, preserving
// input order. Unrecognized lines are dropped.
func ParseActions(log string) []Action {
	var out []Action
	for _, line := range strings.Split(log, "\n") {
		if act, ok := parseLine(line); ok {
			out = append(out, act)
		}
	}
	return out
}

// parseLine classifies a single action-log line. ok is false for lines
// outside the recognized vocabulary.
func parseLine(line string) (Action, bool) {
	switch {
	case strings.HasPrefix(line, prefixMoveTo):
		return Action{Kind: KindMoveTo, Raw: line, Target: parseCoords(line[len(prefixMoveTo):])}, true
	case strings.HasPrefix(line, prefixClick):
		return Action{Kind: KindClick, Raw: line, Target: parseCoords(line[len(prefixClick):])}, true
	case strings.HasPrefix(line, prefixScroll):
		page, horizontal := parseScrollArgs(line[len(prefixScroll):])
		return Action{Kind: KindScroll, Raw: line, Page: page, Horizontal: horizontal}, true
	default:
		return Action{}, false
	}
}

// parseCoords extracts the named coordinate pair from the argument text.
// A miss yields nil rather than an error: the action is still recognized,
// it just has nothing drawable.
func parseCoords(args string) *Vector2D {
	m := coordArgsRe.FindStringSubmatch(args)
	if m == nil {
		return nil
	}
	x, errX := strconv.ParseFloat(m[1], 64)
	y, errY := strconv.ParseFloat(m[2], 64)
	if errX != nil || errY != nil {
		return nil
	}
	return &Vector2D{X: x, Y: y}
}

// parseScrollArgs extracts scroll magnitudes from the argument text. Named
// page=/horizontal= (or h=) arguments win; failing those, the first one or
// two bare numbers are taken as vertical then horizontal.
func parseScrollArgs(args string) (page, horizontal float64) {
	pm := pageArgRe.FindStringSubmatch(args)
	hm := horizArgRe.FindStringSubmatch(args)
	if pm != nil || hm != nil {
		if pm != nil {
			page = parseNumber(pm[1])
		}
		if hm != nil {
			horizontal = parseNumber(hm[1])
		}
		return page, horizontal
	}

	nums := numberRe.FindAllString(args, 2)
	if len(nums) > 0 {
		page = parseNumber(nums[0])
	}
	if len(nums) > 1 {
		horizontal = parseNumber(nums[1])
	}
	return page, horizontal
}

// parseNumber converts a matched numeral, yielding 0 for anything the
// grammar let slip through.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
