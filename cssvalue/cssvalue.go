// Package cssvalue converts parsed css.Value strings into the engine's
// numeric and keyword types: lengths and percentages resolved against em,
// rem and DPI; keyword enums for the properties layout cares about; 8-bit
// gray colors; and the generated-content DSL (glue/penalty/box) read from
// the -plato-insert-before/-plato-insert-after properties of ::before and
// ::after rules.
package cssvalue

import (
	"strconv"
	"strings"

	"github.com/inkleaf/reflow/css"
)

// Context carries the numeric inputs a length/percentage resolves against.
// Percentages resolve against Containing; "em" against FontSize; "rem"
// against RootFontSize; physical units ("in", "cm", "mm", "pt", "pc")
// convert through DPI to device pixels.
type Context struct {
	FontSize     float64 // current element's font-size, in px
	RootFontSize float64 // root element's font-size, in px
	Containing   float64 // containing-block dimension a percentage resolves against
	DPI          float64
}

// Length resolves a parsed Value to device pixels. ok is false when v
// carries no usable numeric component (a bare keyword, or garbage raw
// text the cascade never should have matched against a length property).
func Length(v css.Value, ctx Context) (px float64, ok bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	num, unit := v.Value, v.Unit
	if unit == "" && v.Raw != "" {
		num, unit = splitNumberUnit(v.Raw)
	}
	dpi := ctx.DPI
	if dpi == 0 {
		dpi = 300
	}
	switch unit {
	case "", "px":
		return num, true
	case "%":
		return num / 100 * ctx.Containing, true
	case "em":
		return num * ctx.FontSize, true
	case "rem":
		return num * ctx.RootFontSize, true
	case "pt":
		return num * dpi / 72, true
	case "pc":
		return num * dpi / 6, true
	case "in":
		return num * dpi, true
	case "cm":
		return num * dpi / 2.54, true
	case "mm":
		return num * dpi / 25.4, true
	case "q":
		return num * dpi / 101.6, true
	case "vw", "vh":
		// No viewport axis distinct from the containing block in this
		// engine; treat like a percentage of the page box.
		return num / 100 * ctx.Containing, true
	default:
		return num, true
	}
}

// splitNumberUnit parses a raw CSS dimension token like "12.5px" into its
// numeric and unit parts when the parser stored it raw instead of
// pre-split (IsNumeric already confirmed a leading digit/sign/dot).
func splitNumberUnit(raw string) (float64, string) {
	raw = strings.TrimSpace(raw)
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			i++
			continue
		}
		break
	}
	numPart, unitPart := raw[:i], strings.TrimSpace(raw[i:])
	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, ""
	}
	return n, strings.ToLower(unitPart)
}

// Keyword returns v's keyword normalized to lower case, or fallback when
// v carries no keyword (including when it is purely numeric).
func Keyword(v css.Value, fallback string) string {
	if v.Keyword == "" {
		return fallback
	}
	return strings.ToLower(v.Keyword)
}

// Gray resolves a color value to an 8-bit grayscale level (0=black,
// 255=white), the only color representation the target display supports.
// Recognizes #rgb/#rrggbb hex, rgb()/rgba() functional notation (by
// luminance), and a handful of named keywords; anything else falls back
// to black.
func Gray(v css.Value) uint8 {
	raw := strings.TrimSpace(v.Raw)
	switch {
	case strings.HasPrefix(raw, "#"):
		return grayFromHex(raw[1:])
	case strings.HasPrefix(strings.ToLower(raw), "rgb"):
		return grayFromRGBFunc(raw)
	}
	switch strings.ToLower(v.Keyword) {
	case "white":
		return 255
	case "black", "":
		return 0
	case "gray", "grey":
		return 128
	case "silver":
		return 192
	case "transparent":
		return 255
	default:
		return 0
	}
}

func grayFromHex(hex string) uint8 {
	expand := func(c byte) (byte, byte) { return c, c }
	var r, g, b byte
	switch len(hex) {
	case 3:
		rc, _ := expand(hex[0])
		gc, _ := expand(hex[1])
		bc, _ := expand(hex[2])
		r = hexNibble(rc)*16 + hexNibble(rc)
		g = hexNibble(gc)*16 + hexNibble(gc)
		b = hexNibble(bc)*16 + hexNibble(bc)
	case 6:
		r = hexByte(hex[0:2])
		g = hexByte(hex[2:4])
		b = hexByte(hex[4:6])
	default:
		return 0
	}
	return luminance(r, g, b)
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

func hexByte(s string) byte {
	if len(s) != 2 {
		return 0
	}
	return hexNibble(s[0])*16 + hexNibble(s[1])
}

func grayFromRGBFunc(raw string) uint8 {
	start := strings.IndexByte(raw, '(')
	end := strings.IndexByte(raw, ')')
	if start < 0 || end < 0 || end <= start {
		return 0
	}
	parts := strings.Split(raw[start+1:end], ",")
	if len(parts) < 3 {
		return 0
	}
	vals := make([]byte, 3)
	for i := 0; i < 3; i++ {
		n, _ := strconv.Atoi(strings.TrimSpace(parts[i]))
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		vals[i] = byte(n)
	}
	return luminance(vals[0], vals[1], vals[2])
}

func luminance(r, g, b byte) uint8 {
	// ITU-R BT.601 perceptual weights, matching the grayscale conversion
	// the pack's own raster pipeline performs for device output.
	return uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}
