// Package layout implements the block-and-inline flow engine: paragraph
// collection, Knuth-Plass line breaking, floats, list markers, a
// two-pass table layout, and the page-breaking state machine that turns
// one chunk's styled DOM into a sequence of DrawCommand pages.
package layout

import "github.com/inkleaf/reflow/style"

// MaterialKind discriminates one InlineMaterial variant.
type MaterialKind int

const (
	MaterialText MaterialKind = iota
	MaterialImage
	MaterialLineBreak
	MaterialGlue
	MaterialPenalty
	MaterialBox
)

// InlineMaterial is one unit of inline content collected while walking a
// block container's children, per spec: Text{offset,text,style},
// Image{offset,path,style}, LineBreak, Glue{width,stretch,shrink},
// Penalty{width,penalty,flagged}, Box{width}.
type InlineMaterial struct {
	Kind    MaterialKind
	Offset  int
	Text    string
	Path    string
	Style   style.StyleData
	Width   float64
	Stretch float64
	Shrink  float64
	Penalty int
	Flagged bool
}

// ItemDataKind discriminates the payload of a ParagraphItem box.
type ItemDataKind int

const (
	DataNothing ItemDataKind = iota
	DataText
	DataImage
)

// ItemData is the Box payload used by Knuth-Plass: either Nothing (a pure
// spacer), Text (a shaped run with its source offset, style and target
// uri), or Image (an embedded image placement).
type ItemData struct {
	Kind   ItemDataKind
	Offset int
	Text   string
	Style  style.StyleData
	URI    string

	ImgWidth  float64
	ImgHeight float64
	ImgScale  float64
	ImgPath   string
}

// ParagraphItemKind discriminates a Knuth-Plass item.
type ParagraphItemKind int

const (
	ItemBox ParagraphItemKind = iota
	ItemGlue
	ItemPenalty
)

// ParagraphItem is one element of the Knuth-Plass item stream: Box,
// Glue, or Penalty, per spec §4.4.1.
type ParagraphItem struct {
	Kind    ParagraphItemKind
	Width   float64
	Stretch float64
	Shrink  float64
	Penalty int
	Flagged bool
	Data    ItemData
}

const (
	// InfinitePenalty forbids a break at this point entirely.
	InfinitePenalty = 10000
	// ForcedBreak forces a break at this point (used for hard breaks).
	ForcedBreak = -10000
)

// DrawKind discriminates a DrawCommand variant.
type DrawKind int

const (
	DrawText DrawKind = iota
	DrawExtraText
	DrawImage
	DrawMarker
)

// Point is a device-pixel position within a page.
type Point struct{ X, Y float64 }

// Rect is a device-pixel axis-aligned box within a page.
type Rect struct{ X, Y, W, H float64 }

// DrawCommand is one positioned drawing operation on a page, per spec:
// Text/ExtraText carry shaped text, Image an embedded raster/vector
// placement, Marker a zero-dimension offset anchor.
type DrawCommand struct {
	Kind     DrawKind
	Offset   int
	Position Point
	Rect     Rect
	Text     string
	Style    style.StyleData
	URI      string
	Path     string
	Scale    float64
}

// Page is an ordered list of DrawCommands. Its offset is FirstOffset().
type Page struct {
	Commands []DrawCommand
}

// FirstOffset returns the offset of the page's first command, or -1 for
// an empty page (which should not normally occur: the builder always
// seeds a Marker for an empty block).
func (p Page) FirstOffset() int {
	if len(p.Commands) == 0 {
		return -1
	}
	return p.Commands[0].Offset
}
