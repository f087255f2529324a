package layout

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/cssvalue"
	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/hyphen"
	"github.com/inkleaf/reflow/style"
)

// Params is the layout-parameter surface from spec §6, plumbed down from
// the document façade's setters.
type Params struct {
	WidthPx          float64
	HeightPx         float64
	MarginPx         float64 // uniform edge margin
	FontSizePx       float64
	LineHeightEm     float64
	DPI              float64
	TextAlign        cssvalue.TextAlign
	HyphenPenalty    int
	StretchTolerance float64
	IgnoreDocumentCSS bool
	FontFamily       string
}

// DefaultParams returns the spec §6 defaults: DPI 300, page 1404x1872,
// margin 8mm, font 11pt, line-height 1.2em, left align, hyphen penalty
// 50, stretch tolerance 1.26, serif.
func DefaultParams() Params {
	const dpi = 300.0
	return Params{
		WidthPx:          1404,
		HeightPx:         1872,
		MarginPx:         8 * dpi / 25.4,
		FontSizePx:       11 * dpi / 72,
		LineHeightEm:     1.2,
		DPI:              dpi,
		TextAlign:        cssvalue.AlignLeft,
		HyphenPenalty:    50,
		StretchTolerance: 1.26,
		FontFamily:       "serif",
	}
}

// CharWidthFunc estimates the rendered width in px of a run of text under
// a given computed style — a stand-in for the real shaper collaborator
// the render package owns; the layout engine needs only line-breaking
// widths, not glyph outlines.
type CharWidthFunc func(text string, s style.StyleData) float64

// DefaultCharWidth approximates a monospaced-enough average glyph
// advance as a fraction of font-size, sufficient for line-breaking
// decisions when no real shaper is wired in (e.g. in tests).
func DefaultCharWidth(text string, s style.StyleData) float64 {
	factor := 0.5
	if s.FontKind == cssvalue.FontMonospace {
		factor = 0.6
	}
	return float64(len([]rune(text))) * s.FontSizePx * factor
}

// Builder lays out one chunk's styled DOM into a sequence of pages.
type Builder struct {
	Arena      *domtree.Arena
	Sheet      *css.Stylesheet
	MediaFlags map[string]bool
	Params     Params
	Hyphenator *hyphen.Hyphenator
	CharWidth  CharWidthFunc
	Log        *zap.Logger

	resolver *StyleResolver
}

// drawState threads the mutable pen position, open page, accumulated
// pages, floats, and seen-offset skip set through block recursion —
// adapted from the boxes-and-glue flow-state shape (Work/Child) common
// to box-model layout engines, specialized here to byte-offset semantics
// instead of location IDs.
type drawState struct {
	pen            Point
	contentLeft    float64
	contentRight   float64
	contentTop     float64
	contentBottom  float64
	page           []DrawCommand
	pages          []Page
	skips          map[int]bool
	pendingBottom  float64
	listCounters   []int
	floatLeftW     float64
	floatLeftEnd   float64 // pen.Y below which floatLeftW is reserved
	floatRightW    float64
	floatRightEnd  float64
	errs           error
}

func (ds *drawState) contentWidth() float64 {
	w := ds.contentRight - ds.contentLeft
	if ds.pen.Y < ds.floatLeftEnd {
		w -= ds.floatLeftW
	}
	if ds.pen.Y < ds.floatRightEnd {
		w -= ds.floatRightW
	}
	if w < 1 {
		w = 1
	}
	return w
}

func (ds *drawState) lineLeft() float64 {
	if ds.pen.Y < ds.floatLeftEnd {
		return ds.contentLeft + ds.floatLeftW
	}
	return ds.contentLeft
}

func (ds *drawState) newPage() {
	ds.pages = append(ds.pages, Page{Commands: ds.page})
	ds.page = nil
	ds.pen = Point{X: ds.contentLeft, Y: ds.contentTop}
	ds.pendingBottom = 0
}

func (ds *drawState) ensureRoom(height float64) {
	if ds.pen.Y+height > ds.contentBottom && len(ds.page) > 0 {
		ds.newPage()
	}
}

func (ds *drawState) emitMarker(offset int) {
	if ds.skips[offset] {
		return
	}
	ds.skips[offset] = true
	ds.page = append(ds.page, DrawCommand{Kind: DrawMarker, Offset: offset, Position: ds.pen})
}

// Build lays node out (the chunk's body element, typically) and returns
// the finished page sequence, implementing the Uncached->Building
// transition described in §4.4.5; the document façade retains the
// returned pages (the "Cached" state) until a parameter mutation clears
// it.
func (b *Builder) Build(root domtree.ID) ([]Page, error) {
	if b.CharWidth == nil {
		b.CharWidth = DefaultCharWidth
	}
	if b.Log == nil {
		b.Log = zap.NewNop()
	}
	b.resolver = &StyleResolver{
		Arena:          b.Arena,
		Sheet:          b.Sheet,
		MediaFlags:     b.MediaFlags,
		RootFontSizePx: b.Params.FontSizePx,
		ContainingPx:   b.Params.WidthPx - 2*b.Params.MarginPx,
		DPI:            b.Params.DPI,
	}

	ds := &drawState{
		contentLeft:   b.Params.MarginPx,
		contentRight:  b.Params.WidthPx - b.Params.MarginPx,
		contentTop:    b.Params.MarginPx,
		contentBottom: b.Params.HeightPx - b.Params.MarginPx,
		skips:         make(map[int]bool),
	}
	ds.pen = Point{X: ds.contentLeft, Y: ds.contentTop}

	root0 := style.Default(b.Params.DPI)
	root0.FontSizePx = b.Params.FontSizePx
	root0.LineHeightPx = b.Params.FontSizePx * b.Params.LineHeightEm
	root0.TextAlign = b.Params.TextAlign
	root0.FontKind = cssvalue.ParseFontKind(strings.ToLower(b.Params.FontFamily), cssvalue.FontSerif)

	b.blockFlow(ds, root, root0)

	if len(ds.page) > 0 || len(ds.pages) == 0 {
		ds.pages = append(ds.pages, Page{Commands: ds.page})
	}
	return ds.pages, ds.errs
}

func (b *Builder) blockFlow(ds *drawState, node domtree.ID, parentStyle style.StyleData) {
	n := b.Arena.Node(node)
	if n == nil {
		return
	}

	if n.Kind != domtree.KindElement && n.Kind != domtree.KindWrapper && n.Kind != domtree.KindText && n.Kind != domtree.KindWhitespace {
		return
	}
	if n.Kind == domtree.KindText || n.Kind == domtree.KindWhitespace {
		// Bare inline content directly under a block container: domtree's
		// WrapLostInlines normally wraps this already; anything left
		// unwrapped is skipped here.
		return
	}

	s := b.resolver.resolve(node, parentStyle)
	if s.Display == cssvalue.DisplayNone {
		return
	}

	if pb, ok := n.Attr("page-break-before"); ok && pb == "always" {
		if len(ds.page) > 0 {
			ds.newPage()
		}
	}

	gap := s.MarginTop
	if ds.pendingBottom > gap {
		gap = ds.pendingBottom
	}
	ds.pen.Y += gap - ds.pendingBottom
	ds.pendingBottom = 0
	ds.pen.Y += s.PaddingTop

	if n.ID() != "" {
		ds.emitMarker(n.Offset)
	} else if len(b.Arena.Children(node)) == 0 {
		// An empty block still needs a resolvable offset (spec: "Marker
		// commands seed offsets for ... empty blocks").
		ds.emitMarker(n.Offset)
	}

	tag := strings.ToLower(n.Tag)
	switch tag {
	case "table":
		b.layoutTable(ds, node, s)
		ds.pendingBottom = s.MarginBottom + s.PaddingBottom
		return
	case "ol", "ul":
		ds.listCounters = append(ds.listCounters, 0)
		defer func() { ds.listCounters = ds.listCounters[:len(ds.listCounters)-1] }()
	case "li":
		if len(ds.listCounters) > 0 {
			ds.listCounters[len(ds.listCounters)-1]++
		}
		idx := 1
		if len(ds.listCounters) > 0 {
			idx = ds.listCounters[len(ds.listCounters)-1]
		}
		prefix := MarkerPrefix(s.ListStyleType, idx)
		if prefix != "" {
			ds.ensureRoom(s.LineHeightPx)
			ds.page = append(ds.page, DrawCommand{
				Kind: DrawExtraText, Offset: n.Offset,
				Position: Point{X: ds.lineLeft(), Y: ds.pen.Y},
				Text:     prefix, Style: s,
			})
		}
	}

	if s.Float != cssvalue.FloatNone {
		b.applyFloat(ds, s)
	}

	if hasBlockChild(b, node, s) {
		for _, child := range b.Arena.Children(node) {
			b.blockFlow(ds, child, s)
		}
	} else {
		b.layoutInlineContainer(ds, node, s)
	}

	ds.pen.Y += s.PaddingBottom
	ds.pendingBottom = s.MarginBottom
}

// hasBlockChild reports whether node has at least one child element whose
// resolved display is Block — if so it is laid out as a block container
// (recursing into children) rather than an inline/paragraph container.
func hasBlockChild(b *Builder, node domtree.ID, parentStyle style.StyleData) bool {
	for _, child := range b.Arena.Children(node) {
		cn := b.Arena.Node(child)
		if cn == nil || (cn.Kind != domtree.KindElement && cn.Kind != domtree.KindWrapper) {
			continue
		}
		cs := b.resolver.resolve(child, parentStyle)
		if cs.Display == cssvalue.DisplayBlock {
			return true
		}
	}
	return false
}

func (b *Builder) applyFloat(ds *drawState, s style.StyleData) {
	w := s.WidthPx
	if w <= 0 {
		w = ds.contentWidth() * 0.3
	}
	h := s.HeightPx
	if h <= 0 {
		h = s.LineHeightPx * 3
	}
	switch s.Float {
	case cssvalue.FloatLeft:
		ds.floatLeftW = w
		ds.floatLeftEnd = ds.pen.Y + h
	case cssvalue.FloatRight:
		ds.floatRightW = w
		ds.floatRightEnd = ds.pen.Y + h
	}
}

func (b *Builder) layoutInlineContainer(ds *drawState, node domtree.ID, s style.StyleData) {
	material, markerOffsets := CollectInline(b.resolver, node, s, b.CharWidth)
	for _, off := range markerOffsets {
		ds.emitMarker(off)
	}
	if len(material) == 0 {
		return
	}

	items := ToParagraphItems(material, s.TextAlign, b.CharWidth)
	lineWidth := ds.contentWidth()
	if s.TextIndentPx != 0 && len(items) > 0 {
		items = append([]ParagraphItem{{Kind: ItemBox, Width: s.TextIndentPx}}, items...)
	}

	params := LineBreakParams{LineWidth: lineWidth, StretchTolerance: b.Params.StretchTolerance, HyphenPenalty: b.Params.HyphenPenalty}
	lines, ok := BreakParagraph(items, params)
	if !ok {
		if b.Hyphenator == nil {
			ds.errs = multierr.Append(ds.errs, fmt.Errorf("node@%d: no feasible total-fit break and no hyphenation dictionary available, falling back to standard-fit", node))
		}
		lang := s.Language
		hyphenated := HyphenateItems(items, b.Hyphenator, lang, b.Params.HyphenPenalty, nil)
		lines, ok = BreakParagraph(hyphenated, params)
		if !ok {
			lines = StandardFitBreak(CropOversizedBoxes(hyphenated, lineWidth), lineWidth)
		}
	}

	for _, line := range lines {
		ds.ensureRoom(s.LineHeightPx)
		b.placeLine(ds, line, s, lineWidth)
	}
}

func (b *Builder) placeLine(ds *drawState, line Line, s style.StyleData, lineWidth float64) {
	x := ds.lineLeft()
	y := ds.pen.Y
	extra := 0.0
	count := 0
	for _, it := range line.Items {
		if it.Kind == ItemGlue {
			count++
		}
	}
	if count > 0 {
		width, stretch, shrink := 0.0, 0.0, 0.0
		for _, it := range line.Items {
			switch it.Kind {
			case ItemBox:
				width += it.Width
			case ItemGlue:
				width += it.Width
				stretch += it.Stretch
				shrink += it.Shrink
			}
		}
		_ = width
		if line.Ratio >= 0 {
			extra = line.Ratio * stretch
		} else {
			extra = line.Ratio * shrink
		}
	}

	cur := x
	for i, it := range line.Items {
		switch it.Kind {
		case ItemBox:
			w := it.Width
			switch it.Data.Kind {
			case DataText:
				ds.page = append(ds.page, DrawCommand{
					Kind: DrawText, Offset: it.Data.Offset,
					Position: Point{X: cur, Y: y},
					Rect:     Rect{X: cur, Y: y, W: w, H: s.LineHeightPx},
					Text:     it.Data.Text, Style: it.Data.Style, URI: it.Data.URI,
				})
			case DataImage:
				ds.page = append(ds.page, DrawCommand{
					Kind: DrawImage, Offset: it.Data.Offset,
					Position: Point{X: cur, Y: y},
					Rect:     Rect{X: cur, Y: y, W: it.Data.ImgWidth, H: it.Data.ImgHeight},
					Path:     it.Data.ImgPath, URI: it.Data.URI, Scale: it.Data.ImgScale,
				})
			}
			cur += w
		case ItemGlue:
			cur += it.Width
			if i == len(line.Items)-1 {
				break
			}
			cur += extra / float64(max(count, 1))
		case ItemPenalty:
			if it.Flagged && it.Width > 0 && len(ds.page) > 0 {
				last := &ds.page[len(ds.page)-1]
				if last.Kind == DrawText {
					last.Text += "­"
				}
			}
		}
	}
	ds.pen.Y += s.LineHeightPx
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
