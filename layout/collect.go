package layout

import (
	"strings"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/cssvalue"
	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/style"
)

// voidImageTags are the elements walkInline turns into an inline Image
// when they carry a src attribute; other inline elements (e.g. a <span>
// or <a>) contribute their children's material inline, carrying their own
// style down.
var voidImageTags = map[string]bool{"img": true, "image": true}

// StyleResolver bundles the inputs collectInline/blockFlow need to
// compute a node's StyleData on demand.
type StyleResolver struct {
	Arena          *domtree.Arena
	Sheet          *css.Stylesheet
	MediaFlags     map[string]bool
	RootFontSizePx float64
	ContainingPx   float64
	DPI            float64
}

func (r *StyleResolver) resolve(node domtree.ID, parent style.StyleData) style.StyleData {
	specified := style.SpecifiedValues(r.Arena, node, r.Sheet, r.MediaFlags, nil)
	return style.Resolve(parent, specified, r.RootFontSizePx, r.ContainingPx, r.DPI)
}

// collectState accumulates InlineMaterial and the offsets of every
// id-bearing element encountered while walking a block container's
// inline content, per spec §4.4: "gather marker offsets for every
// id-bearing element encountered."
type collectState struct {
	material      []InlineMaterial
	markerOffsets []int
}

// CollectInline walks node's children gathering InlineMaterial for a
// paragraph placement pass, plus the offsets of every id-bearing element
// seen so the caller can emit Marker commands for id-target resolution.
func CollectInline(r *StyleResolver, node domtree.ID, nodeStyle style.StyleData, charWidth func(text string, s style.StyleData) float64) ([]InlineMaterial, []int) {
	st := &collectState{}
	genBefore(r, node, nodeStyle, st)
	walkInline(r, node, nodeStyle, st, charWidth)
	genAfter(r, node, nodeStyle, st)
	return st.material, st.markerOffsets
}

func walkInline(r *StyleResolver, node domtree.ID, parentStyle style.StyleData, st *collectState, charWidth func(string, style.StyleData) float64) {
	for _, child := range r.Arena.Children(node) {
		cn := r.Arena.Node(child)
		if cn == nil {
			continue
		}
		switch cn.Kind {
		case domtree.KindWhitespace:
			st.material = append(st.material, InlineMaterial{Kind: MaterialGlue, Offset: cn.Offset, Width: charWidth(" ", parentStyle), Stretch: charWidth(" ", parentStyle) / 2, Shrink: charWidth(" ", parentStyle) / 3})
		case domtree.KindText:
			emitText(cn, parentStyle, st, charWidth)
		case domtree.KindElement, domtree.KindWrapper:
			childStyle := r.resolve(child, parentStyle)
			if childStyle.Display == cssvalue.DisplayNone {
				continue
			}
			if cn.ID() != "" {
				st.markerOffsets = append(st.markerOffsets, cn.Offset)
			}
			if voidImageTags[strings.ToLower(cn.Tag)] {
				if src, ok := cn.Attr("src"); ok {
					st.material = append(st.material, InlineMaterial{Kind: MaterialImage, Offset: cn.Offset, Path: src, Style: childStyle})
					continue
				}
			}
			if strings.EqualFold(cn.Tag, "br") {
				st.material = append(st.material, InlineMaterial{Kind: MaterialLineBreak, Offset: cn.Offset})
				continue
			}
			if href, ok := cn.Attr("href"); ok && strings.EqualFold(cn.Tag, "a") {
				childStyle.URI = href
			}
			genBefore(r, child, childStyle, st)
			walkInline(r, child, childStyle, st, charWidth)
			genAfter(r, child, childStyle, st)
		}
	}
}

func emitText(n *domtree.Node, s style.StyleData, st *collectState, charWidth func(string, style.StyleData) float64) {
	text := n.Text
	if !s.RetainWhitespace {
		text = strings.Join(strings.Fields(text), " ")
	}
	if text == "" {
		return
	}
	if !s.RetainWhitespace {
		// walkInline already inserted Glue between sibling elements via
		// KindWhitespace nodes; inside this run (whose leading/trailing
		// space Fields has dropped) one Glue goes between each pair of words.
		for i, word := range strings.Split(text, " ") {
			if i > 0 {
				st.material = append(st.material, InlineMaterial{Kind: MaterialGlue, Offset: n.Offset, Width: charWidth(" ", s), Stretch: charWidth(" ", s) / 2, Shrink: charWidth(" ", s) / 3})
			}
			if word == "" {
				continue
			}
			st.material = append(st.material, InlineMaterial{Kind: MaterialText, Offset: n.Offset, Text: word, Style: s})
		}
		return
	}
	for _, line := range strings.Split(text, "\n") {
		st.material = append(st.material, InlineMaterial{Kind: MaterialText, Offset: n.Offset, Text: line, Style: s})
		st.material = append(st.material, InlineMaterial{Kind: MaterialLineBreak, Offset: n.Offset})
	}
	if len(st.material) > 0 && st.material[len(st.material)-1].Kind == MaterialLineBreak {
		st.material = st.material[:len(st.material)-1]
	}
}

func genPseudo(r *StyleResolver, node domtree.ID, s style.StyleData, st *collectState, pseudo css.PseudoElement) {
	decl, ok := style.MatchedPseudo(r.Arena, node, r.Sheet, r.MediaFlags, pseudo)
	if !ok {
		return
	}
	propName := "-plato-insert-before"
	if pseudo == css.PseudoAfter {
		propName = "-plato-insert-after"
	}
	v, ok := decl[propName]
	if !ok {
		if content, ok := decl["content"]; ok {
			text := strings.Trim(content.Raw, `"'`)
			if text != "" {
				st.material = append(st.material, InlineMaterial{Kind: MaterialText, Text: text, Style: s})
			}
		}
		return
	}
	for _, item := range cssvalue.ParseGeneratedContent(v.Raw) {
		switch item.Kind {
		case cssvalue.GenGlue:
			st.material = append(st.material, InlineMaterial{Kind: MaterialGlue, Width: item.Width, Stretch: item.Stretch, Shrink: item.Shrink})
		case cssvalue.GenPenalty:
			st.material = append(st.material, InlineMaterial{Kind: MaterialPenalty, Width: item.Width, Penalty: item.Penalty, Flagged: item.Flagged})
		case cssvalue.GenBox:
			st.material = append(st.material, InlineMaterial{Kind: MaterialBox, Width: item.Width, Style: s})
		}
	}
}

func genBefore(r *StyleResolver, node domtree.ID, s style.StyleData, st *collectState) {
	genPseudo(r, node, s, st, css.PseudoBefore)
}

func genAfter(r *StyleResolver, node domtree.ID, s style.StyleData, st *collectState) {
	genPseudo(r, node, s, st, css.PseudoAfter)
}

// ToParagraphItems converts collected InlineMaterial into the
// Knuth-Plass item stream, per spec §4.4.1: text/image become Boxes,
// inter-word space becomes Glue, explicit Glue/Penalty/Box items pass
// through, and a trailing end-of-paragraph penalty/glue/penalty sequence
// is appended. Right alignment prepends an infinite-stretch glue; Center
// alignment also appends one before the end sequence; Left and Justify
// add no alignment glue.
func ToParagraphItems(material []InlineMaterial, align cssvalue.TextAlign, charWidth func(string, style.StyleData) float64) []ParagraphItem {
	var items []ParagraphItem
	for _, m := range material {
		switch m.Kind {
		case MaterialText:
			items = append(items, ParagraphItem{Kind: ItemBox, Width: charWidth(m.Text, m.Style), Data: ItemData{Kind: DataText, Offset: m.Offset, Text: m.Text, Style: m.Style, URI: m.Style.URI}})
		case MaterialImage:
			items = append(items, ParagraphItem{Kind: ItemBox, Data: ItemData{Kind: DataImage, Offset: m.Offset, ImgPath: m.Path, Style: m.Style, URI: m.Style.URI}})
		case MaterialGlue:
			items = append(items, ParagraphItem{Kind: ItemGlue, Width: m.Width, Stretch: m.Stretch, Shrink: m.Shrink})
		case MaterialPenalty:
			items = append(items, ParagraphItem{Kind: ItemPenalty, Width: m.Width, Penalty: m.Penalty, Flagged: m.Flagged})
		case MaterialBox:
			items = append(items, ParagraphItem{Kind: ItemBox, Width: m.Width})
		case MaterialLineBreak:
			items = append(items, ParagraphItem{Kind: ItemPenalty, Penalty: ForcedBreak})
			items = append(items, ParagraphItem{Kind: ItemGlue, Width: 0, Stretch: 1e6, Shrink: 0})
			items = append(items, ParagraphItem{Kind: ItemPenalty, Penalty: ForcedBreak})
		}
	}
	switch align {
	case cssvalue.AlignRight:
		items = append([]ParagraphItem{{Kind: ItemGlue, Width: 0, Stretch: 1e6, Shrink: 0}}, items...)
	case cssvalue.AlignCenter:
		items = append([]ParagraphItem{{Kind: ItemGlue, Width: 0, Stretch: 1e6, Shrink: 0}}, items...)
		items = append(items, ParagraphItem{Kind: ItemGlue, Width: 0, Stretch: 1e6, Shrink: 0})
	}
	items = append(items, ParagraphItem{Kind: ItemPenalty, Penalty: ForcedBreak})
	items = append(items, ParagraphItem{Kind: ItemGlue, Width: 0, Stretch: 1e6, Shrink: 0})
	items = append(items, ParagraphItem{Kind: ItemPenalty, Penalty: ForcedBreak, Flagged: true})
	return items
}
