// Package style resolves a node's cascaded CSS declarations into the
// engine's computed StyleData, reading the parent's StyleData first and
// overriding with this node's own explicit and inherited values.
package style

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/cssvalue"
	"github.com/inkleaf/reflow/domtree"
)

// SpecifiedValues collects the declarations of every rule in sheet that
// matches node, in cascade order (css.SortedForCascade), applies
// !important precedence by simply letting later writes win (sheet rules
// important rules sort after normal ones), and returns the final
// declaration map. An inline "style" attribute on the node, if present,
// is applied last so it always wins regardless of specificity, matching
// CSS's author-inline precedence rule.
func SpecifiedValues(a *domtree.Arena, node domtree.ID, sheet *css.Stylesheet, mediaFlags map[string]bool, log *zap.Logger) map[string]css.Value {
	result := make(map[string]css.Value)
	if sheet == nil {
		return result
	}

	var matched []css.Rule
	for _, r := range sheet.AllRules(mediaFlags) {
		if r.Selector.Pseudo != css.PseudoNone {
			// ::before/::after generated content is consumed separately by
			// the layout engine via the generated-content properties; the
			// pseudo-element itself never matches a real node.
			continue
		}
		if Matches(a, r.Selector, node) {
			matched = append(matched, r)
		}
	}

	for _, r := range css.SortedForCascade(matched) {
		for prop, val := range r.Properties {
			result[prop] = val
		}
	}

	if n := a.Node(node); n != nil {
		if inline, ok := n.Attr("style"); ok && strings.TrimSpace(inline) != "" {
			for prop, val := range parseInlineStyle(inline, log) {
				result[prop] = val
			}
		}
	}

	return result
}

func parseInlineStyle(decl string, log *zap.Logger) map[string]css.Value {
	p := css.NewParser(log)
	wrapped := fmt.Sprintf("x{%s}", decl)
	sheet := p.Parse([]byte(wrapped), css.OriginDocument)
	for _, item := range sheet.Items {
		if item.Rule != nil {
			return item.Rule.Properties
		}
	}
	return nil
}

// MatchedPseudo returns the content declaration of the first ::before or
// ::after rule (as selected) matching node, used by layout to build
// generated-content inline material.
func MatchedPseudo(a *domtree.Arena, node domtree.ID, sheet *css.Stylesheet, mediaFlags map[string]bool, pseudo css.PseudoElement) (map[string]css.Value, bool) {
	if sheet == nil {
		return nil, false
	}
	var matched []css.Rule
	for _, r := range sheet.AllRules(mediaFlags) {
		if r.Selector.Pseudo != pseudo {
			continue
		}
		if Matches(a, r.Selector, node) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, false
	}
	sorted := css.SortedForCascade(matched)
	return sorted[len(sorted)-1].Properties, true
}

// StyleData holds the computed presentation values for one node, per
// spec. Inheritable fields are seeded from the parent by Resolve before
// this node's own specified values are applied on top.
type StyleData struct {
	Display         cssvalue.Display
	FontSizePx      float64
	FontKind        cssvalue.FontKind
	Italic          bool
	Bold            bool
	Color           uint8
	LetterSpacing   float64
	WordSpacingKind cssvalue.WordSpacingKind
	WordSpacingVal  float64
	VerticalAlign   cssvalue.VerticalAlign
	LineHeightPx    float64
	TextAlign       cssvalue.TextAlign
	TextIndentPx    float64
	MarginTop       float64
	MarginRight     float64
	MarginBottom    float64
	MarginLeft      float64
	PaddingTop      float64
	PaddingRight    float64
	PaddingBottom   float64
	PaddingLeft     float64
	WidthPx         float64 // 0 = auto
	HeightPx        float64 // 0 = auto
	Float           cssvalue.FloatSide
	ListStyleType   cssvalue.ListStyleType
	FontFeatures    []string
	Language        string
	RetainWhitespace bool
	URI             string // inherited link target, set while inside an <a href>
}

// Default returns the engine's baseline StyleData, per spec §6 defaults:
// 11pt serif, 1.2em line-height, left-aligned, black text.
func Default(dpi float64) StyleData {
	fontPx := 11 * dpi / 72
	return StyleData{
		Display:      cssvalue.DisplayBlock,
		FontSizePx:   fontPx,
		FontKind:     cssvalue.FontSerif,
		Color:        0,
		LineHeightPx: fontPx * 1.2,
		TextAlign:    cssvalue.AlignLeft,
		ListStyleType: cssvalue.ListDisc,
		Language:     "en",
	}
}

// inheritableIntoChild copies the properties CSS defines as inherited
// from parent onto a fresh StyleData for a child, before that child's own
// specified values (via Apply) override them.
func inheritableIntoChild(parent StyleData) StyleData {
	child := parent
	// Reset the box-model and display properties: these never inherit.
	child.Display = cssvalue.DisplayInline
	child.MarginTop, child.MarginRight, child.MarginBottom, child.MarginLeft = 0, 0, 0, 0
	child.PaddingTop, child.PaddingRight, child.PaddingBottom, child.PaddingLeft = 0, 0, 0, 0
	child.WidthPx, child.HeightPx = 0, 0
	child.Float = cssvalue.FloatNone
	child.TextIndentPx = 0
	return child
}

// Resolve computes a node's StyleData from its parent's (for inheritance)
// and its specified declaration map, resolving lengths against the
// node's own font-size (for em) and the root font-size (for rem).
func Resolve(parent StyleData, specified map[string]css.Value, rootFontSizePx, containingWidthPx, dpi float64) StyleData {
	s := inheritableIntoChild(parent)

	ctx := func() cssvalue.Context {
		return cssvalue.Context{FontSize: s.FontSizePx, RootFontSize: rootFontSizePx, Containing: containingWidthPx, DPI: dpi}
	}

	if v, ok := specified["font-size"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.FontSizePx = px
		}
	}
	if v, ok := specified["display"]; ok {
		s.Display = cssvalue.ParseDisplay(cssvalue.Keyword(v, ""), s.Display)
	}
	if v, ok := specified["font-family"]; ok {
		s.FontKind = cssvalue.ParseFontKind(firstFamilyKeyword(v.Raw), s.FontKind)
	}
	if v, ok := specified["font-style"]; ok {
		s.Italic = cssvalue.Keyword(v, "") == "italic" || cssvalue.Keyword(v, "") == "oblique"
	}
	if v, ok := specified["font-weight"]; ok {
		kw := cssvalue.Keyword(v, "")
		s.Bold = kw == "bold" || kw == "bolder" || (v.IsNumeric() && v.Value >= 600)
	}
	if v, ok := specified["color"]; ok {
		s.Color = cssvalue.Gray(v)
	}
	if v, ok := specified["letter-spacing"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.LetterSpacing = px
		}
	}
	if v, ok := specified["word-spacing"]; ok {
		switch {
		case v.IsKeyword() && v.Keyword == "normal":
			s.WordSpacingKind = cssvalue.WordSpacingNormal
		case strings.HasSuffix(v.Raw, "%"):
			s.WordSpacingKind = cssvalue.WordSpacingRatio
			s.WordSpacingVal = v.Value / 100
		default:
			if px, ok := cssvalue.Length(v, ctx()); ok {
				s.WordSpacingKind = cssvalue.WordSpacingLength
				s.WordSpacingVal = px
			}
		}
	}
	if v, ok := specified["vertical-align"]; ok {
		s.VerticalAlign = cssvalue.ParseVerticalAlign(cssvalue.Keyword(v, ""), s.VerticalAlign)
	}
	if v, ok := specified["line-height"]; ok {
		if v.Unit == "" && v.IsNumeric() && v.Keyword == "" && !strings.ContainsAny(v.Raw, "a-zA-Z%") {
			s.LineHeightPx = v.Value * s.FontSizePx
		} else if px, ok := cssvalue.Length(v, ctx()); ok {
			s.LineHeightPx = px
		}
	} else if _, changed := specified["font-size"]; changed {
		s.LineHeightPx = s.FontSizePx * 1.2
	}
	if v, ok := specified["text-align"]; ok {
		s.TextAlign = cssvalue.ParseTextAlign(cssvalue.Keyword(v, ""), s.TextAlign)
	}
	if v, ok := specified["text-indent"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.TextIndentPx = px
		}
	}
	if v, ok := specified["margin-top"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.MarginTop = px
		}
	}
	if v, ok := specified["margin-right"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.MarginRight = px
		}
	}
	if v, ok := specified["margin-bottom"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.MarginBottom = px
		}
	}
	if v, ok := specified["margin-left"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.MarginLeft = px
		}
	}
	if v, ok := specified["padding-top"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.PaddingTop = px
		}
	}
	if v, ok := specified["padding-right"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.PaddingRight = px
		}
	}
	if v, ok := specified["padding-bottom"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.PaddingBottom = px
		}
	}
	if v, ok := specified["padding-left"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.PaddingLeft = px
		}
	}
	if v, ok := specified["width"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.WidthPx = px
		}
	}
	if v, ok := specified["height"]; ok {
		if px, ok := cssvalue.Length(v, ctx()); ok {
			s.HeightPx = px
		}
	}
	if v, ok := specified["float"]; ok {
		s.Float = cssvalue.ParseFloatSide(cssvalue.Keyword(v, ""))
	}
	if v, ok := specified["list-style-type"]; ok {
		s.ListStyleType = cssvalue.ParseListStyleType(cssvalue.Keyword(v, ""), s.ListStyleType)
	}
	if v, ok := specified["font-feature-settings"]; ok {
		s.FontFeatures = parseFontFeatures(v.Raw)
	}
	if v, ok := specified["lang"]; ok && v.Raw != "" {
		s.Language = v.Raw
	}
	if v, ok := specified["white-space"]; ok {
		kw := cssvalue.Keyword(v, "")
		s.RetainWhitespace = kw == "pre" || kw == "pre-wrap" || kw == "pre-line"
	}

	return s
}

func firstFamilyKeyword(raw string) string {
	parts := strings.Split(raw, ",")
	if len(parts) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(parts[0]), `"'`))
}

func parseFontFeatures(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"'`)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) > 0 {
			tags = append(tags, fields[0])
		}
	}
	return tags
}
