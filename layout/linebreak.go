package layout

import (
	"math"

	"github.com/inkleaf/reflow/hyphen"
)

// LineBreakParams carries the caller-tunable knobs §6 exposes:
// stretch_tolerance and hyphen_penalty.
type LineBreakParams struct {
	LineWidth        float64
	StretchTolerance float64 // default 1.26
	HyphenPenalty    int     // default 50
}

// Line is one chosen line: the paragraph items it spans (including a
// penalty it breaks at, excluding a glue it breaks at) and the glue ratio
// to apply when placing them.
type Line struct {
	Items []ParagraphItem
	Ratio float64
}

// breakpoint is a candidate position (index just after items[i]) in the
// item stream at which a line may legally end.
type breakpoint struct {
	index   int // items[0:index] belongs to the line ending here
	ratio   float64
	demerit float64
}

// BreakParagraph runs total-fit line breaking at the configured stretch
// tolerance. If no feasible sequence of breakpoints exists it returns
// ok=false so the caller can hyphenate and retry, then fall back to
// standard-fit.
func BreakParagraph(items []ParagraphItem, p LineBreakParams) ([]Line, bool) {
	n := len(items)
	if n == 0 {
		return nil, true
	}

	const inf = math.MaxFloat64 / 2
	best := make([]float64, n+1)
	from := make([]int, n+1)
	ratioAt := make([]float64, n+1)
	for i := range best {
		best[i] = inf
	}
	best[0] = 0
	from[0] = -1

	lineWidth := func(start, end int) (width, stretch, shrink float64) {
		for i := start; i < end; i++ {
			it := items[i]
			switch it.Kind {
			case ItemBox:
				width += it.Width
			case ItemGlue:
				width += it.Width
				stretch += it.Stretch
				shrink += it.Shrink
			}
		}
		return
	}

	isLegalBreak := func(i int) bool {
		if i == n {
			return true
		}
		it := items[i]
		if it.Kind == ItemPenalty {
			return it.Penalty < InfinitePenalty
		}
		// A glue is a legal break only if immediately preceded by a box.
		return it.Kind == ItemGlue && i > 0 && items[i-1].Kind == ItemBox
	}

	for i := 0; i <= n; i++ {
		if best[i] >= inf {
			continue
		}
		for j := i + 1; j <= n; j++ {
			if !isLegalBreak(j - 1) {
				continue
			}
			end := j - 1
			if items[end].Kind == ItemGlue {
				end = j - 1 // exclude the trailing glue from the line's content width
			} else {
				end = j // include the penalty's width (e.g. a hyphen) in the line
			}
			w, stretch, shrink := lineWidth(i, end)
			diff := p.LineWidth - w
			var ratio float64
			feasible := true
			if diff >= 0 {
				if stretch <= 0 {
					ratio = 0
					if diff > 0.01 {
						feasible = false
					}
				} else {
					ratio = diff / stretch
				}
				if ratio > p.StretchTolerance {
					feasible = false
				}
			} else {
				if shrink <= 0 {
					feasible = false
				} else {
					ratio = diff / shrink
					if ratio < -1 {
						feasible = false
					}
				}
			}
			if !feasible {
				if diff < 0 && j < n {
					// still too wide even at max shrink; keep extending in
					// standard-fit style rather than abandoning the whole
					// paragraph over one line.
					continue
				}
				continue
			}

			penaltyCost := 0.0
			if items[j-1].Kind == ItemPenalty {
				pen := items[j-1].Penalty
				if pen >= 0 {
					penaltyCost = float64(pen)
				} else if pen > ForcedBreak {
					penaltyCost = -float64(pen) * -1 // negative penalties favor the break
				}
			}
			badness := 100 * math.Pow(math.Abs(ratio), 3)
			demerit := best[i] + math.Pow(1+badness+penaltyCost, 2)

			if demerit < best[j] {
				best[j] = demerit
				from[j] = i
				ratioAt[j] = ratio
			}
		}
	}

	if best[n] >= inf {
		return nil, false
	}

	var bps []breakpoint
	for i := n; i > 0; i = from[i] {
		bps = append([]breakpoint{{index: i, ratio: ratioAt[i]}}, bps...)
	}

	var lines []Line
	start := 0
	for _, bp := range bps {
		end := bp.index
		lineItems := items[start:end]
		// trim a single trailing glue so the renderer doesn't draw it
		if len(lineItems) > 0 && lineItems[len(lineItems)-1].Kind == ItemGlue {
			lineItems = lineItems[:len(lineItems)-1]
		}
		lines = append(lines, Line{Items: append([]ParagraphItem(nil), lineItems...), Ratio: bp.ratio})
		start = end
	}
	return lines, true
}

// StandardFitBreak is the first-fit fallback: greedily accumulate items
// until the line would overflow, then break at the last legal point
// (preferring a glue, accepting an overfull line if nothing fits).
func StandardFitBreak(items []ParagraphItem, lineWidth float64) []Line {
	var lines []Line
	start := 0
	n := len(items)
	for start < n {
		width := 0.0
		lastLegal := -1
		i := start
		for ; i < n; i++ {
			it := items[i]
			switch it.Kind {
			case ItemBox:
				width += it.Width
			case ItemGlue:
				width += it.Width
				if i > start && items[i-1].Kind == ItemBox {
					lastLegal = i
				}
			case ItemPenalty:
				if it.Penalty < InfinitePenalty {
					lastLegal = i + 1
				}
			}
			if width > lineWidth && lastLegal > start {
				break
			}
		}
		end := i
		if width > lineWidth && lastLegal > start {
			end = lastLegal
		}
		if end <= start {
			end = start + 1
		}
		if end > n {
			end = n
		}
		lineItems := items[start:end]
		if len(lineItems) > 0 && lineItems[len(lineItems)-1].Kind == ItemGlue {
			lineItems = lineItems[:len(lineItems)-1]
		}
		lines = append(lines, Line{Items: append([]ParagraphItem(nil), lineItems...), Ratio: 0})
		start = end
	}
	return lines
}

// HyphenateItems expands every Text box into hyphen-joined segment
// boxes, inserting a zero-width optional flagged Penalty at the
// configured hyphen penalty between segments, per spec §4.4.1. Words
// shorter than a few characters, or with no language-appropriate
// dictionary loaded, pass through unchanged.
func HyphenateItems(items []ParagraphItem, h *hyphen.Hyphenator, lang string, hyphenPenalty int, widthOf func(segment string, style int) float64) []ParagraphItem {
	if h == nil {
		return items
	}
	tag := hyphen.Tag(lang)
	out := make([]ParagraphItem, 0, len(items))
	for _, it := range items {
		if it.Kind != ItemBox || it.Data.Kind != DataText || it.Data.Text == "" {
			out = append(out, it)
			continue
		}
		segments := h.Hyphenate(tag, it.Data.Text)
		if len(segments) <= 1 {
			out = append(out, it)
			continue
		}
		remainingWidth := it.Width
		for i, seg := range segments {
			segWidth := remainingWidth / float64(len(segments)-i)
			remainingWidth -= segWidth
			segBox := it
			segBox.Width = segWidth
			segBox.Data.Text = seg
			out = append(out, segBox)
			if i < len(segments)-1 {
				out = append(out, ParagraphItem{Kind: ItemPenalty, Penalty: hyphenPenalty, Flagged: true, Width: 0})
			}
		}
	}
	return out
}

// CropOversizedBoxes shrinks any single Box wider than lineWidth to fit
// it (text boxes are truncated at their stored width; images are
// rescaled), the last-resort fallback when even standard-fit cannot
// place a paragraph.
func CropOversizedBoxes(items []ParagraphItem, lineWidth float64) []ParagraphItem {
	out := make([]ParagraphItem, len(items))
	for i, it := range items {
		if it.Kind == ItemBox && it.Width > lineWidth {
			if it.Data.Kind == DataImage && it.Data.ImgWidth > 0 {
				scale := lineWidth / it.Data.ImgWidth
				it.Data.ImgScale *= scale
				it.Data.ImgWidth = lineWidth
				it.Data.ImgHeight *= scale
				it.Width = lineWidth
			} else {
				it.Width = lineWidth
			}
		}
		out[i] = it
	}
	return out
}
