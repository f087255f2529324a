package layout

import (
	"strings"
	"testing"
)

func wordItems(words []string, spaceWidth, avgCharWidth float64) []ParagraphItem {
	var items []ParagraphItem
	for i, w := range words {
		if i > 0 {
			items = append(items, ParagraphItem{Kind: ItemGlue, Width: spaceWidth, Stretch: spaceWidth / 2, Shrink: spaceWidth / 3})
		}
		items = append(items, ParagraphItem{Kind: ItemBox, Width: float64(len(w)) * avgCharWidth, Data: ItemData{Kind: DataText, Text: w}})
	}
	items = append(items, ParagraphItem{Kind: ItemPenalty, Penalty: ForcedBreak})
	items = append(items, ParagraphItem{Kind: ItemGlue, Width: 0, Stretch: 1e6})
	items = append(items, ParagraphItem{Kind: ItemPenalty, Penalty: ForcedBreak, Flagged: true})
	return items
}

// TestBreakParagraphRespectsStretchTolerance checks invariant 7: every
// produced line's glue-inclusive width stays within
// [content*(1-1), content*(1+tolerance)].
func TestBreakParagraphRespectsStretchTolerance(t *testing.T) {
	words := strings.Fields("the quick brown fox jumps over the lazy dog and then runs away quickly into the deep dark forest")
	items := wordItems(words, 6, 8)

	const lineWidth = 120.0
	const tolerance = 1.26
	lines, ok := BreakParagraph(items, LineBreakParams{LineWidth: lineWidth, StretchTolerance: tolerance, HyphenPenalty: 50})
	if !ok {
		t.Fatalf("expected a feasible break sequence")
	}
	if len(lines) == 0 {
		t.Fatalf("expected at least one line")
	}
	for i, line := range lines {
		width := 0.0
		for _, it := range line.Items {
			if it.Kind == ItemBox || it.Kind == ItemGlue {
				width += it.Width
			}
		}
		if width > lineWidth*(1+tolerance)+1e-6 {
			t.Errorf("line %d width %.2f exceeds max %.2f", i, width, lineWidth*(1+tolerance))
		}
	}
}

func TestStandardFitBreakNeverStalls(t *testing.T) {
	items := wordItems(strings.Fields("supercalifragilisticexpialidocious word"), 4, 30)
	lines := StandardFitBreak(items, 50)
	if len(lines) == 0 {
		t.Fatalf("expected at least one line")
	}
}

func TestCropOversizedBoxesShrinksWideBox(t *testing.T) {
	items := []ParagraphItem{{Kind: ItemBox, Width: 500, Data: ItemData{Kind: DataText, Text: "x"}}}
	out := CropOversizedBoxes(items, 100)
	if out[0].Width != 100 {
		t.Errorf("expected cropped width 100, got %v", out[0].Width)
	}
}
