package cssvalue

import "testing"

func TestParseDisplay(t *testing.T) {
	cases := map[string]Display{
		"block":         DisplayBlock,
		"list-item":     DisplayBlock,
		"inline":        DisplayInline,
		"inline-block":  DisplayInline,
		"inline-table":  DisplayInlineTable,
		"none":          DisplayNone,
		"flex":          DisplayInline,
		"":              DisplayInline,
	}
	for kw, want := range cases {
		if got := ParseDisplay(kw, DisplayInline); got != want {
			t.Errorf("ParseDisplay(%q) = %v, want %v", kw, got, want)
		}
	}
}

func TestParseTextAlign(t *testing.T) {
	if got := ParseTextAlign("justify", AlignLeft); got != AlignJustify {
		t.Errorf("ParseTextAlign(justify) = %v, want AlignJustify", got)
	}
	if got := ParseTextAlign("bogus", AlignRight); got != AlignRight {
		t.Errorf("ParseTextAlign(bogus) = %v, want fallback AlignRight", got)
	}
}

func TestParseFontKind(t *testing.T) {
	if got := ParseFontKind("monospace", FontSerif); got != FontMonospace {
		t.Errorf("ParseFontKind(monospace) = %v, want FontMonospace", got)
	}
	if got := ParseFontKind("bogus", FontSerif); got != FontSerif {
		t.Errorf("ParseFontKind(bogus) = %v, want fallback FontSerif", got)
	}
}
