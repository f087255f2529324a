package style

import (
	"testing"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/cssvalue"
	"github.com/inkleaf/reflow/xmlparse"
)

func TestSpecifiedValuesAppliesMatchingRules(t *testing.T) {
	arena := xmlparse.Parse([]byte(`<html><body><p id="target" class="big">text</p></body></html>`))
	sheet := css.NewParser(nil).Parse([]byte(`p { color: white; } .big { font-size: 20px; }`), css.OriginDocument, "test")

	id, ok := arena.ElementByID("target")
	if !ok {
		t.Fatal("element #target not found")
	}
	specified := SpecifiedValues(arena, id, sheet, nil, nil)
	if _, ok := specified["color"]; !ok {
		t.Error(`specified["color"] missing, want present from "p" rule`)
	}
	if _, ok := specified["font-size"]; !ok {
		t.Error(`specified["font-size"] missing, want present from ".big" rule`)
	}
}

func TestSpecifiedValuesInlineStyleWins(t *testing.T) {
	arena := xmlparse.Parse([]byte(`<html><body><p id="target" style="color: white;">text</p></body></html>`))
	sheet := css.NewParser(nil).Parse([]byte(`p { color: black; }`), css.OriginDocument, "test")

	id, _ := arena.ElementByID("target")
	specified := SpecifiedValues(arena, id, sheet, nil, nil)
	v := specified["color"]
	if v.Keyword != "white" {
		t.Errorf("specified[color].Keyword = %q, want white (inline style should win)", v.Keyword)
	}
}

func TestResolveInheritsFontSizeNotMargin(t *testing.T) {
	parent := Default(300)
	parent.FontSizePx = 24
	parent.MarginTop = 50

	child := Resolve(parent, map[string]css.Value{}, 16, 1000, 300)
	if child.FontSizePx != 24 {
		t.Errorf("child.FontSizePx = %v, want inherited 24", child.FontSizePx)
	}
	if child.MarginTop != 0 {
		t.Errorf("child.MarginTop = %v, want reset to 0 (margins don't inherit)", child.MarginTop)
	}
}

func TestResolveFontSizeRecomputesLineHeight(t *testing.T) {
	parent := Default(300)
	specified := map[string]css.Value{
		"font-size": {Value: 2, Unit: "em"},
	}
	child := Resolve(parent, specified, 16, 1000, 300)
	want := 2 * parent.FontSizePx
	if child.FontSizePx != want {
		t.Errorf("child.FontSizePx = %v, want %v", child.FontSizePx, want)
	}
	if child.LineHeightPx != child.FontSizePx*1.2 {
		t.Errorf("child.LineHeightPx = %v, want recomputed from new font-size", child.LineHeightPx)
	}
}

func TestResolveTextAlign(t *testing.T) {
	parent := Default(300)
	specified := map[string]css.Value{"text-align": {Keyword: "center"}}
	child := Resolve(parent, specified, 16, 1000, 300)
	if child.TextAlign != cssvalue.AlignCenter {
		t.Errorf("child.TextAlign = %v, want AlignCenter", child.TextAlign)
	}
}
