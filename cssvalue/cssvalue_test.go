package cssvalue

import (
	"testing"

	"github.com/inkleaf/reflow/css"
)

func TestLengthUnits(t *testing.T) {
	ctx := Context{FontSize: 16, RootFontSize: 16, Containing: 1000, DPI: 300}
	cases := []struct {
		raw  string
		unit string
		val  float64
		want float64
	}{
		{unit: "px", val: 10, want: 10},
		{unit: "%", val: 50, want: 500},
		{unit: "em", val: 2, want: 32},
		{unit: "rem", val: 1.5, want: 24},
		{unit: "in", val: 1, want: 300},
		{unit: "pt", val: 72, want: 300},
	}
	for _, c := range cases {
		px, ok := Length(css.Value{Value: c.val, Unit: c.unit}, ctx)
		if !ok {
			t.Fatalf("Length(%v%s) ok = false", c.val, c.unit)
		}
		if px != c.want {
			t.Errorf("Length(%v%s) = %v, want %v", c.val, c.unit, px, c.want)
		}
	}
}

func TestLengthNotNumeric(t *testing.T) {
	_, ok := Length(css.Value{Keyword: "auto"}, Context{})
	if ok {
		t.Error("Length(auto) ok = true, want false")
	}
}

func TestLengthRawFallback(t *testing.T) {
	px, ok := Length(css.Value{Raw: "12.5px"}, Context{})
	if !ok || px != 12.5 {
		t.Errorf("Length(raw 12.5px) = %v, %v, want 12.5, true", px, ok)
	}
}

func TestGrayHex(t *testing.T) {
	if g := Gray(css.Value{Raw: "#ffffff"}); g != 255 {
		t.Errorf("Gray(#ffffff) = %d, want 255", g)
	}
	if g := Gray(css.Value{Raw: "#000"}); g != 0 {
		t.Errorf("Gray(#000) = %d, want 0", g)
	}
}

func TestGrayRGBFunc(t *testing.T) {
	g := Gray(css.Value{Raw: "rgb(255, 255, 255)"})
	if g != 255 {
		t.Errorf("Gray(rgb white) = %d, want 255", g)
	}
}

func TestGrayKeyword(t *testing.T) {
	if g := Gray(css.Value{Keyword: "white"}); g != 255 {
		t.Errorf("Gray(white) = %d, want 255", g)
	}
	if g := Gray(css.Value{Keyword: "gray"}); g != 128 {
		t.Errorf("Gray(gray) = %d, want 128", g)
	}
}

func TestKeywordFallback(t *testing.T) {
	if k := Keyword(css.Value{}, "auto"); k != "auto" {
		t.Errorf("Keyword(empty) = %q, want auto", k)
	}
	if k := Keyword(css.Value{Keyword: "Bold"}, "auto"); k != "bold" {
		t.Errorf("Keyword(Bold) = %q, want bold", k)
	}
}
