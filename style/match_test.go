package style

import (
	"testing"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/xmlparse"
)

func firstSelector(t *testing.T, ruleText string) css.Selector {
	t.Helper()
	sheet := css.NewParser(nil).Parse([]byte(ruleText), css.OriginDocument, "test")
	for _, item := range sheet.Items {
		if item.Rule != nil {
			return item.Rule.Selector
		}
	}
	t.Fatalf("no rule parsed from %q", ruleText)
	return css.Selector{}
}

func findFirstElement(a *domtree.Arena, tag string) domtree.ID {
	for id := range a.Descendants(a.Root()) {
		n := a.Node(id)
		if n.Kind == domtree.KindElement && n.Tag == tag {
			return id
		}
	}
	return domtree.NoNode
}

func TestMatchesTagAndClass(t *testing.T) {
	arena := xmlparse.Parse([]byte(`<html><body><p class="note">hi</p></body></html>`))
	target := findFirstElement(arena, "p")

	if !Matches(arena, firstSelector(t, "p { }"), target) {
		t.Error("Matches(p) = false, want true")
	}
	if !Matches(arena, firstSelector(t, ".note { }"), target) {
		t.Error("Matches(.note) = false, want true")
	}
	if Matches(arena, firstSelector(t, ".missing { }"), target) {
		t.Error("Matches(.missing) = true, want false")
	}
}

func TestMatchesDescendantCombinator(t *testing.T) {
	arena := xmlparse.Parse([]byte(`<html><body><div><p>hi</p></div></body></html>`))
	target := findFirstElement(arena, "p")

	if !Matches(arena, firstSelector(t, "div p { }"), target) {
		t.Error("Matches(div p) = false, want true")
	}
	if Matches(arena, firstSelector(t, "span p { }"), target) {
		t.Error("Matches(span p) = true, want false")
	}
}

func TestMatchesChildCombinator(t *testing.T) {
	arena := xmlparse.Parse([]byte(`<html><body><div><span><p>hi</p></span></div></body></html>`))
	target := findFirstElement(arena, "p")

	if Matches(arena, firstSelector(t, "div > p { }"), target) {
		t.Error("Matches(div > p) = true, want false (p's parent is span, not div)")
	}
	if !Matches(arena, firstSelector(t, "span > p { }"), target) {
		t.Error("Matches(span > p) = false, want true")
	}
}
