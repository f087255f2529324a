package css_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/inkleaf/reflow/css"
)

func allRules(sheet *css.Stylesheet) []css.Rule {
	var rules []css.Rule
	for _, item := range sheet.Items {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

func TestParser_ElementSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`p { text-indent: 1em; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	subj := rules[0].Selector.Subject()
	if subj.Tag != "p" || len(subj.Classes) != 0 || len(subj.IDs) != 0 {
		t.Errorf("unexpected subject: %+v", subj)
	}

	val, ok := rules[0].GetProperty("text-indent")
	if !ok || val.Value != 1 || val.Unit != "em" {
		t.Errorf("expected text-indent: 1em, got %+v ok=%v", val, ok)
	}
}

func TestParser_ClassSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`.epigraph { font-style: italic; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	subj := rules[0].Selector.Subject()
	if subj.Tag != "" || len(subj.Classes) != 1 || subj.Classes[0] != "epigraph" {
		t.Errorf("unexpected subject: %+v", subj)
	}
}

func TestParser_IDSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`#title { font-size: 2em; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	subj := rules[0].Selector.Subject()
	if len(subj.IDs) != 1 || subj.IDs[0] != "title" {
		t.Errorf("expected id 'title', got %+v", subj)
	}
}

func TestParser_AttributeSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`a[href] { color: blue; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	subj := rules[0].Selector.Subject()
	if subj.Tag != "a" || len(subj.Attrs) != 1 || subj.Attrs[0].Name != "href" || subj.Attrs[0].Op != css.AttrPresent {
		t.Errorf("unexpected subject: %+v", subj)
	}
}

func TestParser_AttributeEqualsSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`div[lang="en"] { quotes: none; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	subj := rules[0].Selector.Subject()
	if len(subj.Attrs) != 1 || subj.Attrs[0].Op != css.AttrEquals || subj.Attrs[0].Value != "en" {
		t.Errorf("unexpected attribute: %+v", subj.Attrs)
	}
}

func TestParser_CombinedSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`p.has-dropcap { text-indent: 0; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	subj := rules[0].Selector.Subject()
	if subj.Tag != "p" || len(subj.Classes) != 1 || subj.Classes[0] != "has-dropcap" {
		t.Errorf("unexpected subject: %+v", subj)
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`h2, h3, h4 { font-size: 120%; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules for grouped selector, got %d", len(rules))
	}
	expected := []string{"h2", "h3", "h4"}
	for i, rule := range rules {
		if rule.Selector.Subject().Tag != expected[i] {
			t.Errorf("rule %d: expected tag '%s', got '%s'", i, expected[i], rule.Selector.Subject().Tag)
		}
	}
}

func TestParser_PseudoElementBefore(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`.quote::before { content: ">>"; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Selector.Pseudo != css.PseudoBefore {
		t.Errorf("expected PseudoBefore, got %v", rules[0].Selector.Pseudo)
	}
	val, ok := rules[0].GetProperty("content")
	if !ok || val.Keyword != ">>" {
		t.Errorf("expected content '>>', got %+v", val)
	}
}

func TestParser_DescendantSelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`p code { font-family: monospace; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	sel := rules[0].Selector
	if !sel.IsDescendant() || len(sel.Compounds) != 2 {
		t.Fatalf("expected 2-compound descendant selector, got %+v", sel)
	}
	if sel.Compounds[0].Tag != "p" || sel.Compounds[1].Tag != "code" {
		t.Errorf("unexpected compounds: %+v", sel.Compounds)
	}
	if sel.Combinators[0] != css.CombDescendant {
		t.Errorf("expected descendant combinator, got %v", sel.Combinators[0])
	}
}

func TestParser_ChildCombinator(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`ul > li { list-style: none; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	sel := rules[0].Selector
	if len(sel.Combinators) != 1 || sel.Combinators[0] != css.CombChild {
		t.Fatalf("expected single child combinator, got %+v", sel.Combinators)
	}
}

func TestParser_AdjacentCombinator(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`h1 + p { margin-top: 0; }`), css.OriginDocument)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	sel := rules[0].Selector
	if len(sel.Combinators) != 1 || sel.Combinators[0] != css.CombAdjacent {
		t.Fatalf("expected single adjacent combinator, got %+v", sel.Combinators)
	}
}

func TestSelector_Specificity(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	idSheet := p.Parse([]byte(`#foo { color: red; }`), css.OriginDocument)
	classSheet := p.Parse([]byte(`.foo { color: red; }`), css.OriginDocument)
	tagSheet := p.Parse([]byte(`p { color: red; }`), css.OriginDocument)

	idSpec := allRules(idSheet)[0].Selector.Specificity()
	classSpec := allRules(classSheet)[0].Selector.Specificity()
	tagSpec := allRules(tagSheet)[0].Selector.Specificity()

	if !tagSpec.Less(classSpec) {
		t.Errorf("expected tag specificity < class specificity: %+v vs %+v", tagSpec, classSpec)
	}
	if !classSpec.Less(idSpec) {
		t.Errorf("expected class specificity < id specificity: %+v vs %+v", classSpec, idSpec)
	}
}

func TestParser_ImportantDeclaration(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`p { color: red !important; }`), css.OriginUser)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if !rules[0].Important {
		t.Error("expected rule marked !important")
	}
	val, ok := rules[0].GetProperty("color")
	if !ok || val.Keyword != "red" {
		t.Errorf("expected color: red (bang-important stripped), got %+v", val)
	}
}

func TestStylesheet_Append_CascadeOrder(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	doc := p.Parse([]byte(`p { color: black; }`), css.OriginDocument)
	user := p.Parse([]byte(`p { color: blue; }`), css.OriginDocument) // parsed standalone, re-tagged below

	merged := &css.Stylesheet{}
	merged.Append(doc, css.OriginDocument, false)
	merged.Append(user, css.OriginUser, false)

	sorted := css.SortedForCascade(allRules(merged))
	if len(sorted) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(sorted))
	}
	// viewer < user < document, so document's rule ends up applied last
	// even though it was appended first.
	if sorted[len(sorted)-1].Origin != css.OriginDocument {
		t.Errorf("expected document-origin rule to win cascade order, got last=%v", sorted[len(sorted)-1].Origin)
	}
}

func TestStylesheet_Append_ImportantWinsOverOrigin(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	doc := p.Parse([]byte(`p { color: black; }`), css.OriginDocument)
	viewer := p.Parse([]byte(`p { color: red; }`), css.OriginDocument)

	merged := &css.Stylesheet{}
	merged.Append(doc, css.OriginDocument, false)
	merged.Append(viewer, css.OriginViewer, true) // forced !important

	sorted := css.SortedForCascade(allRules(merged))
	last := sorted[len(sorted)-1]
	if last.Origin != css.OriginViewer || !last.Important {
		t.Errorf("expected important viewer rule last, got %+v", last)
	}
}

func TestParser_MediaBlockPreserved(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := []byte(`
		p { margin: 0; }
		@media amzn-kf8 {
			p { margin: 1em; }
		}
		.test { color: red; }
	`)
	sheet := p.Parse(input, css.OriginDocument)

	if len(sheet.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(sheet.Items))
	}
	if sheet.Items[1].MediaBlock == nil {
		t.Fatal("expected second item to be a MediaBlock")
	}
	mb := sheet.Items[1].MediaBlock
	if mb.Query.Type != "amzn-kf8" {
		t.Errorf("expected media type 'amzn-kf8', got '%s'", mb.Query.Type)
	}
	if len(mb.Rules) != 1 {
		t.Fatalf("expected 1 rule inside @media block, got %d", len(mb.Rules))
	}
}

func TestMediaQuery_Evaluate(t *testing.T) {
	mq := css.MediaQuery{Type: "amzn-kf8", Features: []css.MediaFeature{{Name: "amzn-et", Negated: true}}}
	if mq.Evaluate(map[string]bool{"amzn-kf8": true, "amzn-et": true}) {
		t.Error("expected amzn-kf8 and not amzn-et to NOT match when both flags are true")
	}
	if !mq.Evaluate(map[string]bool{"amzn-kf8": true, "amzn-et": false}) {
		t.Error("expected amzn-kf8 and not amzn-et to match when amzn-et is false")
	}
}

func TestParser_FontFace(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	input := []byte(`
		@font-face {
			font-family: "MyFont";
			src: url("fonts/myfont.woff2");
			font-weight: bold;
			font-style: italic;
		}
	`)
	sheet := p.Parse(input, css.OriginDocument)

	if len(sheet.FontFaces) != 1 {
		t.Fatalf("expected 1 font-face, got %d", len(sheet.FontFaces))
	}
	ff := sheet.FontFaces[0]
	if ff.Family != "MyFont" || ff.Weight != "bold" || ff.Style != "italic" {
		t.Errorf("unexpected font-face: %+v", ff)
	}
}

func TestParser_Import(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	input := []byte(`
		@import "other.css";
		@import url("another.css");
		p { margin: 0; }
	`)
	sheet := p.Parse(input, css.OriginDocument)

	if len(sheet.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(sheet.Imports))
	}
	if sheet.Imports[0] != "other.css" || sheet.Imports[1] != "another.css" {
		t.Errorf("unexpected imports: %v", sheet.Imports)
	}
}

func TestParser_NumericValues(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	tests := []struct {
		css     string
		prop    string
		value   float64
		unit    string
		keyword string
	}{
		{`p { font-size: 1.2em; }`, "font-size", 1.2, "em", ""},
		{`p { font-size: 100%; }`, "font-size", 100, "%", ""},
		{`p { line-height: 1.5; }`, "line-height", 1.5, "", ""},
		{`p { text-align: center; }`, "text-align", 0, "", "center"},
	}

	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			sheet := p.Parse([]byte(tt.css), css.OriginDocument)
			rules := allRules(sheet)
			if len(rules) != 1 {
				t.Fatalf("expected 1 rule, got %d", len(rules))
			}
			val, ok := rules[0].GetProperty(tt.prop)
			if !ok {
				t.Fatalf("expected property %s", tt.prop)
			}
			if tt.keyword != "" {
				if val.Keyword != tt.keyword {
					t.Errorf("expected keyword '%s', got '%s'", tt.keyword, val.Keyword)
				}
				return
			}
			if val.Value != tt.value || val.Unit != tt.unit {
				t.Errorf("expected %v%s, got %v%s", tt.value, tt.unit, val.Value, val.Unit)
			}
		})
	}
}

func TestParser_UnsupportedPseudoClassWarns(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`a:hover { color: red; }`), css.OriginDocument)

	if len(allRules(sheet)) != 0 {
		t.Error("expected pseudo-class selector to be dropped, not rule-producing")
	}
	if len(sheet.Warnings) == 0 {
		t.Error("expected a warning for the unsupported pseudo-class")
	}
}

func TestStylesheet_String_RoundTrip(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	input := []byte(`
		p { text-indent: 1em; margin: 0; }
		.bold { font-weight: bold; }
		@media amzn-kf8 { h1 { color: red; } }
	`)
	sheet1 := p.Parse(input, css.OriginDocument)
	output1 := sheet1.String()

	sheet2 := p.Parse([]byte(output1), css.OriginDocument)

	if len(allRules(sheet1)) != len(allRules(sheet2)) {
		t.Errorf("round-trip rule count mismatch: %d vs %d", len(allRules(sheet1)), len(allRules(sheet2)))
	}
}

func TestStylesheet_RewriteURLs_PropertyValue(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`p { background: url("images/bg.png"); }`), css.OriginDocument)

	sheet.RewriteURLs(func(url string) string {
		if url == "images/bg.png" {
			return "img/background.png"
		}
		return url
	})

	rules := allRules(sheet)
	val, ok := rules[0].GetProperty("background")
	if !ok || !strings.Contains(val.Raw, "img/background.png") {
		t.Errorf("expected rewritten URL in property, got: %+v", val)
	}
}

func TestRulesBySelector(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	input := []byte(`
		p { margin: 0; }
		p { text-indent: 1em; }
		h1 { font-size: 2em; }
	`)
	sheet := p.Parse(input, css.OriginDocument)

	if got := len(sheet.RulesBySelector("p")); got != 2 {
		t.Fatalf("expected 2 rules for 'p', got %d", got)
	}
	if got := len(sheet.RulesBySelector("h1")); got != 1 {
		t.Fatalf("expected 1 rule for 'h1', got %d", got)
	}
	if got := len(sheet.RulesBySelector("h2")); got != 0 {
		t.Fatalf("expected 0 rules for 'h2', got %d", got)
	}
}
