package xmlparse

import (
	"testing"

	"github.com/inkleaf/reflow/domtree"
)

func TestParseSimpleDocument(t *testing.T) {
	src := []byte(`<html><body><p>Hello world.</p></body></html>`)
	arena := Parse(src)

	root := arena.Root()
	html := firstElement(arena, root, "html")
	if html == domtree.NoNode {
		t.Fatalf("no <html> found")
	}
	body := firstElement(arena, html, "body")
	if body == domtree.NoNode {
		t.Fatalf("no <body> found")
	}
	p := firstElement(arena, body, "p")
	if p == domtree.NoNode {
		t.Fatalf("no <p> found")
	}
	children := arena.Children(p)
	if len(children) != 1 || arena.Node(children[0]).Kind != domtree.KindText {
		t.Fatalf("expected single text child, got %v", children)
	}
	if got := arena.Node(children[0]).Text; got != "Hello world." {
		t.Fatalf("text = %q; want %q", got, "Hello world.")
	}
}

func TestParseOffsetsMonotonic(t *testing.T) {
	src := []byte(`<div><p>one</p><p>two</p></div>`)
	arena := Parse(src)
	div := firstElement(arena, arena.Root(), "div")
	for _, c := range arena.Children(div) {
		if arena.Node(c).Offset <= arena.Node(div).Offset {
			t.Fatalf("child offset %d not > parent offset %d", arena.Node(c).Offset, arena.Node(div).Offset)
		}
	}
}

func TestParseMismatchedCloseTagRecovers(t *testing.T) {
	// </div> closes <p> too, discarding the unmatched intermediate per policy.
	src := []byte(`<div><p>text</div>tail`)
	arena := Parse(src)
	div := firstElement(arena, arena.Root(), "div")
	if div == domtree.NoNode {
		t.Fatalf("no <div> found")
	}
	// "tail" must have landed back under div's parent (root), not inside <p>.
	root := arena.Root()
	found := false
	for _, c := range arena.Children(root) {
		if n := arena.Node(c); n.Kind == domtree.KindText && n.Text == "tail" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected recovered text node 'tail' under root")
	}
}

func TestParseSelfClosingAndVoid(t *testing.T) {
	src := []byte(`<p>a<br>b<img src="x.png"/>c</p>`)
	arena := Parse(src)
	p := firstElement(arena, arena.Root(), "p")
	children := arena.Children(p)
	if len(children) != 5 {
		t.Fatalf("children = %d; want 5 (a, br, b, img, c)", len(children))
	}
}

func TestParseEntities(t *testing.T) {
	src := []byte(`<p>Tom &amp; Jerry &#169; &unknown; &mdash;</p>`)
	arena := Parse(src)
	p := firstElement(arena, arena.Root(), "p")
	txt := arena.Node(arena.Children(p)[0]).Text
	want := "Tom & Jerry © &unknown; —"
	if txt != want {
		t.Fatalf("text = %q; want %q", txt, want)
	}
}

func TestParseComment(t *testing.T) {
	src := []byte(`<p>before<!-- a comment with <tags> inside -->after</p>`)
	arena := Parse(src)
	p := firstElement(arena, arena.Root(), "p")
	children := arena.Children(p)
	if len(children) != 2 {
		t.Fatalf("children = %d; want 2 (before, after)", len(children))
	}
	if arena.Node(children[0]).Text != "before" || arena.Node(children[1]).Text != "after" {
		t.Fatalf("unexpected text content: %q %q", arena.Node(children[0]).Text, arena.Node(children[1]).Text)
	}
}

func TestParseCDATA(t *testing.T) {
	src := []byte(`<script><![CDATA[if (a < b) {}]]></script>`)
	arena := Parse(src)
	el := firstElement(arena, arena.Root(), "script")
	children := arena.Children(el)
	if len(children) != 1 || arena.Node(children[0]).Text != "if (a < b) {}" {
		t.Fatalf("CDATA not preserved: %v", children)
	}
}

func TestParseWhitespaceVsText(t *testing.T) {
	src := []byte(`<div><p>a</p>   <p>b</p></div>`)
	arena := Parse(src)
	div := firstElement(arena, arena.Root(), "div")
	children := arena.Children(div)
	if len(children) != 3 {
		t.Fatalf("children = %d; want 3 (p, whitespace, p)", len(children))
	}
	if arena.Node(children[1]).Kind != domtree.KindWhitespace {
		t.Fatalf("middle child kind = %v; want KindWhitespace", arena.Node(children[1]).Kind)
	}
}

func firstElement(a *domtree.Arena, from domtree.ID, tag string) domtree.ID {
	for id := range a.Descendants(from) {
		n := a.Node(id)
		if n.Kind == domtree.KindElement && n.Tag == tag {
			return id
		}
	}
	return domtree.NoNode
}
