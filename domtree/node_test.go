package domtree

import "testing"

func TestArenaAppendAndID(t *testing.T) {
	a := NewArena()
	root := a.Root()

	p := a.NewElement("p", []Attr{{Name: "id", Value: "x"}}, 10)
	a.AppendChild(root, p)

	txt := a.NewText("hello", 12)
	a.AppendChild(p, txt)

	if got, ok := a.ElementByID("x"); !ok || got != p {
		t.Fatalf("ElementByID(x) = %v, %v; want %v, true", got, ok, p)
	}
	if a.Parent(txt) != p {
		t.Fatalf("Parent(txt) = %v; want %v", a.Parent(txt), p)
	}
	children := a.Children(p)
	if len(children) != 1 || children[0] != txt {
		t.Fatalf("Children(p) = %v; want [%v]", children, txt)
	}
}

func TestArenaOffsetOrdering(t *testing.T) {
	a := NewArena()
	root := a.Root()
	parent := a.NewElement("div", nil, 0)
	a.AppendChild(root, parent)

	child := a.NewElement("p", nil, 5)
	a.AppendChild(parent, child)

	if a.Node(parent).Offset >= a.Node(child).Offset {
		t.Fatalf("parent offset %d must be < child offset %d", a.Node(parent).Offset, a.Node(child).Offset)
	}
}

func TestDescendantsPreOrder(t *testing.T) {
	a := NewArena()
	root := a.Root()
	div := a.NewElement("div", nil, 0)
	a.AppendChild(root, div)
	p1 := a.NewElement("p", nil, 1)
	a.AppendChild(div, p1)
	p2 := a.NewElement("p", nil, 2)
	a.AppendChild(div, p2)

	var order []ID
	for id := range a.Descendants(root) {
		order = append(order, id)
	}
	want := []ID{root, div, p1, p2}
	if len(order) != len(want) {
		t.Fatalf("Descendants order = %v; want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Descendants[%d] = %v; want %v", i, order[i], want[i])
		}
	}
}

func TestWrapLostInlines(t *testing.T) {
	a := NewArena()
	root := a.Root()
	body := a.NewElement("body", nil, 0)
	a.AppendChild(root, body)

	text := a.NewText("loose text", 1)
	em := a.NewElement("em", nil, 12)
	a.AppendChild(em, a.NewText("emphasis", 13))
	p := a.NewElement("p", nil, 30)

	a.AppendChild(body, text)
	a.AppendChild(body, em)
	a.AppendChild(body, p)

	inline := func(tag string, _ Kind) bool { return tag == "em" }
	WrapLostInlines(a, root, inline)

	children := a.Children(body)
	if len(children) != 2 {
		t.Fatalf("body children = %d; want 2 (wrapper, p)", len(children))
	}
	wrapper := a.Node(children[0])
	if wrapper.Kind != KindWrapper {
		t.Fatalf("children[0].Kind = %v; want KindWrapper", wrapper.Kind)
	}
	wrapped := a.Children(children[0])
	if len(wrapped) != 2 || wrapped[0] != text || wrapped[1] != em {
		t.Fatalf("wrapper children = %v; want [%v %v]", wrapped, text, em)
	}
	if children[1] != p {
		t.Fatalf("children[1] = %v; want %v (p untouched)", children[1], p)
	}
}

func TestWrapLostInlinesDropsLoneWhitespaceRun(t *testing.T) {
	a := NewArena()
	root := a.Root()
	body := a.NewElement("body", nil, 0)
	a.AppendChild(root, body)

	p1 := a.NewElement("p", nil, 0)
	ws := a.NewWhitespace(" ", 3)
	p2 := a.NewElement("p", nil, 4)
	a.AppendChild(body, p1)
	a.AppendChild(body, ws)
	a.AppendChild(body, p2)

	WrapLostInlines(a, root, func(string, Kind) bool { return false })

	children := a.Children(body)
	if len(children) != 2 || children[0] != p1 || children[1] != p2 {
		t.Fatalf("children = %v; want [%v %v] (whitespace-only run dropped)", children, p1, p2)
	}
}
