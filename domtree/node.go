// Package domtree implements the lightweight DOM the layout engine walks.
//
// Nodes live in a single arena per document and are addressed by integer
// index rather than pointer, so that parent/child/sibling links can never
// form an ownership cycle — the arena is the sole owner, nodes are weak
// by-index references into it. This mirrors the "arena of nodes with
// integer indices" redesign called out for cyclic navigation structures.
package domtree

import (
	"fmt"

	"github.com/inkleaf/reflow/utils/debug"
)

// Kind discriminates the variants a Node can hold.
type Kind int

const (
	// KindElement is a tagged element with attributes and children.
	KindElement Kind = iota
	// KindText is a run of non-whitespace-only character data.
	KindText
	// KindWhitespace is a run of whitespace between elements.
	KindWhitespace
	// KindWrapper is a synthetic block introduced by WrapLostInlines.
	KindWrapper
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindWhitespace:
		return "whitespace"
	case KindWrapper:
		return "wrapper"
	default:
		return "unknown"
	}
}

// ID addresses a Node inside its owning Arena. The root allocated by
// NewArena has ID 0; NoNode is used where "no node" must be represented.
type ID int

// NoNode is the sentinel for "no such node" (e.g. a node with no parent).
const NoNode ID = -1

// Attr is one name/value pair in an Element's attribute list. Order is
// preserved as encountered in the source.
type Attr struct {
	Name  string
	Value string
}

// Node is a single entry in an Arena. Exactly the fields relevant to Kind
// are meaningful; this mirrors the Node variants of the specification
// (Element, Text, Whitespace, Wrapper) without resorting to an interface
// hierarchy, which would reintroduce the cyclic-ownership problem the
// arena is built to avoid.
type Node struct {
	Kind   Kind
	Tag    string // qualified name; KindElement and KindWrapper only
	Attrs  []Attr // ordered; KindElement only
	Offset int    // byte offset of the opening token in source
	Text   string // literal content; KindText and KindWhitespace only

	parent   ID
	children []ID
}

// offsetOf returns the byte offset at which this node's opening token began
// in the original source. Every invariant in the specification that
// relates ordering to source position is expressed in terms of this value.
func (n *Node) offsetOf() int { return n.Offset }

// Attr returns the value of the named attribute and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the node's "id" attribute, or "" if absent.
func (n *Node) ID() string {
	v, _ := n.Attr("id")
	return v
}

// Arena owns every Node of one parsed document. Nodes are never freed
// individually; the whole Arena is dropped together when the document is.
type Arena struct {
	nodes []Node
	byID  map[string]ID
	root  ID
}

// NewArena creates an empty arena with a synthetic root Element named
// "#root" that every parse result is attached under.
func NewArena() *Arena {
	a := &Arena{byID: make(map[string]ID)}
	a.root = a.alloc(Node{Kind: KindElement, Tag: "#root", parent: NoNode})
	return a
}

func (a *Arena) alloc(n Node) ID {
	id := ID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

// Root returns the arena's synthetic root node id.
func (a *Arena) Root() ID { return a.root }

// Node returns a pointer to the node's storage. The pointer is valid only
// until the next call that appends to the arena (AppendChild may
// reallocate the backing slice); callers should not retain it across
// mutation calls.
func (a *Arena) Node(id ID) *Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}

// NewElement allocates a detached Element node.
func (a *Arena) NewElement(tag string, attrs []Attr, offset int) ID {
	return a.alloc(Node{Kind: KindElement, Tag: tag, Attrs: attrs, Offset: offset, parent: NoNode})
}

// NewText allocates a detached Text node.
func (a *Arena) NewText(text string, offset int) ID {
	return a.alloc(Node{Kind: KindText, Text: text, Offset: offset, parent: NoNode})
}

// NewWhitespace allocates a detached Whitespace node.
func (a *Arena) NewWhitespace(text string, offset int) ID {
	return a.alloc(Node{Kind: KindWhitespace, Text: text, Offset: offset, parent: NoNode})
}

// NewWrapper allocates a detached synthetic Wrapper node.
func (a *Arena) NewWrapper(offset int) ID {
	return a.alloc(Node{Kind: KindWrapper, Tag: "#wrapper", Offset: offset, parent: NoNode})
}

// AppendChild attaches child as the last child of parent and indexes the
// child's id attribute, if any, for ElementByID lookups.
func (a *Arena) AppendChild(parent, child ID) {
	p := a.Node(parent)
	c := a.Node(child)
	if p == nil || c == nil {
		return
	}
	c.parent = parent
	p.children = append(p.children, child)
	if c.Kind == KindElement {
		if id, ok := c.Attr("id"); ok && id != "" {
			if _, taken := a.byID[id]; !taken {
				a.byID[id] = child
			}
		}
	}
}

// Parent returns id's parent, or NoNode if id is the root or detached.
func (a *Arena) Parent(id ID) ID {
	n := a.Node(id)
	if n == nil {
		return NoNode
	}
	return n.parent
}

// Children returns id's direct children in document order. The returned
// slice is owned by the arena and must not be mutated by the caller.
func (a *Arena) Children(id ID) []ID {
	n := a.Node(id)
	if n == nil {
		return nil
	}
	return n.children
}

// ReplaceChildren atomically replaces id's child list. Used by
// WrapLostInlines to splice synthetic wrappers in.
func (a *Arena) ReplaceChildren(id ID, children []ID) {
	n := a.Node(id)
	if n == nil {
		return
	}
	n.children = children
	for _, c := range children {
		if cn := a.Node(c); cn != nil {
			cn.parent = id
		}
	}
}

// ElementByID resolves a previously indexed "id" attribute to its node.
func (a *Arena) ElementByID(id string) (ID, bool) {
	nid, ok := a.byID[id]
	return nid, ok
}

// Descendants yields id and every node beneath it in document (pre-order)
// order, id itself included first.
func (a *Arena) Descendants(id ID) func(func(ID) bool) {
	return func(yield func(ID) bool) {
		var walk func(ID) bool
		walk = func(cur ID) bool {
			if !yield(cur) {
				return false
			}
			for _, c := range a.Children(cur) {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(id)
	}
}

// String renders a small debugging form: "kind<tag>@offset".
func (a *Arena) String(id ID) string {
	n := a.Node(id)
	if n == nil {
		return "<nil>"
	}
	if n.Kind == KindElement || n.Kind == KindWrapper {
		return fmt.Sprintf("%s<%s>@%d", n.Kind, n.Tag, n.Offset)
	}
	return fmt.Sprintf("%s@%d", n.Kind, n.Offset)
}

// DumpTree renders the subtree rooted at id as an indented tree, one line
// per node, for use in failing test output and ad-hoc debugging.
func (a *Arena) DumpTree(id ID) string {
	tw := debug.NewTreeWriter()
	a.dumpTree(tw, id, 0)
	return tw.String()
}

func (a *Arena) dumpTree(tw *debug.TreeWriter, id ID, depth int) {
	n := a.Node(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText:
		tw.TextBlock(depth, fmt.Sprintf("text@%d", n.Offset), n.Text)
	case KindElement, KindWrapper:
		tw.Line(depth, "%s<%s>@%d", n.Kind, n.Tag, n.Offset)
	default:
		tw.Line(depth, "%s@%d", n.Kind, n.Offset)
	}
	for _, child := range a.Children(id) {
		a.dumpTree(tw, child, depth+1)
	}
}
