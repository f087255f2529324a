package style

import (
	"strings"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/domtree"
)

func nodeClasses(n *domtree.Node) []string {
	v, ok := n.Attr("class")
	if !ok || v == "" {
		return nil
	}
	return strings.Fields(v)
}

func hasClass(n *domtree.Node, class string) bool {
	for _, c := range nodeClasses(n) {
		if c == class {
			return true
		}
	}
	return false
}

// matchesSimple reports whether one compound selector term matches node.
func matchesSimple(sel css.SimpleSelector, n *domtree.Node) bool {
	if n.Kind != domtree.KindElement && n.Kind != domtree.KindWrapper {
		return false
	}
	if !sel.Universal && sel.Tag != "" && !strings.EqualFold(sel.Tag, n.Tag) {
		return false
	}
	for _, id := range sel.IDs {
		if n.ID() != id {
			return false
		}
	}
	for _, class := range sel.Classes {
		if !hasClass(n, class) {
			return false
		}
	}
	for _, attr := range sel.Attrs {
		v, ok := n.Attr(attr.Name)
		if !ok {
			return false
		}
		switch attr.Op {
		case css.AttrPresent:
			// presence alone suffices
		case css.AttrEquals:
			if v != attr.Value {
				return false
			}
		case css.AttrIncludes:
			if !containsToken(v, attr.Value) {
				return false
			}
		}
	}
	return true
}

func containsToken(value, token string) bool {
	for _, f := range strings.Fields(value) {
		if f == token {
			return true
		}
	}
	return false
}

// prevSibling returns the element immediately preceding id among its
// parent's children (text and whitespace siblings are passed over), or
// domtree.NoNode if no element precedes id or id is the root.
func prevSibling(a *domtree.Arena, id domtree.ID) domtree.ID {
	parent := a.Parent(id)
	if parent == domtree.NoNode {
		return domtree.NoNode
	}
	siblings := a.Children(parent)
	for i, c := range siblings {
		if c != id {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if sn := a.Node(siblings[j]); sn != nil && (sn.Kind == domtree.KindElement || sn.Kind == domtree.KindWrapper) {
				return siblings[j]
			}
		}
		break
	}
	return domtree.NoNode
}

// Matches reports whether sel matches node, walking the combinator chain
// against node's ancestors/preceding siblings from the subject outward.
func Matches(a *domtree.Arena, sel css.Selector, node domtree.ID) bool {
	if !sel.IsSimple() {
		return false
	}
	n := a.Node(node)
	if n == nil {
		return false
	}
	compounds := sel.Compounds
	combs := sel.Combinators

	if !matchesSimple(compounds[len(compounds)-1], n) {
		return false
	}

	cur := node
	for i := len(compounds) - 2; i >= 0; i-- {
		comb := combs[i]
		switch comb {
		case css.CombChild:
			cur = a.Parent(cur)
			if cur == domtree.NoNode {
				return false
			}
			cn := a.Node(cur)
			if cn == nil || !matchesSimple(compounds[i], cn) {
				return false
			}
		case css.CombAdjacent:
			cur = prevSibling(a, cur)
			if cur == domtree.NoNode {
				return false
			}
			cn := a.Node(cur)
			if cn == nil || !matchesSimple(compounds[i], cn) {
				return false
			}
		default: // css.CombDescendant
			found := false
			for anc := a.Parent(cur); anc != domtree.NoNode; anc = a.Parent(anc) {
				an := a.Node(anc)
				if an != nil && matchesSimple(compounds[i], an) {
					cur = anc
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
