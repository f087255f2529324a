package domtree

// IsInline classifies a tag as inline-level for the purposes of
// WrapLostInlines. Callers supply their own classifier (derived from the
// cascade's computed `display` value in the real pipeline); this package
// only implements the splicing mechanics.
type IsInline func(tag string, kind Kind) bool

// WrapLostInlines walks the tree rooted at id and, for every element whose
// children mix block-level and inline-level content, groups consecutive
// runs of inline-level children (Text, Whitespace, and elements for which
// inline reports true) into a synthetic Wrapper node. This keeps the
// layout engine's invariant that a block-only container never has to
// special-case bare inline runs among its children.
//
// The pass is post-order: children are normalized before their parent is
// inspected, so nested mixed content is wrapped from the inside out.
func WrapLostInlines(a *Arena, id ID, inline IsInline) {
	for _, c := range a.Children(id) {
		if a.Node(c).Kind == KindElement || a.Node(c).Kind == KindWrapper {
			WrapLostInlines(a, c, inline)
		}
	}

	children := a.Children(id)
	if len(children) == 0 {
		return
	}

	hasBlock := false
	hasInline := false
	for _, c := range children {
		if isInlineChild(a, c, inline) {
			hasInline = true
		} else {
			hasBlock = true
		}
	}
	if !hasInline || !hasBlock {
		// Either purely inline (leave to the paragraph placer) or purely
		// block (nothing to wrap).
		return
	}

	var rebuilt []ID
	var run []ID
	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) == 1 && a.Node(run[0]).Kind == KindWhitespace {
			// A lone whitespace run between blocks carries no content;
			// drop it rather than emit an empty wrapper.
			run = nil
			return
		}
		w := a.NewWrapper(a.Node(run[0]).Offset)
		a.ReplaceChildren(w, run)
		rebuilt = append(rebuilt, w)
		run = nil
	}
	for _, c := range children {
		if isInlineChild(a, c, inline) {
			run = append(run, c)
		} else {
			flush()
			rebuilt = append(rebuilt, c)
		}
	}
	flush()

	a.ReplaceChildren(id, rebuilt)
}

func isInlineChild(a *Arena, id ID, inline IsInline) bool {
	n := a.Node(id)
	switch n.Kind {
	case KindText, KindWhitespace:
		return true
	case KindElement:
		return inline(n.Tag, n.Kind)
	default:
		return false
	}
}
