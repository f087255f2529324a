package document

import (
	"go.uber.org/zap"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/hyphen"
	"github.com/inkleaf/reflow/layout"
)

// chunkState is the Uncached/Building/Cached page-cache state machine
// from spec §4.4.5. layout.Builder.Build performs the Uncached->Building
// computation; the chunk retains its result as Cached until a layout
// parameter setter invalidates it back to Uncached.
type chunkState int

const (
	stateUncached chunkState = iota
	stateBuilding
	stateCached
)

// chunk is one spine entry (EPUB) or the single document (HTML): its
// parsed DOM, resolved stylesheet, global offset base, and lazily
// computed page cache.
type chunk struct {
	path       string
	arena      *domtree.Arena
	root       domtree.ID
	sheet      *css.Stylesheet
	mediaFlags map[string]bool
	globalBase int
	size       int

	state chunkState
	pages []layout.Page
}

// invalidate drops the page cache, forcing the next ensureCached to
// relayout under the document's current Params.
func (c *chunk) invalidate() {
	c.state = stateUncached
	c.pages = nil
}

// ensureCached runs layout.Builder.Build if the cache is cold and
// retains the result, transitioning Uncached -> Building -> Cached.
func (c *chunk) ensureCached(params layout.Params, h *hyphen.Hyphenator, charWidth layout.CharWidthFunc, log *zap.Logger) error {
	if c.state == stateCached {
		return nil
	}
	c.state = stateBuilding
	b := &layout.Builder{
		Arena:      c.arena,
		Sheet:      c.sheet,
		MediaFlags: c.mediaFlags,
		Params:     params,
		Hyphenator: h,
		CharWidth:  charWidth,
		Log:        log,
	}
	pages, err := b.Build(c.root)
	c.pages = pages
	c.state = stateCached
	return err
}

// pageForOffset returns the index into c.pages containing the given
// chunk-local offset, per the page's FirstOffset ordering. The bool is
// false only when the chunk has no pages; an offset beyond the last page's
// start maps to the last page.
func (c *chunk) pageForOffset(offset int) (int, bool) {
	if len(c.pages) == 0 {
		return 0, false
	}
	idx := 0
	for i, p := range c.pages {
		if p.FirstOffset() > offset {
			break
		}
		idx = i
	}
	return idx, true
}
