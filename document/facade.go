package document

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/inkleaf/reflow/cssvalue"
	"github.com/inkleaf/reflow/hyphen"
	"github.com/inkleaf/reflow/layout"
	"github.com/inkleaf/reflow/render"
)

func defaultParams() layout.Params { return layout.DefaultParams() }

// Facade is the document-level façade over an EPUB or loose HTML input,
// per spec §4.5: a closed tagged variant dispatching on kind, owning the
// spine's chunks, the page cache each holds, the resolved TOC, metadata,
// and the layout parameters that (re)build the cache on change.
type Facade struct {
	mu sync.Mutex

	kind        Kind
	archivePath string // EPUB only
	htmlPath    string // HTML only

	chunks   []*chunk
	toc      []TocEntry
	metadata map[string][]string

	params     layout.Params
	hyphenator *hyphen.Hyphenator
	charWidth  layout.CharWidthFunc
	log        *zap.Logger

	currentChunk int
}

// Open inspects the extension of path and dispatches to the EPUB or HTML
// backend, per the Kind REDESIGN FLAG's closed-dispatcher preference.
func Open(docPath string, log *zap.Logger) (*Facade, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".epub":
		return openEPUB(docPath, log)
	default:
		return openHTML(docPath, log)
	}
}

// SetHyphenator installs the hyphenation collaborator, invalidating the
// page cache since hyphenation opportunities change line breaks.
func (f *Facade) SetHyphenator(h *hyphen.Hyphenator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hyphenator = h
	f.invalidateLocked()
}

// SetCharWidth installs the line-breaking width estimator collaborator.
func (f *Facade) SetCharWidth(cw layout.CharWidthFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charWidth = cw
	f.invalidateLocked()
}

func (f *Facade) invalidateLocked() {
	for _, c := range f.chunks {
		c.invalidate()
	}
}

// --- Layout parameter setters (spec §6), each clears the page cache ---

func (f *Facade) SetPageSize(widthPx, heightPx float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.WidthPx, f.params.HeightPx = widthPx, heightPx
	f.invalidateLocked()
}

func (f *Facade) SetFontSize(px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.FontSizePx = px
	f.invalidateLocked()
}

func (f *Facade) SetMargin(px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.MarginPx = px
	f.invalidateLocked()
}

func (f *Facade) SetDPI(dpi float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.DPI = dpi
	f.invalidateLocked()
}

func (f *Facade) SetLineHeight(em float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.LineHeightEm = em
	f.invalidateLocked()
}

func (f *Facade) SetTextAlign(a cssvalue.TextAlign) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.TextAlign = a
	f.invalidateLocked()
}

func (f *Facade) SetFontFamily(family string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.FontFamily = family
	f.invalidateLocked()
}

func (f *Facade) SetHyphenPenalty(p int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.HyphenPenalty = p
	f.invalidateLocked()
}

func (f *Facade) SetStretchTolerance(t float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.StretchTolerance = t
	f.invalidateLocked()
}

func (f *Facade) SetIgnoreDocumentCSS(ignore bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.IgnoreDocumentCSS = ignore
	f.invalidateLocked()
}

func (f *Facade) Params() layout.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params
}

// Kind reports whether this façade wraps an EPUB or loose HTML input.
func (f *Facade) Kind() Kind { return f.kind }

// --- Size / offset accounting ---

func (f *Facade) totalSize() int {
	if len(f.chunks) == 0 {
		return 0
	}
	last := f.chunks[len(f.chunks)-1]
	return last.globalBase + last.size
}

func (f *Facade) ensureChunkCached(c *chunk) error {
	return c.ensureCached(f.params, f.hyphenator, f.charWidth, f.log)
}

// PagesCount returns the total number of pages across every chunk under
// the current layout parameters, building the page cache as needed.
func (f *Facade) PagesCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, c := range f.chunks {
		if err := f.ensureChunkCached(c); err != nil {
			return 0, err
		}
		total += len(c.pages)
	}
	return total, nil
}

// globalPageIndex returns the index into the flattened page sequence
// (across all chunks, in spine order) of the page containing offset.
func (f *Facade) globalPageIndex(offset int) (int, error) {
	pageIdx := 0
	for _, c := range f.chunks {
		if err := f.ensureChunkCached(c); err != nil {
			return 0, err
		}
		if offset < c.globalBase+c.size || c == f.chunks[len(f.chunks)-1] {
			local, ok := c.pageForOffset(offset - c.globalBase)
			if !ok {
				return pageIdx, nil
			}
			return pageIdx + local, nil
		}
		pageIdx += len(c.pages)
	}
	return pageIdx, nil
}

// TOC returns the resolved table of contents.
func (f *Facade) TOC() []TocEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toc
}

// Chapter returns the deepest TOC entry whose location is at or before
// offset, per spec's "resolve an offset to its containing chapter".
func (f *Facade) Chapter(offset int) (TocEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best TocEntry
	found := false
	var walk func([]TocEntry)
	walk = func(entries []TocEntry) {
		for _, e := range entries {
			if e.Location.Kind == LocExact && e.Location.Offset <= offset {
				if !found || e.Location.Offset >= best.Location.Offset {
					best, found = e, true
				}
			}
			walk(e.Children)
		}
	}
	walk(f.toc)
	return best, found
}

// ResolveLocation implements spec §4.5's resolve_location: Exact/Previous/
// Next pass an offset through (Previous/Next clamp to the previous/next
// page boundary so repeated calls are idempotent at the ends), Uri looks
// up "chunkPath#fragment" against the spine, LocalUri resolves "#fragment"
// against the chunk currently in context.
func (f *Facade) ResolveLocation(loc Location) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch loc.Kind {
	case LocExact:
		if loc.Offset < 0 || loc.Offset > f.totalSize() {
			return 0, ErrNoSuchLocation
		}
		f.currentChunk, _, _ = indexOf(f.chunks, loc.Offset)
		return loc.Offset, nil

	case LocPrevious:
		pageIdx, err := f.globalPageIndex(loc.Offset)
		if err != nil {
			return 0, err
		}
		if pageIdx == 0 {
			return 0, nil
		}
		off, err := f.offsetOfGlobalPage(pageIdx - 1)
		if err != nil {
			return 0, err
		}
		return off, nil

	case LocNext:
		pageIdx, err := f.globalPageIndex(loc.Offset)
		if err != nil {
			return 0, err
		}
		off, err := f.offsetOfGlobalPage(pageIdx + 1)
		if err == errPastEnd {
			return f.totalSize(), nil
		}
		if err != nil {
			return 0, err
		}
		return off, nil

	case LocUri:
		return f.resolveURILocked(loc.URI)

	case LocLocalUri:
		if f.currentChunk < 0 || f.currentChunk >= len(f.chunks) {
			return 0, ErrNoSuchLocation
		}
		c := f.chunks[f.currentChunk]
		frag := strings.TrimPrefix(loc.URI, "#")
		id, ok := c.arena.ElementByID(frag)
		if !ok {
			return 0, ErrNoSuchLocation
		}
		return c.globalBase + c.arena.Node(id).Offset, nil
	}
	return 0, ErrNoSuchLocation
}

var errPastEnd = fmt.Errorf("document: past end of document")

func (f *Facade) resolveURILocked(uri string) (int, error) {
	filePart, fragment, _ := strings.Cut(uri, "#")
	for i, c := range f.chunks {
		if c.path != filePart && path.Base(c.path) != filePart {
			continue
		}
		f.currentChunk = i
		if fragment == "" {
			return c.globalBase, nil
		}
		id, ok := c.arena.ElementByID(fragment)
		if !ok {
			return 0, ErrNoSuchLocation
		}
		return c.globalBase + c.arena.Node(id).Offset, nil
	}
	return 0, ErrNoSuchLocation
}

func indexOf(chunks []*chunk, offset int) (int, *chunk, int) {
	idx := sort.Search(len(chunks), func(i int) bool {
		return chunks[i].globalBase > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(chunks) {
		idx = len(chunks) - 1
	}
	return idx, chunks[idx], offset - chunks[idx].globalBase
}

// offsetOfGlobalPage returns the first offset of the page at the given
// index into the flattened (cross-chunk) page sequence.
func (f *Facade) offsetOfGlobalPage(pageIdx int) (int, error) {
	if pageIdx < 0 {
		return 0, errPastEnd
	}
	base := 0
	for _, c := range f.chunks {
		if err := f.ensureChunkCached(c); err != nil {
			return 0, err
		}
		if pageIdx < base+len(c.pages) {
			return c.pages[pageIdx-base].FirstOffset() + c.globalBase, nil
		}
		base += len(c.pages)
	}
	return 0, errPastEnd
}

// pageCommandsAt returns the DrawCommands of the page containing offset,
// and that page's chunk (for image-path resolution).
func (f *Facade) pageCommandsAt(offset int) ([]layout.DrawCommand, *chunk, error) {
	c, local, _ := indexOf(f.chunks, offset)
	if err := f.ensureChunkCached(c); err != nil {
		return nil, nil, err
	}
	idx, ok := c.pageForOffset(local)
	if !ok || idx >= len(c.pages) {
		return nil, c, nil
	}
	return c.pages[idx].Commands, c, nil
}

// Words returns every Text/ExtraText DrawCommand on the page at offset.
func (f *Facade) Words(loc Location) ([]BoundedText, error) {
	offset, err := f.ResolveLocation(loc)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds, c, err := f.pageCommandsAt(offset)
	if err != nil {
		return nil, err
	}
	var out []BoundedText
	for _, cmd := range cmds {
		if cmd.Kind == layout.DrawText || cmd.Kind == layout.DrawExtraText {
			out = append(out, BoundedText{Offset: cmd.Offset + c.globalBase, Text: cmd.Text, Rect: cmd.Rect})
		}
	}
	return out, nil
}

// Links returns every DrawCommand carrying a non-empty link target URI
// on the page at offset.
func (f *Facade) Links(loc Location) ([]LinkInfo, error) {
	offset, err := f.ResolveLocation(loc)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds, c, err := f.pageCommandsAt(offset)
	if err != nil {
		return nil, err
	}
	var out []LinkInfo
	for _, cmd := range cmds {
		if cmd.URI != "" {
			out = append(out, LinkInfo{Offset: cmd.Offset + c.globalBase, URI: cmd.URI, Rect: cmd.Rect})
		}
	}
	return out, nil
}

// Images returns every DrawImage command on the page at offset.
func (f *Facade) Images(loc Location) ([]ImageInfo, error) {
	offset, err := f.ResolveLocation(loc)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds, c, err := f.pageCommandsAt(offset)
	if err != nil {
		return nil, err
	}
	var out []ImageInfo
	for _, cmd := range cmds {
		if cmd.Kind == layout.DrawImage {
			out = append(out, ImageInfo{Offset: cmd.Offset + c.globalBase, Path: cmd.Path, Rect: cmd.Rect})
		}
	}
	return out, nil
}

// Metadata returns the values collected for a Dublin Core / calibre
// metadata key (e.g. "title", "creator", "subject", "date").
func (f *Facade) Metadata(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadata[strings.ToLower(key)]
}

// Pixmap renders the page at loc into an 8-bit grayscale raster, per
// spec §4.5's pixmap(location, scale), wiring the render package's
// DrawCommand walker and the façade's own embedded-resource decoder.
func (f *Facade) Pixmap(loc Location, scale float64, shaper render.Shaper) ([]byte, int, int, error) {
	offset, err := f.ResolveLocation(loc)
	if err != nil {
		return nil, 0, 0, err
	}
	f.mu.Lock()
	c, local, _ := indexOf(f.chunks, offset)
	if err := f.ensureChunkCached(c); err != nil {
		f.mu.Unlock()
		return nil, 0, 0, err
	}
	idx, ok := c.pageForOffset(local)
	if !ok {
		f.mu.Unlock()
		return nil, 0, 0, ErrNoSuchLocation
	}
	page := c.pages[idx]
	params := f.params
	kind := f.kind
	archivePath := f.archivePath
	htmlPath := f.htmlPath
	chunkPath := c.path
	log := f.log
	f.mu.Unlock()

	decoder := &chunkImageDecoder{kind: kind, archivePath: archivePath, htmlDir: filepath.Dir(htmlPath), chunkDir: path.Dir(chunkPath)}
	img := render.Pixmap(page, params.WidthPx, params.HeightPx, scale, shaper, decoder, log)
	return img.Pix, img.Bounds().Dx(), img.Bounds().Dy(), nil
}

// chunkImageDecoder resolves an embedded image's source-relative path
// against the archive (EPUB) or filesystem directory (HTML) the
// currently rendering chunk lives in.
type chunkImageDecoder struct {
	kind        Kind
	archivePath string
	htmlDir     string
	chunkDir    string
}

func (d *chunkImageDecoder) ReadImage(p string) ([]byte, error) {
	if d.kind == KindEPUB {
		return readZipEntry(d.archivePath, path.Join(d.chunkDir, p))
	}
	return os.ReadFile(filepath.Join(d.htmlDir, filepath.FromSlash(p)))
}
