package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/xmlparse"
)

// openHTML loads a single loose HTML file (or an XHTML fragment) as a
// one-chunk document: no spine, no navigation document, TOC built from
// the file's own heading elements (h1-h6) as a supplemented feature,
// since bare HTML carries no EPUB-style table of contents.
func openHTML(htmlPath string, log *zap.Logger) (*Facade, error) {
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", htmlPath, err)
	}
	arena := xmlparse.Parse(decodeToUTF8(data))

	sheet := css.NewParser(log).Parse(nil, css.OriginViewer, "ua")
	cssParser := css.NewParser(log)
	seen := make(map[string]bool)
	collectChunkCSSFromDir(arena, filepath.Dir(htmlPath), cssParser, sheet, seen, log)

	c := &chunk{
		path:       filepath.Base(htmlPath),
		arena:      arena,
		root:       arena.Root(),
		sheet:      sheet,
		mediaFlags: map[string]bool{"screen": true},
		globalBase: 0,
		size:       len(data),
	}

	toc := headingTOC(arena)
	meta := htmlHeadMetadata(arena)

	f := &Facade{
		kind:     KindHTML,
		htmlPath: htmlPath,
		chunks:   []*chunk{c},
		toc:      toc,
		metadata: meta,
		params:   defaultParams(),
		log:      log,
	}
	return f, nil
}

func collectChunkCSSFromDir(arena *domtree.Arena, dir string, p *css.Parser, sheet *css.Stylesheet, seen map[string]bool, log *zap.Logger) {
	for id := range arena.Descendants(arena.Root()) {
		n := arena.Node(id)
		if n.Kind != domtree.KindElement {
			continue
		}
		switch strings.ToLower(n.Tag) {
		case "link":
			rel, _ := n.Attr("rel")
			if !strings.Contains(strings.ToLower(rel), "stylesheet") {
				continue
			}
			href, ok := n.Attr("href")
			if !ok || href == "" {
				continue
			}
			cssPath := filepath.Join(dir, href)
			if seen[cssPath] {
				continue
			}
			seen[cssPath] = true
			data, err := os.ReadFile(cssPath)
			if err != nil {
				log.Warn("unable to read linked stylesheet", zap.String("path", cssPath), zap.Error(err))
				continue
			}
			sheet.Append(p.Parse(data, css.OriginDocument, cssPath), css.OriginDocument, false)
		case "style":
			text := textContent(arena, id)
			if strings.TrimSpace(text) == "" {
				continue
			}
			sheet.Append(p.Parse([]byte(text), css.OriginDocument, "inline-style"), css.OriginDocument, false)
		}
	}
}

// headingTOC builds a flat table of contents from h1-h6 elements, the
// natural substitute for EPUB navigation metadata that a loose HTML
// document doesn't carry.
func headingTOC(arena *domtree.Arena) []TocEntry {
	var entries []TocEntry
	idx := 0
	for id := range arena.Descendants(arena.Root()) {
		n := arena.Node(id)
		if n.Kind != domtree.KindElement {
			continue
		}
		tag := strings.ToLower(n.Tag)
		if len(tag) != 2 || tag[0] != 'h' || tag[1] < '1' || tag[1] > '6' {
			continue
		}
		title := strings.TrimSpace(textContent(arena, id))
		if title == "" {
			continue
		}
		entries = append(entries, TocEntry{
			Title:    title,
			Location: Exact(n.Offset),
			Index:    idx,
		})
		idx++
	}
	return entries
}

// htmlHeadMetadata collects <title> and <meta name=... content=...> tags
// from the document head, the HTML analogue of OPF Dublin Core metadata.
func htmlHeadMetadata(arena *domtree.Arena) map[string][]string {
	meta := make(map[string][]string)
	for id := range arena.Descendants(arena.Root()) {
		n := arena.Node(id)
		if n.Kind != domtree.KindElement {
			continue
		}
		switch strings.ToLower(n.Tag) {
		case "title":
			if t := strings.TrimSpace(textContent(arena, id)); t != "" {
				meta["title"] = append(meta["title"], t)
			}
		case "meta":
			name, ok := n.Attr("name")
			content, okc := n.Attr("content")
			if ok && okc && name != "" && content != "" {
				meta[strings.ToLower(name)] = append(meta[strings.ToLower(name)], content)
			}
		}
	}
	return meta
}
