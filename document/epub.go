package document

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/inkleaf/reflow/archive"
	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/xmlparse"
)

type manifestItem struct {
	href, mediaType, properties string
}

// openEPUB reads an EPUB container's OPF manifest and spine, parses each
// spine item's markup into a chunk, resolves the table of contents
// (NCX for epub2, nav document for epub3) against the now-known chunk
// byte sizes, and collects Dublin Core / calibre metadata. Grounded on
// archive/walker.go's Zip-Slip-safe container reading and
// convert/epub/epub.go's OEBPS layout conventions, reimplemented as a
// reader rather than a writer.
func openEPUB(archivePath string, log *zap.Logger) (*Facade, error) {
	containerXML, err := readZipEntry(archivePath, "META-INF/container.xml")
	if err != nil {
		return nil, fmt.Errorf("document: read container.xml: %w", err)
	}
	container := etree.NewDocument()
	if err := container.ReadFromBytes(containerXML); err != nil {
		return nil, fmt.Errorf("document: parse container.xml: %w", err)
	}
	rootfile := container.FindElement("//rootfiles/rootfile")
	if rootfile == nil {
		return nil, fmt.Errorf("document: container.xml has no rootfile")
	}
	opfPath := rootfile.SelectAttrValue("full-path", "")
	if opfPath == "" {
		return nil, fmt.Errorf("document: rootfile missing full-path")
	}
	opfDir := path.Dir(opfPath)

	opfData, err := readZipEntry(archivePath, opfPath)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", opfPath, err)
	}
	opf := etree.NewDocument()
	if err := opf.ReadFromBytes(opfData); err != nil {
		return nil, fmt.Errorf("document: parse %s: %w", opfPath, err)
	}
	pkg := opf.Root()
	if pkg == nil {
		return nil, fmt.Errorf("document: %s has no root element", opfPath)
	}

	manifest := make(map[string]manifestItem)
	for _, item := range opf.FindElements("//manifest/item") {
		id := item.SelectAttrValue("id", "")
		manifest[id] = manifestItem{
			href:       item.SelectAttrValue("href", ""),
			mediaType:  item.SelectAttrValue("media-type", ""),
			properties: item.SelectAttrValue("properties", ""),
		}
	}

	sheet := css.NewParser(log).Parse(nil, css.OriginViewer, "ua")
	cssParser := css.NewParser(log)
	seenCSS := make(map[string]bool)

	var chunks []*chunk
	base := 0
	for _, itemref := range opf.FindElements("//spine/itemref") {
		idref := itemref.SelectAttrValue("idref", "")
		mi, ok := manifest[idref]
		if !ok {
			continue
		}
		chunkPath := path.Join(opfDir, mi.href)
		data, err := readZipEntry(archivePath, chunkPath)
		if err != nil {
			log.Warn("skipping unreadable spine item", zap.String("path", chunkPath), zap.Error(err))
			continue
		}
		arena := xmlparse.Parse(decodeToUTF8(data))
		collectChunkCSS(arena, archivePath, chunkPath, cssParser, sheet, seenCSS, log)
		c := &chunk{
			path:       chunkPath,
			arena:      arena,
			root:       arena.Root(),
			sheet:      sheet,
			mediaFlags: map[string]bool{"screen": true},
			globalBase: base,
			size:       len(data),
		}
		chunks = append(chunks, c)
		base += c.size
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document: %s: spine produced no readable chunks", opfPath)
	}

	toc := resolveTOC(archivePath, opf, opfDir, manifest, chunks, log)
	meta := parseOPFMetadata(pkg)

	f := &Facade{
		kind:        KindEPUB,
		archivePath: archivePath,
		chunks:      chunks,
		toc:         toc,
		metadata:    meta,
		params:      defaultParams(),
		log:         log,
	}
	return f, nil
}

// readZipEntry returns the bytes of a single exact zip entry, using
// archive.Walk for its Zip-Slip path validation.
func readZipEntry(archivePath, name string) ([]byte, error) {
	var data []byte
	found := false
	err := archive.Walk(archivePath, name, func(_ string, f *zip.File) error {
		if f.Name != name || found {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		data = b
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("zip entry %q not found in %s", name, archivePath)
	}
	return data, nil
}

// collectChunkCSS walks one chunk's DOM for <link rel="stylesheet"> and
// inline <style> elements, parsing each into sheet at Document origin.
// External stylesheets are deduplicated by path so a stylesheet shared
// across every chapter (the common EPUB layout) is parsed once.
func collectChunkCSS(arena *domtree.Arena, archivePath, chunkPath string, p *css.Parser, sheet *css.Stylesheet, seen map[string]bool, log *zap.Logger) {
	chunkDir := path.Dir(chunkPath)
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
			cssPath := path.Join(chunkDir, href)
			if seen[cssPath] {
				continue
			}
			seen[cssPath] = true
			data, err := readZipEntry(archivePath, cssPath)
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
			sheet.Append(p.Parse([]byte(text), css.OriginDocument, chunkPath+"#style"), css.OriginDocument, false)
		}
	}
}

// textContent concatenates the literal text of a node's KindText and
// KindWhitespace descendants, for extracting an inline <style> body.
func textContent(arena *domtree.Arena, id domtree.ID) string {
	var buf strings.Builder
	for child := range arena.Descendants(id) {
		n := arena.Node(child)
		if n.Kind == domtree.KindText || n.Kind == domtree.KindWhitespace {
			buf.WriteString(n.Text)
		}
	}
	return buf.String()
}

// resolveTOC locates and parses the navigation document: the epub3 nav
// item (properties contains "nav") if present, else the epub2 NCX
// (spine's toc attribute). TOC hrefs are resolved against the
// already-sized chunks into absolute offsets at load time, so
// ResolveLocation never needs to reparse navigation markup.
func resolveTOC(archivePath string, opf *etree.Document, opfDir string, manifest map[string]manifestItem, chunks []*chunk, log *zap.Logger) []TocEntry {
	for _, mi := range manifest {
		if strings.Contains(mi.properties, "nav") {
			navPath := path.Join(opfDir, mi.href)
			data, err := readZipEntry(archivePath, navPath)
			if err != nil {
				log.Warn("unable to read nav document", zap.Error(err))
				break
			}
			nav := etree.NewDocument()
			if err := nav.ReadFromBytes(data); err != nil {
				log.Warn("unable to parse nav document", zap.Error(err))
				break
			}
			tocNav := findTocNav(nav.Root())
			if tocNav == nil {
				break
			}
			idx := 0
			entries := parseNavList(tocNav.FindElement("ol"), path.Dir(navPath), chunks, &idx)
			return entries
		}
	}

	spine := opf.FindElement("//spine")
	if spine == nil {
		return nil
	}
	ncxID := spine.SelectAttrValue("toc", "")
	mi, ok := manifest[ncxID]
	if !ok {
		return nil
	}
	ncxPath := path.Join(opfDir, mi.href)
	data, err := readZipEntry(archivePath, ncxPath)
	if err != nil {
		log.Warn("unable to read ncx document", zap.Error(err))
		return nil
	}
	ncx := etree.NewDocument()
	if err := ncx.ReadFromBytes(data); err != nil {
		log.Warn("unable to parse ncx document", zap.Error(err))
		return nil
	}
	navMap := ncx.FindElement("//navMap")
	if navMap == nil {
		return nil
	}
	idx := 0
	return parseNavPoints(navMap.SelectElements("navPoint"), path.Dir(ncxPath), chunks, &idx)
}

func findTocNav(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	for _, nav := range root.FindElements("//nav") {
		t := nav.SelectAttrValue("epub:type", "")
		if t == "" {
			t = nav.SelectAttrValue("type", "")
		}
		if strings.Contains(t, "toc") {
			return nav
		}
	}
	return nil
}

func parseNavList(ol *etree.Element, navDir string, chunks []*chunk, idx *int) []TocEntry {
	if ol == nil {
		return nil
	}
	var entries []TocEntry
	for _, li := range ol.SelectElements("li") {
		a := li.SelectElement("a")
		if a == nil {
			continue
		}
		title := strings.TrimSpace(a.Text())
		href := a.SelectAttrValue("href", "")
		loc := resolveHref(navDir, href, chunks)
		entry := TocEntry{Title: title, Location: loc, Index: *idx}
		*idx++
		if childOl := li.SelectElement("ol"); childOl != nil {
			entry.Children = parseNavList(childOl, navDir, chunks, idx)
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseNavPoints(points []*etree.Element, ncxDir string, chunks []*chunk, idx *int) []TocEntry {
	var entries []TocEntry
	for _, np := range points {
		label := ""
		if lbl := np.FindElement("navLabel/text"); lbl != nil {
			label = strings.TrimSpace(lbl.Text())
		}
		href := ""
		if content := np.SelectElement("content"); content != nil {
			href = content.SelectAttrValue("src", "")
		}
		loc := resolveHref(ncxDir, href, chunks)
		entry := TocEntry{Title: label, Location: loc, Index: *idx}
		*idx++
		entry.Children = parseNavPoints(np.SelectElements("navPoint"), ncxDir, chunks, idx)
		entries = append(entries, entry)
	}
	return entries
}

// resolveHref turns a navigation-document-relative "chapter1.xhtml#frag"
// into an absolute offset: the matching chunk's globalBase, plus the
// fragment element's byte offset within that chunk if present.
func resolveHref(baseDir, href string, chunks []*chunk) Location {
	if href == "" {
		return Exact(0)
	}
	filePart, fragment, _ := strings.Cut(href, "#")
	target := path.Join(baseDir, filePart)
	for _, c := range chunks {
		if c.path != target {
			continue
		}
		if fragment == "" {
			return Exact(c.globalBase)
		}
		if id, ok := c.arena.ElementByID(fragment); ok {
			return Exact(c.globalBase + c.arena.Node(id).Offset)
		}
		return Exact(c.globalBase)
	}
	return Exact(0)
}

func parseOPFMetadata(pkg *etree.Element) map[string][]string {
	meta := make(map[string][]string)
	metadataElem := pkg.FindElement("metadata")
	if metadataElem == nil {
		return meta
	}
	for _, child := range metadataElem.ChildElements() {
		tag := strings.ToLower(localName(child.Tag))
		switch {
		case isDublinCoreTag(tag):
			addMeta(meta, tag, strings.TrimSpace(child.Text()))
		case tag == "meta":
			name := child.SelectAttrValue("name", "")
			property := child.SelectAttrValue("property", "")
			content := child.SelectAttrValue("content", "")
			switch {
			case name != "" && content != "":
				addMeta(meta, name, content)
			case property != "":
				addMeta(meta, property, strings.TrimSpace(child.Text()))
			}
		}
	}
	if subjects, ok := meta["subject"]; ok {
		meta["subject"] = expandBISACSubjects(subjects)
	}
	if dates, ok := meta["date"]; ok {
		for i, d := range dates {
			dates[i] = normalizeDate(d)
		}
	}
	return meta
}

func isDublinCoreTag(tag string) bool {
	switch tag {
	case "title", "creator", "subject", "description", "publisher", "contributor",
		"date", "type", "format", "identifier", "source", "language", "relation",
		"coverage", "rights":
		return true
	}
	return false
}

func addMeta(meta map[string][]string, key, value string) {
	if value == "" {
		return
	}
	meta[key] = append(meta[key], value)
}

func localName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// expandBISACSubjects splits calibre/BISAC-style "Fiction / Fantasy /
// Epic" subject strings into their individual path components, per
// SPEC_FULL.md's metadata normalization rules.
func expandBISACSubjects(subjects []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range subjects {
		for _, part := range strings.Split(s, "/") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// normalizeDate rewrites a "+HHMM"/"-HHMM" timezone suffix (as found in
// some calibre-exported OPF dates) to the colon-separated "+HH:MM" form
// RFC 3339 parsers expect.
func normalizeDate(d string) string {
	if len(d) < 5 {
		return d
	}
	tail := d[len(d)-5:]
	if (tail[0] == '+' || tail[0] == '-') && isDigits(tail[1:]) {
		if _, err := strconv.Atoi(tail[1:3]); err == nil {
			return d[:len(d)-5] + tail[:3] + ":" + tail[3:]
		}
	}
	return d
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
