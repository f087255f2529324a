// Package document implements the EPUB/HTML façade: spine/chunk global
// offset accounting, location resolution, the page cache and its
// invalidation-on-parameter-change semantics, TOC and metadata
// extraction, and the word/link/image/pixmap query surface.
package document

import (
	"errors"

	"github.com/inkleaf/reflow/layout"
)

// Kind is the closed tagged-variant discriminator between the EPUB and
// HTML façade backends, per the REDESIGN FLAG favoring a closed
// dispatcher over open interface inheritance.
type Kind int

const (
	KindEPUB Kind = iota
	KindHTML
)

func (k Kind) String() string {
	if k == KindHTML {
		return "html"
	}
	return "epub"
}

// ErrNoSuchLocation is returned when a Location cannot be resolved to any
// offset in the document (e.g. an unknown id, or an offset past the end).
var ErrNoSuchLocation = errors.New("document: no such location")

// LocationKind discriminates a Location variant.
type LocationKind int

const (
	LocExact LocationKind = iota
	LocPrevious
	LocNext
	LocUri
	LocLocalUri
)

// Location is the tagged union the façade's resolve_location accepts:
// Exact(o), Previous(o), Next(o), Uri("chunk#id"), LocalUri("#id")
// resolved against a chunk implied by context (e.g. the chunk currently
// on screen).
type Location struct {
	Kind LocationKind
	// Offset is used by Exact/Previous/Next.
	Offset int
	// URI is used by Uri/LocalUri: "chunkPath#fragment" or "#fragment".
	URI string
}

func Exact(offset int) Location    { return Location{Kind: LocExact, Offset: offset} }
func Previous(offset int) Location { return Location{Kind: LocPrevious, Offset: offset} }
func Next(offset int) Location     { return Location{Kind: LocNext, Offset: offset} }
func Uri(uri string) Location      { return Location{Kind: LocUri, URI: uri} }
func LocalUri(fragment string) Location {
	return Location{Kind: LocLocalUri, URI: fragment}
}

// SpineChunk is one EPUB spine entry: its path inside the container and
// its byte size, used to compute global offsets.
type SpineChunk struct {
	Path string
	Size int
}

// TocEntry is one table-of-contents node: title, target Location, a
// pre-order sequential index used to compare positions when offsets
// can't be resolved yet, and nested children.
type TocEntry struct {
	Title    string
	Location Location
	Index    int
	Children []TocEntry
}

// SortKey returns a diacritic-insensitive, case-folded comparison key for
// t.Title, for transliteration-aware TOC search (supplemented feature,
// grounded on the teacher's transliterate.go).
func (t TocEntry) SortKey() string {
	return transliterateKey(t.Title)
}

// BoundedText is one Text/ExtraText DrawCommand exposed by the words()
// query, with its source offset so callers can map back to the page.
type BoundedText struct {
	Offset int
	Text   string
	Rect   layout.Rect
}

// LinkInfo is one Text or Image DrawCommand carrying a link target uri.
type LinkInfo struct {
	Offset int
	URI    string
	Rect   layout.Rect
}

// ImageInfo is one Image DrawCommand's rectangle and source path.
type ImageInfo struct {
	Offset int
	Path   string
	Rect   layout.Rect
}
