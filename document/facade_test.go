package document

import (
	"testing"

	"github.com/inkleaf/reflow/css"
	"github.com/inkleaf/reflow/layout"
	"github.com/inkleaf/reflow/xmlparse"
)

func newTestFacade(t *testing.T, html string) *Facade {
	t.Helper()
	arena := xmlparse.Parse([]byte(html))
	sheet := css.NewParser(nil).Parse(nil, css.OriginViewer, "ua")
	params := layout.DefaultParams()
	params.WidthPx, params.HeightPx = 300, 200
	params.MarginPx = 10
	c := &chunk{
		path:       "index.html",
		arena:      arena,
		root:       arena.Root(),
		sheet:      sheet,
		mediaFlags: map[string]bool{"screen": true},
		globalBase: 0,
		size:       len(html),
	}
	return &Facade{
		kind:   KindHTML,
		chunks: []*chunk{c},
		params: params,
	}
}

func TestPagesCountBuildsCache(t *testing.T) {
	f := newTestFacade(t, `<html><body><p>one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen.</p></body></html>`)
	n, err := f.PagesCount()
	if err != nil {
		t.Fatalf("PagesCount: %v", err)
	}
	if n == 0 {
		t.Fatal("expected at least one page")
	}
	if f.chunks[0].state != stateCached {
		t.Error("expected chunk to be cached after PagesCount")
	}
}

func TestResolveLocationExactRejectsOutOfRange(t *testing.T) {
	f := newTestFacade(t, `<html><body><p>hello</p></body></html>`)
	if _, err := f.ResolveLocation(Exact(1_000_000)); err != ErrNoSuchLocation {
		t.Fatalf("expected ErrNoSuchLocation, got %v", err)
	}
}

func TestResolveLocationPreviousIdempotentAtStart(t *testing.T) {
	f := newTestFacade(t, `<html><body><p>hello world</p></body></html>`)
	off, err := f.ResolveLocation(Previous(0))
	if err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if off != 0 {
		t.Errorf("expected Previous(0) to stay at 0, got %d", off)
	}
}

func TestSetFontSizeInvalidatesCache(t *testing.T) {
	f := newTestFacade(t, `<html><body><p>hello world</p></body></html>`)
	if _, err := f.PagesCount(); err != nil {
		t.Fatalf("PagesCount: %v", err)
	}
	f.SetFontSize(40)
	if f.chunks[0].state != stateUncached {
		t.Error("expected SetFontSize to invalidate the page cache")
	}
}

func TestTocSortKeyIsTransliterationAware(t *testing.T) {
	e := TocEntry{Title: "Café Müller"}
	if got := e.SortKey(); got != "cafe muller" {
		t.Errorf("SortKey() = %q, want %q", got, "cafe muller")
	}
}
