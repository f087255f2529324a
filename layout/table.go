package layout

import (
	"strings"

	"github.com/inkleaf/reflow/domtree"
	"github.com/inkleaf/reflow/style"
)

// layoutTable implements the two-pass table algorithm from spec §4.4.4,
// staged as the REDESIGN FLAG in spec §9 asks (collect column widths,
// then lay out rows) rather than interleaved with row layout: pass one
// measures each column's min/max content width across every row's cells;
// pass two interpolates final column widths from those bounds to fit the
// available width, then lays out each row's cells as independent inline
// containers at their column's x offset.
func (b *Builder) layoutTable(ds *drawState, table domtree.ID, tableStyle style.StyleData) {
	rows := tableRows(b.Arena, table)
	if len(rows) == 0 {
		return
	}

	numCols := 0
	for _, row := range rows {
		if n := len(tableCells(b.Arena, row)); n > numCols {
			numCols = n
		}
	}
	if numCols == 0 {
		return
	}

	minW := make([]float64, numCols)
	maxW := make([]float64, numCols)
	for _, row := range rows {
		for col, cell := range tableCells(b.Arena, row) {
			mn, mx := cellContentBounds(b, cell, tableStyle)
			if mn > minW[col] {
				minW[col] = mn
			}
			if mx > maxW[col] {
				maxW[col] = mx
			}
		}
	}

	available := ds.contentWidth()
	colWidths := interpolateColumnWidths(minW, maxW, available)

	for _, row := range rows {
		rowStyle := b.resolver.resolve(row, tableStyle)
		cells := tableCells(b.Arena, row)
		rowHeight := rowStyle.LineHeightPx
		ds.ensureRoom(rowHeight)
		x := ds.lineLeft()
		top := ds.pen.Y
		bottom := top
		for col, cell := range cells {
			if col >= len(colWidths) {
				break
			}
			cellStyle := b.resolver.resolve(cell, rowStyle)
			saved := *ds
			ds.contentLeft = x
			ds.contentRight = x + colWidths[col]
			ds.pen = Point{X: x, Y: top}
			ds.floatLeftW, ds.floatRightW = 0, 0
			ds.floatLeftEnd, ds.floatRightEnd = 0, 0
			b.layoutInlineContainer(ds, cell, cellStyle)
			if ds.pen.Y > bottom {
				bottom = ds.pen.Y
			}
			pagesBefore := len(saved.pages)
			*ds = mergeAfterCell(saved, *ds, pagesBefore)
			x += colWidths[col]
		}
		ds.pen = Point{X: ds.lineLeft(), Y: bottom}
	}
}

// mergeAfterCell restores the drawState's shared bookkeeping (page list,
// skip set) after a cell was laid out against a temporarily narrowed
// content box, keeping any new pages/commands the cell layout produced.
func mergeAfterCell(before, after drawState, pagesBefore int) drawState {
	merged := before
	merged.page = after.page
	merged.pages = after.pages
	merged.skips = after.skips
	merged.errs = after.errs
	_ = pagesBefore
	return merged
}

func tableRows(a *domtree.Arena, table domtree.ID) []domtree.ID {
	var rows []domtree.ID
	var walk func(id domtree.ID)
	walk = func(id domtree.ID) {
		for _, c := range a.Children(id) {
			cn := a.Node(c)
			if cn == nil {
				continue
			}
			switch strings.ToLower(cn.Tag) {
			case "tr":
				rows = append(rows, c)
			case "thead", "tbody", "tfoot":
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func tableCells(a *domtree.Arena, row domtree.ID) []domtree.ID {
	var cells []domtree.ID
	for _, c := range a.Children(row) {
		cn := a.Node(c)
		if cn == nil {
			continue
		}
		switch strings.ToLower(cn.Tag) {
		case "td", "th":
			cells = append(cells, c)
		}
	}
	return cells
}

// cellContentBounds estimates a cell's minimum (longest unbreakable
// word) and maximum (whole content on one line) content width.
func cellContentBounds(b *Builder, cell domtree.ID, parentStyle style.StyleData) (min, max float64) {
	cellStyle := b.resolver.resolve(cell, parentStyle)
	for a := range b.Arena.Descendants(cell) {
		n := b.Arena.Node(a)
		if n == nil || n.Kind != domtree.KindText {
			continue
		}
		words := strings.Fields(n.Text)
		lineW := 0.0
		for _, w := range words {
			ww := b.CharWidth(w, cellStyle)
			if ww > min {
				min = ww
			}
			lineW += ww + b.CharWidth(" ", cellStyle)
		}
		if lineW > max {
			max = lineW
		}
	}
	if min == 0 {
		min = cellStyle.FontSizePx
	}
	if max < min {
		max = min
	}
	return min, max
}

// interpolateColumnWidths distributes available width across columns,
// first guaranteeing each its minimum, then growing columns toward their
// maximum proportionally to remaining space, and finally shrinking all
// columns proportionally if even the minimums overflow.
func interpolateColumnWidths(minW, maxW []float64, available float64) []float64 {
	n := len(minW)
	widths := make([]float64, n)
	copy(widths, minW)

	totalMin := 0.0
	for _, w := range minW {
		totalMin += w
	}
	if totalMin > available {
		scale := available / totalMin
		for i := range widths {
			widths[i] *= scale
		}
		return widths
	}

	totalMax := 0.0
	for _, w := range maxW {
		totalMax += w
	}
	if totalMax <= available {
		copy(widths, maxW)
		return widths
	}
	slack := available - totalMin
	growthRoom := totalMax - totalMin
	if growthRoom <= 0 {
		extra := slack / float64(n)
		for i := range widths {
			widths[i] += extra
		}
		return widths
	}
	for i := range widths {
		share := (maxW[i] - minW[i]) / growthRoom
		widths[i] += slack * share
	}
	return widths
}
