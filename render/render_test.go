package render

import (
	"testing"

	"github.com/inkleaf/reflow/layout"
	"github.com/inkleaf/reflow/style"
)

func TestPixmapNonEmptyForTextCommand(t *testing.T) {
	page := layout.Page{Commands: []layout.DrawCommand{
		{
			Kind:     layout.DrawText,
			Offset:   0,
			Position: layout.Point{X: 10, Y: 10},
			Rect:     layout.Rect{X: 10, Y: 10, W: 60, H: 14},
			Text:     "Hello world.",
			Style:    style.StyleData{Color: 0},
		},
	}}

	img := Pixmap(page, 200, 100, 1.0, PlaceholderShaper{}, nil, nil)
	if img == nil {
		t.Fatal("expected non-nil pixmap")
	}

	nonWhite := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !nonWhite; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y != 255 {
				nonWhite = true
				break
			}
		}
	}
	if !nonWhite {
		t.Error("expected pixmap to contain non-white pixels for the text command")
	}
}
