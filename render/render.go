// Package render walks a layout.Page's DrawCommands, invoking the
// shaper and image-decoder collaborator interfaces to produce a
// grayscale pixmap, per spec §4.8. Font rasterization itself is an
// explicit Non-goal (an external collaborator); this package only owns
// the walk, positioning, and the embedded-image raster pipeline
// (decode, EXIF-aware resize, SVG rasterization, grayscale conversion).
package render

import (
	"image"
	"image/color"
	"image/draw"

	ximgdraw "golang.org/x/image/draw"

	"go.uber.org/zap"

	"github.com/inkleaf/reflow/layout"
)

// Shaper draws one run of shaped text onto dst at the given device-pixel
// origin. It is an external collaborator: this module ships no font
// rasterizer (Non-goal), only the walk that invokes one.
type Shaper interface {
	DrawText(dst draw.Image, text string, st layout.DrawCommand, scale float64)
}

// ImageDecoder resolves a DrawCommand.Path (a source-relative path, or an
// EPUB-internal manifest path) to its raw bytes. The façade backend that
// owns chunk resolution (EPUB zip, or a plain filesystem for loose HTML)
// supplies this.
type ImageDecoder interface {
	ReadImage(path string) ([]byte, error)
}

// Pixmap renders page into an 8-bit grayscale image sized to
// pageWidth*scale x pageHeight*scale device pixels, in document order,
// per spec §4.5 `pixmap(location, scale)`. Render errors (an
// unloadable font or image resource) cause that single DrawCommand to
// be skipped; rendering continues, per spec §7.
func Pixmap(page layout.Page, pageWidth, pageHeight, scale float64, shaper Shaper, decoder ImageDecoder, log *zap.Logger) *image.Gray {
	if log == nil {
		log = zap.NewNop()
	}
	w := int(pageWidth * scale)
	h := int(pageHeight * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	for _, cmd := range page.Commands {
		switch cmd.Kind {
		case layout.DrawText, layout.DrawExtraText:
			if shaper == nil {
				continue
			}
			safeDrawText(rgba, cmd, scale, shaper, log)
		case layout.DrawImage:
			if decoder == nil {
				continue
			}
			drawImageCommand(rgba, cmd, scale, decoder, log)
		case layout.DrawMarker:
			// zero-dimension: nothing to draw.
		}
	}

	return toGray(rgba)
}

func safeDrawText(dst draw.Image, cmd layout.DrawCommand, scale float64, shaper Shaper, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("shaper panicked, skipping command", zap.Int("offset", cmd.Offset), zap.Any("recover", r))
		}
	}()
	shaper.DrawText(dst, cmd.Text, cmd, scale)
}

func drawImageCommand(dst draw.Image, cmd layout.DrawCommand, scale float64, decoder ImageDecoder, log *zap.Logger) {
	data, err := decoder.ReadImage(cmd.Path)
	if err != nil {
		log.Warn("unable to read embedded image, skipping", zap.String("path", cmd.Path), zap.Error(err))
		return
	}
	img, err := DecodeAndFit(data, int(cmd.Rect.W*scale), int(cmd.Rect.H*scale))
	if err != nil {
		log.Warn("unable to decode embedded image, skipping", zap.String("path", cmd.Path), zap.Error(err))
		return
	}
	target := image.Rect(
		int(cmd.Position.X*scale), int(cmd.Position.Y*scale),
		int(cmd.Position.X*scale)+img.Bounds().Dx(), int(cmd.Position.Y*scale)+img.Bounds().Dy(),
	)
	// CatmullRom covers the common case where DecodeAndFit's
	// aspect-preserving resize lands a pixel or two short of the
	// reserved layout rect; a quality resampler absorbs the gap instead
	// of a stdlib nearest-neighbor stretch.
	ximgdraw.CatmullRom.Scale(dst, target, img, img.Bounds(), ximgdraw.Over, nil)
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, src, b.Min, draw.Src)
	return gray
}

// PlaceholderShaper is a minimal Shaper useful for tests and for
// headless pipelines that have not wired a real font rasterizer: it
// fills each text command's rect with a light gray box so the pixmap is
// provably non-empty (satisfying S1's "non-empty pixmap" scenario)
// without shaping actual glyphs.
type PlaceholderShaper struct{}

func (PlaceholderShaper) DrawText(dst draw.Image, text string, cmd layout.DrawCommand, scale float64) {
	if text == "" {
		return
	}
	w := cmd.Rect.W * scale
	h := cmd.Rect.H * scale
	if w <= 0 {
		w = float64(len(text)) * 4 * scale
	}
	if h <= 0 {
		h = 10 * scale
	}
	rect := image.Rect(int(cmd.Position.X*scale), int(cmd.Position.Y*scale), int(cmd.Position.X*scale+w), int(cmd.Position.Y*scale+h))
	gray := color.Gray{Y: cmd.Style.Color}
	draw.Draw(dst, rect, &image.Uniform{C: gray}, image.Point{}, draw.Over)
}
