package render

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	rimages "github.com/inkleaf/reflow/utils/images"
)

// DecodeAndFit decodes raw embedded-image bytes (raster or SVG) and
// resizes the result to fit within targetW x targetH, preserving aspect
// ratio. Format detection uses h2non/filetype (content sniffing, not
// just the manifest's declared media-type, matching embedded resources
// that sometimes lie about their own extension); raster decode/resize
// goes through disintegration/imaging for its EXIF-aware orientation
// handling, SVG goes through the oksvg/rasterx pipeline in
// utils/images.
func DecodeAndFit(data []byte, targetW, targetH int) (image.Image, error) {
	if looksLikeSVG(data) {
		return rimages.RasterizeSVGToImage(data, targetW, targetH, rimages.KindleSVGStrokeWidthFactor)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("detect image type: %w", err)
	}
	if kind == filetype.Unknown {
		return nil, fmt.Errorf("unrecognized image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", kind.MIME.Value, err)
	}

	if targetW <= 0 && targetH <= 0 {
		return img, nil
	}
	return imaging.Fit(img, maxInt(targetW, 1), maxInt(targetH, 1), imaging.Lanczos), nil
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
