// Package codes produces the machine-readable rasters placed on labels:
// QR codes and linear barcodes. Fiducial markers live in the marker
// subpackage and satisfy the same Producer interface.
//
// Producers are configured once per run and are safe for concurrent use.
// Every raster is monochrome PNG at the run's DPI; physical sizes travel
// with the image so the layout never re-derives them.
package codes

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/labelforge/labelforge/pkg/errors"
)

// Image is one rendered code raster with its physical size.
type Image struct {
	PNG      []byte
	WidthPx  int
	HeightPx int
	WidthMM  float64
	HeightMM float64
}

// Producer turns a payload into a code raster.
//
// Validate rejects payloads the producer cannot encode; the caller skips
// those records instead of aborting the run. Footprint is the nominal
// physical size (including quiet zone) used for fit validation before any
// record is seen. Generate returns the actual raster, whose physical width
// may differ from the nominal one for variable-width symbologies.
// CacheKey folds every parameter that affects the pixels into a stable
// cache key for the payload.
type Producer interface {
	Kind() string
	Validate(payload string) error
	Footprint() (widthMM, heightMM float64)
	Generate(payload string) (*Image, error)
	CacheKey(payload string) string
}

// RasterGrid renders a cells x cells module grid into a square grayscale
// image of sizePx pixels. black reports whether the module at (cx, cy) is
// black; pixels outside any module stay white. Modules are resolved by
// integer mapping so the output is deterministic at every size.
func RasterGrid(cells, sizePx int, black func(cx, cy int) bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, sizePx, sizePx))
	for y := 0; y < sizePx; y++ {
		cy := y * cells / sizePx
		for x := 0; x < sizePx; x++ {
			cx := x * cells / sizePx
			if black(cx, cy) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// EncodePNG serializes an image as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode PNG")
	}
	return buf.Bytes(), nil
}
