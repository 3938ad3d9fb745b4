// Package sink renders positioned label content into an output document.
//
// The layout engine speaks in page millimeters and finished rasters; a
// Renderer turns that stream of placements into a document. The PDF
// renderer is the production sink; Recorder captures placements for tests
// and DebugRenderer tees rasters to disk for visual inspection.
package sink

import (
	"io"

	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/geom"
	"github.com/labelforge/labelforge/pkg/layout"
)

// Renderer receives placements page by page. Calls arrive in emit order:
// NewPage, then the placements for that page, then either another NewPage
// or Finalize.
type Renderer interface {
	// NewPage starts the next page.
	NewPage() error

	// PlaceImage draws a raster into the given page rectangle.
	PlaceImage(img *codes.Image, rect geom.Rect) error

	// PlaceText draws one text line. x and y are the anchor point and
	// baseline in page millimeters; align says how the string hangs off x.
	PlaceText(text string, x, y, sizePt float64, align layout.TextAlign) error

	// Finalize writes the finished document.
	Finalize(w io.Writer) error
}
