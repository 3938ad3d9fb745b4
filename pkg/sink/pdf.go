package sink

import (
	"bytes"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/geom"
	"github.com/labelforge/labelforge/pkg/layout"
)

// PDFRenderer renders placements into a PDF document. Pages are the
// configured physical size, coordinates are millimeters from the top-left
// corner, matching the layout engine's coordinate system directly.
type PDFRenderer struct {
	doc      *fpdf.Fpdf
	fontName string

	// registered tracks rasters already embedded, keyed by content hash,
	// so repeated codes share one image object in the document.
	registered map[string]struct{}
}

// NewPDF creates a PDF renderer for the given page geometry. fontName must
// be one of the PDF core fonts (Helvetica, Courier, Times).
func NewPDF(page layout.PageGeometry, fontName string) *PDFRenderer {
	doc := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: page.WidthMM, Ht: page.HeightMM},
	})
	doc.SetAutoPageBreak(false, 0)
	if fontName == "" {
		fontName = "Helvetica"
	}
	return &PDFRenderer{
		doc:        doc,
		fontName:   fontName,
		registered: make(map[string]struct{}),
	}
}

// NewPage starts the next page.
func (r *PDFRenderer) NewPage() error {
	r.doc.AddPage()
	return r.err()
}

// PlaceImage embeds the raster (once per distinct content) and draws it at
// the given rectangle.
func (r *PDFRenderer) PlaceImage(img *codes.Image, rect geom.Rect) error {
	name := cache.Hash(img.PNG)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if _, ok := r.registered[name]; !ok {
		r.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
		r.registered[name] = struct{}{}
	}
	r.doc.ImageOptions(name, rect.X, rect.Y, rect.W, rect.H, false, opts, 0, "")
	return r.err()
}

// PlaceText draws one line at the baseline, resolving the alignment against
// the rendered string width.
func (r *PDFRenderer) PlaceText(text string, x, y, sizePt float64, align layout.TextAlign) error {
	r.doc.SetFont(r.fontName, "", sizePt)
	switch align {
	case layout.AlignCenter:
		x -= r.doc.GetStringWidth(text) / 2
	case layout.AlignEnd:
		x -= r.doc.GetStringWidth(text)
	}
	r.doc.Text(x, y, text)
	return r.err()
}

// Finalize writes the document.
func (r *PDFRenderer) Finalize(w io.Writer) error {
	if err := r.doc.Output(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write PDF")
	}
	return nil
}

func (r *PDFRenderer) err() error {
	if err := r.doc.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render PDF")
	}
	return nil
}

var _ Renderer = (*PDFRenderer)(nil)
