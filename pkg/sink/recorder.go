package sink

import (
	"io"

	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/geom"
	"github.com/labelforge/labelforge/pkg/layout"
)

// PlacedImage is one recorded image placement.
type PlacedImage struct {
	Page int
	Rect geom.Rect
	Img  *codes.Image
}

// PlacedText is one recorded text placement.
type PlacedText struct {
	Page   int
	Text   string
	X, Y   float64
	SizePt float64
	Align  layout.TextAlign
}

// Recorder is an in-memory renderer for tests. It records every placement
// with the page it landed on and whether Finalize ran.
type Recorder struct {
	Pages     int
	Images    []PlacedImage
	Texts     []PlacedText
	Finalized bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NewPage() error {
	r.Pages++
	return nil
}

func (r *Recorder) PlaceImage(img *codes.Image, rect geom.Rect) error {
	r.Images = append(r.Images, PlacedImage{Page: r.Pages, Rect: rect, Img: img})
	return nil
}

func (r *Recorder) PlaceText(text string, x, y, sizePt float64, align layout.TextAlign) error {
	r.Texts = append(r.Texts, PlacedText{Page: r.Pages, Text: text, X: x, Y: y, SizePt: sizePt, Align: align})
	return nil
}

func (r *Recorder) Finalize(w io.Writer) error {
	r.Finalized = true
	return nil
}

// ImagesOnPage returns the image placements for a 1-based page number.
func (r *Recorder) ImagesOnPage(page int) []PlacedImage {
	var out []PlacedImage
	for _, p := range r.Images {
		if p.Page == page {
			out = append(out, p)
		}
	}
	return out
}

var _ Renderer = (*Recorder)(nil)
