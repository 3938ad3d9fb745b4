package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/geom"
	"github.com/labelforge/labelforge/pkg/layout"
)

// DebugRenderer forwards every call to an inner renderer and additionally
// dumps each placed raster as a PNG file, for inspecting codes without a
// PDF viewer or a scanner.
type DebugRenderer struct {
	inner Renderer
	dir   string
	page  int
	seq   int
}

// NewDebugRenderer wraps a renderer, dumping rasters into dir.
func NewDebugRenderer(inner Renderer, dir string) (*DebugRenderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DebugRenderer{inner: inner, dir: dir}, nil
}

func (r *DebugRenderer) NewPage() error {
	r.page++
	return r.inner.NewPage()
}

func (r *DebugRenderer) PlaceImage(img *codes.Image, rect geom.Rect) error {
	r.seq++
	name := fmt.Sprintf("page%03d_%04d.png", r.page, r.seq)
	if err := os.WriteFile(filepath.Join(r.dir, name), img.PNG, 0644); err != nil {
		return err
	}
	return r.inner.PlaceImage(img, rect)
}

func (r *DebugRenderer) PlaceText(text string, x, y, sizePt float64, align layout.TextAlign) error {
	return r.inner.PlaceText(text, x, y, sizePt, align)
}

func (r *DebugRenderer) Finalize(w io.Writer) error {
	return r.inner.Finalize(w)
}

var _ Renderer = (*DebugRenderer)(nil)
