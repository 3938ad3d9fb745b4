package marker

import (
	"image"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/geom"
)

// AprilTagProducer renders AprilTag markers. The pattern (data bits plus
// the family's one-cell black frame) is PatternSizeMM wide; a solid black
// border of BorderMM and a white quiet zone are drawn around it, so the
// footprint is pattern plus twice the border plus twice the quiet zone.
type AprilTagProducer struct {
	Family        aprilFamily
	PatternSizeMM float64
	BorderMM      float64
	QuietZoneMM   float64
	DPI           int
}

// NewAprilTag creates an AprilTag producer for a named family.
func NewAprilTag(family string, patternSizeMM, borderMM, quietZoneMM float64, dpi int) (*AprilTagProducer, error) {
	fam, ok := aprilFamilies[family]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidDict,
			"unknown AprilTag family %q (supported: %s)", family, supportedFamilies())
	}
	return &AprilTagProducer{
		Family:        fam,
		PatternSizeMM: patternSizeMM,
		BorderMM:      borderMM,
		QuietZoneMM:   quietZoneMM,
		DPI:           dpi,
	}, nil
}

func supportedFamilies() string {
	names := make([]string, 0, len(aprilFamilies))
	for name := range aprilFamilies {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (p *AprilTagProducer) Kind() string { return "apriltag" }

func (p *AprilTagProducer) CacheKey(payload string) string {
	return cache.ImageKey(p.Kind(), payload, p.DPI, p.Family.name, p.PatternSizeMM, p.BorderMM, p.QuietZoneMM)
}

// MaxID returns the exclusive upper bound of valid tag ids.
func (p *AprilTagProducer) MaxID() int { return len(p.Family.codes) }

// Validate checks that the payload is a numeric id within the family.
func (p *AprilTagProducer) Validate(payload string) error {
	id, err := strconv.Atoi(payload)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidPayload, "AprilTag id must be numeric, got %q", payload)
	}
	if id < 0 || id >= p.MaxID() {
		return errors.New(errors.ErrCodeIDOutOfRange,
			"AprilTag id %d out of range 0..%d for %s", id, p.MaxID()-1, p.Family.name)
	}
	return nil
}

// Footprint is the pattern plus border and quiet zone on every side.
func (p *AprilTagProducer) Footprint() (float64, float64) {
	size := p.PatternSizeMM + 2*p.BorderMM + 2*p.QuietZoneMM
	return size, size
}

// Generate renders the tag for a numeric id payload.
func (p *AprilTagProducer) Generate(payload string) (*codes.Image, error) {
	if err := p.Validate(payload); err != nil {
		return nil, err
	}
	id, _ := strconv.Atoi(payload)

	code := p.Family.codes[id]
	dim := p.Family.dim
	cells := dim + 2 // one black frame cell on each side

	patternPx := geom.MMToPx(p.PatternSizeMM, p.DPI)
	borderPx := geom.MMToPx(p.BorderMM, p.DPI)
	quietPx := geom.MMToPx(p.QuietZoneMM, p.DPI)
	totalPx := patternPx + 2*borderPx + 2*quietPx

	pattern := codes.RasterGrid(cells, patternPx, func(cx, cy int) bool {
		mx := cx - 1
		my := cy - 1
		if mx < 0 || my < 0 || mx >= dim || my >= dim {
			return true // frame cells are black
		}
		// Data bit 1 is a white cell.
		return !patternBit(code, dim, mx, my)
	})

	out := composeOnWhite(totalPx, totalPx, pattern, quietPx+borderPx, quietPx+borderPx)
	if borderPx > 0 {
		drawFrame(out, quietPx, patternPx+2*borderPx, borderPx)
	}

	data, err := codes.EncodePNG(out)
	if err != nil {
		return nil, err
	}

	w, h := p.Footprint()
	return &codes.Image{
		PNG:      data,
		WidthPx:  totalPx,
		HeightPx: totalPx,
		WidthMM:  w,
		HeightMM: h,
	}, nil
}

// drawFrame paints a black frame of the given thickness whose outer edge is
// a square of size extent at offset (off, off).
func drawFrame(dst *image.Gray, off, extent, thickness int) {
	black := color.Gray{Y: 0}
	fillRect(dst, image.Rect(off, off, off+extent, off+thickness), black)
	fillRect(dst, image.Rect(off, off+extent-thickness, off+extent, off+extent), black)
	fillRect(dst, image.Rect(off, off, off+thickness, off+extent), black)
	fillRect(dst, image.Rect(off+extent-thickness, off, off+extent, off+extent), black)
}
