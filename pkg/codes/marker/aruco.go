// Package marker generates fiducial markers (ArUco and AprilTag) from
// embedded dictionary tables, without an OpenCV dependency. Marker payloads
// are decimal numeric ids; each producer enforces its dictionary's id range.
package marker

import (
	"sort"
	"strconv"
	"strings"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/geom"
)

// ArUcoProducer renders ArUco markers. The pattern (data bits plus black
// border bits) is PatternSizeMM wide; the white quiet zone is added around
// it, so the footprint is pattern plus twice the quiet zone.
type ArUcoProducer struct {
	Dict          arucoDict
	PatternSizeMM float64
	BorderBits    int
	QuietZoneMM   float64
	DPI           int
}

// NewArUco creates an ArUco producer for a named dictionary.
func NewArUco(dictionary string, patternSizeMM float64, borderBits int, quietZoneMM float64, dpi int) (*ArUcoProducer, error) {
	dict, ok := arucoDicts[dictionary]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidDict,
			"unknown ArUco dictionary %q (supported: %s)", dictionary, supportedDicts())
	}
	if borderBits < 1 {
		borderBits = 1
	}
	return &ArUcoProducer{
		Dict:          dict,
		PatternSizeMM: patternSizeMM,
		BorderBits:    borderBits,
		QuietZoneMM:   quietZoneMM,
		DPI:           dpi,
	}, nil
}

func supportedDicts() string {
	names := make([]string, 0, len(arucoDicts))
	for name := range arucoDicts {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (p *ArUcoProducer) Kind() string { return "aruco" }

func (p *ArUcoProducer) CacheKey(payload string) string {
	return cache.ImageKey(p.Kind(), payload, p.DPI, p.Dict.name, p.PatternSizeMM, p.BorderBits, p.QuietZoneMM)
}

// MaxID returns the exclusive upper bound of valid marker ids.
func (p *ArUcoProducer) MaxID() int { return len(p.Dict.table) }

// Validate checks that the payload is a numeric id within the dictionary.
func (p *ArUcoProducer) Validate(payload string) error {
	id, err := strconv.Atoi(payload)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidPayload, "ArUco id must be numeric, got %q", payload)
	}
	if id < 0 || id >= p.MaxID() {
		return errors.New(errors.ErrCodeIDOutOfRange,
			"ArUco id %d out of range 0..%d for %s", id, p.MaxID()-1, p.Dict.name)
	}
	return nil
}

// Footprint is the pattern plus the quiet zone on every side.
func (p *ArUcoProducer) Footprint() (float64, float64) {
	size := p.PatternSizeMM + 2*p.QuietZoneMM
	return size, size
}

// Generate renders the marker for a numeric id payload.
func (p *ArUcoProducer) Generate(payload string) (*codes.Image, error) {
	if err := p.Validate(payload); err != nil {
		return nil, err
	}
	id, _ := strconv.Atoi(payload)

	bits := p.Dict.table[id]
	n := p.Dict.markerBits
	cells := n + 2*p.BorderBits

	patternPx := geom.MMToPx(p.PatternSizeMM, p.DPI)
	quietPx := geom.MMToPx(p.QuietZoneMM, p.DPI)
	totalPx := patternPx + 2*quietPx

	// White canvas with the bordered pattern centered inside the quiet zone.
	pattern := codes.RasterGrid(cells, patternPx, func(cx, cy int) bool {
		mx := cx - p.BorderBits
		my := cy - p.BorderBits
		if mx < 0 || my < 0 || mx >= n || my >= n {
			return true // border bits are black
		}
		// Data bit 1 is a white cell.
		return !patternBit(uint64(bits), n, mx, my)
	})

	out := composeOnWhite(totalPx, totalPx, pattern, quietPx, quietPx)
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
