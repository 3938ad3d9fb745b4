package layout

import "github.com/labelforge/labelforge/pkg/geom"

// MinUsableMM is the smallest usable page extent (per axis) that still makes
// sense to print on. Margins that leave less than this reject the run.
const MinUsableMM = 20.0

// PageGeometry describes the physical page for a run. Computed once from
// configuration and immutable thereafter.
type PageGeometry struct {
	WidthMM  float64
	HeightMM float64
	MarginMM float64 // uniform margin on all four sides
}

// UsableWidthMM returns the horizontal space left after both margins.
func (p PageGeometry) UsableWidthMM() float64 { return p.WidthMM - 2*p.MarginMM }

// UsableHeightMM returns the vertical space left after both margins.
func (p PageGeometry) UsableHeightMM() float64 { return p.HeightMM - 2*p.MarginMM }

// LabelGrid is the derived grid shape for a run: how many labels fit per page
// and how large each one is. Produced by [ComputeGrid] and immutable.
type LabelGrid struct {
	PerRow    int // labels per row (columns)
	PerColumn int // labels per column (rows)

	LabelWidthMM  float64
	LabelHeightMM float64
	HGapMM        float64
	VGapMM        float64
}

// PerPage returns the label capacity of one page.
func (g LabelGrid) PerPage() int { return g.PerRow * g.PerColumn }

// Slot is a (page, row, column) address within the label grid.
// Pages, rows and columns are all 0-based.
type Slot struct {
	Page   int
	Row    int
	Column int
}

// LabelRect returns the label rectangle for a slot, in page millimeters.
func LabelRect(p PageGeometry, g LabelGrid, s Slot) geom.Rect {
	return geom.Rect{
		X: p.MarginMM + float64(s.Column)*(g.LabelWidthMM+g.HGapMM),
		Y: p.MarginMM + float64(s.Row)*(g.LabelHeightMM+g.VGapMM),
		W: g.LabelWidthMM,
		H: g.LabelHeightMM,
	}
}

// Arrangement describes how multiple code slots are placed within a label.
type Arrangement string

const (
	// ArrangeSideBySide places code slots left to right.
	ArrangeSideBySide Arrangement = "horizontal"
	// ArrangeStacked places code slots top to bottom.
	ArrangeStacked Arrangement = "vertical"
)

// TextPosition says where the human-readable text strip sits within a label.
type TextPosition string

const (
	TextNone   TextPosition = "none"
	TextTop    TextPosition = "top"
	TextBottom TextPosition = "bottom"
)

// TextAlign is the horizontal alignment of text within the label width.
type TextAlign string

const (
	AlignStart  TextAlign = "start"
	AlignCenter TextAlign = "center"
	AlignEnd    TextAlign = "end"
)

// TextSpec describes the optional human-readable text slot of a label.
type TextSpec struct {
	Position   TextPosition
	Align      TextAlign
	FontSizePt float64
	MarginMM   float64 // gap between the text strip and the nearest code edge
}

// Enabled reports whether the label carries a text strip at all.
func (t TextSpec) Enabled() bool {
	return t.Position == TextTop || t.Position == TextBottom
}

// HeightMM returns the height of the text strip: the font size converted to
// millimeters, or 0 when text is disabled.
func (t TextSpec) HeightMM() float64 {
	if !t.Enabled() {
		return 0
	}
	return geom.PtToMM(t.FontSizePt)
}

// CodeSlot is one machine-readable code inside a label. Width and height are
// the code's footprint: its nominal size plus any quiet zone or border its
// producer bakes into the raster.
type CodeSlot struct {
	Name     string // "qr", "barcode", "marker", ...
	WidthMM  float64
	HeightMM float64
}

// ContentSpec describes everything that goes inside one label: one or two
// code slots, their arrangement and spacing, and the optional text strip.
// One positioner handles every label family by being parameterized with a
// ContentSpec value; there is no per-family layout code.
type ContentSpec struct {
	Slots       []CodeSlot
	Arrangement Arrangement
	SpacingMM   float64 // spacing between code slots
	Text        TextSpec
}

// WithSlotSize returns a copy of the spec with slot i resized. Used for
// variable-width codes (linear barcodes) whose actual footprint is only
// known per record; the nominal spec stays untouched.
func (c ContentSpec) WithSlotSize(i int, widthMM, heightMM float64) ContentSpec {
	slots := make([]CodeSlot, len(c.Slots))
	copy(slots, c.Slots)
	if i >= 0 && i < len(slots) {
		slots[i].WidthMM = widthMM
		slots[i].HeightMM = heightMM
	}
	c.Slots = slots
	return c
}
