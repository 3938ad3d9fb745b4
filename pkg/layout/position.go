package layout

import "github.com/labelforge/labelforge/pkg/geom"

// ElementKind discriminates the element types a positioned label contains.
type ElementKind string

const (
	// ElementCode is a machine-readable code raster placed at a rectangle.
	ElementCode ElementKind = "code"
	// ElementText is a text line placed at a baseline origin.
	ElementText ElementKind = "text"
)

// Element is one positioned piece of label content. For codes, Rect holds
// the raster bounds. For text, X/Y hold the baseline origin and Align says
// how the renderer should anchor the string at X.
type Element struct {
	Kind ElementKind
	Slot int // code slot index; -1 for the label-level text line

	Rect geom.Rect // Kind == ElementCode

	X, Y  float64 // Kind == ElementText, baseline origin in page mm
	Align TextAlign
}

// PositionContent computes the placement of every element inside one label.
//
// The text strip is resolved first: it occupies a strip of the text height at
// the label's top or bottom edge, and the configured text margin separates it
// from the code region. The codes are then centered as a group in the
// remaining region: horizontally for side-by-side arrangement, vertically
// for stacked. Text placement never moves to accommodate the codes.
//
// Side-by-side code pairs get one caption per code, centered under the code.
// Single-code and stacked labels get one text line with the configured
// start/center/end alignment, independent of code positions.
//
// The function is pure: any infeasible configuration was already rejected by
// [ValidateFit], so no error paths exist here.
func PositionContent(label geom.Rect, c ContentSpec) []Element {
	region, baseline := splitTextStrip(label, c.Text)

	var elems []Element
	switch c.Arrangement {
	case ArrangeSideBySide:
		elems = placeSideBySide(label, region, c)
	default:
		elems = placeStacked(label, region, c)
	}

	if !c.Text.Enabled() {
		return elems
	}

	if c.Arrangement == ArrangeSideBySide && len(c.Slots) > 1 {
		// Per-code captions, centered under each code.
		codes := elems
		for _, e := range codes {
			if e.Kind != ElementCode {
				continue
			}
			elems = append(elems, Element{
				Kind:  ElementText,
				Slot:  e.Slot,
				X:     e.Rect.CenterX(),
				Y:     baseline,
				Align: AlignCenter,
			})
		}
		return elems
	}

	var x float64
	switch c.Text.Align {
	case AlignCenter:
		x = label.CenterX()
	case AlignEnd:
		x = label.Right()
	default:
		x = label.X
	}
	return append(elems, Element{
		Kind:  ElementText,
		Slot:  -1,
		X:     x,
		Y:     baseline,
		Align: c.Text.Align,
	})
}

// splitTextStrip reserves the text strip at the configured label edge and
// returns the leftover region for codes plus the text baseline y.
// Without text the full label is the code region and the baseline is unused.
func splitTextStrip(label geom.Rect, t TextSpec) (region geom.Rect, baseline float64) {
	if !t.Enabled() {
		return label, 0
	}
	textH := t.HeightMM()
	switch t.Position {
	case TextTop:
		baseline = label.Y + textH
		region = geom.Rect{
			X: label.X,
			Y: label.Y + textH + t.MarginMM,
			W: label.W,
			H: label.H - textH - t.MarginMM,
		}
	default: // TextBottom
		baseline = label.Bottom()
		region = geom.Rect{
			X: label.X,
			Y: label.Y,
			W: label.W,
			H: label.H - textH - t.MarginMM,
		}
	}
	return region, baseline
}

// placeSideBySide centers the code group horizontally within the label and
// each code vertically within the leftover region.
func placeSideBySide(label, region geom.Rect, c ContentSpec) []Element {
	total := c.SpacingMM * float64(len(c.Slots)-1)
	for _, s := range c.Slots {
		total += s.WidthMM
	}

	elems := make([]Element, 0, len(c.Slots))
	x := label.X + (label.W-total)/2
	for i, s := range c.Slots {
		elems = append(elems, Element{
			Kind: ElementCode,
			Slot: i,
			Rect: geom.Rect{
				X: x,
				Y: region.Y + (region.H-s.HeightMM)/2,
				W: s.WidthMM,
				H: s.HeightMM,
			},
		})
		x += s.WidthMM + c.SpacingMM
	}
	return elems
}

// placeStacked centers the code group vertically within the leftover region
// and each code horizontally within the label.
func placeStacked(label, region geom.Rect, c ContentSpec) []Element {
	total := c.SpacingMM * float64(len(c.Slots)-1)
	for _, s := range c.Slots {
		total += s.HeightMM
	}

	elems := make([]Element, 0, len(c.Slots))
	y := region.Y + (region.H-total)/2
	for i, s := range c.Slots {
		elems = append(elems, Element{
			Kind: ElementCode,
			Slot: i,
			Rect: geom.Rect{
				X: label.X + (label.W-s.WidthMM)/2,
				Y: y,
				W: s.WidthMM,
				H: s.HeightMM,
			},
		})
		y += s.HeightMM + c.SpacingMM
	}
	return elems
}
