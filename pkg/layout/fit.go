package layout

import (
	"fmt"

	"github.com/labelforge/labelforge/pkg/errors"
)

// labelPaddingMM is the minimal internal padding kept between a side-by-side
// code group and the label's left/right edges.
const labelPaddingMM = 1.0

// ValidateFit checks that the configured label content physically fits inside
// one label of the grid. Footprints are additive: each slot's width/height
// already includes the quiet zone or border its producer adds.
//
// Every violated dimension is collected and reported in one aggregated
// error, so a user with an oversized code, too-tight spacing and an
// overflowing text strip sees all three at once.
func ValidateFit(grid LabelGrid, content ContentSpec) error {
	var vs []errors.Violation

	textBlock := 0.0
	if content.Text.Enabled() {
		textBlock = content.Text.HeightMM() + content.Text.MarginMM
	}

	switch content.Arrangement {
	case ArrangeSideBySide:
		vs = append(vs, fitSideBySide(grid, content, textBlock)...)
	default:
		vs = append(vs, fitStacked(grid, content, textBlock)...)
	}

	return errors.NewConfigError(errors.ErrCodeContentOverflow, vs)
}

// fitSideBySide checks a left-to-right code group: the summed footprints plus
// inter-code spacing must fit the label width minus internal padding, and the
// tallest slot plus the text block must fit the label height.
func fitSideBySide(grid LabelGrid, content ContentSpec, textBlock float64) []errors.Violation {
	var vs []errors.Violation

	requiredW := content.SpacingMM * float64(len(content.Slots)-1)
	tallest := 0.0
	for _, s := range content.Slots {
		requiredW += s.WidthMM
		if s.HeightMM > tallest {
			tallest = s.HeightMM
		}
	}
	availableW := grid.LabelWidthMM - 2*labelPaddingMM
	if requiredW > availableW {
		vs = append(vs, errors.Violation{
			Dimension:   "label width",
			RequiredMM:  requiredW,
			AvailableMM: availableW,
			Detail: fmt.Sprintf("side-by-side codes need %.2fmm, label offers %.2fmm width",
				requiredW, availableW),
		})
	}

	requiredH := tallest + textBlock
	if requiredH > grid.LabelHeightMM {
		vs = append(vs, errors.Violation{
			Dimension:   "label height",
			RequiredMM:  requiredH,
			AvailableMM: grid.LabelHeightMM,
			Detail: fmt.Sprintf("codes and text need %.2fmm, label offers %.2fmm height",
				requiredH, grid.LabelHeightMM),
		})
	}
	return vs
}

// fitStacked checks a top-to-bottom code group: summed footprints, spacing
// and the text block must fit the label height, and the widest slot must fit
// the label width.
func fitStacked(grid LabelGrid, content ContentSpec, textBlock float64) []errors.Violation {
	var vs []errors.Violation

	requiredH := content.SpacingMM*float64(len(content.Slots)-1) + textBlock
	for _, s := range content.Slots {
		requiredH += s.HeightMM
	}
	if requiredH > grid.LabelHeightMM {
		vs = append(vs, errors.Violation{
			Dimension:   "label height",
			RequiredMM:  requiredH,
			AvailableMM: grid.LabelHeightMM,
			Detail: fmt.Sprintf("stacked codes and text need %.2fmm, label offers %.2fmm height",
				requiredH, grid.LabelHeightMM),
		})
	}

	for _, s := range content.Slots {
		if s.WidthMM > grid.LabelWidthMM {
			vs = append(vs, errors.Violation{
				Dimension:   "label width",
				RequiredMM:  s.WidthMM,
				AvailableMM: grid.LabelWidthMM,
				Detail: fmt.Sprintf("%s footprint %.2fmm exceeds %.2fmm label width",
					s.Name, s.WidthMM, grid.LabelWidthMM),
			})
		}
	}
	return vs
}
