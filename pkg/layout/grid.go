package layout

import (
	"fmt"
	"math"

	"github.com/labelforge/labelforge/pkg/errors"
)

// GridSpec is the raw layout configuration handed to [ComputeGrid]. A zero
// value means "not configured" for the optional fields.
type GridSpec struct {
	LabelWidthMM  float64 // 0 = unset
	LabelHeightMM float64 // 0 = unset
	PerRow        int     // 0 = unset
	PerColumn     int     // 0 = unset
	HGapMM        float64
	VGapMM        float64
}

// HasDimensions reports whether explicit label dimensions are configured.
func (s GridSpec) HasDimensions() bool {
	return s.LabelWidthMM > 0 && s.LabelHeightMM > 0
}

// HasCounts reports whether explicit per-row/per-column counts are configured.
func (s GridSpec) HasCounts() bool {
	return s.PerRow > 0 && s.PerColumn > 0
}

// ComputeGrid derives the label grid for a run.
//
// Mode A (dimensions given): the counts are derived by flooring
// (usable+gap)/(label+gap) per axis, so the grid never overflows the usable
// area. Fails when fewer than one label fits on either axis.
//
// Mode B (counts given, dimensions absent): the label dimensions are derived
// by dividing the usable area evenly. Fails when a derived dimension is not
// positive.
//
// When both dimensions and counts are configured, dimensions win and the
// counts are recomputed via Mode A; a notice describing the precedence is
// returned alongside the grid. Notices are never fatal.
//
// All geometric violations found are aggregated into a single error so the
// user corrects everything in one pass.
func ComputeGrid(page PageGeometry, spec GridSpec) (LabelGrid, []string, error) {
	if err := validatePage(page); err != nil {
		return LabelGrid{}, nil, err
	}

	var notices []string
	if spec.HasDimensions() && spec.HasCounts() {
		notices = append(notices,
			"both label dimensions and grid counts configured; dimensions take precedence, counts recomputed")
	}

	switch {
	case spec.HasDimensions():
		grid, err := gridFromDimensions(page, spec)
		return grid, notices, err
	case spec.HasCounts():
		grid, err := gridFromCounts(page, spec)
		return grid, notices, err
	default:
		return LabelGrid{}, nil, errors.New(errors.ErrCodeInvalidConfig,
			"must configure either label dimensions or labels per row/column")
	}
}

// validatePage checks the page invariants: non-negative margin and at least
// MinUsableMM of usable space on both axes.
func validatePage(page PageGeometry) error {
	var vs []errors.Violation
	if page.MarginMM < 0 {
		vs = append(vs, errors.Violation{
			Dimension: "margin",
			Detail:    fmt.Sprintf("margin must be non-negative, got %.2fmm", page.MarginMM),
		})
	}
	if uw := page.UsableWidthMM(); uw < MinUsableMM {
		vs = append(vs, errors.Violation{
			Dimension:   "usable width",
			RequiredMM:  MinUsableMM,
			AvailableMM: uw,
			Detail: fmt.Sprintf("margins leave %.2fmm usable width, need at least %.0fmm",
				uw, MinUsableMM),
		})
	}
	if uh := page.UsableHeightMM(); uh < MinUsableMM {
		vs = append(vs, errors.Violation{
			Dimension:   "usable height",
			RequiredMM:  MinUsableMM,
			AvailableMM: uh,
			Detail: fmt.Sprintf("margins leave %.2fmm usable height, need at least %.0fmm",
				uh, MinUsableMM),
		})
	}
	return errors.NewConfigError(errors.ErrCodeInsufficientSpace, vs)
}

// gridFromDimensions implements Mode A. Counts are floored, never rounded,
// so the resulting grid is the largest that still fits the usable area.
func gridFromDimensions(page PageGeometry, spec GridSpec) (LabelGrid, error) {
	perRow := int(math.Floor((page.UsableWidthMM() + spec.HGapMM) / (spec.LabelWidthMM + spec.HGapMM)))
	perColumn := int(math.Floor((page.UsableHeightMM() + spec.VGapMM) / (spec.LabelHeightMM + spec.VGapMM)))

	var vs []errors.Violation
	if perRow < 1 {
		vs = append(vs, errors.Violation{
			Dimension:   "label width",
			RequiredMM:  spec.LabelWidthMM,
			AvailableMM: page.UsableWidthMM(),
			Detail: fmt.Sprintf("label width %.2fmm does not fit %.2fmm usable width",
				spec.LabelWidthMM, page.UsableWidthMM()),
		})
	}
	if perColumn < 1 {
		vs = append(vs, errors.Violation{
			Dimension:   "label height",
			RequiredMM:  spec.LabelHeightMM,
			AvailableMM: page.UsableHeightMM(),
			Detail: fmt.Sprintf("label height %.2fmm does not fit %.2fmm usable height",
				spec.LabelHeightMM, page.UsableHeightMM()),
		})
	}
	if err := errors.NewConfigError(errors.ErrCodeInsufficientSpace, vs); err != nil {
		return LabelGrid{}, err
	}

	return LabelGrid{
		PerRow:        perRow,
		PerColumn:     perColumn,
		LabelWidthMM:  spec.LabelWidthMM,
		LabelHeightMM: spec.LabelHeightMM,
		HGapMM:        spec.HGapMM,
		VGapMM:        spec.VGapMM,
	}, nil
}

// gridFromCounts implements Mode B: label dimensions derived from counts.
func gridFromCounts(page PageGeometry, spec GridSpec) (LabelGrid, error) {
	labelW := (page.UsableWidthMM() - float64(spec.PerRow-1)*spec.HGapMM) / float64(spec.PerRow)
	labelH := (page.UsableHeightMM() - float64(spec.PerColumn-1)*spec.VGapMM) / float64(spec.PerColumn)

	var vs []errors.Violation
	if labelW <= 0 {
		vs = append(vs, errors.Violation{
			Dimension:   "label width",
			AvailableMM: page.UsableWidthMM(),
			Detail: fmt.Sprintf("%d labels per row with %.2fmm gaps leave no label width",
				spec.PerRow, spec.HGapMM),
		})
	}
	if labelH <= 0 {
		vs = append(vs, errors.Violation{
			Dimension:   "label height",
			AvailableMM: page.UsableHeightMM(),
			Detail: fmt.Sprintf("%d labels per column with %.2fmm gaps leave no label height",
				spec.PerColumn, spec.VGapMM),
		})
	}
	if err := errors.NewConfigError(errors.ErrCodeInsufficientSpace, vs); err != nil {
		return LabelGrid{}, err
	}

	return LabelGrid{
		PerRow:        spec.PerRow,
		PerColumn:     spec.PerColumn,
		LabelWidthMM:  labelW,
		LabelHeightMM: labelH,
		HGapMM:        spec.HGapMM,
		VGapMM:        spec.VGapMM,
	}, nil
}
