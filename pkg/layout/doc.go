// Package layout computes millimeter positions for labels on printed sheets.
//
// # Overview
//
// Given an immutable page geometry and label grid, this package answers three
// questions for every record in a run:
//
//   - Which slot (page, row, column) does the record occupy? ([Paginator])
//   - Where is that slot's label rectangle on the page? ([LabelRect])
//   - Where do the record's codes and text go inside the label? ([PositionContent])
//
// It also decides, once, whether the configuration is printable at all:
// [ComputeGrid] derives the grid from either explicit label dimensions or
// explicit per-row/per-column counts, and [ValidateFit] checks that the
// configured content physically fits inside one label. Both reject infeasible
// configurations before any record is processed; after that, every function
// in this package is pure and error-free.
//
// # Derivation Modes
//
// [ComputeGrid] supports two modes, selected by which fields of [GridSpec]
// are set:
//
//   - Dimensions given: the per-row and per-column counts are derived by
//     flooring, so the grid never overflows the usable area.
//   - Counts given: the label dimensions are derived by dividing the usable
//     area evenly, gaps accounted for.
//
// When both are given, dimensions win and the counts are recomputed; a
// notice is returned so the caller can surface the precedence to the user.
//
// # Coordinates
//
// All positions are millimeters from the top-left corner of the page
// (x grows right, y grows down), matching the sinks in [pkg/sink].
//
// [pkg/sink]: github.com/labelforge/labelforge/pkg/sink
package layout
