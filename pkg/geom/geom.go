// Package geom provides the unit conversions and rectangle type shared by the
// layout engine, the code producers, and the document sinks.
//
// All physical positions in labelforge are expressed in millimeters from the
// top-left corner of the page. Raster sizes are expressed in pixels at a given
// resolution (DPI), and font sizes arrive in typographic points. The functions
// here are the only place those three unit systems meet.
package geom

import "math"

// MMPerInch is the number of millimeters in one inch.
const MMPerInch = 25.4

// PointsPerInch is the number of typographic points in one inch.
const PointsPerInch = 72.0

// MMToPx converts a physical length to pixels at the given resolution.
// The result is truncated, matching the raster producers which never round
// a code up beyond its configured physical size.
func MMToPx(mm float64, dpi int) int {
	return int(mm / MMPerInch * float64(dpi))
}

// PxToMM converts a pixel count at the given resolution back to millimeters.
func PxToMM(px int, dpi int) float64 {
	return float64(px) / float64(dpi) * MMPerInch
}

// PtToMM converts typographic points to millimeters (1 pt = 25.4/72 mm).
func PtToMM(pt float64) float64 {
	return pt * MMPerInch / PointsPerInch
}

// MMToPt converts millimeters to typographic points.
func MMToPt(mm float64) float64 {
	return mm * PointsPerInch / MMPerInch
}

// Rect is an axis-aligned rectangle in millimeters, with the origin at the
// top-left corner of the page (x grows right, y grows down).
type Rect struct {
	X, Y float64
	W, H float64
}

// Right returns the x coordinate of the rectangle's right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the rectangle's bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Contains reports whether inner lies fully within r, with tol millimeters
// of slack on every edge for floating point comparisons.
func (r Rect) Contains(inner Rect, tol float64) bool {
	return inner.X >= r.X-tol &&
		inner.Y >= r.Y-tol &&
		inner.Right() <= r.Right()+tol &&
		inner.Bottom() <= r.Bottom()+tol
}

// AlmostEqual reports whether two lengths are equal within tol millimeters.
func AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
