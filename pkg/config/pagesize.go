package config

import (
	"fmt"
	"strings"
)

// pageSizes holds the supported page formats as portrait width x height in
// millimeters.
var pageSizes = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// pageSize resolves a page size name, case-insensitively.
func pageSize(name string) ([2]float64, error) {
	if dims, ok := pageSizes[strings.ToUpper(name)]; ok {
		return dims, nil
	}
	return [2]float64{}, fmt.Errorf("unknown page size %q", name)
}

// mustPageSize resolves a page size name that Validate already accepted.
// Unknown names fall back to A4 rather than panicking.
func mustPageSize(name string) (w, h float64) {
	dims, err := pageSize(name)
	if err != nil {
		dims = pageSizes["A4"]
	}
	return dims[0], dims[1]
}
