// Package pipeline drives sheet generation end to end: it resolves the
// label grid from configuration, validates that the configured content fits
// a label, renders one code raster set per record (cache-aware), and emits
// positioned labels through a [sink.Renderer] until the document is
// finalized.
//
// The package has two layers. [Engine] is the low-level state machine; it
// owns the paginator and the renderer and emits one label at a time.
// [Runner] is the high-level orchestrator: it builds the producers for the
// configured label family, walks the records, and turns the whole run into
// a [Result].
package pipeline

import (
	"time"
)

// Skip records one dropped record and why it was dropped.
type Skip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result summarizes one generation run.
type Result struct {
	RunID     string        `json:"run_id"`
	Generated int           `json:"generated"`
	Skipped   int           `json:"skipped"`
	Pages     int           `json:"pages"`
	Notices   []string      `json:"notices,omitempty"`
	Skips     []Skip        `json:"skips,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Plan is the dry-run answer: the resolved grid and the page count a record
// set would produce, without rendering anything.
type Plan struct {
	MarkerMode bool `json:"marker_mode"`

	PerRow    int `json:"per_row"`
	PerColumn int `json:"per_column"`
	PerPage   int `json:"per_page"`

	LabelWidthMM  float64 `json:"label_width_mm"`
	LabelHeightMM float64 `json:"label_height_mm"`

	Records int `json:"records"`
	Pages   int `json:"pages"`

	Notices []string `json:"notices,omitempty"`
}
