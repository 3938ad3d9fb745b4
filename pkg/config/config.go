// Package config loads, merges and validates run configuration.
//
// Configuration is layered: built-in defaults, then an optional TOML file,
// then explicit overrides (CLI flags or API request fields). Validation
// normalizes enum spellings and reports every scalar problem at once.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/layout"
)

// Input selects where identifier records come from. CSV is the default
// source; when Mongo.URI is set the records are read from MongoDB instead.
type Input struct {
	CSV   string     `toml:"csv" json:"csv"`
	Mongo MongoInput `toml:"mongo" json:"mongo"`
}

// MongoInput points at a MongoDB collection of identifier documents.
type MongoInput struct {
	URI        string `toml:"uri" json:"uri"`
	Database   string `toml:"database" json:"database"`
	Collection string `toml:"collection" json:"collection"`
}

// Output controls the produced document and its raster resolution.
type Output struct {
	File        string  `toml:"file" json:"file"`
	PageSize    string  `toml:"page_size" json:"page_size"`
	Orientation string  `toml:"orientation" json:"orientation"`
	MarginMM    float64 `toml:"margin_mm" json:"margin_mm"`
	DPI         int     `toml:"dpi" json:"dpi"`
	Overwrite   bool    `toml:"overwrite" json:"overwrite"`
}

// Layout controls the label grid and the arrangement of codes in a label.
// Zero label dimensions mean "not configured"; the grid counts are then
// authoritative.
type Layout struct {
	LabelWidthMM    float64 `toml:"label_width_mm" json:"label_width_mm"`
	LabelHeightMM   float64 `toml:"label_height_mm" json:"label_height_mm"`
	LabelsPerRow    int     `toml:"labels_per_row" json:"labels_per_row"`
	LabelsPerColumn int     `toml:"labels_per_column" json:"labels_per_column"`
	HorizontalGapMM float64 `toml:"horizontal_gap_mm" json:"horizontal_gap_mm"`
	VerticalGapMM   float64 `toml:"vertical_gap_mm" json:"vertical_gap_mm"`
	CodeArrangement string  `toml:"code_arrangement" json:"code_arrangement"`
	CodeSpacingMM   float64 `toml:"code_spacing_mm" json:"code_spacing_mm"`
}

// QR configures the QR code producer. QuietZone is in module units.
type QR struct {
	SizeMM          float64 `toml:"size_mm" json:"size_mm"`
	ErrorCorrection string  `toml:"error_correction" json:"error_correction"`
	QuietZone       int     `toml:"quiet_zone" json:"quiet_zone"`
}

// Barcode configures the linear barcode producer. QuietZoneMM is physical
// space added on both sides of the bars.
type Barcode struct {
	Symbology   string  `toml:"symbology" json:"symbology"`
	HeightMM    float64 `toml:"height_mm" json:"height_mm"`
	WidthFactor float64 `toml:"width_factor" json:"width_factor"`
	QuietZoneMM float64 `toml:"quiet_zone_mm" json:"quiet_zone_mm"`
}

// Text configures the human-readable text strip.
type Text struct {
	FontSizePt float64 `toml:"font_size" json:"font_size"`
	FontName   string  `toml:"font_name" json:"font_name"`
	Position   string  `toml:"position" json:"position"`
	Alignment  string  `toml:"alignment" json:"alignment"`
	MarginMM   float64 `toml:"margin_mm" json:"margin_mm"`
}

// Aruco configures ArUco fiducial marker generation. When enabled, markers
// replace the QR/barcode pair on every label.
type Aruco struct {
	Enabled       bool    `toml:"enabled" json:"enabled"`
	Dictionary    string  `toml:"dictionary" json:"dictionary"`
	PatternSizeMM float64 `toml:"pattern_size_mm" json:"pattern_size_mm"`
	BorderBits    int     `toml:"border_bits" json:"border_bits"`
	QuietZoneMM   float64 `toml:"quiet_zone_mm" json:"quiet_zone_mm"`
}

// AprilTag configures AprilTag fiducial marker generation.
type AprilTag struct {
	Enabled       bool    `toml:"enabled" json:"enabled"`
	Family        string  `toml:"family" json:"family"`
	PatternSizeMM float64 `toml:"pattern_size_mm" json:"pattern_size_mm"`
	BorderMM      float64 `toml:"border_mm" json:"border_mm"`
	QuietZoneMM   float64 `toml:"quiet_zone_mm" json:"quiet_zone_mm"`
}

// IDAssignment controls automatic numeric marker ids for records that do not
// carry one. Ids are assigned as StartIndex plus the record's position.
type IDAssignment struct {
	AutoAssignNumericIDs bool `toml:"auto_assign_numeric_ids" json:"auto_assign_numeric_ids"`
	StartIndex           int  `toml:"start_index" json:"start_index"`
}

// Cache selects the image cache backend. "file" writes rendered rasters
// under Dir, "redis" uses a shared Redis instance, "none" disables caching.
type Cache struct {
	Backend   string `toml:"backend" json:"backend"`
	Dir       string `toml:"dir" json:"dir"`
	RedisAddr string `toml:"redis_addr" json:"redis_addr"`
	TTLHours  int    `toml:"ttl_hours" json:"ttl_hours"`
}

// Config is the full run configuration.
type Config struct {
	Input    Input        `toml:"input" json:"input"`
	Output   Output       `toml:"output" json:"output"`
	Layout   Layout       `toml:"layout" json:"layout"`
	QR       QR           `toml:"qr" json:"qr"`
	Barcode  Barcode      `toml:"barcode" json:"barcode"`
	Text     Text         `toml:"text" json:"text"`
	Aruco    Aruco        `toml:"aruco" json:"aruco"`
	AprilTag AprilTag     `toml:"apriltag" json:"apriltag"`
	IDs      IDAssignment `toml:"id_assignment" json:"id_assignment"`
	Cache    Cache        `toml:"cache" json:"cache"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input: Input{CSV: "ids.csv"},
		Output: Output{
			File:        "output.pdf",
			PageSize:    "A4",
			Orientation: "portrait",
			MarginMM:    10,
			DPI:         300,
		},
		Layout: Layout{
			LabelsPerRow:    3,
			LabelsPerColumn: 7,
			HorizontalGapMM: 5,
			VerticalGapMM:   5,
			CodeArrangement: "horizontal",
			CodeSpacingMM:   5,
		},
		QR: QR{
			SizeMM:          25,
			ErrorCorrection: "M",
			QuietZone:       4,
		},
		Barcode: Barcode{
			Symbology:   "code128",
			HeightMM:    15,
			WidthFactor: 2,
			QuietZoneMM: 10,
		},
		Text: Text{
			FontSizePt: 10,
			FontName:   "Helvetica",
			Position:   "bottom",
			Alignment:  "center",
			MarginMM:   2,
		},
		Aruco: Aruco{
			Dictionary:    "DICT_4X4_50",
			PatternSizeMM: 20,
			BorderBits:    1,
			QuietZoneMM:   2,
		},
		AprilTag: AprilTag{
			Family:        "tag25h9",
			PatternSizeMM: 20,
			BorderMM:      2,
			QuietZoneMM:   2,
		},
		IDs: IDAssignment{
			AutoAssignNumericIDs: true,
			StartIndex:           0,
		},
		Cache: Cache{
			Backend:  "file",
			Dir:      ".labelforge-cache",
			TTLHours: 24 * 7,
		},
	}
}

// Load reads a TOML file on top of the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "configuration file %s", path)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse configuration file %s", path)
	}
	return cfg, nil
}

// validSymbologies maps accepted symbology spellings to their canonical
// form. i2of5 is an alias for itf.
var validSymbologies = map[string]string{
	"code128": "code128",
	"code39":  "code39",
	"ean13":   "ean13",
	"i2of5":   "itf",
	"itf":     "itf",
}

// Validate normalizes enum fields in place and checks every scalar
// constraint. All problems are reported in one aggregated error.
//
// Geometric feasibility (whether the grid and content actually fit) is not
// checked here; that is the layout engine's job.
func (c *Config) Validate() error {
	var vs []errors.Violation

	bad := func(format string, args ...any) {
		vs = append(vs, errors.Violation{Detail: fmt.Sprintf(format, args...)})
	}

	if _, err := pageSize(c.Output.PageSize); err != nil {
		bad("unknown page size %q", c.Output.PageSize)
	}
	switch strings.ToLower(c.Output.Orientation) {
	case "portrait", "landscape":
		c.Output.Orientation = strings.ToLower(c.Output.Orientation)
	default:
		bad("orientation must be portrait or landscape, got %q", c.Output.Orientation)
	}
	if c.Output.DPI < 72 || c.Output.DPI > 600 {
		bad("DPI must be between 72 and 600, got %d", c.Output.DPI)
	}
	if c.Output.MarginMM < 0 {
		bad("margin must be non-negative, got %g", c.Output.MarginMM)
	}

	switch ec := strings.ToUpper(c.QR.ErrorCorrection); ec {
	case "L", "M", "Q", "H":
		c.QR.ErrorCorrection = ec
	default:
		bad("QR error correction must be L, M, Q or H, got %q", c.QR.ErrorCorrection)
	}
	if c.QR.SizeMM <= 0 {
		bad("QR size must be positive, got %g", c.QR.SizeMM)
	}
	if c.QR.QuietZone < 0 {
		bad("QR quiet zone must be non-negative, got %d", c.QR.QuietZone)
	}

	if canonical, ok := validSymbologies[strings.ToLower(c.Barcode.Symbology)]; ok {
		c.Barcode.Symbology = canonical
	} else {
		bad("unsupported barcode symbology %q (supported: code128, code39, ean13, i2of5, itf)",
			c.Barcode.Symbology)
	}
	if c.Barcode.HeightMM <= 0 {
		bad("barcode height must be positive, got %g", c.Barcode.HeightMM)
	}
	if c.Barcode.WidthFactor <= 0 {
		bad("barcode width factor must be positive, got %g", c.Barcode.WidthFactor)
	}

	if c.Text.FontSizePt < 6 || c.Text.FontSizePt > 72 {
		bad("font size must be between 6 and 72 points, got %g", c.Text.FontSizePt)
	}
	switch p := strings.ToLower(c.Text.Position); p {
	case "top", "bottom", "none":
		c.Text.Position = p
	default:
		bad("text position must be top, bottom or none, got %q", c.Text.Position)
	}
	switch a := strings.ToLower(c.Text.Alignment); a {
	case "left", "center", "right":
		c.Text.Alignment = a
	default:
		bad("text alignment must be left, center or right, got %q", c.Text.Alignment)
	}
	if c.Text.MarginMM < 0 {
		bad("text margin must be non-negative, got %g", c.Text.MarginMM)
	}

	switch arr := strings.ToLower(c.Layout.CodeArrangement); arr {
	case "horizontal", "vertical":
		c.Layout.CodeArrangement = arr
	default:
		bad("code arrangement must be horizontal or vertical, got %q", c.Layout.CodeArrangement)
	}
	if c.Layout.CodeSpacingMM < 0 {
		bad("code spacing must be non-negative, got %g", c.Layout.CodeSpacingMM)
	}

	if c.Aruco.Enabled && c.AprilTag.Enabled {
		bad("aruco and apriltag modes are mutually exclusive")
	}
	if c.Aruco.Enabled {
		if c.Aruco.PatternSizeMM <= 0 {
			bad("aruco pattern size must be positive, got %g", c.Aruco.PatternSizeMM)
		}
		if c.Aruco.BorderBits < 1 {
			bad("aruco border bits must be at least 1, got %d", c.Aruco.BorderBits)
		}
	}
	if c.AprilTag.Enabled && c.AprilTag.PatternSizeMM <= 0 {
		bad("apriltag pattern size must be positive, got %g", c.AprilTag.PatternSizeMM)
	}

	switch b := strings.ToLower(c.Cache.Backend); b {
	case "file", "redis", "none":
		c.Cache.Backend = b
	default:
		bad("cache backend must be file, redis or none, got %q", c.Cache.Backend)
	}

	if err := errors.NewConfigError(errors.ErrCodeInvalidConfig, vs); err != nil {
		return err
	}

	// Force the .pdf extension after everything else checked out.
	if ext := strings.ToLower(filepath.Ext(c.Output.File)); ext != ".pdf" {
		c.Output.File = strings.TrimSuffix(c.Output.File, filepath.Ext(c.Output.File)) + ".pdf"
	}
	return nil
}

// MarkerMode reports whether fiducial markers replace the QR/barcode pair.
func (c *Config) MarkerMode() bool {
	return c.Aruco.Enabled || c.AprilTag.Enabled
}

// PageGeometry resolves the configured page size and orientation into
// physical page geometry.
func (c *Config) PageGeometry() layout.PageGeometry {
	w, h := mustPageSize(c.Output.PageSize)
	if c.Output.Orientation == "landscape" {
		w, h = h, w
	}
	return layout.PageGeometry{WidthMM: w, HeightMM: h, MarginMM: c.Output.MarginMM}
}

// GridSpec returns the grid derivation input for the layout engine.
// Label dimensions, when both are set, take precedence over grid counts;
// the layout engine reports the precedence notice.
func (c *Config) GridSpec() layout.GridSpec {
	return layout.GridSpec{
		LabelWidthMM:  c.Layout.LabelWidthMM,
		LabelHeightMM: c.Layout.LabelHeightMM,
		PerRow:        c.Layout.LabelsPerRow,
		PerColumn:     c.Layout.LabelsPerColumn,
		HGapMM:        c.Layout.HorizontalGapMM,
		VGapMM:        c.Layout.VerticalGapMM,
	}
}

// TextSpec maps the configured text options onto layout terms.
// left/right become start/end.
func (c *Config) TextSpec() layout.TextSpec {
	var pos layout.TextPosition
	switch c.Text.Position {
	case "top":
		pos = layout.TextTop
	case "bottom":
		pos = layout.TextBottom
	default:
		pos = layout.TextNone
	}
	var align layout.TextAlign
	switch c.Text.Alignment {
	case "left":
		align = layout.AlignStart
	case "right":
		align = layout.AlignEnd
	default:
		align = layout.AlignCenter
	}
	return layout.TextSpec{
		Position:   pos,
		Align:      align,
		FontSizePt: c.Text.FontSizePt,
		MarginMM:   c.Text.MarginMM,
	}
}

// Arrangement returns the configured code arrangement in layout terms.
func (c *Config) Arrangement() layout.Arrangement {
	if c.Layout.CodeArrangement == "vertical" {
		return layout.ArrangeStacked
	}
	return layout.ArrangeSideBySide
}
