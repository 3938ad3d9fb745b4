package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/labelforge/labelforge/pkg/config"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/pipeline"
	"github.com/labelforge/labelforge/pkg/records"
	"github.com/labelforge/labelforge/pkg/sink"
)

// generateOpts holds flags that control the run itself rather than the
// sheet configuration.
type generateOpts struct {
	configPath string
	noCache    bool
	debug      bool
	debugDir   string
	dryRun     bool
	assumeYes  bool
}

// generateCommand creates the generate command: records in, PDF out.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts
	fl := config.Default()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a PDF label sheet from identifier records",
		Long: `Generate reads identifier records from a CSV file or MongoDB collection
and renders them as a multi-page PDF label sheet. Every flag overrides the
matching key of the configuration file; unset flags keep the file's (or
built-in) values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd.Flags(), &cfg, &fl)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), &cfg, &opts)
		},
	}

	bindConfigFlags(cmd, &fl)
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "dump every generated code image as PNG")
	cmd.Flags().StringVar(&opts.debugDir, "debug-dir", "debug_images", "directory for --debug dumps")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "resolve the layout and report it without rendering")
	cmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, "overwrite the output file without asking")

	return cmd
}

// planCommand resolves the layout for a record set without rendering.
func (c *CLI) planCommand() *cobra.Command {
	var configPath string
	fl := config.Default()

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the resolved label grid and page count without rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd.Flags(), &cfg, &fl)
			if err := cfg.Validate(); err != nil {
				return err
			}

			recs, warnings, err := c.loadRecords(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				printWarning("%s", w)
			}

			plan, err := c.newRunner(&cfg, true).Plan(cfg, recs)
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		},
	}

	bindConfigFlags(cmd, &fl)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")

	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// bindConfigFlags registers one flag per overridable configuration key,
// bound to the shadow config fl. Only flags the user actually set are
// copied over the loaded configuration.
func bindConfigFlags(cmd *cobra.Command, fl *config.Config) {
	f := cmd.Flags()

	f.StringVarP(&fl.Input.CSV, "csv", "i", fl.Input.CSV, "CSV file with identifier records")
	f.StringVar(&fl.Input.Mongo.URI, "mongo-uri", "", "MongoDB connection URI (overrides --csv)")
	f.StringVar(&fl.Input.Mongo.Database, "mongo-db", "", "MongoDB database name")
	f.StringVar(&fl.Input.Mongo.Collection, "mongo-collection", "", "MongoDB collection name")

	f.StringVarP(&fl.Output.File, "output", "o", fl.Output.File, "output PDF file")
	f.StringVar(&fl.Output.PageSize, "page-size", fl.Output.PageSize, "page size: A3, A4, A5, LETTER, LEGAL")
	f.StringVar(&fl.Output.Orientation, "orientation", fl.Output.Orientation, "page orientation: portrait, landscape")
	f.Float64Var(&fl.Output.MarginMM, "margin", fl.Output.MarginMM, "page margin in mm")
	f.IntVar(&fl.Output.DPI, "dpi", fl.Output.DPI, "raster resolution (72-600)")
	f.BoolVarP(&fl.Output.Overwrite, "overwrite", "f", false, "overwrite the output file if it exists")

	f.Float64Var(&fl.Layout.LabelWidthMM, "label-width", 0, "label width in mm (takes precedence over grid counts)")
	f.Float64Var(&fl.Layout.LabelHeightMM, "label-height", 0, "label height in mm")
	f.IntVar(&fl.Layout.LabelsPerRow, "labels-per-row", fl.Layout.LabelsPerRow, "labels per row")
	f.IntVar(&fl.Layout.LabelsPerColumn, "labels-per-column", fl.Layout.LabelsPerColumn, "labels per column")
	f.Float64Var(&fl.Layout.HorizontalGapMM, "horizontal-gap", fl.Layout.HorizontalGapMM, "horizontal gap between labels in mm")
	f.Float64Var(&fl.Layout.VerticalGapMM, "vertical-gap", fl.Layout.VerticalGapMM, "vertical gap between labels in mm")
	f.StringVar(&fl.Layout.CodeArrangement, "arrangement", fl.Layout.CodeArrangement, "code arrangement: horizontal, vertical")
	f.Float64Var(&fl.Layout.CodeSpacingMM, "code-spacing", fl.Layout.CodeSpacingMM, "spacing between codes in mm")

	f.Float64Var(&fl.QR.SizeMM, "qr-size", fl.QR.SizeMM, "QR code size in mm")
	f.StringVar(&fl.QR.ErrorCorrection, "error-correction", fl.QR.ErrorCorrection, "QR error correction: L, M, Q, H")
	f.IntVar(&fl.QR.QuietZone, "qr-quiet-zone", fl.QR.QuietZone, "QR quiet zone in modules")

	f.StringVar(&fl.Barcode.Symbology, "symbology", fl.Barcode.Symbology, "barcode symbology: code128, code39, ean13, itf")
	f.Float64Var(&fl.Barcode.HeightMM, "barcode-height", fl.Barcode.HeightMM, "barcode height in mm")
	f.Float64Var(&fl.Barcode.WidthFactor, "width-factor", fl.Barcode.WidthFactor, "barcode module width factor")
	f.Float64Var(&fl.Barcode.QuietZoneMM, "barcode-quiet-zone", fl.Barcode.QuietZoneMM, "barcode quiet zone in mm")

	f.Float64Var(&fl.Text.FontSizePt, "font-size", fl.Text.FontSizePt, "text size in points (6-72)")
	f.StringVar(&fl.Text.FontName, "font-name", fl.Text.FontName, "text font name")
	f.StringVar(&fl.Text.Position, "text-position", fl.Text.Position, "text position: top, bottom, none")
	f.StringVar(&fl.Text.Alignment, "text-alignment", fl.Text.Alignment, "text alignment: left, center, right")
	f.Float64Var(&fl.Text.MarginMM, "text-margin", fl.Text.MarginMM, "gap between text and codes in mm")

	f.BoolVar(&fl.Aruco.Enabled, "aruco", false, "generate ArUco markers instead of QR/barcode pairs")
	f.StringVar(&fl.Aruco.Dictionary, "aruco-dict", fl.Aruco.Dictionary, "ArUco dictionary")
	f.Float64Var(&fl.Aruco.PatternSizeMM, "aruco-size", fl.Aruco.PatternSizeMM, "ArUco pattern size in mm")
	f.IntVar(&fl.Aruco.BorderBits, "border-bits", fl.Aruco.BorderBits, "ArUco border width in bits")

	f.BoolVar(&fl.AprilTag.Enabled, "apriltag", false, "generate AprilTag markers instead of QR/barcode pairs")
	f.StringVar(&fl.AprilTag.Family, "apriltag-family", fl.AprilTag.Family, "AprilTag family")
	f.Float64Var(&fl.AprilTag.PatternSizeMM, "apriltag-size", fl.AprilTag.PatternSizeMM, "AprilTag pattern size in mm")
	f.Float64Var(&fl.AprilTag.BorderMM, "apriltag-border", fl.AprilTag.BorderMM, "AprilTag border in mm")

	f.BoolVar(&fl.IDs.AutoAssignNumericIDs, "auto-assign-numeric-ids", fl.IDs.AutoAssignNumericIDs, "assign sequential marker ids to records without one")
	f.IntVar(&fl.IDs.StartIndex, "start-index", fl.IDs.StartIndex, "first auto-assigned marker id")
}

// flagCopiers maps a flag name to the copy of its configuration field.
var flagCopiers = map[string]func(dst, src *config.Config){
	"csv":              func(d, s *config.Config) { d.Input.CSV = s.Input.CSV },
	"mongo-uri":        func(d, s *config.Config) { d.Input.Mongo.URI = s.Input.Mongo.URI },
	"mongo-db":         func(d, s *config.Config) { d.Input.Mongo.Database = s.Input.Mongo.Database },
	"mongo-collection": func(d, s *config.Config) { d.Input.Mongo.Collection = s.Input.Mongo.Collection },

	"output":      func(d, s *config.Config) { d.Output.File = s.Output.File },
	"page-size":   func(d, s *config.Config) { d.Output.PageSize = s.Output.PageSize },
	"orientation": func(d, s *config.Config) { d.Output.Orientation = s.Output.Orientation },
	"margin":      func(d, s *config.Config) { d.Output.MarginMM = s.Output.MarginMM },
	"dpi":         func(d, s *config.Config) { d.Output.DPI = s.Output.DPI },
	"overwrite":   func(d, s *config.Config) { d.Output.Overwrite = s.Output.Overwrite },

	"label-width":       func(d, s *config.Config) { d.Layout.LabelWidthMM = s.Layout.LabelWidthMM },
	"label-height":      func(d, s *config.Config) { d.Layout.LabelHeightMM = s.Layout.LabelHeightMM },
	"labels-per-row":    func(d, s *config.Config) { d.Layout.LabelsPerRow = s.Layout.LabelsPerRow },
	"labels-per-column": func(d, s *config.Config) { d.Layout.LabelsPerColumn = s.Layout.LabelsPerColumn },
	"horizontal-gap":    func(d, s *config.Config) { d.Layout.HorizontalGapMM = s.Layout.HorizontalGapMM },
	"vertical-gap":      func(d, s *config.Config) { d.Layout.VerticalGapMM = s.Layout.VerticalGapMM },
	"arrangement":       func(d, s *config.Config) { d.Layout.CodeArrangement = s.Layout.CodeArrangement },
	"code-spacing":      func(d, s *config.Config) { d.Layout.CodeSpacingMM = s.Layout.CodeSpacingMM },

	"qr-size":          func(d, s *config.Config) { d.QR.SizeMM = s.QR.SizeMM },
	"error-correction": func(d, s *config.Config) { d.QR.ErrorCorrection = s.QR.ErrorCorrection },
	"qr-quiet-zone":    func(d, s *config.Config) { d.QR.QuietZone = s.QR.QuietZone },

	"symbology":          func(d, s *config.Config) { d.Barcode.Symbology = s.Barcode.Symbology },
	"barcode-height":     func(d, s *config.Config) { d.Barcode.HeightMM = s.Barcode.HeightMM },
	"width-factor":       func(d, s *config.Config) { d.Barcode.WidthFactor = s.Barcode.WidthFactor },
	"barcode-quiet-zone": func(d, s *config.Config) { d.Barcode.QuietZoneMM = s.Barcode.QuietZoneMM },

	"font-size":      func(d, s *config.Config) { d.Text.FontSizePt = s.Text.FontSizePt },
	"font-name":      func(d, s *config.Config) { d.Text.FontName = s.Text.FontName },
	"text-position":  func(d, s *config.Config) { d.Text.Position = s.Text.Position },
	"text-alignment": func(d, s *config.Config) { d.Text.Alignment = s.Text.Alignment },
	"text-margin":    func(d, s *config.Config) { d.Text.MarginMM = s.Text.MarginMM },

	"aruco":       func(d, s *config.Config) { d.Aruco.Enabled = s.Aruco.Enabled },
	"aruco-dict":  func(d, s *config.Config) { d.Aruco.Dictionary = s.Aruco.Dictionary },
	"aruco-size":  func(d, s *config.Config) { d.Aruco.PatternSizeMM = s.Aruco.PatternSizeMM },
	"border-bits": func(d, s *config.Config) { d.Aruco.BorderBits = s.Aruco.BorderBits },

	"apriltag":        func(d, s *config.Config) { d.AprilTag.Enabled = s.AprilTag.Enabled },
	"apriltag-family": func(d, s *config.Config) { d.AprilTag.Family = s.AprilTag.Family },
	"apriltag-size":   func(d, s *config.Config) { d.AprilTag.PatternSizeMM = s.AprilTag.PatternSizeMM },
	"apriltag-border": func(d, s *config.Config) { d.AprilTag.BorderMM = s.AprilTag.BorderMM },

	"auto-assign-numeric-ids": func(d, s *config.Config) { d.IDs.AutoAssignNumericIDs = s.IDs.AutoAssignNumericIDs },
	"start-index":             func(d, s *config.Config) { d.IDs.StartIndex = s.IDs.StartIndex },
}

// applyFlagOverrides copies every flag the user explicitly set from the
// shadow config onto the loaded one.
func applyFlagOverrides(flags *pflag.FlagSet, dst, src *config.Config) {
	flags.Visit(func(f *pflag.Flag) {
		if cp, ok := flagCopiers[f.Name]; ok {
			cp(dst, src)
		}
	})
}

// loadRecords reads records from the configured source: MongoDB when a URI
// is set, the CSV file otherwise.
func (c *CLI) loadRecords(ctx context.Context, cfg *config.Config) ([]records.Record, []string, error) {
	var src records.Source
	if cfg.Input.Mongo.URI != "" {
		src = records.NewMongoSource(cfg.Input.Mongo.URI, cfg.Input.Mongo.Database, cfg.Input.Mongo.Collection)
	} else {
		src = records.NewCSVSource(cfg.Input.CSV)
	}
	return src.Load(ctx)
}

func (c *CLI) runGenerate(ctx context.Context, cfg *config.Config, opts *generateOpts) error {
	prog := newProgress(c.Logger)

	recs, warnings, err := c.loadRecords(ctx, cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printWarning("%s", w)
	}
	printInfo("Loaded %d records", len(recs))

	runner := c.newRunner(cfg, opts.noCache)

	if opts.dryRun {
		plan, err := runner.Plan(*cfg, recs)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	}

	if err := c.checkOverwrite(cfg, opts); err != nil {
		return err
	}

	var renderer sink.Renderer = sink.NewPDF(cfg.PageGeometry(), cfg.Text.FontName)
	if opts.debug {
		dr, err := sink.NewDebugRenderer(renderer, opts.debugDir)
		if err != nil {
			return err
		}
		renderer = dr
		printDetail("debug images: %s", opts.debugDir)
	}

	// The document is rendered in memory; a failed run, including a rejected
	// configuration, leaves any existing output file untouched.
	var buf bytes.Buffer
	sp := newSpinnerWithContext(ctx, "Rendering labels...")
	sp.Start()
	res, err := runner.Execute(ctx, *cfg, recs, renderer, &buf)
	sp.Stop()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Output.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create output directory %s", dir)
		}
	}
	if err := os.WriteFile(cfg.Output.File, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", cfg.Output.File)
	}

	for _, n := range res.Notices {
		printWarning("%s", n)
	}
	printSuccess("Generated %d labels on %d pages", res.Generated, res.Pages)
	if res.Skipped > 0 {
		printWarning("Skipped %d records", res.Skipped)
		for _, s := range res.Skips {
			printDetail("%s: %s", s.ID, s.Reason)
		}
	}
	printFile(cfg.Output.File)
	prog.done(fmt.Sprintf("Run %s complete", res.RunID))
	return nil
}

// checkOverwrite enforces the overwrite policy for the output file: an
// existing file needs --overwrite, --yes, or interactive confirmation.
func (c *CLI) checkOverwrite(cfg *config.Config, opts *generateOpts) error {
	if cfg.Output.Overwrite || opts.assumeYes {
		return nil
	}
	if _, err := os.Stat(cfg.Output.File); err != nil {
		return nil
	}
	if !isInteractive() {
		return errors.New(errors.ErrCodeFileExists,
			"%s already exists (use --overwrite to replace it)", cfg.Output.File)
	}
	ok, err := confirm(fmt.Sprintf("%s already exists. Overwrite?", cfg.Output.File))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrCodeFileExists, "aborted, %s left untouched", cfg.Output.File)
	}
	return nil
}

// printPlan reports a dry-run layout resolution.
func printPlan(plan *pipeline.Plan) {
	for _, n := range plan.Notices {
		printWarning("%s", n)
	}
	printInfo("Resolved layout")
	printKeyValue("grid", fmt.Sprintf("%d x %d (%d labels per page)", plan.PerRow, plan.PerColumn, plan.PerPage))
	printKeyValue("label", fmt.Sprintf("%.1f x %.1f mm", plan.LabelWidthMM, plan.LabelHeightMM))
	mode := "qr + barcode"
	if plan.MarkerMode {
		mode = "fiducial marker"
	}
	printKeyValue("content", mode)
	printKeyValue("records", fmt.Sprint(plan.Records))
	printKeyValue("pages", fmt.Sprint(plan.Pages))
}
