package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/codes/marker"
	"github.com/labelforge/labelforge/pkg/config"
	"github.com/labelforge/labelforge/pkg/layout"
	"github.com/labelforge/labelforge/pkg/observability"
	"github.com/labelforge/labelforge/pkg/records"
	"github.com/labelforge/labelforge/pkg/sink"
)

// DefaultTTL is how long rendered rasters stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Runner orchestrates a generation run with caching and logging.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner. Nil cache disables caching; nil logger uses
// the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger, TTL: DefaultTTL}
}

// Execute runs the full pipeline: producers are built for the configured
// label family, each record is validated, rendered and emitted, and the
// finalized document is written to out.
//
// Invalid records are skipped with a warning and never leave a hole in the
// sheet. Execute fails only on configuration rejection, renderer errors or
// context cancellation.
func (r *Runner) Execute(ctx context.Context, cfg config.Config, recs []records.Record, renderer sink.Renderer, out io.Writer) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	markerMode := cfg.MarkerMode()

	if markerMode {
		records.AssignMarkerIDs(recs, cfg.IDs.AutoAssignNumericIDs, cfg.IDs.StartIndex)
	}

	content, producers, err := buildContent(&cfg, recs)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(cfg.PageGeometry(), cfg.GridSpec(), content, renderer)
	if err != nil {
		observability.Generate().OnRunComplete(ctx, 0, 0, 0, time.Since(start), err)
		return nil, err
	}
	res.Notices = engine.Notices()
	for _, n := range res.Notices {
		r.Logger.Warn(n)
	}

	grid := engine.Grid()
	observability.Generate().OnConfigValidated(ctx, grid.PerRow, grid.PerColumn)
	r.Logger.Info("layout resolved",
		"run_id", res.RunID,
		"per_row", grid.PerRow,
		"per_column", grid.PerColumn,
		"label_width_mm", grid.LabelWidthMM,
		"label_height_mm", grid.LabelHeightMM,
		"records", len(recs),
	)

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var payloads []string
		if markerMode {
			if rec.MarkerID == nil {
				r.skip(ctx, res, rec.ID, "record has no marker id and auto-assignment is disabled")
				continue
			}
			payloads = []string{strconv.Itoa(*rec.MarkerID)}
		} else {
			payloads = []string{rec.QRValue, rec.BarcodeValue}
		}

		lbl, ok := r.renderLabel(ctx, res, rec, producers, payloads)
		if !ok {
			continue
		}

		if !markerMode {
			// Linear barcodes vary in width with the payload; reposition
			// this label around the actual raster.
			c := content.WithSlotSize(1, lbl.Images[1].WidthMM, lbl.Images[1].HeightMM)
			lbl.Content = &c
			lbl.Captions = []string{rec.QRValue, rec.BarcodeValue}
		}

		slot, err := engine.Emit(ctx, lbl)
		if err != nil {
			return res, err
		}
		res.Generated++
		observability.Generate().OnRecordPlaced(ctx, rec.ID, slot.Page+1)
	}

	if err := engine.Finish(out); err != nil {
		observability.Generate().OnRunComplete(ctx, res.Generated, res.Skipped, engine.Pages(), time.Since(start), err)
		return res, err
	}

	res.Pages = engine.Pages()
	res.Duration = time.Since(start)
	observability.Generate().OnRunComplete(ctx, res.Generated, res.Skipped, res.Pages, res.Duration, nil)
	r.Logger.Info("sheet generated",
		"run_id", res.RunID,
		"generated", res.Generated,
		"skipped", res.Skipped,
		"pages", res.Pages,
		"duration", res.Duration,
	)
	return res, nil
}

// Plan resolves the grid and content fit for a record set without rendering.
func (r *Runner) Plan(cfg config.Config, recs []records.Record) (*Plan, error) {
	content, _, err := buildContent(&cfg, recs)
	if err != nil {
		return nil, err
	}

	grid, notices, err := layout.ComputeGrid(cfg.PageGeometry(), cfg.GridSpec())
	if err != nil {
		return nil, err
	}
	if err := layout.ValidateFit(grid, content); err != nil {
		return nil, err
	}

	return &Plan{
		MarkerMode:    cfg.MarkerMode(),
		PerRow:        grid.PerRow,
		PerColumn:     grid.PerColumn,
		PerPage:       grid.PerPage(),
		LabelWidthMM:  grid.LabelWidthMM,
		LabelHeightMM: grid.LabelHeightMM,
		Records:       len(recs),
		Pages:         grid.PageCount(len(recs)),
		Notices:       notices,
	}, nil
}

// renderLabel validates and renders every code of one record. A false
// return means the record was skipped.
func (r *Runner) renderLabel(ctx context.Context, res *Result, rec records.Record, producers []codes.Producer, payloads []string) (Label, bool) {
	for i, p := range producers {
		if err := p.Validate(payloads[i]); err != nil {
			r.skip(ctx, res, rec.ID, err.Error())
			return Label{}, false
		}
	}

	lbl := Label{Text: rec.ID}
	for i, p := range producers {
		img, err := r.render(ctx, p, payloads[i])
		if err != nil {
			r.skip(ctx, res, rec.ID, err.Error())
			return Label{}, false
		}
		lbl.Images = append(lbl.Images, img)
	}
	return lbl, true
}

// render produces one code raster, going through the cache.
func (r *Runner) render(ctx context.Context, p codes.Producer, payload string) (*codes.Image, error) {
	key := p.CacheKey(payload)

	if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		var img codes.Image
		if err := json.Unmarshal(data, &img); err == nil && len(img.PNG) > 0 {
			observability.Cache().OnCacheHit(ctx, p.Kind())
			return &img, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, p.Kind())

	img, err := p.Generate(payload)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(img); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, p.Kind(), len(data))
		}
	}
	return img, nil
}

func (r *Runner) skip(ctx context.Context, res *Result, id, reason string) {
	res.Skipped++
	res.Skips = append(res.Skips, Skip{ID: id, Reason: reason})
	r.Logger.Warn("skipping record", "id", id, "reason", reason)
	observability.Generate().OnRecordSkipped(ctx, id, reason)
}

// buildContent assembles the content spec and producers for the configured
// label family. In marker mode a single fiducial producer fills the label;
// otherwise a QR/barcode pair is built and the barcode slot is sized to the
// widest payload in the record set.
func buildContent(cfg *config.Config, recs []records.Record) (layout.ContentSpec, []codes.Producer, error) {
	dpi := cfg.Output.DPI

	var producers []codes.Producer
	var slots []layout.CodeSlot

	switch {
	case cfg.Aruco.Enabled:
		p, err := marker.NewArUco(cfg.Aruco.Dictionary, cfg.Aruco.PatternSizeMM, cfg.Aruco.BorderBits, cfg.Aruco.QuietZoneMM, dpi)
		if err != nil {
			return layout.ContentSpec{}, nil, err
		}
		w, h := p.Footprint()
		producers = append(producers, p)
		slots = append(slots, layout.CodeSlot{Name: p.Kind(), WidthMM: w, HeightMM: h})

	case cfg.AprilTag.Enabled:
		p, err := marker.NewAprilTag(cfg.AprilTag.Family, cfg.AprilTag.PatternSizeMM, cfg.AprilTag.BorderMM, cfg.AprilTag.QuietZoneMM, dpi)
		if err != nil {
			return layout.ContentSpec{}, nil, err
		}
		w, h := p.Footprint()
		producers = append(producers, p)
		slots = append(slots, layout.CodeSlot{Name: p.Kind(), WidthMM: w, HeightMM: h})

	default:
		qr, err := codes.NewQR(cfg.QR.SizeMM, cfg.QR.ErrorCorrection, cfg.QR.QuietZone, dpi)
		if err != nil {
			return layout.ContentSpec{}, nil, err
		}
		bc, err := codes.NewBarcode(cfg.Barcode.Symbology, cfg.Barcode.HeightMM, cfg.Barcode.WidthFactor, cfg.Barcode.QuietZoneMM, dpi)
		if err != nil {
			return layout.ContentSpec{}, nil, err
		}

		qw, qh := qr.Footprint()
		bw, bh := bc.Footprint()
		if len(recs) > 0 {
			// Size the barcode slot for the widest payload actually in the
			// run, not the nominal footprint.
			bw = 0
			for _, rec := range recs {
				if w := bc.EstimateWidthMM(rec.BarcodeValue); w > bw {
					bw = w
				}
			}
		}

		producers = append(producers, qr, bc)
		slots = append(slots,
			layout.CodeSlot{Name: qr.Kind(), WidthMM: qw, HeightMM: qh},
			layout.CodeSlot{Name: bc.Kind(), WidthMM: bw, HeightMM: bh},
		)
	}

	return layout.ContentSpec{
		Slots:       slots,
		Arrangement: cfg.Arrangement(),
		SpacingMM:   cfg.Layout.CodeSpacingMM,
		Text:        cfg.TextSpec(),
	}, producers, nil
}
