package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/labelforge/labelforge/pkg/cache"
	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/config"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/layout"
	"github.com/labelforge/labelforge/pkg/records"
	"github.com/labelforge/labelforge/pkg/sink"
)

// testConfig uses explicit 60x40 labels so an A4 page holds a 3x6 grid.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Layout.LabelWidthMM = 60
	cfg.Layout.LabelHeightMM = 40
	cfg.Layout.LabelsPerRow = 0
	cfg.Layout.LabelsPerColumn = 0
	return cfg
}

func makeRecords(n int) []records.Record {
	recs := make([]records.Record, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("BOX-%03d", i+1)
		recs = append(recs, records.NewRecord(i+2, id, "", ""))
	}
	return recs
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, log.New(io.Discard))
}

func TestRunnerExecutePaginates(t *testing.T) {
	rec := sink.NewRecorder()
	r := quietRunner(nil)

	res, err := r.Execute(context.Background(), testConfig(), makeRecords(40), rec, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Generated != 40 || res.Skipped != 0 {
		t.Errorf("generated/skipped = %d/%d, want 40/0", res.Generated, res.Skipped)
	}
	if res.Pages != 3 {
		t.Errorf("pages = %d, want 3", res.Pages)
	}
	if !rec.Finalized {
		t.Error("document was not finalized")
	}

	// 18 labels per page, two code images per label.
	for page, want := range map[int]int{1: 36, 2: 36, 3: 8} {
		if got := len(rec.ImagesOnPage(page)); got != want {
			t.Errorf("page %d: %d images, want %d", page, got, want)
		}
	}
	// Pair labels draw one caption under each code.
	if got := len(rec.Texts); got != 80 {
		t.Errorf("texts = %d, want 80", got)
	}
	if res.RunID == "" {
		t.Error("result has no run id")
	}
}

func TestRunnerExecuteSkipsWithoutHoles(t *testing.T) {
	cfg := testConfig()
	cfg.Barcode.Symbology = "ean13"

	recs := []records.Record{
		records.NewRecord(2, "A", "", "123456789012"),
		records.NewRecord(3, "B", "", "not-digits"),
		records.NewRecord(4, "C", "", "400638133393"),
		records.NewRecord(5, "D", "", "123"),
		records.NewRecord(6, "E", "", "123456789012"),
	}

	rec := sink.NewRecorder()
	res, err := quietRunner(nil).Execute(context.Background(), cfg, recs, rec, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Generated != 3 || res.Skipped != 2 {
		t.Fatalf("generated/skipped = %d/%d, want 3/2", res.Generated, res.Skipped)
	}
	if len(res.Skips) != 2 || res.Skips[0].ID != "B" || res.Skips[1].ID != "D" {
		t.Errorf("skips = %+v, want B and D", res.Skips)
	}

	// The three survivors occupy the first three slots of the first row.
	page := cfg.PageGeometry()
	grid, _, err := layout.ComputeGrid(page, cfg.GridSpec())
	if err != nil {
		t.Fatalf("ComputeGrid: %v", err)
	}
	images := rec.ImagesOnPage(1)
	if len(images) != 6 {
		t.Fatalf("images on page 1 = %d, want 6", len(images))
	}
	for i := 0; i < 3; i++ {
		want := layout.LabelRect(page, grid, grid.SlotFor(i))
		// The QR image of label i is placement 2i.
		got := images[2*i].Rect
		if !want.Contains(got, 1e-9) {
			t.Errorf("label %d: image rect %+v outside slot rect %+v", i, got, want)
		}
	}
}

func TestRunnerExecuteMarkerMode(t *testing.T) {
	cfg := testConfig()
	cfg.Aruco.Enabled = true
	cfg.IDs.AutoAssignNumericIDs = true
	cfg.IDs.StartIndex = 0

	rec := sink.NewRecorder()
	res, err := quietRunner(nil).Execute(context.Background(), cfg, makeRecords(3), rec, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Generated != 3 || res.Skipped != 0 {
		t.Fatalf("generated/skipped = %d/%d, want 3/0", res.Generated, res.Skipped)
	}
	if got := len(rec.Images); got != 3 {
		t.Errorf("images = %d, want one marker per record", got)
	}
	// Single-code labels draw the record id as the label text line.
	if got := len(rec.Texts); got != 3 {
		t.Fatalf("texts = %d, want 3", got)
	}
	if rec.Texts[0].Text != "BOX-001" {
		t.Errorf("label text = %q, want record id", rec.Texts[0].Text)
	}
}

func TestRunnerExecuteMarkerModeAssignmentDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Aruco.Enabled = true
	cfg.IDs.AutoAssignNumericIDs = false

	recs := makeRecords(3)
	id := 7
	recs[1].MarkerID = &id

	rec := sink.NewRecorder()
	res, err := quietRunner(nil).Execute(context.Background(), cfg, recs, rec, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Generated != 1 || res.Skipped != 2 {
		t.Fatalf("generated/skipped = %d/%d, want 1/2", res.Generated, res.Skipped)
	}
	for _, s := range res.Skips {
		if !strings.Contains(s.Reason, "marker id") {
			t.Errorf("skip reason %q does not mention the missing marker id", s.Reason)
		}
	}
}

func TestRunnerExecuteMarkerIDOutOfRange(t *testing.T) {
	cfg := testConfig()
	cfg.Aruco.Enabled = true
	cfg.IDs.AutoAssignNumericIDs = true
	cfg.IDs.StartIndex = 48 // DICT_4X4_50 holds ids 0..49

	rec := sink.NewRecorder()
	res, err := quietRunner(nil).Execute(context.Background(), cfg, makeRecords(4), rec, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Generated != 2 || res.Skipped != 2 {
		t.Fatalf("generated/skipped = %d/%d, want 2/2", res.Generated, res.Skipped)
	}
}

func TestRunnerExecuteRejectsOverflow(t *testing.T) {
	cfg := testConfig()
	cfg.Layout.LabelWidthMM = 30
	cfg.Layout.LabelHeightMM = 30

	res, err := quietRunner(nil).Execute(context.Background(), cfg, makeRecords(2), sink.NewRecorder(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("Execute accepted content wider than the label")
	}
	if !errors.Is(err, errors.ErrCodeContentOverflow) {
		t.Errorf("error code = %v, want CONTENT_OVERFLOW", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on rejection", res)
	}
}

func TestRunnerExecuteRejectsInsufficientSpace(t *testing.T) {
	cfg := testConfig()
	cfg.Output.MarginMM = 100

	_, err := quietRunner(nil).Execute(context.Background(), cfg, makeRecords(2), sink.NewRecorder(), &bytes.Buffer{})
	if !errors.Is(err, errors.ErrCodeInsufficientSpace) {
		t.Errorf("error = %v, want INSUFFICIENT_SPACE", err)
	}
}

func TestRunnerExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietRunner(nil).Execute(ctx, testConfig(), makeRecords(5), sink.NewRecorder(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("Execute ignored the canceled context")
	}
}

// countingCache wraps an in-memory store with hit/miss/set counters.
type countingCache struct {
	mu    sync.Mutex
	store map[string][]byte

	hits, misses, sets int
}

func newCountingCache() *countingCache {
	return &countingCache{store: make(map[string][]byte)}
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.store[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok, nil
}

func (c *countingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = data
	c.sets++
	return nil
}

func (c *countingCache) Delete(ctx context.Context, key string) error { return nil }
func (c *countingCache) Close() error                                 { return nil }

func TestRunnerExecuteUsesCache(t *testing.T) {
	cc := newCountingCache()
	r := quietRunner(cc)
	cfg := testConfig()
	recs := makeRecords(2)

	first := sink.NewRecorder()
	if _, err := r.Execute(context.Background(), cfg, recs, first, &bytes.Buffer{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// Two records, two codes each, all payloads distinct.
	if cc.sets != 4 || cc.hits != 0 {
		t.Fatalf("after first run: sets=%d hits=%d, want 4/0", cc.sets, cc.hits)
	}

	second := sink.NewRecorder()
	if _, err := r.Execute(context.Background(), cfg, recs, second, &bytes.Buffer{}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if cc.hits != 4 || cc.sets != 4 {
		t.Errorf("after second run: hits=%d sets=%d, want 4 hits and no new sets", cc.hits, cc.sets)
	}

	// Cached rasters place identically to freshly generated ones.
	if len(first.Images) != len(second.Images) {
		t.Fatalf("placements differ: %d vs %d", len(first.Images), len(second.Images))
	}
	for i := range first.Images {
		if !bytes.Equal(first.Images[i].Img.PNG, second.Images[i].Img.PNG) {
			t.Errorf("image %d differs between runs", i)
		}
	}
}

func TestRunnerPlan(t *testing.T) {
	r := quietRunner(nil)

	plan, err := r.Plan(testConfig(), makeRecords(40))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.PerRow != 3 || plan.PerColumn != 6 || plan.PerPage != 18 {
		t.Errorf("grid = %dx%d (%d per page), want 3x6 (18)", plan.PerRow, plan.PerColumn, plan.PerPage)
	}
	if plan.Pages != 3 {
		t.Errorf("pages = %d, want 3", plan.Pages)
	}
	if plan.Records != 40 {
		t.Errorf("records = %d, want 40", plan.Records)
	}
	if plan.MarkerMode {
		t.Error("marker mode reported for a QR/barcode config")
	}
}

func TestRunnerPlanPrecedenceNotice(t *testing.T) {
	cfg := testConfig()
	cfg.Layout.LabelsPerRow = 2
	cfg.Layout.LabelsPerColumn = 2

	plan, err := quietRunner(nil).Plan(cfg, makeRecords(5))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Notices) != 1 || !strings.Contains(plan.Notices[0], "precedence") {
		t.Errorf("notices = %v, want one precedence notice", plan.Notices)
	}
	if plan.PerRow != 3 || plan.PerColumn != 6 {
		t.Errorf("grid = %dx%d, want dimensions to win (3x6)", plan.PerRow, plan.PerColumn)
	}
}

func TestEngineStates(t *testing.T) {
	cfg := testConfig()
	content, producers, err := buildContent(&cfg, makeRecords(1))
	if err != nil {
		t.Fatalf("buildContent: %v", err)
	}

	e, err := NewEngine(cfg.PageGeometry(), cfg.GridSpec(), content, sink.NewRecorder())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.State() != StateValidated {
		t.Fatalf("state = %s, want validated", e.State())
	}

	img, err := producers[0].Generate("BOX-001")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bcImg, err := producers[1].Generate("BOX-001")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	lbl := Label{Images: []*codes.Image{img, bcImg}, Text: "BOX-001"}

	if _, err := e.Emit(context.Background(), lbl); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if e.State() != StateEmitting {
		t.Errorf("state = %s, want emitting", e.State())
	}

	if err := e.Finish(&bytes.Buffer{}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if e.State() != StateDone {
		t.Errorf("state = %s, want done", e.State())
	}

	if _, err := e.Emit(context.Background(), lbl); err == nil {
		t.Error("Emit accepted after Finish")
	}
	if err := e.Finish(&bytes.Buffer{}); err == nil {
		t.Error("Finish accepted twice")
	}
}

func TestEngineRejectedIsTerminal(t *testing.T) {
	cfg := testConfig()
	cfg.Output.MarginMM = 200
	content, _, err := buildContent(&cfg, nil)
	if err != nil {
		t.Fatalf("buildContent: %v", err)
	}

	e, err := NewEngine(cfg.PageGeometry(), cfg.GridSpec(), content, sink.NewRecorder())
	if err == nil {
		t.Fatal("NewEngine accepted an unusable page")
	}
	if e.State() != StateRejected {
		t.Fatalf("state = %s, want rejected", e.State())
	}
	if _, err := e.Emit(context.Background(), Label{}); err == nil {
		t.Error("Emit accepted in rejected state")
	}
	if err := e.Finish(&bytes.Buffer{}); err == nil {
		t.Error("Finish accepted in rejected state")
	}
}
