package pipeline

import (
	"context"
	"io"

	"github.com/labelforge/labelforge/pkg/codes"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/layout"
	"github.com/labelforge/labelforge/pkg/observability"
	"github.com/labelforge/labelforge/pkg/sink"
)

// State is the lifecycle phase of an [Engine].
type State string

const (
	// StateConfiguring is the transient phase while the grid is derived.
	StateConfiguring State = "configuring"
	// StateValidated means the grid and fit checks passed; no label has
	// been emitted yet.
	StateValidated State = "validated"
	// StateEmitting means at least one label has been emitted.
	StateEmitting State = "emitting"
	// StateDone means the document has been finalized.
	StateDone State = "done"
	// StateRejected is terminal: the configuration failed validation and
	// the engine accepts no further calls.
	StateRejected State = "rejected"
)

// Label is one record's renderable content: one raster per code slot,
// optional per-slot captions, and the label-level text line. Content, when
// set, overrides the engine's nominal content spec for this label only;
// variable-width barcodes use it to carry their actual footprint.
type Label struct {
	Images   []*codes.Image
	Captions []string
	Text     string
	Content  *layout.ContentSpec
}

// Engine places labels into a document one record at a time.
//
// Slots are assigned densely in row-major order: every emitted label takes
// the next slot, so records skipped upstream leave no holes in the sheet.
// Page breaks happen inside Emit when the assigned slot starts a new page.
type Engine struct {
	page     layout.PageGeometry
	grid     layout.LabelGrid
	content  layout.ContentSpec
	renderer sink.Renderer

	state   State
	pag     *layout.Paginator
	pages   int
	notices []string
}

// NewEngine derives the grid and validates the content fit. On any
// validation failure the returned engine is in StateRejected and the error
// carries the aggregated violations.
func NewEngine(page layout.PageGeometry, spec layout.GridSpec, content layout.ContentSpec, renderer sink.Renderer) (*Engine, error) {
	e := &Engine{page: page, content: content, renderer: renderer, state: StateConfiguring}

	grid, notices, err := layout.ComputeGrid(page, spec)
	if err != nil {
		e.state = StateRejected
		return e, err
	}
	e.grid = grid
	e.notices = notices

	if err := layout.ValidateFit(grid, content); err != nil {
		e.state = StateRejected
		return e, err
	}

	e.pag = layout.NewPaginator(grid)
	e.state = StateValidated
	return e, nil
}

// State returns the engine's current lifecycle phase.
func (e *Engine) State() State { return e.state }

// Grid returns the resolved label grid.
func (e *Engine) Grid() layout.LabelGrid { return e.grid }

// Notices returns non-fatal messages from grid derivation, such as the
// dimensions-over-counts precedence note.
func (e *Engine) Notices() []string { return e.notices }

// Pages returns the number of pages started so far.
func (e *Engine) Pages() int { return e.pages }

// Emit places one label into the next free slot and returns that slot.
func (e *Engine) Emit(ctx context.Context, lbl Label) (layout.Slot, error) {
	switch e.state {
	case StateValidated:
		e.state = StateEmitting
	case StateEmitting:
	default:
		return layout.Slot{}, errors.New(errors.ErrCodeInternal, "cannot emit in state %q", e.state)
	}

	content := e.content
	if lbl.Content != nil {
		content = *lbl.Content
	}

	_, slot := e.pag.Next()
	for e.pages <= slot.Page {
		if err := e.renderer.NewPage(); err != nil {
			return slot, err
		}
		e.pages++
		observability.Generate().OnPageStart(ctx, e.pages)
	}

	rect := layout.LabelRect(e.page, e.grid, slot)
	for _, el := range layout.PositionContent(rect, content) {
		switch el.Kind {
		case layout.ElementCode:
			if el.Slot >= len(lbl.Images) || lbl.Images[el.Slot] == nil {
				continue
			}
			if err := e.renderer.PlaceImage(lbl.Images[el.Slot], el.Rect); err != nil {
				return slot, err
			}
		case layout.ElementText:
			text := lbl.Text
			if el.Slot >= 0 {
				text = ""
				if el.Slot < len(lbl.Captions) {
					text = lbl.Captions[el.Slot]
				}
			}
			if text == "" {
				continue
			}
			if err := e.renderer.PlaceText(text, el.X, el.Y, content.Text.FontSizePt, el.Align); err != nil {
				return slot, err
			}
		}
	}
	return slot, nil
}

// Finish finalizes the document. Finishing directly from StateValidated is
// allowed and produces a document with no labels.
func (e *Engine) Finish(w io.Writer) error {
	switch e.state {
	case StateValidated, StateEmitting:
	default:
		return errors.New(errors.ErrCodeInternal, "cannot finish in state %q", e.state)
	}
	e.state = StateDone
	return e.renderer.Finalize(w)
}
