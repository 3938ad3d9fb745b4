package layout

import (
	"math"
	"testing"

	"github.com/labelforge/labelforge/pkg/geom"
)

const tol = 1e-9

func almost(a, b float64) bool { return math.Abs(a-b) < tol }

func codesOf(elems []Element) []Element {
	var out []Element
	for _, e := range elems {
		if e.Kind == ElementCode {
			out = append(out, e)
		}
	}
	return out
}

func textsOf(elems []Element) []Element {
	var out []Element
	for _, e := range elems {
		if e.Kind == ElementText {
			out = append(out, e)
		}
	}
	return out
}

// TestPositionSideBySidePairIsCentered checks that an equal-footprint pair
// sits symmetrically: the left edge gap, the right edge gap and half the
// remaining width agree.
func TestPositionSideBySidePairIsCentered(t *testing.T) {
	label := geom.Rect{X: 10, Y: 10, W: 60, H: 40}
	content := ContentSpec{
		Slots: []CodeSlot{
			{Name: "qr", WidthMM: 20, HeightMM: 20},
			{Name: "marker", WidthMM: 20, HeightMM: 20},
		},
		Arrangement: ArrangeSideBySide,
		SpacingMM:   4,
	}

	codes := codesOf(PositionContent(label, content))
	if len(codes) != 2 {
		t.Fatalf("got %d code elements, want 2", len(codes))
	}

	left := codes[0].Rect.X - label.X
	right := label.Right() - codes[1].Rect.Right()
	if !almost(left, right) {
		t.Errorf("asymmetric placement: left gap %.4f, right gap %.4f", left, right)
	}
	if gap := codes[1].Rect.X - codes[0].Rect.Right(); !almost(gap, content.SpacingMM) {
		t.Errorf("inter-code gap = %.4f, want %.4f", gap, content.SpacingMM)
	}
	// Equal heights, no text: both centered vertically in the label.
	for i, c := range codes {
		if !almost(c.Rect.CenterY(), label.CenterY()) {
			t.Errorf("slot %d center y = %.4f, want %.4f", i, c.Rect.CenterY(), label.CenterY())
		}
	}
}

func TestPositionStackedIsCentered(t *testing.T) {
	label := geom.Rect{X: 10, Y: 10, W: 60, H: 40}
	content := ContentSpec{
		Slots: []CodeSlot{
			{Name: "qr", WidthMM: 12, HeightMM: 12},
			{Name: "barcode", WidthMM: 40, HeightMM: 10},
		},
		Arrangement: ArrangeStacked,
		SpacingMM:   3,
	}

	codes := codesOf(PositionContent(label, content))
	if len(codes) != 2 {
		t.Fatalf("got %d code elements, want 2", len(codes))
	}

	top := codes[0].Rect.Y - label.Y
	bottom := label.Bottom() - codes[1].Rect.Bottom()
	if !almost(top, bottom) {
		t.Errorf("asymmetric placement: top gap %.4f, bottom gap %.4f", top, bottom)
	}
	for i, c := range codes {
		if !almost(c.Rect.CenterX(), label.CenterX()) {
			t.Errorf("slot %d center x = %.4f, want %.4f", i, c.Rect.CenterX(), label.CenterX())
		}
	}
}

// TestPositionTextStripReservesSpace verifies the strip-first rule: codes are
// centered in what is left after the text strip and its margin, and the text
// baseline never moves to accommodate the codes.
func TestPositionTextStripReservesSpace(t *testing.T) {
	label := geom.Rect{X: 10, Y: 10, W: 60, H: 40}
	text := TextSpec{Align: AlignCenter, FontSizePt: 10, MarginMM: 2}
	slot := CodeSlot{Name: "qr", WidthMM: 20, HeightMM: 20}

	t.Run("bottom", func(t *testing.T) {
		text.Position = TextBottom
		elems := PositionContent(label, ContentSpec{
			Slots: []CodeSlot{slot}, Arrangement: ArrangeSideBySide, Text: text,
		})

		texts := textsOf(elems)
		if len(texts) != 1 {
			t.Fatalf("got %d text elements, want 1", len(texts))
		}
		if !almost(texts[0].Y, label.Bottom()) {
			t.Errorf("baseline = %.4f, want label bottom %.4f", texts[0].Y, label.Bottom())
		}

		code := codesOf(elems)[0]
		regionH := label.H - text.HeightMM() - text.MarginMM
		wantY := label.Y + (regionH-slot.HeightMM)/2
		if !almost(code.Rect.Y, wantY) {
			t.Errorf("code y = %.4f, want %.4f (centered above the strip)", code.Rect.Y, wantY)
		}
	})

	t.Run("top", func(t *testing.T) {
		text.Position = TextTop
		elems := PositionContent(label, ContentSpec{
			Slots: []CodeSlot{slot}, Arrangement: ArrangeSideBySide, Text: text,
		})

		texts := textsOf(elems)
		if len(texts) != 1 {
			t.Fatalf("got %d text elements, want 1", len(texts))
		}
		if !almost(texts[0].Y, label.Y+text.HeightMM()) {
			t.Errorf("baseline = %.4f, want %.4f", texts[0].Y, label.Y+text.HeightMM())
		}

		code := codesOf(elems)[0]
		regionY := label.Y + text.HeightMM() + text.MarginMM
		regionH := label.H - text.HeightMM() - text.MarginMM
		wantY := regionY + (regionH-slot.HeightMM)/2
		if !almost(code.Rect.Y, wantY) {
			t.Errorf("code y = %.4f, want %.4f (centered below the strip)", code.Rect.Y, wantY)
		}
	})
}

func TestPositionTextAlignment(t *testing.T) {
	label := geom.Rect{X: 10, Y: 10, W: 60, H: 40}
	content := ContentSpec{
		Slots:       []CodeSlot{{Name: "qr", WidthMM: 20, HeightMM: 20}},
		Arrangement: ArrangeSideBySide,
	}

	tests := []struct {
		align TextAlign
		wantX float64
	}{
		{AlignStart, label.X},
		{AlignCenter, label.CenterX()},
		{AlignEnd, label.Right()},
	}

	for _, tt := range tests {
		t.Run(string(tt.align), func(t *testing.T) {
			c := content
			c.Text = TextSpec{Position: TextBottom, Align: tt.align, FontSizePt: 8, MarginMM: 1}
			texts := textsOf(PositionContent(label, c))
			if len(texts) != 1 {
				t.Fatalf("got %d text elements, want 1", len(texts))
			}
			if !almost(texts[0].X, tt.wantX) {
				t.Errorf("text x = %.4f, want %.4f", texts[0].X, tt.wantX)
			}
			if texts[0].Align != tt.align {
				t.Errorf("text align = %s, want %s", texts[0].Align, tt.align)
			}
		})
	}
}

// TestPositionPairCaptions checks that a side-by-side pair with text enabled
// gets one caption per code, each centered under its code.
func TestPositionPairCaptions(t *testing.T) {
	label := geom.Rect{X: 10, Y: 10, W: 60, H: 40}
	elems := PositionContent(label, ContentSpec{
		Slots: []CodeSlot{
			{Name: "qr", WidthMM: 18, HeightMM: 18},
			{Name: "marker", WidthMM: 18, HeightMM: 18},
		},
		Arrangement: ArrangeSideBySide,
		SpacingMM:   5,
		Text:        TextSpec{Position: TextBottom, Align: AlignStart, FontSizePt: 8, MarginMM: 1},
	})

	codes := codesOf(elems)
	texts := textsOf(elems)
	if len(texts) != 2 {
		t.Fatalf("got %d captions, want one per code", len(texts))
	}
	for i, caption := range texts {
		if caption.Slot != codes[i].Slot {
			t.Errorf("caption %d bound to slot %d, want %d", i, caption.Slot, codes[i].Slot)
		}
		if !almost(caption.X, codes[i].Rect.CenterX()) {
			t.Errorf("caption %d x = %.4f, want code center %.4f", i, caption.X, codes[i].Rect.CenterX())
		}
		// Captions are always centered on their code regardless of Align.
		if caption.Align != AlignCenter {
			t.Errorf("caption %d align = %s, want center", i, caption.Align)
		}
	}
}

func TestPositionNoText(t *testing.T) {
	label := geom.Rect{X: 0, Y: 0, W: 50, H: 50}
	elems := PositionContent(label, ContentSpec{
		Slots:       []CodeSlot{{Name: "qr", WidthMM: 30, HeightMM: 30}},
		Arrangement: ArrangeStacked,
	})

	if len(textsOf(elems)) != 0 {
		t.Error("text disabled but text elements emitted")
	}
	code := codesOf(elems)[0]
	if !almost(code.Rect.CenterX(), 25) || !almost(code.Rect.CenterY(), 25) {
		t.Errorf("code not centered: center = (%.4f, %.4f)", code.Rect.CenterX(), code.Rect.CenterY())
	}
}

// TestPositionElementsInsideLabel positions several realistic configurations
// and asserts every code rectangle stays inside the label bounds.
func TestPositionElementsInsideLabel(t *testing.T) {
	label := geom.Rect{X: 10, Y: 55, W: 60, H: 40}
	specs := []ContentSpec{
		{
			Slots:       []CodeSlot{{Name: "qr", WidthMM: 25, HeightMM: 25}},
			Arrangement: ArrangeSideBySide,
			Text:        TextSpec{Position: TextBottom, Align: AlignCenter, FontSizePt: 10, MarginMM: 2},
		},
		{
			Slots: []CodeSlot{
				{Name: "qr", WidthMM: 16, HeightMM: 16},
				{Name: "marker", WidthMM: 16, HeightMM: 16},
			},
			Arrangement: ArrangeSideBySide,
			SpacingMM:   4,
			Text:        TextSpec{Position: TextTop, Align: AlignCenter, FontSizePt: 8, MarginMM: 1},
		},
		{
			Slots: []CodeSlot{
				{Name: "qr", WidthMM: 14, HeightMM: 14},
				{Name: "barcode", WidthMM: 45, HeightMM: 12},
			},
			Arrangement: ArrangeStacked,
			SpacingMM:   2,
			Text:        TextSpec{Position: TextBottom, Align: AlignStart, FontSizePt: 8, MarginMM: 1},
		},
	}

	for i, spec := range specs {
		for _, e := range codesOf(PositionContent(label, spec)) {
			if !label.Contains(e.Rect, tol) {
				t.Errorf("spec %d slot %d escapes label: %+v not inside %+v", i, e.Slot, e.Rect, label)
			}
		}
	}
}
