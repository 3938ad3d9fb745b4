package layout

import "testing"

func TestSlotFor(t *testing.T) {
	grid := LabelGrid{PerRow: 3, PerColumn: 6, LabelWidthMM: 60, LabelHeightMM: 40, HGapMM: 5, VGapMM: 5}

	tests := []struct {
		index int
		want  Slot
	}{
		{0, Slot{Page: 0, Row: 0, Column: 0}},
		{1, Slot{Page: 0, Row: 0, Column: 1}},
		{2, Slot{Page: 0, Row: 0, Column: 2}}, // last column of the first row
		{3, Slot{Page: 0, Row: 1, Column: 0}}, // wraps to the next row
		{17, Slot{Page: 0, Row: 5, Column: 2}}, // last slot of the first page
		{18, Slot{Page: 1, Row: 0, Column: 0}}, // wraps to the next page
		{35, Slot{Page: 1, Row: 5, Column: 2}},
		{36, Slot{Page: 2, Row: 0, Column: 0}},
	}

	for _, tt := range tests {
		if got := grid.SlotFor(tt.index); got != tt.want {
			t.Errorf("SlotFor(%d) = %+v, want %+v", tt.index, got, tt.want)
		}
	}
}

// TestSlotForMatchesPaginator replays a dense sequence through the paginator
// and checks each handed-out slot against the closed form.
func TestSlotForMatchesPaginator(t *testing.T) {
	grid := LabelGrid{PerRow: 4, PerColumn: 5}
	p := NewPaginator(grid)

	for i := 0; i < 3*grid.PerPage()+1; i++ {
		index, slot := p.Next()
		if index != i {
			t.Fatalf("Next() index = %d, want %d", index, i)
		}
		if want := grid.SlotFor(i); slot != want {
			t.Errorf("Next() slot for %d = %+v, want %+v", i, slot, want)
		}
	}
	if got := p.Assigned(); got != 3*grid.PerPage()+1 {
		t.Errorf("Assigned() = %d", got)
	}
}

func TestPageCount(t *testing.T) {
	grid := LabelGrid{PerRow: 3, PerColumn: 6} // 18 per page

	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{18, 1},
		{19, 2},
		{36, 2},
		{40, 3}, // 18 + 18 + 4
	}

	for _, tt := range tests {
		if got := grid.PageCount(tt.n); got != tt.want {
			t.Errorf("PageCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// TestDenseIndicesLeaveNoHoles simulates skipped records: only valid records
// call Next, so the sheet stays gap-free no matter which inputs were dropped.
func TestDenseIndicesLeaveNoHoles(t *testing.T) {
	grid := LabelGrid{PerRow: 3, PerColumn: 6}
	p := NewPaginator(grid)

	// 10 inputs, every third one invalid.
	var slots []Slot
	for i := 0; i < 10; i++ {
		if i%3 == 2 {
			continue // skipped upstream, no slot consumed
		}
		_, s := p.Next()
		slots = append(slots, s)
	}

	if len(slots) != 7 {
		t.Fatalf("placed %d records, want 7", len(slots))
	}
	for i, s := range slots {
		if want := grid.SlotFor(i); s != want {
			t.Errorf("placement %d = %+v, want %+v (holes in the grid)", i, s, want)
		}
	}
}

func TestLabelRect(t *testing.T) {
	page := PageGeometry{WidthMM: 210, HeightMM: 297, MarginMM: 10}
	grid := LabelGrid{PerRow: 3, PerColumn: 6, LabelWidthMM: 60, LabelHeightMM: 40, HGapMM: 5, VGapMM: 5}

	tests := []struct {
		slot         Slot
		wantX, wantY float64
	}{
		{Slot{Row: 0, Column: 0}, 10, 10},
		{Slot{Row: 0, Column: 2}, 140, 10},
		{Slot{Row: 5, Column: 0}, 10, 235},
		{Slot{Page: 4, Row: 1, Column: 1}, 75, 55}, // page never shifts coordinates
	}

	for _, tt := range tests {
		r := LabelRect(page, grid, tt.slot)
		if r.X != tt.wantX || r.Y != tt.wantY {
			t.Errorf("LabelRect(%+v) = (%.1f, %.1f), want (%.1f, %.1f)",
				tt.slot, r.X, r.Y, tt.wantX, tt.wantY)
		}
		if r.W != grid.LabelWidthMM || r.H != grid.LabelHeightMM {
			t.Errorf("LabelRect(%+v) size = %.1fx%.1f", tt.slot, r.W, r.H)
		}
	}
}
