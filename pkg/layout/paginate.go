package layout

// SlotFor returns the slot for the 0-based dense record index. The fill
// order is row-major: column increases fastest, then row, then page.
//
// The closed form depends only on the index and the grid, so placements for
// arbitrary indices can be computed independently of one another.
func (g LabelGrid) SlotFor(index int) Slot {
	perPage := g.PerPage()
	onPage := index % perPage
	return Slot{
		Page:   index / perPage,
		Row:    onPage / g.PerRow,
		Column: onPage % g.PerRow,
	}
}

// PageCount returns the number of pages needed for n records.
func (g LabelGrid) PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	perPage := g.PerPage()
	return (n + perPage - 1) / perPage
}

// Paginator hands out slots for valid records in order. Indices are dense:
// a slot is only consumed by calling Next, so records skipped upstream leave
// no hole on the sheet. A Paginator is restartable only by creating a new
// one; slots are never handed out twice.
type Paginator struct {
	grid LabelGrid
	next int
}

// NewPaginator creates a paginator over the given grid.
func NewPaginator(grid LabelGrid) *Paginator {
	return &Paginator{grid: grid}
}

// Next assigns the next dense index and returns it with its slot.
func (p *Paginator) Next() (int, Slot) {
	i := p.next
	p.next++
	return i, p.grid.SlotFor(i)
}

// Assigned returns how many slots have been handed out so far.
func (p *Paginator) Assigned() int { return p.next }
