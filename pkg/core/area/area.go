// Package area maintains the mutable deck state of a packing run.
//
// An Area is a width×height occupancy grid plus the ordered set of placed
// blocks. It owns the primitive operations CanPlace, Place and Remove, and
// the constraint rules that govern them: deck bounds with bow/stern
// clearance bands, cell occupancy, the crane ring-bow rule, the trestle
// access corridor, and the chessboard perimeter spacing between blocks.
//
// The area enforces its invariants defensively: a Place or Remove that would
// corrupt the grid panics, since that indicates a bug in the caller rather
// than an infeasible input.
package area

import (
	"slices"

	"github.com/matzehuels/deckpack/pkg/core/block"
	"github.com/matzehuels/deckpack/pkg/errors"
)

// Params describes the deck geometry and clearance rules, all in grid cells.
type Params struct {
	// Width and Height are the full deck extent.
	Width  int
	Height int

	// BowClearance and SternClearance are reserved bands at the +x and −x
	// deck edges. No footprint cell may fall inside them.
	BowClearance   int
	SternClearance int

	// BlockSpacing is the minimum chessboard gap δ between perimeter cells
	// of distinct placed blocks. Zero allows touching.
	BlockSpacing int

	// RingBowClearance is an additional bow-side reservation that applies
	// only to crane blocks.
	RingBowClearance int
}

// Validate checks the parameters for construction.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "deck extent must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.BowClearance < 0 || p.SternClearance < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "clearances cannot be negative")
	}
	if p.BowClearance+p.SternClearance >= p.Width {
		return errors.New(errors.ErrCodeInvalidInput, "bow+stern clearance (%d) must be smaller than deck width (%d)",
			p.BowClearance+p.SternClearance, p.Width)
	}
	if p.BlockSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "block spacing cannot be negative")
	}
	if p.RingBowClearance < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "ring bow clearance cannot be negative")
	}
	return nil
}

// Placement records one placed block: the oriented view occupying the grid
// and its anchor position.
type Placement struct {
	ID    string
	Block *block.Block // oriented view; Block.Orientation() is the placement orientation
	X     int
	Y     int
}

// Area is the mutable deck state. It is owned by a single packing run and is
// not safe for concurrent use; clone it to score multiple runs in parallel.
type Area struct {
	params Params

	grid   [][]string // [y][x]; empty string means free
	placed map[string]Placement
	order  []string // placement order of block ids
}

// New creates an empty area with validated parameters.
func New(p Params) (*Area, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	grid := make([][]string, p.Height)
	for y := range grid {
		grid[y] = make([]string, p.Width)
	}
	return &Area{
		params: p,
		grid:   grid,
		placed: make(map[string]Placement),
	}, nil
}

// Width returns the full deck width in cells.
func (a *Area) Width() int { return a.params.Width }

// Height returns the deck height in cells.
func (a *Area) Height() int { return a.params.Height }

// BowClearance returns the bow-side reserved band width.
func (a *Area) BowClearance() int { return a.params.BowClearance }

// SternClearance returns the stern-side reserved band width.
func (a *Area) SternClearance() int { return a.params.SternClearance }

// Spacing returns the minimum chessboard gap δ between placed blocks.
func (a *Area) Spacing() int { return a.params.BlockSpacing }

// RingBowClearance returns the crane-only bow reservation.
func (a *Area) RingBowClearance() int { return a.params.RingBowClearance }

// Params returns a copy of the construction parameters.
func (a *Area) Params() Params { return a.params }

// UsableMinX returns the first column a footprint cell may occupy.
func (a *Area) UsableMinX() int { return a.params.SternClearance }

// UsableMaxX returns the exclusive upper bound on footprint columns.
func (a *Area) UsableMaxX() int { return a.params.Width - a.params.BowClearance }

// At returns the id of the block occupying a cell, or the empty string.
// Out-of-range coordinates read as free.
func (a *Area) At(x, y int) string {
	if x < 0 || x >= a.params.Width || y < 0 || y >= a.params.Height {
		return ""
	}
	return a.grid[y][x]
}

// PlacedCount returns the number of placed blocks.
func (a *Area) PlacedCount() int { return len(a.placed) }

// PlacedArea returns the total footprint cell count of all placed blocks.
func (a *Area) PlacedArea() int {
	total := 0
	for _, p := range a.placed {
		total += p.Block.Area()
	}
	return total
}

// Placement returns the placement of a block by id.
func (a *Area) Placement(id string) (Placement, bool) {
	p, ok := a.placed[id]
	return p, ok
}

// Placements returns all placements in placement order.
func (a *Area) Placements() []Placement {
	out := make([]Placement, len(a.order))
	for i, id := range a.order {
		out[i] = a.placed[id]
	}
	return out
}

// Place commits a block at the given anchor. The caller must have verified
// the position with CanPlace; Place only re-checks what it can do cheaply
// while writing and treats any conflict as an internal invariant violation.
//
// Placing an id that is already on the deck returns an AlreadyPlaced error.
func (a *Area) Place(b *block.Block, x, y int, o block.Orientation) error {
	if _, dup := a.placed[b.ID()]; dup {
		return errors.New(errors.ErrCodeAlreadyPlaced, "block %s is already placed", b.ID())
	}

	view := b.Oriented(o)
	if view == nil {
		return errors.New(errors.ErrCodeInvalidInput, "block %s has no %d° view", b.ID(), o)
	}

	for _, c := range view.Cells() {
		gx, gy := x+c.X, y+c.Y
		invariant(a.inUsable(gx, gy), "place %s: cell (%d,%d) outside usable deck", b.ID(), gx, gy)
		invariant(a.grid[gy][gx] == "", "place %s: cell (%d,%d) already occupied by %s", b.ID(), gx, gy, a.grid[gy][gx])
		a.grid[gy][gx] = b.ID()
	}

	a.placed[b.ID()] = Placement{ID: b.ID(), Block: view, X: x, Y: y}
	a.order = append(a.order, b.ID())
	return nil
}

// Remove clears a placed block from the grid and the placed set.
func (a *Area) Remove(id string) error {
	p, ok := a.placed[id]
	if !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %s is not placed", id)
	}

	for _, c := range p.Block.Cells() {
		gx, gy := p.X+c.X, p.Y+c.Y
		invariant(a.grid[gy][gx] == id, "remove %s: cell (%d,%d) held by %q", id, gx, gy, a.grid[gy][gx])
		a.grid[gy][gx] = ""
	}

	delete(a.placed, id)
	if i := slices.Index(a.order, id); i >= 0 {
		a.order = slices.Delete(a.order, i, i+1)
	}
	return nil
}

// ColumnTops returns, for every column that holds at least one occupied
// cell, the smallest y strictly above the topmost occupied cell in that
// column. Columns absent from the map are empty.
func (a *Area) ColumnTops() map[int]int {
	tops := make(map[int]int)
	for x := a.UsableMinX(); x < a.UsableMaxX(); x++ {
		for y := a.params.Height - 1; y >= 0; y-- {
			if a.grid[y][x] != "" {
				tops[x] = y + 1
				break
			}
		}
	}
	return tops
}

// Clone returns a deep copy of the area. Block descriptors are shared; they
// are immutable.
func (a *Area) Clone() *Area {
	grid := make([][]string, len(a.grid))
	for y := range a.grid {
		grid[y] = slices.Clone(a.grid[y])
	}

	placed := make(map[string]Placement, len(a.placed))
	for id, p := range a.placed {
		placed[id] = p
	}

	return &Area{
		params: a.params,
		grid:   grid,
		placed: placed,
		order:  slices.Clone(a.order),
	}
}

// inUsable reports whether a cell lies inside the usable deck rectangle.
func (a *Area) inUsable(x, y int) bool {
	return x >= a.UsableMinX() && x < a.UsableMaxX() && y >= 0 && y < a.params.Height
}

// invariant panics with an internal error when cond is false. Grid
// corruption is unrecoverable and always indicates a bug.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(errors.New(errors.ErrCodeInternal, format, args...))
	}
}
