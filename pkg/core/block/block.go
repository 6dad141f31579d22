// Package block defines the immutable voxel block descriptor consumed by the
// packing engine.
//
// A block is a set of filled grid cells (its footprint) with an optional
// per-cell height range. The footprint is normalised at construction so the
// smallest x and y are zero; all derived geometry (extents, boundary edges,
// perimeter) is precomputed once and never changes afterwards.
package block

import (
	"cmp"
	"slices"

	"github.com/matzehuels/deckpack/pkg/errors"
)

// Type identifies the handling category of a block. The category decides
// which deck constraints apply during placement.
type Type string

// Block types. Anything that is not a crane is handled as a trestle,
// including "support" blocks.
const (
	TypeCrane   Type = "crane"
	TypeTrestle Type = "trestle"
)

// ParseType maps a raw type string to a Type.
func ParseType(s string) Type {
	if s == string(TypeCrane) {
		return TypeCrane
	}
	return TypeTrestle
}

// Orientation is the rotation of a block on the deck. Only crane blocks may
// be rotated, and only by 90 degrees.
type Orientation int

// Supported orientations.
const (
	Deg0  Orientation = 0
	Deg90 Orientation = 90
)

// Cell is a grid cell position. For footprint cells the coordinates are
// relative to the block origin; elsewhere they are absolute deck coordinates.
type Cell struct {
	X int
	Y int
}

// HeightRange is the vertical extent of a single footprint cell in grid
// layers. The packer never interprets it; it is carried through for
// visualisation.
type HeightRange struct {
	Min int
	Max int
}

// Block is an immutable block descriptor.
type Block struct {
	id          string
	typ         Type
	orientation Orientation

	cells   []Cell
	lookup  map[Cell]struct{}
	heights map[Cell]HeightRange

	width  int
	height int

	rightEdge  map[int]int // occupied row y → max x in that row
	bottomEdge map[int]int // occupied column x → min y in that column
	perimeter  []Cell

	rotated *Block // materialised 90° view, crane only
}

// New constructs a block from its footprint cells and optional per-cell
// heights. Cells may use any integer coordinates; the footprint is
// translated so min x = min y = 0. The heights map is keyed in the same
// coordinate space as cells.
//
// Crane blocks get their 90°-rotated view materialised here, once; the
// packer never rotates inside inner loops.
func New(id string, typ Type, cells []Cell, heights map[Cell]HeightRange) (*Block, error) {
	if err := errors.ValidateBlockID(id); err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidBlock, "block %s: empty footprint", id)
	}

	b, err := build(id, typ, Deg0, cells, heights)
	if err != nil {
		return nil, err
	}

	if typ == TypeCrane {
		rc, rh := Rotate90(b.cells, b.heights)
		rot, err := build(id, typ, Deg90, rc, rh)
		if err != nil {
			return nil, err
		}
		b.rotated = rot
	}
	return b, nil
}

func build(id string, typ Type, o Orientation, cells []Cell, heights map[Cell]HeightRange) (*Block, error) {
	minX, minY := cells[0].X, cells[0].Y
	for _, c := range cells[1:] {
		minX = min(minX, c.X)
		minY = min(minY, c.Y)
	}

	b := &Block{
		id:          id,
		typ:         typ,
		orientation: o,
		cells:       make([]Cell, 0, len(cells)),
		lookup:      make(map[Cell]struct{}, len(cells)),
		heights:     make(map[Cell]HeightRange, len(heights)),
		rightEdge:   make(map[int]int),
		bottomEdge:  make(map[int]int),
	}

	for _, c := range cells {
		n := Cell{X: c.X - minX, Y: c.Y - minY}
		if _, dup := b.lookup[n]; dup {
			return nil, errors.New(errors.ErrCodeInvalidBlock, "block %s: duplicate footprint cell (%d,%d)", id, c.X, c.Y)
		}
		b.lookup[n] = struct{}{}
		b.cells = append(b.cells, n)

		if h, ok := heights[c]; ok {
			b.heights[n] = h
		}

		b.width = max(b.width, n.X+1)
		b.height = max(b.height, n.Y+1)

		if r, ok := b.rightEdge[n.Y]; !ok || n.X > r {
			b.rightEdge[n.Y] = n.X
		}
		if bt, ok := b.bottomEdge[n.X]; !ok || n.Y < bt {
			b.bottomEdge[n.X] = n.Y
		}
	}

	sortCells(b.cells)
	b.perimeter = computePerimeter(b.cells, b.lookup)
	return b, nil
}

// Rotate90 rotates footprint cells by 90° and returns the rotated cells and
// heights, normalised to the origin. The mapping is (x, y) → (y, maxX − x),
// which keeps the cell order deterministic after normalisation.
func Rotate90(cells []Cell, heights map[Cell]HeightRange) ([]Cell, map[Cell]HeightRange) {
	maxX := 0
	for _, c := range cells {
		maxX = max(maxX, c.X)
	}

	out := make([]Cell, len(cells))
	oh := make(map[Cell]HeightRange, len(heights))
	for i, c := range cells {
		r := Cell{X: c.Y, Y: maxX - c.X}
		out[i] = r
		if h, ok := heights[c]; ok {
			oh[r] = h
		}
	}
	return out, oh
}

// sortCells orders cells by (y, x) so that every derived slice iterates in a
// defined order regardless of input ordering.
func sortCells(cells []Cell) {
	slices.SortFunc(cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
}

// computePerimeter returns the footprint cells with at least one 4-neighbour
// outside the footprint, sorted by (y, x).
func computePerimeter(cells []Cell, lookup map[Cell]struct{}) []Cell {
	var perim []Cell
	for _, c := range cells {
		neighbours := [4]Cell{
			{X: c.X + 1, Y: c.Y},
			{X: c.X - 1, Y: c.Y},
			{X: c.X, Y: c.Y + 1},
			{X: c.X, Y: c.Y - 1},
		}
		for _, n := range neighbours {
			if _, ok := lookup[n]; !ok {
				perim = append(perim, c)
				break
			}
		}
	}
	return perim
}

// ID returns the block identifier.
func (b *Block) ID() string { return b.id }

// Type returns the block type.
func (b *Block) Type() Type { return b.typ }

// Orientation returns the orientation of this view of the block.
func (b *Block) Orientation() Orientation { return b.orientation }

// Width returns the footprint extent along x (max x + 1).
func (b *Block) Width() int { return b.width }

// Height returns the footprint extent along y (max y + 1).
func (b *Block) Height() int { return b.height }

// Area returns the number of footprint cells.
func (b *Block) Area() int { return len(b.cells) }

// Cells returns the normalised footprint cells sorted by (y, x).
// The returned slice must not be modified.
func (b *Block) Cells() []Cell { return b.cells }

// Contains reports whether the footprint contains the given relative cell.
func (b *Block) Contains(c Cell) bool {
	_, ok := b.lookup[c]
	return ok
}

// HeightAt returns the height range recorded for a footprint cell.
func (b *Block) HeightAt(c Cell) (HeightRange, bool) {
	h, ok := b.heights[c]
	return h, ok
}

// RightEdge maps each occupied row y to the rightmost footprint x in that
// row. The returned map must not be modified.
func (b *Block) RightEdge() map[int]int { return b.rightEdge }

// BottomEdge maps each occupied column x to the lowest footprint y in that
// column. The returned map must not be modified.
func (b *Block) BottomEdge() map[int]int { return b.bottomEdge }

// Perimeter returns the boundary cells of the footprint sorted by (y, x).
// The returned slice must not be modified.
func (b *Block) Perimeter() []Cell { return b.perimeter }

// Rotated returns the materialised 90° view, if any. Only crane blocks
// carry one.
func (b *Block) Rotated() (*Block, bool) {
	if b.rotated == nil {
		return nil, false
	}
	return b.rotated, true
}

// Oriented resolves the view of the block for the given orientation.
// Asking a view for its own orientation returns the view itself; otherwise
// the materialised counterpart is returned, or nil if the block has none.
func (b *Block) Oriented(o Orientation) *Block {
	if o == b.orientation {
		return b
	}
	return b.rotated
}
