package area

import "github.com/matzehuels/deckpack/pkg/core/block"

// CanPlace reports whether placing the block at the given anchor and
// orientation would preserve every deck invariant. Checks run cheapest
// first: bounds, occupancy, type rules, perimeter spacing.
func (a *Area) CanPlace(b *block.Block, x, y int, o block.Orientation) bool {
	view := b.Oriented(o)
	if view == nil {
		return false
	}
	return a.checkBounds(view, x, y) &&
		a.checkOccupancy(view, x, y) &&
		a.checkTypeRules(view, x, y) &&
		a.checkSpacing(view, x, y)
}

// checkBounds verifies every footprint cell lies inside the usable deck
// rectangle [stern, width−bow) × [0, height).
func (a *Area) checkBounds(view *block.Block, x, y int) bool {
	// The footprint is normalised to its bounding box, so the box fitting
	// is sufficient.
	return x >= a.UsableMinX() &&
		x+view.Width() <= a.UsableMaxX() &&
		y >= 0 &&
		y+view.Height() <= a.params.Height
}

// checkOccupancy verifies every footprint cell is free.
func (a *Area) checkOccupancy(view *block.Block, x, y int) bool {
	for _, c := range view.Cells() {
		if a.grid[y+c.Y][x+c.X] != "" {
			return false
		}
	}
	return true
}

// checkTypeRules applies the block-type constraints: the crane ring-bow
// reservation, the candidate's own trestle access corridor, and the
// corridors of trestles already on deck.
func (a *Area) checkTypeRules(view *block.Block, x, y int) bool {
	if view.Type() == block.TypeCrane {
		if !a.checkRingBow(view, x) {
			return false
		}
	} else if !a.corridorClear(x, y, y+view.Height()) {
		return false
	}

	return a.placedCorridorsClear(view, x, y)
}

// checkRingBow verifies the crane bow-ring distance. The bow coordinate is
// measured as width + bow_clearance: the ring reservation is anchored at
// the outer edge of the bow band, matching the deck operator's convention.
func (a *Area) checkRingBow(view *block.Block, x int) bool {
	if a.params.RingBowClearance <= 0 {
		return true
	}
	farX := x + view.Width() - 1
	distance := a.params.Width + a.params.BowClearance - farX - 1
	return distance >= a.params.RingBowClearance
}

// corridorClear verifies the horizontal access corridor [0, edgeX) over the
// row span [yStart, yEnd) is empty. Trestle blocks are rolled in from the
// stern side and need the full sweep free.
func (a *Area) corridorClear(edgeX, yStart, yEnd int) bool {
	for gx := 0; gx < edgeX; gx++ {
		for gy := yStart; gy < yEnd; gy++ {
			if gy < 0 || gy >= a.params.Height || a.grid[gy][gx] != "" {
				return false
			}
		}
	}
	return true
}

// placedCorridorsClear verifies the candidate footprint does not intrude
// into the access corridor of any trestle already on deck.
func (a *Area) placedCorridorsClear(view *block.Block, x, y int) bool {
	for _, id := range a.order {
		p := a.placed[id]
		if p.Block.Type() == block.TypeCrane {
			continue
		}

		// Corridor of p: [0, p.X) × [p.Y, p.Y + height).
		if x >= p.X {
			continue // no candidate cell can reach left of p.X
		}
		top := p.Y + p.Block.Height()
		if y >= top || y+view.Height() <= p.Y {
			continue
		}

		for _, c := range view.Cells() {
			gx, gy := x+c.X, y+c.Y
			if gx < p.X && gy >= p.Y && gy < top {
				return false
			}
		}
	}
	return true
}

// checkSpacing verifies the chessboard gap between the candidate's
// perimeter cells and the perimeter cells of each placed block is at least
// δ. Blocks whose bounding boxes already sit further than δ apart are
// skipped without touching cell pairs.
func (a *Area) checkSpacing(view *block.Block, x, y int) bool {
	delta := a.params.BlockSpacing
	if delta <= 0 {
		return true
	}

	for _, id := range a.order {
		p := a.placed[id]
		if boxGap(x, y, view, p.X, p.Y, p.Block) > delta {
			continue
		}

		for _, pc := range p.Block.Perimeter() {
			px, py := p.X+pc.X, p.Y+pc.Y
			for _, cc := range view.Perimeter() {
				if chessboardGap(x+cc.X, y+cc.Y, px, py) < delta {
					return false
				}
			}
		}
	}
	return true
}

// chessboardGap is the number of empty cells between two distinct grid
// cells along the widest axis: max(|dx|,|dy|) − 1. Coincident cells are
// distance 0 (overlap, rejected earlier by occupancy). Axis-aligned
// adjacency is also 0, so δ counts required empty cells exactly.
func chessboardGap(ax, ay, bx, by int) int {
	dx, dy := ax-bx, ay-by
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx == 0 && dy == 0 {
		return 0
	}
	return max(dx, dy) - 1
}

// boxGap is the chessboard gap between two block bounding boxes. It lower-
// bounds the gap between any pair of their cells.
func boxGap(ax, ay int, a *block.Block, bx, by int, b *block.Block) int {
	dx := axisGap(ax, ax+a.Width()-1, bx, bx+b.Width()-1)
	dy := axisGap(ay, ay+a.Height()-1, by, by+b.Height()-1)
	return max(dx, dy)
}

// axisGap is the number of empty cells between two closed intervals on one
// axis, or 0 when they touch or overlap.
func axisGap(aMin, aMax, bMin, bMax int) int {
	if aMin > bMax {
		return aMin - bMax - 1
	}
	if bMin > aMax {
		return bMin - aMax - 1
	}
	return 0
}
