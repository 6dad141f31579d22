package place

import (
	"math"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/block"
	"github.com/matzehuels/deckpack/pkg/errors"
)

// Compact shifts a freshly placed block toward its obstacles: first right
// toward the bow, then down. Earlier placements are never revisited.
func Compact(a *area.Area, id string) {
	shiftRight(a, id)
	shiftDown(a, id)
}

// shiftRight moves the block as far right as its right-edge cells allow.
// For every occupied row the scan finds the first obstacle to the right
// (another block, or the bow boundary — tightened by the ring reservation
// for cranes); the candidate shift is the minimum over rows. Shifts are
// tried largest first and the first that passes CanPlace is committed.
func shiftRight(a *area.Area, id string) bool {
	p, ok := a.Placement(id)
	if !ok {
		return false
	}
	view := p.Block
	delta := a.Spacing()

	bound := a.UsableMaxX()
	if view.Type() == block.TypeCrane && a.RingBowClearance() > 0 {
		bound = min(bound, a.Width()+a.BowClearance()-a.RingBowClearance())
	}

	maxShift := math.MaxInt
	for y, rx := range view.RightEdge() {
		ex, ey := p.X+rx, p.Y+y

		obstacle := bound
		for tx := ex + 1; tx < bound; tx++ {
			if cell := a.At(tx, ey); cell != "" && cell != id {
				obstacle = tx
				break
			}
		}

		maxShift = min(maxShift, max(0, obstacle-ex-1-delta))
	}
	if maxShift <= 0 || maxShift == math.MaxInt {
		return false
	}

	return tryShifts(a, p, maxShift, func(k int) (int, int) { return p.X + k, p.Y })
}

// shiftDown is the symmetric move toward the deck floor, driven by the
// bottom-edge cell of every occupied column.
func shiftDown(a *area.Area, id string) bool {
	p, ok := a.Placement(id)
	if !ok {
		return false
	}
	view := p.Block
	delta := a.Spacing()

	maxShift := math.MaxInt
	for x, by := range view.BottomEdge() {
		ex, ey := p.X+x, p.Y+by

		obstacle := -1 // deck floor
		for ty := ey - 1; ty >= 0; ty-- {
			if cell := a.At(ex, ty); cell != "" && cell != id {
				obstacle = ty
				break
			}
		}

		maxShift = min(maxShift, max(0, ey-obstacle-1-delta))
	}
	if maxShift <= 0 || maxShift == math.MaxInt {
		return false
	}

	return tryShifts(a, p, maxShift, func(k int) (int, int) { return p.X, p.Y - k })
}

// tryShifts removes the block and re-places it at decreasing shift
// distances, committing the first position CanPlace accepts. On failure the
// original placement is restored exactly.
func tryShifts(a *area.Area, p area.Placement, maxShift int, target func(k int) (int, int)) bool {
	o := p.Block.Orientation()

	for k := maxShift; k >= 1; k-- {
		x, y := target(k)

		mustSucceed(a.Remove(p.ID))
		if a.CanPlace(p.Block, x, y, o) {
			mustSucceed(a.Place(p.Block, x, y, o))
			return true
		}
		mustSucceed(a.Place(p.Block, p.X, p.Y, o))
	}
	return false
}

// mustSucceed panics on an error from a restore step. Failing to put the
// deck back into its previous state is unrecoverable.
func mustSucceed(err error) {
	if err != nil {
		panic(errors.Wrap(errors.ErrCodeInternal, err, "compaction corrupted the deck state"))
	}
}
