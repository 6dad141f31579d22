package place

import (
	"slices"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/block"
)

// Candidate is one anchor position to try, with the orientation of the view
// it was generated for.
type Candidate struct {
	X           int
	Y           int
	Orientation block.Orientation
}

// Candidates produces the ordered anchor list for a block on the current
// deck, truncated to maxCandidates. Generation is purely geometric; the
// caller filters with CanPlace.
//
// The rules run in order for the unrotated view, then again for the crane
// 90° view:
//
//	R1  bottom-right corner against the bow margin (empty deck only)
//	R2  stacking on top of each occupied column, rightmost column first
//	R3  a new column left of the leftmost occupied column
//
// Rightmost-first ordering biases packing toward the bow so low-x space
// stays free for blocks that roll out over the stern.
func Candidates(a *area.Area, b *block.Block, maxCandidates int) []Candidate {
	views := []*block.Block{b}
	if rot, ok := b.Rotated(); ok {
		views = append(views, rot)
	}

	var (
		tops    map[int]int
		columns []int
	)
	empty := a.PlacedCount() == 0
	if !empty {
		tops = a.ColumnTops()
		columns = make([]int, 0, len(tops))
		for x := range tops {
			columns = append(columns, x)
		}
		slices.Sort(columns)
		slices.Reverse(columns)
	}

	delta := a.Spacing()
	var out []Candidate
	for _, view := range views {
		o := view.Orientation()

		if empty {
			// R1: flush against the bow-side margin, on the deck floor.
			x := a.UsableMaxX() - view.Width()
			if x >= a.UsableMinX() {
				out = append(out, Candidate{X: x, Y: 0, Orientation: o})
			}
			continue
		}

		// R2: vertical stacking per occupied column, rightmost first.
		for _, x := range columns {
			y := tops[x] + delta
			if y+view.Height() <= a.Height() {
				out = append(out, Candidate{X: x, Y: y, Orientation: o})
			}
		}

		// R3: start a new column left of the leftmost occupied one.
		leftmost := columns[len(columns)-1]
		if x := leftmost - view.Width() - delta; x >= a.UsableMinX() {
			out = append(out, Candidate{X: x, Y: 0, Orientation: o})
		}
	}

	if maxCandidates > 0 && len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}
