package place

import (
	"testing"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/block"
)

func placeAt(t *testing.T, a *area.Area, b *block.Block, x, y int) {
	t.Helper()
	if !a.CanPlace(b, x, y, block.Deg0) {
		t.Fatalf("cannot place %s at (%d,%d)", b.ID(), x, y)
	}
	if err := a.Place(b, x, y, block.Deg0); err != nil {
		t.Fatal(err)
	}
}

func anchorOf(t *testing.T, a *area.Area, id string) (int, int) {
	t.Helper()
	p, ok := a.Placement(id)
	if !ok {
		t.Fatalf("block %s not placed", id)
	}
	return p.X, p.Y
}

func TestCompact_RightShiftTowardBlock(t *testing.T) {
	// Deck 20×5, δ=0: A at (18,0), B at (14,0). B's right edge is at x=15,
	// the obstacle column is 18, so the shift is 18−15−1 = 2.
	a := mustArea(t, area.Params{Width: 20, Height: 5})
	placeAt(t, a, mustBlock(t, "a", block.TypeCrane, 2, 2), 18, 0)
	placeAt(t, a, mustBlock(t, "b", block.TypeCrane, 2, 2), 14, 0)

	Compact(a, "b")

	if x, y := anchorOf(t, a, "b"); x != 16 || y != 0 {
		t.Errorf("b at (%d,%d), want (16,0)", x, y)
	}
	// A is never revisited.
	if x, y := anchorOf(t, a, "a"); x != 18 || y != 0 {
		t.Errorf("a at (%d,%d), want (18,0)", x, y)
	}
}

func TestCompact_RightShiftKeepsSpacing(t *testing.T) {
	a := mustArea(t, area.Params{Width: 20, Height: 5, BlockSpacing: 1})
	placeAt(t, a, mustBlock(t, "a", block.TypeCrane, 2, 2), 18, 0)
	placeAt(t, a, mustBlock(t, "b", block.TypeCrane, 2, 2), 10, 0)

	Compact(a, "b")

	// Obstacle 18, edge 11: shift = 18−11−1−1 = 5 → b ends at (15,0) with
	// one empty column before a.
	if x, _ := anchorOf(t, a, "b"); x != 15 {
		t.Errorf("b at x=%d, want 15", x)
	}
}

func TestCompact_RightShiftToBoundary(t *testing.T) {
	a := mustArea(t, area.Params{Width: 20, Height: 5})
	placeAt(t, a, mustBlock(t, "b", block.TypeCrane, 2, 2), 10, 0)

	Compact(a, "b")

	// No obstacle: edge 11 runs to the boundary column 20, shift 20−11−1 = 8.
	if x, _ := anchorOf(t, a, "b"); x != 18 {
		t.Errorf("b at x=%d, want 18", x)
	}
}

func TestCompact_CraneRespectsRing(t *testing.T) {
	a := mustArea(t, area.Params{Width: 30, Height: 10, RingBowClearance: 5})
	crane := mustBlock(t, "c", block.TypeCrane, 4, 4)
	placeAt(t, a, crane, 15, 0)

	Compact(a, "c")

	// The ring reservation caps the boundary at column 25: edge 18 shifts
	// by 25−18−1 = 6, landing far_x at 24 with distance exactly 5.
	if x, _ := anchorOf(t, a, "c"); x != 21 {
		t.Errorf("c at x=%d, want 21", x)
	}
}

func TestCompact_DownShift(t *testing.T) {
	a := mustArea(t, area.Params{Width: 20, Height: 10})
	placeAt(t, a, mustBlock(t, "b", block.TypeCrane, 2, 2), 18, 6)

	Compact(a, "b")

	if _, y := anchorOf(t, a, "b"); y != 0 {
		t.Errorf("b at y=%d, want 0", y)
	}
}

func TestCompact_DownShiftOntoObstacle(t *testing.T) {
	a := mustArea(t, area.Params{Width: 20, Height: 12, BlockSpacing: 1})
	placeAt(t, a, mustBlock(t, "floor", block.TypeCrane, 4, 2), 16, 0)
	placeAt(t, a, mustBlock(t, "b", block.TypeCrane, 2, 2), 17, 8)

	Compact(a, "b")

	// Obstacle top cell at y=1, bottom edge at y=8: shift = 8−1−1−1 = 5,
	// leaving one empty row between the blocks.
	if _, y := anchorOf(t, a, "b"); y != 3 {
		t.Errorf("b at y=%d, want 3", y)
	}
}

func TestCompact_IrregularEdgeRows(t *testing.T) {
	// B has a notched right edge:
	//   XX.
	//   XXX
	// Row 0 reaches x+2, row 1 only x+1. The shift is limited by the
	// closest obstacle across rows.
	cells := []block.Cell{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}}
	b, err := block.New("b", block.TypeCrane, cells, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := mustArea(t, area.Params{Width: 20, Height: 5})
	// Wall covering both rows at x=18.
	placeAt(t, a, mustBlock(t, "wall", block.TypeCrane, 2, 2), 18, 0)
	if err := a.Place(b, 10, 0, block.Deg0); err != nil {
		t.Fatal(err)
	}

	Compact(a, "b")

	// Row 0 edge at 12: 18−12−1 = 5. Row 1 edge at 11: 18−11−1 = 6.
	// The minimum 5 wins: b moves to x=15.
	if x, _ := anchorOf(t, a, "b"); x != 15 {
		t.Errorf("b at x=%d, want 15", x)
	}
}

func TestCompact_NoRoom(t *testing.T) {
	a := mustArea(t, area.Params{Width: 10, Height: 5})
	placeAt(t, a, mustBlock(t, "a", block.TypeCrane, 2, 2), 8, 0)
	placeAt(t, a, mustBlock(t, "b", block.TypeCrane, 2, 2), 6, 0)

	Compact(a, "b")

	if x, y := anchorOf(t, a, "b"); x != 6 || y != 0 {
		t.Errorf("b moved to (%d,%d), want (6,0)", x, y)
	}
	if a.PlacedCount() != 2 {
		t.Errorf("PlacedCount = %d after no-op compaction, want 2", a.PlacedCount())
	}
}
