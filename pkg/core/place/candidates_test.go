package place

import (
	"testing"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/block"
)

func mustBlock(t *testing.T, id string, typ block.Type, w, h int) *block.Block {
	t.Helper()
	cells := make([]block.Cell, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cells = append(cells, block.Cell{X: x, Y: y})
		}
	}
	b, err := block.New(id, typ, cells, nil)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func mustArea(t *testing.T, p area.Params) *area.Area {
	t.Helper()
	a, err := area.New(p)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestCandidates_EmptyDeck(t *testing.T) {
	t.Run("trestle yields the corner anchor", func(t *testing.T) {
		a := mustArea(t, area.Params{Width: 10, Height: 10})
		b := mustBlock(t, "b", block.TypeTrestle, 3, 2)

		got := Candidates(a, b, 25)
		want := []Candidate{{X: 7, Y: 0, Orientation: block.Deg0}}
		if len(got) != 1 || got[0] != want[0] {
			t.Errorf("candidates = %v, want %v", got, want)
		}
	})

	t.Run("crane appends the rotated corner", func(t *testing.T) {
		a := mustArea(t, area.Params{Width: 10, Height: 10})
		b := mustBlock(t, "c", block.TypeCrane, 3, 2)

		got := Candidates(a, b, 25)
		want := []Candidate{
			{X: 7, Y: 0, Orientation: block.Deg0},
			{X: 8, Y: 0, Orientation: block.Deg90},
		}
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("candidates = %v, want %v", got, want)
		}
	})

	t.Run("clearances shift the corner", func(t *testing.T) {
		a := mustArea(t, area.Params{Width: 12, Height: 10, BowClearance: 2, SternClearance: 1})
		b := mustBlock(t, "b", block.TypeTrestle, 3, 2)

		got := Candidates(a, b, 25)
		if len(got) != 1 || got[0].X != 7 {
			t.Errorf("candidates = %v, want anchor x=7", got)
		}
	})

	t.Run("oversized block yields nothing", func(t *testing.T) {
		a := mustArea(t, area.Params{Width: 10, Height: 10, BowClearance: 2, SternClearance: 2})
		b := mustBlock(t, "wide", block.TypeTrestle, 7, 1)

		if got := Candidates(a, b, 25); len(got) != 0 {
			t.Errorf("candidates = %v, want none", got)
		}
	})
}

func TestCandidates_Stacking(t *testing.T) {
	// One 3×2 block in the bottom-right corner: columns 7..9 are topped at
	// y=2. With δ=1 the stacking anchors sit at y=3, rightmost first, and
	// the new-column anchor at x = 7−3−1 = 3.
	a := mustArea(t, area.Params{Width: 10, Height: 10, BlockSpacing: 1})
	first := mustBlock(t, "a", block.TypeTrestle, 3, 2)
	if err := a.Place(first, 7, 0, block.Deg0); err != nil {
		t.Fatal(err)
	}

	b := mustBlock(t, "b", block.TypeTrestle, 3, 2)
	got := Candidates(a, b, 25)
	want := []Candidate{
		{X: 9, Y: 3, Orientation: block.Deg0},
		{X: 8, Y: 3, Orientation: block.Deg0},
		{X: 7, Y: 3, Orientation: block.Deg0},
		{X: 3, Y: 0, Orientation: block.Deg0},
	}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCandidates_StackingSkipsTallAnchors(t *testing.T) {
	// Deck only 6 high: a 3×2 block needs its anchor at y ≤ 4, so a column
	// topped at y=5 leaves no stacking room. Fill the column to the brim first.
	a := mustArea(t, area.Params{Width: 10, Height: 6, BlockSpacing: 1})
	tall := mustBlock(t, "tall", block.TypeTrestle, 3, 5)
	if err := a.Place(tall, 7, 0, block.Deg0); err != nil {
		t.Fatal(err)
	}

	b := mustBlock(t, "b", block.TypeTrestle, 3, 2)
	got := Candidates(a, b, 25)
	// Stacking would need y = 5+1 = 6 with height 2 → 8 > 6: only R3 left.
	want := Candidate{X: 3, Y: 0, Orientation: block.Deg0}
	if len(got) != 1 || got[0] != want {
		t.Errorf("candidates = %v, want [%v]", got, want)
	}
}

func TestCandidates_NewColumnGuard(t *testing.T) {
	// The leftmost column is too close to the stern for another block.
	a := mustArea(t, area.Params{Width: 10, Height: 10, SternClearance: 2})
	first := mustBlock(t, "a", block.TypeTrestle, 3, 2)
	if err := a.Place(first, 2, 0, block.Deg0); err != nil {
		t.Fatal(err)
	}

	b := mustBlock(t, "b", block.TypeTrestle, 3, 2)
	for _, c := range Candidates(a, b, 25) {
		if c.Y == 0 && c.X < 2 {
			t.Errorf("candidate %v violates the stern clearance", c)
		}
	}
}

func TestCandidates_Truncation(t *testing.T) {
	a := mustArea(t, area.Params{Width: 20, Height: 20})
	wide := mustBlock(t, "wide", block.TypeTrestle, 15, 2)
	if err := a.Place(wide, 5, 0, block.Deg0); err != nil {
		t.Fatal(err)
	}

	b := mustBlock(t, "b", block.TypeCrane, 2, 2)
	if got := Candidates(a, b, 4); len(got) != 4 {
		t.Errorf("len(candidates) = %d, want 4", len(got))
	}
}
