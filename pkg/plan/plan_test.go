package plan

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/block"
	"github.com/matzehuels/deckpack/pkg/core/place"
	"github.com/matzehuels/deckpack/pkg/errors"
)

// buildPlan runs a tiny packing and assembles its plan.
func buildPlan(t *testing.T) (Plan, *area.Area) {
	t.Helper()

	params := area.Params{Width: 12, Height: 8, BlockSpacing: 1}
	a, err := area.New(params)
	if err != nil {
		t.Fatal(err)
	}

	cells := []block.Cell{{0, 0}, {1, 0}, {0, 1}}
	heights := map[block.Cell]block.HeightRange{{0, 0}: {Min: 0, Max: 5}}
	b1, err := block.New("corner", block.TypeCrane, cells, heights)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := block.New("wide", block.TypeTrestle, []block.Cell{
		{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := place.PlaceAll(context.Background(), a, []*block.Block{b1, b2}, place.Options{})
	if err != nil {
		t.Fatal(err)
	}

	deck := DeckFromParams("dock-a", params, 2)
	return FromResult(deck, a, res), a
}

func TestFromResult(t *testing.T) {
	p, a := buildPlan(t)

	if p.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", p.Version, FormatVersion)
	}
	if p.ID == "" {
		t.Error("plan id should be set")
	}
	if p.Deck.Name != "dock-a" || p.Deck.Width != 12 || p.Deck.GridUnit != 2 {
		t.Errorf("Deck = %+v", p.Deck)
	}
	if len(p.Placements) != a.PlacedCount() {
		t.Fatalf("placements = %d, want %d", len(p.Placements), a.PlacedCount())
	}

	corner, ok := p.Placement("corner")
	if !ok {
		t.Fatal("corner missing from plan")
	}
	if corner.Type != "crane" {
		t.Errorf("Type = %q, want crane", corner.Type)
	}
	if len(corner.Cells) != 3 {
		t.Fatalf("cells = %d, want 3", len(corner.Cells))
	}

	// Cells are absolute and heights survive.
	pl, _ := a.Placement("corner")
	foundHeight := false
	for _, c := range corner.Cells {
		if c.X < pl.X || c.Y < pl.Y {
			t.Errorf("cell (%d,%d) not in deck coordinates", c.X, c.Y)
		}
		if c.MaxLayer == 5 {
			foundHeight = true
		}
	}
	if !foundHeight {
		t.Error("height range lost in plan")
	}

	if p.Metrics.PlacedCount != len(p.Placements) {
		t.Errorf("metrics disagree with placements")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	p, _ := buildPlan(t)

	data, err := Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, back) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", p, back)
	}
}

func TestUnmarshal_VersionCheck(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version": 99}`))
	if !errors.Is(err, errors.ErrCodeInvalidPlan) {
		t.Errorf("error = %v, want INVALID_PLAN", err)
	}

	_, err = Unmarshal([]byte(`not json`))
	if !errors.Is(err, errors.ErrCodeInvalidPlan) {
		t.Errorf("error = %v, want INVALID_PLAN", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	p, _ := buildPlan(t)
	path := filepath.Join(t.TempDir(), "out.plan.json")

	if err := WriteFile(p, path); err != nil {
		t.Fatal(err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, back) {
		t.Error("file round trip mismatch")
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestBlockTypes(t *testing.T) {
	p, _ := buildPlan(t)
	types := p.BlockTypes()

	seen := make(map[string]bool)
	for _, ty := range types {
		if seen[ty] {
			t.Errorf("duplicate type %q", ty)
		}
		seen[ty] = true
	}
	if !seen["crane"] || !seen["trestle"] {
		t.Errorf("types = %v, want crane and trestle", types)
	}
}
