// Package plan defines the serialization format for placement outcomes.
//
// A Plan is the canonical document produced by a packing run: the deck
// geometry, every committed placement with its absolute footprint cells and
// height ranges, the unplaced ids, and the run metrics. It is what the CLI
// writes to disk, what the renderer consumes, and what higher scheduling
// layers read back.
//
// The format is human-readable JSON and designed for round-trip fidelity:
// pack → export → re-import → render produces identical output.
package plan

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/place"
	"github.com/matzehuels/deckpack/pkg/errors"
)

// FormatVersion is bumped on incompatible changes to the document layout.
const FormatVersion = 1

// Deck echoes the deck geometry a plan was computed for, in cells.
type Deck struct {
	Name             string  `json:"name,omitempty"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	BowClearance     int     `json:"bow_clearance"`
	SternClearance   int     `json:"stern_clearance"`
	BlockSpacing     int     `json:"block_spacing"`
	RingBowClearance int     `json:"ring_bow_clearance"`
	GridUnit         float64 `json:"grid_unit,omitempty"`
}

// Cell is one occupied deck cell of a placement, with the height range
// carried through for visualisation.
type Cell struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	MinLayer int `json:"min_layer,omitempty"`
	MaxLayer int `json:"max_layer,omitempty"`
}

// Placement is one placed block in deck coordinates.
type Placement struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation int    `json:"orientation"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Cells       []Cell `json:"cells"`
}

// Plan is the complete placement document.
type Plan struct {
	Version    int           `json:"version"`
	ID         string        `json:"id"`
	Deck       Deck          `json:"deck"`
	Placements []Placement   `json:"placements"`
	Unplaced   []string      `json:"unplaced"`
	Metrics    place.Metrics `json:"metrics"`
}

// DeckFromParams builds the deck echo from area parameters.
func DeckFromParams(name string, p area.Params, gridUnit float64) Deck {
	return Deck{
		Name:             name,
		Width:            p.Width,
		Height:           p.Height,
		BowClearance:     p.BowClearance,
		SternClearance:   p.SternClearance,
		BlockSpacing:     p.BlockSpacing,
		RingBowClearance: p.RingBowClearance,
		GridUnit:         gridUnit,
	}
}

// FromResult assembles a plan from a finished run. The area provides the
// footprints of the committed placements; the result provides ordering,
// unplaced ids and metrics. Each plan gets a fresh unique id.
func FromResult(deck Deck, a *area.Area, res *place.Result) Plan {
	p := Plan{
		Version:    FormatVersion,
		ID:         uuid.NewString(),
		Deck:       deck,
		Placements: make([]Placement, 0, len(res.Placed)),
		Unplaced:   res.Unplaced,
		Metrics:    res.Metrics,
	}

	for _, rec := range res.Placed {
		pl, ok := a.Placement(rec.ID)
		if !ok {
			continue
		}
		view := pl.Block

		cells := make([]Cell, 0, view.Area())
		for _, c := range view.Cells() {
			cell := Cell{X: pl.X + c.X, Y: pl.Y + c.Y}
			if h, ok := view.HeightAt(c); ok {
				cell.MinLayer, cell.MaxLayer = h.Min, h.Max
			}
			cells = append(cells, cell)
		}

		p.Placements = append(p.Placements, Placement{
			ID:          rec.ID,
			Type:        string(view.Type()),
			X:           rec.X,
			Y:           rec.Y,
			Orientation: int(rec.Orientation),
			Width:       view.Width(),
			Height:      view.Height(),
			Cells:       cells,
		})
	}

	if p.Unplaced == nil {
		p.Unplaced = []string{}
	}
	return p
}

// Marshal encodes a plan as indented JSON.
func Marshal(p Plan) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode plan")
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes and version-checks a plan document.
func Unmarshal(data []byte) (Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, errors.Wrap(errors.ErrCodeInvalidPlan, err, "decode plan")
	}
	if p.Version != FormatVersion {
		return Plan{}, errors.New(errors.ErrCodeInvalidPlan, "unsupported plan version %d (want %d)", p.Version, FormatVersion)
	}
	return p, nil
}

// Read decodes a plan from r.
func Read(r io.Reader) (Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Plan{}, errors.Wrap(errors.ErrCodeInvalidPlan, err, "read plan")
	}
	return Unmarshal(data)
}

// ReadFile loads a plan document from disk.
func ReadFile(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Plan{}, errors.New(errors.ErrCodeFileNotFound, "plan %s not found", path)
	}
	if err != nil {
		return Plan{}, errors.Wrap(errors.ErrCodeInvalidPlan, err, "read %s", path)
	}
	return Unmarshal(data)
}

// WriteFile writes a plan document to disk.
func WriteFile(p Plan, path string) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BlockTypes returns the distinct block types present in the plan, in
// placement order.
func (p Plan) BlockTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pl := range p.Placements {
		if _, ok := seen[pl.Type]; ok {
			continue
		}
		seen[pl.Type] = struct{}{}
		out = append(out, pl.Type)
	}
	return out
}

// Placement looks up a placement by block id.
func (p Plan) Placement(id string) (Placement, bool) {
	for _, pl := range p.Placements {
		if pl.ID == id {
			return pl, true
		}
	}
	return Placement{}, false
}
