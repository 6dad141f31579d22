// Package voxel loads per-block voxel records, the packer's only input
// format for block geometry.
//
// A record is a JSON document produced by the voxelisation pipeline:
//
//	{
//	  "block_id": "4391_643_000",
//	  "block_type": "crane",
//	  "voxel_data": {
//	    "resolution": 0.5,
//	    "voxel_positions": [[0, 0, [0, 4]], [1, 0, [0, 4]]],
//	    "footprint_area": 2
//	  }
//	}
//
// Documents are validated against an embedded JSON schema before decoding,
// and footprint_area, when present, is cross-checked against the position
// count. The packer itself never reads meshes or any other source.
package voxel

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/deckpack/pkg/core/block"
	"github.com/matzehuels/deckpack/pkg/errors"
)

// Record is one decoded voxel record.
type Record struct {
	BlockID   string    `json:"block_id"`
	BlockType string    `json:"block_type"`
	VoxelData VoxelData `json:"voxel_data"`
}

// VoxelData carries the 2.5-D footprint of a block.
type VoxelData struct {
	// Resolution is metres per cell. Informational: the packer works in
	// cells throughout.
	Resolution float64 `json:"resolution"`

	// VoxelPositions lists the filled footprint cells with their height
	// ranges.
	VoxelPositions []Position `json:"voxel_positions"`

	// FootprintArea optionally repeats the position count for integrity
	// checking.
	FootprintArea int `json:"footprint_area,omitempty"`
}

// Position is one [x, y, [min, max]] tuple from a record.
type Position struct {
	X      int
	Y      int
	Height block.HeightRange
}

// UnmarshalJSON decodes the wire form [x, y, [min, max]]. A third height
// element (the voxel count emitted by some pipeline versions) is tolerated
// and ignored.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return errors.New(errors.ErrCodeInvalidRecord, "voxel position must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.X); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecord, err, "voxel x coordinate")
	}
	if err := json.Unmarshal(raw[1], &p.Y); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecord, err, "voxel y coordinate")
	}

	var height []int
	if err := json.Unmarshal(raw[2], &height); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecord, err, "voxel height range")
	}
	if len(height) < 2 {
		return errors.New(errors.ErrCodeInvalidRecord, "voxel height range must have at least 2 elements")
	}
	p.Height = block.HeightRange{Min: height[0], Max: height[1]}
	return nil
}

// MarshalJSON re-encodes the position in its wire form.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.X, p.Y, []int{p.Height.Min, p.Height.Max}})
}

// recordSchema is the wire contract for voxel records.
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["block_id", "voxel_data"],
  "properties": {
    "block_id": {"type": "string", "minLength": 1},
    "block_type": {"type": "string"},
    "voxel_data": {
      "type": "object",
      "required": ["voxel_positions"],
      "properties": {
        "resolution": {"type": "number", "exclusiveMinimum": 0},
        "footprint_area": {"type": "integer", "minimum": 0},
        "voxel_positions": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "array",
            "prefixItems": [
              {"type": "integer", "minimum": 0},
              {"type": "integer", "minimum": 0},
              {"type": "array", "items": {"type": "number"}, "minItems": 2}
            ],
            "minItems": 3,
            "maxItems": 3
          }
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("voxel_record.schema.json", recordSchema)

// Decode reads, validates and decodes one voxel record.
func Decode(r io.Reader) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "read voxel record")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "parse voxel record")
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "voxel record schema")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode voxel record")
	}

	top, _ := doc.(map[string]any)
	voxelData, _ := top["voxel_data"].(map[string]any)
	_, hasArea := voxelData["footprint_area"]
	if want := rec.VoxelData.FootprintArea; hasArea && want != len(rec.VoxelData.VoxelPositions) {
		return nil, errors.New(errors.ErrCodeInvalidRecord,
			"record %s: footprint_area %d does not match %d voxel positions",
			rec.BlockID, want, len(rec.VoxelData.VoxelPositions))
	}
	return &rec, nil
}

// Load reads a voxel record file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "voxel record %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "read %s", path)
	}

	rec, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "record %s", path)
	}
	return rec, nil
}

// LoadDir reads every .json record in a directory, in filename order.
func LoadDir(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "record directory %s not found", dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "read directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	records := make([]*Record, 0, len(names))
	for _, name := range names {
		rec, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Block builds the immutable block descriptor for a record.
//
// Trestle blocks that are taller than wide are rotated 90° here, once: they
// roll onto the deck lengthwise, so their long side must run along x. The
// packer never rotates trestles afterwards.
func (r *Record) Block() (*block.Block, error) {
	cells := make([]block.Cell, len(r.VoxelData.VoxelPositions))
	heights := make(map[block.Cell]block.HeightRange, len(r.VoxelData.VoxelPositions))
	for i, p := range r.VoxelData.VoxelPositions {
		c := block.Cell{X: p.X, Y: p.Y}
		cells[i] = c
		heights[c] = p.Height
	}

	typ := block.ParseType(r.BlockType)
	if typ == block.TypeTrestle && extentY(cells) > extentX(cells) {
		cells, heights = block.Rotate90(cells, heights)
	}

	return block.New(r.BlockID, typ, cells, heights)
}

// Blocks builds descriptors for a record list, preserving order.
func Blocks(records []*Record) ([]*block.Block, error) {
	out := make([]*block.Block, len(records))
	for i, rec := range records {
		b, err := rec.Block()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func extentX(cells []block.Cell) int {
	lo, hi := cells[0].X, cells[0].X
	for _, c := range cells[1:] {
		lo, hi = min(lo, c.X), max(hi, c.X)
	}
	return hi - lo + 1
}

func extentY(cells []block.Cell) int {
	lo, hi := cells[0].Y, cells[0].Y
	for _, c := range cells[1:] {
		lo, hi = min(lo, c.Y), max(hi, c.Y)
	}
	return hi - lo + 1
}
