package voxel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/deckpack/pkg/core/block"
	"github.com/matzehuels/deckpack/pkg/errors"
)

const validRecord = `{
  "block_id": "4391_643_000",
  "block_type": "crane",
  "voxel_data": {
    "resolution": 0.5,
    "voxel_positions": [
      [0, 0, [0, 4]],
      [1, 0, [0, 4]],
      [0, 1, [0, 2]],
      [1, 1, [0, 2, 7]]
    ],
    "footprint_area": 4
  }
}`

func TestDecode_Valid(t *testing.T) {
	rec, err := Decode(strings.NewReader(validRecord))
	if err != nil {
		t.Fatal(err)
	}

	if rec.BlockID != "4391_643_000" {
		t.Errorf("BlockID = %q", rec.BlockID)
	}
	if rec.BlockType != "crane" {
		t.Errorf("BlockType = %q", rec.BlockType)
	}
	if len(rec.VoxelData.VoxelPositions) != 4 {
		t.Fatalf("positions = %d, want 4", len(rec.VoxelData.VoxelPositions))
	}

	p := rec.VoxelData.VoxelPositions[3]
	if p.X != 1 || p.Y != 1 {
		t.Errorf("position 3 = (%d,%d), want (1,1)", p.X, p.Y)
	}
	// The trailing count element is ignored.
	if p.Height != (block.HeightRange{Min: 0, Max: 2}) {
		t.Errorf("height = %v, want {0 2}", p.Height)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{`},
		{"missing block_id", `{"voxel_data": {"voxel_positions": [[0,0,[0,1]]]}}`},
		{"empty block_id", `{"block_id": "", "voxel_data": {"voxel_positions": [[0,0,[0,1]]]}}`},
		{"missing positions", `{"block_id": "b", "voxel_data": {}}`},
		{"empty positions", `{"block_id": "b", "voxel_data": {"voxel_positions": []}}`},
		{"non-integer cell", `{"block_id": "b", "voxel_data": {"voxel_positions": [[0.5, 0, [0,1]]]}}`},
		{"negative cell", `{"block_id": "b", "voxel_data": {"voxel_positions": [[-1, 0, [0,1]]]}}`},
		{"short tuple", `{"block_id": "b", "voxel_data": {"voxel_positions": [[0, 0]]}}`},
		{"short height range", `{"block_id": "b", "voxel_data": {"voxel_positions": [[0, 0, [3]]]}}`},
		{"zero resolution", `{"block_id": "b", "voxel_data": {"resolution": 0, "voxel_positions": [[0,0,[0,1]]]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.doc)); err == nil {
				t.Error("Decode should fail")
			} else if got := errors.GetCode(err); got != errors.ErrCodeInvalidRecord {
				t.Errorf("code = %q, want INVALID_RECORD", got)
			}
		})
	}
}

func TestDecode_FootprintAreaMismatch(t *testing.T) {
	doc := `{
	  "block_id": "b",
	  "voxel_data": {
	    "voxel_positions": [[0, 0, [0, 1]], [1, 0, [0, 1]]],
	    "footprint_area": 3
	  }
	}`
	_, err := Decode(strings.NewReader(doc))
	if !errors.Is(err, errors.ErrCodeInvalidRecord) {
		t.Errorf("error = %v, want INVALID_RECORD", err)
	}
}

func TestRecord_Block(t *testing.T) {
	t.Run("crane keeps orientation and heights", func(t *testing.T) {
		rec, err := Decode(strings.NewReader(validRecord))
		if err != nil {
			t.Fatal(err)
		}
		b, err := rec.Block()
		if err != nil {
			t.Fatal(err)
		}
		if b.Type() != block.TypeCrane {
			t.Errorf("Type = %v, want crane", b.Type())
		}
		if b.Width() != 2 || b.Height() != 2 {
			t.Errorf("extent = %dx%d, want 2x2", b.Width(), b.Height())
		}
		if h, ok := b.HeightAt(block.Cell{X: 0, Y: 0}); !ok || h.Max != 4 {
			t.Errorf("HeightAt(0,0) = %v, %v", h, ok)
		}
		if _, ok := b.Rotated(); !ok {
			t.Error("crane should carry a rotated view")
		}
	})

	t.Run("tall trestle is rotated at load", func(t *testing.T) {
		doc := `{
		  "block_id": "t1",
		  "block_type": "trestle",
		  "voxel_data": {
		    "voxel_positions": [[0,0,[0,1]], [0,1,[0,1]], [0,2,[0,1]], [1,0,[0,1]], [1,1,[0,1]], [1,2,[0,1]]]
		  }
		}`
		rec, err := Decode(strings.NewReader(doc))
		if err != nil {
			t.Fatal(err)
		}
		b, err := rec.Block()
		if err != nil {
			t.Fatal(err)
		}
		// 2×3 on the wire becomes 3×2 on deck.
		if b.Width() != 3 || b.Height() != 2 {
			t.Errorf("extent = %dx%d, want 3x2", b.Width(), b.Height())
		}
		if b.Orientation() != block.Deg0 {
			t.Errorf("orientation = %v, want Deg0 after load-time rotation", b.Orientation())
		}
	})

	t.Run("unknown type becomes trestle", func(t *testing.T) {
		doc := `{
		  "block_id": "s1",
		  "block_type": "support",
		  "voxel_data": {"voxel_positions": [[0,0,[0,1]]]}
		}`
		rec, err := Decode(strings.NewReader(doc))
		if err != nil {
			t.Fatal(err)
		}
		b, err := rec.Block()
		if err != nil {
			t.Fatal(err)
		}
		if b.Type() != block.TypeTrestle {
			t.Errorf("Type = %v, want trestle", b.Type())
		}
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	write := func(name, id string) {
		doc := `{"block_id": "` + id + `", "voxel_data": {"voxel_positions": [[0,0,[0,1]]]}}`
		if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("b_second.json", "second")
	write("a_first.json", "first")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("loaded %d records, want 2", len(records))
	}
	// Filename order, not write order.
	if records[0].BlockID != "first" || records[1].BlockID != "second" {
		t.Errorf("order = [%s, %s], want [first, second]", records[0].BlockID, records[1].BlockID)
	}

	if _, err := LoadDir(filepath.Join(dir, "missing")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing dir error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}
