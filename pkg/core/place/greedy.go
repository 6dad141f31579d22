// Package place implements the greedy voxel packing loop: candidate anchor
// generation, post-placement compaction, and the two-phase placement pass
// over a block list.
//
// The loop is single-threaded and deterministic for a fixed input: block
// ordering uses a stable area/id sort and every map-derived ordering is
// sorted before use. Infeasibility of an individual block is a normal
// outcome, never an error; the wall-clock budget and context cancellation
// terminate the run early but still yield the partial result.
package place

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/block"
	"github.com/matzehuels/deckpack/pkg/errors"
	"github.com/matzehuels/deckpack/pkg/observability"
)

// Default candidate caps for the two phases.
const (
	DefaultPhase1Candidates = 25
	DefaultPhase2Candidates = 50
)

// Options tune a placement run.
type Options struct {
	// MaxTime is the wall-clock budget. Zero disables the budget. The
	// deadline is checked per block and per candidate, never inside inner
	// loops.
	MaxTime time.Duration

	// Phase1Candidates caps the candidate list in the primary pass.
	// Defaults to DefaultPhase1Candidates.
	Phase1Candidates int

	// Phase2Candidates caps the candidate list in the retry pass; the
	// effective cap per block is min(Phase2Candidates, 10·placed + 30).
	// Defaults to DefaultPhase2Candidates.
	Phase2Candidates int
}

func (o *Options) setDefaults() {
	if o.Phase1Candidates <= 0 {
		o.Phase1Candidates = DefaultPhase1Candidates
	}
	if o.Phase2Candidates <= 0 {
		o.Phase2Candidates = DefaultPhase2Candidates
	}
}

// Placed records one committed placement.
type Placed struct {
	ID          string            `json:"id"`
	X           int               `json:"x"`
	Y           int               `json:"y"`
	Orientation block.Orientation `json:"orientation"`
}

// Metrics summarises a placement run.
type Metrics struct {
	TotalBlocks   int `json:"total_blocks"`
	PlacedCount   int `json:"placed_count"`
	UnplacedCount int `json:"unplaced_count"`
	PlacedPhase1  int `json:"placed_phase1"`
	PlacedPhase2  int `json:"placed_phase2"`

	// PlacementRate is placed/total, in [0,1].
	PlacementRate float64 `json:"placement_rate"`

	// PlacedArea is the total footprint cell count on deck; Utilization
	// relates it to the full deck area.
	PlacedArea  int     `json:"placed_area"`
	Utilization float64 `json:"utilization"`

	// ClusterEfficiency is PlacedArea over the bounding box of all placed
	// cells; DeadSpaceRatio is its complement.
	ClusterEfficiency float64 `json:"cluster_efficiency"`
	DeadSpaceRatio    float64 `json:"dead_space_ratio"`
	ClusterWidth      int     `json:"cluster_width"`
	ClusterHeight     int     `json:"cluster_height"`

	Elapsed            time.Duration `json:"elapsed"`
	TimeBudgetExceeded bool          `json:"time_budget_exceeded"`
	Canceled           bool          `json:"canceled,omitempty"`
}

// Result is the outcome of PlaceAll: committed placements in placement
// order, the ids that found no position, and run metrics.
type Result struct {
	Placed   []Placed `json:"placed"`
	Unplaced []string `json:"unplaced"`
	Metrics  Metrics  `json:"metrics"`
}

// PlaceAll runs the two-phase greedy loop over the block list.
//
// Phase 1 walks the blocks by descending footprint area (ties broken by id)
// and commits each block at the first candidate CanPlace accepts, compacting
// it immediately. Blocks that fail roll into phase 2, which retries them by
// ascending area with a larger candidate cap.
//
// The area must be empty and is owned by this call for its duration.
func PlaceAll(ctx context.Context, a *area.Area, blocks []*block.Block, opts Options) (*Result, error) {
	opts.setDefaults()

	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if _, dup := seen[b.ID()]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate block id %s in input", b.ID())
		}
		seen[b.ID()] = struct{}{}
	}

	start := time.Now()
	var deadline time.Time
	if opts.MaxTime > 0 {
		deadline = start.Add(opts.MaxTime)
	}

	observability.Placement().OnRunStart(ctx, len(blocks))

	st := &run{
		area:     a,
		deadline: deadline,
	}

	// Phase 1: largest blocks first.
	phase1 := slices.Clone(blocks)
	slices.SortStableFunc(phase1, func(x, y *block.Block) int {
		if c := cmp.Compare(y.Area(), x.Area()); c != 0 {
			return c
		}
		return cmp.Compare(x.ID(), y.ID())
	})
	retry := st.phase(ctx, phase1, 1, func() int { return opts.Phase1Candidates })

	// Phase 2: retry the leftovers, smallest first, with a wider search.
	slices.SortStableFunc(retry, func(x, y *block.Block) int {
		if c := cmp.Compare(x.Area(), y.Area()); c != 0 {
			return c
		}
		return cmp.Compare(x.ID(), y.ID())
	})
	unplaced := st.phase(ctx, retry, 2, func() int {
		return min(opts.Phase2Candidates, 10*a.PlacedCount()+30)
	})

	res := st.result(a, blocks, unplaced, time.Since(start))
	observability.Placement().OnRunComplete(ctx, res.Metrics.PlacedCount, res.Metrics.UnplacedCount, res.Metrics.Elapsed)
	return res, nil
}

// run carries the mutable state of one PlaceAll invocation.
type run struct {
	area     *area.Area
	deadline time.Time

	placedPhase1 int
	placedPhase2 int
	budgetHit    bool
	canceled     bool
}

// phase tries to place every block in order and returns the ones that found
// no position. Once the budget or the context expires, all remaining blocks
// are returned unplaced.
func (r *run) phase(ctx context.Context, blocks []*block.Block, phase int, capFn func() int) []*block.Block {
	var unplaced []*block.Block

	for i, b := range blocks {
		if r.expired(ctx) {
			unplaced = append(unplaced, blocks[i:]...)
			break
		}

		if r.placeOne(ctx, b, phase, capFn()) {
			continue
		}
		unplaced = append(unplaced, b)
		observability.Placement().OnBlockUnplaced(ctx, b.ID(), phase)
	}
	return unplaced
}

// placeOne tries the candidate anchors in order and commits the first
// feasible one, compacting the block right after.
func (r *run) placeOne(ctx context.Context, b *block.Block, phase, maxCandidates int) bool {
	for _, c := range Candidates(r.area, b, maxCandidates) {
		if r.expired(ctx) {
			return false
		}
		if !r.area.CanPlace(b, c.X, c.Y, c.Orientation) {
			continue
		}

		if err := r.area.Place(b, c.X, c.Y, c.Orientation); err != nil {
			// CanPlace held, so a failing Place is a bug, not an outcome.
			panic(errors.Wrap(errors.ErrCodeInternal, err, "place after successful CanPlace"))
		}
		Compact(r.area, b.ID())

		if phase == 1 {
			r.placedPhase1++
		} else {
			r.placedPhase2++
		}
		p, _ := r.area.Placement(b.ID())
		observability.Placement().OnBlockPlaced(ctx, b.ID(), phase, p.X, p.Y)
		return true
	}
	return false
}

// expired reports whether the run should stop, recording why.
func (r *run) expired(ctx context.Context) bool {
	if r.canceled || r.budgetHit {
		return true
	}
	select {
	case <-ctx.Done():
		r.canceled = true
		return true
	default:
	}
	if !r.deadline.IsZero() && time.Now().After(r.deadline) {
		r.budgetHit = true
		return true
	}
	return false
}

// result assembles the final Result from the area state.
func (r *run) result(a *area.Area, blocks []*block.Block, unplaced []*block.Block, elapsed time.Duration) *Result {
	res := &Result{
		Placed:   make([]Placed, 0, a.PlacedCount()),
		Unplaced: make([]string, 0, len(unplaced)),
	}
	for _, p := range a.Placements() {
		res.Placed = append(res.Placed, Placed{
			ID:          p.ID,
			X:           p.X,
			Y:           p.Y,
			Orientation: p.Block.Orientation(),
		})
	}
	for _, b := range unplaced {
		res.Unplaced = append(res.Unplaced, b.ID())
	}

	m := &res.Metrics
	m.TotalBlocks = len(blocks)
	m.PlacedCount = len(res.Placed)
	m.UnplacedCount = len(res.Unplaced)
	m.PlacedPhase1 = r.placedPhase1
	m.PlacedPhase2 = r.placedPhase2
	if m.TotalBlocks > 0 {
		m.PlacementRate = float64(m.PlacedCount) / float64(m.TotalBlocks)
	}
	m.PlacedArea = a.PlacedArea()
	m.Utilization = float64(m.PlacedArea) / float64(a.Width()*a.Height())
	m.Elapsed = elapsed
	m.TimeBudgetExceeded = r.budgetHit
	m.Canceled = r.canceled

	clusterMetrics(a, m)
	return res
}

// clusterMetrics fills the bounding-box efficiency figures for the placed
// cluster.
func clusterMetrics(a *area.Area, m *Metrics) {
	if m.PlacedCount == 0 {
		m.DeadSpaceRatio = 1
		return
	}

	minX, minY := a.Width(), a.Height()
	maxX, maxY := -1, -1
	for _, p := range a.Placements() {
		for _, c := range p.Block.Cells() {
			gx, gy := p.X+c.X, p.Y+c.Y
			minX = min(minX, gx)
			minY = min(minY, gy)
			maxX = max(maxX, gx)
			maxY = max(maxY, gy)
		}
	}

	m.ClusterWidth = maxX - minX + 1
	m.ClusterHeight = maxY - minY + 1
	clusterArea := m.ClusterWidth * m.ClusterHeight
	m.ClusterEfficiency = float64(m.PlacedArea) / float64(clusterArea)
	m.DeadSpaceRatio = 1 - m.ClusterEfficiency
}
