// Package pipeline provides the core placement pipeline for Deckpack.
//
// This package implements the complete load → place → render pipeline that
// can be used by the CLI and by embedding callers. Centralizing this logic
// keeps behavior consistent across entry points and avoids duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the deck configuration and the voxel records
//  2. Place: Run the greedy packing loop and assemble the plan
//  3. Render: Generate output in various formats (JSON, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ConfigPath: "deck.json",
//	    RecordsDir: "records/",
//	    Formats:    []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deckpack/pkg/cache"
	"github.com/matzehuels/deckpack/pkg/config"
	"github.com/matzehuels/deckpack/pkg/core/place"
	"github.com/matzehuels/deckpack/pkg/errors"
	"github.com/matzehuels/deckpack/pkg/plan"
)

// Defaults shared by CLI and embedding callers.
const (
	// DefaultMaxTime bounds one placement run.
	DefaultMaxTime = 15 * time.Second

	// DefaultCellSize is the SVG pixel size of one deck cell.
	DefaultCellSize = 12.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
}

// Options configure a pipeline run.
type Options struct {
	// ConfigPath is the deck configuration file. Required.
	ConfigPath string

	// RecordPaths lists voxel record files explicitly. When empty,
	// RecordsDir is scanned instead.
	RecordPaths []string

	// RecordsDir holds the voxel records as .json files.
	RecordsDir string

	// MaxTime bounds the placement run. Zero applies DefaultMaxTime;
	// negative disables the budget.
	MaxTime time.Duration

	// Phase1Candidates and Phase2Candidates tune the greedy search; zero
	// keeps the engine defaults.
	Phase1Candidates int
	Phase2Candidates int

	// Formats selects the rendered outputs. Defaults to ["json"].
	Formats []string

	// CellSize and Grid tune SVG rendering.
	CellSize float64
	Grid     bool

	// Refresh bypasses cache reads (results are still written back).
	Refresh bool

	// Logger receives stage progress. Defaults to the runner's logger.
	Logger *log.Logger
}

// SetDefaults fills the zero-valued fields.
func (o *Options) SetDefaults() {
	if o.MaxTime == 0 {
		o.MaxTime = DefaultMaxTime
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.CellSize == 0 {
		o.CellSize = DefaultCellSize
	}
}

// Validate checks the options for a complete pipeline run.
func (o *Options) Validate() error {
	if o.ConfigPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "config path is required")
	}
	if len(o.RecordPaths) == 0 && o.RecordsDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "either record paths or a records directory is required")
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", f)
		}
	}
	return nil
}

// placeOptions converts the pipeline options to engine options.
func (o *Options) placeOptions() place.Options {
	maxTime := o.MaxTime
	if maxTime < 0 {
		maxTime = 0
	}
	return place.Options{
		MaxTime:          maxTime,
		Phase1Candidates: o.Phase1Candidates,
		Phase2Candidates: o.Phase2Candidates,
	}
}

// planKeyOpts derives the cache key inputs from the deck and the search
// parameters.
func (o *Options) planKeyOpts(cfg *config.Config) cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		DeckWidth:        int(cfg.GridSize.Width / cfg.GridSize.GridUnit),
		DeckHeight:       int(cfg.GridSize.Height / cfg.GridSize.GridUnit),
		BowClearance:     cfg.Constraints.Margin.Bow,
		SternClearance:   cfg.Constraints.Margin.Stern,
		BlockSpacing:     cfg.Constraints.BlockClearance,
		RingBowClearance: cfg.Constraints.RingBowClearance,
		Phase1Candidates: o.Phase1Candidates,
		Phase2Candidates: o.Phase2Candidates,
	}
}

// artifactKeyOpts derives the cache key inputs for one output format.
func (o *Options) artifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		CellSize: o.CellSize,
		Grid:     o.Grid,
	}
}

// Stats collects per-stage timings.
type Stats struct {
	LoadTime   time.Duration
	PlaceTime  time.Duration
	RenderTime time.Duration
	BlockCount int
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	PlanHit   bool
	RenderHit bool
}

// Result is the outcome of a complete pipeline run.
type Result struct {
	Config    *config.Config
	Plan      plan.Plan
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}
