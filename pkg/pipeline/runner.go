package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deckpack/pkg/cache"
	"github.com/matzehuels/deckpack/pkg/config"
	"github.com/matzehuels/deckpack/pkg/core/area"
	"github.com/matzehuels/deckpack/pkg/core/place"
	"github.com/matzehuels/deckpack/pkg/errors"
	"github.com/matzehuels/deckpack/pkg/observability"
	"github.com/matzehuels/deckpack/pkg/plan"
	"github.com/matzehuels/deckpack/pkg/render"
	"github.com/matzehuels/deckpack/pkg/voxel"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; each run owns its own placement area.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → place → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	cfg, records, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Config = cfg
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.BlockCount = len(records)

	logger.Info("loaded inputs",
		"deck", cfg.Name,
		"blocks", len(records),
		"duration", result.Stats.LoadTime)

	// Stage 2: Place
	placeStart := time.Now()
	p, planHit, err := r.PlaceWithCacheInfo(ctx, cfg, records, opts)
	if err != nil {
		return nil, err
	}
	result.Plan = p
	result.Stats.PlaceTime = time.Since(placeStart)
	result.CacheInfo.PlanHit = planHit

	logger.Info("computed placement",
		"placed", p.Metrics.PlacedCount,
		"unplaced", p.Metrics.UnplacedCount,
		"duration", result.Stats.PlaceTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the deck configuration and the voxel records.
func (r *Runner) Load(ctx context.Context, opts Options) (*config.Config, []*voxel.Record, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	var records []*voxel.Record
	if len(opts.RecordPaths) > 0 {
		records = make([]*voxel.Record, 0, len(opts.RecordPaths))
		for _, path := range opts.RecordPaths {
			rec, err := voxel.Load(path)
			if err != nil {
				return nil, nil, err
			}
			records = append(records, rec)
		}
	} else {
		records, err = voxel.LoadDir(opts.RecordsDir)
		if err != nil {
			return nil, nil, err
		}
	}
	return cfg, records, nil
}

// PlaceWithCacheInfo runs the packing with caching and returns cache hit info.
//
// The cache key is content-addressed: the decoded records plus every deck
// and search parameter that can change the outcome. Runs that were cut
// short by the budget or a cancellation are never cached.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, cfg *config.Config, records []*voxel.Record, opts Options) (plan.Plan, bool, error) {
	opts.SetDefaults()

	cacheKey, err := r.planKey(cfg, records, opts)
	if err != nil {
		return plan.Plan{}, false, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := plan.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "plan")
				return cached, true, nil
			}
			// Undecodable entry: fall through to recompute.
		}
	}
	observability.Cache().OnCacheMiss(ctx, "plan")

	p, err := r.Place(ctx, cfg, records, opts)
	if err != nil {
		return plan.Plan{}, false, err
	}

	if !p.Metrics.TimeBudgetExceeded && !p.Metrics.Canceled {
		if data, err := plan.Marshal(p); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLPlan); err == nil {
				observability.Cache().OnCacheSet(ctx, "plan", len(data))
			}
		}
	}
	return p, false, nil
}

// Place runs the packing without consulting the cache.
func (r *Runner) Place(ctx context.Context, cfg *config.Config, records []*voxel.Record, opts Options) (plan.Plan, error) {
	params, err := cfg.AreaParams()
	if err != nil {
		return plan.Plan{}, err
	}
	a, err := area.New(params)
	if err != nil {
		return plan.Plan{}, err
	}
	blocks, err := voxel.Blocks(records)
	if err != nil {
		return plan.Plan{}, err
	}

	res, err := place.PlaceAll(ctx, a, blocks, opts.placeOptions())
	if err != nil {
		return plan.Plan{}, err
	}

	deck := plan.DeckFromParams(cfg.Name, params, cfg.GridSize.GridUnit)
	return plan.FromResult(deck, a, res), nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, p plan.Plan, opts Options) (map[string][]byte, bool, error) {
	opts.SetDefaults()

	planData, err := plan.Marshal(p)
	if err != nil {
		return nil, false, err
	}
	planHash := cache.Hash(planData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(planHash, opts.artifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := r.Render(p, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(planHash, opts.artifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render generates the requested artifact formats without caching.
func (r *Runner) Render(p plan.Plan, opts Options) (map[string][]byte, error) {
	opts.SetDefaults()

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := plan.Marshal(p)
			if err != nil {
				return nil, err
			}
			out[format] = data
		case FormatSVG:
			ropts := []render.Option{render.WithCellSize(opts.CellSize)}
			if opts.Grid {
				ropts = append(ropts, render.WithGrid())
			}
			out[format] = render.SVG(p, ropts...)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", format)
		}
	}
	return out, nil
}

// planKey builds the content-addressed cache key for a placement.
func (r *Runner) planKey(cfg *config.Config, records []*voxel.Record, opts Options) (string, error) {
	recordData, err := json.Marshal(records)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash records")
	}
	blocksHash := cache.Hash(recordData)
	return r.Keyer.PlanKey(blocksHash, opts.planKeyOpts(cfg)), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
