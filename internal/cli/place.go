package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deckpack/pkg/pipeline"
)

// placeCommand creates the place command, the main entry point of the CLI.
func (c *CLI) placeCommand() *cobra.Command {
	var (
		recordsDir string
		records    []string
		output     string
		formats    string
		maxTime    int
		cellSize   float64
		grid       bool
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "place [deck-config]",
		Short: "Pack voxel blocks onto a deck and write the placement plan",
		Long: `Pack voxel blocks onto a deck and write the placement plan.

The place command reads a deck configuration (JSON, TOML or YAML) and a set
of voxel records, runs the greedy packing loop, and writes the resulting
plan. Use -f to select output formats; "json" writes the plan document and
"svg" a rendered deck image.

Results are cached locally: re-running with unchanged inputs returns the
cached plan. Use --refresh to force a recomputation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				ConfigPath:  args[0],
				RecordsDir:  recordsDir,
				RecordPaths: records,
				MaxTime:     time.Duration(maxTime) * time.Second,
				Formats:     parseFormats(formats),
				CellSize:    cellSize,
				Grid:        grid,
				Refresh:     refresh,
			}
			return c.runPlace(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&recordsDir, "records", "r", "", "directory of voxel record .json files")
	cmd.Flags().StringArrayVar(&records, "record", nil, "individual voxel record file (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output basename (default: derived from the config name)")
	cmd.Flags().StringVarP(&formats, "formats", "f", "json", "comma-separated output formats: json, svg")
	cmd.Flags().IntVar(&maxTime, "max-time", 15, "placement time budget in seconds (0 = unlimited)")
	cmd.Flags().Float64Var(&cellSize, "cell-size", pipeline.DefaultCellSize, "SVG pixels per deck cell")
	cmd.Flags().BoolVar(&grid, "grid", false, "overlay the cell grid in SVG output")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached plan exists")

	return cmd
}

// runPlace executes the pipeline and writes the requested artifacts.
func (c *CLI) runPlace(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	if opts.MaxTime == 0 {
		opts.MaxTime = -1 // flag 0 means unlimited, pipeline 0 means default
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Packing blocks...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Placement failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(opts.ConfigPath, filepath.Ext(opts.ConfigPath))
	}

	printSuccess("Placement complete")

	var planPath string
	for _, format := range opts.Formats {
		path := base + artifactSuffix(format)
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if format == pipeline.FormatJSON {
			planPath = path
		}
		printFile(path)
	}

	m := result.Plan.Metrics
	printStats(m.PlacedCount, m.UnplacedCount, m.Utilization, result.CacheInfo.PlanHit)
	if m.TimeBudgetExceeded {
		printWarning("time budget exceeded; %d blocks left unplaced", m.UnplacedCount)
	}
	if len(result.Plan.Unplaced) > 0 {
		printDetail("unplaced: %s", strings.Join(result.Plan.Unplaced, ", "))
	}

	if planPath != "" && !slices.Contains(opts.Formats, pipeline.FormatSVG) {
		printNewline()
		printNextStep("Render", "deckpack render "+planPath)
	}
	return nil
}

// artifactSuffix maps a format to its output file suffix.
func artifactSuffix(format string) string {
	if format == pipeline.FormatJSON {
		return ".plan.json"
	}
	return "." + format
}
