package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deckpack/pkg/plan"
	"github.com/matzehuels/deckpack/pkg/render"
)

// renderCommand creates the render command for drawing existing plans.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		cellSize float64
		grid     bool
		noLegend bool
	)

	cmd := &cobra.Command{
		Use:   "render [plan.json]",
		Short: "Render a placement plan as SVG",
		Long: `Render a placement plan as SVG.

The render command takes a plan document (produced by 'place') and draws
the deck with its clearance bands and every placed block. Re-rendering a
stored plan never re-runs the packing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(args[0], output, cellSize, grid, noLegend)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().Float64Var(&cellSize, "cell-size", 12, "SVG pixels per deck cell")
	cmd.Flags().BoolVar(&grid, "grid", false, "overlay the cell grid")
	cmd.Flags().BoolVar(&noLegend, "no-legend", false, "suppress the legend")

	return cmd
}

// runRender loads the plan and writes the SVG.
func (c *CLI) runRender(input, output string, cellSize float64, grid, noLegend bool) error {
	p, err := plan.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}

	opts := []render.Option{render.WithCellSize(cellSize)}
	if grid {
		opts = append(opts, render.WithGrid())
	}
	if noLegend {
		opts = append(opts, render.WithoutLegend())
	}
	svg := render.SVG(p, opts...)

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		base = strings.TrimSuffix(base, ".plan")
		outputPath = base + ".svg"
	}

	if err := os.WriteFile(outputPath, svg, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Render complete")
	printFile(outputPath)
	printStats(p.Metrics.PlacedCount, p.Metrics.UnplacedCount, p.Metrics.Utilization, false)
	return nil
}
