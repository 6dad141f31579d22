package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deckpack/pkg/voxel"
)

// inspectCommand creates the inspect command for summarising voxel records.
func (c *CLI) inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [records-dir]",
		Short: "Summarise the voxel records in a directory",
		Long: `Summarise the voxel records in a directory.

For each record the command prints the block id, its type and the derived
footprint geometry the packer will work with, including the load-time
rotation applied to tall trestle blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0])
		},
	}
	return cmd
}

// runInspect loads every record and prints its derived geometry.
func (c *CLI) runInspect(ctx context.Context, dir string) error {
	prog := newProgress(loggerFromContext(ctx))

	records, err := voxel.LoadDir(dir)
	if err != nil {
		return err
	}

	totalArea := 0
	for _, rec := range records {
		b, err := rec.Block()
		if err != nil {
			printWarning("%s: %v", rec.BlockID, err)
			continue
		}

		printKeyValue(b.ID(), fmt.Sprintf("%-8s %2d×%-2d cells  area %3d  perimeter %3d",
			b.Type(), b.Width(), b.Height(), b.Area(), len(b.Perimeter())))
		totalArea += b.Area()
	}

	printNewline()
	printDetail("%d records · %d cells total footprint", len(records), totalArea)
	prog.done(fmt.Sprintf("Inspected %d records", len(records)))
	return nil
}
