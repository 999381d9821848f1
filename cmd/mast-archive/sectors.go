package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mast-archive/internal/search"
	"github.com/pdiddy/mast-archive/pkg/types"
)

var sectorsCmd = &cobra.Command{
	Use:   "sectors [target]",
	Short: "List TESS full-frame-image sectors covering a target",
	Long: `Sectors resolves a target designation to sky coordinates and lists the
TESS sectors whose full-frame images cover that position, with the camera
and CCD the target falls on.`,
	Args: cobra.ExactArgs(1),
	RunE: runSectors,
}

func init() {
	sectorsCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(sectorsCmd)
}

func runSectors(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	client := newMASTClient(timeout, pipelineConfig().Search.HTTPConfig)
	ctx := context.Background()

	target := parseTarget(args[0])
	var coord types.Coord
	if p, ok := target.(search.Position); ok {
		coord = types.Coord(p)
	} else {
		var err error
		coord, err = client.ResolveObject(ctx, target.QueryString())
		if err != nil {
			return err
		}
	}

	sectors, err := client.Sectors(ctx, coord)
	if err != nil {
		return err
	}
	if len(sectors) == 0 {
		fmt.Printf("No TESS FFI coverage for %s (%s).\n", args[0], coord)
		return nil
	}

	fmt.Printf("TESS FFI coverage for %s (%s):\n", args[0], coord)
	for _, s := range sectors {
		fmt.Printf("  sector %2d  camera %d  ccd %d  (%s)\n", s.Sector, s.Camera, s.CCD, s.SectorName)
	}
	return nil
}
