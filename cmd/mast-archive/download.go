package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mast-archive/internal/download"
	"github.com/pdiddy/mast-archive/internal/manifest"
	"github.com/pdiddy/mast-archive/internal/search"
	"github.com/pdiddy/mast-archive/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download [target]",
	Short: "Download data products for a target or a saved session",
	Long: `Download runs a search (or loads a saved session file) and fetches the
matching data products into the local cache. Archive files already present
are skipped; TESS FFI cutouts are served from the cutout cache when a
matching file exists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("session", "", "download from a saved session file instead of searching")
	downloadCmd.Flags().Bool("all", false, "download every product instead of the first")
	downloadCmd.Flags().String("quality", "", "quality bitmask: none, default, hard, hardest, or an integer")
	downloadCmd.Flags().String("cutout-size", "", "FFI cutout size in pixels, WxH or a single integer (default 5x5)")
	downloadCmd.Flags().String("download-dir", "", "base directory for downloaded files")
	downloadCmd.Flags().String("manifest", "", "SQLite download manifest path (empty disables recording)")
	downloadCmd.Flags().Duration("delay", 0, "delay between consecutive downloads")

	downloadCmd.Flags().String("type", "lightcurve", "product type: lightcurve, targetpixel, or ffi")
	downloadCmd.Flags().Float64("radius", 0, "cone-search radius in arcseconds")
	downloadCmd.Flags().String("cadence", "", "cadence: long (default), short, or any")
	downloadCmd.Flags().StringSlice("mission", nil, "restrict to missions (Kepler, K2, TESS)")
	downloadCmd.Flags().StringSlice("author", nil, "restrict to pipeline provenance (e.g. Kepler, K2, SPOC)")
	downloadCmd.Flags().IntSlice("quarter", nil, "Kepler quarters")
	downloadCmd.Flags().IntSlice("campaign", nil, "K2 campaigns")
	downloadCmd.Flags().IntSlice("sector", nil, "TESS sectors")
	downloadCmd.Flags().IntSlice("month", nil, "Kepler short-cadence months (1-3)")
	downloadCmd.Flags().Float64("exptime-min", 0, "minimum exposure time in seconds")
	downloadCmd.Flags().Float64("exptime-max", 0, "maximum exposure time in seconds (default 9999)")
	downloadCmd.Flags().Int("limit", 0, "maximum number of products to fetch")
	downloadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(downloadCmd)
}

// parseCutoutSize parses a cutout-size flag value: "WxH", or a single
// integer for a square. An empty value means the default size.
func parseCutoutSize(s string) (download.CutoutSize, error) {
	if strings.TrimSpace(s) == "" {
		return download.CutoutSize{}, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if n <= 0 {
			return download.CutoutSize{}, fmt.Errorf("invalid cutout size %q", s)
		}
		return download.CutoutSize{Width: n, Height: n}, nil
	}
	wStr, hStr, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return download.CutoutSize{}, fmt.Errorf("invalid cutout size %q (expected WxH, e.g. 11x9)", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(wStr))
	h, errH := strconv.Atoi(strings.TrimSpace(hStr))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return download.CutoutSize{}, fmt.Errorf("invalid cutout size %q (expected WxH, e.g. 11x9)", s)
	}
	return download.CutoutSize{Width: w, Height: h}, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	sessionPath, _ := cmd.Flags().GetString("session")
	if sessionPath == "" && len(args) == 0 {
		return fmt.Errorf("provide a target or --session")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	cfg := pipelineConfig()
	client := newMASTClient(timeout, cfg.Download.HTTPConfig)

	var result *search.SearchResult
	if sessionPath != "" {
		session, restored, err := search.ReadSession(sessionPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Loaded session for %s (%d products)\n", session.Target, restored.Len())
		result = restored
	} else {
		kindFlag, _ := cmd.Flags().GetString("type")
		kind, err := parseKind(kindFlag)
		if err != nil {
			return err
		}
		criteria := criteriaFromFlags(cmd, parseTarget(args[0]))
		searcher := &search.Searcher{Client: client}
		result, err = searcher.Products(context.Background(), criteria, kind, os.Stderr)
		if err != nil {
			return err
		}
	}

	quality, _ := cmd.Flags().GetString("quality")
	sizeFlag, _ := cmd.Flags().GetString("cutout-size")
	cutoutSize, err := parseCutoutSize(sizeFlag)
	if err != nil {
		return err
	}
	downloadDir, _ := cmd.Flags().GetString("download-dir")
	if downloadDir == "" {
		downloadDir = cfg.Download.DownloadDir
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = cfg.Download.DownloadDelay
	}

	d := download.NewDownloader(client, types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDir:   downloadDir,
		DownloadDelay: delay,
	})

	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath == "" {
		manifestPath = cfg.Download.ManifestPath
	}
	if manifestPath != "" {
		store, err := manifest.Open(manifestPath)
		if err != nil {
			return err
		}
		defer store.Close()
		d.Manifest = store
	}

	opts := download.Options{
		Quality:     quality,
		CutoutSize:  cutoutSize,
		DownloadDir: downloadDir,
	}

	all, _ := cmd.Flags().GetBool("all")
	if all {
		collection, err := d.DownloadAll(context.Background(), result, opts, os.Stderr)
		if err != nil {
			return err
		}
		if collection != nil {
			fmt.Fprintf(os.Stderr, "Downloaded %d products\n", collection.Len())
		}
		return nil
	}

	product, err := d.Download(context.Background(), result, opts, os.Stderr)
	if err != nil {
		return err
	}
	if product != nil {
		fmt.Println(product.Path())
	}
	return nil
}
