// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download turns search-result rows into local science files. It
// dispatches each row to the right acquisition path (archive product fetch
// or an on-demand TESScut cutout), caches everything under the download
// directory, and hands the finished file to the format readers.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mast-archive/internal/manifest"
	"github.com/pdiddy/mast-archive/internal/mast"
	"github.com/pdiddy/mast-archive/internal/reader"
	"github.com/pdiddy/mast-archive/internal/search"
	"github.com/pdiddy/mast-archive/pkg/types"
)

// Archive is the slice of the MAST client the download stage needs.
// *mast.Client implements it; tests substitute a mock.
type Archive interface {
	Sectors(ctx context.Context, coord types.Coord) ([]mast.Sector, error)
	DownloadCutout(ctx context.Context, destDir string, coord types.Coord, sector mast.Sector, width, height int) (string, error)
	DownloadProduct(ctx context.Context, dataURI, destPath string) error
	ResolveObject(ctx context.Context, target string) (types.Coord, error)
}

// Ledger records completed downloads. *manifest.Store implements it; a nil
// ledger disables recording.
type Ledger interface {
	Record(ctx context.Context, e manifest.Entry) error
}

// CutoutSize is the requested cutout extent in pixels.
type CutoutSize struct {
	Width  int
	Height int
}

const defaultCutoutPixels = 5

// Options carries per-call download parameters.
type Options struct {
	// Quality selects the cadence-quality bitmask: a named preset or a
	// decimal integer. Empty means the default preset.
	Quality string

	// CutoutSize is the pixel extent of FFI cutout requests. Zero fields
	// default to 5x5.
	CutoutSize CutoutSize

	// DownloadDir overrides the configured download directory.
	DownloadDir string
}

// Downloader fetches data products for search-result rows.
type Downloader struct {
	Client Archive
	Cfg    types.DownloadConfig

	// FS is the filesystem downloads land on. Swappable so tests can run
	// against an in-memory filesystem.
	FS afero.Fs

	// Manifest, when set, records every completed download.
	Manifest Ledger
}

// NewDownloader builds a Downloader over the real filesystem.
func NewDownloader(client Archive, cfg types.DownloadConfig) *Downloader {
	return &Downloader{Client: client, Cfg: cfg, FS: afero.NewOsFs()}
}

// DefaultDownloadDir returns the cache directory used when none is
// configured: ~/.mast-archive-cache, or the working directory when the home
// directory cannot be determined.
func DefaultDownloadDir(w io.Writer) string {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(w, "warning: could not locate home directory (%v); downloading to the working directory\n", err)
		return "."
	}
	return filepath.Join(home, ".mast-archive-cache")
}

// Download fetches the first product of the result. An empty result warns
// and returns nothing; a multi-row result warns that only the first row is
// fetched.
func (d *Downloader) Download(ctx context.Context, result *search.SearchResult, opts Options, w io.Writer) (reader.Product, error) {
	if result.Len() == 0 {
		fmt.Fprintf(w, "warning: cannot download from an empty search result\n")
		return nil, nil
	}
	if result.Len() > 1 {
		fmt.Fprintf(w, "warning: %d files available to download; only the first file is fetched\n", result.Len())
	}
	return d.downloadOne(ctx, result.Row(0), opts, w)
}

// Collection is a set of parsed products of one kind.
type Collection interface {
	Len() int
}

// LightCurveCollection holds parsed light curves.
type LightCurveCollection []*reader.LightCurve

func (c LightCurveCollection) Len() int { return len(c) }

// TargetPixelFileCollection holds parsed target pixel files.
type TargetPixelFileCollection []*reader.TargetPixelFile

func (c TargetPixelFileCollection) Len() int { return len(c) }

// DownloadAll fetches every product of the result sequentially, honoring
// the configured inter-download delay, and returns them as a collection
// keyed by the first product's kind. Rows of another kind are skipped with
// a warning.
func (d *Downloader) DownloadAll(ctx context.Context, result *search.SearchResult, opts Options, w io.Writer) (Collection, error) {
	if result.Len() == 0 {
		fmt.Fprintf(w, "warning: cannot download from an empty search result\n")
		return nil, nil
	}

	var products []reader.Product
	for i := 0; i < result.Len(); i++ {
		if i > 0 && d.Cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.Cfg.DownloadDelay):
			}
		}
		p, err := d.downloadOne(ctx, result.Row(i), opts, w)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	switch products[0].(type) {
	case *reader.LightCurve:
		var c LightCurveCollection
		for _, p := range products {
			if lc, ok := p.(*reader.LightCurve); ok {
				c = append(c, lc)
			} else {
				fmt.Fprintf(w, "warning: skipping %s: not a light curve\n", p.Path())
			}
		}
		return c, nil
	default:
		var c TargetPixelFileCollection
		for _, p := range products {
			if tpf, ok := p.(*reader.TargetPixelFile); ok {
				c = append(c, tpf)
			} else {
				fmt.Fprintf(w, "warning: skipping %s: not a target pixel file\n", p.Path())
			}
		}
		return c, nil
	}
}

// downloadOne fetches a single row and parses the resulting file.
func (d *Downloader) downloadOne(ctx context.Context, row types.ProductRow, opts Options, w io.Writer) (reader.Product, error) {
	quality, err := reader.QualityBitmask(opts.Quality)
	if err != nil {
		return nil, err
	}

	base := opts.DownloadDir
	if base == "" {
		base = d.Cfg.DownloadDir
	}
	if base == "" {
		base = DefaultDownloadDir(w)
	}
	if err := d.FS.MkdirAll(base, 0o755); err != nil {
		fmt.Fprintf(w, "warning: could not create %s (%v); downloading to the working directory\n", base, err)
		base = "."
	}

	var localPath, source string
	if strings.Contains(row.Description, "FFI Cutout") {
		localPath, err = d.fetchCutout(ctx, base, row, opts, w)
		source = "tesscut"
	} else {
		localPath, err = d.fetchProduct(ctx, base, row, w)
		source = row.DataURI
	}
	if err != nil {
		return nil, err
	}

	if d.Manifest != nil {
		entry := manifest.Entry{
			Target:    row.TargetName,
			ObsID:     row.ObsID,
			Filename:  filepath.Base(localPath),
			LocalPath: localPath,
			Source:    source,
		}
		if err := d.Manifest.Record(ctx, entry); err != nil {
			fmt.Fprintf(w, "warning: manifest update failed: %v\n", err)
		}
	}

	return reader.Read(localPath, reader.Options{QualityBitmask: quality, TargetID: row.TargetID})
}

// fetchProduct downloads an archive product under base/mastDownload/<obsid>/,
// skipping files already present, and writes a YAML metadata sidecar.
func (d *Downloader) fetchProduct(ctx context.Context, base string, row types.ProductRow, w io.Writer) (string, error) {
	destDir := filepath.Join(base, "mastDownload", row.ObsID)
	if err := d.FS.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(w, "warning: could not create %s (%v); downloading to %s\n", destDir, err, base)
		destDir = base
	}
	destPath := filepath.Join(destDir, row.ProductFilename)

	if exists, _ := afero.Exists(d.FS, destPath); exists {
		fmt.Fprintf(w, "skipped %s (exists)\n", row.ProductFilename)
		return destPath, nil
	}

	if err := d.Client.DownloadProduct(ctx, row.DataURI, destPath); err != nil {
		return "", &search.SearchError{Msg: fmt.Sprintf("downloading %s", row.ProductFilename), Err: err}
	}
	fmt.Fprintf(w, "downloaded %s\n", row.ProductFilename)

	if err := d.writeMetadata(destPath, row); err != nil {
		fmt.Fprintf(w, "warning: metadata write failed: %v\n", err)
	}
	return destPath, nil
}

// downloadRecord is the YAML sidecar written next to each archive product.
type downloadRecord struct {
	Target     string    `yaml:"target"`
	ObsID      string    `yaml:"obs_id"`
	Filename   string    `yaml:"filename"`
	DataURI    string    `yaml:"data_uri"`
	Size       int64     `yaml:"size"`
	Downloaded time.Time `yaml:"downloaded"`
}

func (d *Downloader) writeMetadata(destPath string, row types.ProductRow) error {
	rec := downloadRecord{
		Target:     row.TargetName,
		ObsID:      row.ObsID,
		Filename:   row.ProductFilename,
		DataURI:    row.DataURI,
		Size:       row.Size,
		Downloaded: time.Now().UTC(),
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	return afero.WriteFile(d.FS, destPath+".yaml", data, 0o644)
}

// fetchCutout serves an FFI cutout row: from the local cutout cache when a
// matching file exists, otherwise through a TESScut request.
func (d *Downloader) fetchCutout(ctx context.Context, base string, row types.ProductRow, opts Options, w io.Writer) (string, error) {
	coord, err := d.cutoutCoord(ctx, row)
	if err != nil {
		return "", &search.SearchError{Msg: "resolving cutout position", Err: err}
	}

	destDir := filepath.Join(base, "tesscut")
	if err := d.FS.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(w, "warning: could not create %s (%v); downloading to %s\n", destDir, err, base)
		destDir = base
	}

	if row.SequenceNumber == nil {
		return "", &search.SearchError{Msg: "cutout row is missing its sector number"}
	}
	wantSector := *row.SequenceNumber

	width, height := opts.CutoutSize.Width, opts.CutoutSize.Height
	if width <= 0 {
		width = defaultCutoutPixels
	}
	if height <= 0 {
		height = defaultCutoutPixels
	}

	sectors, err := d.Client.Sectors(ctx, coord)
	if err != nil {
		return "", &search.SearchError{Msg: "listing TESS sectors", Err: err}
	}
	var sector mast.Sector
	found := false
	for _, s := range sectors {
		if s.Sector == wantSector {
			sector = s
			found = true
			break
		}
	}
	if !found {
		return "", &search.SearchError{Msg: fmt.Sprintf("sector %d does not cover the target position", wantSector)}
	}

	if cached := d.cachedCutout(destDir, sector.SectorName, coord, width, height); cached != "" {
		fmt.Fprintf(w, "skipped %s (cached)\n", filepath.Base(cached))
		return cached, nil
	}

	path, err := d.Client.DownloadCutout(ctx, destDir, coord, sector, width, height)
	if err != nil {
		var statusErr *mast.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 504 {
			return "", &search.CutoutTimeoutError{Err: err}
		}
		return "", &search.SearchError{Msg: "downloading TESS cutout", Err: err}
	}
	fmt.Fprintf(w, "downloaded %s\n", filepath.Base(path))
	return path, nil
}

// cutoutCoord recovers the cutout centre. Placeholder rows carry the query
// string as their target name, so a coordinate pair parses directly and
// anything else goes through the name resolver.
func (d *Downloader) cutoutCoord(ctx context.Context, row types.ProductRow) (types.Coord, error) {
	if raStr, decStr, ok := strings.Cut(row.TargetName, ","); ok {
		ra, errRA := strconv.ParseFloat(strings.TrimSpace(raStr), 64)
		dec, errDec := strconv.ParseFloat(strings.TrimSpace(decStr), 64)
		if errRA == nil && errDec == nil {
			return types.Coord{RA: ra, Dec: dec}, nil
		}
	}
	return d.Client.ResolveObject(ctx, row.TargetName)
}

// cachedCutout looks for a previously downloaded cutout of the same sector,
// position, and size. Coordinates are matched to three decimal places so
// resolver jitter in later digits still hits the cache.
func (d *Downloader) cachedCutout(destDir, sectorName string, coord types.Coord, width, height int) string {
	pattern := filepath.Join(destDir, fmt.Sprintf("%s_%s*_%s*_%dx%d_astrocut.fits",
		sectorName, coordPrefix(coord.RA), coordPrefix(coord.Dec), width, height))
	matches, err := afero.Glob(d.FS, pattern)
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// coordPrefix truncates a coordinate to three decimal places without
// rounding, mirroring the cutout filename convention.
func coordPrefix(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	idx := strings.Index(s, ".")
	if idx >= 0 && len(s) > idx+4 {
		return s[:idx+4]
	}
	return s
}
