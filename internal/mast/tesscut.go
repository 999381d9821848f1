// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/mast-archive/internal/httputil"
	"github.com/pdiddy/mast-archive/pkg/types"
)

// Sector identifies one TESS observing sector covering a sky position.
type Sector struct {
	// SectorName is the archive's name for the sector/camera/CCD slice,
	// e.g. "tess-s0014-4-1".
	SectorName string
	Sector     int
	Camera     int
	CCD        int
}

// FS is the filesystem cutout files are written to. Swappable so tests can
// run against an in-memory filesystem.
var FS afero.Fs = afero.NewOsFs()

// Sectors lists the TESS sectors whose full-frame images cover coord.
func (c *Client) Sectors(ctx context.Context, coord types.Coord) ([]Sector, error) {
	reqURL := fmt.Sprintf("%s/sectors?ra=%v&dec=%v", tesscutBase, coord.RA, coord.Dec)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating sectors request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httpDo(ctx, c, req)
	if err != nil {
		return nil, fmt.Errorf("TESScut sectors request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	// The service reports sector/camera/ccd as zero-padded strings.
	var wire struct {
		Results []struct {
			SectorName string `json:"sectorName"`
			Sector     string `json:"sector"`
			Camera     string `json:"camera"`
			CCD        string `json:"ccd"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("parsing sectors response: %w", err)
	}

	sectors := make([]Sector, 0, len(wire.Results))
	for _, r := range wire.Results {
		s := Sector{SectorName: r.SectorName}
		s.Sector, _ = strconv.Atoi(r.Sector)
		s.Camera, _ = strconv.Atoi(r.Camera)
		s.CCD, _ = strconv.Atoi(r.CCD)
		sectors = append(sectors, s)
	}
	return sectors, nil
}

// DownloadCutout requests a width x height pixel cutout of the given sector
// centred on coord and writes it under destDir. It returns the local path.
//
// A 504 from the service comes back as a *StatusError so the caller can
// distinguish the transient overload case from other failures.
func (c *Client) DownloadCutout(ctx context.Context, destDir string, coord types.Coord, sector Sector, width, height int) (string, error) {
	params := url.Values{
		"ra":     {fmt.Sprintf("%v", coord.RA)},
		"dec":    {fmt.Sprintf("%v", coord.Dec)},
		"x":      {strconv.Itoa(width)},
		"y":      {strconv.Itoa(height)},
		"units":  {"px"},
		"sector": {strconv.Itoa(sector.Sector)},
	}
	reqURL := tesscutBase + "/astrocut?" + params.Encode()

	// Matches the cache glob used by the download stage.
	name := fmt.Sprintf("%s_%v_%v_%dx%d_astrocut.fits",
		sector.SectorName, coord.RA, coord.Dec, width, height)
	destPath := filepath.Join(destDir, name)

	if err := c.fetchToFile(ctx, reqURL, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// fetchToFile downloads url into destPath through a temporary file, renaming
// on success so partial downloads never pollute the cache.
func (c *Client) fetchToFile(ctx context.Context, fileURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIToken != "" {
		req.Header.Set("Authorization", "token "+c.APIToken)
	}

	resp, err := httpDo(ctx, c, req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: fileURL}
	}

	tmpFile, err := afero.TempFile(FS, filepath.Dir(destPath), ".mast-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		FS.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		FS.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := FS.Rename(tmpPath, destPath); err != nil {
		FS.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// httpDo routes requests through the shared retry helper, except for the
// cutout endpoints where a retryable status must surface unchanged.
func httpDo(ctx context.Context, c *Client, req *http.Request) (*http.Response, error) {
	if strings.HasPrefix(req.URL.String(), tesscutBase) {
		return c.HTTP.Do(req)
	}
	return httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
}
