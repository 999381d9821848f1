// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search resolves a target designation into a filtered table of
// archival data products. The pipeline runs: name resolution, the remote
// criteria query (exact identifier first, cone search fallback), the
// observation/product join with derived display columns, and the
// mission-family filters.
package search

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/mast-archive/internal/mast"
	"github.com/pdiddy/mast-archive/pkg/types"
)

// Catalog is the slice of the MAST client the search pipeline needs.
// *mast.Client implements it; tests substitute a mock.
type Catalog interface {
	QueryByTargetName(ctx context.Context, targetName string, f mast.Filters) ([]types.Observation, error)
	QueryByPosition(ctx context.Context, coord types.Coord, radiusDeg float64, f mast.Filters) ([]types.Observation, error)
	ProductList(ctx context.Context, obsIDs []string) ([]types.Product, error)
	ResolveObject(ctx context.Context, target string) (types.Coord, error)
}

// Searcher runs archive searches through a MAST client.
type Searcher struct {
	Client Catalog
}

// LightCurve searches the archive for light-curve products. Search
// failures are logged to w and produce an empty result; callers check
// emptiness rather than handle errors for the common nothing-found case.
func (s *Searcher) LightCurve(ctx context.Context, c Criteria, w io.Writer) *SearchResult {
	result, err := s.Products(ctx, c, KindLightCurve, w)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return NewSearchResult(nil)
	}
	return result
}

// TargetPixelFile searches the archive for target-pixel-file products,
// with the same empty-on-failure contract as LightCurve.
func (s *Searcher) TargetPixelFile(ctx context.Context, c Criteria, w io.Writer) *SearchResult {
	result, err := s.Products(ctx, c, KindTargetPixel, w)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return NewSearchResult(nil)
	}
	return result
}

// TessCut searches for requestable TESS full-frame-image cutouts covering
// the target. A nil sector filter returns every available sector.
func (s *Searcher) TessCut(ctx context.Context, target Target, sectors []int, w io.Writer) *SearchResult {
	c := Criteria{Target: target, Missions: []string{"TESS"}, Sectors: sectors}
	result, err := s.Products(ctx, c, KindFFI, w)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return NewSearchResult(nil)
	}
	return result
}

// Products runs the full search pipeline for one product kind and returns
// the filtered result. Unlike the kind-specific entry points it propagates
// the SearchError.
func (s *Searcher) Products(ctx context.Context, c Criteria, kind ProductKind, w io.Writer) (*SearchResult, error) {
	c = c.normalized()
	warnAmbiguousID(c.Target, w)

	filters := mast.Filters{
		Project:        c.Missions,
		ProvenanceName: c.Authors,
		SequenceNumber: c.sequenceNumbers(),
		ExpTimeMin:     c.ExpTimeMin,
		ExpTimeMax:     c.ExpTimeMax,
	}
	// Non-FFI pipeline products are catalogued as "cube" (Kepler) or
	// "timeseries" (TESS); restricting the query speeds it up.
	if kind != KindFFI {
		filters.DataProductType = []string{"cube", "timeseries"}
	}

	// Cutout search has no exact-name form; it always runs as a cone.
	radius := c.Radius
	if kind == KindFFI && radius <= 0 {
		radius = defaultRadiusArcsec
	}

	obs, err := s.queryObservations(ctx, c.Target, radius, filters)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, &SearchError{Msg: fmt.Sprintf("No data found for target %q.", c.Target.QueryString())}
	}

	if kind == KindFFI {
		return cutoutResult(c.Target, obs, c.Sectors), nil
	}

	products, err := s.Client.ProductList(ctx, obsIDsOf(obs))
	if err != nil {
		return nil, &SearchError{Msg: "querying data products", Err: err}
	}

	rows := joinProducts(obs, products)
	return NewSearchResult(filterProducts(rows, c, kind)), nil
}

// queryObservations issues the metadata query: exact target_name first when
// the target has an exact-identifier form and no radius was requested, then
// a cone search around the resolved position.
func (s *Searcher) queryObservations(ctx context.Context, target Target, radius float64, f mast.Filters) ([]types.Observation, error) {
	if exact := exactTargetName(target); exact != "" && radius <= 0 {
		obs, err := s.Client.QueryByTargetName(ctx, exact, f)
		if err != nil {
			return nil, &SearchError{Msg: "querying observations", Err: err}
		}
		if len(obs) > 0 {
			return obs, nil
		}
		// Fall through to the cone search.
	}

	coord, err := s.resolvePosition(ctx, target)
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		radius = defaultRadiusArcsec
	}
	obs, err := s.Client.QueryByPosition(ctx, coord, radius/3600, f)
	if err != nil {
		return nil, &SearchError{Msg: "querying observations", Err: err}
	}
	return obs, nil
}

// resolvePosition maps the target to sky coordinates, delegating free-text
// names to the remote resolver.
func (s *Searcher) resolvePosition(ctx context.Context, target Target) (types.Coord, error) {
	if p, ok := target.(Position); ok {
		return types.Coord(p), nil
	}
	coord, err := s.Client.ResolveObject(ctx, target.QueryString())
	if err != nil {
		return types.Coord{}, &SearchError{Err: err}
	}
	return coord, nil
}

// obsIDsOf returns the observation IDs in first-appearance order.
func obsIDsOf(obs []types.Observation) []string {
	seen := make(map[string]bool, len(obs))
	var ids []string
	for _, o := range obs {
		if !seen[o.ObsID] {
			seen[o.ObsID] = true
			ids = append(ids, o.ObsID)
		}
	}
	return ids
}

// obsPrefixes maps missions to their observing-period word.
var obsPrefixes = map[string]string{
	"Kepler": "Quarter",
	"K2":     "Campaign",
	"TESS":   "Sector",
}

// joinProducts right-outer-joins observations to products on the
// observation key, keeping every product row even when the observation
// metadata is incomplete, then derives the author and observation-label
// columns. The canonical pre-filter order is (distance asc, obs_id asc).
func joinProducts(obs []types.Observation, products []types.Product) []types.ProductRow {
	obsByID := make(map[string]types.Observation, len(obs))
	for _, o := range obs {
		obsByID[o.ObsID] = o
	}

	rows := make([]types.ProductRow, 0, len(products))
	for _, p := range products {
		row := types.ProductRow{
			ObsID:           p.ObsID,
			ProductFilename: p.ProductFilename,
			DataURI:         p.DataURI,
			Description:     p.Description,
			Size:            p.Size,
		}
		if o, ok := obsByID[p.ObsID]; ok {
			row.TargetName = o.TargetName
			row.TargetID = o.TargetID
			row.Project = o.Project
			row.ProvenanceName = o.ProvenanceName
			row.SequenceNumber = o.SequenceNumber
			row.RA = o.RA
			row.Dec = o.Dec
			row.Distance = o.Distance
		}
		row.Author = row.ProvenanceName
		row.ObservationLabel = observationLabel(row)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Distance != rows[j].Distance {
			return rows[i].Distance < rows[j].Distance
		}
		return rows[i].ObsID < rows[j].ObsID
	})
	return rows
}

// observationLabel derives the human-readable "{mission} {period} {seq}"
// label. Kepler rows with an unpopulated sequence number recover it from
// the description's Q token; an unparseable token yields an empty sequence
// label rather than failing the row.
func observationLabel(row types.ProductRow) string {
	seq := ""
	switch {
	case row.SequenceNumber != nil:
		seq = strconv.Itoa(*row.SequenceNumber)
	case row.Project == "Kepler":
		seq = recoverKeplerSequence(row.Description)
	}
	return fmt.Sprintf("%s %s %s", row.Project, obsPrefixes[row.Project], seq)
}

// cutoutResult synthesizes one placeholder row per full-frame-image sector
// covering the target. No real file exists yet; the download stage turns
// each row into a cutout request.
func cutoutResult(target Target, obs []types.Observation, sectors []int) *SearchResult {
	wanted := make(map[int]bool, len(sectors))
	for _, s := range sectors {
		wanted[s] = true
	}

	targetStr := target.QueryString()
	var rows []types.ProductRow
	for _, o := range obs {
		if !isFFIObservation(o) || o.SequenceNumber == nil {
			continue
		}
		seq := *o.SequenceNumber
		if len(sectors) > 0 && !wanted[seq] {
			continue
		}
		n := seq
		rows = append(rows, types.ProductRow{
			ObsID:            o.ObsID,
			TargetName:       targetStr,
			TargetID:         targetStr,
			Project:          "TESS",
			ProvenanceName:   "MAST",
			Author:           "MAST",
			SequenceNumber:   &n,
			Distance:         0,
			ProductFilename:  "TESSCut",
			Description:      fmt.Sprintf("TESS FFI Cutout (sector %d)", seq),
			ObservationLabel: fmt.Sprintf("TESS Sector %d", seq),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return *rows[i].SequenceNumber < *rows[j].SequenceNumber
	})
	return NewSearchResult(rows)
}

// isFFIObservation identifies calibrated full-frame-image observation rows
// by the archive's target naming convention.
func isFFIObservation(o types.Observation) bool {
	return strings.Contains(o.TargetName, "TESS FFI")
}
