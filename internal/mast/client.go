// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mast is a thin client for the MAST portal services: the Mashup
// invoke API for observation/product metadata, the name resolver, and the
// TESScut full-frame-image cutout service.
//
// A query that matches nothing returns an empty slice, never an error; the
// "no results" signalling is structural rather than a warning class the
// caller has to suppress.
package mast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/mast-archive/internal/httputil"
	"github.com/pdiddy/mast-archive/pkg/types"
)

// Service base URLs. Declared as vars so tests can substitute httptest
// servers.
var (
	invokeBase  = "https://mast.stsci.edu/api/v0/invoke"
	tesscutBase = "https://mast.stsci.edu/tesscut/api/v0.1"
)

// Client issues requests against the MAST portal.
type Client struct {
	HTTP      *http.Client
	UserAgent string

	// APIToken grants access to exclusive-access data when set.
	APIToken string

	// MaxRetries bounds 429/503 retries per request (0 = library default).
	MaxRetries int
}

// StatusError reports a non-200 response from a MAST service.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("MAST returned HTTP %d from %s", e.StatusCode, e.URL)
}

// ResolveError reports that the name resolver could not map a target
// string to sky coordinates.
type ResolveError struct {
	Target string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not resolve %q to a sky position: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("could not resolve %q to a sky position", e.Target)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Filters carries the criteria shared by both query forms.
type Filters struct {
	Project         []string
	ProvenanceName  []string // nil means no provenance filter
	SequenceNumber  []int
	DataProductType []string
	ExpTimeMin      float64
	ExpTimeMax      float64
}

// mashupRequest is the envelope the invoke endpoint expects, posted as the
// "request" form field.
type mashupRequest struct {
	Service string         `json:"service"`
	Params  map[string]any `json:"params"`
	Format  string         `json:"format"`
}

type mashupFilter struct {
	ParamName string `json:"paramName"`
	Values    []any  `json:"values"`
}

// invoke posts a Mashup request and decodes the data rows into out.
func (c *Client) invoke(ctx context.Context, service string, params map[string]any, out any) error {
	body, err := json.Marshal(mashupRequest{Service: service, Params: params, Format: "json"})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", service, err)
	}

	form := url.Values{"request": {string(body)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, invokeBase,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIToken != "" {
		req.Header.Set("Authorization", "token "+c.APIToken)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: invokeBase}
	}

	var envelope struct {
		Status string          `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	if envelope.Status != "COMPLETE" {
		return fmt.Errorf("%s query %s: %s", service, strings.ToLower(envelope.Status), envelope.Msg)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("parsing %s rows: %w", service, err)
	}
	return nil
}

// criteriaFilters translates Filters into the Mashup filter list.
func criteriaFilters(f Filters) []mashupFilter {
	var filters []mashupFilter
	if len(f.Project) > 0 {
		filters = append(filters, mashupFilter{ParamName: "project", Values: anySlice(f.Project)})
	}
	if len(f.ProvenanceName) > 0 {
		filters = append(filters, mashupFilter{ParamName: "provenance_name", Values: anySlice(f.ProvenanceName)})
	}
	if len(f.SequenceNumber) > 0 {
		filters = append(filters, mashupFilter{ParamName: "sequence_number", Values: anySlice(f.SequenceNumber)})
	}
	if len(f.DataProductType) > 0 {
		filters = append(filters, mashupFilter{ParamName: "dataproduct_type", Values: anySlice(f.DataProductType)})
	}
	if f.ExpTimeMax > 0 {
		filters = append(filters, mashupFilter{ParamName: "t_exptime",
			Values: []any{map[string]float64{"min": f.ExpTimeMin, "max": f.ExpTimeMax}}})
	}
	return filters
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// QueryByTargetName returns observations whose archive target_name matches
// exactly. Exact matches carry no positional distance; rows come back with
// Distance zeroed.
func (c *Client) QueryByTargetName(ctx context.Context, targetName string, f Filters) ([]types.Observation, error) {
	filters := append(criteriaFilters(f),
		mashupFilter{ParamName: "target_name", Values: []any{targetName}})

	var obs []types.Observation
	err := c.invoke(ctx, "Mast.Caom.Filtered", map[string]any{
		"columns": "*",
		"filters": filters,
	}, &obs)
	if err != nil {
		return nil, err
	}
	for i := range obs {
		obs[i].Distance = 0
	}
	return obs, nil
}

// QueryByPosition performs a cone search of radiusDeg degrees around coord.
// Results are sorted by ascending distance from the query point.
func (c *Client) QueryByPosition(ctx context.Context, coord types.Coord, radiusDeg float64, f Filters) ([]types.Observation, error) {
	var obs []types.Observation
	err := c.invoke(ctx, "Mast.Caom.Filtered.Position", map[string]any{
		"columns":  "*",
		"filters":  criteriaFilters(f),
		"position": fmt.Sprintf("%v, %v, %v", coord.RA, coord.Dec, radiusDeg),
	}, &obs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Distance < obs[j].Distance })
	return obs, nil
}

// ProductList returns the downloadable products for the given observation IDs.
func (c *Client) ProductList(ctx context.Context, obsIDs []string) ([]types.Product, error) {
	if len(obsIDs) == 0 {
		return nil, nil
	}
	var products []types.Product
	err := c.invoke(ctx, "Mast.Caom.Products", map[string]any{
		"obsid": strings.Join(obsIDs, ","),
	}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ResolveObject asks the MAST name resolver to map a free-text target
// string to sky coordinates.
func (c *Client) ResolveObject(ctx context.Context, target string) (types.Coord, error) {
	var resolved struct {
		ResolvedCoordinate []struct {
			RA   float64 `json:"ra"`
			Decl float64 `json:"decl"`
		} `json:"resolvedCoordinate"`
	}
	err := c.invoke(ctx, "Mast.Name.Lookup", map[string]any{
		"input":  target,
		"format": "json",
	}, &resolved)
	if err != nil {
		return types.Coord{}, &ResolveError{Target: target, Err: err}
	}
	if len(resolved.ResolvedCoordinate) == 0 {
		return types.Coord{}, &ResolveError{Target: target}
	}
	return types.Coord{RA: resolved.ResolvedCoordinate[0].RA, Dec: resolved.ResolvedCoordinate[0].Decl}, nil
}

// DownloadProduct fetches a product's data URI to destPath via the portal
// file endpoint. The URI may be archive-relative ("mast:KEPLER/...") or
// absolute.
func (c *Client) DownloadProduct(ctx context.Context, dataURI, destPath string) error {
	fileURL := dataURI
	if !strings.HasPrefix(dataURI, "http://") && !strings.HasPrefix(dataURI, "https://") {
		fileURL = strings.TrimSuffix(invokeBase, "/invoke") + "/download/file?uri=" + url.QueryEscape(dataURI)
	}
	return c.fetchToFile(ctx, fileURL, destPath)
}
