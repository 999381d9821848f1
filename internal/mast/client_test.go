// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mast-archive/pkg/types"
)

func testClient(ts *httptest.Server) *Client {
	return &Client{HTTP: ts.Client(), UserAgent: "mast-archive-test/0.1"}
}

// decodeMashup pulls the Mashup request envelope out of the posted form.
func decodeMashup(t *testing.T, r *http.Request) mashupRequest {
	t.Helper()
	require.NoError(t, r.ParseForm())
	var mr mashupRequest
	require.NoError(t, json.Unmarshal([]byte(r.PostFormValue("request")), &mr))
	return mr
}

func writeComplete(w http.ResponseWriter, data any) {
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "COMPLETE",
		"msg":    "",
		"data":   json.RawMessage(raw),
	})
}

func TestQueryByTargetNameBuildsFilters(t *testing.T) {
	var got mashupRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = decodeMashup(t, r)
		writeComplete(w, []types.Observation{
			{ObsID: "100", TargetName: "kplr011904151", Project: "Kepler", Distance: 99},
		})
	}))
	defer ts.Close()
	oldBase := invokeBase
	invokeBase = ts.URL
	defer func() { invokeBase = oldBase }()

	obs, err := testClient(ts).QueryByTargetName(context.Background(), "kplr011904151", Filters{
		Project:        []string{"Kepler", "K2", "TESS"},
		ProvenanceName: []string{"Kepler", "K2", "SPOC"},
		ExpTimeMin:     0,
		ExpTimeMax:     9999,
	})
	require.NoError(t, err)
	require.Len(t, obs, 1)

	assert.Equal(t, "Mast.Caom.Filtered", got.Service)
	// Exact-name matches report no positional distance.
	assert.Equal(t, 0.0, obs[0].Distance)
}

func TestQueryByPositionSortsByDistance(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr := decodeMashup(t, r)
		assert.Equal(t, "Mast.Caom.Filtered.Position", mr.Service)
		assert.Contains(t, mr.Params["position"], "285.679")
		writeComplete(w, []types.Observation{
			{ObsID: "2", Distance: 12.5},
			{ObsID: "1", Distance: 0.3},
			{ObsID: "3", Distance: 40.0},
		})
	}))
	defer ts.Close()
	oldBase := invokeBase
	invokeBase = ts.URL
	defer func() { invokeBase = oldBase }()

	obs, err := testClient(ts).QueryByPosition(context.Background(),
		types.Coord{RA: 285.679, Dec: 50.241}, 0.0001/3600, Filters{})
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{obs[0].ObsID, obs[1].ObsID, obs[2].ObsID})
}

func TestQueryEmptyDataMeansNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "COMPLETE", "msg": "", "data": []any{}})
	}))
	defer ts.Close()
	oldBase := invokeBase
	invokeBase = ts.URL
	defer func() { invokeBase = oldBase }()

	obs, err := testClient(ts).QueryByTargetName(context.Background(), "kplr000000000", Filters{})
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestResolveObjectSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr := decodeMashup(t, r)
		assert.Equal(t, "Mast.Name.Lookup", mr.Service)
		assert.Equal(t, "Kepler-10", mr.Params["input"])
		writeComplete(w, map[string]any{
			"resolvedCoordinate": []map[string]float64{{"ra": 285.67942179, "decl": 50.24130576}},
		})
	}))
	defer ts.Close()
	oldBase := invokeBase
	invokeBase = ts.URL
	defer func() { invokeBase = oldBase }()

	coord, err := testClient(ts).ResolveObject(context.Background(), "Kepler-10")
	require.NoError(t, err)
	assert.InDelta(t, 285.67942179, coord.RA, 1e-9)
	assert.InDelta(t, 50.24130576, coord.Dec, 1e-9)
}

func TestResolveObjectFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeComplete(w, map[string]any{"resolvedCoordinate": []any{}})
	}))
	defer ts.Close()
	oldBase := invokeBase
	invokeBase = ts.URL
	defer func() { invokeBase = oldBase }()

	_, err := testClient(ts).ResolveObject(context.Background(), "Not A Star")
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Not A Star", re.Target)
}

func TestProductListSendsObsIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr := decodeMashup(t, r)
		assert.Equal(t, "Mast.Caom.Products", mr.Service)
		assert.Equal(t, "100,101", mr.Params["obsid"])
		writeComplete(w, []types.Product{
			{ObsID: "100", ProductFilename: "kplr011904151-2010078095331_llc.fits"},
		})
	}))
	defer ts.Close()
	oldBase := invokeBase
	invokeBase = ts.URL
	defer func() { invokeBase = oldBase }()

	products, err := testClient(ts).ProductList(context.Background(), []string{"100", "101"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "kplr011904151-2010078095331_llc.fits", products[0].ProductFilename)
}

func TestSectorsParsesPaddedNumbers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "84.29", r.URL.Query().Get("ra"))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"sectorName": "tess-s0014-4-1", "sector": "0014", "camera": "4", "ccd": "1"},
			},
		})
	}))
	defer ts.Close()
	oldBase := tesscutBase
	tesscutBase = ts.URL
	defer func() { tesscutBase = oldBase }()

	sectors, err := testClient(ts).Sectors(context.Background(), types.Coord{RA: 84.29, Dec: -80.47})
	require.NoError(t, err)
	require.Len(t, sectors, 1)
	assert.Equal(t, 14, sectors[0].Sector)
	assert.Equal(t, "tess-s0014-4-1", sectors[0].SectorName)
}

func TestDownloadCutoutWritesFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "11", r.URL.Query().Get("x"))
		assert.Equal(t, "9", r.URL.Query().Get("y"))
		assert.Equal(t, "14", r.URL.Query().Get("sector"))
		fmt.Fprint(w, "SIMPLE  =                    T")
	}))
	defer ts.Close()
	oldBase := tesscutBase
	tesscutBase = ts.URL
	defer func() { tesscutBase = oldBase }()

	oldFS := FS
	FS = afero.NewMemMapFs()
	defer func() { FS = oldFS }()
	require.NoError(t, FS.MkdirAll("/cache/tesscut", 0o755))

	path, err := testClient(ts).DownloadCutout(context.Background(), "/cache/tesscut",
		types.Coord{RA: 84.2928, Dec: -80.4685},
		Sector{SectorName: "tess-s0014-4-1", Sector: 14}, 11, 9)
	require.NoError(t, err)
	assert.Equal(t, "/cache/tesscut/tess-s0014-4-1_84.2928_-80.4685_11x9_astrocut.fits", path)

	data, err := afero.ReadFile(FS, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SIMPLE")
}

func TestDownloadCutoutGatewayTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer ts.Close()
	oldBase := tesscutBase
	tesscutBase = ts.URL
	defer func() { tesscutBase = oldBase }()

	oldFS := FS
	FS = afero.NewMemMapFs()
	defer func() { FS = oldFS }()

	_, err := testClient(ts).DownloadCutout(context.Background(), "/cache",
		types.Coord{}, Sector{Sector: 1}, 5, 5)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusGatewayTimeout, se.StatusCode)
}
