// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/pdiddy/mast-archive/pkg/types"
)

func row(provenance, description, filename string, distance float64) types.ProductRow {
	return types.ProductRow{
		ProvenanceName:  provenance,
		Description:     description,
		ProductFilename: filename,
		DataURI:         "mast:KEPLER/url/" + filename,
		Distance:        distance,
	}
}

func filenames(rows []types.ProductRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ProductFilename
	}
	return out
}

func TestFilterCadence(t *testing.T) {
	rows := []types.ProductRow{
		row("Kepler", "Lightcurve Long Cadence (CLC) - Q5", "a_llc.fits", 0),
		row("Kepler", "Lightcurve Short Cadence (CSC) - Q5", "b_slc.fits", 0),
		row("Kepler", "Lightcurve - Q5", "c_lc.fits", 0),
	}

	tests := []struct {
		name    string
		cadence Cadence
		want    []string
	}{
		{"default long", "", []string{"a_llc.fits"}},
		{"long", CadenceLong, []string{"a_llc.fits"}},
		{"short", CadenceShort, []string{"b_slc.fits"}},
		{"sc alias", "sc", []string{"b_slc.fits"}},
		{"any", CadenceAny, []string{"a_llc.fits", "b_slc.fits", "c_lc.fits"}},
		{"both alias", "both", []string{"a_llc.fits", "b_slc.fits", "c_lc.fits"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterProducts(rows, Criteria{Cadence: tt.cadence}, KindLightCurve)
			if len(got) != len(tt.want) {
				t.Fatalf("kept %v, want %v", filenames(got), tt.want)
			}
			for i, name := range tt.want {
				if got[i].ProductFilename != name {
					t.Errorf("kept[%d] = %q, want %q", i, got[i].ProductFilename, name)
				}
			}
		})
	}
}

func TestFilterQuarterExcludesOtherFamilies(t *testing.T) {
	rows := []types.ProductRow{
		row("Kepler", "Lightcurve Long Cadence (CLC) - Q5", "kplr_q5_llc.fits", 0),
		row("Kepler", "Lightcurve Long Cadence (CLC) - Q6", "kplr_q6_llc.fits", 0),
		// Case and hyphen variations still match.
		row("Kepler", "Lightcurve Long Cadence (CLC) - Q-5", "kplr_q5h_llc.fits", 0),
		row("K2", "Lightcurve Long Cadence (CLC) - Campaign 5", "ktwo_c5_llc.fits", 0),
		row("SPOC", "Light curves", "tess_s5_lc.fits", 0),
	}

	got := filterProducts(rows, Criteria{Quarters: []int{5}}, KindLightCurve)
	want := []string{"kplr_q5_llc.fits", "kplr_q5h_llc.fits"}
	if len(got) != len(want) {
		t.Fatalf("kept %v, want %v", filenames(got), want)
	}
	for i, name := range want {
		if got[i].ProductFilename != name {
			t.Errorf("kept[%d] = %q, want %q", i, got[i].ProductFilename, name)
		}
	}
}

func TestFilterCampaignExcludesKeplerAndSPOC(t *testing.T) {
	rows := []types.ProductRow{
		row("Kepler", "Lightcurve Long Cadence (CLC) - Q5", "kplr_llc.fits", 0),
		row("K2", "Lightcurve Long Cadence (CLC)", "ktwo_llc.fits", 0),
		row("SPOC", "Light curves", "tess_lc.fits", 0),
	}

	got := filterProducts(rows, Criteria{Campaigns: []int{5}}, KindLightCurve)
	if len(got) != 1 || got[0].ProductFilename != "ktwo_llc.fits" {
		t.Fatalf("kept %v, want only the K2 row", filenames(got))
	}
}

func TestFilterSuffix(t *testing.T) {
	rows := []types.ProductRow{
		row("SPOC", "Light curves", "ok_lc.fits", 0),
		row("SPOC", "Light curves", "ok_lc.FITS.GZ", 0),
		row("SPOC", "Light curves", "nope_lc.txt", 0),
		row("SPOC", "Light curves", "nope_dvr.pdf", 0),
	}

	got := filterProducts(rows, Criteria{}, KindLightCurve)
	want := []string{"ok_lc.FITS.GZ", "ok_lc.fits"}
	if len(got) != len(want) {
		t.Fatalf("kept %v, want %v", filenames(got), want)
	}
}

func TestFilterSortAndLimit(t *testing.T) {
	rows := []types.ProductRow{
		row("SPOC", "Light curves", "z_lc.fits", 10),
		row("SPOC", "Light curves", "b_lc.fits", 0),
		row("SPOC", "Light curves", "a_lc.fits", 0),
		row("SPOC", "Light curves", "m_lc.fits", 5),
	}

	got := filterProducts(rows, Criteria{}, KindLightCurve)
	want := []string{"a_lc.fits", "b_lc.fits", "m_lc.fits", "z_lc.fits"}
	for i, name := range want {
		if got[i].ProductFilename != name {
			t.Fatalf("sorted %v, want %v", filenames(got), want)
		}
	}

	limited := filterProducts(rows, Criteria{Limit: 2}, KindLightCurve)
	if len(limited) != 2 || limited[0].ProductFilename != "a_lc.fits" || limited[1].ProductFilename != "b_lc.fits" {
		t.Fatalf("limited %v, want first two in sorted order", filenames(limited))
	}
}

// Rows whose provenance belongs to no handled family pass through the
// family filters untouched. This mirrors longstanding behavior; if it is
// ever tightened on purpose, this test is the tripwire.
func TestFilterUnhandledProvenancePassthrough(t *testing.T) {
	rows := []types.ProductRow{
		row("K2SFF", "K2SFF corrected lightcurve", "hlsp_k2sff.fits", 0),
		row("EVEREST", "EVEREST lightcurve", "hlsp_everest.fits", 0),
	}

	got := filterProducts(rows, Criteria{Authors: []string{"Kepler", "K2", "SPOC"}, Quarters: []int{5}}, KindLightCurve)
	if len(got) != 2 {
		t.Fatalf("kept %v, want both unhandled rows to pass through", filenames(got))
	}
}

func TestFilterAuthorRestriction(t *testing.T) {
	rows := []types.ProductRow{
		row("Kepler", "Lightcurve Long Cadence (CLC) - Q5", "kplr_llc.fits", 0),
		row("SPOC", "Light curves", "tess_lc.fits", 0),
	}

	got := filterProducts(rows, Criteria{Authors: []string{"SPOC"}}, KindLightCurve)
	if len(got) != 1 || got[0].ProductFilename != "tess_lc.fits" {
		t.Fatalf("kept %v, want only the SPOC row", filenames(got))
	}
}

func TestFilterSPOCFiletype(t *testing.T) {
	rows := []types.ProductRow{
		row("SPOC", "Light curves", "tess_lc.fits", 0),
		row("SPOC", "Target pixel files", "tess_tp.fits", 0),
	}

	got := filterProducts(rows, Criteria{}, KindTargetPixel)
	if len(got) != 1 || got[0].ProductFilename != "tess_tp.fits" {
		t.Fatalf("kept %v, want only the target pixel row", filenames(got))
	}
}

func TestFilterMonth(t *testing.T) {
	// Quarter 5 short cadence: month 1 starts 2010078100052, month 2
	// starts 2010111051026 (embedded lookup table).
	m1 := types.ProductRow{
		ProvenanceName:  "Kepler",
		Description:     "Lightcurve Short Cadence (CSC) - Q5",
		ProductFilename: "kplr011904151-2010078100052_slc.fits",
		DataURI:         "mast:KEPLER/url/kplr011904151-2010078100052_slc.fits",
	}
	m2 := m1
	m2.ProductFilename = "kplr011904151-2010111051026_slc.fits"
	m2.DataURI = "mast:KEPLER/url/kplr011904151-2010111051026_slc.fits"

	got := filterProducts([]types.ProductRow{m1, m2},
		Criteria{Cadence: CadenceShort, Quarters: []int{5}, Months: []int{2}}, KindLightCurve)
	if len(got) != 1 || got[0].ProductFilename != m2.ProductFilename {
		t.Fatalf("kept %v, want only the month-2 file", filenames(got))
	}

	// A month with no lookup entry for the quarter never matches.
	got = filterProducts([]types.ProductRow{m1},
		Criteria{Cadence: CadenceShort, Months: []int{9}}, KindLightCurve)
	if len(got) != 0 {
		t.Fatalf("kept %v, want no match for a missing lookup entry", filenames(got))
	}
}

func TestDataURIDate(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mast:KEPLER/url/kplr011904151-2010078100052_slc.fits", "2010078100052"},
		{"kplr011904151-2010078100052_slc.fits", "2010078100052"},
		// Only the token between the first two hyphens counts.
		{"kplr011904151-2010078100052-reproc_slc.fits", "2010078100052"},
		{"nodate.fits", ""},
	}
	for _, tt := range tests {
		if got := dataURIDate(tt.uri); got != tt.want {
			t.Errorf("dataURIDate(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestRecoverKeplerSequence(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Lightcurve Long Cadence (CLC) - Q5", "5"},
		{"Target Pixel Short Cadence (TPS) - Q16", "16"},
		{"no token here", ""},
	}
	for _, tt := range tests {
		if got := recoverKeplerSequence(tt.desc); got != tt.want {
			t.Errorf("recoverKeplerSequence(%q) = %q, want %q", tt.desc, got, tt.want)
		}
	}
}
