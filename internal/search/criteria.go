// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "strings"

// Cadence selects the sampling-rate class of a product.
type Cadence string

const (
	CadenceLong  Cadence = "long"
	CadenceShort Cadence = "short"
	CadenceAny   Cadence = "any"
)

// ProductKind selects the type of file queried at the archive.
type ProductKind string

const (
	KindLightCurve  ProductKind = "lightcurve"
	KindTargetPixel ProductKind = "targetpixel"
	KindFFI         ProductKind = "ffi"
)

// familyText is the filetype word the Kepler and K2 pipelines embed in
// product descriptions, e.g. "Lightcurve Long Cadence (CLC)".
func (k ProductKind) familyText() string {
	switch k {
	case KindTargetPixel:
		return "Target Pixel"
	default:
		return "Lightcurve"
	}
}

// spocText is the filetype phrase the TESS SPOC pipeline embeds in product
// descriptions.
func (k ProductKind) spocText() string {
	switch k {
	case KindLightCurve:
		return "Light curves"
	case KindTargetPixel:
		return "Target pixel files"
	default:
		return "TESScut"
	}
}

// Default exposure-time search window in seconds.
const (
	defaultExpTimeMin = 0
	defaultExpTimeMax = 9999
)

// defaultRadiusArcsec is the cone radius used when none is requested:
// small enough to behave as an exact-position search, large enough to
// avoid floating-point misses.
const defaultRadiusArcsec = 0.0001

// Criteria is the immutable set of search constraints. Construct one per
// search call; zero values mean "do not filter".
type Criteria struct {
	// Target is the object searched around.
	Target Target

	// Radius is the cone-search radius in arcseconds. Zero or negative
	// means unset: exact-identifier search is tried first where possible
	// and the cone falls back to defaultRadiusArcsec.
	Radius float64

	// Cadence is the sampling-rate selector; empty means long.
	Cadence Cadence

	// Missions restricts the observing missions queried. Empty means
	// {Kepler, K2, TESS}.
	Missions []string

	// Authors restricts the product provenance. Empty, or a set
	// containing "any" or "all", disables provenance filtering.
	Authors []string

	// ExpTimeMin and ExpTimeMax bound the exposure time in seconds.
	// Both zero means the default window.
	ExpTimeMin float64
	ExpTimeMax float64

	// Quarters, Campaigns, and Sectors filter the mission-specific
	// observing-period index. Requesting one period concept implicitly
	// restricts results to the mission that has it.
	Quarters  []int
	Campaigns []int
	Sectors   []int

	// Months selects short-cadence months within a Kepler quarter (1-3).
	Months []int

	// Limit caps the number of returned products. Zero means no cap.
	Limit int
}

var defaultMissions = []string{"Kepler", "K2", "TESS"}

// normalized returns a copy of c with defaults applied and the provenance
// sentinel values ("any"/"all") collapsed to no-filter.
func (c Criteria) normalized() Criteria {
	if len(c.Missions) == 0 {
		c.Missions = defaultMissions
	}
	c.Authors = normalizeAuthors(c.Authors)
	if c.ExpTimeMin == 0 && c.ExpTimeMax == 0 {
		c.ExpTimeMin = defaultExpTimeMin
		c.ExpTimeMax = defaultExpTimeMax
	}
	return c
}

// normalizeAuthors maps the "do not filter" sentinels to nil.
func normalizeAuthors(authors []string) []string {
	if len(authors) == 0 {
		return nil
	}
	for _, a := range authors {
		switch strings.ToLower(a) {
		case "any", "all":
			return nil
		}
	}
	return authors
}

// sequenceNumbers is the union of the campaign and sector filters, the two
// period concepts the archive stores in its sequence_number field. Kepler
// quarters are absent upstream and are filtered from description text
// instead.
func (c Criteria) sequenceNumbers() []int {
	if len(c.Campaigns) > 0 {
		return c.Campaigns
	}
	return c.Sectors
}
