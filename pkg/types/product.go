// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Coord is a sky position in decimal degrees.
type Coord struct {
	RA  float64 `json:"ra" yaml:"ra"`
	Dec float64 `json:"dec" yaml:"dec"`
}

// String renders the position as the "ra, dec" form the MAST resolver accepts.
func (c Coord) String() string {
	return fmt.Sprintf("%v, %v", c.RA, c.Dec)
}

// Observation is one row of the MAST observation table: a single telescope
// pointing/epoch for a target, independent of individual files.
type Observation struct {
	// ObsID is the observation key shared with the product table.
	ObsID string `json:"obs_id" yaml:"obs_id"`

	// TargetName is the archive's name for the observed target.
	TargetName string `json:"target_name" yaml:"target_name"`

	// Project is the observing mission ("Kepler", "K2", "TESS").
	Project string `json:"project" yaml:"project"`

	// ProvenanceName is the pipeline that produced the data, distinct from
	// the mission (e.g. "SPOC", "K2SFF").
	ProvenanceName string `json:"provenance_name" yaml:"provenance_name"`

	// SequenceNumber is the quarter/campaign/sector index. Kepler prime
	// observations leave it unset; nil marks the missing value.
	SequenceNumber *int `json:"sequence_number" yaml:"sequence_number"`

	// RA and Dec locate the target in decimal degrees.
	RA  float64 `json:"s_ra" yaml:"s_ra"`
	Dec float64 `json:"s_dec" yaml:"s_dec"`

	// Distance is the angular separation from the query position in
	// arcseconds. Exact-name matches report zero.
	Distance float64 `json:"distance" yaml:"distance"`

	// TargetID is the archive's numeric identifier for the target.
	TargetID string `json:"targetid" yaml:"targetid"`
}

// Product is one downloadable file associated with an observation.
type Product struct {
	// ObsID joins the product to its observation.
	ObsID string `json:"obs_id" yaml:"obs_id"`

	// ProductFilename is the file's basename in the archive.
	ProductFilename string `json:"productFilename" yaml:"product_filename"`

	// DataURI is the archive-relative retrieval URI.
	DataURI string `json:"dataURI" yaml:"data_uri"`

	// Description is the free-text product description. For Kepler it is
	// the only reliable source of cadence, file type, and quarter.
	Description string `json:"description" yaml:"description"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// ProductRow is the right-outer join of Observation and Product plus the
// derived display columns. Every row has a non-empty ProductFilename.
type ProductRow struct {
	ObsID           string  `json:"obs_id" yaml:"obs_id"`
	TargetName      string  `json:"target_name" yaml:"target_name"`
	TargetID        string  `json:"targetid" yaml:"targetid"`
	Project         string  `json:"project" yaml:"project"`
	ProvenanceName  string  `json:"provenance_name" yaml:"provenance_name"`
	SequenceNumber  *int    `json:"sequence_number" yaml:"sequence_number"`
	RA              float64 `json:"s_ra" yaml:"s_ra"`
	Dec             float64 `json:"s_dec" yaml:"s_dec"`
	Distance        float64 `json:"distance" yaml:"distance"`
	ProductFilename string  `json:"productFilename" yaml:"product_filename"`
	DataURI         string  `json:"dataURI" yaml:"data_uri"`
	Description     string  `json:"description" yaml:"description"`
	Size            int64   `json:"size" yaml:"size"`

	// Author is a user-friendly copy of ProvenanceName.
	Author string `json:"author" yaml:"author"`

	// ObservationLabel is the human-readable "{mission} {period} {seq}"
	// label, e.g. "Kepler Quarter 5".
	ObservationLabel string `json:"observation" yaml:"observation"`

	// Index is the display-only running index assigned when the result
	// container is built.
	Index int `json:"#" yaml:"index"`
}
