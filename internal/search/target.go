// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/mast-archive/pkg/types"
)

// Target is a search target designation: a free-form name, a bare catalog
// ID, or a sky position.
type Target interface {
	// QueryString is the form handed to the MAST name resolver.
	QueryString() string
}

// Name is a free-form target designation: a proper name ("Kepler-10"), a
// mission-prefixed catalog ID ("KIC 11904151"), or a coordinate string.
type Name string

func (n Name) QueryString() string { return string(n) }

// CatalogID is a bare numeric identifier with no mission prefix. It is
// ambiguous across catalogs and never searched as an exact name.
type CatalogID int64

func (id CatalogID) QueryString() string { return strconv.FormatInt(int64(id), 10) }

// Position is a structured sky coordinate target.
type Position types.Coord

func (p Position) QueryString() string { return types.Coord(p).String() }

// Catalog ID boundaries. These reproduce external catalog numbering
// conventions and must not be adjusted.
const (
	kicIDCeiling  = 13161030
	epicIDCeiling = 251813739
)

// Mission-prefixed identifier patterns, case-insensitive with an optional
// separating space.
var (
	kplrPattern = regexp.MustCompile(`^(kplr|kic) ?(\d+)$`)
	ktwoPattern = regexp.MustCompile(`^(ktwo|epic) ?(\d+)$`)
	tessPattern = regexp.MustCompile(`^(tess|tic) ?(\d+)$`)
)

// exactTargetName returns the archive target_name for a mission-prefixed
// identifier, or "" when the target has no exact-name form. Kepler and K2
// identifiers are zero-padded to nine digits under their archive prefixes;
// TESS identifiers are the bare nine-padded digits.
func exactTargetName(target Target) string {
	lower := strings.ToLower(strings.TrimSpace(target.QueryString()))
	if m := kplrPattern.FindStringSubmatch(lower); m != nil {
		return "kplr" + zfill(m[2], 9)
	}
	if m := ktwoPattern.FindStringSubmatch(lower); m != nil {
		return "ktwo" + zfill(m[2], 9)
	}
	if m := tessPattern.FindStringSubmatch(lower); m != nil {
		return zfill(m[2], 9)
	}
	return ""
}

// warnAmbiguousID emits the user-facing warning for bare numeric targets,
// which could refer to different targets across mission catalogs. The ID
// is still resolved, via cone search.
func warnAmbiguousID(target Target, w io.Writer) {
	id, ok := target.(CatalogID)
	if !ok {
		return
	}
	switch {
	case id > 0 && id < kicIDCeiling:
		fmt.Fprintf(w, "warning: %d may refer to a different Kepler or TESS target. "+
			"Please add the prefix 'KIC' or 'TIC' to disambiguate.\n", id)
	case id < epicIDCeiling:
		fmt.Fprintf(w, "warning: %d may refer to a different K2 or TESS target. "+
			"Please add the prefix 'EPIC' or 'TIC' to disambiguate.\n", id)
	}
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
