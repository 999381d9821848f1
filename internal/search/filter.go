// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/mast-archive/pkg/types"
)

// family is the mission/provenance family a product row belongs to. Each
// family encodes its own undocumented text conventions for cadence, file
// type, and observing-period selection, so each gets its own predicate.
type family int

const (
	familyKepler family = iota
	familyK2
	familySPOC
)

// familyOf classifies a row by provenance. The bool is false for
// provenances no family handles (community pipelines, MAST cutout rows).
func familyOf(provenance string) (family, bool) {
	switch strings.ToLower(provenance) {
	case "kepler":
		return familyKepler, true
	case "k2":
		return familyK2, true
	case "spoc":
		return familySPOC, true
	}
	return 0, false
}

// familyEnabled reports whether the family participates in filtering at
// all: its provenance must be requested, and no period filter belonging to
// a different family may be present. Requesting quarter=5 implicitly means
// "only the mission that has quarters".
func familyEnabled(f family, c Criteria, requested map[string]bool) bool {
	switch f {
	case familyKepler:
		return requested["kepler"] && len(c.Campaigns) == 0 && len(c.Sectors) == 0
	case familyK2:
		return requested["k2"] && len(c.Quarters) == 0 && len(c.Sectors) == 0
	default:
		return requested["spoc"] && len(c.Quarters) == 0 && len(c.Campaigns) == 0
	}
}

// familyPredicates dispatches each family to its row predicate.
var familyPredicates = map[family]func(row types.ProductRow, c Criteria, kind ProductKind) bool{
	familyKepler: keplerMatch,
	familyK2:     k2Match,
	familySPOC:   spocMatch,
}

// requestedProvenances lowers the author filter into a set. No filter
// means all three handled families are considered.
func requestedProvenances(authors []string) map[string]bool {
	requested := make(map[string]bool)
	if len(authors) == 0 {
		for _, p := range []string{"kepler", "k2", "spoc"} {
			requested[p] = true
		}
		return requested
	}
	for _, a := range authors {
		requested[strings.ToLower(a)] = true
	}
	return requested
}

// filterProducts applies the per-family predicates, the archive-file
// suffix filter, the canonical (distance, filename) sort, and the result
// cap. Rows belonging to no handled family pass through untouched.
func filterProducts(rows []types.ProductRow, c Criteria, kind ProductKind) []types.ProductRow {
	requested := requestedProvenances(c.Authors)

	var kept []types.ProductRow
	for _, row := range rows {
		f, handled := familyOf(row.ProvenanceName)
		if handled {
			if !familyEnabled(f, c, requested) {
				continue
			}
			if !familyPredicates[f](row, c, kind) {
				continue
			}
		}
		if !hasArchiveSuffix(row.ProductFilename) {
			continue
		}
		kept = append(kept, row)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Distance != kept[j].Distance {
			return kept[i].Distance < kept[j].Distance
		}
		return kept[i].ProductFilename < kept[j].ProductFilename
	})

	if c.Limit > 0 && len(kept) > c.Limit {
		kept = kept[:c.Limit]
	}
	return kept
}

// hasArchiveSuffix keeps only recognized archive-file extensions.
func hasArchiveSuffix(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".fits") || strings.HasSuffix(lower, ".fits.gz")
}

// cadenceText is the description substring that encodes the requested
// cadence for the Kepler and K2 pipelines: "<Filetype> Short",
// "<Filetype> Long", or just "<Filetype>" for any cadence.
func cadenceText(cadence Cadence, kind ProductKind) string {
	switch cadence {
	case CadenceShort, "sc":
		return kind.familyText() + " Short"
	case CadenceAny, "both":
		return kind.familyText()
	default:
		return kind.familyText() + " Long"
	}
}

// keplerMatch encodes the Kepler prime mission conventions: cadence and
// file type from the description text, quarter from the description's
// trailing "Q<N>" token, and month from the short-cadence start-date
// lookup.
func keplerMatch(row types.ProductRow, c Criteria, kind ProductKind) bool {
	if !strings.Contains(row.Description, cadenceText(c.Cadence, kind)) {
		return false
	}

	// The archive's sequence_number field is unpopulated for Kepler prime
	// data, so the quarter lives at the end of the description.
	if len(c.Quarters) > 0 {
		desc := strings.ReplaceAll(strings.ToLower(row.Description), "-", "")
		matched := false
		for _, q := range c.Quarters {
			if strings.HasSuffix(desc, "q"+strconv.Itoa(q)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(c.Months) > 0 && strings.Contains(row.Description, "Short") {
		return monthMatch(row, c.Months)
	}
	return true
}

// monthMatch checks a short-cadence row's embedded start date against the
// permitted dates for the requested months. Rows whose quarter or date
// cannot be parsed, or whose (quarter, month) pair is missing from the
// lookup table, do not match.
func monthMatch(row types.ProductRow, months []int) bool {
	quarter, ok := descriptionQuarter(row.Description)
	if !ok {
		return false
	}
	date := dataURIDate(row.DataURI)
	if date == "" {
		return false
	}
	for _, m := range months {
		if start := shortCadenceStartTime(quarter, m); start != "" && start == date {
			return true
		}
	}
	return false
}

// descriptionQuarter parses the quarter from a description's trailing
// " - Q<N>" token.
func descriptionQuarter(desc string) (int, bool) {
	parts := strings.Split(desc, " - ")
	last := parts[len(parts)-1]
	if len(last) < 2 {
		return 0, false
	}
	q, err := strconv.Atoi(strings.ReplaceAll(last[1:], "-", ""))
	if err != nil {
		return 0, false
	}
	return q, true
}

// dataURIDate extracts the cadence start timestamp from an archive URI,
// e.g. ".../kplr011904151-2010078100052_slc.fits" -> "2010078100052".
func dataURIDate(uri string) string {
	base := uri
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	fields := strings.SplitN(base, "-", 3)
	if len(fields) < 2 {
		return ""
	}
	return strings.SplitN(fields[1], "_", 2)[0]
}

// k2Match encodes the K2 conventions: cadence and file type only; the
// campaign filter is applied upstream through the query's sequence_number.
func k2Match(row types.ProductRow, c Criteria, kind ProductKind) bool {
	return strings.Contains(row.Description, cadenceText(c.Cadence, kind))
}

// spocMatch encodes the TESS SPOC conventions: file type is keyed by a
// fixed phrase per product kind; the sector filter is applied upstream
// through the query's sequence_number.
func spocMatch(row types.ProductRow, c Criteria, kind ProductKind) bool {
	return strings.Contains(row.Description, kind.spocText())
}

// keplerSeqPattern recovers a quarter number from free text when the
// upstream sequence_number field is unpopulated. The last Q<digits> token
// wins.
var keplerSeqPattern = regexp.MustCompile(`Q(\d+)`)

// recoverKeplerSequence parses the quarter label out of a description,
// returning "" when no token is present.
func recoverKeplerSequence(description string) string {
	matches := keplerSeqPattern.FindAllStringSubmatch(description, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
