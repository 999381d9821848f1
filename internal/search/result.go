// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/mast-archive/pkg/types"
)

// SearchResult wraps the filtered product table. It owns its rows for its
// lifetime; slicing produces a new SearchResult over a copy, so derived
// results never share mutable state.
type SearchResult struct {
	rows []types.ProductRow
}

// NewSearchResult builds a result container and assigns the display-only
// running index column.
func NewSearchResult(rows []types.ProductRow) *SearchResult {
	for i := range rows {
		rows[i].Index = i
	}
	return &SearchResult{rows: rows}
}

// Len returns the number of data products in the result.
func (r *SearchResult) Len() int { return len(r.rows) }

// Rows returns a copy of the underlying table.
func (r *SearchResult) Rows() []types.ProductRow {
	out := make([]types.ProductRow, len(r.rows))
	copy(out, r.rows)
	return out
}

// Row returns the i-th row.
func (r *SearchResult) Row(i int) types.ProductRow { return r.rows[i] }

// Slice returns a new SearchResult over rows [i, j), reindexed.
func (r *SearchResult) Slice(i, j int) *SearchResult {
	sub := make([]types.ProductRow, j-i)
	copy(sub, r.rows[i:j])
	return NewSearchResult(sub)
}

// At returns a single-row SearchResult. Negative indices count from the
// end, so At(-1) is the last row.
func (r *SearchResult) At(i int) *SearchResult {
	if i < 0 {
		i = len(r.rows) + i
	}
	return r.Slice(i, i+1)
}

// UniqueTarget is one row of the unique-targets view.
type UniqueTarget struct {
	TargetName string
	RA         float64
	Dec        float64
}

// UniqueTargets returns each distinct target with its position, in first
// appearance order.
func (r *SearchResult) UniqueTargets() []UniqueTarget {
	seen := make(map[string]bool)
	var targets []UniqueTarget
	for _, row := range r.rows {
		if seen[row.TargetName] {
			continue
		}
		seen[row.TargetName] = true
		targets = append(targets, UniqueTarget{TargetName: row.TargetName, RA: row.RA, Dec: row.Dec})
	}
	return targets
}

// ObsIDs returns the sorted unique observation identifiers.
func (r *SearchResult) ObsIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, row := range r.rows {
		if !seen[row.ObsID] {
			seen[row.ObsID] = true
			ids = append(ids, row.ObsID)
		}
	}
	sort.Strings(ids)
	return ids
}

// TargetNames returns the target name of every row.
func (r *SearchResult) TargetNames() []string {
	names := make([]string, len(r.rows))
	for i, row := range r.rows {
		names[i] = row.TargetName
	}
	return names
}

// RA returns the right ascension of every row in decimal degrees.
func (r *SearchResult) RA() []float64 {
	ra := make([]float64, len(r.rows))
	for i, row := range r.rows {
		ra[i] = row.RA
	}
	return ra
}

// Dec returns the declination of every row in decimal degrees.
func (r *SearchResult) Dec() []float64 {
	dec := make([]float64, len(r.rows))
	for i, row := range r.rows {
		dec[i] = row.Dec
	}
	return dec
}

// String renders a summary line plus the display columns.
func (r *SearchResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SearchResult containing %d data products.", len(r.rows))
	if len(r.rows) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	FormatTable(r, &b)
	return b.String()
}

// FormatTable writes the result as a human-readable table to w.
func FormatTable(r *SearchResult, w io.Writer) {
	if r.Len() == 0 {
		fmt.Fprintln(w, "No data products found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-8s  %-16s  %-44s  %8s\n",
		"#", "observation", "author", "target_name", "productFilename", "distance")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, row := range r.rows {
		fmt.Fprintf(w, "%-4d  %-20s  %-8s  %-16s  %-44s  %8.1f\n",
			row.Index, row.ObservationLabel, row.Author,
			truncate(row.TargetName, 16), truncate(row.ProductFilename, 44), row.Distance)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
