// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"
)

// Kepler's prime mission downlinked three short-cadence files per quarter,
// one per month. The lookup table maps (quarter, month) to the cadence
// start timestamp embedded in the file's archive URI.
//
//go:embed data/short_cadence_month_lookup.csv
var shortCadenceMonthCSV []byte

type quarterMonth struct {
	quarter int
	month   int
}

var (
	monthLookupOnce sync.Once
	monthLookup     map[quarterMonth]string
	monthLookupErr  error
)

// shortCadenceStartTime returns the cadence start timestamp for the given
// quarter and month, or "" when the table has no such entry. A missing
// entry is not an error for callers: rows pointing at it simply never
// match a month filter.
func shortCadenceStartTime(quarter, month int) string {
	monthLookupOnce.Do(loadMonthLookup)
	if monthLookupErr != nil {
		return ""
	}
	return monthLookup[quarterMonth{quarter: quarter, month: month}]
}

func loadMonthLookup() {
	r := csv.NewReader(bytes.NewReader(shortCadenceMonthCSV))
	records, err := r.ReadAll()
	if err != nil {
		monthLookupErr = fmt.Errorf("parsing short-cadence month table: %w", err)
		return
	}

	monthLookup = make(map[quarterMonth]string, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) != 3 {
			continue // header
		}
		q, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		m, err := strconv.Atoi(rec[1])
		if err != nil {
			continue
		}
		monthLookup[quarterMonth{quarter: q, month: m}] = rec[2]
	}
}
