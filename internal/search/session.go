// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mast-archive/pkg/types"
)

// Session is the on-disk representation of a search and its results. A
// search can be saved to a file and the products downloaded later without
// re-querying the archive.
type Session struct {
	Target string             `yaml:"target"`
	Kind   ProductKind        `yaml:"kind"`
	Saved  time.Time          `yaml:"saved"`
	Total  int                `yaml:"total"`
	Rows   []types.ProductRow `yaml:"rows"`
}

// WriteSession saves a search result to a YAML session file.
func WriteSession(path string, target Target, kind ProductKind, result *SearchResult) error {
	s := Session{
		Target: target.QueryString(),
		Kind:   kind,
		Saved:  time.Now().UTC(),
		Total:  result.Len(),
		Rows:   result.Rows(),
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSession loads a session file and rebuilds its SearchResult.
func ReadSession(path string) (Session, *SearchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, nil, fmt.Errorf("reading session file: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, nil, fmt.Errorf("parsing session file: %w", err)
	}
	return s, NewSearchResult(s.Rows), nil
}
