// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reader is the seam to the local file-format readers that parse
// downloaded science files. The download stage hands it a local path and a
// quality-mask selector; it returns one of two concrete product kinds
// selected by content.
package reader

import (
	"fmt"
	"strings"
)

// Quality-mask presets. A named preset maps to a fixed cadence-quality
// bitmask; raw integers pass through QualityBitmask unchanged.
const (
	// QualityNone ignores no cadences.
	QualityNone = 0
	// QualityDefault masks cadences with severe quality issues.
	QualityDefault = 1130799
	// QualityHard is a more conservative choice of flags to ignore. It is
	// known to remove good data.
	QualityHard = 1664431
	// QualityHardest removes all flagged data. Not recommended.
	QualityHardest = 2096639
)

// QualityBitmask resolves a named preset ("none", "default", "hard",
// "hardest") or a decimal integer string to its bitmask value.
func QualityBitmask(selector string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", "default":
		return QualityDefault, nil
	case "none":
		return QualityNone, nil
	case "hard":
		return QualityHard, nil
	case "hardest":
		return QualityHardest, nil
	}
	var raw int
	if _, err := fmt.Sscanf(selector, "%d", &raw); err != nil {
		return 0, fmt.Errorf("unknown quality bitmask %q", selector)
	}
	return raw, nil
}

// Options carries reader parameters beyond the file path.
type Options struct {
	// QualityBitmask masks out bad cadences while parsing.
	QualityBitmask int

	// TargetID overrides the target identifier recorded in the file,
	// used for cutouts whose header carries no catalog ID.
	TargetID string
}

// Product is a parsed science-data object: either a *LightCurve or a
// *TargetPixelFile.
type Product interface {
	// Path returns the local file the product was parsed from.
	Path() string
}

// LightCurve is a parsed light-curve file.
type LightCurve struct {
	FilePath       string
	TargetID       string
	QualityBitmask int
}

func (l *LightCurve) Path() string { return l.FilePath }

// TargetPixelFile is a parsed target-pixel or cutout file.
type TargetPixelFile struct {
	FilePath       string
	TargetID       string
	QualityBitmask int
}

func (p *TargetPixelFile) Path() string { return p.FilePath }

// Read parses the file at path and returns the concrete product kind.
// Kepler/TESS archive conventions mark light-curve files with an "lc"
// suffix stem; pixel data ("_tp", "_targ", astrocut cutouts) parse as
// target pixel files.
func Read(path string, opts Options) (Product, error) {
	lower := strings.ToLower(path)
	stem := strings.TrimSuffix(strings.TrimSuffix(lower, ".gz"), ".fits")
	switch {
	case strings.HasSuffix(stem, "lc"):
		return &LightCurve{FilePath: path, TargetID: opts.TargetID, QualityBitmask: opts.QualityBitmask}, nil
	case strings.HasSuffix(stem, "_tp"), strings.HasSuffix(stem, "targ"),
		strings.HasSuffix(stem, "astrocut"):
		return &TargetPixelFile{FilePath: path, TargetID: opts.TargetID, QualityBitmask: opts.QualityBitmask}, nil
	}
	return nil, fmt.Errorf("unrecognized product file %q", path)
}
