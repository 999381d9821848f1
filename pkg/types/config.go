// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mast-archive pipeline.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that talk to MAST.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mast-archive/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// APIToken is an optional MAST API token granting access to
	// exclusive-access data. Sent as "Authorization: token <value>".
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults caps the number of data products returned (0 = no cap).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDir is the base directory for downloaded science files.
	// Empty means the default cache directory under the user's home.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// DownloadDelay is the delay between consecutive downloads.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// ManifestPath is the SQLite download ledger location. Empty disables
	// manifest recording.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Download DownloadConfig `json:"download" yaml:"download"`
}
