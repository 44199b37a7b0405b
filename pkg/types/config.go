// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "zotero-sync/0.2").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig holds the credentials and paging settings for the Zotero Web API.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the per-user Zotero API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// UserID is the numeric Zotero user ID used in the request path.
	UserID string `json:"user_id" yaml:"user_id"`

	// PageSize is the number of items requested per page (default and maximum 100).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// ProcessConfig holds settings for the optimize and ocr stages.
type ProcessConfig struct {
	// Jobs is the number of files processed concurrently (default 1).
	Jobs int `json:"jobs" yaml:"jobs"`

	// Timeout bounds a single external tool invocation. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// LedgerPath is the SQLite database recording processed files. Empty
	// disables the ledger and every file is processed.
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`
}

// Settings is the resolved configuration shared by all commands.
type Settings struct {
	// FileDir is the local zotfile directory.
	FileDir string `json:"file_dir" yaml:"file_dir"`

	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Process ProcessConfig `json:"process" yaml:"process"`
}
