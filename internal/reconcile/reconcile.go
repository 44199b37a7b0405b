// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile compares the local zotfile directory with the Zotero
// catalog and acts on the PDFs the catalog does not know about: moving them
// to quarantine or publishing them as new catalog items.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/zotero-sync/internal/scan"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

// QuarantineDir is the subdirectory of the zotfile directory that holds
// quarantined files. Local paths containing it are never reconciled.
const QuarantineDir = "trash"

// ErrCatalogUnavailable wraps any failure to list the remote catalog.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Catalog lists every entry of the remote library. *zotero.Client
// implements it.
type Catalog interface {
	ListAttachments(ctx context.Context) ([]types.CatalogEntry, error)
}

// Reconcile returns the PDFs under root whose absolute path is not the path
// of any catalog entry. Paths are compared as exact strings; no symlink,
// case or separator normalization is applied to catalog paths. Files whose
// path below root contains QuarantineDir are excluded. Only the part below
// root is checked, so a root whose own path contains "trash" is still
// scanned.
func Reconcile(ctx context.Context, root string, catalog Catalog) ([]types.LocalFile, error) {
	abs, err := scan.Root(root)
	if err != nil {
		return nil, err
	}

	entries, err := catalog.ListAttachments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	known := CatalogPaths(entries)

	paths, err := scan.PDFs(abs)
	if err != nil {
		return nil, err
	}
	return Unique(abs, paths, known), nil
}

// CatalogPaths collects the non-empty paths of entries into a set.
func CatalogPaths(entries []types.CatalogEntry) map[string]struct{} {
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.HasPath() {
			known[e.Path] = struct{}{}
		}
	}
	return known
}

// Unique filters absolute local paths under root down to those absent from
// known, dropping quarantined paths. Order is preserved.
func Unique(root string, paths []string, known map[string]struct{}) []types.LocalFile {
	var unique []types.LocalFile
	for _, p := range paths {
		if quarantined(root, p) {
			continue
		}
		if _, ok := known[p]; ok {
			continue
		}
		unique = append(unique, types.LocalFile{Path: p, Name: filepath.Base(p)})
	}
	return unique
}

func quarantined(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return strings.Contains(rel, QuarantineDir)
}
