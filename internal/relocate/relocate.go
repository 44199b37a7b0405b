// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relocate rewrites catalog attachment paths after the zotfile
// directory has moved.
package relocate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pdiddy/zotero-sync/internal/reconcile"
	"github.com/pdiddy/zotero-sync/internal/zotero"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

// Catalog lists attachments and applies path updates. *zotero.Client
// implements it.
type Catalog interface {
	reconcile.Catalog
	UpdatePaths(ctx context.Context, updates []zotero.PathUpdate) (int, error)
}

// Result holds the outcome of a relocation.
type Result struct {
	Matched int
	Updated int
}

// Plan returns one update for every entry stored under previous, moving it
// to the same relative location under current. Entries outside previous
// are left alone.
func Plan(entries []types.CatalogEntry, previous, current string) []zotero.PathUpdate {
	prefix := strings.TrimRight(previous, "/") + "/"
	var updates []zotero.PathUpdate
	for _, e := range entries {
		rest, ok := strings.CutPrefix(e.Path, prefix)
		if !ok || rest == "" {
			continue
		}
		moved := filepath.Join(current, rest)
		if moved == e.Path {
			continue
		}
		updates = append(updates, zotero.PathUpdate{Key: e.Key, Version: e.Version, Path: moved})
	}
	return updates
}

// Relocate moves every catalog attachment stored under previous to current
// and reports each rewritten path on w.
func Relocate(ctx context.Context, catalog Catalog, previous, current string, w io.Writer) (Result, error) {
	if strings.TrimSpace(previous) == "" {
		return Result{}, errors.New("previous zotfile path is required")
	}

	entries, err := catalog.ListAttachments(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", reconcile.ErrCatalogUnavailable, err)
	}

	updates := Plan(entries, previous, current)
	result := Result{Matched: len(updates)}
	slog.Debug("planned relocation", "entries", len(entries), "matched", len(updates))
	if len(updates) == 0 {
		fmt.Fprintf(w, "No attachments found under %s\n", previous)
		return result, nil
	}

	byKey := make(map[string]string, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Path
	}

	n, err := catalog.UpdatePaths(ctx, updates)
	result.Updated = n
	for _, u := range updates[:n] {
		fmt.Fprintf(w, "renamed: %s -> %s\n", byKey[u.Key], u.Path)
	}
	fmt.Fprintf(w, "\nRename summary: %d updated, %d matched\n", result.Updated, result.Matched)
	return result, err
}
