// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zotero-sync/internal/scan"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

// fakeCatalog implements Catalog and Publisher for testing.
type fakeCatalog struct {
	entries []types.CatalogEntry
	err     error
	// failFor makes CreateItem fail for files with this base name.
	failFor string
	created []types.LocalFile
}

func (f *fakeCatalog) ListAttachments(context.Context) ([]types.CatalogEntry, error) {
	return f.entries, f.err
}

func (f *fakeCatalog) CreateItem(_ context.Context, lf types.LocalFile) (string, error) {
	if lf.Name == f.failFor {
		return "", errors.New("HTTP 500")
	}
	f.created = append(f.created, lf)
	return fmt.Sprintf("KEY%d", len(f.created)), nil
}

func catalogOf(paths ...string) *fakeCatalog {
	c := &fakeCatalog{}
	for i, p := range paths {
		c.entries = append(c.entries, types.CatalogEntry{Key: fmt.Sprintf("K%d", i), Path: p})
	}
	return c
}

func writePDF(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+rel), 0o644))
	return path
}

func names(files []types.LocalFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func countPDFs(t *testing.T, dir string) int {
	t.Helper()
	if _, err := os.Stat(dir); err != nil {
		return 0
	}
	paths, err := scan.PDFs(dir)
	require.NoError(t, err)
	return len(paths)
}

func TestReconcile_SetDifference(t *testing.T) {
	root := t.TempDir()
	a := writePDF(t, root, "0/a.pdf")
	b := writePDF(t, root, "1/b.pdf")
	c := writePDF(t, root, "c.pdf")
	writePDF(t, root, "trash/old.pdf")
	writePDF(t, root, "notes/readme.txt")

	catalog := catalogOf(b, "/elsewhere/z.pdf", "")
	// Cloud-stored attachments have no path and are ignored.
	catalog.entries = append(catalog.entries, types.CatalogEntry{Key: "CLOUD"})

	got, err := Reconcile(context.Background(), root, catalog)
	require.NoError(t, err)
	assert.Equal(t, []types.LocalFile{
		{Path: a, Name: "a.pdf"},
		{Path: c, Name: "c.pdf"},
	}, got)
}

func TestReconcile_SameSetIsEmpty(t *testing.T) {
	root := t.TempDir()
	var paths []string
	for _, rel := range []string{"x.pdf", "sub/y.pdf", "sub/deeper/z.pdf"} {
		paths = append(paths, writePDF(t, root, rel))
	}

	got, err := Reconcile(context.Background(), root, catalogOf(paths...))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReconcile_ExactStringMatch(t *testing.T) {
	root := t.TempDir()
	p := writePDF(t, root, "Paper.pdf")

	// A differently-cased or trailing-slash path is not the same string.
	got, err := Reconcile(context.Background(), root, catalogOf(strings.ToUpper(p), p+"/"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Paper.pdf"}, names(got))
}

func TestReconcile_ExcludesQuarantinedSubstring(t *testing.T) {
	root := t.TempDir()
	writePDF(t, root, "trash/a.pdf")
	writePDF(t, root, "old-trash-can/b.pdf")
	writePDF(t, root, "trashed.pdf")
	keep := writePDF(t, root, "keep.pdf")

	got, err := Reconcile(context.Background(), root, catalogOf())
	require.NoError(t, err)
	assert.Equal(t, []types.LocalFile{{Path: keep, Name: "keep.pdf"}}, got)
}

func TestReconcile_RootNamedTrashStillScanned(t *testing.T) {
	root := filepath.Join(t.TempDir(), "trash-library")
	p := writePDF(t, root, "a.pdf")

	got, err := Reconcile(context.Background(), root, catalogOf())
	require.NoError(t, err)
	assert.Equal(t, []types.LocalFile{{Path: p, Name: "a.pdf"}}, got)
}

func TestReconcile_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Reconcile(context.Background(), filepath.Join(t.TempDir(), "missing"), catalogOf())
		assert.ErrorIs(t, err, scan.ErrDirectoryNotFound)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		_, err := Reconcile(context.Background(), t.TempDir(), &fakeCatalog{err: cause})
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.ErrorIs(t, err, cause)
	})
}

func TestReconcile_Idempotent(t *testing.T) {
	root := t.TempDir()
	writePDF(t, root, "a.pdf")
	writePDF(t, root, "b.pdf")
	catalog := catalogOf()

	first, err := Reconcile(context.Background(), root, catalog)
	require.NoError(t, err)
	second, err := Reconcile(context.Background(), root, catalog)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, countPDFs(t, root))
}

func TestQuarantine_EmptyCatalogMovesEverything(t *testing.T) {
	root := t.TempDir()
	writePDF(t, root, "0/a.pdf")
	writePDF(t, root, "1/b.pdf")
	before := countPDFs(t, root)

	unique, err := Reconcile(context.Background(), root, catalogOf())
	require.NoError(t, err)
	require.Len(t, unique, 2)

	var log bytes.Buffer
	result, err := Quarantine(root, unique, &log)
	require.NoError(t, err)
	assert.Equal(t, QuarantineResult{Moved: 2}, result)

	trash := filepath.Join(root, QuarantineDir)
	assert.Equal(t, 2, countPDFs(t, trash))
	// Everything left under root is inside trash.
	assert.Equal(t, before, countPDFs(t, root))
	assert.FileExists(t, filepath.Join(trash, "a.pdf"))
	assert.FileExists(t, filepath.Join(trash, "b.pdf"))
	assert.NoFileExists(t, filepath.Join(root, "0", "a.pdf"))
	assert.Contains(t, log.String(), "Quarantine summary: 2 moved, 0 failed")

	// A second reconcile ignores the quarantined files.
	again, err := Reconcile(context.Background(), root, catalogOf())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestQuarantine_PreservesTotalCount(t *testing.T) {
	root := t.TempDir()
	known := writePDF(t, root, "known.pdf")
	writePDF(t, root, "x/unknown1.pdf")
	writePDF(t, root, "y/unknown2.pdf")
	before := countPDFs(t, root)

	unique, err := Reconcile(context.Background(), root, catalogOf(known))
	require.NoError(t, err)
	_, err = Quarantine(root, unique, io.Discard)
	require.NoError(t, err)

	trash := filepath.Join(root, QuarantineDir)
	inTrash := countPDFs(t, trash)
	outside := countPDFs(t, root) - inTrash
	assert.Equal(t, before, outside+inTrash)
	assert.Equal(t, 2, inTrash)
	assert.FileExists(t, known)
}

func TestQuarantine_KnownFileIsNoOp(t *testing.T) {
	root := t.TempDir()
	p := writePDF(t, root, "a.pdf")

	unique, err := Reconcile(context.Background(), root, catalogOf(p))
	require.NoError(t, err)
	assert.Empty(t, unique)

	result, err := Quarantine(root, unique, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, result.Moved)
	assert.FileExists(t, p)
	assert.NoDirExists(t, filepath.Join(root, QuarantineDir))
}

func TestQuarantine_CollisionIsRejected(t *testing.T) {
	root := t.TempDir()
	first := writePDF(t, root, "0/same.pdf")
	second := writePDF(t, root, "1/same.pdf")
	other := writePDF(t, root, "2/other.pdf")

	var log bytes.Buffer
	result, err := Quarantine(root, []types.LocalFile{
		{Path: first, Name: "same.pdf"},
		{Path: second, Name: "same.pdf"},
		{Path: other, Name: "other.pdf"},
	}, &log)
	require.NoError(t, err)

	assert.Equal(t, QuarantineResult{Moved: 2, Failed: 1}, result)
	assert.True(t, result.HasFailures())
	assert.FileExists(t, second, "colliding file stays in place")
	assert.Contains(t, log.String(), ErrQuarantineCollision.Error())

	data, err := os.ReadFile(filepath.Join(root, QuarantineDir, "same.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 0/same.pdf", string(data), "quarantined file is not overwritten")
}

func TestPublish_ContinuesAfterFailure(t *testing.T) {
	files := []types.LocalFile{
		{Path: "/z/a.pdf", Name: "a.pdf"},
		{Path: "/z/b.pdf", Name: "b.pdf"},
		{Path: "/z/c.pdf", Name: "c.pdf"},
	}
	catalog := &fakeCatalog{failFor: "b.pdf"}

	var log bytes.Buffer
	result, err := Publish(context.Background(), catalog, files, &log)
	require.NoError(t, err)

	assert.Equal(t, PublishResult{Published: 2, Failed: 1}, result)
	assert.True(t, result.HasFailures())
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, names(catalog.created))
	assert.Contains(t, log.String(), "failed:  /z/b.pdf (HTTP 500)")
	assert.Contains(t, log.String(), "Upload summary: 2 uploaded, 1 failed (total: 3)")
}

func TestPublish_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	catalog := &fakeCatalog{}
	_, err := Publish(ctx, catalog, []types.LocalFile{{Path: "/z/a.pdf", Name: "a.pdf"}}, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, catalog.created)
}

func TestUnique(t *testing.T) {
	root := "/lib"
	paths := []string{"/lib/a.pdf", "/lib/trash/b.pdf", "/lib/c.pdf", "/lib/d.pdf"}
	known := CatalogPaths([]types.CatalogEntry{{Path: "/lib/c.pdf"}, {Path: ""}})

	assert.Len(t, known, 1)
	assert.Equal(t, []string{"a.pdf", "d.pdf"}, names(Unique(root, paths, known)))
}
