// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/zotero-sync/pkg/types"
)

// ErrQuarantineCollision is returned for a file whose name is already
// taken in the quarantine directory. The file is left where it is.
var ErrQuarantineCollision = errors.New("name already exists in quarantine")

// QuarantineResult holds the outcome of a quarantine run.
type QuarantineResult struct {
	Moved  int
	Failed int
}

// HasFailures reports whether any file could not be moved.
func (r QuarantineResult) HasFailures() bool {
	return r.Failed > 0
}

// Quarantine moves each file into root/trash, keeping its base name. The
// quarantine directory is created on first use. Existing files in
// quarantine are never overwritten; a collision is reported and the batch
// continues with the next file.
func Quarantine(root string, files []types.LocalFile, w io.Writer) (QuarantineResult, error) {
	var result QuarantineResult
	if len(files) == 0 {
		return result, nil
	}

	dir := filepath.Join(root, QuarantineDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("creating quarantine directory: %w", err)
	}

	for _, f := range files {
		if err := moveNoClobber(f.Path, filepath.Join(dir, f.Name)); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", f.Path, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "trashed: %s\n", f.Path)
		result.Moved++
	}
	fmt.Fprintf(w, "\nQuarantine summary: %d moved, %d failed (total: %d)\n",
		result.Moved, result.Failed, len(files))
	return result, nil
}

func moveNoClobber(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, ErrQuarantineCollision)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving to quarantine: %w", err)
	}
	return nil
}
