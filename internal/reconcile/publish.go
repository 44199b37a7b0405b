// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/zotero-sync/pkg/types"
)

// Publisher creates a catalog entry for a local file and returns its key.
// *zotero.Client implements it.
type Publisher interface {
	CreateItem(ctx context.Context, f types.LocalFile) (string, error)
}

// PublishResult holds the outcome of a publish run.
type PublishResult struct {
	Published int
	Failed    int
}

// HasFailures reports whether any file could not be published.
func (r PublishResult) HasFailures() bool {
	return r.Failed > 0
}

// Publish adds every file to the catalog. A failed file is reported and
// the batch continues; only a cancelled context stops it early.
func Publish(ctx context.Context, pub Publisher, files []types.LocalFile, w io.Writer) (PublishResult, error) {
	var result PublishResult
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key, err := pub.CreateItem(ctx, f)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", f.Path, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "uploaded: %s (%s)\n", f.Path, key)
		result.Published++
	}
	fmt.Fprintf(w, "\nUpload summary: %d uploaded, %d failed (total: %d)\n",
		result.Published, result.Failed, len(files))
	return result, nil
}
