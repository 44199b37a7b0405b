// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/prompt"
	"github.com/pdiddy/zotero-sync/internal/reconcile"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Add PDFs missing from the Zotero library as linked-file items",
	Long: `Upload finds the PDFs under the zotfile directory that no Zotero
attachment points at and creates a book item with a linked-file attachment
for each one. The book title is the file name without its extension and
both items are tagged folder_upload. When the attachment cannot be created
the book is deleted again, so a later retry does not leave duplicates.

A file that fails to upload is reported and the rest continue; the command
exits non-zero when any file failed.`,
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(dotfile.FileDir, dotfile.APIKey, dotfile.UserID)
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")
	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	return upload(cmd.Context(), newCatalog(s.Catalog), s.FileDir, p, yes, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// uploadCatalog lists the library and accepts new items.
type uploadCatalog interface {
	reconcile.Catalog
	reconcile.Publisher
}

// upload publishes the local-only files under dir after confirmation,
// drawing a progress bar on progress.
func upload(ctx context.Context, catalog uploadCatalog, dir string, p *prompt.Prompter, yes bool, w, progress io.Writer) error {
	root, unique, err := findUnique(ctx, catalog, dir)
	if err != nil {
		return err
	}
	if len(unique) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No files to upload: every PDF is in the Zotero library.")
		return nil
	}

	listFiles(w, root, unique)
	if ok, err := confirm(p, yes, fmt.Sprintf("Upload %d file(s) to Zotero?", len(unique))); err != nil || !ok {
		return err
	}

	bar := pb.New(len(unique)).SetWriter(progress)
	bar.Start()
	result, err := reconcile.Publish(ctx, progressPublisher{Publisher: catalog, bar: bar}, unique, w)
	bar.Finish()
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d of %d file(s) could not be uploaded", result.Failed, len(unique))
	}
	color.New(color.FgGreen).Fprintf(w, "Successfully uploaded %d files!\n", result.Published)
	return nil
}

// progressPublisher advances bar after every attempted item.
type progressPublisher struct {
	reconcile.Publisher
	bar *pb.ProgressBar
}

func (p progressPublisher) CreateItem(ctx context.Context, f types.LocalFile) (string, error) {
	defer p.bar.Increment()
	return p.Publisher.CreateItem(ctx, f)
}

func init() {
	uploadCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(uploadCmd)
}
