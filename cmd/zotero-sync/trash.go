// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/prompt"
	"github.com/pdiddy/zotero-sync/internal/reconcile"
	"github.com/pdiddy/zotero-sync/internal/scan"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Move PDFs missing from the Zotero library into <file_dir>/trash",
	Long: `Trash lists every attachment in the Zotero library and every PDF under
the zotfile directory. PDFs whose absolute path is not the path of any
attachment are moved into <file_dir>/trash, keeping their file name.

Files already under a trash directory are ignored. A file whose name is
already taken in trash is left where it is and reported as a failure.`,
	RunE: runTrash,
}

func runTrash(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(dotfile.FileDir, dotfile.APIKey, dotfile.UserID)
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")
	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	return trash(cmd.Context(), newCatalog(s.Catalog), s.FileDir, p, yes, cmd.OutOrStdout())
}

// trash quarantines the local-only files under dir after confirmation.
func trash(ctx context.Context, catalog reconcile.Catalog, dir string, p *prompt.Prompter, yes bool, w io.Writer) error {
	root, unique, err := findUnique(ctx, catalog, dir)
	if err != nil {
		return err
	}
	if len(unique) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No files to trash: every PDF is in the Zotero library.")
		return nil
	}

	listFiles(w, root, unique)
	question := fmt.Sprintf("Move %d file(s) to %s?", len(unique), filepath.Join(root, reconcile.QuarantineDir))
	if ok, err := confirm(p, yes, question); err != nil || !ok {
		return err
	}

	result, err := reconcile.Quarantine(root, unique, w)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d of %d file(s) could not be moved to quarantine", result.Failed, len(unique))
	}
	color.New(color.FgGreen).Fprintf(w, "Successfully trashed %d files!\n", result.Moved)
	return nil
}

// findUnique validates dir and reconciles it against the catalog. It
// returns the absolute root along with the local-only files.
func findUnique(ctx context.Context, catalog reconcile.Catalog, dir string) (string, []types.LocalFile, error) {
	root, err := scan.Root(dir)
	if err != nil {
		return "", nil, err
	}
	unique, err := reconcile.Reconcile(ctx, root, catalog)
	if err != nil {
		return "", nil, err
	}
	return root, unique, nil
}

func listFiles(w io.Writer, root string, files []types.LocalFile) {
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			rel = f.Path
		}
		fmt.Fprintf(w, "  %s\n", rel)
	}
}

// confirm asks question unless yes is set. A declined prompt prints
// "Aborted." and returns false.
func confirm(p *prompt.Prompter, yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := p.Confirm(question, false)
	if err != nil {
		return false, err
	}
	if !ok {
		p.Say("Aborted.")
	}
	return ok, nil
}

func init() {
	trashCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(trashCmd)
}
