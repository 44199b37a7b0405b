// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/prompt"
	"github.com/pdiddy/zotero-sync/internal/relocate"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Point Zotero attachments at a moved zotfile directory",
	Long: `Rename rewrites the path of every linked attachment stored under
--previous_zotfile_path so that it points at the same relative location under
the current zotfile directory. The files themselves are not touched; move
the directory first, then run rename.`,
	RunE: runRename,
}

func runRename(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(dotfile.FileDir, dotfile.APIKey, dotfile.UserID)
	if err != nil {
		return err
	}

	previous, _ := cmd.Flags().GetString("previous_zotfile_path")
	if strings.TrimSpace(previous) == "" {
		p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
		if previous, err = p.Ask("Previous zotfile path", ""); err != nil {
			return err
		}
	}

	current, err := filepath.Abs(s.FileDir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	result, err := relocate.Relocate(cmd.Context(), newCatalog(s.Catalog), expandHome(previous), current, w)
	if err != nil {
		return err
	}
	if result.Updated > 0 {
		color.New(color.FgGreen).Fprintf(w, "Successfully renamed %d attachments!\n", result.Updated)
	}
	return nil
}

func init() {
	renameCmd.Flags().String("previous_zotfile_path", "", "zotfile directory the attachments currently point at (prompted when empty)")

	rootCmd.AddCommand(renameCmd)
}
