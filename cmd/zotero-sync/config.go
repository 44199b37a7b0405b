// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/prompt"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write ~/.zoterosync with the zotfile directory and API credentials",
	Long: `Config asks for the zotfile directory, the Zotero API key and the
Zotero user ID, offering the current values as defaults, and writes them to
~/.zoterosync. The file is readable only by you. An existing file is replaced
only after confirmation.

Create an API key at https://www.zotero.org/settings/keys; the user ID is
shown on the same page.`,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	current, _ := loadSettings()
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("locating home directory: %w", err)
	}
	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	return configure(p, filepath.Join(home, dotfile.Name), current, cmd.OutOrStdout())
}

// configure runs the settings wizard and writes the answers to path.
func configure(p *prompt.Prompter, path string, current types.Settings, w io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		ok, err := p.Confirm(fmt.Sprintf("%s already exists. Overwrite it?", path), false)
		if err != nil {
			return err
		}
		if !ok {
			p.Say("Aborted.")
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	dir, err := p.Ask("Zotfile directory", current.FileDir)
	if err != nil {
		return err
	}
	if dir != "" {
		if dir, err = filepath.Abs(expandHome(dir)); err != nil {
			return err
		}
	}
	apiKey, err := p.Ask("Zotero API key", current.Catalog.APIKey)
	if err != nil {
		return err
	}
	userID, err := p.Ask("Zotero user ID", current.Catalog.UserID)
	if err != nil {
		return err
	}

	values := map[string]string{
		dotfile.FileDir.Env: dir,
		dotfile.APIKey.Env:  apiKey,
		dotfile.UserID.Env:  userID,
	}
	for _, s := range dotfile.Settings {
		if err := dotfile.Require(s, values[s.Env]); err != nil {
			return err
		}
	}
	if err := dotfile.Write(path, values); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(w, "Saved settings to %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
