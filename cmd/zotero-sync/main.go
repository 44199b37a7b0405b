// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the zotero-sync CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/reconcile"
	"github.com/pdiddy/zotero-sync/internal/relocate"
	"github.com/pdiddy/zotero-sync/internal/zotero"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// catalogClient is the part of *zotero.Client the commands use.
type catalogClient interface {
	relocate.Catalog
	reconcile.Publisher
}

// newCatalog builds the catalog client. Tests replace it.
var newCatalog = func(cfg types.CatalogConfig) catalogClient {
	return zotero.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)
}

// rootCmd is the base command for the zotero-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "zotero-sync",
	Short: "Keep a zotfile PDF directory in step with a Zotero library",
	Long: `zotero-sync compares a local directory of PDFs (the zotfile directory)
with the attachments of a Zotero library. PDFs the library does not know about
can be moved to <file_dir>/trash or uploaded as new linked-file items.

It also runs every PDF in the directory through ghostscript (optimize) or
ocrmypdf (ocr), replacing each file only when the tool succeeds.

Settings are read from flags, then the ZOTFILE_DIR, API_KEY and USER_ID
environment variables, then a .zoterosync file found in the current directory,
one of its parents, or your home directory. Run "zotero-sync config" to
write one.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "settings file (default: nearest .zoterosync, then ~/.zoterosync)")
	pf.Bool("debug", false, "log diagnostics to stderr")
	pf.String(dotfile.FileDir.Flag, "", "zotfile directory holding the PDFs (env ZOTFILE_DIR)")
	pf.String(dotfile.APIKey.Flag, "", "Zotero API key (env API_KEY)")
	pf.String(dotfile.UserID.Flag, "", "Zotero user ID (env USER_ID)")

	for _, s := range dotfile.Settings {
		_ = viper.BindPFlag(s.Key(), pf.Lookup(s.Flag))
	}
}

func initConfig() {
	if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	viper.AutomaticEnv()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile == "" {
		cwd, _ := os.Getwd()
		home, _ := os.UserHomeDir()
		cfgFile = dotfile.Find(cwd, home)
	}
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not read %s: %v\n", cfgFile, err)
		return
	}
	slog.Debug("using config file", "path", viper.ConfigFileUsed())
}

// settingsFrom resolves the shared settings from v and fails with
// dotfile.ErrConfigMissing for the first required setting without a value.
func settingsFrom(v *viper.Viper, required ...dotfile.Setting) (types.Settings, error) {
	s := types.Settings{
		FileDir: expandHome(strings.TrimSpace(v.GetString(dotfile.FileDir.Key()))),
		Catalog: types.CatalogConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "zotero-sync/" + version,
			},
			APIKey: strings.TrimSpace(v.GetString(dotfile.APIKey.Key())),
			UserID: strings.TrimSpace(v.GetString(dotfile.UserID.Key())),
		},
	}

	values := map[dotfile.Setting]string{
		dotfile.FileDir: s.FileDir,
		dotfile.APIKey:  s.Catalog.APIKey,
		dotfile.UserID:  s.Catalog.UserID,
	}
	for _, r := range required {
		if err := dotfile.Require(r, values[r]); err != nil {
			return s, err
		}
	}
	return s, nil
}

// loadSettings resolves settings from the global viper instance.
func loadSettings(required ...dotfile.Setting) (types.Settings, error) {
	return settingsFrom(viper.GetViper(), required...)
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
