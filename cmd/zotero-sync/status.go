// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zotero-sync/internal/command"
	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/ledger"
	"github.com/pdiddy/zotero-sync/internal/reconcile"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List PDFs that are missing from the Zotero library",
	Long: `Status reconciles the zotfile directory against the Zotero library
without changing anything and prints the PDFs that trash or upload would act
on. Use --format yaml or --format json for machine-readable output.

With --ledger, the number of files recorded by earlier optimize and ocr runs
is shown as well.`,
	RunE: runStatus,
}

// statusReport is the exported form of a status run.
type statusReport struct {
	Root      string            `json:"root" yaml:"root"`
	Count     int               `json:"count" yaml:"count"`
	Files     []types.LocalFile `json:"files" yaml:"files"`
	Processed map[string]int    `json:"processed,omitempty" yaml:"processed,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(dotfile.FileDir, dotfile.APIKey, dotfile.UserID)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	ledgerPath, _ := cmd.Flags().GetString("ledger")

	report, err := buildStatus(cmd.Context(), newCatalog(s.Catalog), s.FileDir, ledgerPath)
	if err != nil {
		return err
	}
	return writeStatus(cmd.OutOrStdout(), format, report)
}

func buildStatus(ctx context.Context, catalog reconcile.Catalog, dir, ledgerPath string) (statusReport, error) {
	root, unique, err := findUnique(ctx, catalog, dir)
	if err != nil {
		return statusReport{}, err
	}
	report := statusReport{Root: root, Count: len(unique), Files: unique}
	if report.Files == nil {
		report.Files = []types.LocalFile{}
	}

	if ledgerPath != "" {
		l, err := ledger.Open(ledgerPath)
		if err != nil {
			return statusReport{}, err
		}
		defer l.Close()

		report.Processed = map[string]int{}
		for _, t := range []command.Template{command.Ghostscript, command.OCRmyPDF} {
			entries, err := l.Entries(ctx, t.Name)
			if err != nil {
				return statusReport{}, err
			}
			report.Processed[t.Name] = len(entries)
		}
	}
	return report, nil
}

func writeStatus(w io.Writer, format string, r statusReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "table", "":
		return writeStatusTable(w, r)
	default:
		return fmt.Errorf("unknown format %q: use table, yaml, or json", format)
	}
}

func writeStatusTable(w io.Writer, r statusReport) error {
	if r.Count == 0 {
		fmt.Fprintf(w, "Every PDF under %s is in the Zotero library.\n", r.Root)
	} else {
		fmt.Fprintf(w, "%-60s  %s\n", "File", "Size")
		for _, f := range r.Files {
			rel, err := filepath.Rel(r.Root, f.Path)
			if err != nil {
				rel = f.Path
			}
			fmt.Fprintf(w, "%-60s  %s\n", shortenLeft(rel, 60), fileSize(f.Path))
		}
		fmt.Fprintf(w, "\n%d file(s) under %s are not in the Zotero library\n", r.Count, r.Root)
	}

	for _, name := range []string{command.Ghostscript.Name, command.OCRmyPDF.Name} {
		if n, ok := r.Processed[name]; ok {
			fmt.Fprintf(w, "Recorded %s runs: %d\n", name, n)
		}
	}
	return nil
}

// shortenLeft keeps the last width runes of s, marking the cut with "...".
func shortenLeft(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return "..." + string(r[len(r)-(width-3):])
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func init() {
	statusCmd.Flags().StringP("format", "f", "table", "output format: table, yaml, or json")
	statusCmd.Flags().String("ledger", "", "SQLite file written by optimize/ocr --ledger")

	rootCmd.AddCommand(statusCmd)
}
