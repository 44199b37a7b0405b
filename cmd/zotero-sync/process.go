// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-sync/internal/command"
	"github.com/pdiddy/zotero-sync/internal/dotfile"
	"github.com/pdiddy/zotero-sync/internal/ledger"
	"github.com/pdiddy/zotero-sync/internal/process"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

// executor runs the external tools. Tests replace it.
var executor command.Executor = command.OSExecutor{}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compress every PDF in the zotfile directory with ghostscript",
	Long: `Optimize rewrites each PDF under the zotfile directory with ghostscript's
ebook preset. The original is replaced only when gs exits successfully and
writes a non-empty file; otherwise it is left untouched and the batch
continues. gs must be on PATH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, command.Ghostscript)
	},
}

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Add a text layer to every PDF in the zotfile directory with ocrmypdf",
	Long: `OCR runs ocrmypdf over each PDF under the zotfile directory and replaces
the original with the searchable output. Files that fail, including pages that
already carry text, are left untouched and the batch continues. ocrmypdf must
be on PATH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, command.OCRmyPDF)
	},
}

func runProcess(cmd *cobra.Command, tmpl command.Template) error {
	s, err := loadSettings(dotfile.FileDir)
	if err != nil {
		return err
	}
	s.Process.Jobs, _ = cmd.Flags().GetInt("jobs")
	s.Process.Timeout, _ = cmd.Flags().GetDuration("timeout")
	s.Process.LedgerPath, _ = cmd.Flags().GetString("ledger")

	return processDir(cmd.Context(), tmpl, executor, s, cmd.OutOrStdout())
}

// processDir runs tmpl over every PDF under s.FileDir. The tool binary is
// looked up before any file is touched.
func processDir(ctx context.Context, tmpl command.Template, ex command.Executor, s types.Settings, w io.Writer) error {
	runner, err := command.NewRunner(tmpl, ex)
	if err != nil {
		return err
	}

	opts := process.Options{Jobs: s.Process.Jobs, Timeout: s.Process.Timeout}
	if s.Process.LedgerPath != "" {
		l, err := ledger.Open(s.Process.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		opts.History = l
	}

	report, err := process.New(runner, opts).ProcessAll(ctx, s.FileDir, w)
	if err != nil {
		return err
	}
	if report.HasFailures() {
		color.New(color.FgYellow).Fprintf(w, "%d file(s) were left unchanged after failures.\n", report.Failed)
	}
	color.New(color.FgGreen).Fprintf(w, "Finished processing %d files!\n", report.Succeeded)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{optimizeCmd, ocrCmd} {
		c.Flags().IntP("jobs", "j", 1, "number of files processed at the same time")
		c.Flags().Duration("timeout", 10*time.Minute, "limit for a single tool run (0 for none)")
		c.Flags().String("ledger", "", "SQLite file recording processed files; unchanged files are skipped on later runs")
		rootCmd.AddCommand(c)
	}
}
