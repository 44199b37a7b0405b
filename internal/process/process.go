// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process runs an external PDF tool over every PDF in a directory
// tree and replaces each original with the tool's output. A file whose tool
// run fails is left untouched and the batch moves on.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/zotero-sync/internal/command"
	"github.com/pdiddy/zotero-sync/internal/scan"
)

// ScratchPrefix starts the name of every scratch file the processor creates.
// Files carrying it are never processed themselves.
const ScratchPrefix = ".zotero-sync-"

// Tool transforms input into output. *command.Runner implements it.
type Tool interface {
	Template() command.Template
	Run(ctx context.Context, dir, input, output string) error
}

// History remembers files a pipeline already processed. *ledger.Ledger
// implements it.
type History interface {
	Unchanged(ctx context.Context, pipeline, path string, info os.FileInfo) (bool, error)
	Record(ctx context.Context, pipeline, path string, info os.FileInfo) error
}

// Report holds the outcome of a batch run. Attempted is always
// Succeeded + Failed.
type Report struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int

	// BytesBefore and BytesAfter sum the sizes of successfully processed
	// files before and after the tool ran.
	BytesBefore int64
	BytesAfter  int64
}

// HasFailures reports whether any file failed processing.
func (r Report) HasFailures() bool {
	return r.Failed > 0
}

// Options tune a Processor. The zero value processes files one at a time
// with no timeout and no history.
type Options struct {
	// Jobs is the number of files processed concurrently.
	Jobs int
	// Timeout bounds each tool invocation. Zero means no limit.
	Timeout time.Duration
	// History, when set, skips files unchanged since their last successful
	// run and records new successes.
	History History
}

// Processor applies one tool to every PDF under a root.
type Processor struct {
	tool Tool
	opts Options
}

// New returns a processor for tool.
func New(tool Tool, opts Options) *Processor {
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}
	return &Processor{tool: tool, opts: opts}
}

// batch is the mutable state of one ProcessAll call.
type batch struct {
	root   string
	mu     sync.Mutex
	report Report
	w      io.Writer
}

func (b *batch) logf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.w, format, args...)
}

func (b *batch) rel(path string) string {
	if r, err := filepath.Rel(b.root, path); err == nil {
		return r
	}
	return path
}

func (b *batch) update(fn func(r *Report)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.report)
}

// ProcessAll runs the tool over every PDF under root, printing per-file
// status to w and returning a summary. Per-file tool failures are counted
// and skipped. The returned error is non-nil only when the batch cannot
// continue: the root is missing, the tool binary disappeared, or ctx was
// cancelled.
func (p *Processor) ProcessAll(ctx context.Context, root string, w io.Writer) (Report, error) {
	files, err := scan.PDFs(root)
	if err != nil {
		return Report{}, err
	}
	abs, _ := scan.Root(root)

	b := &batch{root: abs, w: w}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Jobs)

	for _, path := range files {
		if strings.HasPrefix(filepath.Base(path), ScratchPrefix) {
			b.update(func(r *Report) { r.Skipped++ })
			b.logf("skipped: %s (scratch file)\n", b.rel(path))
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return p.processFile(gctx, b, path)
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	r := b.report
	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d failed, %d skipped (attempted: %d)\n",
		r.Succeeded, r.Failed, r.Skipped, r.Attempted)
	if r.Succeeded > 0 {
		fmt.Fprintf(w, "Size: %s -> %s\n", humanize.Bytes(uint64(r.BytesBefore)), humanize.Bytes(uint64(r.BytesAfter)))
	}
	return r, err
}

// processFile handles one PDF. It returns an error only for conditions that
// must abort the batch.
func (p *Processor) processFile(ctx context.Context, b *batch, path string) error {
	pipeline := p.tool.Template().Name
	name := b.rel(path)

	// A symlinked PDF is rewritten at its target so the link survives.
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		b.update(func(r *Report) { r.Attempted++; r.Failed++ })
		b.logf("failed:  %s (%v)\n", name, err)
		return nil
	}
	info, err := os.Stat(target)
	if err != nil {
		b.update(func(r *Report) { r.Attempted++; r.Failed++ })
		b.logf("failed:  %s (%v)\n", name, err)
		return nil
	}

	if p.opts.History != nil {
		ok, err := p.opts.History.Unchanged(ctx, pipeline, path, info)
		if err != nil {
			slog.Warn("ledger lookup failed", "path", path, "error", err)
		}
		if ok {
			b.update(func(r *Report) { r.Skipped++ })
			b.logf("skipped: %s (unchanged since last %s)\n", name, pipeline)
			return nil
		}
	}

	b.update(func(r *Report) { r.Attempted++ })

	after, err := p.transform(ctx, target, info)
	if err != nil {
		b.update(func(r *Report) { r.Failed++ })
		if errors.Is(err, command.ErrToolNotFound) {
			return err
		}
		b.logf("failed:  %s (%v)\n", name, err)
		return nil
	}

	b.update(func(r *Report) {
		r.Succeeded++
		r.BytesBefore += info.Size()
		r.BytesAfter += after.Size()
	})
	b.logf("done:    %s (%s -> %s)\n", name, humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(after.Size())))

	if p.opts.History != nil {
		if err := p.opts.History.Record(ctx, pipeline, path, after); err != nil {
			slog.Warn("ledger record failed", "path", path, "error", err)
		}
	}
	return nil
}

// transform copies path to a scratch input next to it, runs the tool, and
// renames the scratch output over path. On any failure the original is left
// as it was and both scratch files are removed. It returns the stat of the
// output that replaced the original.
func (p *Processor) transform(ctx context.Context, path string, info os.FileInfo) (os.FileInfo, error) {
	dir := filepath.Dir(path)
	token := uuid.NewString()
	in := filepath.Join(dir, ScratchPrefix+token+".in"+scan.Ext)
	out := filepath.Join(dir, ScratchPrefix+token+".out"+scan.Ext)
	defer os.Remove(in)

	if err := copyFile(path, in); err != nil {
		return nil, fmt.Errorf("creating scratch copy: %w", err)
	}

	runCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	slog.Debug("running tool", "tool", p.tool.Template().Bin, "input", in, "output", out)
	if err := p.tool.Run(runCtx, dir, in, out); err != nil {
		os.Remove(out)
		return nil, err
	}

	outInfo, err := os.Stat(out)
	if err != nil || outInfo.Size() == 0 {
		os.Remove(out)
		return nil, fmt.Errorf("%s produced no output", p.tool.Template().Bin)
	}

	if err := os.Chmod(out, info.Mode().Perm()); err != nil {
		os.Remove(out)
		return nil, fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(out, path); err != nil {
		os.Remove(out)
		return nil, fmt.Errorf("replacing original: %w", err)
	}
	return outInfo, nil
}

// copyFile copies src to dst, creating dst exclusively.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(dst)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(dst)
		return closeErr
	}
	return nil
}
