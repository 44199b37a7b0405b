// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package command builds and runs the external PDF tools (ghostscript,
// ocrmypdf). Commands are argument vectors with {input} and {output}
// placeholders; nothing is ever passed through a shell.
package command

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

const (
	// PlaceholderInput is replaced by the absolute path of the file to read.
	PlaceholderInput = "{input}"
	// PlaceholderOutput is replaced by the absolute path the tool must write.
	PlaceholderOutput = "{output}"
)

var (
	// ErrToolNotFound means the tool binary is not on PATH. It is fatal for
	// a batch: every file would fail the same way.
	ErrToolNotFound = errors.New("external tool not found")

	// ErrToolFailed means the tool ran and exited non-zero. The batch
	// processor recovers by skipping the file.
	ErrToolFailed = errors.New("external tool failed")
)

// Template is an external tool invocation with placeholders.
type Template struct {
	// Name identifies the pipeline ("optimize", "ocr"). The ledger keys
	// processed files by it.
	Name string
	// Bin is the executable, resolved through PATH.
	Bin string
	// Args may contain the placeholders anywhere inside an argument,
	// e.g. "-sOutputFile={output}".
	Args []string
}

// Ghostscript rewrites a PDF with the /ebook settings, which usually
// shrinks scanned documents considerably.
var Ghostscript = Template{
	Name: "optimize",
	Bin:  "gs",
	Args: []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/ebook",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=" + PlaceholderOutput,
		PlaceholderInput,
	},
}

// OCRmyPDF adds a text layer to scanned PDFs.
var OCRmyPDF = Template{
	Name: "ocr",
	Bin:  "ocrmypdf",
	Args: []string{
		"--tesseract-timeout", "10",
		PlaceholderInput,
		PlaceholderOutput,
	},
}

// Validate checks that the template names a binary and references both
// placeholders.
func (t Template) Validate() error {
	if t.Bin == "" {
		return fmt.Errorf("template %q has no executable", t.Name)
	}
	var in, out bool
	for _, a := range t.Args {
		in = in || strings.Contains(a, PlaceholderInput)
		out = out || strings.Contains(a, PlaceholderOutput)
	}
	if !in || !out {
		return fmt.Errorf("template %q must reference both %s and %s", t.Name, PlaceholderInput, PlaceholderOutput)
	}
	return nil
}

// Expand returns the argument vector with placeholders substituted.
// Arguments are substituted individually, so paths containing spaces stay
// a single argument.
func (t Template) Expand(input, output string) []string {
	r := strings.NewReplacer(PlaceholderInput, input, PlaceholderOutput, output)
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = r.Replace(a)
	}
	return args
}

// String renders the template for display.
func (t Template) String() string {
	return strings.Join(append([]string{t.Bin}, t.Args...), " ")
}

// Executor abstracts process execution for testing.
type Executor interface {
	LookPath(file string) (string, error)
	// Run executes name with args in dir and returns its combined output.
	Run(ctx context.Context, dir, name string, args []string) ([]byte, error)
}

// OSExecutor is the production executor backed by os/exec.
type OSExecutor struct{}

func (OSExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OSExecutor) Run(ctx context.Context, dir, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Runner runs one template through an executor.
type Runner struct {
	tmpl Template
	exec Executor
	path string
}

// NewRunner validates the template and resolves its binary. A missing
// binary yields ErrToolNotFound before any file is touched.
func NewRunner(t Template, ex Executor) (*Runner, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	path, err := ex.LookPath(t.Bin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (%v)", t.Bin, ErrToolNotFound, err)
	}
	return &Runner{tmpl: t, exec: ex, path: path}, nil
}

// Template returns the template the runner executes.
func (r *Runner) Template() Template { return r.tmpl }

// Run invokes the tool on input, asking it to write output. dir is the
// working directory of the child process only.
func (r *Runner) Run(ctx context.Context, dir, input, output string) error {
	out, err := r.exec.Run(ctx, dir, r.path, r.tmpl.Expand(input, output))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", r.tmpl.Bin, ctx.Err())
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w (%v)", r.tmpl.Bin, ErrToolNotFound, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with status %d: %w%s", r.tmpl.Bin, exitErr.ExitCode(), ErrToolFailed, tail(out))
	}
	return fmt.Errorf("%s: %w: %v%s", r.tmpl.Bin, ErrToolFailed, err, tail(out))
}

// tail returns the last line of tool output, formatted for an error suffix.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if r := []rune(s); len(r) > 200 {
		s = string(r[len(r)-200:])
	}
	return " (" + s + ")"
}
