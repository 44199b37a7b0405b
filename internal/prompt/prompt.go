// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt reads answers to interactive questions from a line-based
// input stream.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks questions on out and reads answers from in. One Prompter
// should be used per input stream so buffered lines are not lost between
// questions.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New returns a Prompter reading from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask prints question with def as the default and returns the trimmed
// answer, or def when the answer is empty or the input is closed.
func (p *Prompter) Ask(question, def string) (string, error) {
	if def != "" {
		question = fmt.Sprintf("%s [default: %s]", question, def)
	}
	answer, err := p.ask(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question and returns def for an empty answer or
// closed input. It repeats the question until the answer is recognizable.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		answer, err := p.ask(question + " " + hint)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Say prints msg on its own line.
func (p *Prompter) Say(msg string) {
	fmt.Fprintln(p.out, msg)
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}
