package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/example/slic/internal/ports/secondary"
)

// Prompter asks yes/no questions on a terminal. Without a terminal every
// question is answered no, so scripts must pass -y explicitly.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive func() bool
}

// NewTerminalPrompter returns a Prompter on stdin/stdout.
func NewTerminalPrompter() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout, func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	})
}

// NewPrompter returns a Prompter reading answers from in.
func NewPrompter(in io.Reader, out io.Writer, interactive func() bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// Confirm prints question and reads a y/yes answer.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if !p.interactive() {
		fmt.Fprintf(p.out, "%s [y/N]: no (not a terminal; re-run with -y to confirm)\n", question)
		return false, nil
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	response, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

var _ secondary.Prompter = (*Prompter)(nil)
