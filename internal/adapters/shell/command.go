// Package shell runs external tools through typed commands. Arguments are never
// joined into a shell string.
package shell

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/example/slic/internal/ports/secondary"
)

// Builder assembles a secondary.Command.
type Builder struct {
	cmd secondary.Command
}

// Command starts a builder for name with the given arguments.
func Command(name string, args ...string) *Builder {
	return &Builder{cmd: secondary.Command{Name: name, Args: append([]string(nil), args...)}}
}

// FromLine parses a configured command line such as "docker compose" into a builder.
// Quoting follows POSIX shell rules; no expansion is performed.
func FromLine(line string) (*Builder, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false

	words, err := parser.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("parse command %q: empty command", line)
	}
	return Command(words[0], words[1:]...), nil
}

// Arg appends arguments.
func (b *Builder) Arg(args ...string) *Builder {
	b.cmd.Args = append(b.cmd.Args, args...)
	return b
}

// In sets the working directory.
func (b *Builder) In(dir string) *Builder {
	b.cmd.Dir = dir
	return b
}

// Env appends KEY=value entries to the inherited environment.
func (b *Builder) Env(kv ...string) *Builder {
	b.cmd.Env = append(b.cmd.Env, kv...)
	return b
}

// Build returns a copy of the assembled command.
func (b *Builder) Build() secondary.Command {
	cmd := b.cmd
	cmd.Args = append([]string(nil), b.cmd.Args...)
	cmd.Env = append([]string(nil), b.cmd.Env...)
	return cmd
}

// String renders the command for logs and error messages.
func String(cmd secondary.Command) string {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, cmd.Name)
	for _, a := range cmd.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Output returns the captured stderr followed by stdout, trimmed.
func Output(r secondary.Result) string {
	return strings.TrimSpace(strings.TrimSpace(r.Stderr) + "\n" + strings.TrimSpace(r.Stdout))
}
