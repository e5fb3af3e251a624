// Package cli contains thin adapters that translate CLI operations into service
// calls and render their results.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/example/slic/internal/core/stack"
	"github.com/example/slic/internal/ports/primary"
	"github.com/example/slic/internal/ports/secondary"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// printSteps renders step outcomes, one per line.
func printSteps(out io.Writer, steps []primary.StepReport) {
	for _, s := range steps {
		var icon string
		switch s.Outcome {
		case secondary.OutcomeDone:
			icon = green("✓")
		case secondary.OutcomeFailed:
			icon = red("✗")
		case secondary.OutcomeSkipped:
			icon = faint("-")
		default:
			icon = faint("·")
		}
		line := fmt.Sprintf("  %s %s", icon, s.Name)
		if s.Outcome == secondary.OutcomePending {
			line += faint(" (not run)")
		}
		if s.Detail != "" {
			line += faint(": " + s.Detail)
		}
		fmt.Fprintln(out, line)
	}
}

func statusText(s stack.Status) string {
	switch s {
	case stack.StatusRunning:
		return green(string(s))
	case stack.StatusStopped:
		return yellow(string(s))
	default:
		return string(s)
	}
}

func portsText(ports map[string]int) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ports))
	for _, p := range sortedPorts(ports) {
		parts = append(parts, fmt.Sprintf("%s:%d", p.service, p.port))
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type servicePort struct {
	service string
	port    int
}

func sortedPorts(ports map[string]int) []servicePort {
	out := make([]servicePort, 0, len(ports))
	for svc, port := range ports {
		out = append(out, servicePort{service: svc, port: port})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].service < out[j].service })
	return out
}
