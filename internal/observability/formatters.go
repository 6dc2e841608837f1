// Package observability provides formatted terminal output for the tracker CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/application-tracker/internal/funnel"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// barWidth is the widest funnel bar
	barWidth = 20
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// PrintFunnel outputs the funnel edges as labelled bars scaled to the largest count.
func (p *Printer) PrintFunnel(edges []funnel.Edge, applications int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applications: %d\n\n", applications))

	maxCount := 0
	for _, e := range edges {
		maxCount = max(maxCount, e.Count)
	}

	for _, e := range edges {
		bar := 0
		if maxCount > 0 {
			bar = e.Count * barWidth / maxCount
		}
		label := fmt.Sprintf("%s → %s", e.From, e.To)
		sb.WriteString(fmt.Sprintf("%-24s %4d %s\n", label, e.Count, strings.Repeat("█", bar)))
	}

	p.printBox("APPLICATION FUNNEL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTransitions outputs the statuses recorded so far and what may follow.
func (p *Printer) PrintTransitions(current, available []workflow.Status) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Current:  %s\n", joinStatuses(current, "(none)")))
	if len(available) == 0 {
		sb.WriteString("Next:     (closed)")
	} else {
		sb.WriteString(fmt.Sprintf("Next:     %s", joinStatuses(available, "")))
	}

	p.printBox("AVAILABLE TRANSITIONS", sb.String())
}

// PrintApplications outputs one line per application summary.
func (p *Printer) PrintApplications(apps []types.ApplicationSummary) {
	if len(apps) == 0 {
		p.printBox("APPLICATIONS", "No applications recorded")
		return
	}

	var sb strings.Builder
	for _, app := range apps {
		status := string(app.CurrentStatus)
		if status == "" {
			status = "-"
		}
		if app.Closed {
			status += " (closed)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-18s %s\n",
			truncate(app.Company, 20), status, app.Position))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d", len(apps)))

	p.printBox("APPLICATIONS", sb.String())
}

func joinStatuses(statuses []workflow.Status, empty string) string {
	if len(statuses) == 0 {
		return empty
	}
	parts := make([]string, len(statuses))
	for i, st := range statuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}
