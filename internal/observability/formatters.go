// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/engine"
	"github.com/jonathan/apply-agent/internal/history"
	"github.com/jonathan/apply-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
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

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func shorten(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// PrintJobs outputs the queue of jobs about to be applied to.
func (p *Printer) PrintJobs(jobs []*types.ApplicationJob) {
	if len(jobs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs queued: %d\n\n", len(jobs)))

	count := min(len(jobs), maxItemsToShow)
	for i := 0; i < count; i++ {
		job := jobs[i]
		sb.WriteString(fmt.Sprintf("#%d  %s", i+1, job.Title))
		if job.Company != "" {
			sb.WriteString(fmt.Sprintf(" @ %s", job.Company))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("    %s\n", job.Link))
	}
	if len(jobs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more jobs\n", len(jobs)-maxItemsToShow))
	}

	p.printBox("APPLICATION QUEUE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgress outputs one line per form state change.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(e engine.ProgressEvent) {
	line := fmt.Sprintf("  [%s] step %d", e.State, e.Step)
	if e.Message != "" {
		line += ": " + e.Message
	}
	fmt.Fprintln(p.out, line)
}

// PrintAttempt outputs the recorded outcome of one application.
func (p *Printer) PrintAttempt(a *history.Attempt) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:     %s\n", a.Title))
	if a.Company != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", a.Company))
	}
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", strings.ToUpper(string(a.Outcome))))
	if a.Score != nil {
		sb.WriteString(fmt.Sprintf("Score:    %d\n", *a.Score))
	}
	sb.WriteString(fmt.Sprintf("Steps:    %d\n", a.Steps))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", a.Duration().Round(time.Second)))
	if a.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", a.Reason))
	}
	if a.ResumePath != "" {
		sb.WriteString(fmt.Sprintf("Resume:   %s\n", a.ResumePath))
	}
	if a.CoverLetterPath != "" {
		sb.WriteString(fmt.Sprintf("Letter:   %s\n", a.CoverLetterPath))
	}

	p.printBox("APPLICATION ATTEMPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the totals of a run.
func (p *Printer) PrintSummary(applied, skipped, failed int) {
	content := fmt.Sprintf("Applied:  %d\nSkipped:  %d\nFailed:   %d\nTotal:    %d",
		applied, skipped, failed, applied+skipped+failed)
	p.printBox("RUN SUMMARY", content)
}
