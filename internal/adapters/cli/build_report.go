package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Colors interface {
	Green(text string) string
	Yellow(text string) string
	Red(text string) string
	Gray(text string) string
}

// Problem is one bundler or plugin message attributed to an entry. Entry
// is empty when the message could not be traced back to one.
type Problem struct {
	Entry   string
	Message string
	Details []string
}

type pageLine struct {
	path string
	size int
}

// BuildReport summarises one build: the pages written and the problems
// grouped by entry.
type BuildReport struct {
	colors   Colors
	out      io.Writer
	errOut   io.Writer
	started  time.Time
	outdir   string
	entries  int
	pages    []pageLine
	errors   []Problem
	warnings []Problem
}

func NewBuildReport(colors Colors, outdir string) *BuildReport {
	return &BuildReport{
		colors:  colors,
		out:     os.Stdout,
		errOut:  os.Stderr,
		started: time.Now(),
		outdir:  outdir,
	}
}

// SetOutput redirects the rendered report.
func (r *BuildReport) SetOutput(out, errOut io.Writer) {
	r.out = out
	r.errOut = errOut
}

func (r *BuildReport) SetEntryCount(count int) {
	r.entries = count
}

func (r *BuildReport) AddPage(path string, size int) {
	r.pages = append(r.pages, pageLine{path: path, size: size})
}

func (r *BuildReport) AddError(entry, message string, details []string) {
	r.errors = append(r.errors, Problem{Entry: entry, Message: message, Details: details})
}

func (r *BuildReport) AddWarning(entry, message string, details []string) {
	r.warnings = append(r.warnings, Problem{Entry: entry, Message: message, Details: details})
}

func (r *BuildReport) HasFailures() bool {
	return len(r.errors) > 0
}

func (r *BuildReport) Render() {
	elapsed := formatDuration(time.Since(r.started))

	if r.HasFailures() {
		fmt.Fprintf(r.errOut, "  %s %d entries, %d errors\n", r.colors.Red("✗"), r.entries, len(r.errors))
		r.renderProblems(r.errOut, r.errors, r.colors.Red("✗"))
	} else {
		fmt.Fprintf(r.out, "  %s %d entries, %d pages\n", r.colors.Green("✓"), r.entries, len(r.pages))
		r.renderPages()
	}

	if len(r.warnings) > 0 {
		fmt.Fprintf(r.out, "\n  %s Warnings (%d):\n", r.colors.Yellow("⚠"), len(r.warnings))
		r.renderProblems(r.out, r.warnings, r.colors.Yellow("⚠"))
	}

	if r.HasFailures() {
		fmt.Fprintf(r.errOut, "\n  %s\n", r.colors.Red("Build failed after "+elapsed))
		return
	}
	fmt.Fprintf(r.out, "\n  %s Build complete in %s\n", r.colors.Green("✓"), elapsed)
	if r.outdir != "" {
		fmt.Fprintf(r.out, "  %s\n", r.colors.Gray("Output: "+r.outdir))
	}
}

func (r *BuildReport) renderPages() {
	width := 0
	for _, p := range r.pages {
		width = max(width, len(p.path))
	}
	for _, p := range r.pages {
		pad := strings.Repeat(" ", width-len(p.path))
		fmt.Fprintf(r.out, "    %s%s  %s\n", p.path, pad, r.colors.Gray(formatSize(p.size)))
	}
}

// renderProblems prints problems grouped by entry in order of first
// appearance. Problems without an entry come last.
func (r *BuildReport) renderProblems(w io.Writer, problems []Problem, mark string) {
	var order []string
	byEntry := make(map[string][]Problem)
	for _, p := range problems {
		if _, seen := byEntry[p.Entry]; !seen && p.Entry != "" {
			order = append(order, p.Entry)
		}
		byEntry[p.Entry] = append(byEntry[p.Entry], p)
	}
	if _, ok := byEntry[""]; ok {
		order = append(order, "")
	}

	for _, entry := range order {
		name := entry
		if name == "" {
			name = "(build)"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, name)
		for _, p := range byEntry[entry] {
			fmt.Fprintf(w, "    %s\n", p.Message)
			for _, detail := range collapseRepeats(p.Details) {
				fmt.Fprintf(w, "      • %s\n", detail)
			}
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%db", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fkb", float64(n)/1024)
	}
	return fmt.Sprintf("%.1fmb", float64(n)/(1024*1024))
}

// collapseRepeats keeps the first occurrence of each item and notes how
// often it appeared.
func collapseRepeats(items []string) []string {
	counts := make(map[string]int, len(items))
	var order []string
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}
	for i, item := range order {
		if n := counts[item]; n > 1 {
			order[i] = fmt.Sprintf("%s (%d occurrences)", item, n)
		}
	}
	return order
}
