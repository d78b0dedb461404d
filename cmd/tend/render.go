// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/initializer"
)

// renderReport prints one line per artifact, highest priority first, then a
// summary. Failures carry their reason and, for incorrect artifacts, every
// unmet expectation.
func renderReport(w io.Writer, rep *initializer.Report, projectDir string, verbose bool) {
	title := "Initialize"
	if rep.Mode == initializer.ModeCheck {
		title = "Check"
	}
	var tags []string
	if rep.DryRun {
		tags = append(tags, "dry run")
	}
	if rep.PriorityOnly {
		tags = append(tags, "bootstrap")
	}
	header := TitleStyle.Render(title) + " " + SubtitleStyle.Render(absOrSelf(projectDir))
	if len(tags) > 0 {
		header += " " + WarningStyle.Render("("+strings.Join(tags, ", ")+")")
	}
	fmt.Fprintln(w, header)
	if verbose {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("components:"), strings.Join(rep.Components, ", "))
	}
	fmt.Fprintln(w)

	results := slices.Clone(rep.Results)
	slices.SortStableFunc(results, func(a, b initializer.Result) int { return cmp.Compare(b.Priority, a.Priority) })

	idWidth := 0
	for _, r := range results {
		idWidth = max(idWidth, len(r.ID))
	}

	for _, r := range results {
		style, icon := outcomeStyle(r.Outcome)
		fmt.Fprintf(w, "  %s %s %-*s  %s\n",
			style.Render(icon),
			style.Render(outcomeLabelStyle.Render(string(r.Outcome))),
			idWidth, r.ID,
			CmdStyle.Render(relPath(projectDir, r.Location)))
		if r.Err != nil {
			fmt.Fprintf(w, "      %s %s\n", ErrorStyle.Render(string(r.Reason)+":"), r.Err)
		}
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "      %s\n", VerboseStyle.Render(m.String()))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryLine(rep))
}

func summaryLine(rep *initializer.Report) string {
	if len(rep.Results) == 0 {
		return SubtitleStyle.Render("No artifacts.")
	}
	parts := make([]string, 0, len(rep.Outcomes()))
	for _, o := range rep.Outcomes() {
		style, _ := outcomeStyle(o)
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", rep.Count(o), o)))
	}
	return strings.Join(parts, SubtitleStyle.Render(", "))
}

// renderDiagnostics prints discovery and planning diagnostics as a list.
func renderDiagnostics(w io.Writer, diags []discovery.Diagnostic) {
	for _, d := range diags {
		label := WarningStyle.Render("warning")
		if d.Severity == discovery.SeverityError {
			label = ErrorStyle.Render("error")
		}
		line := fmt.Sprintf("%s %s %s", label, SubtitleStyle.Render("["+d.Code+"]"), d.Message)
		if d.Path != "" {
			line += " " + CmdStyle.Render(d.Path)
		}
		fmt.Fprintln(w, line)
	}
}

func relPath(base, target string) string {
	abs, err := filepath.Abs(base)
	if err != nil {
		return target
	}
	rel, err := filepath.Rel(abs, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return target
	}
	return filepath.ToSlash(rel)
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
