package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// reportStyles holds the styles used for batch reports.
type reportStyles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// newReportStyles returns coloured styles, or unstyled ones for plain output.
func newReportStyles(styled bool) reportStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return reportStyles{Title: plain, Label: plain, Muted: plain, Success: plain, Warning: plain, Error: plain}
	}
	return reportStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
	}
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderBatchReport writes a human-readable conversion summary.
func renderBatchReport(w io.Writer, r *domain.BatchReport, diagnostics []domain.Diagnostic, styled bool) {
	st := newReportStyles(styled)

	fmt.Fprintln(w, st.Title.Render("Conversion Report"))
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Converted:"), r.Converted)
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Skipped:"), r.Skipped)
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Objects:"), len(r.Objects))
	fmt.Fprintf(w, "  %s %s\n", st.Label.Render("Duration:"), r.Duration.Round(time.Microsecond))

	if len(r.Objects) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Title.Render("Objects"))
		for _, kind := range countKinds(r.Objects) {
			fmt.Fprintf(w, "  %s\n", kind)
		}
	}

	if len(r.Networks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Title.Render("Networks"))
		for _, n := range r.Networks {
			fmt.Fprintf(w, "  %s: %d elements, %d links", n.ApplicationID, len(n.Elements), len(n.Links))
			if d := n.Dangling(); d > 0 {
				fmt.Fprintf(w, " %s", st.Warning.Render(fmt.Sprintf("(%d dangling)", d)))
			}
			fmt.Fprintln(w)
		}
	}

	renderFailures(w, st, r.Failures)
	renderDegraded(w, st, r.Degraded)
	renderDiagnostics(w, st, diagnostics)

	fmt.Fprintln(w)
	if r.HasErrors() {
		fmt.Fprintln(w, st.Error.Render(fmt.Sprintf("%d record(s) failed.", len(r.Failures))))
	} else {
		fmt.Fprintln(w, st.Success.Render("Batch converted."))
	}
}

// renderReceiveReport writes a summary of one placed network.
func renderReceiveReport(w io.Writer, networkID string, r *domain.ReceiveReport, styled bool) {
	st := newReportStyles(styled)

	fmt.Fprintln(w, st.Title.Render("Placed "+networkID))
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Elements:"), len(r.Created))
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Fittings:"), r.Fittings)
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Passes:"), r.Passes)
	fmt.Fprintf(w, "  %s %d\n", st.Label.Render("Retries:"), r.Retries)

	renderFailures(w, st, r.Failures)
	renderDegraded(w, st, r.Degraded)
}

func renderFailures(w io.Writer, st reportStyles, failures []domain.RecordFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Error.Render("Failures"))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s: %s\n", f.RecordID, f.Reason)
	}
}

func renderDegraded(w io.Writer, st reportStyles, degraded []domain.DegradedFallback) {
	if len(degraded) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Warning.Render("Degraded fittings"))
	for _, d := range degraded {
		fmt.Fprintf(w, "  %s: waiting on %s after %d attempt(s)\n", d.RequestID, orNone(d.MissingDependencyID), d.Attempts)
	}
}

// renderDiagnostics lists warnings and errors. Info notices are only shown
// as a count.
func renderDiagnostics(w io.Writer, st reportStyles, diagnostics []domain.Diagnostic) {
	loud := lo.Filter(diagnostics, func(d domain.Diagnostic, _ int) bool {
		return d.Severity >= domain.SeverityWarning
	})
	notes := len(diagnostics) - len(loud)
	if len(loud) == 0 && notes == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Title.Render("Diagnostics"))
	for _, d := range loud {
		style := st.Warning
		if d.Severity == domain.SeverityError {
			style = st.Error
		}
		fmt.Fprintf(w, "  %s\n", style.Render(d.String()))
	}
	switch {
	case notes == 0:
	case logger.IsVerbose():
		for _, d := range diagnostics {
			if d.Severity < domain.SeverityWarning {
				fmt.Fprintf(w, "  %s\n", st.Muted.Render(d.String()))
			}
		}
	default:
		fmt.Fprintf(w, "  %s\n", st.Muted.Render(fmt.Sprintf("%d note(s), use --verbose to see them", notes)))
	}
}

// countKinds returns "Kind (layer): n" lines sorted by kind then layer.
func countKinds(objects []*domain.ConvertedObject) []string {
	counts := lo.CountValuesBy(objects, func(o *domain.ConvertedObject) string {
		return fmt.Sprintf("%s (%s)", o.Kind, o.Layer)
	})
	lines := make([]string, 0, len(counts))
	for k, n := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", k, n))
	}
	sort.Strings(lines)
	return lines
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
