package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/queue"
	"github.com/renanlido/agentic-development-kit-sub001/internal/sync"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
)

const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolQueued  = "↻"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
	SymbolPending = "○"
)

// GetTerminalWidth returns the current terminal width, defaulting to 80 if unable to detect
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// StatusLine renders a one-line, colored status for a feature outcome
func StatusLine(res sync.FeatureResult) string {
	var symbol string
	switch res.Outcome {
	case sync.OutcomeSynced:
		symbol = successStyle.Render(SymbolSuccess)
	case sync.OutcomeQueued:
		symbol = warnStyle.Render(SymbolQueued)
	case sync.OutcomeManualPending:
		symbol = warnStyle.Render(SymbolWarning)
	case sync.OutcomeSkipped:
		symbol = dimStyle.Render(SymbolSkipped)
	default:
		symbol = errorStyle.Render(SymbolError)
	}

	line := fmt.Sprintf("%s %s %s", symbol, res.Feature, dimStyle.Render(string(res.Outcome)))
	switch res.Outcome {
	case sync.OutcomeSynced:
		if res.RemoteURL != "" {
			line += " " + infoStyle.Render(res.RemoteURL)
		}
	case sync.OutcomeQueued:
		line += ": " + res.Message + dimStyle.Render(" (will retry on next sync)")
	case sync.OutcomeSkipped:
	default:
		if res.Message != "" {
			line += ": " + res.Message
		}
	}
	return line
}

// PrintFeatureResult prints a feature outcome, its conflicts and report path
func PrintFeatureResult(w io.Writer, res sync.FeatureResult) {
	fmt.Fprintln(w, StatusLine(res))

	if res.Resolution != nil && len(res.Conflicts) > 0 {
		fmt.Fprintf(w, "  %d conflict(s), strategy %s\n", len(res.Conflicts), res.Resolution.Strategy)
		for _, c := range res.Conflicts {
			outcome := "unresolved"
			if winner, ok := res.Resolution.Winner(c.Field); ok {
				outcome = string(winner) + " wins"
			}
			fmt.Fprintf(w, "    %s: local=%v remote=%v (%s)\n", c.Field, c.LocalValue, c.RemoteValue, outcome)
		}
	}
	if res.ReportPath != "" {
		fmt.Fprintf(w, "  Conflict report: %s\n", res.ReportPath)
	}
}

// PrintBulkResult prints each feature line and a summary
func PrintBulkResult(w io.Writer, bulk *sync.BulkResult) {
	for _, res := range bulk.Features {
		if res.Outcome == sync.OutcomeSkipped {
			continue
		}
		PrintFeatureResult(w, res)
	}

	summary := fmt.Sprintf("Synced %d, failed %d, skipped %d", bulk.Synced, bulk.Failed, bulk.Skipped)
	if bulk.Failed > 0 {
		fmt.Fprintln(w, errorStyle.Render(summary))
	} else {
		fmt.Fprintln(w, successStyle.Render(summary))
	}
}

// PrintQueueResult prints the outcome of a queue replay
func PrintQueueResult(w io.Writer, res *sync.QueueResult) {
	if res.Processed == 0 {
		fmt.Fprintln(w, dimStyle.Render("Sync queue is empty"))
		return
	}
	line := fmt.Sprintf("Queue: %d processed, %d succeeded, %d failed, %d remaining",
		res.Processed, res.Succeeded, res.Failed, res.Remaining)
	if res.Evicted > 0 {
		line += fmt.Sprintf(", %d gave up", res.Evicted)
	}
	if res.Dropped > 0 {
		line += fmt.Sprintf(", %d dropped", res.Dropped)
	}
	if res.Failed > 0 {
		fmt.Fprintln(w, warnStyle.Render(line))
	} else {
		fmt.Fprintln(w, successStyle.Render(line))
	}
}

// PrintStatus prints one row per tracked feature, fitted to width
func PrintStatus(w io.Writer, report *sync.StatusReport, width int) {
	if len(report.Features) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No tracked features"))
		return
	}

	nameWidth := 8
	for _, f := range report.Features {
		if len(f.Feature) > nameWidth {
			nameWidth = len(f.Feature)
		}
	}
	// symbol, phase, progress, status and remote columns take roughly 50 chars
	if limit := width - 50; limit >= 12 && nameWidth > limit {
		nameWidth = limit
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("  %-*s %-10s %5s  %-8s %s", nameWidth, "FEATURE", "PHASE", "PROG", "STATUS", "REMOTE")))
	for _, f := range report.Features {
		symbol := statusSymbol(f.SyncStatus)
		remote := f.RemoteID
		if remote == "" {
			remote = "-"
		}
		if f.LastSynced != nil {
			remote += dimStyle.Render(" " + f.LastSynced.Local().Format(time.DateTime))
		}
		fmt.Fprintf(w, "%s %-*s %-10s %4d%%  %-8s %s\n",
			symbol, nameWidth, truncate(f.Feature, nameWidth), f.Phase, f.Progress, f.SyncStatus, remote)
		if f.LastError != "" {
			fmt.Fprintf(w, "    %s\n", errorStyle.Render(f.LastError))
		}
		if f.Queued > 0 {
			fmt.Fprintf(w, "    %s\n", warnStyle.Render(fmt.Sprintf("%d queued operation(s)", f.Queued)))
		}
	}

	fmt.Fprintf(w, "\n%d synced, %d pending, %d error, %d queued\n", report.Synced, report.Pending, report.Errored, report.Queued)
}

// PrintQueue lists queued operations oldest first
func PrintQueue(w io.Writer, ops []queue.Operation) {
	if len(ops) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Sync queue is empty"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d queued operation(s)", len(ops))))
	for i, op := range ops {
		fmt.Fprintf(w, "%3d. %-7s %s %s\n", i+1, op.Type, op.Feature,
			dimStyle.Render(fmt.Sprintf("retries %d/%d, queued %s", op.Retries, queue.MaxRetries, op.CreatedAt.Local().Format(time.DateTime))))
		if op.LastError != "" {
			fmt.Fprintf(w, "     %s\n", errorStyle.Render(op.LastError))
		}
	}
}

// Info prints an informational line, used when sync is not configured
func Info(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func statusSymbol(status backend.SyncStatus) string {
	switch status {
	case backend.SyncStatusSynced:
		return successStyle.Render(SymbolSuccess)
	case backend.SyncStatusError:
		return errorStyle.Render(SymbolError)
	default:
		return dimStyle.Render(SymbolPending)
	}
}

func truncate(s string, width int) string {
	if len(s) <= width || width < 4 {
		return s
	}
	return s[:width-3] + "..."
}
