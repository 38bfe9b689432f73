// internal/metrics/report.go
package metrics

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	reportLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// WriteReport prints a per-model summary of the recorded generation metrics.
func WriteReport(out io.Writer, models []ModelMetrics) {
	if len(models) == 0 {
		fmt.Fprintln(out, "No generation metrics recorded yet.")
		return
	}
	for i, m := range models {
		if i > 0 {
			fmt.Fprintln(out)
		}
		s := m.OverallStats
		fmt.Fprintln(out, reportTitleStyle.Render(m.ModelName))
		fmt.Fprintf(out, "  %s %d (%d failed)\n", reportLabelStyle.Render("Requests:     "), s.TotalRequests, s.FailedRequests)
		fmt.Fprintf(out, "  %s %s\n", reportLabelStyle.Render("Latency ms:   "), formatStat(s.LatencyMillis))
		fmt.Fprintf(out, "  %s %s\n", reportLabelStyle.Render("Tokens/sec:   "), formatStat(s.TokensPerSecond))
		fmt.Fprintf(out, "  %s %s\n", reportLabelStyle.Render("Input tokens: "), formatStat(s.InputTokens))
		fmt.Fprintf(out, "  %s %s\n", reportLabelStyle.Render("Output tokens:"), formatStat(s.OutputTokens))
		fmt.Fprintf(out, "  %s %s\n", reportLabelStyle.Render("Last updated: "), m.LastUpdatedUTC.Format("2006-01-02 15:04:05 UTC"))
		for _, b := range m.PerformanceBuckets {
			fmt.Fprintf(out, "    %s %-10s requests=%d latency_ms=%s\n", b.Dimension, b.Bucket, b.Stats.TotalRequests, formatStat(b.Stats.LatencyMillis))
		}
	}
}

func formatStat(rs RunningStat) string {
	if rs.Count == 0 {
		return "n/a"
	}
	return fmt.Sprintf("mean=%.1f sd=%.1f min=%.1f max=%.1f", rs.Mean, rs.StdDev(), rs.Min, rs.Max)
}
