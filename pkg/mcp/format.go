package mcp

import (
	"fmt"
	"strings"

	"github.com/plotwise/plotwise/pkg/models"
)

// formatSummary formats ledger summaries as a text table.
func formatSummary(rows []models.UsageSummary) string {
	if len(rows) == 0 {
		return "No usage recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-15s %-20s %8s %10s %10s %12s\n",
		"Operation", "Outcome", "Requests", "Cache Hits", "Tokens", "Avg Latency")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-15s %-20s %8d %10d %10d %10.0fms\n",
			r.Operation, r.Outcome, r.RequestCount, r.CacheHits, r.TotalTokens, r.AvgLatencyMs)
	}
	return b.String()
}

// formatCacheStats renders the result cache counters, one per line.
func formatCacheStats(stats models.CacheStats) string {
	var b strings.Builder
	b.WriteString("Result Cache\n")
	for _, row := range []struct {
		label string
		value string
	}{
		{"Entries", fmt.Sprint(stats.Entries)},
		{"Hits", fmt.Sprint(stats.Hits)},
		{"Misses", fmt.Sprint(stats.Misses)},
		{"Hit Rate", fmt.Sprintf("%.1f%%", stats.HitRate())},
	} {
		fmt.Fprintf(&b, "  %-9s %s\n", row.label+":", row.value)
	}
	return b.String()
}
