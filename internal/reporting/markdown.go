package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Fund Performance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Fund: `%s` | Reference: %d (%s) | Alignment: %s\n\n",
		r.FundAddress, r.Reference, formatUnix(r.Reference), r.Alignment))

	// Summary
	sb.WriteString("## Summary\n\n")
	if r.Summary.Buckets == 0 {
		sb.WriteString("No buckets valued.\n\n")
	} else {
		s := r.Summary
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Buckets | %d |\n", s.Buckets))
		sb.WriteString(fmt.Sprintf("| First Bucket | %s |\n", formatUnix(s.FirstTimestamp)))
		sb.WriteString(fmt.Sprintf("| Last Bucket | %s |\n", formatUnix(s.LastTimestamp)))
		sb.WriteString(fmt.Sprintf("| Start Value (USD) | %s |\n", s.StartValue.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| End Value (USD) | %s |\n", s.EndValue.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| Change (USD) | %s |\n", s.Change.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| Change %% | %s |\n", s.ChangePct.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| Min Value (USD) | %s |\n", s.MinValue.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| Max Value (USD) | %s |\n", s.MaxValue.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown %% | %s |\n", s.MaxDrawdownPct.StringFixed(2)))
		sb.WriteString("\n")
	}

	// Values
	sb.WriteString("## Hourly Values\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Timestamp | Time (UTC) | Value (USD) |\n")
		sb.WriteString("|-----------|------------|-------------|\n")
		for _, v := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", v.Timestamp, formatUnix(v.Timestamp), v.Value.StringFixed(2)))
		}
	} else {
		sb.WriteString("No values available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Result SHA256: `%s`\n", r.ResultHash))

	return sb.String()
}

func formatUnix(ts uint32) string {
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04")
}
