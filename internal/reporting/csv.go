package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the report rows as CSV: one timestamp,value_usd line per
// bucket in bucket order, values at two decimals.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("timestamp,value_usd\n")
	for _, v := range r.Rows {
		sb.WriteString(fmt.Sprintf("%d,%s\n", v.Timestamp, v.Value.StringFixed(2)))
	}

	return sb.String()
}
