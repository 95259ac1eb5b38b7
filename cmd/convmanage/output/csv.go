// csv.go — CSV output formatter.
// Produces CSV output for bulk operations and piping.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader lists the columns in output order.
var csvHeader = []string{"success", "action", "identifier", "status", "kind", "error", "correlation_id", "elapsed_ms"}

// CSVFormatter produces CSV output.
type CSVFormatter struct{}

// Format writes a single result as CSV (header + one row).
func (f *CSVFormatter) Format(w io.Writer, result *Result) error {
	return f.FormatMultiple(w, []*Result{result})
}

// FormatMultiple writes multiple results as CSV (header + N rows).
func (f *CSVFormatter) FormatMultiple(w io.Writer, results []*Result) error {
	if len(results) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, r := range results {
		row := []string{
			strconv.FormatBool(r.Success),
			r.Action,
			r.Identifier,
			r.Status,
			r.Kind,
			r.Error,
			r.CorrelationID,
			strconv.FormatInt(r.ElapsedMS, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
