// bulk.go — CSV input for bulk runs.
// The header must name an identifier column; an optional action column
// overrides the action given on the command line for that row.
package commands

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dev-console/convmanage/internal/thread"
)

// ErrNoRows is returned for a CSV file with a header but no data rows.
var ErrNoRows = errors.New("CSV file must have header + at least 1 data row")

// ReadBulk parses r into one request per data row. Row actions are not
// validated here: an unknown action still becomes a request so the run
// reports it in order with the others.
func ReadBulk(r io.Reader, defaultAction thread.Action) ([]thread.Request, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	idCol, actionCol := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "identifier":
			idCol = i
		case "action":
			actionCol = i
		}
	}
	if idCol < 0 {
		return nil, errors.New(`CSV header must include an "identifier" column`)
	}

	rows := records[1:]
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	reqs := make([]thread.Request, 0, len(rows))
	for n, row := range rows {
		if idCol >= len(row) {
			return nil, fmt.Errorf("CSV row %d has no identifier column", n+2)
		}
		action := defaultAction
		if actionCol >= 0 && actionCol < len(row) && strings.TrimSpace(row[actionCol]) != "" {
			action = thread.Action(strings.TrimSpace(row[actionCol]))
		}
		if action == "" {
			return nil, fmt.Errorf("CSV row %d has no action and none was given on the command line", n+2)
		}
		reqs = append(reqs, thread.Request{Action: action, Identifier: row[idCol]})
	}
	return reqs, nil
}
