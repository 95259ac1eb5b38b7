// json.go — JSON output formatter.
// Produces machine-parseable JSON output.
package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter produces JSON output.
type JSONFormatter struct{}

// Format writes a JSON representation of the result.
func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// FormatMultiple writes the batch as one JSON array.
func (f *JSONFormatter) FormatMultiple(w io.Writer, results []*Result) error {
	if results == nil {
		results = []*Result{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
