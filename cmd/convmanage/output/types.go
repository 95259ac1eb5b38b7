// types.go — Shared types for output formatting.
package output

import "io"

// Result is one request outcome as printed by the CLI.
type Result struct {
	Success       bool   `json:"success"`
	Action        string `json:"action"`
	Identifier    string `json:"identifier"`
	Status        string `json:"status"`
	Kind          string `json:"kind,omitempty"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ElapsedMS     int64  `json:"elapsed_ms"`
	Wire          string `json:"wire"` // legacy single-string payload
}

// Formatter is the interface for all output formatters.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// MultiFormatter formats a batch as one document instead of one per result.
type MultiFormatter interface {
	FormatMultiple(w io.Writer, results []*Result) error
}

// GetFormatter returns the appropriate formatter for the given format string.
func GetFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	case "csv":
		return &CSVFormatter{}
	case "human":
		return &HumanFormatter{}
	default:
		return &HumanFormatter{} // fallback
	}
}

// LegacyFormatter prints only the wire payload, one per line.
type LegacyFormatter struct{}

// Format writes result.Wire followed by a newline.
func (LegacyFormatter) Format(w io.Writer, result *Result) error {
	_, err := io.WriteString(w, result.Wire+"\n")
	return err
}
