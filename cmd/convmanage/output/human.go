// human.go — Human-readable output formatter.
// Colors follow the terminal: fatih/color disables them when stdout is not a TTY.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	okLabel       = color.New(color.FgGreen, color.Bold)
	notFoundLabel = color.New(color.FgYellow, color.Bold)
	errorLabel    = color.New(color.FgRed, color.Bold)
	dim           = color.New(color.FgHiBlack)
)

// HumanFormatter produces human-readable output.
type HumanFormatter struct{}

// Format writes a human-readable representation of the result.
func (h *HumanFormatter) Format(w io.Writer, result *Result) error {
	var sb strings.Builder

	switch result.Status {
	case "ok":
		sb.WriteString(okLabel.Sprint("[OK]"))
		fmt.Fprintf(&sb, " %s %q\n", result.Action, result.Identifier)
	case "not_found":
		sb.WriteString(notFoundLabel.Sprint("[Not found]"))
		fmt.Fprintf(&sb, " %s %q: no matching conversation\n", result.Action, result.Identifier)
	default:
		sb.WriteString(errorLabel.Sprint("[Error]"))
		fmt.Fprintf(&sb, " %s %q", result.Action, result.Identifier)
		if result.Kind != "" {
			fmt.Fprintf(&sb, " (%s)", result.Kind)
		}
		sb.WriteString("\n")
		if result.Error != "" {
			fmt.Fprintf(&sb, "   Error: %s\n", result.Error)
		}
	}

	if result.CorrelationID != "" {
		sb.WriteString(dim.Sprintf("   id=%s elapsed=%dms\n", result.CorrelationID, result.ElapsedMS))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
