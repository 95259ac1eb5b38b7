// common.go — Request building, result conversion, and flag helpers.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dev-console/convmanage/cmd/convmanage/output"
	"github.com/dev-console/convmanage/internal/thread"
)

// ParseRequest validates a positional action/identifier pair. Identifiers are
// passed through untouched; matching is the page's business.
func ParseRequest(action, identifier string) (thread.Request, error) {
	a, err := thread.ParseAction(action)
	if err != nil {
		return thread.Request{}, fmt.Errorf("%w (valid actions: %s)", err, actionList())
	}
	return thread.Request{Action: a, Identifier: identifier}, nil
}

func actionList() string {
	names := make([]string, len(thread.Actions))
	for i, a := range thread.Actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// BuildResult converts a request outcome to its printable form.
func BuildResult(req thread.Request, res thread.Result, elapsed time.Duration) *output.Result {
	return &output.Result{
		Success:       res.Status == thread.StatusOK,
		Action:        string(req.Action),
		Identifier:    req.Identifier,
		Status:        string(res.Status),
		Kind:          string(res.Kind),
		Error:         res.Message,
		CorrelationID: res.CorrelationID,
		ElapsedMS:     elapsed.Milliseconds(),
		Wire:          res.Wire(),
	}
}

// ProbeResult reports the injection probe outcome.
func ProbeResult(injected bool) *output.Result {
	r := &output.Result{Success: injected, Action: "probe", Identifier: "isManageInjected", Status: "ok", Wire: "true"}
	if !injected {
		r.Status = string(thread.StatusError)
		r.Error = "conversation script is not injected in the page"
		r.Wire = "false"
	}
	return r
}

// ParseFlag extracts a flag value from an args slice.
// Returns the value and remaining args (with the flag pair removed).
func ParseFlag(args []string, flag string) (string, []string) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			val := args[i+1]
			remaining := make([]string, 0, len(args)-2)
			remaining = append(remaining, args[:i]...)
			remaining = append(remaining, args[i+2:]...)
			return val, remaining
		}
	}
	return "", args
}

// ParseFlagInt extracts a non-negative integer flag value. ok is false when the
// flag is absent; a present but malformed value is an error.
func ParseFlagInt(args []string, flag string) (n int, ok bool, remaining []string, err error) {
	val, remaining := ParseFlag(args, flag)
	if len(remaining) == len(args) {
		return 0, false, args, nil
	}
	if val == "" {
		return 0, false, args, fmt.Errorf("%s needs a number", flag)
	}
	n, err = strconv.Atoi(val)
	if err != nil {
		return 0, false, args, fmt.Errorf("%s: %w", flag, err)
	}
	if n < 0 {
		return 0, false, args, fmt.Errorf("%s: %d is negative", flag, n)
	}
	return n, true, remaining, nil
}

// ParseFlagBool checks if a boolean flag is present in args.
func ParseFlagBool(args []string, flag string) (bool, []string) {
	for i, a := range args {
		if a == flag {
			remaining := make([]string, 0, len(args)-1)
			remaining = append(remaining, args[:i]...)
			remaining = append(remaining, args[i+1:]...)
			return true, remaining
		}
	}
	return false, args
}
