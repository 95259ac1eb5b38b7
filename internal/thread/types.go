// types.go — Request, Result, and error types for conversation actions.
package thread

import (
	"errors"
	"fmt"
	"strings"
)

// Action names accepted by the dispatcher.
type Action string

const (
	ActionLoad   Action = "load"
	ActionDelete Action = "delete"
	ActionRename Action = "rename"
)

// Actions lists the recognized actions in help-text order.
var Actions = []Action{ActionLoad, ActionDelete, ActionRename}

// Valid reports whether a is one of the recognized actions. Matching is exact
// and case-sensitive.
func (a Action) Valid() bool {
	switch a {
	case ActionLoad, ActionDelete, ActionRename:
		return true
	default:
		return false
	}
}

// ParseAction converts s to an Action, rejecting anything Valid rejects.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedAction, s)
	}
	return a, nil
}

// MatchMode selects how Search compares an entry's display name.
type MatchMode int

const (
	// MatchExact requires name == identifier.
	MatchExact MatchMode = iota
	// MatchSubstring requires name to contain identifier.
	MatchSubstring
)

// Matches applies the mode's predicate.
func (m MatchMode) Matches(name, identifier string) bool {
	if m == MatchSubstring {
		return strings.Contains(name, identifier)
	}
	return name == identifier
}

func (m MatchMode) String() string {
	if m == MatchSubstring {
		return "substring"
	}
	return "exact"
}

// Request is one action against the thread list.
type Request struct {
	Action     Action `json:"action"`
	Identifier string `json:"identifier"`
}

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// ErrorKind classifies StatusError results.
type ErrorKind string

const (
	KindUnrecognizedAction ErrorKind = "unrecognized_action"
	KindTraversal          ErrorKind = "traversal"
	KindException          ErrorKind = "exception"
	KindCanceled           ErrorKind = "canceled"
)

// Sentinel errors matched by (*ActionError).Is.
var (
	ErrUnrecognizedAction = errors.New("unrecognized action")
	ErrTraversal          = errors.New("thread list traversal failed")
	ErrException          = errors.New("action raised an exception")
	ErrCanceled           = errors.New("action canceled")
)

// NotFoundWire is the legacy payload for a missing conversation.
const NotFoundWire = "null"

// Result is the tagged outcome of a request.
type Result struct {
	Status        Status    `json:"status"`
	Identifier    string    `json:"identifier"`
	Kind          ErrorKind `json:"kind,omitempty"`
	Message       string    `json:"message,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// OK reports success for identifier.
func OK(identifier string) Result {
	return Result{Status: StatusOK, Identifier: identifier}
}

// NotFound reports that no entry matched identifier.
func NotFound(identifier string) Result {
	return Result{Status: StatusNotFound, Identifier: identifier}
}

// Failure reports an error of the given kind.
func Failure(identifier string, kind ErrorKind, message string) Result {
	return Result{Status: StatusError, Identifier: identifier, Kind: kind, Message: message}
}

// Wire serializes r to the single-string completion contract: the echoed
// identifier on success, "null" when not found, "Error: <message>" otherwise.
func (r Result) Wire() string {
	switch r.Status {
	case StatusOK:
		return r.Identifier
	case StatusNotFound:
		return NotFoundWire
	default:
		return "Error: " + r.Message
	}
}

// Err returns nil unless r is a failure.
func (r Result) Err() error {
	if r.Status != StatusError {
		return nil
	}
	return &ActionError{Kind: r.Kind, Message: r.Message}
}

// ActionError is the structured form of a failed Result.
type ActionError struct {
	Kind    ErrorKind
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is maps the kind onto the package sentinels.
func (e *ActionError) Is(target error) bool {
	switch e.Kind {
	case KindUnrecognizedAction:
		return target == ErrUnrecognizedAction
	case KindTraversal:
		return target == ErrTraversal
	case KindException:
		return target == ErrException
	case KindCanceled:
		return target == ErrCanceled
	}
	return false
}
