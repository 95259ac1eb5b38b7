// types_test.go — Tests for match modes, result wire encoding, and error mapping.
package thread

import (
	"errors"
	"testing"
)

func TestMatchModeMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mode       MatchMode
		entry      string
		identifier string
		want       bool
	}{
		{"exact equal", MatchExact, "Trip planning", "Trip planning", true},
		{"exact prefix is not a match", MatchExact, "Trip planning", "Trip", false},
		{"exact is case-sensitive", MatchExact, "Trip planning", "trip planning", false},
		{"substring contained", MatchSubstring, "Trip planning", "planning", true},
		{"substring equal", MatchSubstring, "Trip planning", "Trip planning", true},
		{"substring is case-sensitive", MatchSubstring, "Recipe ideas", "recipe", false},
		{"substring absent", MatchSubstring, "Trip planning", "Recipe", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.mode.Matches(tc.entry, tc.identifier); got != tc.want {
				t.Errorf("%s.Matches(%q, %q) = %v, want %v", tc.mode, tc.entry, tc.identifier, got, tc.want)
			}
		})
	}
}

func TestResultWire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"ok echoes identifier", OK("Trip planning"), "Trip planning"},
		{"not found is null", NotFound("recipe"), "null"},
		{"error is stringified", Failure("x", KindException, "boom"), "Error: boom"},
		{"unrecognized action", Failure("x", KindUnrecognizedAction, `unrecognized action "archive"`), `Error: unrecognized action "archive"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.result.Wire(); got != tc.want {
				t.Errorf("Wire() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResultErr(t *testing.T) {
	t.Parallel()

	if OK("a").Err() != nil {
		t.Error("ok result should have nil Err")
	}
	if NotFound("a").Err() != nil {
		t.Error("not-found result should have nil Err")
	}

	cases := map[ErrorKind]error{
		KindUnrecognizedAction: ErrUnrecognizedAction,
		KindTraversal:          ErrTraversal,
		KindException:          ErrException,
		KindCanceled:           ErrCanceled,
	}
	for kind, sentinel := range cases {
		err := Failure("a", kind, "msg").Err()
		if !errors.Is(err, sentinel) {
			t.Errorf("kind %q: errors.Is(%v, %v) = false", kind, err, sentinel)
		}
		var ae *ActionError
		if !errors.As(err, &ae) || ae.Kind != kind || ae.Message != "msg" {
			t.Errorf("kind %q: errors.As gave %+v", kind, ae)
		}
	}

	if errors.Is(Failure("a", KindTraversal, "m").Err(), ErrException) {
		t.Error("traversal error should not match ErrException")
	}
}

func TestActionValid(t *testing.T) {
	t.Parallel()
	for _, a := range Actions {
		if !a.Valid() {
			t.Errorf("%q should be valid", a)
		}
	}
	for _, a := range []Action{"archive", "Load", "", " load"} {
		if a.Valid() {
			t.Errorf("%q should be invalid", a)
		}
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	a, err := ParseAction("rename")
	if err != nil || a != ActionRename {
		t.Fatalf("ParseAction(rename) = %q, %v", a, err)
	}
	if _, err := ParseAction("archive"); !errors.Is(err, ErrUnrecognizedAction) {
		t.Errorf("ParseAction(archive) error = %v, want ErrUnrecognizedAction", err)
	}
}
