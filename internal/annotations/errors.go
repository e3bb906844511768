package annotations

import (
	"fmt"
	"strings"
)

// SyntaxError reports a directive that does not parse.
type SyntaxError struct {
	Message string
	Loc     SourceLocation
	Hint    string
	Cause   error
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s: invalid directive: %s", e.Loc, e.Message)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *SyntaxError) Unwrap() error { return e.Cause }

// ValidationError represents a parameter validation error
type ValidationError struct {
	Kind      Kind
	Parameter string
	Expected  string
	Actual    string
	Loc       SourceLocation
	Hint      string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: //kiln::%s parameter '%s' validation failed: expected %s, got %s",
		e.Loc, e.Kind, e.Parameter, e.Expected, e.Actual)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// ValidationErrors groups every problem found on one directive.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  %s", len(e), strings.Join(parts, "\n  "))
}
