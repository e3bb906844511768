package errors

import (
	"fmt"
	"sort"
)

// Class is the failure taxonomy of generation diagnostics.
type Class int

const (
	// StructuralViolation: user code does not satisfy a documented precondition.
	StructuralViolation Class = iota
	// AmbiguousResolution: more than one valid interpretation exists.
	AmbiguousResolution
	// InternalInvariant: the generator itself is wrong.
	InternalInvariant
)

func (c Class) String() string {
	switch c {
	case StructuralViolation:
		return "structural violation"
	case AmbiguousResolution:
		return "ambiguous resolution"
	case InternalInvariant:
		return "internal invariant"
	}
	return "unknown"
}

// Severity of a diagnostic. Any error fails the run.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one message reported against a declaration.
type Diagnostic struct {
	Severity Severity
	Class    Class
	Rule     string
	Target   string
	Message  string
	Loc      SourceLocation
}

func (d Diagnostic) Error() string {
	if d.Loc.IsEmpty() {
		return d.Message
	}
	return d.Loc.String() + ": " + d.Message
}

// Errorf builds an error diagnostic.
func Errorf(class Class, rule string, loc SourceLocation, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Class:    class,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
		Loc:      loc,
	}
}

// Warningf builds a warning diagnostic.
func Warningf(rule string, loc SourceLocation, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Class:    StructuralViolation,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
		Loc:      loc,
	}
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Sort orders diagnostics by location, then message.
func (ds Diagnostics) Sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Loc != ds[j].Loc {
			return ds[i].Loc.Less(ds[j].Loc)
		}
		return ds[i].Message < ds[j].Message
	})
}

// HasErrors reports whether any diagnostic is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(SeverityError)
}

// Warnings returns only the warning diagnostics.
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

func (ds Diagnostics) filter(s Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Err returns a *GenerationFailed holding the errors, or nil.
func (ds Diagnostics) Err() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &GenerationFailed{Diagnostics: errs}
}

// GenerationFailed is returned when one or more declarations were rejected.
type GenerationFailed struct {
	Diagnostics Diagnostics
}

func (e *GenerationFailed) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Error()
	}
	messages := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		messages[i] = d.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(e.Diagnostics), joinLines(messages))
}

func (e *GenerationFailed) ErrorCode() ErrorCode { return ValidationErrorCode }
