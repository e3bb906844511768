// Package errors holds kiln's error taxonomy: coded command errors carrying
// suggestions, and the per-declaration diagnostics of a generation run.
package errors

import (
	"fmt"
	"strings"
)

// KilnError is implemented by every coded error kiln returns.
type KilnError interface {
	error
	ErrorCode() ErrorCode
}

// ErrorCode classifies command errors.
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	ValidationErrorCode
	TemplateErrorCode
	FileSystemErrorCode
	ConfigurationErrorCode
	LoadErrorCode
	InternalErrorCode
)

var codeNames = [...]string{
	UnknownErrorCode:       "UnknownError",
	ValidationErrorCode:    "ValidationError",
	TemplateErrorCode:      "TemplateError",
	FileSystemErrorCode:    "FileSystemError",
	ConfigurationErrorCode: "ConfigurationError",
	LoadErrorCode:          "LoadError",
	InternalErrorCode:      "InternalError",
}

func (e ErrorCode) String() string {
	if e < 0 || int(e) >= len(codeNames) {
		return codeNames[UnknownErrorCode]
	}
	return codeNames[e]
}

// SourceLocation is a position in a Go source file. Line and Column are
// 1-based; zero means unknown.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// String renders the location as file:line:column, dropping unknown parts.
func (s SourceLocation) String() string {
	switch {
	case s.File == "":
		return "unknown location"
	case s.Line == 0:
		return s.File
	case s.Column == 0:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsEmpty reports whether no file is known.
func (s SourceLocation) IsEmpty() bool {
	return s.File == ""
}

// Less orders locations by file, line and column.
func (s SourceLocation) Less(other SourceLocation) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Column < other.Column
}

// BaseError is the coded error returned by kiln's commands.
type BaseError struct {
	Code    ErrorCode
	Message string
	Loc     SourceLocation
	Cause   error
	// ContextData is shown in verbose reports.
	ContextData map[string]interface{}
	// Hints are printed after the message as numbered suggestions.
	Hints []string
}

func (e *BaseError) Error() string {
	var b strings.Builder
	if !e.Loc.IsEmpty() {
		b.WriteString(e.Loc.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *BaseError) ErrorCode() ErrorCode { return e.Code }

func (e *BaseError) Unwrap() error { return e.Cause }

// Context returns the attached context, never nil.
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return map[string]interface{}{}
	}
	return e.ContextData
}

func (e *BaseError) Suggestions() []string { return e.Hints }

// WithLocation sets the source position the error refers to.
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.Loc = loc
	return e
}

// WithContext attaches a key shown in verbose reports.
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestions appends suggestions.
func (e *BaseError) WithSuggestions(suggestions ...string) *BaseError {
	e.Hints = append(e.Hints, suggestions...)
	return e
}

func New(code ErrorCode, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap returns a coded error whose Unwrap yields cause.
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{Code: code, Message: message, Cause: cause}
}

// Internal reports a broken invariant of the generator itself.
func Internal(format string, args ...interface{}) *BaseError {
	return Newf(InternalErrorCode, "internal error: "+format, args...).
		WithSuggestions("this is a bug in kiln; please report it with the input that triggered it")
}

// HasCode reports whether err or anything it wraps carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if k, ok := err.(KilnError); ok && k.ErrorCode() == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// joinLines numbers and indents the messages of a multi-error rendering.
func joinLines(messages []string) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %d. %s", i+1, m)
	}
	return b.String()
}
