package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/kiln/internal/errors"
)

// DiagnosticReporter renders generation diagnostics and command errors for
// people.
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer

	warnTag  *color.Color
	errorTag *color.Color
	faint    *color.Color
}

// NewDiagnosticReporter creates a new diagnostic reporter
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose:  verbose,
		out:      os.Stdout,
		errOut:   os.Stderr,
		warnTag:  color.New(color.FgYellow, color.Bold),
		errorTag: color.New(color.FgRed, color.Bold),
		faint:    color.New(color.Faint),
	}
}

// WithWriters redirects output and disables colors.
func (r *DiagnosticReporter) WithWriters(out, errOut io.Writer) *DiagnosticReporter {
	r.out = out
	r.errOut = errOut
	for _, c := range []*color.Color{r.warnTag, r.errorTag, r.faint} {
		c.DisableColor()
	}
	return r
}

// Report prints every diagnostic, errors and warnings in the order given,
// followed by a count line when anything was reported.
func (r *DiagnosticReporter) Report(ds errors.Diagnostics) {
	if len(ds) == 0 {
		return
	}
	for _, d := range ds {
		r.reportDiagnostic(d)
	}
	errs, warns := len(ds.Errors()), len(ds.Warnings())
	fmt.Fprintf(r.errOut, "\n%s, %s\n", plural(errs, "error"), plural(warns, "warning"))
}

func (r *DiagnosticReporter) reportDiagnostic(d errors.Diagnostic) {
	tag, c := "error", r.errorTag
	if d.Severity == errors.SeverityWarning {
		tag, c = "warning", r.warnTag
	}

	var b strings.Builder
	if !d.Loc.IsEmpty() {
		b.WriteString(d.Loc.String())
		b.WriteString(": ")
	}
	b.WriteString(c.Sprint(tag))
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Rule != "" {
		b.WriteString(r.faint.Sprintf(" [%s]", d.Rule))
	}
	fmt.Fprintln(r.errOut, b.String())

	if r.verbose {
		if d.Target != "" {
			fmt.Fprintf(r.errOut, "   target: %s\n", d.Target)
		}
		if d.Severity == errors.SeverityError {
			fmt.Fprintf(r.errOut, "   class: %s\n", d.Class)
		}
	}
}

// ReportWarning prints a warning not tied to a declaration.
func (r *DiagnosticReporter) ReportWarning(message string) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.warnTag.Sprint("!"), message)
}

// ReportError prints a command error. Generation failures were already
// reported diagnostic by diagnostic, so only the count is repeated.
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil {
		return
	}

	var failed *errors.GenerationFailed
	if stderrors.As(err, &failed) {
		fmt.Fprintf(r.errOut, "%s generation failed with %s\n", r.errorTag.Sprint("error:"), plural(len(failed.Diagnostics), "error"))
		return
	}

	var base *errors.BaseError
	if !stderrors.As(err, &base) {
		fmt.Fprintf(r.errOut, "%s %s\n", r.errorTag.Sprint("error:"), err)
		return
	}

	fmt.Fprintf(r.errOut, "%s %s\n", r.errorTag.Sprint("error:"), base.Error())
	if r.verbose {
		r.printContext(base.Context())
		r.printChain(base.Cause)
	}
	r.printSuggestions(base.Suggestions())
}

func (r *DiagnosticReporter) printContext(ctx map[string]interface{}) {
	if len(ctx) == 0 {
		return
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(r.errOut, "Context:")
	for _, k := range keys {
		fmt.Fprintf(r.errOut, "   %s: %v\n", formatContextKey(k), ctx[k])
	}
}

func (r *DiagnosticReporter) printChain(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(r.errOut, "Caused by:")
	for level := 1; err != nil; level++ {
		fmt.Fprintf(r.errOut, "   %d. %s\n", level, err)
		err = stderrors.Unwrap(err)
	}
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(r.errOut, "Suggestions:")
	for i, s := range suggestions {
		lines := strings.Split(s, "\n")
		fmt.Fprintf(r.errOut, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.errOut, "      %s\n", line)
			}
		}
	}
}

// formatContextKey turns snake_case context keys into Title Case.
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
