package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DiagnosticLevel is how much a run prints. Each level includes the ones
// below it.
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// DiagnosticSystem writes the user-facing output of a run.
type DiagnosticSystem struct {
	level     DiagnosticLevel
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	indent    int
}

// NewDiagnosticSystem creates a diagnostic system writing to stdout and stderr.
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= DiagnosticVerbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// WithWriters redirects output. Colors and timestamps are turned off so the
// output can be compared in tests.
func (d *DiagnosticSystem) WithWriters(out, errOut io.Writer) *DiagnosticSystem {
	d.output = out
	d.errorOut = errOut
	d.useColors = false
	d.showTime = false
	return d
}

func (d *DiagnosticSystem) Level() DiagnosticLevel {
	return d.level
}

// Enabled reports whether messages of level are written.
func (d *DiagnosticSystem) Enabled(level DiagnosticLevel) bool {
	return d.level >= level
}

// messageKind describes one tagged message line.
type messageKind struct {
	label  string
	level  DiagnosticLevel
	stderr bool
	tag    *color.Color
}

var (
	errorKind   = messageKind{"ERROR", DiagnosticError, true, color.New(color.FgRed, color.Bold)}
	warnKind    = messageKind{"WARN", DiagnosticWarn, true, color.New(color.FgYellow)}
	infoKind    = messageKind{"INFO", DiagnosticInfo, false, color.New(color.FgBlue)}
	successKind = messageKind{"SUCCESS", DiagnosticInfo, false, color.New(color.FgGreen)}
	verboseKind = messageKind{"VERBOSE", DiagnosticVerbose, false, color.New(color.FgHiBlack)}
	debugKind   = messageKind{"DEBUG", DiagnosticDebug, false, color.New(color.FgMagenta)}

	boldTag = color.New(color.Bold)
	cyanTag = color.New(color.FgCyan)
	blueTag = color.New(color.FgBlue)
)

func (d *DiagnosticSystem) Error(format string, args ...interface{}) {
	d.emit(errorKind, format, args...)
}

func (d *DiagnosticSystem) Warn(format string, args ...interface{}) {
	d.emit(warnKind, format, args...)
}

func (d *DiagnosticSystem) Info(format string, args ...interface{}) {
	d.emit(infoKind, format, args...)
}

func (d *DiagnosticSystem) Success(format string, args ...interface{}) {
	d.emit(successKind, format, args...)
}

// Verbose is shown with --verbose.
func (d *DiagnosticSystem) Verbose(format string, args ...interface{}) {
	d.emit(verboseKind, format, args...)
}

func (d *DiagnosticSystem) Debug(format string, args ...interface{}) {
	d.emit(debugKind, format, args...)
}

// Section prints a bold title line.
func (d *DiagnosticSystem) Section(title string) {
	if d.Enabled(DiagnosticInfo) {
		d.paint(d.output, boldTag, "%s\n", title)
	}
}

// List prints an indented "- " item.
func (d *DiagnosticSystem) List(format string, args ...interface{}) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "%s- %s\n", d.prefix(), fmt.Sprintf(format, args...))
	}
}

func (d *DiagnosticSystem) Indent() {
	d.indent++
}

func (d *DiagnosticSystem) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

// Summary prints title and one line per stat, keys sorted.
func (d *DiagnosticSystem) Summary(title string, stats map[string]interface{}) {
	if !d.Enabled(DiagnosticInfo) {
		return
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(d.output, "\n%s\n", title)
	for _, key := range keys {
		fmt.Fprintf(d.output, "   %s: %v\n", key, stats[key])
	}
}

// Header prints the banner of a command.
func (d *DiagnosticSystem) Header(message string) {
	if d.Enabled(DiagnosticInfo) {
		d.paint(d.output, cyanTag, "kiln: %s\n", message)
	}
}

func (d *DiagnosticSystem) PhaseHeader(phase string) {
	if d.Enabled(DiagnosticInfo) {
		d.paint(d.output, blueTag, "%s:\n", phase)
	}
}

// PhaseItem prints a completed step of the current phase.
func (d *DiagnosticSystem) PhaseItem(format string, args ...interface{}) {
	if d.Enabled(DiagnosticInfo) {
		d.paint(d.output, successKind.tag, "✓ ")
		fmt.Fprintf(d.output, "%s\n", fmt.Sprintf(format, args...))
	}
}

// FileWritten reports one written or removed file. Only shown with
// --verbose.
func (d *DiagnosticSystem) FileWritten(verb, path string) {
	if d.Enabled(DiagnosticVerbose) {
		d.paint(d.output, debugKind.tag, "✏ ")
		fmt.Fprintf(d.output, "%s %s\n", verb, path)
	}
}

func (d *DiagnosticSystem) GenerationComplete() {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintln(d.output)
		d.paint(d.output, successKind.tag, "kiln: generation complete\n")
	}
}

// emit writes "[LABEL] message" to the stream of kind.
func (d *DiagnosticSystem) emit(kind messageKind, format string, args ...interface{}) {
	if !d.Enabled(kind.level) {
		return
	}
	w := d.output
	if kind.stderr {
		w = d.errorOut
	}

	var b strings.Builder
	b.WriteString(d.prefix())
	if d.showTime {
		b.WriteString(time.Now().Format("15:04:05 "))
	}
	label := "[" + kind.label + "]"
	if d.useColors {
		label = kind.tag.Sprint(label)
	}
	b.WriteString(label)
	b.WriteByte(' ')
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')
	io.WriteString(w, b.String())
}

func (d *DiagnosticSystem) paint(w io.Writer, c *color.Color, format string, args ...interface{}) {
	if d.useColors {
		c.Fprintf(w, format, args...)
		return
	}
	fmt.Fprintf(w, format, args...)
}

func (d *DiagnosticSystem) prefix() string {
	return strings.Repeat("  ", d.indent)
}

// shouldUseColors follows NO_COLOR and FORCE_COLOR, then the terminal.
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return !color.NoColor
}
