// Package ui provides colored status output for the CLI.
//
// Status lines go to Writer (stderr by default) so that converted documents
// written to stdout stay clean for pipes.
package ui

import (
	"io"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Faint  = color.New(color.Faint)
)

// Writer receives every status line.
var Writer io.Writer = color.Error

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	Green.Fprintf(Writer, "✓ "+format+"\n", args...)
}

// Error prints a red error message with X.
func Error(format string, args ...any) {
	Red.Fprintf(Writer, "✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	Yellow.Fprintf(Writer, "⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	Blue.Fprintf(Writer, format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	Bold.Fprintf(Writer, format+"\n", args...)
}

// Detail prints a dimmed detail line, indented under the previous message.
func Detail(format string, args ...any) {
	Faint.Fprintf(Writer, "  "+format+"\n", args...)
}

// Source prints which side produced a conversion.
func Source(direction, source string) {
	c := Green
	switch source {
	case "local":
		c = Yellow
	case "unavailable":
		c = Red
	}
	Cyan.Fprintf(Writer, "%s ", direction)
	c.Fprintf(Writer, "[%s]\n", source)
}
