// Package yamlcodec converts between value trees and a pragmatic subset of
// YAML: block mappings and sequences indented in two-space steps, plain and
// quoted scalars, and inline empty containers. It has no dependencies beyond
// the value package and is used when the conversion service is unreachable.
//
// Emit never fails and Parse never fails. Parse is deliberately permissive:
// lines it cannot place are dropped rather than reported, so malformed input
// yields some Value instead of an error.
package yamlcodec

import (
	"math"
	"strings"

	"github.com/cameronsjo/toolcat/internal/value"
)

const indentStep = "  "

// quoteTriggers are the characters that force a string to be double-quoted.
const quoteTriggers = "\n\r:[]{}#&*!|>'\"%@`"

// Emit renders v as YAML. Containers are written in block form, one line per
// entry; scalars at the top level produce a single line. The output always
// ends with a newline.
func Emit(v *value.Value) string {
	var b strings.Builder
	emitNode(&b, v, 0)
	return b.String()
}

// emitNode writes v at the given nesting level. Every line it produces starts
// with the level's indentation.
func emitNode(b *strings.Builder, v *value.Value, level int) {
	indent := strings.Repeat(indentStep, level)

	switch v.Kind() {
	case value.KindSequence:
		if v.Len() == 0 {
			b.WriteString(indent + "[]\n")
			return
		}
		for _, item := range v.Items() {
			b.WriteString(indent + "- ")
			b.WriteString(inlineItem(item, level+1))
		}

	case value.KindMapping:
		if v.Len() == 0 {
			b.WriteString(indent + "{}\n")
			return
		}
		for _, p := range v.Pairs() {
			key := formatKey(p.Key)
			if p.Value.IsContainer() && p.Value.Len() > 0 {
				b.WriteString(indent + key + ":\n")
				emitNode(b, p.Value, level+1)
				continue
			}
			b.WriteString(indent + key + ": " + formatScalar(p.Value) + "\n")
		}

	default:
		b.WriteString(indent + formatScalar(v) + "\n")
	}
}

// inlineItem renders a sequence item so that its first line can follow a
// "- " marker: the item is rendered one level deeper than the marker and the
// first line loses its indentation.
func inlineItem(item *value.Value, level int) string {
	var b strings.Builder
	emitNode(&b, item, level)
	return b.String()[len(indentStep)*level:]
}

// formatScalar renders a scalar or an empty container on a single line.
func formatScalar(v *value.Value) string {
	switch v.Kind() {
	case value.KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case value.KindNumber:
		n := v.Number()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "null"
		}
		return value.FormatNumber(n)
	case value.KindString:
		return formatString(v.Str())
	case value.KindSequence:
		return "[]"
	case value.KindMapping:
		return "{}"
	default:
		return "null"
	}
}

// formatString writes s bare when Parse reads it back unchanged, and
// double-quoted otherwise.
func formatString(s string) string {
	if !needsQuoting(s) {
		return s
	}
	return quote(s)
}

// formatKey quotes only keys that would break the line structure. Keys are
// never typed by Parse, so reserved words and numbers stay bare.
func formatKey(s string) string {
	if !breaksLine(s) {
		return s
	}
	return quote(s)
}

func needsQuoting(s string) bool {
	if breaksLine(s) {
		return true
	}
	// Bare words Parse would read as another kind.
	return parseScalar(s).Kind() != value.KindString
}

// breaksLine reports whether s written bare would change how Parse splits
// or classifies the line.
func breaksLine(s string) bool {
	if strings.ContainsAny(s, quoteTriggers) || strings.TrimSpace(s) != s {
		return true
	}
	switch s {
	case "", "-", "---", "...":
		return true
	}
	return strings.HasPrefix(s, "- ")
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
