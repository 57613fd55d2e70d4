package yamlcodec

import (
	"math"
	"strconv"
	"strings"

	"github.com/cameronsjo/toolcat/internal/value"
)

// parseScalar reads the text of a single scalar. The order of the checks
// matters: keywords and numbers win over strings, so a string spelled like
// one of them must be quoted to survive.
func parseScalar(s string) *value.Value {
	switch s {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	case "null":
		return value.Null()
	case "{}":
		return value.Mapping()
	case "[]":
		return value.Sequence()
	}

	if n, ok := parseNumber(s); ok {
		return value.Number(n)
	}

	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return value.String(unquote(s))
	}

	return value.String(s)
}

// parseNumber accepts finite decimal numbers. Inf and NaN spellings stay
// strings because they have no JSON form.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// unquote strips matching quotes. Double-quoted text has the escapes written
// by quote decoded; single-quoted text is taken literally.
func unquote(s string) string {
	inner := s[1 : len(s)-1]
	if s[0] == '\'' || !strings.Contains(inner, `\`) {
		return inner
	}

	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 == len(inner) {
			b.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(inner[i])
		}
	}
	return b.String()
}
