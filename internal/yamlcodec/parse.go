package yamlcodec

import (
	"strings"

	"github.com/cameronsjo/toolcat/internal/value"
)

// line is one significant input line.
type line struct {
	indent int
	text   string
}

// frame is an open container on the parse stack together with the slot it
// occupies in its parent, so an empty placeholder can be swapped for a
// sequence once its first item shows up.
type frame struct {
	container *value.Value
	indent    int
	byKey     bool // opened by a "key:" line

	parent *value.Value
	key    string
	index  int
}

type parser struct {
	root  *value.Value
	stack []*frame
}

// Parse reads YAML text into a Value. The top-level container starts out as
// a mapping and becomes a sequence when the first line is a sequence item.
// A document made of a single bare line is read as a scalar.
//
// Parse never fails. Lines that are neither "key: value" entries nor "- item"
// entries, and lines that do not fit the container they land in, are dropped.
func Parse(text string) *value.Value {
	lines := significantLines(text)

	if len(lines) == 1 {
		if _, ok := itemRest(lines[0].text); !ok && !isEntry(lines[0].text) {
			return parseScalar(lines[0].text)
		}
	}

	root := value.Mapping()
	p := &parser{
		root:  root,
		stack: []*frame{{container: root, indent: -1}},
	}
	for _, l := range lines {
		p.line(l.indent, l.text)
	}
	return p.root
}

// significantLines splits text into lines, dropping blank lines, comments
// and document markers. Trailing whitespace is removed and leading spaces are
// counted as indentation.
func significantLines(text string) []line {
	var lines []line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, " \t\r")
		content := strings.TrimLeft(raw, " ")
		if strings.TrimSpace(content) == "" || strings.HasPrefix(content, "#") {
			continue
		}
		if content == "---" || content == "..." {
			continue
		}
		lines = append(lines, line{indent: len(raw) - len(content), text: content})
	}
	return lines
}

func (p *parser) line(indent int, text string) {
	if rest, ok := itemRest(text); ok {
		p.item(indent, rest)
		return
	}
	if key, val, ok := splitEntry(text); ok {
		p.entry(indent, key, val)
	}
}

// item handles "- rest" found at indent.
func (p *parser) item(indent int, rest string) {
	p.closeFrames(indent, true)

	seq := p.sequenceTop()
	if seq == nil {
		return
	}

	content := strings.TrimLeft(rest, " ")
	column := indent + 2 + len(rest) - len(content)

	_, nestedItem := itemRest(content)
	if content == "" || nestedItem || isEntry(content) {
		placeholder := value.Mapping()
		seq.Append(placeholder)
		p.stack = append(p.stack, &frame{
			container: placeholder,
			indent:    indent,
			parent:    seq,
			index:     seq.Len() - 1,
		})
		if content != "" {
			p.line(column, content)
		}
		return
	}

	seq.Append(parseScalar(content))
}

// entry handles "key: val" or "key:" found at indent.
func (p *parser) entry(indent int, key, val string) {
	p.closeFrames(indent, false)

	m := p.top().container
	if m.Kind() != value.KindMapping {
		return
	}

	if val == "" {
		child := value.Mapping()
		m.Set(key, child)
		p.stack = append(p.stack, &frame{
			container: child,
			indent:    indent,
			byKey:     true,
			parent:    m,
			key:       key,
		})
		return
	}

	m.Set(key, parseScalar(val))
}

// closeFrames pops every frame a line at indent cannot belong to. A frame
// opened by "key:" at the same indent stays open for a sequence item, which
// accepts the compact "key:\n- item" layout.
func (p *parser) closeFrames(indent int, isItem bool) {
	for len(p.stack) > 1 {
		top := p.top()
		if top.indent < indent {
			return
		}
		if top.indent == indent && isItem && top.byKey && p.acceptsItems(top) {
			return
		}
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func (p *parser) top() *frame {
	return p.stack[len(p.stack)-1]
}

func (p *parser) acceptsItems(f *frame) bool {
	switch f.container.Kind() {
	case value.KindSequence:
		return true
	case value.KindMapping:
		return f.container.Len() == 0
	}
	return false
}

// sequenceTop returns the top container as a sequence, converting an empty
// mapping placeholder in place. It returns nil when the top already holds
// mapping entries.
func (p *parser) sequenceTop() *value.Value {
	top := p.top()
	if !p.acceptsItems(top) {
		return nil
	}
	if top.container.Kind() == value.KindSequence {
		return top.container
	}

	seq := value.Sequence()
	switch {
	case top.parent == nil:
		p.root = seq
	case top.parent.Kind() == value.KindMapping:
		top.parent.Set(top.key, seq)
	default:
		top.parent.SetIndex(top.index, seq)
	}
	top.container = seq
	return seq
}

// itemRest reports whether text is a sequence item and returns what follows
// the dash.
func itemRest(text string) (string, bool) {
	if text == "-" {
		return "", true
	}
	if strings.HasPrefix(text, "- ") {
		return text[2:], true
	}
	return "", false
}

func isEntry(text string) bool {
	_, _, ok := splitEntry(text)
	return ok
}

// splitEntry splits "key: value" or "key:" into its parts. Quoted keys may
// contain colons.
func splitEntry(text string) (key, val string, ok bool) {
	if text == "" {
		return "", "", false
	}
	if text[0] == '"' || text[0] == '\'' {
		end := closingQuote(text)
		if end < 0 {
			return "", "", false
		}
		key = unquote(text[:end+1])
		rest := text[end+1:]
		switch {
		case rest == ":":
			return key, "", true
		case strings.HasPrefix(rest, ": "):
			return key, strings.TrimSpace(rest[2:]), true
		}
		return "", "", false
	}

	if i := strings.Index(text, ": "); i >= 0 {
		return strings.TrimRight(text[:i], " "), strings.TrimSpace(text[i+2:]), true
	}
	if strings.HasSuffix(text, ":") {
		return strings.TrimRight(text[:len(text)-1], " "), "", true
	}
	return "", "", false
}

// closingQuote returns the index of the quote closing the one at text[0], or
// -1. Backslash escapes are honored inside double quotes.
func closingQuote(text string) int {
	q := text[0]
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if q == '"' {
				i++
			}
		case q:
			return i
		}
	}
	return -1
}
