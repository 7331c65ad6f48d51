// Package placeholder parses TextMate snippet placeholder syntax and renders it
// as snipMate placeholder syntax.
//
// Parsing never fails. Anything that does not match the grammar (an
// unterminated "${1:", a "$" followed by punctuation) is kept as literal text,
// so a malformed marker can only affect its own bytes.
package placeholder

import (
	"strconv"
	"strings"
)

// Node is one element of a parsed snippet body.
type Node interface {
	// Raw returns the node's exact source text.
	Raw() string
}

// Text is literal body text, escapes included.
type Text struct {
	Value string
}

// Raw implements Node.
func (t Text) Raw() string { return t.Value }

// TabStop is a numbered marker: $1, ${1}, ${1:default} or ${1/re/fmt/opts}.
type TabStop struct {
	Index int
	// Placeholder is the parsed default text; nil when none was given.
	Placeholder []Node
	// HasPlaceholder distinguishes ${1:} from ${1}.
	HasPlaceholder bool
	// Transform holds "re/fmt/opts" for transformation markers.
	Transform string
	raw       string
}

// Raw implements Node.
func (ts TabStop) Raw() string { return ts.raw }

// IsFinal reports whether this is the final cursor position $0.
func (ts TabStop) IsFinal() bool { return ts.Index == 0 }

// Variable is a named marker such as $TM_FILENAME or ${TM_SELECTED_TEXT:x}.
type Variable struct {
	Name       string
	Default    []Node
	HasDefault bool
	Transform  string
	raw        string
}

// Raw implements Node.
func (v Variable) Raw() string { return v.raw }

// Parse splits a TextMate snippet body into nodes.
func Parse(body string) []Node {
	p := &bodyParser{src: body}
	return p.parseSeq(false)
}

type bodyParser struct {
	src string
	pos int
	// failed remembers marker starts already known not to parse.
	failed map[int]bool
	// unterminated is set when a placeholder body runs to end of input. Every
	// marker still open at that point fails with it, so the outermost one is
	// rescanned as text exactly once.
	unterminated bool
	// closers[i] is the index of the '}' closing a transformation whose text
	// starts at i, or -1. Built on first use.
	closers []int
}

// parseSeq consumes nodes until end of input or, when nested, an unescaped
// '}' which is left for the caller to consume.
func (p *bodyParser) parseSeq(nested bool) []Node {
	var nodes []Node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, Text{Value: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src) && isEscapable(p.src[p.pos+1]):
			text.WriteString(p.src[p.pos : p.pos+2])
			p.pos += 2
		case c == '}' && nested:
			flush()
			return nodes
		case c == '$':
			if n, ok := p.parseMarker(); ok {
				flush()
				nodes = append(nodes, n)
				continue
			}
			if p.unterminated {
				if nested {
					return nodes
				}
				p.unterminated = false
			}
			text.WriteByte(c)
			p.pos++
		default:
			text.WriteByte(c)
			p.pos++
		}
	}

	if nested {
		p.unterminated = true
	}
	flush()
	return nodes
}

// parseMarker parses a marker starting at the '$' under p.pos. On failure the
// position is restored.
func (p *bodyParser) parseMarker() (Node, bool) {
	start := p.pos
	if p.failed[start] {
		return nil, false
	}
	n, ok := p.parseMarkerAt(start)
	if !ok {
		p.pos = start
		if p.failed == nil {
			p.failed = make(map[int]bool)
		}
		p.failed[start] = true
	}
	return n, ok
}

func (p *bodyParser) parseMarkerAt(start int) (Node, bool) {
	p.pos++ // '$'

	if p.pos >= len(p.src) {
		return nil, false
	}

	if p.src[p.pos] != '{' {
		if idx, ok := p.scanInt(); ok {
			return TabStop{Index: idx, raw: p.src[start:p.pos]}, true
		}
		if name, ok := p.scanName(); ok {
			return Variable{Name: name, raw: p.src[start:p.pos]}, true
		}
		return nil, false
	}

	p.pos++ // '{'
	if idx, ok := p.scanInt(); ok {
		ts := TabStop{Index: idx}
		if !p.parseTail(&ts.Placeholder, &ts.HasPlaceholder, &ts.Transform) {
			return nil, false
		}
		ts.raw = p.src[start:p.pos]
		return ts, true
	}
	if name, ok := p.scanName(); ok {
		v := Variable{Name: name}
		if !p.parseTail(&v.Default, &v.HasDefault, &v.Transform) {
			return nil, false
		}
		v.raw = p.src[start:p.pos]
		return v, true
	}

	return nil, false
}

// parseTail parses what follows the index or name inside "${": a closing
// brace, a ":default}" or a "/transform}".
func (p *bodyParser) parseTail(def *[]Node, hasDef *bool, transform *string) bool {
	if p.pos >= len(p.src) {
		return false
	}
	switch p.src[p.pos] {
	case '}':
		p.pos++
		return true
	case ':':
		p.pos++
		nodes := p.parseSeq(true)
		if p.unterminated || p.pos >= len(p.src) {
			return false
		}
		p.pos++ // '}'
		*def = nodes
		*hasDef = true
		return true
	case '/':
		p.pos++
		end := p.scanTransform()
		if end < 0 {
			return false
		}
		*transform = p.src[p.pos:end]
		p.pos = end + 1
		return true
	default:
		return false
	}
}

// scanTransform returns the index of the '}' closing a transformation, or -1.
// Format strings may hold nested ${...} groups, so braces are balanced.
func (p *bodyParser) scanTransform() int {
	if p.closers == nil {
		p.closers = transformClosers(p.src)
	}
	return p.closers[p.pos]
}

// transformClosers computes, for every start position, the first '}' that
// brings the brace depth below its starting level. A backslash hides the byte
// after it. Depth moves by at most one per byte, so the first position at or
// after a start whose depth drops one below the starting depth is that '}'.
func transformClosers(src string) []int {
	depth := make([]int, len(src)+1) // depth[i] is the depth before byte i
	for i := 0; i < len(src); i++ {
		d := depth[i]
		switch src[i] {
		case '\\':
			if i+1 < len(src) {
				depth[i+1] = d
				i++
			}
		case '{':
			d++
		case '}':
			d--
		}
		depth[i+1] = d
	}

	closers := make([]int, len(src)+1)
	nearest := make(map[int]int)
	closers[len(src)] = -1
	for i := len(src) - 1; i >= 0; i-- {
		nearest[depth[i+1]] = i
		if end, ok := nearest[depth[i]-1]; ok {
			closers[i] = end
		} else {
			closers[i] = -1
		}
	}
	return closers
}

func (p *bodyParser) scanInt() (int, bool) {
	i := p.pos
	for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
		i++
	}
	if i == p.pos {
		return 0, false
	}
	n, err := strconv.Atoi(p.src[p.pos:i])
	if err != nil {
		return 0, false
	}
	p.pos = i
	return n, true
}

func (p *bodyParser) scanName() (string, bool) {
	i := p.pos
	if i >= len(p.src) || !isNameStart(p.src[i]) {
		return "", false
	}
	for i < len(p.src) && isNameChar(p.src[i]) {
		i++
	}
	name := p.src[p.pos:i]
	p.pos = i
	return name, true
}

func isEscapable(c byte) bool {
	return c == '$' || c == '\\' || c == '`' || c == '}'
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// CountTabStops returns the number of tab stop markers in nodes, nested
// placeholders included. Variables are not counted.
func CountTabStops(nodes []Node) int {
	count := 0
	walk(nodes, func(n Node) {
		if _, ok := n.(TabStop); ok {
			count++
		}
	})
	return count
}

// walk visits nodes depth-first in source order.
func walk(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		switch v := n.(type) {
		case TabStop:
			walk(v.Placeholder, fn)
		case Variable:
			walk(v.Default, fn)
		}
	}
}
