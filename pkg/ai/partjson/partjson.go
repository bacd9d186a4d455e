// ABOUTME: Best-effort parsing of truncated JSON for in-flight tool call arguments
// ABOUTME: Cuts back to the last complete value and closes open containers

package partjson

import (
	"encoding/json"
	"strings"
)

// Parse decodes s as a JSON object. The boolean reports whether s was already
// complete. Truncated input is cut back to its longest prefix that can be
// closed into a valid object; anything unusable yields an empty map.
func Parse(s string) (map[string]any, bool) {
	if strings.TrimSpace(s) == "" {
		return map[string]any{}, false
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(s), &result); err == nil && result != nil {
		return result, true
	}

	completed := Complete(s)
	if completed == "" {
		return map[string]any{}, false
	}
	result = nil
	if err := json.Unmarshal([]byte(completed), &result); err != nil || result == nil {
		return map[string]any{}, false
	}
	return result, false
}

// Complete returns the longest prefix of s that ends on a complete value,
// followed by the closers of every container still open at that point.
// A string value cut mid-way is kept and terminated. Returns "" when no
// usable prefix exists.
func Complete(s string) string {
	sc := scanner{src: s}
	sc.run()
	if sc.tail != "" {
		return sc.tail
	}
	if sc.cut < 0 {
		return ""
	}
	return s[:sc.cut] + closers(sc.cutStack)
}

type phase uint8

const (
	expectValue phase = iota
	expectKey
	expectColon
	afterValue
)

type frame struct {
	open  byte // '{' or '['
	phase phase
}

type scanner struct {
	src      string
	stack    []frame
	topDone  bool
	cut      int    // end of the longest closable prefix, -1 if none
	cutStack []byte // containers open at cut
	tail     string // completion ending in a truncated string value
}

func (sc *scanner) run() {
	sc.cut = -1
	s := sc.src
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '{' || c == '[':
			if !sc.valueAllowed() {
				return
			}
			f := frame{open: c, phase: expectValue}
			if c == '{' {
				f.phase = expectKey
			}
			sc.stack = append(sc.stack, f)
			i++
			sc.markSafe(i)
		case c == '}' || c == ']':
			if len(sc.stack) == 0 {
				return
			}
			sc.stack = sc.stack[:len(sc.stack)-1]
			i++
			sc.valueDone(i)
		case c == ':':
			top := sc.top()
			if top == nil || top.phase != expectColon {
				return
			}
			top.phase = expectValue
			i++
		case c == ',':
			top := sc.top()
			if top == nil || top.phase != afterValue {
				return
			}
			top.phase = expectValue
			if top.open == '{' {
				top.phase = expectKey
			}
			i++
		case c == '"':
			end, escStart, ok := scanString(s, i)
			if !ok {
				sc.truncatedString(escStart)
				return
			}
			if top := sc.top(); top != nil && top.phase == expectKey {
				top.phase = expectColon
				i = end
				continue
			}
			if !sc.valueAllowed() {
				return
			}
			i = end
			sc.valueDone(i)
		case c == '-' || (c >= '0' && c <= '9'):
			if !sc.valueAllowed() {
				return
			}
			j := i + 1
			for j < len(s) && strings.IndexByte("0123456789.eE+-", s[j]) >= 0 {
				j++
			}
			if j == len(s) && !isDigit(s[j-1]) {
				return
			}
			i = j
			sc.valueDone(i)
		case c == 't' || c == 'f' || c == 'n':
			if !sc.valueAllowed() {
				return
			}
			lit := literalFor(c)
			if !strings.HasPrefix(s[i:], lit) {
				return
			}
			i += len(lit)
			sc.valueDone(i)
		default:
			return
		}
	}
}

func (sc *scanner) top() *frame {
	if len(sc.stack) == 0 {
		return nil
	}
	return &sc.stack[len(sc.stack)-1]
}

func (sc *scanner) valueAllowed() bool {
	if top := sc.top(); top != nil {
		return top.phase == expectValue
	}
	return !sc.topDone
}

func (sc *scanner) valueDone(pos int) {
	if top := sc.top(); top != nil {
		top.phase = afterValue
	} else {
		sc.topDone = true
	}
	sc.markSafe(pos)
}

func (sc *scanner) markSafe(pos int) {
	sc.cut = pos
	sc.cutStack = sc.cutStack[:0]
	for _, f := range sc.stack {
		sc.cutStack = append(sc.cutStack, f.open)
	}
}

// truncatedString handles a string literal that runs to the end of input.
// Only string values are kept; a truncated key is dropped.
func (sc *scanner) truncatedString(escStart int) {
	top := sc.top()
	if top == nil || top.phase != expectValue {
		return
	}
	end := len(sc.src)
	if escStart >= 0 {
		end = escStart
	}
	open := make([]byte, 0, len(sc.stack))
	for _, f := range sc.stack {
		open = append(open, f.open)
	}
	sc.tail = sc.src[:end] + `"` + closers(open)
}

// scanString returns the index just past the closing quote of the string that
// starts at s[start]. When the input ends first, ok is false and escStart is
// the offset of a trailing incomplete escape sequence, or -1.
func scanString(s string, start int) (end, escStart int, ok bool) {
	i := start + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return 0, i, false
			}
			if s[i+1] == 'u' {
				if i+6 > len(s) {
					return 0, i, false
				}
				i += 6
				continue
			}
			i += 2
		case '"':
			return i + 1, -1, true
		default:
			i++
		}
	}
	return 0, -1, false
}

func closers(open []byte) string {
	var sb strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == '{' {
			sb.WriteByte('}')
		} else {
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

func literalFor(c byte) string {
	switch c {
	case 't':
		return "true"
	case 'f':
		return "false"
	default:
		return "null"
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
