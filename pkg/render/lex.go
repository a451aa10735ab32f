package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type segmentKind int

const (
	segText segmentKind = iota
	segOutput
	segStatement
)

// segment is a run of literal text or the body of a `{{ }}` / `{% %}` tag.
// Comments never become segments.
type segment struct {
	kind segmentKind
	body string
	off  int
	pos  Pos
}

const whitespace = " \t\r\n"

// source maps byte offsets to line:column positions.
type source struct {
	name  string
	text  string
	lines []int
}

func newSource(name, text string) *source {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &source{name: name, text: text, lines: lines}
}

func (s *source) pos(off int) Pos {
	line := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > off }) - 1
	return Pos{Line: line + 1, Col: off - s.lines[line] + 1}
}

func (s *source) errorf(sentinel error, off int, name, format string, args ...any) *Error {
	return &Error{
		Err:      sentinel,
		Template: s.name,
		Name:     name,
		Pos:      s.pos(off),
		Detail:   fmt.Sprintf(format, args...),
	}
}

// split cuts the source into text and tag segments, dropping comments and
// applying the `-` whitespace trim markers.
func (s *source) split() ([]segment, error) {
	var (
		segs     []segment
		trimNext bool
	)
	src := s.text
	i := 0

	for i < len(src) {
		open := nextTag(src, i)
		end := open
		if open < 0 {
			end = len(src)
		}

		text := src[i:end]
		start := i
		if trimNext {
			trimmed := strings.TrimLeft(text, whitespace)
			start += len(text) - len(trimmed)
			text = trimmed
			trimNext = false
		}
		if text != "" {
			segs = append(segs, segment{kind: segText, body: text, off: start, pos: s.pos(start)})
		}
		if open < 0 {
			break
		}

		closer := "}}"
		kind := segOutput
		switch src[open+1] {
		case '%':
			closer = "%}"
			kind = segStatement
		case '#':
			closer = "#}"
		}

		bodyStart := open + 2
		if bodyStart < len(src) && src[bodyStart] == '-' {
			bodyStart++
			segs = trimLastText(segs)
		}

		var closeAt int
		if closer == "#}" {
			closeAt = strings.Index(src[bodyStart:], closer)
			if closeAt >= 0 {
				closeAt += bodyStart
			}
		} else {
			closeAt = findCloser(src, bodyStart, closer)
		}
		if closeAt < 0 {
			return nil, s.errorf(ErrSyntax, open, src[open:open+2], "tag is never closed")
		}

		bodyEnd := closeAt
		if bodyEnd > bodyStart && src[bodyEnd-1] == '-' {
			bodyEnd--
			trimNext = true
		}
		if closer != "#}" {
			segs = append(segs, segment{kind: kind, body: src[bodyStart:bodyEnd], off: bodyStart, pos: s.pos(open)})
		}
		i = closeAt + 2
	}

	return segs, nil
}

func nextTag(src string, from int) int {
	for i := from; i+1 < len(src); i++ {
		if src[i] != '{' {
			continue
		}
		switch src[i+1] {
		case '{', '%', '#':
			return i
		}
	}
	return -1
}

// findCloser finds closer outside of quoted strings.
func findCloser(src string, from int, closer string) int {
	var quote byte
	for i := from; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if strings.HasPrefix(src[i:], closer) {
			return i
		}
	}
	return -1
}

func trimLastText(segs []segment) []segment {
	if len(segs) == 0 || segs[len(segs)-1].kind != segText {
		return segs
	}
	last := &segs[len(segs)-1]
	last.body = strings.TrimRight(last.body, whitespace)
	if last.body == "" {
		return segs[:len(segs)-1]
	}
	return segs
}

type tokenKind int

const (
	tokName tokenKind = iota
	tokNumber
	tokString
	tokDot
	tokPipe
	tokLParen
	tokRParen
	tokComma
	tokPlus
	tokMinus
)

type token struct {
	kind tokenKind
	raw  string
	val  any
	off  int
}

// tokenize splits a tag body into expression tokens.
func (s *source) tokenize(seg segment) ([]token, error) {
	var toks []token
	body := seg.body
	i := 0

	for i < len(body) {
		c := body[i]
		off := seg.off + i

		switch {
		case strings.IndexByte(whitespace, c) >= 0:
			i++
			continue
		case isNameStart(c):
			start := i
			for i < len(body) && (isNameStart(body[i]) || isDigit(body[i])) {
				i++
			}
			toks = append(toks, token{kind: tokName, raw: body[start:i], off: off})
			continue
		case isDigit(c):
			start := i
			for i < len(body) && isDigit(body[i]) {
				i++
			}
			isFloat := false
			if i+1 < len(body) && body[i] == '.' && isDigit(body[i+1]) {
				isFloat = true
				i++
				for i < len(body) && isDigit(body[i]) {
					i++
				}
			}
			raw := body[start:i]
			var val any
			if isFloat {
				f, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, s.errorf(ErrSyntax, off, raw, "invalid number")
				}
				val = f
			} else {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return nil, s.errorf(ErrSyntax, off, raw, "invalid number")
				}
				val = n
			}
			toks = append(toks, token{kind: tokNumber, raw: raw, val: val, off: off})
			continue
		case c == '\'' || c == '"':
			str, n, ok := scanString(body[i:])
			if !ok {
				return nil, s.errorf(ErrSyntax, off, body[i:], "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, raw: body[i : i+n], val: str, off: off})
			i += n
			continue
		}

		kind, ok := punctuation[c]
		if !ok {
			return nil, s.errorf(ErrSyntax, off, string(c), "unexpected character")
		}
		toks = append(toks, token{kind: kind, raw: string(c), off: off})
		i++
	}

	return toks, nil
}

var punctuation = map[byte]tokenKind{
	'.': tokDot,
	'|': tokPipe,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
	'+': tokPlus,
	'-': tokMinus,
}

// scanString reads a quoted literal at the start of s, returning its value and
// the number of bytes consumed.
func scanString(s string) (string, int, bool) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quote:
			return b.String(), i + 1, true
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, false
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
