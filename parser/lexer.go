package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rubiojr/livepreview/scanner"
)

type tokKind int

const (
	tEOF tokKind = iota
	tIdent
	tNumber
	tString
	tPunct
)

func (k tokKind) String() string {
	switch k {
	case tIdent:
		return "identifier"
	case tNumber:
		return "number"
	case tString:
		return "string"
	case tPunct:
		return "punctuation"
	}
	return "end of input"
}

type token struct {
	kind  tokKind
	val   string // identifier name, punctuator, or decoded string
	num   float64
	start int
	end   int
}

func (t token) is(punct string) bool { return t.kind == tPunct && t.val == punct }

func (t token) describe() string {
	switch t.kind {
	case tEOF:
		return "end of input"
	case tString:
		return strconv.Quote(t.val)
	}
	return "'" + t.val + "'"
}

// punctuators ordered so longer operators match first.
var punctuators = []string{
	"...", "===", "!==",
	"?.", "??", "=>", "==", "!=", "<=", ">=", "&&", "||",
	"(", ")", "[", "]", "{", "}", ",", ".", ":", ";", "?",
	"+", "-", "*", "/", "%", "!", "<", ">", "=", "`",
}

// lex returns the token starting at or after off, skipping whitespace
// and comments.
func (p *parser) lex(off int) token {
	off = p.skipTrivia(off)
	if off >= len(p.src) {
		return token{kind: tEOF, start: off, end: off}
	}
	ch := p.src[off]
	switch {
	case isIdentStart(ch) || ch >= utf8.RuneSelf:
		end := off
		for end < len(p.src) && (scanner.IsIdentByte(p.src[end]) || p.src[end] >= utf8.RuneSelf) {
			end++
		}
		return token{kind: tIdent, val: p.src[off:end], start: off, end: end}
	case isDigit(ch) || ch == '.' && off+1 < len(p.src) && isDigit(p.src[off+1]):
		return p.lexNumber(off)
	case ch == '"' || ch == '\'':
		return p.lexString(off)
	}
	for _, op := range punctuators {
		if strings.HasPrefix(p.src[off:], op) {
			// a?.5:0 is a conditional, not optional chaining.
			if op == "?." && off+2 < len(p.src) && isDigit(p.src[off+2]) {
				continue
			}
			return token{kind: tPunct, val: op, start: off, end: off + len(op)}
		}
	}
	r, _ := utf8.DecodeRuneInString(p.src[off:])
	p.errorf(off, "unexpected character %q", r)
	return token{}
}

func (p *parser) skipTrivia(off int) int {
	for off < len(p.src) {
		switch {
		case scanner.IsSpace(p.src[off]):
			off++
		case strings.HasPrefix(p.src[off:], "//"):
			nl := strings.IndexByte(p.src[off:], '\n')
			if nl < 0 {
				return len(p.src)
			}
			off += nl + 1
		case strings.HasPrefix(p.src[off:], "/*"):
			end := strings.Index(p.src[off+2:], "*/")
			if end < 0 {
				p.errorf(off, "unterminated comment")
			}
			off += end + 4
		default:
			return off
		}
	}
	return off
}

func (p *parser) lexNumber(off int) token {
	end := off
	if strings.HasPrefix(p.src[off:], "0x") || strings.HasPrefix(p.src[off:], "0X") {
		end += 2
		for end < len(p.src) && isHexDigit(p.src[end]) {
			end++
		}
		n, err := strconv.ParseInt(p.src[off+2:end], 16, 64)
		if err != nil {
			p.errorf(off, "invalid number %q", p.src[off:end])
		}
		return token{kind: tNumber, val: p.src[off:end], num: float64(n), start: off, end: end}
	}
	for end < len(p.src) && (isDigit(p.src[end]) || p.src[end] == '.' || p.src[end] == '_') {
		end++
	}
	if end < len(p.src) && (p.src[end] == 'e' || p.src[end] == 'E') {
		end++
		if end < len(p.src) && (p.src[end] == '+' || p.src[end] == '-') {
			end++
		}
		for end < len(p.src) && isDigit(p.src[end]) {
			end++
		}
	}
	raw := p.src[off:end]
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64)
	if err != nil {
		p.errorf(off, "invalid number %q", raw)
	}
	return token{kind: tNumber, val: raw, num: n, start: off, end: end}
}

func (p *parser) lexString(off int) token {
	quote := p.src[off]
	var sb strings.Builder
	i := off + 1
	for i < len(p.src) {
		ch := p.src[i]
		switch {
		case ch == quote:
			return token{kind: tString, val: sb.String(), start: off, end: i + 1}
		case ch == '\n':
			p.errorf(off, "unterminated string literal")
		case ch == '\\':
			n := p.unescape(&sb, i)
			i += n
			continue
		default:
			sb.WriteByte(ch)
		}
		i++
	}
	p.errorf(off, "unterminated string literal")
	return token{}
}

// unescape decodes the escape sequence starting at src[i] == '\\' into sb
// and returns the number of bytes consumed.
func (p *parser) unescape(sb *strings.Builder, i int) int {
	if i+1 >= len(p.src) {
		p.errorf(i, "unterminated escape sequence")
	}
	c := p.src[i+1]
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
	case 'u':
		if i+6 > len(p.src) {
			p.errorf(i, "invalid unicode escape")
		}
		n, err := strconv.ParseUint(p.src[i+2:i+6], 16, 32)
		if err != nil {
			p.errorf(i, "invalid unicode escape")
		}
		sb.WriteRune(rune(n))
		return 6
	case 'x':
		if i+4 > len(p.src) {
			p.errorf(i, "invalid hex escape")
		}
		n, err := strconv.ParseUint(p.src[i+2:i+4], 16, 8)
		if err != nil {
			p.errorf(i, "invalid hex escape")
		}
		sb.WriteRune(rune(n))
		return 4
	default:
		sb.WriteByte(c)
	}
	return 2
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}

// isTagNameByte reports whether ch may appear in a JSX tag or attribute
// name after the first byte.
func isTagNameByte(ch byte) bool {
	return scanner.IsIdentByte(ch) || ch == '-' || ch == ':' || ch == '.'
}
