// Package scanner provides context-aware byte scanning over markup
// snippets. It tracks whether the current byte sits in JSX text, inside a
// tag, or inside a brace expression, and within tags and expressions it
// tracks double-quoted, single-quoted and backtick string literals plus
// escape sequences, so callers can ask InString() instead of maintaining
// their own flags.
//
// The scanner never fails: malformed input (unterminated tags, stray
// braces, unclosed strings) simply leaves it in whatever mode the bytes
// imply.
package scanner

import "strings"

// Mode is the lexical context of the current byte.
type Mode byte

const (
	// Text is JSX child text (the top level of a snippet).
	Text Mode = iota
	// Tag is between '<' and the matching '>'.
	Tag
	// Expr is inside a {...} expression.
	Expr
)

func (m Mode) String() string {
	switch m {
	case Tag:
		return "tag"
	case Expr:
		return "expr"
	}
	return "text"
}

// frame is one entry of the mode stack.
type frame struct {
	mode    Mode
	closing bool // Tag: this is a </...> tag
	elems   int  // Text: open elements since this frame was pushed
	nested  bool // Text: pushed from an expression (popped when elems hits 0)
}

// MarkupScanner iterates byte-by-byte over snippet text.
//
// InString() returns true for the entire string span including both
// opening and closing delimiters.
type MarkupScanner struct {
	src     string
	pos     int
	line    int
	stack   []frame
	quote   byte // active string delimiter, 0 outside strings
	escaped bool
	closed  bool // the byte just returned closed a string
	tagOpen bool // the byte just returned opened a tag
}

// New creates a MarkupScanner for src positioned before the first byte.
// Call Next() to advance.
func New(src string) *MarkupScanner {
	return &MarkupScanner{src: src, pos: -1, line: 1, stack: []frame{{mode: Text}}}
}

func (s *MarkupScanner) top() *frame { return &s.stack[len(s.stack)-1] }

func (s *MarkupScanner) push(f frame) { s.stack = append(s.stack, f) }

func (s *MarkupScanner) pop() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Next advances to the next byte, updating mode and string state.
// Returns the byte and true, or (0, false) at end of input.
func (s *MarkupScanner) Next() (byte, bool) {
	s.closed = false
	s.tagOpen = false
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]
	if ch == '\n' {
		s.line++
	}

	if s.quote != 0 {
		switch {
		case s.escaped:
			s.escaped = false
		case ch == '\\' && s.top().mode == Expr:
			s.escaped = true
		case ch == s.quote:
			s.quote = 0
			s.closed = true
		}
		return ch, true
	}

	f := s.top()
	switch f.mode {
	case Text:
		switch ch {
		case '<':
			s.openTag()
		case '{':
			s.push(frame{mode: Expr})
		}
	case Tag:
		switch ch {
		case '"', '\'':
			s.quote = ch
		case '{':
			s.push(frame{mode: Expr})
		case '>':
			s.closeTag()
		}
	case Expr:
		switch ch {
		case '"', '\'', '`':
			s.quote = ch
		case '{':
			s.push(frame{mode: Expr})
		case '}':
			s.pop()
		case '<':
			if next, ok := s.Peek(); ok && (isIdentStart(next) || next == '>') {
				s.openTag()
			}
		}
	}
	return ch, true
}

func (s *MarkupScanner) openTag() {
	closing := false
	if next, ok := s.Peek(); ok && next == '/' {
		closing = true
	}
	s.push(frame{mode: Tag, closing: closing})
	s.tagOpen = true
}

func (s *MarkupScanner) closeTag() {
	tag := *s.top()
	selfClosing := s.pos > 0 && s.src[s.pos-1] == '/'
	s.pop()
	parent := s.top()
	switch {
	case tag.closing:
		if parent.mode == Text {
			parent.elems--
			if parent.nested && parent.elems <= 0 {
				s.pop()
			}
		}
	case selfClosing:
	case parent.mode == Text:
		parent.elems++
	case parent.mode == Expr:
		s.push(frame{mode: Text, elems: 1, nested: true})
	}
}

// Mode reports the lexical context of the last byte returned by Next.
// The '<' that opens a tag reports Tag.
func (s *MarkupScanner) Mode() Mode { return s.top().mode }

// InString reports whether the current byte is part of a string literal,
// including both delimiters.
func (s *MarkupScanner) InString() bool { return s.quote != 0 || s.closed }

// InCode reports whether the current byte is outside all string literals.
func (s *MarkupScanner) InCode() bool { return !s.InString() }

// OpenedTag reports whether the byte just returned was a '<' that opened
// a tag (opening or closing).
func (s *MarkupScanner) OpenedTag() bool { return s.tagOpen }

// ClosingTag reports whether the scanner is inside a </...> tag.
func (s *MarkupScanner) ClosingTag() bool {
	f := s.top()
	return f.mode == Tag && f.closing
}

// Depth returns the number of open brace expressions.
func (s *MarkupScanner) Depth() int {
	d := 0
	for _, f := range s.stack {
		if f.mode == Expr {
			d++
		}
	}
	return d
}

// Pos returns the current byte offset (the position of the last byte
// returned by Next). Returns -1 before the first call to Next.
func (s *MarkupScanner) Pos() int { return s.pos }

// Line returns the current 1-based line number.
func (s *MarkupScanner) Line() int { return s.line }

// Src returns the full source text being scanned.
func (s *MarkupScanner) Src() string { return s.src }

// Peek returns the next byte without advancing, or (0, false) at end.
func (s *MarkupScanner) Peek() (byte, bool) {
	if s.pos+1 >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos+1], true
}

// LookingAt checks if src[pos:] starts with the given prefix.
func (s *MarkupScanner) LookingAt(prefix string) bool {
	if s.pos < 0 {
		return strings.HasPrefix(s.src, prefix)
	}
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

// Skip advances past n bytes. Mode and string state are updated for
// each skipped byte. Returns the number of bytes actually skipped.
func (s *MarkupScanner) Skip(n int) int {
	skipped := 0
	for i := 0; i < n; i++ {
		if _, ok := s.Next(); !ok {
			break
		}
		skipped++
	}
	return skipped
}

// IsIdentByte reports whether ch can appear in an identifier after the
// first byte.
func IsIdentByte(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

// IsWordByte reports whether ch matches the regexp class \w.
func IsWordByte(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

// IsSpace reports whether ch is ASCII whitespace.
func IsSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

// ReadWord returns the run of \w bytes starting at pos in src.
func ReadWord(src string, pos int) string {
	end := pos
	for end < len(src) && IsWordByte(src[end]) {
		end++
	}
	return src[pos:end]
}

// SkipSpace returns the first offset at or after pos that is not
// whitespace.
func SkipSpace(src string, pos int) int {
	for pos < len(src) && IsSpace(src[pos]) {
		pos++
	}
	return pos
}
