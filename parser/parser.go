// Package parser turns preview snippets into ast nodes.
//
// The grammar is a JSX subset: elements, fragments, attributes (string,
// expression, boolean shorthand, spread), text and brace expressions,
// plus the JavaScript expression forms listed on ast.Expr
// implementations. JSX parts are scanned byte by byte; expressions are
// tokenized lazily so the two can interleave without a mode-switching
// lexer.
package parser

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/scanner"
)

// maxNesting bounds recursion so deeply nested input fails with a
// parse error instead of exhausting the stack.
const maxNesting = 512

// Error is a parse failure at a source position.
type Error struct {
	Pos ast.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// bailout carries an *Error up through the recursive descent.
type bailout struct{ err *Error }

type parser struct {
	src        string
	lineStarts []int
	off        int   // byte offset right after tok
	tok        token // current expression token
	nest       int
}

func newParser(src string) *parser {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &parser{src: src, lineStarts: starts}
}

// ParseSnippet parses src as a sequence of JSX children, the form a
// snippet takes before it is wrapped for evaluation.
func ParseSnippet(src string) (doc *ast.Document, err error) {
	p := newParser(src)
	defer p.recover(&err)
	children := p.parseChildren(nil)
	return &ast.Document{Children: children, Source: src}, nil
}

// ParseExpression parses src as a single expression (typically one JSX
// element) followed by end of input.
func ParseExpression(src string) (x ast.Expr, err error) {
	p := newParser(src)
	defer p.recover(&err)
	p.next()
	x = p.parseExpr()
	if p.tok.kind != tEOF {
		p.errorf(p.tok.start, "unexpected %s after expression", p.tok.describe())
	}
	return x, nil
}

func (p *parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

func (p *parser) errorf(off int, format string, args ...any) {
	panic(bailout{&Error{Pos: p.pos(off), Msg: fmt.Sprintf(format, args...)}})
}

// pos converts a byte offset into a line/column position.
func (p *parser) pos(off int) ast.Pos {
	line := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > off })
	return ast.Pos{Offset: off, Line: line, Col: off - p.lineStarts[line-1] + 1}
}

func (p *parser) enter(off int) {
	p.nest++
	if p.nest > maxNesting {
		p.errorf(off, "nesting too deep")
	}
}

func (p *parser) leave() { p.nest-- }

// --- expression token stream ---

func (p *parser) next() {
	p.tok = p.lex(p.off)
	p.off = p.tok.end
}

// resumeAt repositions the token stream at off without lexing.
func (p *parser) resumeAt(off int) {
	p.off = off
	p.tok = token{}
}

func (p *parser) expect(punct string) token {
	t := p.tok
	if !t.is(punct) {
		p.errorf(t.start, "expected '%s', found %s", punct, t.describe())
	}
	p.next()
	return t
}

// expectClose checks the current token is '}' without lexing past it,
// so JSX scanning can resume right after the brace.
func (p *parser) expectClose() {
	if !p.tok.is("}") {
		p.errorf(p.tok.start, "expected '}', found %s", p.tok.describe())
	}
}

// --- JSX ---

// parseChildren scans JSX children starting at p.off until the closing
// tag of open (or end of input when open is nil).
func (p *parser) parseChildren(open *ast.Element) []ast.Node {
	var children []ast.Node
	i := p.off
	for {
		if i >= len(p.src) {
			if open != nil {
				p.errorf(open.Offset, "unterminated element %s: expected %s", openTag(open.Name), closeTag(open.Name))
			}
			return children
		}
		switch p.src[i] {
		case '<':
			j := scanner.SkipSpace(p.src, i+1)
			if j < len(p.src) && p.src[j] == '/' {
				name, end := p.readClosingTag(i, j+1)
				if open == nil {
					p.errorf(i, "unexpected closing tag %s", closeTag(name))
				}
				if name != open.Name {
					p.errorf(i, "expected corresponding closing tag for %s, found %s", openTag(open.Name), closeTag(name))
				}
				p.off = end
				return children
			}
			p.off = i + 1
			children = append(children, p.parseElement(i))
			i = p.off
		case '{':
			children = append(children, p.parseContainer(i))
			i = p.off
		default:
			end := i
			for end < len(p.src) && p.src[end] != '<' && p.src[end] != '{' {
				end++
			}
			raw := p.src[i:end]
			children = append(children, &ast.Text{Pos: p.pos(i), Raw: raw, Value: cookText(raw)})
			i = end
		}
	}
}

// parseContainer parses {expr} at offset lb and leaves p.off after '}'.
func (p *parser) parseContainer(lb int) *ast.ExprContainer {
	c := &ast.ExprContainer{Pos: p.pos(lb)}
	p.resumeAt(lb + 1)
	p.next()
	if p.tok.is("}") {
		return c
	}
	if p.tok.is("...") {
		p.errorf(p.tok.start, "spread children are not supported")
	}
	c.X = p.parseExpr()
	p.expectClose()
	return c
}

// readClosingTag reads the name of </name> where nameAt points after the
// slash, returning the name and the offset after '>'.
func (p *parser) readClosingTag(lt, nameAt int) (string, int) {
	i := scanner.SkipSpace(p.src, nameAt)
	start := i
	for i < len(p.src) && isTagNameByte(p.src[i]) {
		i++
	}
	name := p.src[start:i]
	i = scanner.SkipSpace(p.src, i)
	if i >= len(p.src) || p.src[i] != '>' {
		p.errorf(lt, "unterminated closing tag %s", closeTag(name))
	}
	return name, i + 1
}

// parseElement parses an element whose '<' is at lt; p.off points after
// '<'. On return p.off points after the element.
func (p *parser) parseElement(lt int) *ast.Element {
	p.enter(lt)
	defer p.leave()

	el := &ast.Element{Pos: p.pos(lt)}
	i := scanner.SkipSpace(p.src, p.off)
	if i < len(p.src) && p.src[i] == '>' {
		p.off = i + 1
		el.Children = p.parseChildren(el)
		return el
	}
	if i >= len(p.src) || !isIdentStart(p.src[i]) {
		p.errorf(i, "expected tag name after '<'")
	}
	start := i
	for i < len(p.src) && isTagNameByte(p.src[i]) {
		i++
	}
	el.Name = p.src[start:i]

	for {
		i = scanner.SkipSpace(p.src, i)
		if i >= len(p.src) {
			p.errorf(lt, "unterminated tag %s", openTag(el.Name))
		}
		switch ch := p.src[i]; {
		case ch == '/':
			j := scanner.SkipSpace(p.src, i+1)
			if j >= len(p.src) || p.src[j] != '>' {
				p.errorf(i, "expected '>' after '/' in %s", openTag(el.Name))
			}
			el.SelfClosing = true
			p.off = j + 1
			return el
		case ch == '>':
			p.off = i + 1
			el.Children = p.parseChildren(el)
			return el
		case ch == '{':
			el.Attrs = append(el.Attrs, p.parseSpreadAttr(i))
			i = p.off
		case isIdentStart(ch):
			attr := p.parseAttr(i)
			el.Attrs = append(el.Attrs, attr)
			i = p.off
		default:
			p.errorf(i, "unexpected character %q in %s", ch, openTag(el.Name))
		}
	}
}

func (p *parser) parseSpreadAttr(lb int) *ast.Attr {
	p.resumeAt(lb + 1)
	p.next()
	if !p.tok.is("...") {
		p.errorf(p.tok.start, "expected '...' in spread attribute")
	}
	p.next()
	x := p.parseAssign()
	p.expectClose()
	return &ast.Attr{Pos: p.pos(lb), Value: x, Spread: true}
}

// parseAttr parses name[=value] at offset at and leaves p.off after it.
func (p *parser) parseAttr(at int) *ast.Attr {
	i := at
	for i < len(p.src) && isTagNameByte(p.src[i]) {
		i++
	}
	attr := &ast.Attr{Pos: p.pos(at), Name: p.src[at:i]}
	j := scanner.SkipSpace(p.src, i)
	if j >= len(p.src) || p.src[j] != '=' {
		p.off = i
		return attr
	}
	k := scanner.SkipSpace(p.src, j+1)
	if k >= len(p.src) {
		p.errorf(j, "expected value for attribute %s", attr.Name)
	}
	switch ch := p.src[k]; ch {
	case '"', '\'':
		end := strings.IndexByte(p.src[k+1:], ch)
		if end < 0 {
			p.errorf(k, "unterminated string for attribute %s", attr.Name)
		}
		raw := p.src[k+1 : k+1+end]
		attr.Value = &ast.StringLit{Pos: p.pos(k), Value: html.UnescapeString(raw)}
		p.off = k + end + 2
	case '{':
		c := &ast.ExprContainer{Pos: p.pos(k)}
		p.resumeAt(k + 1)
		p.next()
		if p.tok.is("}") {
			p.errorf(k, "attribute %s must be assigned a non-empty expression", attr.Name)
		}
		c.X = p.parseExpr()
		p.expectClose()
		attr.Value = c
	case '<':
		p.off = k + 1
		attr.Value = p.parseElement(k)
	default:
		p.errorf(k, "expected attribute value for %s", attr.Name)
	}
	return attr
}

func openTag(name string) string  { return "<" + name + ">" }
func closeTag(name string) string { return "</" + name + ">" }

// cookText applies the JSX whitespace rules: lines are trimmed (except
// the outer edges of the first and last line), whitespace-only lines are
// dropped and the remaining lines are joined with single spaces. HTML
// entities are decoded afterwards.
func cookText(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	lastNonEmpty := -1
	for i, line := range lines {
		if strings.TrimLeft(line, " \t") != "" {
			lastNonEmpty = i
		}
	}
	var sb strings.Builder
	for i, line := range lines {
		trimmed := strings.ReplaceAll(line, "\t", " ")
		if i != 0 {
			trimmed = strings.TrimLeft(trimmed, " ")
		}
		if i != len(lines)-1 {
			trimmed = strings.TrimRight(trimmed, " ")
		}
		if trimmed == "" {
			continue
		}
		if i != lastNonEmpty {
			trimmed += " "
		}
		sb.WriteString(trimmed)
	}
	return html.UnescapeString(sb.String())
}
