package parser

import (
	"strconv"
	"strings"

	"github.com/rubiojr/livepreview/ast"
)

// Binary operator precedences. Higher binds tighter.
var binaryPrec = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
}

var unsupportedKeywords = map[string]bool{
	"function": true, "class": true, "new": true, "var": true, "let": true,
	"const": true, "if": true, "for": true, "while": true, "await": true,
	"async": true, "yield": true, "import": true, "export": true,
	"delete": true, "void": true, "switch": true, "throw": true, "try": true,
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

// parseAssign parses an assignment-level expression: an arrow function
// or a conditional. Assignment itself is not part of the grammar.
func (p *parser) parseAssign() ast.Expr {
	p.enter(p.tok.start)
	defer p.leave()

	switch {
	case p.tok.kind == tIdent && !unsupportedKeywords[p.tok.val]:
		if nt, ok := p.peek(p.off); ok && nt.is("=>") {
			start := p.tok.start
			params := []string{p.tok.val}
			p.next()
			p.next()
			return p.parseArrowBody(start, params)
		}
	case p.tok.is("("):
		if params, end, ok := p.tryArrowParams(); ok {
			start := p.tok.start
			p.off = end
			p.next()
			return p.parseArrowBody(start, params)
		}
	}

	x := p.parseBinary(1)
	if p.tok.is("?") {
		q := p.tok.start
		p.next()
		then := p.parseAssign()
		p.expect(":")
		els := p.parseAssign()
		x = &ast.CondExpr{Pos: p.pos(q), Cond: x, Then: then, Else: els}
	}
	return x
}

// peek lexes the token at off without consuming it. Lex errors report
// ok=false instead of aborting the parse.
func (p *parser) peek(off int) (t token, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			ok = false
		}
	}()
	return p.lex(off), true
}

// tryArrowParams checks whether the current '(' starts an arrow
// parameter list. On success it returns the parameter names and the
// offset right after "=>".
func (p *parser) tryArrowParams() ([]string, int, bool) {
	var params []string
	off := p.tok.end
	t, ok := p.peek(off)
	if !ok {
		return nil, 0, false
	}
	if !t.is(")") {
		for {
			if t.kind != tIdent {
				return nil, 0, false
			}
			params = append(params, t.val)
			if t, ok = p.peek(t.end); !ok {
				return nil, 0, false
			}
			if t.is(")") {
				break
			}
			if !t.is(",") {
				return nil, 0, false
			}
			if t, ok = p.peek(t.end); !ok {
				return nil, 0, false
			}
		}
	}
	arrow, ok := p.peek(t.end)
	if !ok || !arrow.is("=>") {
		return nil, 0, false
	}
	return params, arrow.end, true
}

func (p *parser) parseArrowBody(start int, params []string) ast.Expr {
	fn := &ast.ArrowFunc{Pos: p.pos(start), Params: params}
	if !p.tok.is("{") {
		fn.Body = p.parseAssign()
		return fn
	}
	p.next()
	for !p.tok.is("}") {
		if p.tok.kind == tEOF {
			p.errorf(start, "unterminated function body")
		}
		if p.tok.is(";") {
			p.next()
			continue
		}
		st := ast.Stmt{Pos: p.pos(p.tok.start)}
		if p.tok.kind == tIdent && p.tok.val == "return" {
			st.Return = true
			p.next()
			if !p.tok.is(";") && !p.tok.is("}") {
				st.X = p.parseExpr()
			}
		} else {
			st.X = p.parseExpr()
		}
		fn.Block = append(fn.Block, st)
		if p.tok.is(";") {
			p.next()
		}
	}
	p.next()
	return fn
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	x := p.parseUnary()
	for {
		op := p.tok
		prec := 0
		if op.kind == tPunct {
			prec = binaryPrec[op.val]
		}
		if prec == 0 || prec < minPrec {
			return x
		}
		p.next()
		y := p.parseBinary(prec + 1)
		x = &ast.BinaryExpr{Pos: p.pos(op.start), Op: op.val, L: x, R: y}
	}
}

func (p *parser) parseUnary() ast.Expr {
	t := p.tok
	if t.is("!") || t.is("-") || t.is("+") || t.kind == tIdent && t.val == "typeof" {
		p.enter(t.start)
		defer p.leave()
		p.next()
		return &ast.UnaryExpr{Pos: p.pos(t.start), Op: t.val, X: p.parseUnary()}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		t := p.tok
		switch {
		case t.is("."):
			p.next()
			x = &ast.MemberExpr{Pos: p.pos(t.start), X: x, Prop: p.propertyName()}
		case t.is("?."):
			p.next()
			switch {
			case p.tok.is("("):
				x = &ast.CallExpr{Pos: p.pos(t.start), Fn: x, Args: p.parseArgs(), Optional: true}
			case p.tok.is("["):
				p.next()
				idx := p.parseExpr()
				p.expect("]")
				x = &ast.MemberExpr{Pos: p.pos(t.start), X: x, Index: idx, Optional: true}
			default:
				x = &ast.MemberExpr{Pos: p.pos(t.start), X: x, Prop: p.propertyName(), Optional: true}
			}
		case t.is("["):
			p.next()
			idx := p.parseExpr()
			p.expect("]")
			x = &ast.MemberExpr{Pos: p.pos(t.start), X: x, Index: idx}
		case t.is("("):
			x = &ast.CallExpr{Pos: p.pos(t.start), Fn: x, Args: p.parseArgs()}
		default:
			return x
		}
	}
}

func (p *parser) propertyName() string {
	if p.tok.kind != tIdent {
		p.errorf(p.tok.start, "expected property name, found %s", p.tok.describe())
	}
	name := p.tok.val
	p.next()
	return name
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect("(")
	var args []ast.Expr
	for !p.tok.is(")") {
		if p.tok.is("...") {
			start := p.tok.start
			p.next()
			args = append(args, &ast.SpreadElement{Pos: p.pos(start), X: p.parseAssign()})
		} else {
			args = append(args, p.parseAssign())
		}
		if !p.tok.is(",") {
			break
		}
		p.next()
	}
	p.expect(")")
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.tok
	pos := p.pos(t.start)
	switch t.kind {
	case tEOF:
		p.errorf(t.start, "unexpected end of input")
	case tIdent:
		if unsupportedKeywords[t.val] {
			p.errorf(t.start, "unsupported syntax: %s", t.val)
		}
		p.next()
		switch t.val {
		case "true", "false":
			return &ast.BoolLit{Pos: pos, Value: t.val == "true"}
		case "null":
			return &ast.NullLit{Pos: pos}
		case "undefined":
			return &ast.UndefinedLit{Pos: pos}
		}
		return &ast.Ident{Pos: pos, Name: t.val}
	case tNumber:
		p.next()
		return &ast.NumberLit{Pos: pos, Value: t.num, Raw: t.val}
	case tString:
		p.next()
		return &ast.StringLit{Pos: pos, Value: t.val}
	}

	switch t.val {
	case "(":
		p.next()
		x := p.parseExpr()
		p.expect(")")
		return x
	case "[":
		return p.parseArray()
	case "{":
		return p.parseObject()
	case "`":
		return p.parseTemplate()
	case "<":
		p.off = t.start + 1
		el := p.parseElement(t.start)
		p.next()
		return el
	}
	p.errorf(t.start, "unexpected %s", t.describe())
	return nil
}

func (p *parser) parseArray() ast.Expr {
	arr := &ast.ArrayLit{Pos: p.pos(p.tok.start)}
	p.next()
	for !p.tok.is("]") {
		if p.tok.is("...") {
			start := p.tok.start
			p.next()
			arr.Elems = append(arr.Elems, &ast.SpreadElement{Pos: p.pos(start), X: p.parseAssign()})
		} else {
			arr.Elems = append(arr.Elems, p.parseAssign())
		}
		if !p.tok.is(",") {
			break
		}
		p.next()
	}
	p.expect("]")
	return arr
}

func (p *parser) parseObject() ast.Expr {
	obj := &ast.ObjectLit{Pos: p.pos(p.tok.start)}
	p.next()
	for !p.tok.is("}") {
		if p.tok.is("...") {
			p.next()
			obj.Props = append(obj.Props, ast.Property{Value: p.parseAssign(), Spread: true})
		} else {
			key := p.tok
			switch key.kind {
			case tIdent, tString:
			case tNumber:
				key.val = formatKey(key.num)
			default:
				p.errorf(key.start, "unexpected %s in object literal", key.describe())
			}
			p.next()
			if key.kind == tIdent && (p.tok.is(",") || p.tok.is("}")) {
				obj.Props = append(obj.Props, ast.Property{Key: key.val, Value: &ast.Ident{Pos: p.pos(key.start), Name: key.val}})
			} else {
				p.expect(":")
				obj.Props = append(obj.Props, ast.Property{Key: key.val, Value: p.parseAssign()})
			}
		}
		if !p.tok.is(",") {
			break
		}
		p.next()
	}
	p.expect("}")
	return obj
}

func formatKey(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// parseTemplate scans a template literal starting at the current '`'
// token and leaves the token stream after the closing backtick.
func (p *parser) parseTemplate() ast.Expr {
	start := p.tok.start
	tpl := &ast.TemplateLit{Pos: p.pos(start)}
	var sb strings.Builder
	i := start + 1
	for {
		if i >= len(p.src) {
			p.errorf(start, "unterminated template literal")
		}
		switch {
		case p.src[i] == '`':
			tpl.Quasis = append(tpl.Quasis, sb.String())
			p.off = i + 1
			p.next()
			return tpl
		case p.src[i] == '\\':
			i += p.unescape(&sb, i)
		case strings.HasPrefix(p.src[i:], "${"):
			tpl.Quasis = append(tpl.Quasis, sb.String())
			sb.Reset()
			p.resumeAt(i + 2)
			p.next()
			tpl.Exprs = append(tpl.Exprs, p.parseExpr())
			p.expectClose()
			i = p.off
		default:
			sb.WriteByte(p.src[i])
			i++
		}
	}
}
