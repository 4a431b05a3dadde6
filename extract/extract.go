// Package extract finds the component and event handler identifiers a
// snippet references.
//
// Snippets are parsed when possible and the tree is walked. Input the
// parser rejects (half-typed markup is the normal case while a user is
// editing) falls back to a lexical scan that tolerates unterminated tags
// and stray braces. Both paths report names in first-seen order.
package extract

import (
	"strings"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/parser"
	"github.com/rubiojr/livepreview/scanner"
)

// Source identifies which path produced a References value.
type Source string

const (
	SourceAST     Source = "ast"
	SourceLexical Source = "lexical"
)

// References is the set of identifiers a snippet uses. Both lists are
// deduplicated and ordered by first appearance.
type References struct {
	Components []string `json:"components"`
	Handlers   []string `json:"handlers"`
	Source     Source   `json:"source"`
}

// Empty reports whether no identifiers were found.
func (r References) Empty() bool {
	return len(r.Components) == 0 && len(r.Handlers) == 0
}

// Extract returns the references in snippet. It never fails.
func Extract(snippet string) References {
	doc, err := parser.ParseSnippet(snippet)
	if err != nil {
		return Lexical(snippet)
	}
	return FromNode(doc)
}

// FromNode collects references from a parsed tree, including markup
// nested inside attribute and child expressions.
func FromNode(n ast.Node) References {
	var comps, handlers orderedSet
	ast.Inspect(n, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Element:
			if x.IsComponent() {
				comps.add(x.RootName())
			}
		case *ast.Attr:
			if x.Spread || !IsHandlerAttr(x.Name) {
				return true
			}
			if c, ok := x.Value.(*ast.ExprContainer); ok {
				if name := ast.IdentExpr(c); name != "" {
					handlers.add(name)
				}
			}
		}
		return true
	})
	return References{Components: comps.list(), Handlers: handlers.list(), Source: SourceAST}
}

// IsHandlerAttr reports whether name is "on" followed by one or more
// word characters.
func IsHandlerAttr(name string) bool {
	if len(name) < 3 || !strings.HasPrefix(name, "on") {
		return false
	}
	for i := 2; i < len(name); i++ {
		if !scanner.IsWordByte(name[i]) {
			return false
		}
	}
	return true
}

// Lexical scans snippet without parsing it.
//
// A component is '<' followed by optional whitespace and an identifier
// starting with an uppercase letter, outside string literals. A handler
// is on<Word>={ident} inside a tag.
func Lexical(snippet string) References {
	var comps, handlers orderedSet
	s := scanner.New(snippet)
	for {
		ch, ok := s.Next()
		if !ok {
			break
		}
		if s.InString() {
			continue
		}
		pos := s.Pos()
		switch {
		case ch == '<':
			if name := componentAt(snippet, pos+1); name != "" {
				comps.add(name)
			}
		case ch == 'o' && s.Mode() == scanner.Tag && pos > 0 && scanner.IsSpace(snippet[pos-1]):
			if name := handlerAt(snippet, pos); name != "" {
				handlers.add(name)
			}
		}
	}
	return References{Components: comps.list(), Handlers: handlers.list(), Source: SourceLexical}
}

// componentAt reads a capitalized identifier at or after optional
// whitespace from i.
func componentAt(src string, i int) string {
	i = scanner.SkipSpace(src, i)
	if i >= len(src) || src[i] < 'A' || src[i] > 'Z' {
		return ""
	}
	return scanner.ReadWord(src, i)
}

// handlerAt matches on\w+\s*=\s*{\s*ident\s*} at i.
func handlerAt(src string, i int) string {
	attr := scanner.ReadWord(src, i)
	if !IsHandlerAttr(attr) {
		return ""
	}
	j := scanner.SkipSpace(src, i+len(attr))
	if j >= len(src) || src[j] != '=' {
		return ""
	}
	j = scanner.SkipSpace(src, j+1)
	if j >= len(src) || src[j] != '{' {
		return ""
	}
	j = scanner.SkipSpace(src, j+1)
	start := j
	for j < len(src) && scanner.IsIdentByte(src[j]) {
		j++
	}
	if j == start || src[start] >= '0' && src[start] <= '9' {
		return ""
	}
	ident := src[start:j]
	j = scanner.SkipSpace(src, j)
	if j >= len(src) || src[j] != '}' {
		return ""
	}
	switch ident {
	case "true", "false", "null", "undefined":
		return ""
	}
	return ident
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) list() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
