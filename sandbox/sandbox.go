// Package sandbox evaluates a snippet against a scope and renders it.
//
// Evaluation sees nothing but the scope it is given: there are no
// globals, no host objects and no way to reach the process. Work is
// bounded by a step budget, a wall-clock timeout and a nesting limit.
// Values are bounded by a size limit and a string length limit, so
// converting them to nodes or text stays proportional to the budget.
//
// Functions in the artifact may be called after Evaluate returns, for
// example through render.Element.Dispatch. Each such call runs with
// its own step and depth counters and is safe to make concurrently.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/parser"
	"github.com/rubiojr/livepreview/render"
)

const (
	wrapPrefix = "<><div style={{margin: '1rem', padding: '1rem'}}>\n"
	wrapSuffix = "\n</div></>"
	// wrapLines is the number of lines wrapPrefix adds before the snippet.
	wrapLines = 1
)

const (
	DefaultMaxSteps     = 100_000
	DefaultTimeout      = 2 * time.Second
	DefaultMaxDepth     = 256
	DefaultMaxNodes     = 50_000
	DefaultMaxStringLen = 1 << 20
)

// Options bounds an evaluation. Zero fields take the defaults.
type Options struct {
	MaxSteps int
	Timeout  time.Duration
	MaxDepth int
	// MaxNodes bounds the expanded size of every array, object and
	// rendered tree, counting one per value or node and one per 64
	// bytes of text.
	MaxNodes int
	// MaxStringLen bounds the byte length of any string built at run time.
	MaxStringLen int
	// Checks run on the parsed tree before interpretation.
	Checks ast.CheckChain
}

func (o Options) withDefaults() Options {
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.MaxStringLen <= 0 {
		o.MaxStringLen = DefaultMaxStringLen
	}
	return o
}

// Scope resolves the identifiers a snippet may use.
type Scope interface {
	Lookup(name string) (any, bool)
}

// Wrap embeds snippet in the preview container: a fragment holding a
// div with a 1rem margin and padding. The added newlines are JSX
// whitespace and do not render.
func Wrap(snippet string) string {
	return wrapPrefix + snippet + wrapSuffix
}

// Evaluate wraps, parses and renders snippet. Failures are returned as
// *CompileError or *RuntimeError; errors from Options.Checks are
// returned unchanged.
func Evaluate(ctx context.Context, snippet string, sc Scope, opts Options) (node render.Node, err error) {
	opts = opts.withDefaults()
	m := newPosMapper(snippet)

	x, err := parser.ParseExpression(Wrap(snippet))
	if err != nil {
		var perr *parser.Error
		if errors.As(err, &perr) {
			line, col := m.mapPos(perr.Pos)
			return nil, &CompileError{Message: perr.Msg, Line: line, Column: col, Fragment: m.line(line)}
		}
		return nil, &CompileError{Message: err.Error()}
	}
	if err := opts.Checks.Run(x); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	in := &interp{ctx: ctx, scope: sc, opts: opts, pos: m}
	defer in.detach()

	defer func() {
		if r := recover(); r != nil {
			node = nil
			err = &RuntimeError{Kind: KindRender, Message: fmt.Sprint(r)}
		}
	}()

	v, err := in.eval(x, nil)
	if err != nil {
		return nil, err
	}
	nodes, err := in.toNodes(v, x)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return &render.Fragment{Children: nodes}, nil
}

// posMapper converts positions in the wrapped source back to snippet
// coordinates.
type posMapper struct {
	lines []string
}

func newPosMapper(snippet string) posMapper {
	return posMapper{lines: strings.Split(snippet, "\n")}
}

func (m posMapper) mapPos(p ast.Pos) (line, col int) {
	line, col = p.Line-wrapLines, p.Col
	switch {
	case line < 1:
		return 1, 1
	case line > len(m.lines):
		last := len(m.lines)
		return last, len(m.lines[last-1]) + 1
	}
	return line, col
}

func (m posMapper) line(n int) string {
	if n < 1 || n > len(m.lines) {
		return ""
	}
	return m.lines[n-1]
}
