package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
)

// ctxCheckInterval is how many steps pass between context checks.
const ctxCheckInterval = 256

type interp struct {
	ctx   context.Context
	scope Scope
	opts  Options
	pos   posMapper
	steps int
	depth int
	// sizes memoizes size results by array, object and node identity.
	sizes map[any]int
	// owner is the interp of the Evaluate call a fork was made from.
	owner *interp
	// detached is set once Evaluate returns. Functions called after
	// that run on a fork with fresh counters and no deadline.
	detached atomic.Bool
}

func (in *interp) detach() { in.detached.Store(true) }

// root returns the interp that ran the evaluation.
func (in *interp) root() *interp {
	if in.owner != nil {
		return in.owner
	}
	return in
}

// current returns the interp a call arriving through render.Func.Call
// should run on: in itself during evaluation, a fresh fork afterwards.
func (in *interp) current() *interp {
	if !in.detached.Load() {
		return in
	}
	f := &interp{ctx: context.Background(), scope: in.scope, opts: in.opts, pos: in.pos, owner: in.root()}
	f.detached.Store(true)
	return f
}

// env holds arrow function parameters. Lookups fall through to the
// parent chain and then to the scope.
type env struct {
	vars   map[string]any
	parent *env
}

func (e *env) lookup(name string) (any, bool) {
	for ; e != nil; e = e.parent {
		if v, ok := e.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (in *interp) errorf(kind ErrorKind, n ast.Node, format string, args ...any) *RuntimeError {
	e := &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = in.pos.mapPos(n.Position())
	}
	return e
}

func (in *interp) step(n ast.Node) error { return in.charge(1, n) }

// charge bills k steps of work to the budget.
func (in *interp) charge(k int, n ast.Node) error {
	before := in.steps
	in.steps += k
	if in.steps > in.opts.MaxSteps {
		return in.errorf(KindTimeout, n, "execution budget of %d steps exceeded", in.opts.MaxSteps)
	}
	if in.steps/ctxCheckInterval != before/ctxCheckInterval {
		if err := in.ctx.Err(); err != nil {
			return in.timeoutErr(n, err)
		}
	}
	return nil
}

func (in *interp) timeoutErr(n ast.Node, err error) *RuntimeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return in.errorf(KindTimeout, n, "evaluation timed out after %s", in.opts.Timeout)
	}
	return in.errorf(KindTimeout, n, "evaluation canceled: %v", err)
}

func (in *interp) enter(n ast.Node) error {
	in.depth++
	if in.depth > in.opts.MaxDepth {
		return in.errorf(KindTimeout, n, "maximum nesting depth of %d exceeded", in.opts.MaxDepth)
	}
	return nil
}

func (in *interp) leave() { in.depth-- }

func (in *interp) resolve(name string, e *env, n ast.Node) (any, error) {
	if v, ok := e.lookup(name); ok {
		return v, nil
	}
	if v, ok := in.scope.Lookup(name); ok {
		return v, nil
	}
	return nil, in.errorf(KindReference, n, "%s is not defined", name)
}

func (in *interp) eval(x ast.Expr, e *env) (any, error) {
	if err := in.step(x); err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case *ast.Ident:
		return in.resolve(x.Name, e, x)
	case *ast.StringLit:
		return x.Value, nil
	case *ast.NumberLit:
		return x.Value, nil
	case *ast.BoolLit:
		return x.Value, nil
	case *ast.NullLit:
		return nil, nil
	case *ast.UndefinedLit:
		return render.Undefined, nil
	case *ast.ExprContainer:
		if x.X == nil {
			return render.Undefined, nil
		}
		return in.eval(x.X, e)
	case *ast.TemplateLit:
		parts := make([]string, 0, len(x.Quasis)+len(x.Exprs))
		for i, q := range x.Quasis {
			parts = append(parts, q)
			if i < len(x.Exprs) {
				v, err := in.eval(x.Exprs[i], e)
				if err != nil {
					return nil, err
				}
				str, err := in.toString(v, x)
				if err != nil {
					return nil, err
				}
				parts = append(parts, str)
			}
		}
		return in.concat(x, parts...)
	case *ast.ArrayLit:
		arr, err := in.evalList(x.Elems, e)
		if err != nil {
			return nil, err
		}
		if err := in.checkSize(arr, x); err != nil {
			return nil, err
		}
		return arr, nil
	case *ast.ObjectLit:
		return in.evalObject(x, e)
	case *ast.MemberExpr:
		obj, err := in.eval(x.X, e)
		if err != nil {
			return nil, err
		}
		if x.Optional && render.IsNullish(obj) {
			return render.Undefined, nil
		}
		key := x.Prop
		if x.Index != nil {
			k, err := in.eval(x.Index, e)
			if err != nil {
				return nil, err
			}
			if key, err = in.toString(k, x); err != nil {
				return nil, err
			}
		}
		return in.member(obj, key, x)
	case *ast.CallExpr:
		return in.evalCall(x, e)
	case *ast.ArrowFunc:
		return in.closure(x, e), nil
	case *ast.UnaryExpr:
		return in.evalUnary(x, e)
	case *ast.BinaryExpr:
		return in.evalBinary(x, e)
	case *ast.CondExpr:
		c, err := in.eval(x.Cond, e)
		if err != nil {
			return nil, err
		}
		if render.Truthy(c) {
			return in.eval(x.Then, e)
		}
		return in.eval(x.Else, e)
	case *ast.Element:
		return in.evalElement(x, e)
	case *ast.SpreadElement:
		return nil, in.errorf(KindType, x, "unexpected spread")
	}
	return nil, in.errorf(KindType, x, "unsupported expression %T", x)
}

func (in *interp) evalList(elems []ast.Expr, e *env) ([]any, error) {
	out := make([]any, 0, len(elems))
	for _, el := range elems {
		if sp, ok := el.(*ast.SpreadElement); ok {
			v, err := in.eval(sp.X, e)
			if err != nil {
				return nil, err
			}
			switch s := v.(type) {
			case []any:
				if err := in.charge(len(s), sp); err != nil {
					return nil, err
				}
				out = append(out, s...)
			case string:
				if err := in.charge(len(s), sp); err != nil {
					return nil, err
				}
				for _, r := range s {
					out = append(out, string(r))
				}
			default:
				return nil, in.errorf(KindType, sp, "%s is not iterable", describe(sp.X))
			}
			continue
		}
		v, err := in.eval(el, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (in *interp) evalObject(x *ast.ObjectLit, e *env) (*render.Object, error) {
	obj := render.NewObject()
	for _, p := range x.Props {
		v, err := in.eval(p.Value, e)
		if err != nil {
			return nil, err
		}
		if !p.Spread {
			obj.Set(p.Key, v)
			continue
		}
		switch s := v.(type) {
		case *render.Object:
			obj.Merge(s)
		case []any:
			if err := in.charge(len(s), p.Value); err != nil {
				return nil, err
			}
			for i, el := range s {
				obj.Set(strconv.Itoa(i), el)
			}
		}
	}
	if err := in.checkSize(obj, x); err != nil {
		return nil, err
	}
	return obj, nil
}

func (in *interp) member(obj any, key string, n *ast.MemberExpr) (any, error) {
	if render.IsNullish(obj) {
		return nil, in.errorf(KindType, n, "Cannot read properties of %s (reading '%s')", render.ToString(obj), key)
	}
	switch o := obj.(type) {
	case *render.Object:
		if v, ok := o.Get(key); ok {
			return v, nil
		}
	case []any:
		if v, ok := in.arrayMember(o, key, n); ok {
			return v, nil
		}
	case string:
		if v, ok := in.stringMember(o, key, n); ok {
			return v, nil
		}
	}
	return render.Undefined, nil
}

func (in *interp) evalCall(x *ast.CallExpr, e *env) (any, error) {
	callee, err := in.eval(x.Fn, e)
	if err != nil {
		return nil, err
	}
	if x.Optional && render.IsNullish(callee) {
		return render.Undefined, nil
	}
	fn, ok := callee.(*render.Func)
	if !ok {
		return nil, in.errorf(KindType, x, "%s is not a function", describe(x.Fn))
	}
	args, err := in.evalList(x.Args, e)
	if err != nil {
		return nil, err
	}
	return in.call(fn, args, x)
}

func (in *interp) call(fn *render.Func, args []any, n ast.Node) (any, error) {
	if err := in.enter(n); err != nil {
		return nil, err
	}
	defer in.leave()
	v, err := in.invoke(fn, args)
	if err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			return nil, rerr
		}
		return nil, in.errorf(KindRender, n, "%s: %v", describe(n), err)
	}
	return v, nil
}

// arrow is the Body of functions created from arrow expressions.
type arrow struct {
	fn     *ast.ArrowFunc
	parent *env
	owner  *interp
}

func (in *interp) closure(x *ast.ArrowFunc, parent *env) *render.Func {
	a := &arrow{fn: x, parent: parent, owner: in.root()}
	return &render.Func{
		Name: "anonymous",
		Body: a,
		Call: func(args []any) (any, error) {
			return in.current().apply(a, args)
		},
	}
}

// invoke calls fn on in's counters when fn belongs to this evaluation
// and through fn.Call otherwise.
func (in *interp) invoke(fn *render.Func, args []any) (any, error) {
	switch b := fn.Body.(type) {
	case *arrow:
		if b.owner == in.root() {
			return in.apply(b, args)
		}
	case builtin:
		return b(in, args)
	}
	return fn.Invoke(args...)
}

func (in *interp) apply(a *arrow, args []any) (any, error) {
	x := a.fn
	local := &env{vars: make(map[string]any, len(x.Params)), parent: a.parent}
	for i, p := range x.Params {
		if i < len(args) {
			local.vars[p] = args[i]
		} else {
			local.vars[p] = render.Undefined
		}
	}
	if x.Body != nil {
		return in.eval(x.Body, local)
	}
	for _, st := range x.Block {
		var v any = render.Undefined
		if st.X != nil {
			var err error
			if v, err = in.eval(st.X, local); err != nil {
				return nil, err
			}
		}
		if st.Return {
			return v, nil
		}
	}
	return render.Undefined, nil
}

func (in *interp) evalUnary(x *ast.UnaryExpr, e *env) (any, error) {
	if x.Op == "typeof" {
		if id, ok := x.X.(*ast.Ident); ok {
			v, err := in.resolve(id.Name, e, id)
			if err != nil {
				return "undefined", nil
			}
			return render.TypeOf(v), nil
		}
	}
	v, err := in.eval(x.X, e)
	if err != nil {
		return nil, err
	}
	if err := in.chargeBytes(strLen(v), x); err != nil {
		return nil, err
	}
	switch x.Op {
	case "!":
		return !render.Truthy(v), nil
	case "-":
		return -toNumber(v), nil
	case "+":
		return toNumber(v), nil
	case "typeof":
		return render.TypeOf(v), nil
	}
	return nil, in.errorf(KindType, x, "unsupported operator %s", x.Op)
}

func (in *interp) evalBinary(x *ast.BinaryExpr, e *env) (any, error) {
	l, err := in.eval(x.L, e)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "&&":
		if !render.Truthy(l) {
			return l, nil
		}
		return in.eval(x.R, e)
	case "||":
		if render.Truthy(l) {
			return l, nil
		}
		return in.eval(x.R, e)
	case "??":
		if !render.IsNullish(l) {
			return l, nil
		}
		return in.eval(x.R, e)
	}
	r, err := in.eval(x.R, e)
	if err != nil {
		return nil, err
	}
	if x.Op != "+" {
		if err := in.chargeBytes(strLen(l)+strLen(r), x); err != nil {
			return nil, err
		}
	}
	switch x.Op {
	case "+":
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs || isObjectLike(l) || isObjectLike(r) {
			a, err := in.toString(l, x)
			if err != nil {
				return nil, err
			}
			b, err := in.toString(r, x)
			if err != nil {
				return nil, err
			}
			return in.concat(x, a, b)
		}
		return toNumber(l) + toNumber(r), nil
	case "-":
		return toNumber(l) - toNumber(r), nil
	case "*":
		return toNumber(l) * toNumber(r), nil
	case "/":
		return toNumber(l) / toNumber(r), nil
	case "%":
		return math.Mod(toNumber(l), toNumber(r)), nil
	case "===", "==":
		return equal(l, r, x.Op == "=="), nil
	case "!==", "!=":
		return !equal(l, r, x.Op == "!="), nil
	case "<", ">", "<=", ">=":
		return compare(x.Op, l, r), nil
	}
	return nil, in.errorf(KindType, x, "unsupported operator %s", x.Op)
}

// evalElement renders one element and returns it as a render.Node.
func (in *interp) evalElement(x *ast.Element, e *env) (any, error) {
	v, err := in.buildElement(x, e)
	if err != nil {
		return nil, err
	}
	if err := in.checkSize(v, x); err != nil {
		return nil, err
	}
	return v, nil
}

func (in *interp) buildElement(x *ast.Element, e *env) (any, error) {
	if err := in.step(x); err != nil {
		return nil, err
	}
	if err := in.enter(x); err != nil {
		return nil, err
	}
	defer in.leave()

	children, err := in.evalChildren(x.Children, e)
	if err != nil {
		return nil, err
	}
	if x.IsFragment() {
		return &render.Fragment{Children: children}, nil
	}
	props, err := in.evalProps(x, e)
	if err != nil {
		return nil, err
	}
	if err := in.checkSize(props, x); err != nil {
		return nil, err
	}
	if x.IsIntrinsic() {
		return render.NewElement(x.Name, props, children), nil
	}

	typ, err := in.resolveTag(x, e)
	if err != nil {
		return nil, err
	}
	switch t := typ.(type) {
	case registry.Component:
		return in.renderComponent(t, props, children, x)
	case *render.Func:
		switch len(children) {
		case 0:
		case 1:
			props.Set("children", children[0])
		default:
			kids := make([]any, len(children))
			for i, c := range children {
				kids[i] = c
			}
			props.Set("children", kids)
		}
		v, err := in.call(t, []any{props}, x)
		if err != nil {
			return nil, err
		}
		nodes, err := in.toNodes(v, x)
		if err != nil {
			return nil, err
		}
		return &render.Fragment{Children: nodes}, nil
	case string:
		return render.NewElement(t, props, children), nil
	}
	if typ == render.FragmentPrimitive {
		return &render.Fragment{Children: children}, nil
	}
	return nil, in.errorf(KindType, x, "element type is invalid: %s is %s", x.Name, render.TypeOf(typ))
}

func (in *interp) resolveTag(x *ast.Element, e *env) (any, error) {
	parts := strings.Split(x.Name, ".")
	v, err := in.resolve(parts[0], e, x)
	if err != nil {
		return nil, err
	}
	for _, p := range parts[1:] {
		obj, ok := v.(*render.Object)
		if !ok {
			return nil, in.errorf(KindType, x, "element type is invalid: %s is undefined", x.Name)
		}
		if v, ok = obj.Get(p); !ok {
			return nil, in.errorf(KindType, x, "element type is invalid: %s is undefined", x.Name)
		}
	}
	return v, nil
}

func (in *interp) renderComponent(c registry.Component, props *render.Object, children []render.Node, x *ast.Element) (node any, err error) {
	defer func() {
		if r := recover(); r != nil {
			node = nil
			err = in.errorf(KindRender, x, "%s: %v", c.Name(), r)
		}
	}()
	n, err := c.Render(props, children)
	if err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			return nil, rerr
		}
		return nil, in.errorf(KindRender, x, "%s: %v", c.Name(), err)
	}
	return n, nil
}

func (in *interp) evalProps(x *ast.Element, e *env) (*render.Object, error) {
	props := render.NewObject()
	for _, a := range x.Attrs {
		if a.Spread {
			v, err := in.eval(a.Value, e)
			if err != nil {
				return nil, err
			}
			if obj, ok := v.(*render.Object); ok {
				props.Merge(obj)
			}
			continue
		}
		if a.Value == nil {
			props.Set(a.Name, true)
			continue
		}
		v, err := in.eval(a.Value, e)
		if err != nil {
			return nil, err
		}
		props.Set(a.Name, v)
	}
	return props, nil
}

func (in *interp) evalChildren(children []ast.Node, e *env) ([]render.Node, error) {
	var out []render.Node
	for _, c := range children {
		switch c := c.(type) {
		case *ast.Text:
			out = render.AppendChild(out, render.Text(c.Value))
		case *ast.ExprContainer:
			if c.X == nil {
				continue
			}
			v, err := in.eval(c.X, e)
			if err != nil {
				return nil, err
			}
			nodes, err := in.toNodes(v, c)
			if err != nil {
				return nil, err
			}
			for _, n := range nodes {
				out = render.AppendChild(out, n)
			}
		case *ast.Element:
			v, err := in.evalElement(c, e)
			if err != nil {
				return nil, err
			}
			node, _ := v.(render.Node)
			out = render.AppendChild(out, node)
		}
	}
	return out, nil
}

// toNodes converts an expression value into renderable children.
// null, undefined and booleans render nothing. The work is billed by
// the expanded size of v and the result is held to MaxNodes.
func (in *interp) toNodes(v any, n ast.Node) ([]render.Node, error) {
	switch v.(type) {
	case []any, render.Node:
		if err := in.checkSize(v, n); err != nil {
			return nil, err
		}
		if err := in.charge(in.size(v), n); err != nil {
			return nil, err
		}
	}
	return in.appendNodes(nil, v, n)
}

func (in *interp) appendNodes(out []render.Node, v any, n ast.Node) ([]render.Node, error) {
	switch x := v.(type) {
	case nil, bool:
		return out, nil
	case string:
		return render.AppendChild(out, render.Text(x)), nil
	case float64:
		return render.AppendChild(out, render.Text(render.FormatNumber(x))), nil
	case render.Node:
		return render.AppendChild(out, x), nil
	case []any:
		var err error
		for _, el := range x {
			if out, err = in.appendNodes(out, el, n); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *render.Object:
		return nil, in.errorf(KindType, n, "objects are not valid as a child (found object with keys {%s})", strings.Join(x.Keys(), ", "))
	case *render.Func:
		return out, nil
	}
	if render.IsNullish(v) {
		return out, nil
	}
	return nil, in.errorf(KindType, n, "%s is not valid as a child", render.TypeOf(v))
}

// describe renders a callee expression for error messages.
func describe(x ast.Node) string {
	switch x := x.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.MemberExpr:
		if x.Index != nil {
			return describe(x.X) + "[...]"
		}
		return describe(x.X) + "." + x.Prop
	case *ast.CallExpr:
		return describe(x.Fn) + "(...)"
	case *ast.Element:
		return "<" + x.Name + ">"
	}
	return "expression"
}

func isObjectLike(v any) bool {
	switch v.(type) {
	case []any, *render.Object:
		return true
	}
	return false
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case []any:
		switch len(x) {
		case 0:
			return 0
		case 1:
			return toNumber(x[0])
		}
	}
	return math.NaN()
}

// equal implements === and, when loose, the null == undefined rule of ==.
func equal(l, r any, loose bool) bool {
	if loose && render.IsNullish(l) && render.IsNullish(r) {
		return true
	}
	switch a := l.(type) {
	case float64:
		b, ok := r.(float64)
		return ok && a == b
	case string:
		b, ok := r.(string)
		return ok && a == b
	case bool:
		b, ok := r.(bool)
		return ok && a == b
	case []any:
		b, ok := r.([]any)
		return ok && len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
	case *render.Object, *render.Func, *render.Element, *render.Fragment:
		return l == r
	}
	if render.IsNullish(l) {
		return l == r
	}
	return false
}

func compare(op string, l, r any) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		}
		return ls >= rs
	}
	a, b := toNumber(l), toNumber(r)
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	}
	return a >= b
}
