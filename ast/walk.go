package ast

// Inspect traverses the tree rooted at n in source order, calling fn on
// every node before its children. Descent stops below a node for which
// fn returns false.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *Document:
		for _, c := range x.Children {
			Inspect(c, fn)
		}
	case *Element:
		for _, a := range x.Attrs {
			Inspect(a, fn)
		}
		for _, c := range x.Children {
			Inspect(c, fn)
		}
	case *Attr:
		if x.Value != nil {
			Inspect(x.Value, fn)
		}
	case *ExprContainer:
		if x.X != nil {
			Inspect(x.X, fn)
		}
	case *TemplateLit:
		for _, e := range x.Exprs {
			Inspect(e, fn)
		}
	case *SpreadElement:
		Inspect(x.X, fn)
	case *ArrayLit:
		for _, e := range x.Elems {
			Inspect(e, fn)
		}
	case *ObjectLit:
		for _, p := range x.Props {
			Inspect(p.Value, fn)
		}
	case *MemberExpr:
		Inspect(x.X, fn)
		if x.Index != nil {
			Inspect(x.Index, fn)
		}
	case *CallExpr:
		Inspect(x.Fn, fn)
		for _, a := range x.Args {
			Inspect(a, fn)
		}
	case *ArrowFunc:
		if x.Body != nil {
			Inspect(x.Body, fn)
		}
		for _, s := range x.Block {
			if s.X != nil {
				Inspect(s.X, fn)
			}
		}
	case *UnaryExpr:
		Inspect(x.X, fn)
	case *BinaryExpr:
		Inspect(x.L, fn)
		Inspect(x.R, fn)
	case *CondExpr:
		Inspect(x.Cond, fn)
		Inspect(x.Then, fn)
		Inspect(x.Else, fn)
	}
}

// WalkElements calls fn on every element in source order.
func WalkElements(n Node, fn func(*Element)) {
	Inspect(n, func(n Node) bool {
		if el, ok := n.(*Element); ok {
			fn(el)
		}
		return true
	})
}

// IdentExpr returns the identifier held by a bare {ident} container, or
// "" when the expression is anything else.
func IdentExpr(e Expr) string {
	if c, ok := e.(*ExprContainer); ok {
		e = c.X
	}
	if id, ok := e.(*Ident); ok {
		return id.Name
	}
	return ""
}
