package sandbox

import (
	"strings"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/render"
)

// byteUnit is how many bytes of text count as one unit of size or one
// step of work.
const byteUnit = 64

type sliceKey struct {
	first *any
	n     int
}

// size estimates the work needed to serialize v: one unit per value,
// attribute and node plus one per byteUnit of text. A value reached
// through several paths counts once per path, so arrays and trees that
// reuse themselves are measured at their expanded size. Results are
// memoized and saturate just past MaxNodes.
func (in *interp) size(v any) int {
	limit := in.opts.MaxNodes + 1
	switch x := v.(type) {
	case string:
		return min(1+len(x)/byteUnit, limit)
	case render.Text:
		return min(1+len(x)/byteUnit, limit)
	case []any:
		if len(x) == 0 {
			return 1
		}
		return in.memo(sliceKey{&x[0], len(x)}, func() int {
			s := 1
			for _, el := range x {
				if s += in.size(el); s >= limit {
					return limit
				}
			}
			return s
		})
	case *render.Object:
		return in.memo(x, func() int {
			s := 1
			for _, k := range x.Keys() {
				v, _ := x.Get(k)
				if s += 1 + len(k)/byteUnit + in.size(v); s >= limit {
					return limit
				}
			}
			return s
		})
	case *render.Fragment:
		return in.memo(x, func() int { return in.sumNodes(1, x.Children, limit) })
	case *render.Element:
		return in.memo(x, func() int {
			s := 1
			for _, a := range x.Attrs {
				s += 1 + (len(a.Name)+len(a.Value))/byteUnit
			}
			return in.sumNodes(min(s, limit), x.Children, limit)
		})
	}
	return 1
}

func (in *interp) sumNodes(s int, nodes []render.Node, limit int) int {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		if s += in.size(c); s >= limit {
			return limit
		}
	}
	return s
}

func (in *interp) memo(key any, measure func() int) int {
	if s, ok := in.sizes[key]; ok {
		return s
	}
	s := measure()
	if in.sizes == nil {
		in.sizes = make(map[any]int)
	}
	in.sizes[key] = s
	return s
}

// checkSize fails when v expands past MaxNodes.
func (in *interp) checkSize(v any, n ast.Node) error {
	if in.size(v) > in.opts.MaxNodes {
		return in.errorf(KindTimeout, n, "value exceeds the size limit of %d nodes", in.opts.MaxNodes)
	}
	return nil
}

func (in *interp) checkLen(length int, n ast.Node) error {
	if length > in.opts.MaxStringLen {
		return in.errorf(KindTimeout, n, "string length exceeds the limit of %d bytes", in.opts.MaxStringLen)
	}
	return nil
}

// chargeBytes bills work proportional to length bytes of text.
func (in *interp) chargeBytes(length int, n ast.Node) error {
	return in.charge(length/byteUnit, n)
}

// toString converts v to text like render.ToString, billing the
// traversal of arrays and enforcing MaxStringLen.
func (in *interp) toString(v any, n ast.Node) (string, error) {
	if _, ok := v.([]any); ok {
		if err := in.checkSize(v, n); err != nil {
			return "", err
		}
		if err := in.charge(in.size(v), n); err != nil {
			return "", err
		}
	}
	s := render.ToString(v)
	if err := in.checkLen(len(s), n); err != nil {
		return "", err
	}
	return s, nil
}

// concat joins parts after checking the length of the result.
func (in *interp) concat(n ast.Node, parts ...string) (string, error) {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if err := in.checkLen(total, n); err != nil {
		return "", err
	}
	if err := in.chargeBytes(total, n); err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}

func strLen(v any) int {
	if s, ok := v.(string); ok {
		return len(s)
	}
	return 0
}
