package sandbox

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/render"
)

// builtin is the Body of bound array and string methods. It runs on
// whichever interp calls it.
type builtin func(run *interp, args []any) (any, error)

func (in *interp) method(name string, b builtin) *render.Func {
	return &render.Func{
		Name: name,
		Body: b,
		Call: func(args []any) (any, error) {
			return b(in.current(), args)
		},
	}
}

// arrayMember returns arr[key]: length, an index or a bound method.
// Methods bill one step per element they visit.
func (in *interp) arrayMember(arr []any, key string, n ast.Node) (any, bool) {
	if key == "length" {
		return float64(len(arr)), true
	}
	if i, err := strconv.Atoi(key); err == nil {
		if i >= 0 && i < len(arr) {
			return arr[i], true
		}
		return render.Undefined, true
	}
	var b builtin
	switch key {
	case "map":
		b = func(run *interp, args []any) (any, error) {
			fn, err := callback("map", args)
			if err != nil {
				return nil, err
			}
			if err := run.charge(len(arr), n); err != nil {
				return nil, err
			}
			out := make([]any, len(arr))
			for i, el := range arr {
				v, err := run.invoke(fn, []any{el, float64(i), arr})
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, run.checkSize(out, n)
		}
	case "filter":
		b = func(run *interp, args []any) (any, error) {
			fn, err := callback("filter", args)
			if err != nil {
				return nil, err
			}
			if err := run.charge(len(arr), n); err != nil {
				return nil, err
			}
			out := []any{}
			for i, el := range arr {
				v, err := run.invoke(fn, []any{el, float64(i), arr})
				if err != nil {
					return nil, err
				}
				if render.Truthy(v) {
					out = append(out, el)
				}
			}
			return out, nil
		}
	case "find", "some", "every":
		b = func(run *interp, args []any) (any, error) {
			fn, err := callback(key, args)
			if err != nil {
				return nil, err
			}
			if err := run.charge(len(arr), n); err != nil {
				return nil, err
			}
			for i, el := range arr {
				v, err := run.invoke(fn, []any{el, float64(i), arr})
				if err != nil {
					return nil, err
				}
				switch {
				case key == "find" && render.Truthy(v):
					return el, nil
				case key == "some" && render.Truthy(v):
					return true, nil
				case key == "every" && !render.Truthy(v):
					return false, nil
				}
			}
			switch key {
			case "some":
				return false, nil
			case "every":
				return true, nil
			}
			return render.Undefined, nil
		}
	case "join":
		b = func(run *interp, args []any) (any, error) {
			sep := ","
			if len(args) > 0 && !render.IsNullish(args[0]) {
				var err error
				if sep, err = run.toString(args[0], n); err != nil {
					return nil, err
				}
			}
			if err := run.charge(run.size(arr), n); err != nil {
				return nil, err
			}
			parts := make([]string, len(arr))
			total := len(sep) * max(len(arr)-1, 0)
			for i, el := range arr {
				if render.IsNullish(el) {
					continue
				}
				s, err := run.toString(el, n)
				if err != nil {
					return nil, err
				}
				parts[i] = s
				if total += len(s); total > run.opts.MaxStringLen {
					return nil, run.checkLen(total, n)
				}
			}
			if err := run.checkLen(total, n); err != nil {
				return nil, err
			}
			return strings.Join(parts, sep), nil
		}
	case "includes":
		b = func(run *interp, args []any) (any, error) {
			if err := run.charge(len(arr), n); err != nil {
				return nil, err
			}
			return indexOf(arr, arg(args, 0)) >= 0, nil
		}
	case "indexOf":
		b = func(run *interp, args []any) (any, error) {
			if err := run.charge(len(arr), n); err != nil {
				return nil, err
			}
			return float64(indexOf(arr, arg(args, 0))), nil
		}
	case "slice":
		b = func(run *interp, args []any) (any, error) {
			start, end := sliceBounds(len(arr), args)
			if err := run.charge(end-start, n); err != nil {
				return nil, err
			}
			return append([]any{}, arr[start:end]...), nil
		}
	case "concat":
		b = func(run *interp, args []any) (any, error) {
			out := append([]any{}, arr...)
			for _, a := range args {
				if more, ok := a.([]any); ok {
					out = append(out, more...)
				} else {
					out = append(out, a)
				}
			}
			if err := run.charge(len(out), n); err != nil {
				return nil, err
			}
			return out, run.checkSize(out, n)
		}
	default:
		return nil, false
	}
	return in.method(key, b), true
}

// stringMember returns s[key]: length, an index or a bound method.
// Methods bill steps in proportion to the length of s.
func (in *interp) stringMember(s, key string, n ast.Node) (any, bool) {
	if key == "length" {
		return float64(utf8.RuneCountInString(s)), true
	}
	if i, err := strconv.Atoi(key); err == nil {
		r := []rune(s)
		if i >= 0 && i < len(r) {
			return string(r[i]), true
		}
		return render.Undefined, true
	}
	var b builtin
	switch key {
	case "toUpperCase":
		b = func(run *interp, _ []any) (any, error) {
			return strings.ToUpper(s), run.chargeBytes(len(s), n)
		}
	case "toLowerCase":
		b = func(run *interp, _ []any) (any, error) {
			return strings.ToLower(s), run.chargeBytes(len(s), n)
		}
	case "trim":
		b = func(run *interp, _ []any) (any, error) {
			return strings.TrimSpace(s), run.chargeBytes(len(s), n)
		}
	case "includes", "startsWith", "endsWith":
		b = func(run *interp, args []any) (any, error) {
			sub, err := run.toString(arg(args, 0), n)
			if err != nil {
				return nil, err
			}
			if err := run.chargeBytes(len(s), n); err != nil {
				return nil, err
			}
			switch key {
			case "startsWith":
				return strings.HasPrefix(s, sub), nil
			case "endsWith":
				return strings.HasSuffix(s, sub), nil
			}
			return strings.Contains(s, sub), nil
		}
	case "split":
		b = func(run *interp, args []any) (any, error) {
			if render.IsNullish(arg(args, 0)) {
				return []any{s}, nil
			}
			sep, err := run.toString(args[0], n)
			if err != nil {
				return nil, err
			}
			parts := strings.Split(s, sep)
			if err := run.charge(len(parts)+len(s)/byteUnit, n); err != nil {
				return nil, err
			}
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, run.checkSize(out, n)
		}
	case "slice":
		b = func(run *interp, args []any) (any, error) {
			if err := run.chargeBytes(len(s), n); err != nil {
				return nil, err
			}
			r := []rune(s)
			start, end := sliceBounds(len(r), args)
			return string(r[start:end]), nil
		}
	default:
		return nil, false
	}
	return in.method(key, b), true
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return render.Undefined
}

func callback(method string, args []any) (*render.Func, error) {
	fn, ok := arg(args, 0).(*render.Func)
	if !ok {
		return nil, &RuntimeError{Kind: KindType, Message: render.TypeOf(arg(args, 0)) + " is not a function (argument to " + method + ")"}
	}
	return fn, nil
}

func indexOf(arr []any, v any) int {
	for i, el := range arr {
		if equal(el, v, false) {
			return i
		}
	}
	return -1
}

// sliceBounds resolves slice(start, end) arguments, including negative
// offsets, against a length n.
func sliceBounds(n int, args []any) (int, int) {
	clamp := func(v any, def int) int {
		if render.IsNullish(v) {
			return def
		}
		i := int(toNumber(v))
		if i < 0 {
			i += n
		}
		if i < 0 {
			return 0
		}
		if i > n {
			return n
		}
		return i
	}
	start := clamp(arg(args, 0), 0)
	end := clamp(arg(args, 1), n)
	if end < start {
		end = start
	}
	return start, end
}
