package render

import (
	"math"
	"strconv"
	"strings"
)

// undefinedType is the type of Undefined.
type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined is the value of a missing property or a function that
// returns nothing. nil stands for null.
var Undefined = undefinedType{}

// IsNullish reports whether v is null or undefined.
func IsNullish(v any) bool {
	return v == nil || v == Undefined
}

// Func is a callable value. Arrow functions, handler stubs and host
// supplied handlers all share this type.
type Func struct {
	Name string
	Call func(args []any) (any, error)
	// Body is opaque data owned by the evaluator that created the
	// function, so it can run its own functions on its own state.
	Body any
}

// Invoke calls f, treating a nil Call as a no-op.
func (f *Func) Invoke(args ...any) (any, error) {
	if f == nil || f.Call == nil {
		return Undefined, nil
	}
	return f.Call(args)
}

// primitive marks values a tag can resolve to that are not components.
type primitive string

// FragmentPrimitive is bound to "Fragment" in every preview scope; the
// <>...</> shorthand resolves to it.
const FragmentPrimitive primitive = "Fragment"

// Object is an insertion-ordered string-keyed map used for object
// literals and component props.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set assigns key, keeping the position of an existing key.
func (o *Object) Set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Merge copies every key of other into o.
func (o *Object) Merge(other *Object) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		o.Set(k, v)
	}
}

// Clone returns a shallow copy.
func (o *Object) Clone() *Object {
	cp := NewObject()
	if o != nil {
		cp.Merge(o)
	}
	return cp
}

// String returns the prop under key as a string, or "" when absent.
func (o *Object) String(key string) string {
	v, ok := o.Get(key)
	if !ok || IsNullish(v) {
		return ""
	}
	return ToString(v)
}

// Bool returns the truthiness of the prop under key.
func (o *Object) Bool(key string) bool {
	v, ok := o.Get(key)
	return ok && Truthy(v)
}

// Truthy applies JavaScript truthiness.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil, undefinedType:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// ToString converts a value the way template literals and text children do.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			if !IsNullish(el) {
				parts[i] = ToString(el)
			}
		}
		return strings.Join(parts, ",")
	case *Object:
		return "[object Object]"
	case *Func:
		return "function " + x.Name + "() {}"
	default:
		return "[object]"
	}
}

// FormatNumber prints a float the way JavaScript does for common values.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TypeOf returns the JavaScript typeof name for v.
func TypeOf(v any) string {
	switch v.(type) {
	case undefinedType:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Func:
		return "function"
	default:
		return "object"
	}
}
