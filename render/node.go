// Package render holds the preview artifact: a tree of intrinsic elements
// and text produced by the sandbox, plus the small value model shared by
// the interpreter and component implementations.
package render

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Node is an element of the rendered tree.
type Node interface {
	node()
}

// Text is a text node. Its content is unescaped.
type Text string

func (Text) node() {}

// Fragment groups sibling nodes without introducing an element.
type Fragment struct {
	Children []Node
}

func (*Fragment) node() {}

// Attr is a serialized attribute. Bool attributes have no value.
type Attr struct {
	Name  string
	Value string
	Bool  bool
}

// Element is an intrinsic (HTML) element.
type Element struct {
	Tag      string
	Attrs    []Attr
	Handlers map[string]*Func // event name ("click") -> handler
	Children []Node
	// Component is the registry component that produced this element, if any.
	Component string
}

func (*Element) node() {}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces or appends an attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs[i] = Attr{Name: name, Value: value}
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// AddClass appends class names to the class attribute.
func (e *Element) AddClass(classes ...string) {
	var parts []string
	if cur, ok := e.Attr("class"); ok && cur != "" {
		parts = append(parts, cur)
	}
	for _, c := range classes {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) > 0 {
		e.SetAttr("class", strings.Join(parts, " "))
	}
}

// HandlerNames returns the bound event names in sorted order.
func (e *Element) HandlerNames() []string {
	names := make([]string, 0, len(e.Handlers))
	for name := range e.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch invokes the handler bound to event. Missing handlers are a no-op.
func (e *Element) Dispatch(event string, args ...any) error {
	h, ok := e.Handlers[event]
	if !ok {
		return nil
	}
	_, err := h.Invoke(args...)
	return err
}

// AppendChild appends n to children, flattening fragments.
func AppendChild(children []Node, n Node) []Node {
	switch x := n.(type) {
	case nil:
		return children
	case *Fragment:
		for _, c := range x.Children {
			children = AppendChild(children, c)
		}
		return children
	case Text:
		if x == "" {
			return children
		}
	}
	return append(children, n)
}

// unitless CSS properties never get a px suffix.
var unitless = map[string]bool{
	"flex": true, "flexGrow": true, "flexShrink": true, "fontWeight": true,
	"lineHeight": true, "opacity": true, "order": true, "zIndex": true,
	"zoom": true,
}

// attrAliases maps JSX prop names onto HTML attribute names.
var attrAliases = map[string]string{
	"className": "class",
	"htmlFor":   "for",
	"tabIndex":  "tabindex",
	"readOnly":  "readonly",
	"maxLength": "maxlength",
	"autoFocus": "autofocus",
}

// IsHandlerProp reports whether a prop name denotes an event handler
// (on followed by an uppercase letter).
func IsHandlerProp(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") && unicode.IsUpper(rune(name[2]))
}

// NewElement builds an intrinsic element from evaluated props. Props that
// have no HTML form (children, key, ref, non-function handlers) are dropped.
func NewElement(tag string, props *Object, children []Node) *Element {
	el := &Element{Tag: tag}
	for _, key := range props.Keys() {
		v, _ := props.Get(key)
		switch {
		case key == "children" || key == "key" || key == "ref":
			continue
		case IsHandlerProp(key):
			if fn, ok := v.(*Func); ok {
				if el.Handlers == nil {
					el.Handlers = make(map[string]*Func)
				}
				el.Handlers[strings.ToLower(key[2:])] = fn
			}
			continue
		}
		name := key
		if alias, ok := attrAliases[key]; ok {
			name = alias
		}
		if attr, ok := attrValue(name, v); ok {
			el.Attrs = append(el.Attrs, attr)
		}
	}
	for _, c := range children {
		el.Children = AppendChild(el.Children, c)
	}
	return el
}

func attrValue(name string, v any) (Attr, bool) {
	aria := strings.HasPrefix(name, "aria-") || strings.HasPrefix(name, "data-")
	switch x := v.(type) {
	case nil, undefinedType:
		return Attr{}, false
	case bool:
		if aria {
			return Attr{Name: name, Value: fmt.Sprint(x)}, true
		}
		if !x {
			return Attr{}, false
		}
		return Attr{Name: name, Bool: true}, true
	case *Object:
		if name != "style" {
			return Attr{}, false
		}
		return Attr{Name: name, Value: StyleString(x)}, true
	case *Func:
		return Attr{}, false
	}
	return Attr{Name: name, Value: ToString(v)}, true
}

// StyleString serializes a style object into inline CSS.
func StyleString(style *Object) string {
	var decls []string
	for _, key := range style.Keys() {
		v, _ := style.Get(key)
		if IsNullish(v) {
			continue
		}
		if b, ok := v.(bool); ok && !b {
			continue
		}
		val := ToString(v)
		if n, ok := v.(float64); ok && n != 0 && !unitless[key] {
			val += "px"
		}
		decls = append(decls, cssName(key)+":"+val)
	}
	return strings.Join(decls, ";")
}

// cssName turns camelCase property names into kebab-case.
func cssName(key string) string {
	if strings.HasPrefix(key, "--") {
		return key
	}
	var sb strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Walk calls fn for every element in the tree in document order.
// Returning false stops descent into that element's children.
func Walk(n Node, fn func(*Element) bool) {
	switch x := n.(type) {
	case *Element:
		if !fn(x) {
			return
		}
		for _, c := range x.Children {
			Walk(c, fn)
		}
	case *Fragment:
		for _, c := range x.Children {
			Walk(c, fn)
		}
	}
}

// Find returns the first element matching pred.
func Find(n Node, pred func(*Element) bool) *Element {
	var found *Element
	Walk(n, func(el *Element) bool {
		if found != nil {
			return false
		}
		if pred(el) {
			found = el
			return false
		}
		return true
	})
	return found
}

// TextContent concatenates all text below n.
func TextContent(n Node) string {
	var sb strings.Builder
	var visit func(Node)
	visit = func(n Node) {
		switch x := n.(type) {
		case Text:
			sb.WriteString(string(x))
		case *Element:
			for _, c := range x.Children {
				visit(c)
			}
		case *Fragment:
			for _, c := range x.Children {
				visit(c)
			}
		}
	}
	visit(n)
	return sb.String()
}
