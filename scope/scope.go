// Package scope builds the namespace a snippet is evaluated against.
//
// A scope holds exactly the identifiers a snippet references: registry
// components for its component tags, handler implementations (or no-op
// stubs) for its event handler bindings, and the Fragment primitive the
// preview wrapper needs. Anything else the snippet mentions stays
// unresolved and fails at run time.
package scope

import (
	"fmt"
	"sort"

	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
)

// BindingKind classifies a scope entry.
type BindingKind int

const (
	ComponentBinding BindingKind = iota
	HandlerBinding
	StubBinding
	PrimitiveBinding
)

func (k BindingKind) String() string {
	switch k {
	case ComponentBinding:
		return "component"
	case HandlerBinding:
		return "handler"
	case StubBinding:
		return "stub"
	}
	return "primitive"
}

// Scope maps identifiers to values. It is built per preview call and
// never shared.
type Scope struct {
	values map[string]any
	kinds  map[string]BindingKind
}

// Option configures Build.
type Option func(*options)

type options struct {
	handlers map[string]*render.Func
}

// WithHandlers supplies real handler implementations. Handler names the
// snippet binds but the map lacks still get stubs; entries the snippet
// never references are ignored.
func WithHandlers(handlers map[string]*render.Func) Option {
	return func(o *options) { o.handlers = handlers }
}

// Build creates the scope for refs. Every component must be present in
// snap; callers validate first.
func Build(refs extract.References, snap *registry.Snapshot, opts ...Option) (*Scope, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := &Scope{values: make(map[string]any), kinds: make(map[string]BindingKind)}
	s.bind("Fragment", render.FragmentPrimitive, PrimitiveBinding)

	for _, name := range refs.Components {
		c, ok := snap.Get(name)
		if !ok {
			return nil, fmt.Errorf("component %s is not in the registry", name)
		}
		s.bind(name, c, ComponentBinding)
	}
	for _, name := range refs.Handlers {
		if _, taken := s.values[name]; taken {
			continue
		}
		if fn, ok := o.handlers[name]; ok && fn != nil {
			s.bind(name, fn, HandlerBinding)
			continue
		}
		s.bind(name, Stub(name), StubBinding)
	}
	return s, nil
}

func (s *Scope) bind(name string, v any, kind BindingKind) {
	s.values[name] = v
	s.kinds[name] = kind
}

// Stub returns a callable that accepts any arguments, does nothing and
// returns undefined.
func Stub(name string) *render.Func {
	return &render.Func{
		Name: name,
		Call: func([]any) (any, error) { return render.Undefined, nil },
	}
}

// Lookup resolves an identifier.
func (s *Scope) Lookup(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Kind reports how name is bound.
func (s *Scope) Kind(name string) (BindingKind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}

// Names returns the bound identifiers in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings.
func (s *Scope) Len() int { return len(s.values) }
