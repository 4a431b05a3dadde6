// Package registry holds the components a preview may reference.
//
// Components register themselves into a process-wide registry from init
// functions (see designsystem/nova). Callers take an immutable Snapshot
// and pass it through a preview call, so concurrent previews share one
// read-only view even if more components are registered later.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rubiojr/livepreview/render"
)

// Component is a renderable design-system component.
type Component interface {
	// Name is the identifier snippets use as a tag (e.g. "Button").
	Name() string
	// Doc is a one-line description shown by listings.
	Doc() string
	// Render turns evaluated props and children into markup.
	Render(props *render.Object, children []render.Node) (render.Node, error)
}

// Func adapts a Go function to Component.
type Func struct {
	ComponentName string
	Description   string
	Props         []string
	Fn            func(props *render.Object, children []render.Node) (render.Node, error)
}

func (f *Func) Name() string { return f.ComponentName }
func (f *Func) Doc() string  { return f.Description }

// Render calls f.Fn.
func (f *Func) Render(props *render.Object, children []render.Node) (render.Node, error) {
	return f.Fn(props, children)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Component)
)

// Register adds a component to the global registry, replacing any
// component with the same name.
func Register(c Component) {
	mu.Lock()
	defer mu.Unlock()
	registry[c.Name()] = c
}

// Get returns a registered component by name.
func Get(name string) (Component, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// Has returns true if name is a registered component.
func Has(name string) bool {
	_, ok := Get(name)
	return ok
}

// Names returns sorted names of all registered components.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return sortedNames(registry)
}

// Default returns a snapshot of the global registry.
func Default() *Snapshot {
	mu.RLock()
	defer mu.RUnlock()
	s := &Snapshot{byName: make(map[string]Component, len(registry))}
	for name, c := range registry {
		s.byName[name] = c
	}
	s.names = sortedNames(s.byName)
	return s
}

// Snapshot is an immutable name -> component mapping.
type Snapshot struct {
	byName map[string]Component
	names  []string
}

// New builds a snapshot holding exactly cs.
func New(cs ...Component) *Snapshot {
	s := &Snapshot{byName: make(map[string]Component, len(cs))}
	for _, c := range cs {
		s.byName[c.Name()] = c
	}
	s.names = sortedNames(s.byName)
	return s
}

// With returns a new snapshot extended with cs. Components in cs shadow
// existing ones with the same name; s is left untouched.
func (s *Snapshot) With(cs ...Component) *Snapshot {
	out := &Snapshot{byName: make(map[string]Component, len(s.byName)+len(cs))}
	for name, c := range s.byName {
		out.byName[name] = c
	}
	for _, c := range cs {
		out.byName[c.Name()] = c
	}
	out.names = sortedNames(out.byName)
	return out
}

// Get returns the component registered under name.
func (s *Snapshot) Get(name string) (Component, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.byName[name]
	return c, ok
}

// Has reports whether name is in the snapshot.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns the sorted component names.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Len returns the number of components.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byName)
}

// MustGet is Get for names already known to be present.
func (s *Snapshot) MustGet(name string) Component {
	c, ok := s.Get(name)
	if !ok {
		panic(fmt.Sprintf("registry: component %q not found", name))
	}
	return c
}

func sortedNames(m map[string]Component) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
