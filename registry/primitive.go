package registry

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rubiojr/livepreview/render"
)

// Primitive is a declarative component: one intrinsic element carrying a
// base class plus modifier classes derived from props.
//
// With Class "nova-button" and Modifiers ["variant", "size"], the props
// {variant: "primary", size: "sm"} render as
// <button class="nova-button nova-button--primary nova-button--sm">.
// A boolean modifier prop renders as nova-button--<prop> when true.
type Primitive struct {
	ComponentName string         `yaml:"name" json:"name"`
	Element       string         `yaml:"element" json:"element"`
	Class         string         `yaml:"class" json:"class"`
	Modifiers     []string       `yaml:"modifiers" json:"modifiers,omitempty"`
	Defaults      map[string]any `yaml:"defaults" json:"defaults,omitempty"`
	Description   string         `yaml:"description" json:"description"`
	// Void components ignore children (inputs, dividers).
	Void bool `yaml:"void" json:"void,omitempty"`
}

func (p *Primitive) Name() string { return p.ComponentName }
func (p *Primitive) Doc() string  { return p.Description }

// Render builds the element. An "as" or "tag" prop overrides the
// element name.
func (p *Primitive) Render(props *render.Object, children []render.Node) (render.Node, error) {
	props = props.Clone()
	for _, key := range sortedKeys(p.Defaults) {
		if v, ok := props.Get(key); !ok || render.IsNullish(v) {
			props.Set(key, normalize(p.Defaults[key]))
		}
	}

	tag := p.Element
	if tag == "" {
		tag = "div"
	}
	for _, key := range []string{"as", "tag"} {
		if as := props.String(key); as != "" {
			tag = as
		}
		props.Delete(key)
	}

	classes := []string{p.Class}
	for _, m := range p.Modifiers {
		v, ok := props.Get(m)
		if !ok {
			continue
		}
		props.Delete(m)
		switch x := v.(type) {
		case bool:
			if x {
				classes = append(classes, p.Class+"--"+kebab(m))
			}
		default:
			if s := render.ToString(v); !render.IsNullish(v) && s != "" {
				classes = append(classes, p.Class+"--"+s)
			}
		}
	}
	if extra := props.String("className"); extra != "" {
		classes = append(classes, extra)
	}
	attrs := render.NewObject()
	attrs.Set("className", strings.TrimSpace(strings.Join(classes, " ")))
	for _, key := range props.Keys() {
		if key != "className" {
			v, _ := props.Get(key)
			attrs.Set(key, v)
		}
	}

	if p.Void {
		children = nil
	}
	el := render.NewElement(tag, attrs, children)
	el.Component = p.ComponentName
	return el, nil
}

// normalize converts YAML-decoded scalars into interpreter values.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func kebab(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			c += 'a' - 'A'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// LoadYAML decodes a list of Primitive definitions.
func LoadYAML(r io.Reader) ([]Component, error) {
	var defs []*Primitive
	if err := yaml.NewDecoder(r).Decode(&defs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding components: %w", err)
	}
	out := make([]Component, 0, len(defs))
	for i, d := range defs {
		if d == nil || d.ComponentName == "" {
			return nil, fmt.Errorf("component %d: missing name", i)
		}
		if c := d.ComponentName[0]; c < 'A' || c > 'Z' {
			return nil, fmt.Errorf("component %q: name must start with an uppercase letter", d.ComponentName)
		}
		out = append(out, d)
	}
	return out, nil
}
