// Package nova registers the built-in Nova design-system components.
//
// Import it for side effects:
//
//	import _ "github.com/rubiojr/livepreview/designsystem/nova"
package nova

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
)

//go:embed components.yaml
var componentsYAML []byte

// Icons are rendered as empty, class-tagged svg placeholders.
var Icons = []string{
	"VisaChevronRightTiny",
	"VisaChevronLeftTiny",
	"VisaCopyLow",
	"VisaAttachmentTiny",
	"VisaModeDarkTiny",
	"VisaCloseTiny",
	"VisaSearchLow",
	"VisaErrorTiny",
}

func init() {
	for _, c := range Components() {
		registry.Register(c)
	}
}

// Components returns fresh instances of every Nova component.
func Components() []registry.Component {
	cs, err := registry.LoadYAML(bytes.NewReader(componentsYAML))
	if err != nil {
		panic(fmt.Sprintf("nova: %v", err))
	}
	cs = append(cs,
		&registry.Func{
			ComponentName: "Typography",
			Description:   "Text with a type ramp variant (headline-1..4, subtitle-1..3, body-1..3, label)",
			Props:         []string{"variant", "tag"},
			Fn:            typography,
		},
		&registry.Func{
			ComponentName: "Utility",
			Description:   "Layout helper; vFlex, vFlexCol, vGap, vAlignItems, element",
			Props:         []string{"vFlex", "vFlexCol", "vFlexRow", "vGap", "vAlignItems", "vJustifyContent", "element"},
			Fn:            utility,
		},
		&registry.Func{
			ComponentName: "TextInput",
			Description:   "Labelled single-line text field",
			Props:         []string{"label", "id", "placeholder", "value", "onChange"},
			Fn:            textInput,
		},
	)
	for _, name := range Icons {
		cs = append(cs, icon(name))
	}
	return cs
}

func typography(props *render.Object, children []render.Node) (render.Node, error) {
	variant := props.String("variant")
	if variant == "" {
		variant = "body-2"
	}
	tag := props.String("tag")
	if tag == "" {
		tag = variantTag(variant)
	}
	attrs := render.NewObject()
	attrs.Set("className", joinClasses("v-typography", "v-typography-"+variant, props.String("className")))
	copyExcept(attrs, props, "variant", "tag", "className")
	el := render.NewElement(tag, attrs, children)
	el.Component = "Typography"
	return el, nil
}

// variantTag maps a type ramp variant to its semantic element.
func variantTag(variant string) string {
	switch {
	case strings.HasPrefix(variant, "display-"):
		return "h1"
	case strings.HasPrefix(variant, "headline-"):
		level := strings.TrimPrefix(variant, "headline-")
		if len(level) == 1 && level[0] >= '1' && level[0] <= '6' {
			return "h" + level
		}
		return "h2"
	case strings.HasPrefix(variant, "label"), strings.HasPrefix(variant, "overline"):
		return "span"
	}
	return "p"
}

func utility(props *render.Object, children []render.Node) (render.Node, error) {
	classes := []string{}
	if props.Bool("vFlex") {
		classes = append(classes, "v-flex")
	}
	if props.Bool("vFlexCol") {
		classes = append(classes, "v-flex-col")
	}
	if props.Bool("vFlexRow") {
		classes = append(classes, "v-flex-row")
	}
	if g := props.String("vGap"); g != "" {
		classes = append(classes, "v-gap-"+g)
	}
	if a := props.String("vAlignItems"); a != "" {
		classes = append(classes, "v-align-items-"+a)
	}
	if j := props.String("vJustifyContent"); j != "" {
		classes = append(classes, "v-justify-content-"+j)
	}
	utilityProps := []string{"vFlex", "vFlexCol", "vFlexRow", "vGap", "vAlignItems", "vJustifyContent", "element", "className"}

	// element={<ContentCardBody/>} renders the utility classes onto that
	// element instead of a wrapper div.
	if v, ok := props.Get("element"); ok {
		if base, ok := v.(*render.Element); ok {
			el := &render.Element{
				Tag:       base.Tag,
				Attrs:     append([]render.Attr(nil), base.Attrs...),
				Children:  append([]render.Node(nil), base.Children...),
				Component: base.Component,
			}
			el.AddClass(append(classes, props.String("className"))...)
			rest := render.NewObject()
			copyExcept(rest, props, utilityProps...)
			extra := render.NewElement(el.Tag, rest, children)
			el.Attrs = append(el.Attrs, extra.Attrs...)
			for _, h := range []map[string]*render.Func{base.Handlers, extra.Handlers} {
				for event, fn := range h {
					if el.Handlers == nil {
						el.Handlers = make(map[string]*render.Func)
					}
					el.Handlers[event] = fn
				}
			}
			for _, c := range extra.Children {
				el.Children = render.AppendChild(el.Children, c)
			}
			return el, nil
		}
	}

	attrs := render.NewObject()
	attrs.Set("className", joinClasses(append(classes, props.String("className"))...))
	copyExcept(attrs, props, utilityProps...)
	el := render.NewElement("div", attrs, children)
	el.Component = "Utility"
	return el, nil
}

func textInput(props *render.Object, _ []render.Node) (render.Node, error) {
	id := props.String("id")
	if id == "" {
		id = "text-input"
	}
	label := render.NewObject()
	label.Set("className", "v-label")
	label.Set("htmlFor", id)

	input := render.NewObject()
	input.Set("className", "v-input")
	input.Set("id", id)
	input.Set("type", "text")
	copyExcept(input, props, "label", "id", "className")

	wrap := render.NewObject()
	wrap.Set("className", joinClasses("v-flex", "v-flex-col", "v-gap-4", props.String("className")))

	children := []render.Node{}
	if text := props.String("label"); text != "" {
		children = append(children, render.NewElement("label", label, []render.Node{render.Text(text)}))
	}
	container := render.NewObject()
	container.Set("className", "v-input-container")
	children = append(children, render.NewElement("div", container, []render.Node{render.NewElement("input", input, nil)}))

	el := render.NewElement("div", wrap, children)
	el.Component = "TextInput"
	return el, nil
}

func icon(name string) registry.Component {
	class := "v-icon v-icon-" + kebab(strings.TrimPrefix(name, "Visa"))
	return &registry.Func{
		ComponentName: name,
		Description:   "Nova icon",
		Fn: func(props *render.Object, _ []render.Node) (render.Node, error) {
			attrs := render.NewObject()
			attrs.Set("className", joinClasses(class, props.String("className")))
			attrs.Set("aria-hidden", true)
			copyExcept(attrs, props, "className", "rtl")
			el := render.NewElement("svg", attrs, nil)
			el.Component = name
			return el, nil
		},
	}
}

func copyExcept(dst, src *render.Object, skip ...string) {
	for _, k := range src.Keys() {
		skipped := false
		for _, s := range skip {
			if k == s {
				skipped = true
				break
			}
		}
		if !skipped {
			v, _ := src.Get(k)
			dst.Set(k, v)
		}
	}
}

func joinClasses(classes ...string) string {
	out := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}

func kebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
