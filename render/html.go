package render

import (
	"encoding/json"
	"html"
	"strings"
)

// voidElements never have children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML serializes n. Handlers are not part of the markup.
func HTML(n Node) string {
	var sb strings.Builder
	writeHTML(&sb, n)
	return sb.String()
}

func writeHTML(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case Text:
		sb.WriteString(html.EscapeString(string(x)))
	case *Fragment:
		for _, c := range x.Children {
			writeHTML(sb, c)
		}
	case *Element:
		sb.WriteByte('<')
		sb.WriteString(x.Tag)
		for _, a := range x.Attrs {
			sb.WriteByte(' ')
			sb.WriteString(a.Name)
			if a.Bool {
				continue
			}
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(a.Value))
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		if voidElements[x.Tag] {
			return
		}
		for _, c := range x.Children {
			writeHTML(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(x.Tag)
		sb.WriteByte('>')
	}
}

// jsonNode is the wire form of a node for presentation layers that build
// their own DOM.
type jsonNode struct {
	Type      string            `json:"type"`
	Text      string            `json:"text,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Handlers  []string          `json:"handlers,omitempty"`
	Component string            `json:"component,omitempty"`
	Children  []jsonNode        `json:"children,omitempty"`
}

func toJSONNode(n Node) jsonNode {
	switch x := n.(type) {
	case Text:
		return jsonNode{Type: "#text", Text: string(x)}
	case *Fragment:
		out := jsonNode{Type: "#fragment"}
		for _, c := range x.Children {
			out.Children = append(out.Children, toJSONNode(c))
		}
		return out
	case *Element:
		out := jsonNode{Type: x.Tag, Component: x.Component, Handlers: x.HandlerNames()}
		if len(x.Attrs) > 0 {
			out.Attrs = make(map[string]string, len(x.Attrs))
			for _, a := range x.Attrs {
				out.Attrs[a.Name] = a.Value
			}
		}
		for _, c := range x.Children {
			out.Children = append(out.Children, toJSONNode(c))
		}
		return out
	}
	return jsonNode{Type: "#unknown"}
}

// MarshalJSON encodes the fragment as a node tree.
func (f *Fragment) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONNode(f))
}

// MarshalJSON encodes the element as a node tree.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONNode(e))
}
