// Package doc formats registry components, extracted references and
// preview results for terminal display.
package doc

import (
	"fmt"
	"strings"

	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/preview"
	"github.com/rubiojr/livepreview/registry"
)

// FormatComponent formats a single component for terminal display.
func FormatComponent(c registry.Component) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("component %s", c.Name()))
	sb.WriteString("\n")
	if c.Doc() != "" {
		sb.WriteString("    ")
		sb.WriteString(strings.ReplaceAll(c.Doc(), "\n", "\n    "))
		sb.WriteString("\n")
	}

	if p, ok := c.(*registry.Primitive); ok {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("    renders <%s class=%q>", elementOf(p), p.Class))
		sb.WriteString("\n")
		if len(p.Modifiers) > 0 {
			sb.WriteString("    modifiers: ")
			sb.WriteString(strings.Join(p.Modifiers, ", "))
			sb.WriteString("\n")
		}
		if p.Void {
			sb.WriteString("    children are ignored\n")
		}
	}
	if f, ok := c.(*registry.Func); ok && len(f.Props) > 0 {
		sb.WriteString("\n    props: ")
		sb.WriteString(strings.Join(f.Props, ", "))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatRegistry lists every component in snap.
func FormatRegistry(snap *registry.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("Components:\n")
	for _, name := range snap.Names() {
		c := snap.MustGet(name)
		line := fmt.Sprintf("  %-22s", name)
		if c.Doc() != "" {
			line += " " + firstLine(c.Doc())
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatReferences formats the identifiers found in a snippet.
func FormatReferences(refs extract.References) string {
	var sb strings.Builder
	sb.WriteString("components: ")
	sb.WriteString(listOrNone(refs.Components))
	sb.WriteString("\nhandlers:   ")
	sb.WriteString(listOrNone(refs.Handlers))
	sb.WriteString("\nsource:     ")
	sb.WriteString(string(refs.Source))
	sb.WriteString("\n")
	return sb.String()
}

// FormatResult formats a failed preview with its source context and
// hints. Rendered results format as their HTML.
func FormatResult(res preview.Result) string {
	if res.OK() {
		return res.HTML + "\n"
	}

	var sb strings.Builder
	sb.WriteString(res.Message())
	sb.WriteString("\n")

	for _, name := range res.Missing {
		if hints := res.Hints[name]; len(hints) > 0 {
			sb.WriteString(fmt.Sprintf("    %s: did you mean %s?\n", name, strings.Join(hints, ", ")))
		}
	}

	if res.Error != nil && res.Error.Fragment != "" && res.Error.Line > 0 {
		gutter := fmt.Sprintf("%d", res.Error.Line)
		sb.WriteString(fmt.Sprintf("\n  %s | %s\n", gutter, res.Error.Fragment))
		col := res.Error.Column
		if col < 1 {
			col = 1
		}
		sb.WriteString(fmt.Sprintf("  %s | %s^\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", col-1)))
	}

	return sb.String()
}

func elementOf(p *registry.Primitive) string {
	if p.Element == "" {
		return "div"
	}
	return p.Element
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
