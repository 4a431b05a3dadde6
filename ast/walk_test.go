package ast_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/parser"
)

func TestInspectOrder(t *testing.T) {
	doc, err := parser.ParseSnippet(`<A x={<B/>}>{items.map(i => <C key={i}/>)}<d/></A>`)
	require.NoError(t, err)

	var names []string
	ast.WalkElements(doc, func(el *ast.Element) { names = append(names, el.Name) })
	assert.Equal(t, []string{"A", "B", "C", "d"}, names)
}

func TestInspectPrune(t *testing.T) {
	doc, err := parser.ParseSnippet(`<A><B><C/></B></A><D/>`)
	require.NoError(t, err)

	var names []string
	ast.Inspect(doc, func(n ast.Node) bool {
		el, ok := n.(*ast.Element)
		if !ok {
			return true
		}
		names = append(names, el.Name)
		return el.Name != "B"
	})
	assert.Equal(t, []string{"A", "B", "D"}, names)
}

func TestElementNames(t *testing.T) {
	tests := []struct {
		name      string
		root      string
		component bool
		intrinsic bool
	}{
		{"Button", "Button", true, false},
		{"Menu.Item", "Menu", true, false},
		{"div", "div", false, true},
		{"icons.Star", "icons", false, false},
		{"", "", false, false},
	}
	for _, tt := range tests {
		el := &ast.Element{Name: tt.name}
		assert.Equal(t, tt.root, el.RootName(), tt.name)
		assert.Equal(t, tt.component, el.IsComponent(), tt.name)
		assert.Equal(t, tt.intrinsic, el.IsIntrinsic(), tt.name)
	}
	assert.True(t, (&ast.Element{}).IsFragment())
}

func TestIdentExpr(t *testing.T) {
	x, err := parser.ParseExpression(`handleClick`)
	require.NoError(t, err)
	assert.Equal(t, "handleClick", ast.IdentExpr(x))
	assert.Equal(t, "handleClick", ast.IdentExpr(&ast.ExprContainer{X: x}))

	x, err = parser.ParseExpression(`() => go()`)
	require.NoError(t, err)
	assert.Empty(t, ast.IdentExpr(x))
}

type nameCheck struct {
	name string
	deny string
	ran  *[]string
}

func (c nameCheck) Name() string { return c.name }

func (c nameCheck) Check(n ast.Node) error {
	*c.ran = append(*c.ran, c.name)
	var err error
	ast.WalkElements(n, func(el *ast.Element) {
		if el.Name == c.deny {
			err = errors.New(c.name + ": " + el.Name + " is not allowed")
		}
	})
	return err
}

func TestCheckChain(t *testing.T) {
	doc, err := parser.ParseSnippet(`<Form><Script/></Form>`)
	require.NoError(t, err)

	var ran []string
	chain := ast.CheckChain{
		nameCheck{name: "first", deny: "Iframe", ran: &ran},
		nameCheck{name: "second", deny: "Script", ran: &ran},
		nameCheck{name: "third", deny: "Form", ran: &ran},
	}
	assert.EqualError(t, chain.Run(doc), "second: Script is not allowed")
	assert.Equal(t, []string{"first", "second"}, ran)

	assert.NoError(t, ast.CheckChain(nil).Run(doc))
}
