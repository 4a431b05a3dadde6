package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		components []string
		handlers   []string
		source     Source
	}{
		{
			name:       "component with handler",
			src:        `<Button onClick={handleClick}>Go</Button>`,
			components: []string{"Button"},
			handlers:   []string{"handleClick"},
			source:     SourceAST,
		},
		{
			name:       "dedupe keeps first-seen order",
			src:        "<Surface>\n  <Label>A</Label>\n  <Button onClick={save}/>\n  <Label>B</Label>\n  <Button onClick={save}/>\n</Surface>",
			components: []string{"Surface", "Label", "Button"},
			handlers:   []string{"save"},
			source:     SourceAST,
		},
		{
			name:       "intrinsic tags ignored",
			src:        `<div className="x"><span>hi</span></div>`,
			components: []string{},
			handlers:   []string{},
			source:     SourceAST,
		},
		{
			name:       "case sensitive",
			src:        `<Button/><button/>`,
			components: []string{"Button"},
			handlers:   []string{},
			source:     SourceAST,
		},
		{
			name:       "member tag uses root",
			src:        `<ContentCard.Body>x</ContentCard.Body>`,
			components: []string{"ContentCard"},
			handlers:   []string{},
			source:     SourceAST,
		},
		{
			name:       "arrow and call handlers excluded",
			src:        `<Button onClick={() => go()} onBlur={track("x")} onFocus={ focus }/>`,
			components: []string{"Button"},
			handlers:   []string{"focus"},
			source:     SourceAST,
		},
		{
			name:       "nested in expressions",
			src:        `<div>{items.map(i => <Badge onClick={pick}>{i}</Badge>)}</div>`,
			components: []string{"Badge"},
			handlers:   []string{"pick"},
			source:     SourceAST,
		},
		{
			name:       "handlers on intrinsic elements",
			src:        `<input onChange={handleChange}/>`,
			components: []string{},
			handlers:   []string{"handleChange"},
			source:     SourceAST,
		},
		{
			name:       "unterminated tag falls back",
			src:        `<Button`,
			components: []string{"Button"},
			handlers:   []string{},
			source:     SourceLexical,
		},
		{
			name:       "broken markup keeps handlers",
			src:        "<Toggle onChange={flip}>\n<Checkbox onClick={ tick } label=\"<Fake>\"",
			components: []string{"Toggle", "Checkbox"},
			handlers:   []string{"flip", "tick"},
			source:     SourceLexical,
		},
		{
			name:       "empty",
			src:        "",
			components: []string{},
			handlers:   []string{},
			source:     SourceAST,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := Extract(tt.src)
			assert.Equal(t, tt.components, refs.Components)
			assert.Equal(t, tt.handlers, refs.Handlers)
			assert.Equal(t, tt.source, refs.Source)
		})
	}
}

func TestLexicalMatchesParsedResult(t *testing.T) {
	srcs := []string{
		`<Button onClick={handleClick}>Go</Button>`,
		"<Surface>\n<Label htmlFor=\"a\">A</Label>\n<Input id=\"a\" onChange={update}/>\n</Surface>",
		`<Typography variant="h1">Title</Typography>`,
	}
	for _, src := range srcs {
		ast := Extract(src)
		lex := Lexical(src)
		assert.Equal(t, ast.Components, lex.Components, src)
		assert.Equal(t, ast.Handlers, lex.Handlers, src)
	}
}

func TestLexicalIgnoresStrings(t *testing.T) {
	refs := Lexical(`<div title="<Fake onClick={x}>" data-x='<Other>'>`)
	assert.Empty(t, refs.Components)
	assert.Empty(t, refs.Handlers)
}

func TestIsHandlerAttr(t *testing.T) {
	assert.True(t, IsHandlerAttr("onClick"))
	assert.True(t, IsHandlerAttr("onchange"))
	assert.True(t, IsHandlerAttr("on_x"))
	assert.False(t, IsHandlerAttr("on"))
	assert.False(t, IsHandlerAttr("one-way"))
	assert.False(t, IsHandlerAttr("data-on"))
	assert.False(t, IsHandlerAttr("button"))
}

func TestReferencesEmpty(t *testing.T) {
	assert.True(t, Extract("just text").Empty())
	assert.False(t, Extract("<Button/>").Empty())
}
