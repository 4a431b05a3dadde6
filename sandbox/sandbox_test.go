package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
)

type mapScope map[string]any

func (m mapScope) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

var button = &registry.Primitive{ComponentName: "Button", Element: "button", Class: "v-button", Modifiers: []string{"colorScheme"}}

func baseScope() mapScope {
	return mapScope{"Fragment": render.FragmentPrimitive, "Button": button}
}

const wrapOpen = `<div style="margin:1rem;padding:1rem">`

func evalHTML(t *testing.T, src string, sc mapScope) string {
	t.Helper()
	node, err := Evaluate(context.Background(), src, sc, Options{})
	require.NoError(t, err)
	out := render.HTML(node)
	require.True(t, strings.HasPrefix(out, wrapOpen), out)
	return strings.TrimSuffix(strings.TrimPrefix(out, wrapOpen), "</div>")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "<><div style={{margin: '1rem', padding: '1rem'}}>\n<b/>\n</div></>", Wrap("<b/>"))
}

func TestEvaluateRenders(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"component", `<Button colorScheme="secondary">Go</Button>`, `<button class="v-button v-button--secondary">Go</button>`},
		{"text only", "hello", "hello"},
		{"empty", "", ""},
		{"intrinsic attrs", `<label htmlFor="x" className="c">A &amp; B</label>`, `<label for="x" class="c">A &amp; B</label>`},
		{"boolean shorthand", `<input disabled />`, `<input disabled>`},
		{"style object", `<p style={{fontSize: 12, lineHeight: 1.5, marginTop: '2px'}}/>`, `<p style="font-size:12px;line-height:1.5;margin-top:2px"></p>`},
		{"conditional", `<p>{1 > 2 ? 'yes' : 'no'}</p>`, `<p>no</p>`},
		{"logical and hides", `<p>{false && 'x'}{null}{undefined}</p>`, `<p></p>`},
		{"nullish", `<p>{null ?? 'fallback'}</p>`, `<p>fallback</p>`},
		{"map", `<ul>{['a', 'b'].map((x, i) => <li key={i}>{i}:{x.toUpperCase()}</li>)}</ul>`, `<ul><li>0:A</li><li>1:B</li></ul>`},
		{"filter join", `<p>{[1, 2, 3, 4].filter(n => n % 2 === 0).join('-')}</p>`, `<p>2-4</p>`},
		{"template", "<p>{`total: ${1 + 2}`}</p>", `<p>total: 3</p>`},
		{"string concat", `<p>{'a' + 1}</p>`, `<p>a1</p>`},
		{"spread props", `<input {...{type: 'text', value: 'v'}} />`, `<input type="text" value="v">`},
		{"fragment primitive", `<Fragment><b>1</b><i>2</i></Fragment>`, `<b>1</b><i>2</i>`},
		{"multiline whitespace", "<p>\n  Hello\n  world\n</p>\n<p>x</p>", `<p>Hello world</p><p>x</p>`},
		{"string methods", `<p>{'  Nova '.trim().length}{'abc'.includes('b')}</p>`, `<p>4</p>`},
		{"optional chaining", `<p>{null?.x ?? 'none'}</p>`, `<p>none</p>`},
		{"arrow block body", `<p>{[1, 2].map(n => { return n * 10 }).join()}</p>`, `<p>10,20</p>`},
		{"loose equality", `<p>{null == undefined ? 'eq' : 'ne'}</p>`, `<p>eq</p>`},
		{"typeof unknown", `<p>{typeof nothing}</p>`, `<p>undefined</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evalHTML(t, tt.src, baseScope()))
		})
	}
}

func TestEvaluateKeepsHandlers(t *testing.T) {
	calls := 0
	sc := baseScope()
	sc["save"] = &render.Func{Name: "save", Call: func(args []any) (any, error) {
		calls++
		return render.Undefined, nil
	}}

	node, err := Evaluate(context.Background(), `<Button onClick={save}>Save</Button>`, sc, Options{})
	require.NoError(t, err)
	btn := render.Find(node, func(el *render.Element) bool { return el.Tag == "button" })
	require.NotNil(t, btn)
	assert.Equal(t, []string{"click"}, btn.HandlerNames())
	require.NoError(t, btn.Dispatch("click", "event"))
	assert.Equal(t, 1, calls)
	assert.NotContains(t, render.HTML(node), "onClick")
}

func TestEvaluateFuncComponent(t *testing.T) {
	sc := baseScope()
	sc["Card"] = &registry.Func{
		ComponentName: "Card",
		Fn: func(props *render.Object, children []render.Node) (render.Node, error) {
			attrs := render.NewObject()
			attrs.Set("className", "card")
			h := render.NewElement("h3", render.NewObject(), []render.Node{render.Text(props.String("title"))})
			return render.NewElement("section", attrs, append([]render.Node{h}, children...)), nil
		},
	}
	got := evalHTML(t, `<Card title="Hi"><p>body</p></Card>`, sc)
	assert.Equal(t, `<section class="card"><h3>Hi</h3><p>body</p></section>`, got)
}

func TestCompileError(t *testing.T) {
	_, err := Evaluate(context.Background(), "<Button>\n  <b>x</i>\n</Button>", baseScope(), Options{})
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Line)
	assert.Equal(t, 7, cerr.Column)
	assert.Equal(t, "  <b>x</i>", cerr.Fragment)
	assert.Contains(t, cerr.Message, "expected corresponding closing tag for <b>")
}

func TestCompileErrorUnclosedMapsIntoSnippet(t *testing.T) {
	_, err := Evaluate(context.Background(), "<Button>", baseScope(), Options{})
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Line)
	assert.Equal(t, "<Button>", cerr.Fragment)
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
		msg  string
	}{
		{"unknown identifier", `<Button onClick={() => track()}>x</Button>`, "", ""},
		{"unknown value", `<p>{missing}</p>`, KindReference, "missing is not defined"},
		{"unknown tag", `<Modal/>`, KindReference, "Modal is not defined"},
		{"not a function", `<p>{'x'.nope()}</p>`, KindType, "expression.nope is not a function"},
		{"null property", `<p>{null.x}</p>`, KindType, "Cannot read properties of null (reading 'x')"},
		{"object child", `<p>{{a: 1}}</p>`, KindType, "objects are not valid as a child"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(context.Background(), tt.src, baseScope(), Options{})
			if tt.kind == "" {
				// The arrow body only runs when dispatched.
				require.NoError(t, err)
				return
			}
			var rerr *RuntimeError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.kind, rerr.Kind)
			assert.Contains(t, rerr.Message, tt.msg)
			assert.Equal(t, 1, rerr.Line)
		})
	}
}

func TestDeferredReferenceErrorOnDispatch(t *testing.T) {
	node, err := Evaluate(context.Background(), `<Button onClick={() => track()}>x</Button>`, baseScope(), Options{})
	require.NoError(t, err)
	btn := render.Find(node, func(el *render.Element) bool { return el.Tag == "button" })
	err = btn.Dispatch("click")
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindReference, rerr.Kind)
	assert.Equal(t, "track is not defined", rerr.Message)
}

func TestComponentPanicIsRenderError(t *testing.T) {
	sc := baseScope()
	sc["Boom"] = &registry.Func{ComponentName: "Boom", Fn: func(*render.Object, []render.Node) (render.Node, error) {
		panic("kaboom")
	}}
	_, err := Evaluate(context.Background(), `<Boom/>`, sc, Options{})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindRender, rerr.Kind)
	assert.Equal(t, "Boom: kaboom", rerr.Message)
}

func TestComponentErrorIsRenderError(t *testing.T) {
	sc := baseScope()
	sc["Bad"] = &registry.Func{ComponentName: "Bad", Fn: func(*render.Object, []render.Node) (render.Node, error) {
		return nil, errors.New("bad props")
	}}
	_, err := Evaluate(context.Background(), `<Bad/>`, sc, Options{})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindRender, rerr.Kind)
	assert.Equal(t, "Bad: bad props", rerr.Message)
}

func TestStepBudget(t *testing.T) {
	src := `<p>{[1,2,3,4,5,6,7,8,9,10].map(a => [1,2,3,4,5,6,7,8,9,10].map(b => a * b).join()).join()}</p>`
	_, err := Evaluate(context.Background(), src, baseScope(), Options{MaxSteps: 50})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsTimeout())
	assert.Contains(t, rerr.Message, "budget")

	_, err = Evaluate(context.Background(), src, baseScope(), Options{})
	require.NoError(t, err)
}

func TestContextDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := `<p>{[` + strings.Repeat("1,", 400) + `1].map(n => n + 1).join()}</p>`
	_, err := Evaluate(ctx, src, baseScope(), Options{Timeout: time.Second})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindTimeout, rerr.Kind)
}

func TestDepthLimit(t *testing.T) {
	src := strings.Repeat("<b>", 40) + strings.Repeat("</b>", 40)
	_, err := Evaluate(context.Background(), src, baseScope(), Options{MaxDepth: 10})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindTimeout, rerr.Kind)
	assert.Contains(t, rerr.Message, "nesting depth")
}

type rejectAll struct{}

func (rejectAll) Name() string         { return "reject" }
func (rejectAll) Check(ast.Node) error { return errors.New("rejected") }

func TestChecksRunBeforeInterpretation(t *testing.T) {
	_, err := Evaluate(context.Background(), `<Button/>`, baseScope(), Options{Checks: ast.CheckChain{rejectAll{}}})
	assert.EqualError(t, err, "rejected")
}

func TestIsolationFromHostNames(t *testing.T) {
	for _, name := range []string{"window", "document", "fetch", "Math", "console"} {
		_, err := Evaluate(context.Background(), "<p>{"+name+"}</p>", baseScope(), Options{})
		var rerr *RuntimeError
		require.ErrorAs(t, err, &rerr, name)
		assert.Equal(t, KindReference, rerr.Kind)
	}
}

func TestJSONArtifact(t *testing.T) {
	node, err := Evaluate(context.Background(), `<Button onClick={go}>Go</Button>`, mapScope{
		"Fragment": render.FragmentPrimitive,
		"Button":   button,
		"go":       &render.Func{Name: "go"},
	}, Options{})
	require.NoError(t, err)
	btn := render.Find(node, func(el *render.Element) bool { return el.Tag == "button" })
	data, err := btn.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"button","component":"Button","handlers":["click"],"attrs":{"class":"v-button"},"children":[{"type":"#text","text":"Go"}]}`, string(data))
}

// selfApply returns a snippet applying fn to seed depth times over.
func selfApply(fn, seed string, depth int) string {
	return "(f => " + strings.Repeat("f(", depth) + seed + strings.Repeat(")", depth) + ")(" + fn + ")"
}

func evalWithin(t *testing.T, src string, opts Options) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := Evaluate(context.Background(), src, baseScope(), opts)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("evaluation of %q did not stop", src)
		return nil
	}
}

func TestSharedValuesAreBounded(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"array children", "<p>{" + selfApply("x => [x, x]", `"a"`, 26) + "}</p>"},
		{"array join", "<p>{" + selfApply("x => [x, x]", `"a"`, 26) + ".join()}</p>"},
		{"array template", "<p>{`${" + selfApply("x => [x, x]", `"a"`, 26) + "}`}</p>"},
		{"array attribute", `<p title={` + selfApply("x => [x, x]", `"a"`, 26) + `}/>`},
		{"element tree", "<div>{" + selfApply("x => <i>{x}{x}</i>", "<b/>", 26) + "}</div>"},
		{"fragment tree", "<div>{" + selfApply("x => <>{x}{x}</>", "'a'", 26) + "}</div>"},
		{"concat", "<p>{" + selfApply("x => x.concat(x)", "[1]", 40) + ".length}</p>"},
		{"spread", "<p>{" + selfApply("x => [...x, ...x]", "[1]", 40) + ".length}</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evalWithin(t, tt.src, Options{Timeout: 200 * time.Millisecond})
			var rerr *RuntimeError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, KindTimeout, rerr.Kind)
		})
	}
}

func TestNodeLimit(t *testing.T) {
	src := `<ul>{[1,2,3,4,5,6,7,8,9,10].map(i => <li>{i}</li>)}</ul>`
	_, err := Evaluate(context.Background(), src, baseScope(), Options{MaxNodes: 15})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindTimeout, rerr.Kind)
	assert.Contains(t, rerr.Message, "size limit of 15 nodes")

	_, err = Evaluate(context.Background(), src, baseScope(), Options{})
	require.NoError(t, err)
}

func TestStringLengthLimit(t *testing.T) {
	src := "<p>{" + selfApply("x => x + x", `"a"`, 28) + ".length}</p>"
	err := evalWithin(t, src, Options{Timeout: 200 * time.Millisecond})
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindTimeout, rerr.Kind)
	assert.Contains(t, rerr.Message, "string length exceeds")

	for _, src := range []string{
		`<p>{'abc' + 'def'}</p>`,
		"<p>{`${'abc'}def`}</p>",
		`<p>{['abc', 'def'].join('')}</p>`,
	} {
		_, err := Evaluate(context.Background(), src, baseScope(), Options{MaxStringLen: 5})
		require.ErrorAs(t, err, &rerr, src)
		assert.Contains(t, rerr.Message, "limit of 5 bytes", src)
	}

	assert.Equal(t, "<p>abcdef</p>", evalHTML(t, `<p>{'abc' + 'def'}</p>`, baseScope()))
}

func TestConcurrentDispatch(t *testing.T) {
	src := `<button onClick={() => [1, 2, 3].map(n => n * 2).join()}>go</button>`
	node, err := Evaluate(context.Background(), src, baseScope(), Options{MaxSteps: 200})
	require.NoError(t, err)
	btn := render.Find(node, func(el *render.Element) bool { return el.Tag == "button" })
	require.NotNil(t, btn)

	errs := make(chan error, 50)
	for range 50 {
		go func() { errs <- btn.Dispatch("click") }()
	}
	for range 50 {
		assert.NoError(t, <-errs)
	}
}

func TestDispatchedRecursionIsBounded(t *testing.T) {
	src := `<button onClick={(f => () => f(f))(g => g(g))}>loop</button>`
	node, err := Evaluate(context.Background(), src, baseScope(), Options{})
	require.NoError(t, err)
	btn := render.Find(node, func(el *render.Element) bool { return el.Tag == "button" })
	require.NotNil(t, btn)

	var rerr *RuntimeError
	require.ErrorAs(t, btn.Dispatch("click"), &rerr)
	assert.Equal(t, KindTimeout, rerr.Kind)
	assert.Contains(t, rerr.Message, "nesting depth")
}
