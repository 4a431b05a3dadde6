package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/rubiojr/livepreview/designsystem/nova"
	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
	"github.com/rubiojr/livepreview/sandbox"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func pipeline() *Pipeline {
	return New(registry.Default())
}

func TestSnapshotHTML(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"content_card", "<ContentCard clickable tag=\"button\">\n  <ContentCardTitle variant=\"headline-4\">Nova</ContentCardTitle>\n  <ContentCardSubtitle variant=\"subtitle-3\">Design system</ContentCardSubtitle>\n</ContentCard>"},
		{"button", `<Button colorScheme="secondary" onClick={handleClick}>Save</Button>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pipeline().Run(context.Background(), tt.src)
			require.Equal(t, Rendered, res.Kind, res.Message())
			snaps.MatchSnapshot(t, res.HTML)
		})
	}
}

func TestRunRendersWithStubHandlers(t *testing.T) {
	res := pipeline().Run(context.Background(), `<Button onClick={handleClick}>Go</Button>`)
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, []string{"Button"}, res.References.Components)
	assert.Equal(t, []string{"handleClick"}, res.References.Handlers)

	btn := render.Find(res.Artifact, func(el *render.Element) bool { return el.Component == "Button" })
	require.NotNil(t, btn)
	assert.NoError(t, btn.Dispatch("click"))
	assert.Empty(t, res.Message())
}

func TestRunValidationGate(t *testing.T) {
	res := pipeline().Run(context.Background(), `<Buton>x</Buton><Modal/>`)
	assert.Equal(t, ValidationError, res.Kind)
	assert.Equal(t, []string{"Buton", "Modal"}, res.Missing)
	assert.Contains(t, res.Hints["Buton"], "Button")
	assert.Nil(t, res.Artifact)
	assert.Nil(t, res.Error)
	assert.Equal(t, "The following components are not available in the registry: Buton, Modal", res.Message())
}

func TestRunValidationBeforeEvaluation(t *testing.T) {
	// Broken markup with an unknown component reports the missing name,
	// not the syntax error.
	res := pipeline().Run(context.Background(), `<Modal`)
	assert.Equal(t, ValidationError, res.Kind)
	assert.Equal(t, []string{"Modal"}, res.Missing)
	assert.Equal(t, extract.SourceLexical, res.References.Source)
}

func TestRunCompileError(t *testing.T) {
	res := pipeline().Run(context.Background(), "<Button>\n  Save\n</Label>")
	require.Equal(t, CompileError, res.Kind)
	require.NotNil(t, res.Error)
	assert.Equal(t, 3, res.Error.Line)
	assert.Equal(t, "</Label>", res.Error.Fragment)
	assert.True(t, strings.HasPrefix(res.Message(), "SyntaxError (3:1):"), res.Message())
}

func TestRunRuntimeError(t *testing.T) {
	res := pipeline().Run(context.Background(), `<Button>{label}</Button>`)
	require.Equal(t, RuntimeError, res.Kind)
	assert.Equal(t, "ReferenceError", res.Error.Kind)
	assert.Equal(t, "label is not defined", res.Error.Message)
	assert.False(t, res.IsTimeout())
}

func TestRunTimeout(t *testing.T) {
	p := pipeline()
	p.Options = sandbox.Options{MaxSteps: 20}
	res := p.Run(context.Background(), `<Typography>{[1,2,3,4,5,6,7,8,9,10].map(n => n * 2).join()}</Typography>`)
	require.Equal(t, RuntimeError, res.Kind)
	assert.True(t, res.IsTimeout())
}

func TestRunWithRealHandlers(t *testing.T) {
	var got []any
	p := pipeline()
	p.Handlers = map[string]*render.Func{
		"save": {Name: "save", Call: func(args []any) (any, error) { got = args; return nil, nil }},
	}
	res := p.Run(context.Background(), `<Button onClick={save}>Save</Button>`)
	require.True(t, res.OK())
	btn := render.Find(res.Artifact, func(el *render.Element) bool { return el.Tag == "button" })
	require.NoError(t, btn.Dispatch("click", "evt"))
	assert.Equal(t, []any{"evt"}, got)
}

func TestRunIsStateless(t *testing.T) {
	p := pipeline()
	first := p.Run(context.Background(), `<Button onClick={a}>1</Button>`)
	second := p.Run(context.Background(), `<Label>2</Label>`)
	assert.Equal(t, []string{"a"}, first.References.Handlers)
	assert.Empty(t, second.References.Handlers)
	assert.Equal(t, first.HTML, p.Run(context.Background(), `<Button onClick={a}>1</Button>`).HTML)
}

func TestRunConcurrent(t *testing.T) {
	p := pipeline()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := p.RunSeq(context.Background(), uint64(i), `<Badge>{'n' + 1}</Badge>`)
			assert.True(t, res.OK())
			assert.Equal(t, uint64(i), res.Seq)
		}(i)
	}
	wg.Wait()
}

func TestRunLogsStateTransitions(t *testing.T) {
	var buf bytes.Buffer
	p := pipeline()
	p.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p.RunSeq(context.Background(), 7, `<Modal/>`)

	var states []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "preview state" {
			states = append(states, entry["to"].(string))
			assert.Equal(t, float64(7), entry["seq"])
		}
	}
	assert.Equal(t, []string{"extracting", "validating", "blocked"}, states)
}

func TestResultJSON(t *testing.T) {
	res := pipeline().RunSeq(context.Background(), 3, `<Badge>new</Badge>`)
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "rendered", decoded["kind"])
	assert.Equal(t, float64(3), decoded["seq"])
	assert.Contains(t, decoded["html"], `<span class="v-badge">new</span>`)
	artifact := decoded["artifact"].(map[string]any)
	assert.Equal(t, "div", artifact["type"])

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Rendered, back.Kind)
	assert.Equal(t, uint64(3), back.Seq)
	assert.Equal(t, res.HTML, back.HTML)
	assert.Equal(t, res.References, back.References)
	assert.Nil(t, back.Artifact)
	assert.JSONEq(t, string(mustJSON(t, res.Artifact)), string(back.RawArtifact))

	var failed Result
	require.NoError(t, json.Unmarshal([]byte(`{"seq":4,"kind":"validation_error","missing":["Modal"],"references":{}}`), &failed))
	assert.Equal(t, []string{"Modal"}, failed.Missing)
	assert.Empty(t, failed.RawArtifact)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestLatest(t *testing.T) {
	var l Latest
	_, ok := l.Rendered()
	assert.False(t, ok)

	assert.True(t, l.Offer(Result{Seq: 1, Kind: Rendered, HTML: "one"}))
	assert.True(t, l.Offer(Result{Seq: 3, Kind: CompileError}))
	assert.False(t, l.Offer(Result{Seq: 2, Kind: Rendered, HTML: "stale"}))

	r, ok := l.Rendered()
	require.True(t, ok)
	assert.Equal(t, "one", r.HTML)
	f, ok := l.Failure()
	require.True(t, ok)
	assert.Equal(t, uint64(3), f.Seq)

	assert.True(t, l.Offer(Result{Seq: 4, Kind: Rendered, HTML: "four"}))
	_, ok = l.Failure()
	assert.False(t, ok)
	r, _ = l.Rendered()
	assert.Equal(t, "four", r.HTML)
}
