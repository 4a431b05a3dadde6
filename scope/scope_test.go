package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
)

func snapshot() *registry.Snapshot {
	return registry.New(
		&registry.Primitive{ComponentName: "Button", Element: "button"},
		&registry.Primitive{ComponentName: "Label", Element: "label"},
	)
}

func TestBuildCoversReferences(t *testing.T) {
	refs := extract.References{Components: []string{"Button"}, Handlers: []string{"handleClick"}}
	s, err := Build(refs, snapshot())
	require.NoError(t, err)

	assert.Equal(t, []string{"Button", "Fragment", "handleClick"}, s.Names())
	assert.Equal(t, 3, s.Len())

	_, ok := s.Lookup("Label")
	assert.False(t, ok, "unreferenced registry components stay out of scope")

	k, _ := s.Kind("handleClick")
	assert.Equal(t, StubBinding, k)
	k, _ = s.Kind("Fragment")
	assert.Equal(t, PrimitiveBinding, k)
}

func TestStubIsTotal(t *testing.T) {
	refs := extract.References{Handlers: []string{"onSave"}}
	s, err := Build(refs, snapshot())
	require.NoError(t, err)

	v, ok := s.Lookup("onSave")
	require.True(t, ok)
	fn := v.(*render.Func)
	for _, args := range [][]any{nil, {"x"}, {1.0, nil, render.NewObject()}} {
		out, err := fn.Invoke(args...)
		require.NoError(t, err)
		assert.Equal(t, render.Undefined, out)
	}
}

func TestWithHandlers(t *testing.T) {
	called := 0
	real := &render.Func{Name: "save", Call: func([]any) (any, error) { called++; return nil, nil }}
	refs := extract.References{Handlers: []string{"save", "cancel"}}

	s, err := Build(refs, snapshot(), WithHandlers(map[string]*render.Func{"save": real, "unused": real}))
	require.NoError(t, err)

	v, _ := s.Lookup("save")
	_, _ = v.(*render.Func).Invoke()
	assert.Equal(t, 1, called)

	k, _ := s.Kind("cancel")
	assert.Equal(t, StubBinding, k)
	_, ok := s.Lookup("unused")
	assert.False(t, ok)
}

func TestBuildRejectsUnknownComponent(t *testing.T) {
	_, err := Build(extract.References{Components: []string{"Modal"}}, snapshot())
	assert.ErrorContains(t, err, "Modal")
}

func TestHandlerNameSharedWithComponent(t *testing.T) {
	refs := extract.References{Components: []string{"Button"}, Handlers: []string{"Button"}}
	s, err := Build(refs, snapshot())
	require.NoError(t, err)
	k, _ := s.Kind("Button")
	assert.Equal(t, ComponentBinding, k)
}

func TestBindingKindString(t *testing.T) {
	assert.Equal(t, "component", ComponentBinding.String())
	assert.Equal(t, "stub", StubBinding.String())
	assert.Equal(t, "primitive", PrimitiveBinding.String())
}
