package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// modes returns the mode string of every byte of src: t(ext), g (tag),
// e(xpr), and s for bytes inside string literals.
func modes(src string) string {
	s := New(src)
	out := make([]byte, 0, len(src))
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		switch {
		case s.InString():
			out = append(out, 's')
		case s.Mode() == Tag:
			out = append(out, 'g')
		case s.Mode() == Expr:
			out = append(out, 'e')
		default:
			out = append(out, 't')
		}
	}
	return string(out)
}

func TestModes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`hi`, "tt"},
		{`<a b="x">y</a>`, "gggggsssttgggt"},
		{`{'<A>'}`, "essssst"},
		{`<a b={1}/>`, "gggggeeggt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, modes(tt.src), tt.src)
	}
}

func TestStringsInExpressions(t *testing.T) {
	s := New(`{"a}b" + '<B>' + ` + "`x`" + `}`)
	var code []byte
	for {
		ch, ok := s.Next()
		if !ok {
			break
		}
		if s.InCode() {
			code = append(code, ch)
		}
	}
	assert.Equal(t, "{ +  + }", string(code))
	assert.Equal(t, 0, s.Depth())
}

func TestEscapes(t *testing.T) {
	s := New(`{"a\"<B>"}x`)
	var sawTag bool
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		if s.OpenedTag() {
			sawTag = true
		}
	}
	assert.False(t, sawTag)
	assert.Equal(t, Text, s.Mode())
}

func TestJSXInsideExpression(t *testing.T) {
	src := `{items.map(i => <Item>{i}</Item>)}`
	s := New(src)
	var opened []int
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		if s.OpenedTag() {
			opened = append(opened, s.Pos())
		}
	}
	assert.Equal(t, []int{16, 25}, opened)
	assert.Equal(t, Text, s.Mode())
	assert.Equal(t, 0, s.Depth())
}

func TestComparisonIsNotATag(t *testing.T) {
	s := New(`{a < 3}`)
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		assert.False(t, s.OpenedTag())
	}
}

func TestClosingTag(t *testing.T) {
	s := New(`<a></a>`)
	s.Skip(4)
	assert.True(t, s.ClosingTag())
	assert.True(t, s.LookingAt("</a>"))
}

func TestUnterminated(t *testing.T) {
	s := New("<Button onClick={go\n")
	n := s.Skip(100)
	assert.Equal(t, 20, n)
	assert.Equal(t, 2, s.Line())
	assert.Equal(t, Expr, s.Mode())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "onClick", ReadWord("  onClick={x}", 2))
	assert.Equal(t, 4, SkipSpace("a \t b", 1))
	assert.True(t, IsIdentByte('$'))
	assert.True(t, IsWordByte('_'))
	assert.False(t, IsWordByte('-'))
	assert.True(t, IsSpace('\n'))
	assert.Equal(t, "tag", Tag.String())
}
