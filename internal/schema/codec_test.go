package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("KeepsKeyOrder", func(t *testing.T) {
		t.Parallel()
		v, err := Decode([]byte(`{"z":1,"a":{"y":true,"b":null},"m":[1,"two",null]}`))
		require.NoError(t, err)

		m := v.AsMapping()
		require.NotNil(t, m)
		assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

		inner, _ := m.Get("a")
		assert.Equal(t, []string{"y", "b"}, inner.AsMapping().Keys())

		arr, _ := m.Get("m")
		require.Len(t, arr.Items(), 3)
		assert.True(t, arr.Items()[2].IsAbsent())
	})

	t.Run("Malformed", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{``, `{"a":`, `{"a":1} {"b":2}`, `[1,,2]`} {
			_, err := Decode([]byte(in))
			assert.ErrorIs(t, err, ErrMalformedDocument, "input %q", in)
		}
	})
}

func TestEncode(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	m.Set("name", String("root"))
	m.Set("scale", Number(1))
	m.Set("half", Number(0.5))
	m.Set("list", Seq())
	m.Set("obj", Map(nil))
	m.Set("flag", Bool(true))
	m.Set("none", Null())

	t.Run("Compact", func(t *testing.T) {
		t.Parallel()
		out, err := Encode(Map(m), 0)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"root","scale":1,"half":0.5,"list":[],"obj":{},"flag":true,"none":null}`, string(out))
	})

	t.Run("Indented", func(t *testing.T) {
		t.Parallel()
		inner := NewMapping()
		inner.Set("a", Seq(Number(1), Number(2)))
		out, err := Encode(Map(inner), 2)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}", string(out))
	})

	t.Run("DoesNotEscapeHTML", func(t *testing.T) {
		t.Parallel()
		out, err := Encode(String("a<b>&c"), 0)
		require.NoError(t, err)
		assert.Equal(t, `"a<b>&c"`, string(out))
	})
}
