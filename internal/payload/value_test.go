package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeepsInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("zeta", Int(1))
	o.Set("alpha", Int(2))
	o.Set("mid", Int(3))
	o.Set("zeta", Int(4))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, o.Keys())

	v, ok := o.Get("zeta")
	require.True(t, ok)

	n, err := v.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	o.Delete("alpha")
	assert.Equal(t, []string{"zeta", "mid"}, o.Keys())
	assert.False(t, o.Has("alpha"))
}

func TestNumbersKeepPrecision(t *testing.T) {
	v, err := NumberLiteral("9007199254740993")
	require.NoError(t, err)

	n, err := v.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), n)

	frac, err := NumberLiteral("1.5")
	require.NoError(t, err)

	_, err = frac.Int64()
	require.ErrorIs(t, err, ErrNotNumber)

	whole, err := NumberLiteral("30.0")
	require.NoError(t, err)

	n, err = whole.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(30), n)

	_, err = NumberLiteral("abc")
	require.ErrorIs(t, err, ErrNotNumber)
}

func TestEqual(t *testing.T) {
	a := MustFromAny(map[string]any{"a": 1, "b": []any{"x", true, nil}})
	b := ObjectValue(ObjectFromPairs("b", []any{"x", true, nil}, "a", 1.0))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Null()))
	assert.False(t, String("1").Equal(Int(1)))
}

func TestFromAny(t *testing.T) {
	ts := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want Kind
	}{
		{name: "nil", in: nil, want: KindNull},
		{name: "bool", in: true, want: KindBool},
		{name: "int", in: 42, want: KindNumber},
		{name: "uint64", in: uint64(7), want: KindNumber},
		{name: "float", in: 1.25, want: KindNumber},
		{name: "string", in: "x", want: KindString},
		{name: "time", in: ts, want: KindString},
		{name: "strings", in: []string{"a"}, want: KindArray},
		{name: "map", in: map[string]any{"k": "v"}, want: KindObject},
		{name: "object", in: NewObject(), want: KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Kind())
		})
	}

	_, err := FromAny(struct{}{})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestInterfaceAndString(t *testing.T) {
	v := ObjectValue(ObjectFromPairs("name", "Alice", "age", 30, "tags", []string{"a", "b"}))

	assert.Equal(t, map[string]any{
		"name": "Alice",
		"age":  int64(30),
		"tags": []any{"a", "b"},
	}, v.Interface())
	assert.Equal(t, `{"name":"Alice","age":30,"tags":["a","b"]}`, v.String())
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewObject()
	inner := NewObject()
	inner.Set("k", String("v"))
	orig.Set("inner", ObjectValue(inner))

	cp := orig.Clone()
	inner.Set("k", String("changed"))

	got, _ := cp.Get("inner")
	obj, ok := got.AsObject()
	require.True(t, ok)

	s, _ := obj.Get("k")
	assert.Equal(t, String("v"), s)
}
