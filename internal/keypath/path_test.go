package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-mapper/internal/payload"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		segments []Segment
	}{
		{input: "name", segments: []Segment{{Kind: SegmentKey, Key: "name"}}},
		{input: "address.city", segments: []Segment{
			{Kind: SegmentKey, Key: "address"},
			{Kind: SegmentKey, Key: "city"},
		}},
		{input: "items.2", segments: []Segment{
			{Kind: SegmentKey, Key: "items"},
			{Kind: SegmentIndex, Index: 2, Key: "2"},
		}},
		{input: "items[2].sku", segments: []Segment{
			{Kind: SegmentKey, Key: "items"},
			{Kind: SegmentIndex, Index: 2, Bracketed: true},
			{Kind: SegmentKey, Key: "sku"},
		}},
		{input: "items[sku]", segments: []Segment{
			{Kind: SegmentKey, Key: "items"},
			{Kind: SegmentCollect, Key: "sku"},
		}},
		{input: "matrix[0][1]", segments: []Segment{
			{Kind: SegmentKey, Key: "matrix"},
			{Kind: SegmentIndex, Index: 0, Bracketed: true},
			{Kind: SegmentIndex, Index: 1, Bracketed: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.segments, p.Segments)
			assert.Equal(t, tt.input, p.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"a..b", ".a", "a.", "items[", "items[]", "items[0]x", "a]b", "a.*"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.ErrorIs(t, err, ErrInvalidPath)
		})
	}

	_, err := ParsePattern("users.*.name")
	require.NoError(t, err)
}

func TestRootPath(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	assert.True(t, p.IsRoot())

	root := payload.String("x")
	v, ok := p.Resolve(root)
	require.True(t, ok)
	assert.Equal(t, root, v)
}

func fixture() payload.Value {
	return payload.MustFromAny(map[string]any{
		"user": map[string]any{
			"name":    "Alice",
			"age":     30,
			"nick":    nil,
			"address": map[string]any{"city": "Berlin"},
			"codes":   map[string]any{"0": "zero", "007": "Bond", "7": "Seven", "+1": "plus"},
		},
		"items": []any{
			map[string]any{"sku": "A1", "qty": 1},
			map[string]any{"qty": 2},
			map[string]any{"sku": "C3", "qty": 3},
		},
	})
}

func TestResolve(t *testing.T) {
	root := fixture()

	tests := []struct {
		path    string
		want    payload.Value
		present bool
	}{
		{path: "user.name", want: payload.String("Alice"), present: true},
		{path: "user.address.city", want: payload.String("Berlin"), present: true},
		{path: "user.nick", want: payload.Null(), present: true},
		{path: "user.missing", present: false},
		{path: "user.missing.deeper", present: false},
		{path: "user.name.first", present: false},
		{path: "user.codes.0", want: payload.String("zero"), present: true},
		{path: "user.codes.007", want: payload.String("Bond"), present: true},
		{path: "user.codes.7", want: payload.String("Seven"), present: true},
		{path: "user.codes.+1", want: payload.String("plus"), present: true},
		{path: "user.codes.-0", present: false},
		{path: "items.01", present: false},
		{path: "items.0.sku", want: payload.String("A1"), present: true},
		{path: "items[2].sku", want: payload.String("C3"), present: true},
		{path: "items.7", present: false},
		{path: "items.sku", present: false},
		{path: "items[sku]", want: payload.Array(payload.String("A1"), payload.String("C3")), present: true},
		{path: "user[sku]", present: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Resolve(root, tt.path)
			assert.Equal(t, tt.present, ok)

			if tt.present {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("users.*.name", "users.alice.name"))
	assert.True(t, Match("items.*", "items[3]"))
	assert.True(t, Match("user", "user"))
	assert.False(t, Match("users.*", "users.alice.name"))
	assert.False(t, Match("user", "users"))
	assert.False(t, Match("a..b", "a.x.b"))
}

func TestExpand(t *testing.T) {
	root := payload.MustFromAny(map[string]any{
		"teams": map[string]any{
			"red":  map[string]any{"lead": "ann"},
			"blue": map[string]any{"lead": "bob"},
			"gray": map[string]any{},
		},
		"list":  []any{"a", "b"},
		"codes": map[string]any{"007": "Bond", "7": "Seven"},
	})

	assert.Empty(t, Expand(root, "nope.*"))
	assert.Equal(t, []string{"teams.blue.lead", "teams.red.lead"}, Expand(root, "teams.*.lead"))
	assert.Equal(t, []string{"list.0", "list.1"}, Expand(root, "list.*"))
	assert.Equal(t, []string{"teams"}, Expand(root, "teams"))
	assert.Nil(t, Expand(root, "missing"))

	codes := Expand(root, "codes.*")
	require.Equal(t, []string{"codes.007", "codes.7"}, codes)

	bond, ok := Resolve(root, codes[0])
	require.True(t, ok)
	assert.Equal(t, "Bond", bond.Interface())
}

func TestChildAndElement(t *testing.T) {
	assert.Equal(t, "user", Child("", "user"))
	assert.Equal(t, "user.pets", Child("user", "pets"))
	assert.Equal(t, "user", Child("user", ""))
	assert.Equal(t, "user.pets[1]", Element(Child("user", "pets"), 1))
}
