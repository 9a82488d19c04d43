package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-mapper/internal/payload"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		mime string
		want Parser
	}{
		{mime: "application/json", want: JSON{}},
		{mime: "Application/JSON; charset=utf-8", want: JSON{}},
		{mime: "application/vnd.api+json", want: JSON{}},
		{mime: "text/yaml", want: YAML{}},
		{mime: "application/x-yaml", want: YAML{}},
		{mime: "application/x-www-form-urlencoded", want: Form{}},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			p, err := r.Lookup(tt.mime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.True(t, r.Supports(tt.mime))
		})
	}

	_, err := r.Lookup("text/html")
	require.ErrorIs(t, err, ErrUnsupportedMIMEType)

	_, err = r.Parse("text/html", []byte("<p>"))
	require.ErrorIs(t, err, ErrUnsupportedMIMEType)

	assert.Contains(t, r.MIMETypes(), MIMEJSON)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("text/plain", JSON{Indent: "  "})

	out, err := r.Marshal("text/plain", payload.MustFromAny(map[string]any{"a": 1}))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(out))
}

func TestJSONParseKeepsOrderAndLiterals(t *testing.T) {
	v, err := JSON{}.Parse([]byte(`{"z": 1, "a": {"y": 1.50, "b": [true, null, "x"]}, "big": 12345678901234567890}`))
	require.NoError(t, err)

	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "big"}, obj.Keys())

	big, _ := obj.Get("big")
	lit, _ := big.Literal()
	assert.Equal(t, "12345678901234567890", lit)

	assert.Equal(t, `{"z":1,"a":{"y":1.50,"b":[true,null,"x"]},"big":12345678901234567890}`, v.String())
}

func TestJSONParseErrors(t *testing.T) {
	for _, body := range []string{``, `{"a":`, `{"a": 1} {"b": 2}`} {
		_, err := JSON{}.Parse([]byte(body))
		assert.Error(t, err, body)
	}

	_, err := JSON{}.Parse([]byte(`1 2`))
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestJSONMarshal(t *testing.T) {
	v := payload.ObjectValue(payload.ObjectFromPairs(
		"name", payload.String(`Ann "A"`),
		"age", payload.Int(30),
		"tags", payload.Array(payload.String("x")),
		"none", payload.Null(),
	))

	out, err := JSON{}.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ann \"A\"","age":30,"tags":["x"],"none":null}`, string(out))

	back, err := JSON{}.Parse(out)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))
}

func TestYAMLParse(t *testing.T) {
	body := `
defaults: &defaults
  role: user
  active: true
user:
  <<: *defaults
  name: Ann
  age: 30
  score: 1.5
  hex: 0x1F
  joined: 2021-05-01
  note: ~
  tags: [a, "1"]
`

	v, err := YAML{}.Parse([]byte(body))
	require.NoError(t, err)

	obj, _ := v.AsObject()
	userV, _ := obj.Get("user")
	user, _ := userV.AsObject()

	assert.Equal(t, []string{"role", "active", "name", "age", "score", "hex", "joined", "note", "tags"}, user.Keys())

	get := func(key string) payload.Value {
		v, _ := user.Get(key)
		return v
	}

	assert.Equal(t, payload.String("user"), get("role"))
	assert.Equal(t, payload.Bool(true), get("active"))
	assert.True(t, payload.Int(30).Equal(get("age")))
	assert.True(t, payload.Float(1.5).Equal(get("score")))
	assert.True(t, payload.Int(31).Equal(get("hex")))
	assert.Equal(t, payload.String("2021-05-01T00:00:00Z"), get("joined"))
	assert.True(t, get("note").IsNull())
	assert.Equal(t, `["a","1"]`, get("tags").String())

	empty, err := YAML{}.Parse(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsNull())

	_, err = YAML{}.Parse([]byte("? [a]\n: 1\n"))
	require.ErrorIs(t, err, ErrYAMLKey)
}

func TestYAMLMarshalRoundTrip(t *testing.T) {
	v := payload.ObjectValue(payload.ObjectFromPairs(
		"b", payload.String("true"),
		"a", payload.Int(2),
		"list", payload.Array(payload.Float(0.5), payload.Null()),
	))

	out, err := YAML{}.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "b: \"true\"\na: 2\nlist:\n    - 0.5\n    - null\n", string(out))

	back, err := YAML{}.Parse(out)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))
}

func TestFormParse(t *testing.T) {
	v, err := Form{}.Parse([]byte("user[name]=Ann+B&user[tags][]=a&user[tags][]=b&q=%3F&q=2&items[][id]=1&items[][id]=2&empty="))
	require.NoError(t, err)

	assert.Equal(t,
		`{"user":{"name":"Ann B","tags":["a","b"]},"q":["?","2"],"items":[{"id":"1"},{"id":"2"}],"empty":""}`,
		v.String())

	for _, body := range []string{"[x]=1", "a[b=1", "a]b[=1", "a=%zz"} {
		_, err := Form{}.Parse([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestFormMarshal(t *testing.T) {
	v := payload.MustFromAny(map[string]any{
		"user": map[string]any{"name": "Ann B", "age": 30},
		"tags": []any{"a", "b"},
		"none": nil,
	})

	out, err := Form{}.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "none=&tags[]=a&tags[]=b&user[age]=30&user[name]=Ann+B", string(out))

	_, err = Form{}.Marshal(payload.Int(1))
	require.ErrorIs(t, err, ErrFormValue)
}
