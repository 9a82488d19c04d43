package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleDefinitions = `version: "1"
mappings:
  - name: Person
    shape: Person
    attributes:
      - id
      - full_name: name
    relationships:
      - source: pets
        mapping: Pet
        many: true
  - name: Pet
    shape: Pet
    attributes: [name]
provider:
  - key_path: people
    mapping: Person
  - context: serialization
    mapping: Person
    inverse: true
`

const peoplePayload = `{"meta": {"count": 1}, "people": [{"id": 1, "full_name": "Ann", "pets": [{"name": "Rex"}]}]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestMapWithProvider(t *testing.T) {
	defs := writeFile(t, "mappings.yaml", peopleDefinitions)
	src := writeFile(t, "people.json", peoplePayload)

	out, _, err := execute(t, "map", src, "-d", defs)
	require.NoError(t, err)

	assert.JSONEq(t, `{"people": [{"id": 1, "name": "Ann", "pets": [{"name": "Rex"}]}]}`, out)
}

func TestMapWithNamedMapping(t *testing.T) {
	defs := writeFile(t, "mappings.yaml", peopleDefinitions)
	src := writeFile(t, "person.yaml", "id: 2\nfull_name: Bo\n")

	out, _, err := execute(t, "map", src, "-d", defs, "-m", "Person")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 2, "name": "Bo"}`, out)

	src = writeFile(t, "owner.json", `{"owner": {"id": 5, "full_name": "Di"}}`)

	out, _, err = execute(t, "map", src, "-d", defs, "-m", "Person", "-k", "owner")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner": {"id": 5, "name": "Di"}}`, out)
}

func TestMapYAMLOutput(t *testing.T) {
	defs := writeFile(t, "mappings.yaml", peopleDefinitions)
	src := writeFile(t, "person.json", `{"id": 3, "full_name": "Cy"}`)

	out, _, err := execute(t, "map", src, "-d", defs, "-m", "Person", "--format", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "id: 3\nname: Cy\n", out)
}

func TestMapFailures(t *testing.T) {
	defs := writeFile(t, "mappings.yaml", peopleDefinitions)
	src := writeFile(t, "people.json", peoplePayload)

	_, _, err := execute(t, "map", src, "-d", defs, "-m", "Nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `mapping "Nobody" not found`)

	_, _, err = execute(t, "map", src)
	require.Error(t, err)

	_, _, err = execute(t, "map", src, "-d", defs, "--format", "xml")
	require.Error(t, err)

	_, _, err = execute(t, "map", src, "-d", defs, "--context", "sideways")
	require.Error(t, err)

	broken := writeFile(t, "broken.json", `{"people": [`)
	_, _, err = execute(t, "map", broken, "-d", defs)
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	var requests, notModified int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		assert.Equal(t, "/people", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified++
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(peoplePayload))
	}))
	defer srv.Close()

	defs := writeFile(t, "mappings.yaml", peopleDefinitions)
	cacheDir := t.TempDir()
	want := `{"people": [{"id": 1, "name": "Ann", "pets": [{"name": "Rex"}]}]}`

	for range 2 {
		out, _, err := execute(t, "fetch", "/people", "-d", defs, "--base-url", srv.URL,
			"-H", "Authorization: Bearer abc", "--cache-dir", cacheDir)
		require.NoError(t, err)
		assert.JSONEq(t, want, out)
	}

	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, notModified)

	_, _, err := execute(t, "fetch", "/people", "-d", defs, "--base-url", srv.URL, "-H", "broken")
	require.Error(t, err)

	_, _, err = execute(t, "fetch", "/people", "-d", defs, "--base-url", "not a url")
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	defs := writeFile(t, "mappings.yaml", peopleDefinitions)

	out, _, err := execute(t, "check", defs)
	require.NoError(t, err)
	assert.Contains(t, out, "2 mappings, 2 provider entries, 0 warnings")

	bad := writeFile(t, "bad.yaml", `mappings:
  - name: Person
    shape: Person
    relationships:
      - source: pets
        mapping: Pett
        many: true
  - name: Pet
    shape: Pet
    attributes: [name]
provider:
  - key_path: people
    mapping: Person
`)

	out, _, err = execute(t, "check", bad)
	require.Error(t, err)
	assert.Contains(t, out, "[unknown_mapping]")
	assert.Contains(t, out, "did you mean Pet?")
	assert.Contains(t, out, "[unused_mapping]")
}

func TestInverse(t *testing.T) {
	defs := writeFile(t, "mappings.yaml", peopleDefinitions)

	out, _, err := execute(t, "inverse", defs, "Person")
	require.NoError(t, err)
	assert.Contains(t, out, "name: PersonInverse")
	assert.Contains(t, out, "- name: full_name")
	assert.Contains(t, out, "mapping: PetInverse")

	out, _, err = execute(t, "inverse", defs, "Person", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "PersonInverse"`)

	_, _, err = execute(t, "inverse", defs, "Nobody")
	require.Error(t, err)
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("OBJECT_MAPPER_LOG_LEVEL", "debug")

	settingsFile := writeFile(t, "settings.yaml", "format: yaml\nlog:\n  format: json\n")

	cmd := NewRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--format", "dump"}))

	s, err := LoadSettings(cmd, settingsFile)
	require.NoError(t, err)

	assert.Equal(t, FormatDump, s.Format)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.Equal(t, "stderr", s.Log.Output)
}

func TestLoadSettingsErrors(t *testing.T) {
	cmd := NewRootCommand()

	_, err := LoadSettings(cmd, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := writeFile(t, "settings.yaml", "log:\n  level: loud\n")
	_, err = LoadSettings(cmd, bad)
	require.Error(t, err)
}
