package reqcache

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(url, etag string) *Entry {
	h := http.Header{}
	if etag != "" {
		h.Set("ETag", etag)
	}

	return &Entry{
		Method:     "get",
		URL:        url,
		StatusCode: http.StatusOK,
		MIMEType:   "application/json",
		Header:     h,
		Body:       []byte(`{"ok":true}`),
	}
}

func newCache(t *testing.T, p StoragePolicy) *Cache {
	t.Helper()

	c, err := New(Options{Policy: p, Dir: t.TempDir(), Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	return c
}

func TestDisabledStoresNothing(t *testing.T) {
	c := newCache(t, PolicyDisabled)

	require.NoError(t, c.Store(entry("/users", `"v1"`)))
	assert.False(t, c.Has("GET", "/users"))
	assert.Empty(t, c.ETag("GET", "/users"))

	_, ok := c.CacheDate("GET", "/users")
	assert.False(t, ok)
}

func TestPolicies(t *testing.T) {
	for _, p := range []StoragePolicy{PolicyForDurationOfSession, PolicyPermanently} {
		t.Run(p.String(), func(t *testing.T) {
			c := newCache(t, p)

			require.NoError(t, c.Store(entry("/users", `"v1"`)))
			assert.True(t, c.Has("GET", "/users"))
			assert.True(t, c.Has("get", "/users"), "methods are case-insensitive")
			assert.False(t, c.Has("POST", "/users"))

			e, ok := c.Response("GET", "/users")
			require.True(t, ok)
			assert.Equal(t, "GET", e.Method)
			assert.Equal(t, http.StatusOK, e.StatusCode)
			assert.Equal(t, `{"ok":true}`, string(e.Body))
			assert.Equal(t, `"v1"`, c.ETag("GET", "/users"))
			assert.Equal(t, "application/json", e.MIMEType)
			assert.Equal(t, `"v1"`, c.Headers("GET", "/users").Get("Etag"))

			at, ok := c.CacheDate("GET", "/users")
			require.True(t, ok)
			assert.True(t, at.Equal(fixed))

			later := fixed.Add(time.Hour)
			require.NoError(t, c.SetCacheDate("GET", "/users", later))
			at, _ = c.CacheDate("GET", "/users")
			assert.True(t, at.Equal(later))

			require.NoError(t, c.Invalidate("GET", "/users"))
			assert.False(t, c.Has("GET", "/users"))
			require.NoError(t, c.Invalidate("GET", "/users"))
		})
	}
}

func TestResponseIsACopy(t *testing.T) {
	c := newCache(t, PolicyForDurationOfSession)
	require.NoError(t, c.Store(entry("/a", "")))

	e, _ := c.Response("GET", "/a")
	e.Body[0] = 'X'
	e.Header.Set("ETag", "changed")

	again, _ := c.Response("GET", "/a")
	assert.Equal(t, `{"ok":true}`, string(again.Body))
	assert.Empty(t, again.ETag())
}

func TestPermanentEntriesSurviveRestart(t *testing.T) {
	dir := t.TempDir()

	c, err := New(Options{Policy: PolicyPermanently, Dir: dir})
	require.NoError(t, err)
	require.NoError(t, c.Store(entry("/users/1", `"abc"`)))

	_, err = os.Stat(c.PathFor("GET", "/users/1"))
	require.NoError(t, err)

	reopened, err := New(Options{Policy: PolicyDisabled, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, reopened.ETag("GET", "/users/1"))
	assert.Equal(t, dir, reopened.Path())
}

func TestInvalidateByPolicy(t *testing.T) {
	c := newCache(t, PolicyForDurationOfSession)
	require.NoError(t, c.Store(entry("/session", "")))

	require.NoError(t, c.SetPolicy(PolicyPermanently))
	assert.Equal(t, PolicyPermanently, c.Policy())
	require.NoError(t, c.Store(entry("/disk", "")))

	require.NoError(t, os.WriteFile(c.Path()+"/keep.txt", []byte("x"), 0o644))

	require.NoError(t, c.InvalidateWithStoragePolicy(PolicyPermanently))
	assert.True(t, c.Has("GET", "/session"))
	assert.False(t, c.Has("GET", "/disk"))

	_, err := os.Stat(c.Path() + "/keep.txt")
	require.NoError(t, err, "only cache entries are removed")

	require.NoError(t, c.Store(entry("/disk", "")))
	require.NoError(t, c.InvalidateWithStoragePolicy(PolicyForDurationOfSession))
	assert.False(t, c.Has("GET", "/session"))
	assert.True(t, c.Has("GET", "/disk"))

	require.NoError(t, c.InvalidateAll())
	assert.False(t, c.Has("GET", "/disk"))
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c := newCache(t, PolicyPermanently)
	require.NoError(t, os.WriteFile(c.PathFor("GET", "/bad"), []byte("{"), 0o644))

	assert.False(t, c.Has("GET", "/bad"))
}

func TestOptionsValidation(t *testing.T) {
	_, err := New(Options{Policy: PolicyPermanently})
	require.ErrorIs(t, err, ErrNoDirectory)

	c, err := New(Options{Policy: PolicyForDurationOfSession})
	require.NoError(t, err)
	require.ErrorIs(t, c.SetPolicy(PolicyPermanently), ErrNoDirectory)
	assert.Empty(t, c.PathFor("GET", "/x"))
}

func TestParseStoragePolicy(t *testing.T) {
	for _, p := range []StoragePolicy{PolicyDisabled, PolicyForDurationOfSession, PolicyPermanently} {
		got, err := ParseStoragePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParseStoragePolicy("forever")
	require.Error(t, err)
	assert.Equal(t, "unknown", StoragePolicy(9).String())
}
