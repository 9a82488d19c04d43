package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-mapper/internal/mapping"
	"object-mapper/internal/parser"
	"object-mapper/internal/reqcache"
	"object-mapper/internal/shape"
)

type user struct {
	ID    int64
	Name  string
	Email string
}

var userShape = shape.Define("User", func() *user { return &user{} }).
	Int("id", func(u *user) int64 { return u.ID }, func(u *user, v int64) { u.ID = v }).
	String("name", func(u *user) string { return u.Name }, func(u *user, v string) { u.Name = v }).
	String("email", func(u *user) string { return u.Email }, func(u *user, v string) { u.Email = v }).
	Shape()

func userMapping() *mapping.ObjectMapping {
	return mapping.New(userShape).MapAttributes("id", "name", "email")
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newClient(t *testing.T, srv *httptest.Server, mutate func(*Options)) *Client {
	t.Helper()

	opts := Options{BaseURL: srv.URL + "/api", HTTPClient: srv.Client()}
	if mutate != nil {
		mutate(&opts)
	}

	c, err := New(opts)
	require.NoError(t, err)

	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "/relative", "example.com"} {
		_, err := New(Options{BaseURL: raw})
		require.ErrorIs(t, err, ErrInvalidBaseURL, raw)
	}
}

func TestURL(t *testing.T) {
	c, err := New(Options{BaseURL: "https://example.com/api/"})
	require.NoError(t, err)

	u, err := c.URL("/users/7?fields=name", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/users/7?fields=name", u)

	u, err = c.URL("users", map[string][]string{"page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/users?page=2", u)
}

func TestLoadWithPathPattern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/7", r.URL.Path)
		assert.Equal(t, parser.MIMEJSON, r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, `{"id":7,"name":"Ann","email":"ann@example.com"}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	require.NoError(t, c.Provider().AddMappingForPattern(mapping.ContextObjects, "/users/:id", userMapping()))

	resp, err := c.Load(context.Background(), "/users/7")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, parser.MIMEJSON, resp.MIMEType)
	assert.Equal(t, "7", resp.Params["id"])
	assert.Equal(t, &user{ID: 7, Name: "Ann", Email: "ann@example.com"}, resp.Object())
}

func TestLoadDynamicKeyPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"users":[{"id":1,"name":"Ann"},{"id":2,"name":"Bo"}],"meta":{}}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	require.NoError(t, c.Provider().SetObjectMapping("users", userMapping()))

	resp, err := c.Load(context.Background(), "/users")
	require.NoError(t, err)

	objects := resp.Objects()
	require.Len(t, objects, 2)
	assert.Equal(t, "Ann", objects[0].(*user).Name)
	assert.Equal(t, "Bo", objects[1].(*user).Name)
}

func TestLoadOntoTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":{"id":3,"name":"Cy"}}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)

	u := &user{Email: "kept@example.com"}
	resp, err := c.Load(context.Background(), "/me",
		WithMapping(userMapping()), WithKeyPath("user"), WithTarget(u))
	require.NoError(t, err)

	assert.Same(t, u, resp.Object())
	assert.Equal(t, &user{ID: 3, Name: "Cy", Email: "kept@example.com"}, u)
}

func TestConditionalGetServedFromCache(t *testing.T) {
	var full, notModified atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)

			return
		}

		full.Add(1)
		w.Header().Set("ETag", `"v1"`)
		writeJSON(w, http.StatusOK, `{"id":1,"name":"Ann"}`)
	}))
	defer srv.Close()

	cache, err := reqcache.New(reqcache.Options{Policy: reqcache.PolicyForDurationOfSession})
	require.NoError(t, err)

	c := newClient(t, srv, func(o *Options) { o.Cache = cache })
	m := userMapping()

	first, err := c.Load(context.Background(), "/users/1", WithMapping(m))
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := c.Load(context.Background(), "/users/1", WithMapping(m))
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "Ann", second.Object().(*user).Name)

	assert.Equal(t, int32(1), full.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestUnsupportedMIMETypeIsNotMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)

	resp, err := c.Load(context.Background(), "/page", WithMapping(userMapping()))
	require.ErrorIs(t, err, parser.ErrUnsupportedMIMEType)
	require.NotNil(t, resp)
	assert.Nil(t, resp.Result)
	assert.Equal(t, "text/html", resp.MIMEType)
}

func TestErrorResponseMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"errors":[{"message":"name is blank"},{"message":"email is taken"}]}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	errMapping := mapping.New(shape.Dictionary()).MapAttributes("message")
	require.NoError(t, c.Provider().SetErrorMapping("errors", errMapping))

	_, err := c.Load(context.Background(), "/users/1", WithMapping(userMapping()))

	var rerr *ResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnprocessableEntity, rerr.StatusCode)
	assert.True(t, rerr.IsClientError())
	assert.Equal(t, []string{"name is blank", "email is taken"}, rerr.Messages)
	assert.Contains(t, rerr.Error(), "name is blank, email is taken")
}

func TestErrorResponseWithoutErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)

	_, err := c.Load(context.Background(), "/boom")

	var rerr *ResponseError
	require.ErrorAs(t, err, &rerr)
	assert.False(t, rerr.IsClientError())
	assert.Empty(t, rerr.Messages)
	assert.Equal(t, "request failed with status 500 Internal Server Error", rerr.Error())
}

func TestPostSerializesAndMapsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, parser.MIMEJSON, r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ann", body["name"])
		assert.Equal(t, "ann@example.com", body["email"])

		writeJSON(w, http.StatusCreated, `{"id":9,"name":"Ann","email":"ann@example.com"}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)
	m := userMapping()
	require.NoError(t, c.Provider().SetSerializationMapping("User", m.Inverse()))

	u := &user{Name: "Ann", Email: "ann@example.com"}

	resp, err := c.Post(context.Background(), "/users", u, userShape, WithMapping(m))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Same(t, u, resp.Object())
	assert.Equal(t, int64(9), u.ID)
}

func TestPutWithoutSerializationMapping(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)

	_, err := c.Put(context.Background(), "/users/1", &user{}, userShape)
	require.Error(t, err)

	_, err = c.Put(context.Background(), "/users/1", &user{}, nil)
	require.ErrorIs(t, err, ErrNoSerializer)

	assert.Zero(t, calls.Load())
}

func TestDeleteWithEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)

	resp, err := c.Delete(context.Background(), "/users/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, resp.Payload.IsNull())
	assert.Nil(t, resp.Result)
	assert.Empty(t, resp.Objects())
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":1}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Load(ctx, "/users/1", WithMapping(userMapping()))
	require.ErrorIs(t, err, context.Canceled)
}

type article struct{ Title string }

var articleShape = shape.Define("Article", func() *article { return &article{} }).
	String("title", func(a *article) string { return a.Title }, func(a *article, v string) { a.Title = v }).
	Shape()

func articleServer(t *testing.T, withCounts bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		assert.NoError(t, err)
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		titles := map[int]string{
			1: `[{"title":"a"},{"title":"b"}]`,
			2: `[{"title":"c"},{"title":"d"}]`,
			3: `[{"title":"e"}]`,
		}

		counts := ""
		if withCounts {
			counts = `,"total":5,"pages":3`
		}

		writeJSON(w, http.StatusOK, `{"page":`+strconv.Itoa(page)+`,"per_page":2`+counts+`,"articles":`+titles[page]+`}`)
	}))
}

func paginatorClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	c := newClient(t, srv, nil)
	require.NoError(t, c.Provider().SetPaginationMapping(PaginationMapping("page", "per_page", "total", "pages")))
	require.NoError(t, c.Provider().SetObjectMapping("articles", mapping.New(articleShape).MapAttributes("title")))

	return c
}

func titles(objects []any) []string {
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.(*article).Title)
	}

	return out
}

func TestPaginator(t *testing.T) {
	srv := articleServer(t, true)
	defer srv.Close()

	p, err := NewPaginator(paginatorClient(t, srv), "/articles?page=:currentPage&per_page=:perPage", 2)
	require.NoError(t, err)

	u, err := p.URL(3)
	require.NoError(t, err)
	assert.Equal(t, "/articles?page=3&per_page=2", u)

	assert.False(t, p.IsLoaded())
	_, err = p.HasNextPage()
	require.ErrorIs(t, err, ErrNotLoaded)

	var loadedPages []int64
	p.OnLoad = func(_ []any, page int64) { loadedPages = append(loadedPages, page) }

	objects, err := p.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(objects))

	assert.True(t, p.IsLoaded())
	assert.True(t, p.HasPageCount())
	assert.True(t, p.HasObjectCount())

	count, err := p.ObjectCount()
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	next, err := p.HasNextPage()
	require.NoError(t, err)
	assert.True(t, next)

	prev, err := p.HasPreviousPage()
	require.NoError(t, err)
	assert.False(t, prev)

	_, err = p.LoadPreviousPage(context.Background())
	require.ErrorIs(t, err, ErrPageOutOfRange)

	objects, err = p.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, titles(objects))

	objects, err = p.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, titles(objects))

	current, err := p.CurrentPage()
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)

	next, err = p.HasNextPage()
	require.NoError(t, err)
	assert.False(t, next)

	_, err = p.LoadNextPage(context.Background())
	require.ErrorIs(t, err, ErrPageOutOfRange)

	objects, err = p.LoadPreviousPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, titles(objects))

	assert.Equal(t, []int64{1, 2, 3, 2}, loadedPages)
}

func TestPaginatorWithoutCounts(t *testing.T) {
	srv := articleServer(t, false)
	defer srv.Close()

	p, err := NewPaginator(paginatorClient(t, srv), "/articles?page=:currentPage&per_page=:perPage", 2)
	require.NoError(t, err)

	_, err = p.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, p.HasPageCount())
	assert.False(t, p.HasObjectCount())

	_, err = p.PageCount()
	require.ErrorIs(t, err, ErrNoPageCount)

	_, err = p.ObjectCount()
	require.ErrorIs(t, err, ErrNoObjectCount)

	_, err = p.HasNextPage()
	require.ErrorIs(t, err, ErrNoPageCount)

	info, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, PageInfo{CurrentPage: 1, PerPage: 2, ObjectCount: -1, PageCount: -1}, info)
}

func TestPaginatorErrors(t *testing.T) {
	srv := articleServer(t, true)
	defer srv.Close()

	c := newClient(t, srv, nil)

	p, err := NewPaginator(c, "/articles?page=:currentPage&per_page=:perPage", 2)
	require.NoError(t, err)

	var reported []error
	p.OnError = func(err error) { reported = append(reported, err) }

	_, err = p.LoadPage(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoPaginationMapping)

	_, err = p.LoadPage(context.Background(), 0)
	require.ErrorIs(t, err, ErrPageOutOfRange)

	require.Len(t, reported, 2)
	assert.True(t, errors.Is(reported[0], ErrNoPaginationMapping))

	_, err = NewPaginator(c, "", 2)
	require.Error(t, err)

	p, err = NewPaginator(c, "/articles?page=:currentPage", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultPerPage), p.PerPage())
}
