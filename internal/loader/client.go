package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"object-mapper/internal/mapper"
	"object-mapper/internal/mapping"
	"object-mapper/internal/parser"
	"object-mapper/internal/pathpattern"
	"object-mapper/internal/payload"
	"object-mapper/internal/reqcache"
	"object-mapper/internal/serialize"
	"object-mapper/internal/shape"
)

// Options configure a Client.
type Options struct {
	// BaseURL is prefixed to every resource path.
	BaseURL string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
	Provider   *mapping.Provider
	// Parsers defaults to parser.NewRegistry().
	Parsers *parser.Registry
	// Cache is optional; without it nothing is cached.
	Cache *reqcache.Cache
	// Store is handed to every mapper run.
	Store     mapper.IdentityStore
	Validator mapper.Validator
	Hooks     mapper.Hooks
	// ContentType encodes object bodies. Defaults to JSON.
	ContentType string
	// Header is sent with every request.
	Header http.Header
	Logger *slog.Logger
}

// Client loads and maps resources.
type Client struct {
	base       *url.URL
	http       *http.Client
	provider   *mapping.Provider
	parsers    *parser.Registry
	cache      *reqcache.Cache
	serializer *serialize.Serializer
	opts       Options
	log        *slog.Logger
}

// New returns a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	if opts.Provider == nil {
		opts.Provider = mapping.NewProvider()
	}

	if opts.Parsers == nil {
		opts.Parsers = parser.NewRegistry()
	}

	if opts.ContentType == "" {
		opts.ContentType = parser.MIMEJSON
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		base:     base,
		http:     opts.HTTPClient,
		provider: opts.Provider,
		parsers:  opts.Parsers,
		cache:    opts.Cache,
		serializer: serialize.New(serialize.Options{
			Provider: opts.Provider,
			Parsers:  opts.Parsers,
			Logger:   opts.Logger,
		}),
		opts: opts,
		log:  opts.Logger.With("component", "loader"),
	}, nil
}

// Provider returns the mapping provider.
func (c *Client) Provider() *mapping.Provider { return c.provider }

// Request describes one call. Use the RequestOptions of Load, Post, Put and
// Delete to fill it.
type Request struct {
	Method string
	// Path is the resource path relative to the base URL, query included.
	Path   string
	Query  url.Values
	Header http.Header
	// Object is serialized as the body and receives the mapped response.
	Object any
	// Shape is the shape of Object.
	Shape *shape.Shape
	// Target receives the mapped response when Object is nil.
	Target  any
	Mapping mapping.Definition
	KeyPath string
}

// RequestOption adjusts a Request.
type RequestOption func(*Request)

// WithTarget maps the response onto target.
func WithTarget(target any) RequestOption {
	return func(r *Request) { r.Target = target }
}

// WithMapping maps the response with def instead of looking one up.
func WithMapping(def mapping.Definition) RequestOption {
	return func(r *Request) { r.Mapping = def }
}

// WithKeyPath maps only the value at keyPath. It needs WithMapping.
func WithKeyPath(keyPath string) RequestOption {
	return func(r *Request) { r.KeyPath = keyPath }
}

// WithQuery adds query parameters.
func WithQuery(q url.Values) RequestOption {
	return func(r *Request) { r.Query = q }
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}

		r.Header.Add(key, value)
	}
}

// Response is a completed call.
type Response struct {
	StatusCode int
	Header     http.Header
	MIMEType   string
	Body       []byte
	// Payload is the parsed body; null when the body was empty.
	Payload payload.Value
	// Result is nil when nothing was mapped.
	Result *mapper.Result
	// Params holds the placeholders of the matched path pattern.
	Params pathpattern.Params
	// FromCache is set when a 304 answer was served from the cache.
	FromCache bool
}

// Objects returns every mapped object.
func (r *Response) Objects() []any {
	if r.Result == nil {
		return nil
	}

	return r.Result.All()
}

// Object returns the first mapped object, or nil.
func (r *Response) Object() any {
	if r.Result == nil {
		return nil
	}

	return r.Result.First()
}

// Load issues a GET for path and maps the response.
func (c *Client) Load(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, newRequest(http.MethodGet, path, nil, nil, opts))
}

// Post sends obj, serialized with the provider's serialization mapping for
// sh, and maps the response back onto obj.
func (c *Client) Post(ctx context.Context, path string, obj any, sh *shape.Shape, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, newRequest(http.MethodPost, path, obj, sh, opts))
}

// Put is Post with the PUT method.
func (c *Client) Put(ctx context.Context, path string, obj any, sh *shape.Shape, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, newRequest(http.MethodPut, path, obj, sh, opts))
}

// Delete issues a DELETE for path. A response body is mapped like any other.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, newRequest(http.MethodDelete, path, nil, nil, opts))
}

func newRequest(method, path string, obj any, sh *shape.Shape, opts []RequestOption) *Request {
	r := &Request{Method: method, Path: path, Object: obj, Shape: sh}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// URL resolves a resource path against the base URL.
func (c *Client) URL(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("resource path %q: %w", path, err)
	}

	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawQuery = ref.RawQuery

	if len(query) > 0 {
		q := u.Query()

		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}

		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Do performs req.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := c.URL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	log := c.log.With("method", req.Method, "url", target)

	body, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.setHeaders(httpReq, req, body != nil)

	var cached *reqcache.Entry

	if c.cache != nil && req.Method == http.MethodGet {
		if e, ok := c.cache.Response(req.Method, target); ok {
			cached = e

			if etag := e.ETag(); etag != "" {
				httpReq.Header.Set("If-None-Match", etag)
			}
		}
	}

	log.Debug("sending request")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, target, err)
	}
	defer httpResp.Body.Close()

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header}

	if httpResp.StatusCode == http.StatusNotModified && cached != nil {
		log.Debug("serving response from cache")

		resp.StatusCode = cached.StatusCode
		resp.Header = cached.Header
		resp.MIMEType = cached.MIMEType
		resp.Body = cached.Body
		resp.FromCache = true

		if err := c.cache.SetCacheDate(req.Method, target, time.Now()); err != nil {
			log.Warn("updating cache date failed", "error", err)
		}
	} else {
		if resp.Body, err = io.ReadAll(httpResp.Body); err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}

		resp.MIMEType = parser.Normalize(httpResp.Header.Get("Content-Type"))
	}

	if err := c.parse(resp); err != nil {
		return resp, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, c.responseError(ctx, resp, log)
	}

	if c.cache != nil && req.Method == http.MethodGet && !resp.FromCache && resp.StatusCode == http.StatusOK {
		err := c.cache.Store(&reqcache.Entry{
			Method:     req.Method,
			URL:        target,
			StatusCode: resp.StatusCode,
			MIMEType:   resp.MIMEType,
			Header:     resp.Header,
			Body:       resp.Body,
		})
		if err != nil {
			log.Warn("caching response failed", "error", err)
		}
	}

	if resp.Payload.IsNull() {
		return resp, nil
	}

	// nothing is mapped once the caller gave up
	if err := ctx.Err(); err != nil {
		return resp, err
	}

	if err := c.mapResponse(req, resp); err != nil {
		return resp, err
	}

	log.Info("request mapped", "status", resp.StatusCode, "objects", len(resp.Objects()), "from_cache", resp.FromCache)

	return resp, nil
}

func (c *Client) encodeBody(req *Request) ([]byte, error) {
	if req.Object == nil {
		return nil, nil
	}

	sh := req.Shape
	if sh == nil {
		return nil, fmt.Errorf("%w: no shape given for %T", ErrNoSerializer, req.Object)
	}

	m, err := c.serializer.MappingFor(sh)
	if err != nil {
		return nil, err
	}

	return c.serializer.Marshal(req.Object, sh, m, c.opts.ContentType)
}

func (c *Client) setHeaders(httpReq *http.Request, req *Request, hasBody bool) {
	for k, vs := range c.opts.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", c.opts.ContentType)
	}

	if hasBody {
		httpReq.Header.Set("Content-Type", c.opts.ContentType)
	}
}

// parse checks the MIME type before anything is mapped. Empty bodies parse to null.
func (c *Client) parse(resp *Response) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		resp.Payload = payload.Null()
		return nil
	}

	v, err := c.parsers.Parse(resp.MIMEType, resp.Body)
	if err != nil {
		return err
	}

	resp.Payload = v

	return nil
}

func (c *Client) newMapper(ctx mapping.Context) *mapper.Mapper {
	return mapper.New(mapper.Options{
		Provider:  c.provider,
		Context:   ctx,
		Store:     c.opts.Store,
		Validator: c.opts.Validator,
		Hooks:     c.opts.Hooks,
		Logger:    c.opts.Logger,
	})
}

func (c *Client) responseError(ctx context.Context, resp *Response, log *slog.Logger) error {
	rerr := &ResponseError{StatusCode: resp.StatusCode, Body: resp.Body}

	if !resp.Payload.IsNull() && ctx.Err() == nil && len(c.provider.KeyPathEntries(mapping.ContextErrors)) > 0 {
		res, err := c.newMapper(mapping.ContextErrors).Perform(resp.Payload)
		if err != nil {
			log.Warn("mapping error response failed", "error", err)
		}

		if res != nil {
			rerr.Result = res
			resp.Result = res

			for _, obj := range res.All() {
				rerr.Messages = append(rerr.Messages, message(obj))
			}
		}
	}

	log.Info("request failed", "status", resp.StatusCode, "messages", len(rerr.Messages))

	return rerr
}

func (c *Client) mapResponse(req *Request, resp *Response) error {
	var opts []mapper.PerformOption

	target := req.Object
	if target == nil {
		target = req.Target
	}

	if target != nil {
		opts = append(opts, mapper.WithTarget(target))
	}

	def := req.Mapping
	if def == nil {
		resourcePath := req.Path
		if i := strings.IndexAny(resourcePath, "?#"); i >= 0 {
			resourcePath = resourcePath[:i]
		}

		if matched, params, ok := c.provider.MappingForPath(mapping.ContextObjects, resourcePath); ok {
			def = matched
			resp.Params = params
		}
	}

	if def != nil {
		opts = append(opts, mapper.WithMapping(def))
		if req.KeyPath != "" {
			opts = append(opts, mapper.WithKeyPath(req.KeyPath))
		}
	}

	res, err := c.newMapper(mapping.ContextObjects).Perform(resp.Payload, opts...)
	resp.Result = res

	return err
}
