package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"object-mapper/internal/mapper"
	"object-mapper/internal/mapping"
	"object-mapper/internal/pathpattern"
	"object-mapper/internal/shape"
)

// Placeholders a paginator pattern may use.
const (
	ParamCurrentPage = "currentPage"
	ParamPerPage     = "perPage"
)

// DefaultPerPage is used when NewPaginator is given no page size.
const DefaultPerPage = 25

var (
	// ErrNotLoaded is returned by page accessors before the first page loaded.
	ErrNotLoaded = errors.New("paginator has not loaded a page")
	// ErrNoPageCount is returned when the server did not report a page count.
	ErrNoPageCount = errors.New("page count is unknown")
	// ErrNoObjectCount is returned when the server did not report an object count.
	ErrNoObjectCount = errors.New("object count is unknown")
	// ErrNoPaginationMapping is returned when the provider has no pagination mapping.
	ErrNoPaginationMapping = errors.New("no pagination mapping")
	// ErrPageOutOfRange is returned for pages below one or past the last page.
	ErrPageOutOfRange = errors.New("page out of range")
)

// PageInfo is the pagination metadata of one page. Counts are -1 until the
// server reports them.
type PageInfo struct {
	CurrentPage int64
	PerPage     int64
	ObjectCount int64
	PageCount   int64
}

var pageInfoShape = shape.Define("PageInfo", func() *PageInfo { return &PageInfo{ObjectCount: -1, PageCount: -1} }).
	Int(ParamCurrentPage, func(p *PageInfo) int64 { return p.CurrentPage }, func(p *PageInfo, v int64) { p.CurrentPage = v }).
	Int(ParamPerPage, func(p *PageInfo) int64 { return p.PerPage }, func(p *PageInfo, v int64) { p.PerPage = v }).
	Int("objectCount", func(p *PageInfo) int64 { return p.ObjectCount }, func(p *PageInfo, v int64) { p.ObjectCount = v }).
	Int("pageCount", func(p *PageInfo) int64 { return p.PageCount }, func(p *PageInfo, v int64) { p.PageCount = v }).
	Shape()

// PageInfoShape is the shape pagination mappings target.
func PageInfoShape() *shape.Shape { return pageInfoShape }

// PaginationMapping maps the given payload keys onto PageInfo. Empty keys are
// left unmapped.
func PaginationMapping(currentPage, perPage, objectCount, pageCount string) *mapping.ObjectMapping {
	m := mapping.New(pageInfoShape).Named("Pagination")

	pairs := [][2]string{
		{currentPage, ParamCurrentPage},
		{perPage, ParamPerPage},
		{objectCount, "objectCount"},
		{pageCount, "pageCount"},
	}

	for _, pair := range pairs {
		if pair[0] != "" {
			m.MapKeyPath(pair[0], pair[1])
		}
	}

	return m
}

// Paginator loads a paginated collection page by page. It is safe for
// concurrent use, though loads are serialized.
type Paginator struct {
	client  *Client
	pattern *pathpattern.Pattern
	opts    []RequestOption

	// OnLoad is called with the objects of every loaded page.
	OnLoad func(objects []any, page int64)
	// OnError is called when a page fails to load.
	OnError func(err error)

	mu      sync.Mutex
	perPage int64
	info    PageInfo
	loaded  bool
}

// NewPaginator returns a paginator for a resource path pattern such as
// "/articles?page=:currentPage&per_page=:perPage".
func NewPaginator(client *Client, pattern string, perPage int64, opts ...RequestOption) (*Paginator, error) {
	p, err := pathpattern.Compile(pattern)
	if err != nil {
		return nil, err
	}

	if perPage < 1 {
		perPage = DefaultPerPage
	}

	return &Paginator{client: client, pattern: p, perPage: perPage, opts: opts}, nil
}

// PerPage returns the requested page size.
func (p *Paginator) PerPage() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.perPage
}

// SetPerPage changes the requested page size.
func (p *Paginator) SetPerPage(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.perPage = n
}

// URL returns the resource path of page.
func (p *Paginator) URL(page int64) (string, error) {
	p.mu.Lock()
	perPage := p.perPage
	p.mu.Unlock()

	return p.pattern.InterpolateParams(map[string]any{
		ParamCurrentPage: page,
		ParamPerPage:     perPage,
	})
}

// LoadPage loads page and returns its objects.
func (p *Paginator) LoadPage(ctx context.Context, page int64) ([]any, error) {
	objects, err := p.loadPage(ctx, page)
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}

		return nil, err
	}

	if p.OnLoad != nil {
		p.OnLoad(objects, page)
	}

	return objects, nil
}

func (p *Paginator) loadPage(ctx context.Context, page int64) ([]any, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}

	def, ok := p.client.Provider().PaginationMapping()
	if !ok {
		return nil, ErrNoPaginationMapping
	}

	path, err := p.URL(page)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Load(ctx, path, p.opts...)
	if err != nil {
		return nil, err
	}

	info := pageInfoShape.New().(*PageInfo)

	if !resp.Payload.IsNull() {
		res, err := p.client.newMapper(mapping.ContextPagination).
			Perform(resp.Payload, mapper.WithMapping(def), mapper.WithTarget(info))
		if err != nil {
			return nil, err
		}

		if err := res.Err(); err != nil {
			p.client.log.Warn("pagination metadata incomplete", "error", err)
		}
	}

	if info.CurrentPage == 0 {
		info.CurrentPage = page
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if info.PerPage == 0 {
		info.PerPage = p.perPage
	}

	p.info = *info
	p.loaded = true

	return resp.Objects(), nil
}

// LoadNextPage loads the page after the current one.
func (p *Paginator) LoadNextPage(ctx context.Context) ([]any, error) {
	next, err := p.HasNextPage()
	if err != nil {
		return nil, err
	}

	if !next {
		return nil, ErrPageOutOfRange
	}

	current, _ := p.CurrentPage()

	return p.LoadPage(ctx, current+1)
}

// LoadPreviousPage loads the page before the current one.
func (p *Paginator) LoadPreviousPage(ctx context.Context) ([]any, error) {
	prev, err := p.HasPreviousPage()
	if err != nil {
		return nil, err
	}

	if !prev {
		return nil, ErrPageOutOfRange
	}

	current, _ := p.CurrentPage()

	return p.LoadPage(ctx, current-1)
}

// IsLoaded reports whether a page has been loaded.
func (p *Paginator) IsLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.loaded
}

// Info returns the metadata of the most recent page.
func (p *Paginator) Info() (PageInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		return PageInfo{}, ErrNotLoaded
	}

	return p.info, nil
}

// CurrentPage returns the number of the most recent page.
func (p *Paginator) CurrentPage() (int64, error) {
	info, err := p.Info()
	return info.CurrentPage, err
}

// HasPageCount reports whether the server reported a page count.
func (p *Paginator) HasPageCount() bool {
	info, err := p.Info()
	return err == nil && info.PageCount >= 0
}

// HasObjectCount reports whether the server reported an object count.
func (p *Paginator) HasObjectCount() bool {
	info, err := p.Info()
	return err == nil && info.ObjectCount >= 0
}

// PageCount returns the number of pages in the collection.
func (p *Paginator) PageCount() (int64, error) {
	info, err := p.Info()
	if err != nil {
		return 0, err
	}

	if info.PageCount < 0 {
		return 0, ErrNoPageCount
	}

	return info.PageCount, nil
}

// ObjectCount returns the number of objects in the collection.
func (p *Paginator) ObjectCount() (int64, error) {
	info, err := p.Info()
	if err != nil {
		return 0, err
	}

	if info.ObjectCount < 0 {
		return 0, ErrNoObjectCount
	}

	return info.ObjectCount, nil
}

// HasNextPage reports whether a page follows the current one. It needs a
// loaded page and a known page count.
func (p *Paginator) HasNextPage() (bool, error) {
	count, err := p.PageCount()
	if err != nil {
		return false, err
	}

	current, _ := p.CurrentPage()

	return current < count, nil
}

// HasPreviousPage reports whether a page precedes the current one.
func (p *Paginator) HasPreviousPage() (bool, error) {
	current, err := p.CurrentPage()
	if err != nil {
		return false, err
	}

	return current > 1, nil
}
