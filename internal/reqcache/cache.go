package reqcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSessionSize bounds the in-memory store when Options.SessionSize is unset.
const DefaultSessionSize = 512

const entryExt = ".json"

// ErrNoDirectory is returned when the permanent policy is used without a directory.
var ErrNoDirectory = errors.New("permanent cache needs a directory")

// Entry is one cached response.
type Entry struct {
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	MIMEType   string      `json:"mime_type"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body"`
	CachedAt   time.Time   `json:"cached_at"`
}

// ETag returns the entity tag the response was served with.
func (e *Entry) ETag() string {
	return e.Header.Get("ETag")
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = append([]byte(nil), e.Body...)

	return &c
}

// Options configure a Cache.
type Options struct {
	Policy StoragePolicy
	// Dir holds permanent entries. Required for PolicyPermanently.
	Dir string
	// SessionSize bounds the in-memory store.
	SessionSize int
	Logger      *slog.Logger
	// Now stamps new entries. Defaults to time.Now.
	Now func() time.Time
}

// Cache stores responses keyed by request method and URL. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	policy  StoragePolicy
	dir     string
	session *lru.Cache[string, *Entry]
	now     func() time.Time
	log     *slog.Logger
}

// New returns a cache, creating the directory when one is configured.
func New(opts Options) (*Cache, error) {
	if opts.Policy == PolicyPermanently && opts.Dir == "" {
		return nil, ErrNoDirectory
	}

	if opts.SessionSize < 1 {
		opts.SessionSize = DefaultSessionSize
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	session, err := lru.New[string, *Entry](opts.SessionSize)
	if err != nil {
		return nil, err
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", opts.Dir, err)
		}
	}

	return &Cache{
		policy:  opts.Policy,
		dir:     opts.Dir,
		session: session,
		now:     opts.Now,
		log:     opts.Logger.With("component", "reqcache"),
	}, nil
}

// Key identifies a request.
func Key(method, url string) string {
	return strings.ToUpper(method) + " " + url
}

// Path returns the directory of permanent entries, or "".
func (c *Cache) Path() string { return c.dir }

// PathFor returns the file a permanent entry for the request is stored in.
func (c *Cache) PathFor(method, url string) string {
	if c.dir == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(Key(method, url)))

	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+entryExt)
}

// Policy returns the storage policy for new entries.
func (c *Cache) Policy() StoragePolicy {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.policy
}

// SetPolicy changes the storage policy for new entries. Stored entries stay.
func (c *Cache) SetPolicy(p StoragePolicy) error {
	if p == PolicyPermanently && c.dir == "" {
		return ErrNoDirectory
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.policy = p

	return nil
}

// Store records a response. It does nothing while the cache is disabled.
func (c *Cache) Store(e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e = e.clone()
	e.Method = strings.ToUpper(e.Method)

	if e.CachedAt.IsZero() {
		e.CachedAt = c.now()
	}

	key := Key(e.Method, e.URL)

	switch c.policy {
	case PolicyForDurationOfSession:
		c.session.Add(key, e)
	case PolicyPermanently:
		if err := c.write(e); err != nil {
			return err
		}
	default:
		return nil
	}

	c.log.Debug("stored response", "key", key, "policy", c.policy.String(), "etag", e.ETag())

	return nil
}

func (c *Cache) write(e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := os.WriteFile(c.PathFor(e.Method, e.URL), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

// lookup returns the stored entry itself; callers hold c.mu.
func (c *Cache) lookup(method, url string) (*Entry, bool) {
	if e, ok := c.session.Get(Key(method, url)); ok {
		return e, true
	}

	return c.readFile(method, url)
}

func (c *Cache) readFile(method, url string) (*Entry, bool) {
	if c.dir == "" {
		return nil, false
	}

	data, err := os.ReadFile(c.PathFor(method, url))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("reading cache entry failed", "key", Key(method, url), "error", err)
		}

		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Warn("corrupt cache entry", "key", Key(method, url), "error", err)
		return nil, false
	}

	return &e, true
}

// Has reports whether a response is stored for the request.
func (c *Cache) Has(method, url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookup(method, url)

	return ok
}

// Response returns a copy of the stored response.
func (c *Cache) Response(method, url string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(method, url)
	if !ok {
		return nil, false
	}

	return e.clone(), true
}

// Headers returns the stored response headers.
func (c *Cache) Headers(method, url string) http.Header {
	if e, ok := c.Response(method, url); ok {
		return e.Header
	}

	return nil
}

// ETag returns the stored entity tag, or "".
func (c *Cache) ETag(method, url string) string {
	if e, ok := c.Response(method, url); ok {
		return e.ETag()
	}

	return ""
}

// CacheDate returns when the stored response was cached.
func (c *Cache) CacheDate(method, url string) (time.Time, bool) {
	if e, ok := c.Response(method, url); ok {
		return e.CachedAt, true
	}

	return time.Time{}, false
}

// SetCacheDate restamps a stored response, for example after a 304 answer
// confirmed it is still fresh. Unknown requests are ignored.
func (c *Cache) SetCacheDate(method, url string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(method, url)

	if e, ok := c.session.Get(key); ok {
		updated := e.clone()
		updated.CachedAt = at
		c.session.Add(key, updated)
	}

	e, ok := c.readFile(method, url)
	if !ok {
		return nil
	}

	e.CachedAt = at

	return c.write(e)
}

// Invalidate removes the stored response for the request from both stores.
func (c *Cache) Invalidate(method, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Remove(Key(method, url))

	if c.dir == "" {
		return nil
	}

	if err := os.Remove(c.PathFor(method, url)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache entry: %w", err)
	}

	return nil
}

// InvalidateWithStoragePolicy empties the store of one policy.
func (c *Cache) InvalidateWithStoragePolicy(p StoragePolicy) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch p {
	case PolicyForDurationOfSession:
		c.session.Purge()
	case PolicyPermanently:
		return c.purgeDir()
	}

	return nil
}

// InvalidateAll empties both stores.
func (c *Cache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Purge()

	return c.purgeDir()
}

func (c *Cache) purgeDir() error {
	if c.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache directory: %w", err)
	}

	var errs []error

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != entryExt {
			continue
		}

		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
