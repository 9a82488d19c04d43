package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"object-mapper/internal/shape"
)

var (
	// ErrClosed is returned by Perform after Close.
	ErrClosed = errors.New("store context is closed")
	// ErrPanicked is returned by Perform when fn panics. The store stays usable.
	ErrPanicked = errors.New("store operation panicked")
)

// Context owns a Store and runs every operation on it serially, on a single
// goroutine. Functions passed to Perform must not call Perform themselves.
type Context struct {
	store *Store
	log   *slog.Logger

	jobs chan func(*Store)
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewContext starts the goroutine owning s. A nil logger uses slog.Default.
func NewContext(s *Store, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}

	c := &Context{
		store: s,
		log:   log.With("component", "store"),
		jobs:  make(chan func(*Store)),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go c.loop()

	return c
}

func (c *Context) loop() {
	defer close(c.done)

	for {
		select {
		case job := <-c.jobs:
			job(c.store)
		case <-c.quit:
			return
		}
	}
}

// Perform runs fn on the owning goroutine and returns its error. Once fn has
// been accepted it runs to completion even if ctx is canceled.
func (c *Context) Perform(ctx context.Context, fn func(*Store) error) error {
	errc := make(chan error, 1)
	job := func(s *Store) {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("store operation panicked", "panic", r)
				errc <- fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()

		errc <- fn(s)
	}

	select {
	case c.jobs <- job:
	case <-c.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-errc
}

// Close stops the owning goroutine. Pending Perform calls fail with ErrClosed.
func (c *Context) Close() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}

// Find implements mapper.IdentityStore.
func (c *Context) Find(s *shape.Shape, key string) (any, bool, error) {
	var (
		obj   any
		found bool
	)

	err := c.Perform(context.Background(), func(st *Store) error {
		obj, found = st.Find(s.Name(), key)
		return nil
	})

	return obj, found, err
}

// New implements mapper.IdentityStore.
func (c *Context) New(s *shape.Shape) (any, error) {
	var obj any

	err := c.Perform(context.Background(), func(st *Store) error {
		obj = st.Allocate(s)
		return nil
	})

	return obj, err
}

// Remember implements mapper.IdentityStore.
func (c *Context) Remember(s *shape.Shape, key string, obj any) error {
	return c.Perform(context.Background(), func(st *Store) error {
		if err := st.Remember(s.Name(), key, obj); err != nil {
			return err
		}

		c.log.Debug("remembered object", "shape", s.Name(), "primary_key", key)

		return nil
	})
}

// Stats returns the store counters.
func (c *Context) Stats() (Stats, error) {
	var stats Stats

	err := c.Perform(context.Background(), func(st *Store) error {
		stats = st.Stats()
		return nil
	})

	return stats, err
}
