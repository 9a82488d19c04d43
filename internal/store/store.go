package store

import (
	"errors"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"object-mapper/internal/shape"
)

// DefaultCapacity is the per-shape identity map size used when none is given.
const DefaultCapacity = 4096

// ErrEmptyKey is returned when an object is remembered without a primary key.
var ErrEmptyKey = errors.New("empty primary key")

// Stats counts identity map traffic.
type Stats struct {
	Hits        int
	Misses      int
	Allocations int
	Evictions   int
}

// Store holds one identity map per shape. It is not safe for concurrent use;
// wrap it in a Context.
type Store struct {
	capacity int
	maps     map[string]*lru.Cache[string, any]
	stats    Stats
}

// New returns an empty store whose identity maps hold up to capacity objects
// each. A capacity below one selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Store{capacity: capacity, maps: make(map[string]*lru.Cache[string, any])}
}

func (s *Store) identityMap(shapeName string) *lru.Cache[string, any] {
	if m, ok := s.maps[shapeName]; ok {
		return m
	}

	m, err := lru.NewWithEvict[string, any](s.capacity, func(string, any) {
		s.stats.Evictions++
	})
	if err != nil {
		// capacity is always positive
		panic(err)
	}

	s.maps[shapeName] = m

	return m
}

// Find returns the object of the named shape remembered under key. Keys
// compare exactly.
func (s *Store) Find(shapeName, key string) (any, bool) {
	m, ok := s.maps[shapeName]
	if !ok || key == "" {
		s.stats.Misses++
		return nil, false
	}

	obj, ok := m.Get(key)
	if !ok {
		s.stats.Misses++
		return nil, false
	}

	s.stats.Hits++

	return obj, true
}

// Allocate returns a fresh object of shape sh.
func (s *Store) Allocate(sh *shape.Shape) any {
	s.stats.Allocations++
	return sh.New()
}

// Remember records obj under key, replacing any previous object.
func (s *Store) Remember(shapeName, key string, obj any) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.identityMap(shapeName).Add(key, obj)

	return nil
}

// Forget removes the object remembered under key.
func (s *Store) Forget(shapeName, key string) bool {
	m, ok := s.maps[shapeName]
	if !ok {
		return false
	}

	return m.Remove(key)
}

// Len returns the number of objects remembered for the named shape.
func (s *Store) Len(shapeName string) int {
	if m, ok := s.maps[shapeName]; ok {
		return m.Len()
	}

	return 0
}

// Keys returns the remembered keys of the named shape, sorted.
func (s *Store) Keys(shapeName string) []string {
	m, ok := s.maps[shapeName]
	if !ok {
		return nil
	}

	keys := m.Keys()
	sort.Strings(keys)

	return keys
}

// Shapes returns the names of the shapes with an identity map, sorted.
func (s *Store) Shapes() []string {
	names := make([]string, 0, len(s.maps))
	for name := range s.maps {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Stats returns the traffic counters.
func (s *Store) Stats() Stats { return s.stats }

// Reset drops every identity map and counter.
func (s *Store) Reset() {
	s.maps = make(map[string]*lru.Cache[string, any])
	s.stats = Stats{}
}
