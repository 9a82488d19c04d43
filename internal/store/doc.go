// Package store keeps mapped objects addressable by primary key.
//
// A Store holds one identity map per shape. Each map is a bounded LRU cache,
// so a long-lived store trades memory for the occasional duplicate object
// once a record falls out of its cache.
//
// A Store is not used directly by the mapper. Every access goes through a
// Context, which owns the store and runs operations one at a time on its own
// goroutine. Context implements mapper.IdentityStore.
package store
