// Package reqcache stores HTTP responses by request so loaders can revalidate
// with ETags and serve 304 Not Modified answers from the cache.
//
// The storage policy decides where new entries go: nowhere, an in-memory LRU
// that lives as long as the process, or a directory of JSON files that
// survives restarts. Lookups consult both stores.
package reqcache
