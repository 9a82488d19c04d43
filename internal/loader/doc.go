// Package loader fetches resources over HTTP and maps them.
//
// A Client sends a request for a resource path, parses the body with the
// parser registered for its MIME type and maps it. The mapping is chosen in
// this order: the one given with WithMapping, the provider's pattern
// registration matching the resource path, and finally the provider's key
// path registrations.
//
// Error statuses are mapped with the provider's error context and returned as
// a *ResponseError. GET responses are cached according to the request cache
// policy and revalidated with If-None-Match; a 304 answer is served from the
// cache.
//
// A Paginator walks a paginated collection by interpolating its page state
// into a resource path pattern.
package loader
