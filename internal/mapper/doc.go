// Package mapper runs mappings over parsed payloads.
//
// A Mapper performs one run at a time. In dynamic mode it walks the key path
// registrations of its provider context, resolves each registered key path in
// the payload and maps what it finds: arrays become collections, objects
// become single objects. With WithMapping the whole payload, or the value at
// WithKeyPath, is mapped with one explicit definition.
//
// Every rule failure is recorded as a diagnostic and the run continues with
// the next rule. The only fatal failure is a rule whose destination key the
// shape does not have while IgnoreUnknownKeyPaths is false; Perform then
// returns an error wrapping ErrUnknownKeyPath together with the partial
// result.
//
// Objects whose mapping names a PrimaryKey are looked up in the IdentityStore
// before new ones are allocated, so mapping the same record twice updates one
// object.
package mapper
