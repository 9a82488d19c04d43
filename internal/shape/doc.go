// Package shape describes destination object types as explicit accessor tables.
//
// Mapping never inspects Go types at runtime. Each destination type registers a
// Shape once, listing its fields together with typed getter and setter closures:
//
//	users := shape.Define("User", func() *User { return &User{} }).
//		Int("id", func(u *User) int64 { return u.ID }, func(u *User, v int64) { u.ID = v }).
//		String("name", func(u *User) string { return u.Name }, func(u *User, v string) { u.Name = v })
//	shape.HasMany(users, "pets", func(u *User) []*Pet { return u.Pets }, func(u *User, v []*Pet) { u.Pets = v })
//
// Setting a field to nil assigns its zero value, which is how "missing attribute"
// policies clear existing data on reused objects.
//
// The Dictionary shape is dynamic: its objects are *payload.Object and any field
// name is accepted. Serialization maps onto dictionaries.
package shape
