package mapping

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-mapper/internal/coerce"
	"object-mapper/internal/payload"
	"object-mapper/internal/shape"
)

type user struct {
	ID    int64
	Name  string
	Owner *user
	Pets  []*pet
}

type pet struct {
	Name string
	Kind string
}

func userShape() *shape.Shape {
	b := shape.Define("User", func() *user { return &user{} }).
		Int("id", func(u *user) int64 { return u.ID }, func(u *user, v int64) { u.ID = v }).
		String("name", func(u *user) string { return u.Name }, func(u *user, v string) { u.Name = v })
	shape.HasOne(b, "owner", func(u *user) *user { return u.Owner }, func(u *user, v *user) { u.Owner = v })
	shape.HasMany(b, "pets", func(u *user) []*pet { return u.Pets }, func(u *user, v []*pet) { u.Pets = v })

	return b.Shape()
}

func petShape() *shape.Shape {
	return shape.Define("Pet", func() *pet { return &pet{} }).
		String("name", func(p *pet) string { return p.Name }, func(p *pet, v string) { p.Name = v }).
		String("kind", func(p *pet) string { return p.Kind }, func(p *pet, v string) { p.Kind = v }).
		Shape()
}

type ruleSig struct {
	kind        string
	source      string
	destination string
}

func signature(m *ObjectMapping) []ruleSig {
	var out []ruleSig

	for _, r := range m.Rules() {
		kind := "attribute"
		if _, ok := r.(*RelationshipMapping); ok {
			kind = "relationship"
		}

		out = append(out, ruleSig{kind: kind, source: r.SourceKeyPath(), destination: r.DestinationKey()})
	}

	return out
}

func TestNewDefaults(t *testing.T) {
	m := New(userShape())

	assert.Equal(t, "User", m.Name())
	assert.True(t, m.PerformValidation)
	assert.True(t, m.IgnoreUnknownKeyPaths)
	assert.False(t, m.SetDefaultForMissingAttributes)
	assert.Len(t, m.DateFormats, 3)
	assert.Equal(t, coerce.Category(coerce.CategoryAll), m.Conversions)

	self, err := m.ObjectMappingFor(payload.Null())
	require.NoError(t, err)
	assert.Same(t, m, self)
}

func TestAddRules(t *testing.T) {
	pets := New(petShape()).MapAttributes("name", "kind")
	m := New(userShape()).
		MapKeyPath("user_id", "id").
		MapAttributes("name").
		HasMany("pets", "pets", pets)

	assert.Equal(t, []string{"user_id", "name", "pets"}, m.MappedKeyPaths())
	assert.Len(t, m.Attributes(), 2)
	assert.Len(t, m.Relationships(), 1)

	err := m.AddAttribute(Attribute("name", "id"))
	require.ErrorIs(t, err, ErrDuplicateKeyPath)

	err = m.AddAttribute(Attribute("a..b", "id"))
	require.ErrorIs(t, err, ErrInvalidKeyPath)

	err = m.AddAttribute(Attribute("", "id"))
	require.ErrorIs(t, err, ErrInvalidKeyPath)

	err = m.AddAttribute(Attribute("x", ""))
	require.ErrorIs(t, err, ErrInvalidKeyPath)

	err = m.AddRelationship(Relationship("owner", "owner", nil, ToOne))
	require.ErrorIs(t, err, ErrNilMapping)

	assert.Panics(t, func() { m.MapAttributes("name") })
}

func TestLookups(t *testing.T) {
	pets := New(petShape()).MapAttributes("name")
	m := New(userShape()).
		MapKeyPath("user_id", "id").
		MapKeyPath("profile.name", "name").
		HasMany("pets", "pets", pets)

	r, ok := m.RuleForSourceKeyPath("profile.name")
	require.True(t, ok)
	assert.Equal(t, "name", r.DestinationKey())

	r, ok = m.RuleForDestination("id")
	require.True(t, ok)
	assert.Equal(t, "user_id", r.SourceKeyPath())

	a, ok := m.AttributeFor("name")
	require.True(t, ok)
	assert.Equal(t, "profile.name", a.Source)
	assert.Equal(t, "profile.name", a.Path().String())

	_, ok = m.AttributeFor("pets")
	assert.False(t, ok)

	rel, ok := m.RelationshipFor("pets")
	require.True(t, ok)
	assert.Same(t, pets, rel.Mapping)
	assert.Equal(t, ToMany, rel.Cardinality)

	matching := m.RulesMatching("profile.*")
	require.Len(t, matching, 1)
	assert.Equal(t, "name", matching[0].DestinationKey())
	assert.Empty(t, m.RulesMatching("nothing.*"))
}

func TestRemove(t *testing.T) {
	m := New(userShape()).MapAttributes("id", "name")

	r, _ := m.RuleForSourceKeyPath("id")
	assert.True(t, m.Remove(r))
	assert.False(t, m.Remove(r))
	assert.Equal(t, []string{"name"}, m.MappedKeyPaths())

	assert.True(t, m.RemoveKeyPath("name"))
	assert.False(t, m.RemoveKeyPath("name"))
	assert.Empty(t, m.Rules())

	m.MapAttributes("id", "name")
	m.RemoveAll()
	assert.Empty(t, m.Rules())

	// removed key paths can be mapped again
	m.MapAttributes("id")
	assert.Equal(t, []string{"id"}, m.MappedKeyPaths())
}

func TestInverseRoundTrip(t *testing.T) {
	pets := New(petShape()).MapKeyPath("pet_name", "name").MapAttributes("kind")
	m := New(userShape()).
		MapKeyPath("user_id", "id").
		MapKeyPath("profile.name", "name").
		HasMany("pets", "pets", pets)
	m.PrimaryKey = "id"
	m.RootKeyPath = "user"

	inv := m.Inverse()
	assert.Equal(t, shape.DictionaryName, inv.Shape().Name())
	assert.Same(t, m, inv.Origin())
	assert.Equal(t, "user_id", inv.PrimaryKey)
	assert.Equal(t, "user", inv.RootKeyPath)
	assert.Equal(t, []ruleSig{
		{kind: "attribute", source: "id", destination: "user_id"},
		{kind: "attribute", source: "name", destination: "profile.name"},
		{kind: "relationship", source: "pets", destination: "pets"},
	}, signature(inv))

	nested, ok := inv.RelationshipFor("pets")
	require.True(t, ok)
	assert.Equal(t, []ruleSig{
		{kind: "attribute", source: "name", destination: "pet_name"},
		{kind: "attribute", source: "kind", destination: "kind"},
	}, signature(nested.Mapping.(*ObjectMapping)))

	back := inv.Inverse()
	assert.Equal(t, signature(m), signature(back))
	assert.Same(t, m.Shape(), back.Shape())
	assert.Equal(t, "User", back.Name())
	assert.Equal(t, "id", back.PrimaryKey)

	backPets, ok := back.RelationshipFor("pets")
	require.True(t, ok)
	assert.Equal(t, signature(pets), signature(backPets.Mapping.(*ObjectMapping)))
	assert.Same(t, pets.Shape(), backPets.Mapping.(*ObjectMapping).Shape())
}

func TestInverseSkipsTransientAndDynamic(t *testing.T) {
	dyn := NewDynamic("AnyPet")
	m := New(userShape()).MapAttributes("id")
	require.NoError(t, m.AddAttribute(&AttributeMapping{Source: "secret", Destination: "name", Transient: true}))
	require.NoError(t, m.AddRelationship(Relationship("pets", "pets", dyn, ToMany)))

	inv := m.Inverse()
	assert.Equal(t, []ruleSig{{kind: "attribute", source: "id", destination: "id"}}, signature(inv))
}

func TestInverseCycle(t *testing.T) {
	m := New(userShape()).MapAttributes("id")
	m.HasOne("owner", "owner", m)

	inv := m.Inverse()
	rel, ok := inv.RelationshipFor("owner")
	require.True(t, ok)
	assert.Same(t, inv, rel.Mapping)

	back := inv.Inverse()
	rel, ok = back.RelationshipFor("owner")
	require.True(t, ok)
	assert.Same(t, back, rel.Mapping)
	assert.Equal(t, signature(m), signature(back))
}

func TestDynamicMapping(t *testing.T) {
	dogs := New(petShape()).Named("Dog").MapAttributes("name")
	cats := New(petShape()).Named("Cat").MapAttributes("name")
	fallback := New(petShape()).Named("Other")

	dyn := NewDynamic("Pet").
		When("type", "dog", dogs).
		When("meta.type", "cat", cats)

	assert.Equal(t, "Pet", dyn.Name())
	assert.Len(t, dyn.Matchers(), 2)

	got, err := dyn.ObjectMappingFor(payload.MustFromAny(map[string]any{"type": "dog"}))
	require.NoError(t, err)
	assert.Same(t, dogs, got)

	got, err = dyn.ObjectMappingFor(payload.MustFromAny(map[string]any{"meta": map[string]any{"type": "cat"}}))
	require.NoError(t, err)
	assert.Same(t, cats, got)

	_, err = dyn.ObjectMappingFor(payload.MustFromAny(map[string]any{"type": "fish"}))
	require.ErrorIs(t, err, ErrNoMatchingMapping)

	dyn.Resolve = func(payload.Value) (*ObjectMapping, error) { return fallback, nil }
	got, err = dyn.ObjectMappingFor(payload.MustFromAny(map[string]any{"type": "fish"}))
	require.NoError(t, err)
	assert.Same(t, fallback, got)

	require.ErrorIs(t, dyn.AddMatcher("a..b", "x", dogs), ErrInvalidKeyPath)
	require.ErrorIs(t, dyn.AddMatcher("type", "x", nil), ErrNilMapping)
	assert.Panics(t, func() { dyn.When("type", struct{}{}, dogs) })
}

func TestProviderKeyPaths(t *testing.T) {
	users := New(userShape()).MapAttributes("name")
	pets := New(petShape()).MapAttributes("name")
	other := New(petShape()).Named("Other")

	p := NewProvider()
	require.NoError(t, p.SetObjectMapping("user", users))
	require.NoError(t, p.SetObjectMapping("teams.*.pets", pets))
	require.NoError(t, p.SetObjectMapping("teams.red.pets", other))

	def, ok := p.MappingForKeyPath(ContextObjects, "user")
	require.True(t, ok)
	assert.Same(t, users, def)

	def, ok = p.MappingForKeyPath(ContextObjects, "teams.blue.pets")
	require.True(t, ok)
	assert.Same(t, pets, def)

	def, ok = p.MappingForKeyPath(ContextObjects, "teams.red.pets")
	require.True(t, ok)
	assert.Same(t, pets, def, "the earlier wildcard registration wins")

	_, ok = p.MappingForKeyPath(ContextSerialization, "user")
	assert.False(t, ok, "contexts are independent")

	require.NoError(t, p.SetObjectMapping("user", pets))
	entries := p.KeyPathEntries(ContextObjects)
	require.Len(t, entries, 3)
	assert.Equal(t, "user", entries[0].KeyPath)
	assert.Same(t, pets, entries[0].Definition)

	assert.True(t, p.RemoveMappingForKeyPath(ContextObjects, "user"))
	assert.False(t, p.RemoveMappingForKeyPath(ContextObjects, "user"))

	require.NoError(t, p.SetObjectMapping("clubs.red.pets", other))
	require.NoError(t, p.SetObjectMapping("clubs.*.pets", pets))

	def, ok = p.MappingForKeyPath(ContextObjects, "clubs.red.pets")
	require.True(t, ok)
	assert.Same(t, other, def)

	def, ok = p.MappingForKeyPath(ContextObjects, "clubs.blue.pets")
	require.True(t, ok)
	assert.Same(t, pets, def)

	require.ErrorIs(t, p.SetObjectMapping("a..b", users), ErrInvalidKeyPath)
	require.ErrorIs(t, p.SetObjectMapping("user", nil), ErrNilMapping)
}

func TestProviderPatterns(t *testing.T) {
	list := New(userShape()).Named("List")
	single := New(userShape()).Named("Single")
	special := New(userShape()).Named("Special")

	p := NewProvider()
	require.NoError(t, p.AddMappingForPattern(ContextObjects, "/users", list))
	require.NoError(t, p.AddMappingForPattern(ContextObjects, "/users/:id", single))

	def, params, ok := p.MappingForPath(ContextObjects, "/users/7?full=1")
	require.True(t, ok)
	assert.Same(t, single, def)
	assert.Equal(t, "7", params["id"])

	require.NoError(t, p.InsertMappingForPattern(ContextObjects, "/users/:slug", special, 0))
	def, params, ok = p.MappingForPath(ContextObjects, "/users/7")
	require.True(t, ok)
	assert.Same(t, special, def, "first registered match wins")
	assert.Equal(t, "7", params["slug"])

	require.NoError(t, p.AddMappingForPattern(ContextObjects, "/users/:slug", single))
	entries := p.PatternEntries(ContextObjects)
	require.Len(t, entries, 3)
	assert.Equal(t, "/users/:slug", entries[2].Pattern.String())

	_, _, ok = p.MappingForPath(ContextObjects, "/pets")
	assert.False(t, ok)

	require.Error(t, p.AddMappingForPattern(ContextObjects, "/a/*/b", list))
	require.ErrorIs(t, p.AddMappingForPattern(ContextObjects, "/x", nil), ErrNilMapping)
}

func TestProviderContexts(t *testing.T) {
	users := New(userShape()).MapAttributes("id", "name")
	errs := New(shape.Dictionary()).MapAttributes("message")
	pages := New(shape.Dictionary()).MapAttributes("page")

	p := NewProvider()
	require.NoError(t, p.SetSerializationMapping("User", users.Inverse()))
	require.NoError(t, p.SetErrorMapping("errors", errs))
	require.NoError(t, p.SetPaginationMapping(pages))

	ser, ok := p.SerializationMappingFor("User")
	require.True(t, ok)
	assert.Same(t, users, ser.Origin())

	replacement := users.Inverse()
	require.NoError(t, p.SetSerializationMapping("User", replacement))
	assert.Len(t, p.Mappings(ContextSerialization), 1)

	def, ok := p.MappingForKeyPath(ContextErrors, "errors")
	require.True(t, ok)
	assert.Same(t, errs, def)

	def, ok = p.PaginationMapping()
	require.True(t, ok)
	assert.Same(t, pages, def)

	_, ok = p.Mapping(ContextObjects)
	assert.False(t, ok)

	require.NoError(t, p.AddMapping(ContextObjects, users))
	assert.Len(t, p.Mappings(ContextObjects), 1)
}

func TestProviderConcurrentReads(t *testing.T) {
	p := NewProvider()
	users := New(userShape())
	require.NoError(t, p.SetObjectMapping("user", users))

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, ok := p.MappingForKeyPath(ContextObjects, "user")
			assert.True(t, ok)
			_, ok = p.MappingForKeyPath(ContextObjects, fmt.Sprintf("other%d", i))
			assert.False(t, ok)
		}()
	}

	wg.Wait()
}

func TestContextNames(t *testing.T) {
	for _, c := range Contexts {
		parsed, err := ParseContext(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseContext("bogus")
	require.ErrorIs(t, err, ErrUnknownContext)
	assert.Equal(t, "unknown", Context(42).String())
	assert.Equal(t, "many", ToMany.String())
}
