package mapping

import (
	"object-mapper/internal/shape"
)

// Inverse returns the serialization mapping of m: every serializable rule with
// source and destination swapped. Relationship mappings are inverted
// recursively; mappings reached twice share one inverse, so cyclic graphs
// terminate. The inverse targets the Dictionary shape, except that inverting
// an inverse targets the shape of the mapping it came from. Relationships
// defined by a DynamicMapping are skipped.
func (m *ObjectMapping) Inverse() *ObjectMapping {
	return m.inverse(map[*ObjectMapping]*ObjectMapping{})
}

func (m *ObjectMapping) inverse(seen map[*ObjectMapping]*ObjectMapping) *ObjectMapping {
	if inv, ok := seen[m]; ok {
		return inv
	}

	target := shape.Dictionary()
	name := m.name + "Inverse"

	if m.origin != nil {
		target = m.origin.shape
		name = m.origin.name
	}

	inv := New(target).Named(name)
	inv.origin = m
	inv.SetDefaultForMissingAttributes = m.SetDefaultForMissingAttributes
	inv.SetNilForMissingRelationships = m.SetNilForMissingRelationships
	inv.PerformValidation = m.PerformValidation
	inv.IgnoreUnknownKeyPaths = m.IgnoreUnknownKeyPaths
	inv.DateFormats = append(inv.DateFormats[:0:0], m.DateFormats...)
	inv.PreferredDateFormat = m.PreferredDateFormat
	inv.RootKeyPath = m.RootKeyPath
	inv.ForceCollection = m.ForceCollection
	inv.Conversions = m.Conversions

	seen[m] = inv

	for _, r := range m.rules {
		if !r.IsSerializable() {
			continue
		}

		switch rule := r.(type) {
		case *AttributeMapping:
			// Rules writing the same destination collapse into the first one.
			_ = inv.AddAttribute(&AttributeMapping{
				Source:      rule.Destination,
				Destination: rule.Source,
				DateFormats: rule.DateFormats,
			})
		case *RelationshipMapping:
			nested, ok := rule.Mapping.(*ObjectMapping)
			if !ok {
				continue
			}

			_ = inv.AddRelationship(&RelationshipMapping{
				Source:      rule.Destination,
				Destination: rule.Source,
				Mapping:     nested.inverse(seen),
				Cardinality: rule.Cardinality,
			})
		}
	}

	if pk, ok := m.PrimaryKeyRule(); ok && pk.IsSerializable() {
		if _, ok := inv.AttributeFor(pk.Source); ok {
			inv.PrimaryKey = pk.Source
		}
	}

	return inv
}
