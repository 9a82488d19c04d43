// Package config provides the YAML schema for mapping definitions, its
// parsing, validation against registered shapes, and the builder that turns
// a definition file into mappings and a provider.
//
// Shapes are declared in Go; the file only names them. Everything else a
// mapping carries (rules, flags, date formats, dynamic matchers and provider
// registrations) can live in YAML and be reviewed like any other config.
//
// # Schema Overview
//
//	version: "1"
//	date_formats: [ISO8601, "yyyy-MM-dd"]
//	preferred_date_format: ISO8601
//	mappings:
//	  - name: Person
//	    shape: Person
//	    primary_key: id
//	    # names, single pairs (source: destination), or a plain map
//	    attributes:
//	      - id
//	      - full_name: name
//	    fields:
//	      - source: created_at
//	        destination: createdAt
//	        date_formats: ["yyyy-MM-dd HH:mm"]
//	      - source: token
//	        transient: true           # left out of the inverse
//	    relationships:
//	      - source: pets
//	        mapping: Pet
//	        many: true
//	    auto: true                    # snake_case keys for the remaining fields
//	  - name: Pet
//	    dynamic:
//	      matchers:
//	        - key_path: type
//	          equals: dog
//	          mapping: Dog
//	provider:
//	  - context: objects
//	    key_path: people
//	    mapping: Person
//	  - pattern: /people/:id
//	    mapping: Person
//	  - context: serialization
//	    mapping: Person
//	    inverse: true
//
// # Flags
//
// perform_validation and ignore_unknown_key_paths default to true;
// set_default_for_missing_attributes, set_nil_for_missing_relationships and
// force_collection default to false. conversions lists the allowed coercion
// categories (text_number, numeric_bool, textual_bool, timestamp,
// lossy_number, all, none) and defaults to all.
//
// # Provider entries
//
// An entry registers its mapping at key_path, for a resource path pattern,
// or, with neither, as the single mapping of its context. The pagination
// context takes a single mapping. Serialization entries register either the
// inverse of the mapping or, with for_shape, the mapping itself.
package config
