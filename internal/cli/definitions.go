package cli

import (
	"object-mapper/internal/config"
	"object-mapper/internal/shape"
)

// dictionaryShapes backs every shape a definition file names with a
// dictionary.
func dictionaryShapes(f *config.File) *shape.Registry {
	r := shape.NewRegistry()

	for _, m := range f.Mappings {
		if m.Shape != "" {
			r.Register(shape.DictionaryAs(m.Shape))
		}
	}

	for _, e := range f.Provider {
		if e.ForShape != "" {
			r.Register(shape.DictionaryAs(e.ForShape))
		}
	}

	return r
}

func loadDefinitions(path string) (*config.File, *config.Definitions, error) {
	f, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	defs, err := config.Build(f, dictionaryShapes(f))
	if err != nil {
		return f, nil, err
	}

	return f, defs, nil
}
