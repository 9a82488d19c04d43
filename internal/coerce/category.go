package coerce

import (
	"fmt"
	"strings"

	"object-mapper/internal/common"
)

type Category int

const (
	CategoryTextNumber  Category = 1 << iota // string <-> number: textual number representation
	CategoryNumericBool                      // number <-> bool: 0, 1 representation of boolean values
	CategoryTextualBool                      // string <-> bool: yes, no, on, off, true, false representation of boolean values
	CategoryTimestamp                        // number(Unix seconds) -> time: Unix timestamp representation
	CategoryLossyNumber                      // float -> int: fractional part is truncated

	CategoryAll  = (1 << iota) - 1 // all categories combined
	CategoryNone = 0               // no categories selected
)

var categoryNames = []struct {
	category Category
	name     string
}{
	{CategoryTextNumber, "text_number"},
	{CategoryNumericBool, "numeric_bool"},
	{CategoryTextualBool, "textual_bool"},
	{CategoryTimestamp, "timestamp"},
	{CategoryLossyNumber, "lossy_number"},
}

// Has reports whether every category of other is enabled in c.
func (c Category) Has(other Category) bool {
	return c&other == other
}

// String returns a human-readable category name. Combined categories are
// joined with "|".
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryAll:
		return "all"
	}

	var parts []string

	for _, cn := range categoryNames {
		if c.Has(cn.category) {
			parts = append(parts, cn.name)
		}
	}

	if len(parts) == 0 {
		return common.UnknownStr
	}

	return strings.Join(parts, "|")
}

// ParseCategories combines named categories. "all" and "none" are accepted.
func ParseCategories(names []string) (Category, error) {
	var c Category

	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))

		switch name {
		case "all":
			c |= CategoryAll
			continue
		case "none":
			continue
		}

		found := false

		for _, cn := range categoryNames {
			if cn.name == name {
				c |= cn.category
				found = true

				break
			}
		}

		if !found {
			return CategoryNone, fmt.Errorf("unknown conversion category %q", raw)
		}
	}

	return c, nil
}

// Names lists the individual category names enabled in c.
func (c Category) Names() []string {
	var out []string

	for _, cn := range categoryNames {
		if c.Has(cn.category) {
			out = append(out, cn.name)
		}
	}

	return out
}
