package common

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// FixedCategory is one of the built-in spending categories.
type FixedCategory string

const (
	Bills     FixedCategory = "bills"
	Food      FixedCategory = "food"
	Leisure   FixedCategory = "leisure"
	Shopping  FixedCategory = "shopping"
	Transport FixedCategory = "transport"
	Health    FixedCategory = "health"
	Education FixedCategory = "education"
	Other     FixedCategory = "other"
)

// CustomPrefix marks a household-defined category reference.
const CustomPrefix = "custom:"

// FixedCategories lists the closed vocabulary in display order.
var FixedCategories = []FixedCategory{Bills, Food, Leisure, Shopping, Transport, Health, Education, Other}

// Valid reports whether c belongs to the closed vocabulary.
func (c FixedCategory) Valid() bool {
	switch c {
	case Bills, Food, Leisure, Shopping, Transport, Health, Education, Other:
		return true
	}
	return false
}

// Category is either a fixed category or an opaque custom category id.
// The zero value is "other".
type Category struct {
	fixed    FixedCategory
	customID string
}

// Fixed wraps a built-in category.
func Fixed(c FixedCategory) Category {
	return Category{fixed: c}
}

// Custom wraps a household-defined category id. The id is never validated.
func Custom(id string) Category {
	return Category{customID: id}
}

// ParseCategory accepts either a fixed category name or "custom:<id>".
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, CustomPrefix) {
		id := strings.TrimPrefix(s, CustomPrefix)
		if id == "" {
			return Category{}, fmt.Errorf("%w: empty custom category id", ErrBadRequest)
		}
		return Custom(id), nil
	}
	fc := FixedCategory(strings.ToLower(s))
	if !fc.Valid() {
		return Category{}, fmt.Errorf("%w: unknown category %q", ErrBadRequest, s)
	}
	return Fixed(fc), nil
}

// IsCustom reports whether the category is a household-defined one.
func (c Category) IsCustom() bool { return c.customID != "" }

// FixedValue returns the built-in category and true, or "" and false for custom categories.
func (c Category) FixedValue() (FixedCategory, bool) {
	if c.IsCustom() {
		return "", false
	}
	if c.fixed == "" {
		return Other, true
	}
	return c.fixed, true
}

// CustomID returns the custom category id, empty for fixed categories.
func (c Category) CustomID() string { return c.customID }

// IsOther reports whether the category is the "other" bucket.
func (c Category) IsOther() bool {
	f, ok := c.FixedValue()
	return ok && f == Other
}

func (c Category) String() string {
	if c.IsCustom() {
		return CustomPrefix + c.customID
	}
	if c.fixed == "" {
		return string(Other)
	}
	return string(c.fixed)
}

// Value implements driver.Valuer so categories can be bound as query args.
func (c Category) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner.
func (c *Category) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*c = Fixed(Other)
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Category", src)
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
