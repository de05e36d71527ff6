package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFilter is returned when a dietary filter name is not recognized.
var ErrUnknownFilter = errors.New("unknown dietary filter")

// DietaryFilter is one of a fixed set of dietary constraints.
type DietaryFilter string

const (
	Vegetarian DietaryFilter = "Vegetarian"
	Vegan      DietaryFilter = "Vegan"
	GlutenFree DietaryFilter = "Gluten-Free"
	Keto       DietaryFilter = "Keto"
	Paleo      DietaryFilter = "Paleo"
)

// DietaryFilters lists every supported filter in display order.
var DietaryFilters = []DietaryFilter{Vegetarian, Vegan, GlutenFree, Keto, Paleo}

// ParseDietaryFilter matches s case-insensitively. "gluten_free" and
// "glutenfree" are accepted as spellings of Gluten-Free.
func ParseDietaryFilter(s string) (DietaryFilter, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for _, f := range DietaryFilters {
		if strings.ReplaceAll(strings.ToLower(string(f)), "-", "") == normalized {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// FilterSet is a membership-only set of dietary filters.
type FilterSet map[DietaryFilter]struct{}

// NewFilterSet builds a set from the given filters.
func NewFilterSet(filters ...DietaryFilter) FilterSet {
	s := make(FilterSet, len(filters))
	for _, f := range filters {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether f is in the set.
func (s FilterSet) Has(f DietaryFilter) bool {
	_, ok := s[f]
	return ok
}

// Toggle adds f when absent and removes it when present.
func (s FilterSet) Toggle(f DietaryFilter) {
	if s.Has(f) {
		delete(s, f)
		return
	}
	s[f] = struct{}{}
}

// Clone returns an independent copy of the set.
func (s FilterSet) Clone() FilterSet {
	c := make(FilterSet, len(s))
	for f := range s {
		c[f] = struct{}{}
	}
	return c
}

// List returns the members in the canonical DietaryFilters order.
func (s FilterSet) List() []DietaryFilter {
	list := []DietaryFilter{}
	for _, f := range DietaryFilters {
		if s.Has(f) {
			list = append(list, f)
		}
	}
	return list
}

// String joins the members with ", ", e.g. "Vegan, Keto".
func (s FilterSet) String() string {
	names := make([]string, 0, len(s))
	for _, f := range s.List() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// MarshalJSON encodes the set as an ordered array.
func (s FilterSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes an array of filter names.
func (s *FilterSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := make(FilterSet, len(names))
	for _, name := range names {
		f, err := ParseDietaryFilter(name)
		if err != nil {
			return err
		}
		set[f] = struct{}{}
	}
	*s = set
	return nil
}
