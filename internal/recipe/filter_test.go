package recipe

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDietaryFilter(t *testing.T) {
	tests := []struct {
		in   string
		want DietaryFilter
	}{
		{"Vegan", Vegan},
		{"vegetarian", Vegetarian},
		{"Gluten-Free", GlutenFree},
		{"gluten_free", GlutenFree},
		{"glutenfree", GlutenFree},
		{"KETO", Keto},
		{"paleo", Paleo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDietaryFilter(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDietaryFilter("carnivore")
	assert.True(t, errors.Is(err, ErrUnknownFilter))
}

func TestFilterSetToggle(t *testing.T) {
	s := NewFilterSet()
	s.Toggle(Vegan)
	s.Toggle(Keto)
	assert.Equal(t, []DietaryFilter{Vegan, Keto}, s.List())

	s.Toggle(Vegan)
	assert.False(t, s.Has(Vegan))
	assert.Equal(t, []DietaryFilter{Keto}, s.List())
}

func TestFilterSetListIsCanonical(t *testing.T) {
	s := NewFilterSet(Paleo, Vegetarian, GlutenFree)
	assert.Equal(t, []DietaryFilter{Vegetarian, GlutenFree, Paleo}, s.List())
	assert.Equal(t, "Vegetarian, Gluten-Free, Paleo", s.String())
}

func TestFilterSetCloneIsIndependent(t *testing.T) {
	s := NewFilterSet(Vegan)
	c := s.Clone()
	c.Toggle(Keto)
	assert.False(t, s.Has(Keto))
}

func TestFilterSetJSON(t *testing.T) {
	data, err := json.Marshal(NewFilterSet(Keto, Vegan))
	require.NoError(t, err)
	assert.JSONEq(t, `["Vegan","Keto"]`, string(data))

	var s FilterSet
	require.NoError(t, json.Unmarshal([]byte(`["keto","gluten-free"]`), &s))
	assert.True(t, s.Has(Keto))
	assert.True(t, s.Has(GlutenFree))

	assert.Error(t, json.Unmarshal([]byte(`["raw"]`), &s))
}
