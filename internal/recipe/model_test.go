package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeUnmarshalNormalizesDifficulty(t *testing.T) {
	var r Recipe
	err := json.Unmarshal([]byte(`{"title":"Omelette","difficulty":"easy","prep_time_minutes":10,"calories":250,"ingredients":[{"name":"Eggs","quantity":"3"}],"instructions":["Whisk","Cook"]}`), &r)
	require.NoError(t, err)

	assert.Equal(t, Easy, r.Difficulty)
	assert.Equal(t, "Omelette", r.Title)
	assert.Equal(t, 10.0, r.PrepTimeMinutes)
	assert.Equal(t, []Ingredient{{Name: "Eggs", Quantity: "3"}}, r.Ingredients)
	assert.Equal(t, []string{"Whisk", "Cook"}, r.Instructions)
}

func TestRecipeUnmarshalRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown difficulty", `{"title":"x","difficulty":"Extreme"}`},
		{"missing difficulty", `{"title":"x"}`},
		{"negative prep time", `{"title":"x","difficulty":"Hard","prep_time_minutes":-1}`},
		{"negative calories", `{"title":"x","difficulty":"Hard","calories":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Recipe
			assert.Error(t, json.Unmarshal([]byte(tt.data), &r))
		})
	}
}

func TestMissingIngredients(t *testing.T) {
	r := Recipe{
		Title:      "Pancakes",
		Difficulty: Easy,
		Ingredients: []Ingredient{
			{Name: "Eggs", Quantity: "2"},
			{Name: "Milk", Quantity: "1 cup"},
			{Name: "Flour", Quantity: "200 g"},
		},
	}

	missing := r.MissingIngredients([]string{"eggs", "MILK"})
	assert.Equal(t, []Ingredient{{Name: "Flour", Quantity: "200 g"}}, missing)

	assert.Empty(t, r.MissingIngredients([]string{"eggs", "milk", "flour"}))
	assert.Len(t, r.MissingIngredients(nil), 3)
}

func TestCleanIngredientNames(t *testing.T) {
	got := CleanIngredientNames([]string{" Eggs ", "milk", "", "eggs", "  ", "Milk", "lettuce"})
	assert.Equal(t, []string{"Eggs", "milk", "lettuce"}, got)
}

func TestRecipeClone(t *testing.T) {
	r := Recipe{Title: "Soup", Difficulty: Medium, Instructions: []string{"Boil"}}
	c := r.Clone()
	c.Instructions[0] = "Simmer"
	assert.Equal(t, "Boil", r.Instructions[0])
}
