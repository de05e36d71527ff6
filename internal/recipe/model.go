package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty is the closed set of recipe difficulty levels.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists every valid difficulty in display order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty matches s case-insensitively against the known difficulties.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Ingredient is a named item with a free-form quantity such as "2 cups".
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe represents a single generated cooking suggestion.
type Recipe struct {
	ID              string       `json:"id,omitempty"`
	Title           string       `json:"title"`
	Difficulty      Difficulty   `json:"difficulty"`
	PrepTimeMinutes float64      `json:"prep_time_minutes"`
	Calories        float64      `json:"calories"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Recipe.
// It normalizes the difficulty casing and rejects values outside the schema.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type Alias Recipe
	aux := &struct {
		Difficulty string `json:"difficulty"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	difficulty, err := ParseDifficulty(aux.Difficulty)
	if err != nil {
		return err
	}
	r.Difficulty = difficulty

	if r.PrepTimeMinutes < 0 {
		return fmt.Errorf("recipe %q has negative prep time %v", r.Title, r.PrepTimeMinutes)
	}
	if r.Calories < 0 {
		return fmt.Errorf("recipe %q has negative calories %v", r.Title, r.Calories)
	}
	return nil
}

// MissingIngredients returns the recipe ingredients whose name is not among
// owned. Names are compared case-insensitively.
func (r Recipe) MissingIngredients(owned []string) []Ingredient {
	have := make(map[string]struct{}, len(owned))
	for _, name := range owned {
		have[strings.ToLower(name)] = struct{}{}
	}

	missing := []Ingredient{}
	for _, ing := range r.Ingredients {
		if _, ok := have[strings.ToLower(ing.Name)]; !ok {
			missing = append(missing, ing)
		}
	}
	return missing
}

// Clone returns a deep copy of the recipe.
func (r Recipe) Clone() Recipe {
	c := r
	c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	c.Instructions = append([]string(nil), r.Instructions...)
	return c
}

// CleanIngredientNames trims every name, drops blanks and removes
// case-insensitive duplicates, keeping the first spelling seen.
func CleanIngredientNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, name)
	}
	return cleaned
}
