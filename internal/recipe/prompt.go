package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BatchSize is the number of recipes requested per generation.
const BatchSize = 3

// IngredientPrompt asks a vision model for the visible ingredients.
const IngredientPrompt = `Analyze this image of a refrigerator's contents. Identify all visible food ingredients. Return a JSON array of strings representing the ingredients. Example: ["eggs", "milk", "lettuce"]`

// RecipePrompt builds the generation prompt for the given ingredients and filters.
func RecipePrompt(ingredients []string, filters FilterSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given the following ingredients: %s.\n", strings.Join(ingredients, ", "))
	if len(filters) > 0 {
		fmt.Fprintf(&b, "It must adhere to the following dietary restrictions: %s.\n", filters)
	}
	fmt.Fprintf(&b, "Suggest %d delicious recipes. ", BatchSize)
	b.WriteString("For each recipe, provide the title, difficulty ('Easy', 'Medium', or 'Hard'), estimated preparation time in minutes, approximate calorie count, a list of all required ingredients (with names and quantities), and step-by-step cooking instructions.\n")
	b.WriteString("Return the response as a JSON array of objects with the keys 'title' (string), 'difficulty' (string), 'prep_time_minutes' (number), 'calories' (number), 'ingredients' (array of objects with 'name' and 'quantity' strings) and 'instructions' (array of strings). The JSON response should be clean and not contain any markdown formatting.")
	return b.String()
}

// ParseIngredientList decodes a model response holding a JSON array of
// ingredient names and cleans the result.
func ParseIngredientList(raw string) ([]string, error) {
	cleanJSON, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal([]byte(cleanJSON), &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients JSON: %w", err)
	}
	return CleanIngredientNames(names), nil
}

// ParseRecipeBatch decodes a model response holding a JSON array of recipes.
// Every recipe must match the schema, including the difficulty enum.
func ParseRecipeBatch(raw string) ([]Recipe, error) {
	cleanJSON, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var recipes []Recipe
	if err := json.Unmarshal([]byte(cleanJSON), &recipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes JSON: %w", err)
	}
	for i, r := range recipes {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("recipe %d has no title", i)
		}
	}
	return recipes, nil
}

// extractJSONArray returns the outermost JSON array in s, which may be
// wrapped in markdown fences or prose.
func extractJSONArray(s string) (string, error) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || start > end {
		return "", fmt.Errorf("could not find JSON array in response: %s", s)
	}
	return s[start : end+1], nil
}
