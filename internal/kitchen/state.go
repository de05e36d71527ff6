package kitchen

import "fridgechef/internal/recipe"

// RecipeCard is a recipe of the current batch together with the ingredients
// the user does not own.
type RecipeCard struct {
	Recipe  recipe.Recipe       `json:"recipe"`
	Missing []recipe.Ingredient `json:"missing_ingredients"`
}

// CookingState describes the walkthrough cursor.
type CookingState struct {
	Step        int    `json:"step"`
	TotalSteps  int    `json:"total_steps"`
	Instruction string `json:"instruction"`
}

// State is a point-in-time copy of the machine, safe to render or encode.
type State struct {
	View             View                   `json:"view"`
	IsLoading        bool                   `json:"is_loading"`
	LoadingMessage   string                 `json:"loading_message,omitempty"`
	Error            string                 `json:"error,omitempty"`
	OwnedIngredients []string               `json:"owned_ingredients"`
	Recipes          []RecipeCard           `json:"recipes"`
	ActiveFilters    []recipe.DietaryFilter `json:"active_filters"`
	SelectedRecipe   *recipe.Recipe         `json:"selected_recipe,omitempty"`
	Cooking          *CookingState          `json:"cooking,omitempty"`
	ShoppingList     []string               `json:"shopping_list"`
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		View:             m.view,
		IsLoading:        m.loading,
		LoadingMessage:   m.loadingMessage,
		Error:            m.errMsg,
		OwnedIngredients: append([]string{}, m.owned...),
		Recipes:          make([]RecipeCard, 0, len(m.recipes)),
		ActiveFilters:    m.filters.List(),
		ShoppingList:     m.shopping.Items(),
	}
	for _, r := range m.recipes {
		s.Recipes = append(s.Recipes, RecipeCard{
			Recipe:  r.Clone(),
			Missing: r.MissingIngredients(m.owned),
		})
	}
	if m.selected != nil {
		selected := m.selected.Clone()
		s.SelectedRecipe = &selected
	}
	if m.view == ViewCooking && m.walkthrough != nil {
		s.Cooking = &CookingState{
			Step:        m.walkthrough.Step(),
			TotalSteps:  m.walkthrough.Total(),
			Instruction: m.walkthrough.Instruction(),
		}
	}
	return s
}
