package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fridgechef/internal/recipe"
)

type fakeModel struct {
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestClient_IdentifyIngredients(t *testing.T) {
	vision := &fakeModel{resp: textResponse(`["Eggs", " milk ", "eggs"]`)}
	c := &Client{vision: vision, log: zap.NewNop()}

	img := recipe.Image{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}
	ingredients, err := c.IdentifyIngredients(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs", "milk"}, ingredients)

	require.Len(t, vision.parts, 2)
	assert.Equal(t, genai.Blob{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}, vision.parts[0])
	assert.Equal(t, genai.Text(recipe.IngredientPrompt), vision.parts[1])
}

func TestClient_IdentifyIngredientsErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"api error", &fakeModel{err: errors.New("quota exceeded")}},
		{"no candidates", &fakeModel{resp: &genai.GenerateContentResponse{}}},
		{"not json", &fakeModel{resp: textResponse("I see a fridge")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{vision: tt.model, log: zap.NewNop()}
			_, err := c.IdentifyIngredients(context.Background(), recipe.Image{})
			assert.ErrorIs(t, err, recipe.ErrExtraction)
		})
	}
}

func TestClient_GenerateRecipes(t *testing.T) {
	model := &fakeModel{resp: textResponse(
		`[{"title":"Omelette","difficulty":"easy","prep_time_minutes":10,"calories":250,`,
		`"ingredients":[{"name":"eggs","quantity":"3"}],"instructions":["Whisk","Cook"]}]`,
	)}
	c := &Client{recipes: model, log: zap.NewNop()}

	recipes, err := c.GenerateRecipes(context.Background(), []string{"eggs"}, recipe.NewFilterSet(recipe.Keto))
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Omelette", recipes[0].Title)
	assert.Equal(t, recipe.Easy, recipes[0].Difficulty)
	assert.Equal(t, []string{"Whisk", "Cook"}, recipes[0].Instructions)

	require.Len(t, model.parts, 1)
	prompt, ok := model.parts[0].(genai.Text)
	require.True(t, ok)
	assert.Contains(t, string(prompt), "eggs")
	assert.Contains(t, string(prompt), "Keto")
}

func TestClient_GenerateRecipesErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"api error", &fakeModel{err: errors.New("unavailable")}},
		{"bad difficulty", &fakeModel{resp: textResponse(`[{"title":"Soup","difficulty":"Expert"}]`)}},
		{"missing title", &fakeModel{resp: textResponse(`[{"title":"","difficulty":"Easy"}]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{recipes: tt.model, log: zap.NewNop()}
			_, err := c.GenerateRecipes(context.Background(), []string{"eggs"}, recipe.NewFilterSet())
			assert.ErrorIs(t, err, recipe.ErrGeneration)
		})
	}
}

func TestResponseText(t *testing.T) {
	text, err := responseText(textResponse("[", "]"))
	require.NoError(t, err)
	assert.Equal(t, "[]", text)

	_, err = responseText(nil)
	assert.ErrorIs(t, err, errEmptyResponse)

	_, err = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.ErrorIs(t, err, errEmptyResponse)

	blobOnly := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
	}}}
	_, err = responseText(blobOnly)
	assert.Error(t, err)
}
