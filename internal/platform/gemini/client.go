package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"fridgechef/internal/recipe"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

var errEmptyResponse = errors.New("empty response from Gemini")

// contentGenerator is the subset of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client identifies ingredients and generates recipes with the Gemini API.
type Client struct {
	client  *genai.Client
	vision  contentGenerator
	recipes contentGenerator
	log     *zap.Logger
}

var ingredientListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

var recipeBatchSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":             {Type: genai.TypeString},
			"difficulty":        {Type: genai.TypeString, Enum: []string{string(recipe.Easy), string(recipe.Medium), string(recipe.Hard)}},
			"prep_time_minutes": {Type: genai.TypeNumber},
			"calories":          {Type: genai.TypeNumber},
			"ingredients": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":     {Type: genai.TypeString},
						"quantity": {Type: genai.TypeString},
					},
					Required: []string{"name", "quantity"},
				},
			},
			"instructions": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"title", "difficulty", "prep_time_minutes", "calories", "ingredients", "instructions"},
	},
}

// NewClient creates a Gemini client for the given model. Both requests ask
// for JSON constrained by a response schema.
func NewClient(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Client, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	vision := client.GenerativeModel(modelName)
	vision.ResponseMIMEType = "application/json"
	vision.ResponseSchema = ingredientListSchema

	recipes := client.GenerativeModel(modelName)
	recipes.ResponseMIMEType = "application/json"
	recipes.ResponseSchema = recipeBatchSchema

	return &Client{client: client, vision: vision, recipes: recipes, log: log}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// IdentifyIngredients asks the model for the food items visible in img.
func (c *Client) IdentifyIngredients(ctx context.Context, img recipe.Image) ([]string, error) {
	resp, err := c.vision.GenerateContent(ctx,
		genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
		genai.Text(recipe.IngredientPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrExtraction, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrExtraction, err)
	}

	ingredients, err := recipe.ParseIngredientList(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrExtraction, err)
	}
	c.log.Debug("gemini identified ingredients", zap.Int("count", len(ingredients)))
	return ingredients, nil
}

// GenerateRecipes asks the model for a batch of recipes.
func (c *Client) GenerateRecipes(ctx context.Context, ingredients []string, filters recipe.FilterSet) ([]recipe.Recipe, error) {
	resp, err := c.recipes.GenerateContent(ctx, genai.Text(recipe.RecipePrompt(ingredients, filters)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrGeneration, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrGeneration, err)
	}

	recipes, err := recipe.ParseRecipeBatch(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrGeneration, err)
	}
	c.log.Debug("gemini generated recipes", zap.Int("count", len(recipes)))
	return recipes, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return b.String(), nil
}
