package localllm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"fridgechef/internal/recipe"
)

const (
	DefaultURL   = "http://localhost:1234/v1"
	DefaultModel = "gemma-3-12b-it:2"
)

// Client talks to a local OpenAI-compatible server such as LM Studio.
type Client struct {
	llm       llms.Model
	maxTokens int
	log       *zap.Logger
}

// NewClient creates a client for the server at baseURL. Most local servers
// ignore the token, but the driver requires one.
func NewClient(baseURL, model, token string, log *zap.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if token == "" {
		token = "local"
	}
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("creating local llm client: %w", err)
	}
	return &Client{llm: llm, maxTokens: 4096, log: log}, nil
}

// IdentifyIngredients sends the image inline as a data URL.
func (c *Client) IdentifyIngredients(ctx context.Context, img recipe.Image) ([]string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
	text, err := c.generate(ctx,
		llms.TextPart(recipe.IngredientPrompt),
		llms.ImageURLPart(dataURL),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrExtraction, err)
	}

	ingredients, err := recipe.ParseIngredientList(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrExtraction, err)
	}
	return ingredients, nil
}

// GenerateRecipes asks the local model for a batch of recipes.
func (c *Client) GenerateRecipes(ctx context.Context, ingredients []string, filters recipe.FilterSet) ([]recipe.Recipe, error) {
	text, err := c.generate(ctx, llms.TextPart(recipe.RecipePrompt(ingredients, filters)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrGeneration, err)
	}

	recipes, err := recipe.ParseRecipeBatch(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrGeneration, err)
	}
	return recipes, nil
}

func (c *Client) generate(ctx context.Context, parts ...llms.ContentPart) (string, error) {
	resp, err := c.llm.GenerateContent(ctx,
		[]llms.MessageContent{{Role: schema.ChatMessageTypeHuman, Parts: parts}},
		llms.WithTemperature(1),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no content found in response")
	}

	content := resp.Choices[0].Content
	c.log.Debug("local llm response", zap.Int("chars", len(content)))
	return content, nil
}
