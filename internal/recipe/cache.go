package recipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// CachedExtractor consults a Store before delegating to the wrapped extractor.
// Store failures are logged and never fail the extraction.
type CachedExtractor struct {
	next  IngredientExtractor
	store Store
	log   *zap.Logger
}

// NewCachedExtractor wraps next with a result cache.
func NewCachedExtractor(next IngredientExtractor, store Store, log *zap.Logger) *CachedExtractor {
	return &CachedExtractor{next: next, store: store, log: log}
}

// IdentifyIngredients implements IngredientExtractor.
func (c *CachedExtractor) IdentifyIngredients(ctx context.Context, img Image) ([]string, error) {
	imageHash := img.Hash()

	cached, err := c.store.GetIngredients(ctx, imageHash)
	if err != nil {
		c.log.Warn("ingredient cache lookup failed", zap.String("image_hash", imageHash), zap.Error(err))
	} else if cached != nil {
		c.log.Debug("ingredients found in cache", zap.String("image_hash", imageHash))
		return cached, nil
	}

	ingredients, err := c.next.IdentifyIngredients(ctx, img)
	if err != nil {
		return nil, err
	}

	if len(ingredients) > 0 {
		if err := c.store.SaveIngredients(ctx, imageHash, ingredients); err != nil {
			c.log.Warn("failed to cache ingredients", zap.String("image_hash", imageHash), zap.Error(err))
		}
	}
	return ingredients, nil
}

// CachedGenerator consults a Store before delegating to the wrapped generator.
type CachedGenerator struct {
	next  RecipeGenerator
	store Store
	log   *zap.Logger
}

// NewCachedGenerator wraps next with a result cache.
func NewCachedGenerator(next RecipeGenerator, store Store, log *zap.Logger) *CachedGenerator {
	return &CachedGenerator{next: next, store: store, log: log}
}

// GenerateRecipes implements RecipeGenerator.
func (c *CachedGenerator) GenerateRecipes(ctx context.Context, ingredients []string, filters FilterSet) ([]Recipe, error) {
	key := RequestKey(ingredients, filters)

	cached, err := c.store.GetRecipes(ctx, key)
	if err != nil {
		c.log.Warn("recipe cache lookup failed", zap.String("request_key", key), zap.Error(err))
	} else if cached != nil {
		c.log.Debug("recipes found in cache", zap.String("request_key", key))
		return cached, nil
	}

	recipes, err := c.next.GenerateRecipes(ctx, ingredients, filters)
	if err != nil {
		return nil, err
	}

	if len(recipes) > 0 {
		if err := c.store.SaveRecipes(ctx, key, recipes); err != nil {
			c.log.Warn("failed to cache recipes", zap.String("request_key", key), zap.Error(err))
		}
	}
	return recipes, nil
}

// RequestKey identifies a generation request independent of ingredient order
// and casing.
func RequestKey(ingredients []string, filters FilterSet) string {
	names := make([]string, 0, len(ingredients))
	for _, name := range ingredients {
		names = append(names, strings.ToLower(strings.TrimSpace(name)))
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(strings.Join(names, "\n")))
	h.Write([]byte{0})
	h.Write([]byte(filters.String()))
	return hex.EncodeToString(h.Sum(nil))
}
