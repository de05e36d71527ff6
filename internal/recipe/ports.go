package recipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Sentinel errors returned (wrapped) by collaborator implementations.
var (
	ErrExtraction = errors.New("ingredient extraction failed")
	ErrGeneration = errors.New("recipe generation failed")
)

// Image is an uploaded photo together with its MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// Hash returns the hex encoded SHA256 of the image data.
func (i Image) Hash() string {
	sum := sha256.Sum256(i.Data)
	return hex.EncodeToString(sum[:])
}

// IngredientExtractor derives ingredient names from a photo. An empty result
// with a nil error means nothing was recognized.
type IngredientExtractor interface {
	IdentifyIngredients(ctx context.Context, img Image) ([]string, error)
}

// RecipeGenerator suggests recipes for the given ingredients and filters.
type RecipeGenerator interface {
	GenerateRecipes(ctx context.Context, ingredients []string, filters FilterSet) ([]Recipe, error)
}
