package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryStore is an in-memory Store.
type memoryStore struct {
	ingredients map[string][]string
	recipes     map[string][]Recipe
	getError    error
	saveError   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{ingredients: make(map[string][]string), recipes: make(map[string][]Recipe)}
}

func (m *memoryStore) GetIngredients(ctx context.Context, imageHash string) ([]string, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.ingredients[imageHash], nil
}

func (m *memoryStore) SaveIngredients(ctx context.Context, imageHash string, ingredients []string) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.ingredients[imageHash] = ingredients
	return nil
}

func (m *memoryStore) GetRecipes(ctx context.Context, requestKey string) ([]Recipe, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.recipes[requestKey], nil
}

func (m *memoryStore) SaveRecipes(ctx context.Context, requestKey string, recipes []Recipe) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.recipes[requestKey] = recipes
	return nil
}

type countingExtractor struct {
	calls  int
	result []string
	err    error
}

func (c *countingExtractor) IdentifyIngredients(ctx context.Context, img Image) ([]string, error) {
	c.calls++
	return c.result, c.err
}

type countingGenerator struct {
	calls  int
	result []Recipe
	err    error
}

func (c *countingGenerator) GenerateRecipes(ctx context.Context, ingredients []string, filters FilterSet) ([]Recipe, error) {
	c.calls++
	return c.result, c.err
}

func TestCachedExtractor(t *testing.T) {
	ctx := context.Background()
	img := Image{Data: []byte("fridge"), MIMEType: "image/png"}

	t.Run("second call served from cache", func(t *testing.T) {
		next := &countingExtractor{result: []string{"eggs"}}
		c := NewCachedExtractor(next, newMemoryStore(), zap.NewNop())

		for i := 0; i < 2; i++ {
			got, err := c.IdentifyIngredients(ctx, img)
			require.NoError(t, err)
			assert.Equal(t, []string{"eggs"}, got)
		}
		assert.Equal(t, 1, next.calls)
	})

	t.Run("empty result is not cached", func(t *testing.T) {
		next := &countingExtractor{result: []string{}}
		store := newMemoryStore()
		c := NewCachedExtractor(next, store, zap.NewNop())

		_, err := c.IdentifyIngredients(ctx, img)
		require.NoError(t, err)
		_, err = c.IdentifyIngredients(ctx, img)
		require.NoError(t, err)
		assert.Equal(t, 2, next.calls)
		assert.Empty(t, store.ingredients)
	})

	t.Run("store failures fall through", func(t *testing.T) {
		next := &countingExtractor{result: []string{"milk"}}
		store := newMemoryStore()
		store.getError = errors.New("connection refused")
		store.saveError = errors.New("connection refused")
		c := NewCachedExtractor(next, store, zap.NewNop())

		got, err := c.IdentifyIngredients(ctx, img)
		require.NoError(t, err)
		assert.Equal(t, []string{"milk"}, got)
	})

	t.Run("extractor error propagates", func(t *testing.T) {
		next := &countingExtractor{err: ErrExtraction}
		c := NewCachedExtractor(next, newMemoryStore(), zap.NewNop())

		_, err := c.IdentifyIngredients(ctx, img)
		assert.ErrorIs(t, err, ErrExtraction)
	})
}

func TestCachedGenerator(t *testing.T) {
	ctx := context.Background()
	batch := []Recipe{{Title: "Omelette", Difficulty: Easy}}

	next := &countingGenerator{result: batch}
	c := NewCachedGenerator(next, newMemoryStore(), zap.NewNop())

	_, err := c.GenerateRecipes(ctx, []string{"eggs", "milk"}, NewFilterSet(Vegan))
	require.NoError(t, err)
	got, err := c.GenerateRecipes(ctx, []string{"Milk", "eggs"}, NewFilterSet(Vegan))
	require.NoError(t, err)
	assert.Equal(t, batch, got)
	assert.Equal(t, 1, next.calls)

	_, err = c.GenerateRecipes(ctx, []string{"eggs", "milk"}, NewFilterSet(Vegan, Keto))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestRequestKey(t *testing.T) {
	a := RequestKey([]string{"eggs", "milk"}, NewFilterSet(Keto))
	b := RequestKey([]string{" Milk", "EGGS"}, NewFilterSet(Keto))
	c := RequestKey([]string{"eggs", "milk"}, NewFilterSet())
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestImageHash(t *testing.T) {
	a := Image{Data: []byte("abc")}
	b := Image{Data: []byte("abc"), MIMEType: "image/jpeg"}
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)
}
