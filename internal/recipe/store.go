package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store caches collaborator results. A nil slice with a nil error is a miss.
type Store interface {
	GetIngredients(ctx context.Context, imageHash string) ([]string, error)
	SaveIngredients(ctx context.Context, imageHash string, ingredients []string) error
	GetRecipes(ctx context.Context, requestKey string) ([]Recipe, error)
	SaveRecipes(ctx context.Context, requestKey string, recipes []Recipe) error
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

type ingredientScanRow struct {
	ImageHash   string `db:"image_hash"`
	Ingredients []byte `db:"ingredients"`
}

type recipeBatchRow struct {
	RequestKey string    `db:"request_key"`
	Recipes    []byte    `db:"recipes"`
	CreatedAt  time.Time `db:"created_at"`
}

// NewPostgresStore connects to dataSourceName and creates the cache tables.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS ingredient_scans (
		image_hash TEXT PRIMARY KEY,
		ingredients JSONB NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ingredient_scans table: %w", err)
	}

	schema = `
	CREATE TABLE IF NOT EXISTS recipe_batches (
		request_key TEXT PRIMARY KEY,
		recipes JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create recipe_batches table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetIngredients retrieves the ingredients recognized in an image.
func (s *PostgresStore) GetIngredients(ctx context.Context, imageHash string) ([]string, error) {
	var row ingredientScanRow
	err := s.db.GetContext(ctx, &row, "SELECT image_hash, ingredients FROM ingredient_scans WHERE image_hash = $1", imageHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredients by hash: %w", err)
	}

	var ingredients []string
	if err := json.Unmarshal(row.Ingredients, &ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	return ingredients, nil
}

// SaveIngredients stores the ingredients recognized in an image.
func (s *PostgresStore) SaveIngredients(ctx context.Context, imageHash string, ingredients []string) error {
	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO ingredient_scans (image_hash, ingredients) VALUES ($1, $2) ON CONFLICT (image_hash) DO UPDATE SET ingredients = $2",
		imageHash,
		ingredientsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save ingredients: %w", err)
	}
	return nil
}

// GetRecipes retrieves a previously generated batch.
func (s *PostgresStore) GetRecipes(ctx context.Context, requestKey string) ([]Recipe, error) {
	var row recipeBatchRow
	err := s.db.GetContext(ctx, &row, "SELECT request_key, recipes, created_at FROM recipe_batches WHERE request_key = $1", requestKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe batch: %w", err)
	}

	var recipes []Recipe
	if err := json.Unmarshal(row.Recipes, &recipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}
	return recipes, nil
}

// SaveRecipes stores a generated batch.
func (s *PostgresStore) SaveRecipes(ctx context.Context, requestKey string, recipes []Recipe) error {
	recipesJSON, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO recipe_batches (request_key, recipes, created_at) VALUES ($1, $2, now()) ON CONFLICT (request_key) DO UPDATE SET recipes = $2, created_at = now()",
		requestKey,
		recipesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe batch: %w", err)
	}
	return nil
}
