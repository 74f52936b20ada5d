// Package product implements the read-mostly product catalog repository.
// The catalog is owned elsewhere; this side only looks up display metadata
// (plus a create used by the demo seeder).
package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// Repo provides product catalog lookups backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new product repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByIDSQL = `SELECT id, name, sku, category FROM products WHERE id = $1`

const listSQL = `SELECT id, name, sku, category FROM products ORDER BY name`

const insertSQL = `INSERT INTO products (id, name, sku, category) VALUES ($1, $2, $3, $4)`

// GetByID returns a product by primary key.
// Returns domain.ErrNotFound if the product does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var p domain.Product
	err := querier.QueryRow(ctx, getByIDSQL, id).Scan(&p.ID, &p.Name, &p.SKU, &p.Category)
	if err != nil {
		return nil, postgres.MapError(err, "product", id)
	}

	return &p, nil
}

// List returns all products ordered by name.
func (r *Repo) List(ctx context.Context) ([]domain.Product, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Category); err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if result == nil {
		result = []domain.Product{}
	}

	return result, nil
}

// Create inserts a product. Used by the demo seeder only.
// Returns domain.ErrAlreadyExists on SKU collisions.
func (r *Repo) Create(ctx context.Context, p *domain.Product) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, insertSQL, p.ID, p.Name, p.SKU, p.Category); err != nil {
		return postgres.MapError(err, "product", p.ID)
	}

	return nil
}
