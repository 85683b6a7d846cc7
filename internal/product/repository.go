package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/trendora/storefront-api/internal/database"
)

var ErrNotFound = errors.New("product not found")

// Repository handles product reads
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns the full catalog, newest first
func (r *Repository) List(ctx context.Context) ([]*Product, error) {
	var dbProducts []*database.Product
	err := r.db.NewSelect().
		Model(&dbProducts).
		Order("date DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return mapDBProducts(dbProducts), nil
}

// GetByID retrieves a single product
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	dbProduct := new(database.Product)
	err := r.db.NewSelect().
		Model(dbProduct).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return mapDBProductToModel(dbProduct), nil
}

// ListBestsellers returns products flagged as bestsellers, newest first
func (r *Repository) ListBestsellers(ctx context.Context) ([]*Product, error) {
	var dbProducts []*database.Product
	err := r.db.NewSelect().
		Model(&dbProducts).
		Where("bestseller = ?", true).
		Order("date DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bestsellers: %w", err)
	}

	return mapDBProducts(dbProducts), nil
}

func mapDBProducts(dbProducts []*database.Product) []*Product {
	products := make([]*Product, 0, len(dbProducts))
	for _, p := range dbProducts {
		products = append(products, mapDBProductToModel(p))
	}
	return products
}

// mapDBProductToModel converts database model to domain model
func mapDBProductToModel(dbp *database.Product) *Product {
	return &Product{
		ID:          dbp.ID,
		Name:        dbp.Name,
		Description: dbp.Description,
		Price:       dbp.Price,
		Images:      dbp.Images,
		Category:    dbp.Category,
		Subcategory: dbp.Subcategory,
		Sizes:       dbp.Sizes,
		Bestseller:  dbp.Bestseller,
		Date:        dbp.Date,
	}
}
