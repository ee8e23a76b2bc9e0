package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.Catalog = (*CatalogRepository)(nil)

const selectProducts = `
	SELECT
		product_id, name, price::text, stock,
		is_expirable, COALESCE(expiration_date, to_timestamp(0)),
		is_shippable, COALESCE(weight_kg::text, ''),
		category, image
	FROM products
`

// A CatalogRepository reads the product catalog from PostgreSQL.
type CatalogRepository struct {
	db pgxPool
}

func NewCatalogRepository(db pgxPool) CatalogRepository {
	return CatalogRepository{db}
}

func (r CatalogRepository) ListProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "CatalogRepository.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, selectProducts+`ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query: %w", op, err)
	}

	ps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r CatalogRepository) ProductByID(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "CatalogRepository.ProductByID"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	row := r.db.QueryRow(ctx, selectProducts+`WHERE product_id = $1`, productID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrProductNotFound, productID,
		)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p              domain.Product
		price, weight  string
		category       string
		expirationDate time.Time
	)

	err := row.Scan(
		&p.ID, &p.Name, &price, &p.Quantity,
		&p.IsExpirable, &expirationDate,
		&p.IsShippable, &weight,
		&category, &p.Image,
	)
	if err != nil {
		return domain.Product{}, err
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("product %s price: %w", p.ID, err)
	}
	if p.IsExpirable {
		p.ExpirationDate = &expirationDate
	}
	if p.IsShippable {
		w, err := decimal.NewFromString(weight)
		if err != nil {
			return domain.Product{}, fmt.Errorf("product %s weight: %w", p.ID, err)
		}
		p.Weight = &w
	}
	p.Category = domain.Category(category)

	if err := p.Check(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
