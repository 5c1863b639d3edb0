package sink

import (
	"context"
	"fmt"

	"market/crawler/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink upserts each record into the products table, keyed by
// product id, with the full canonical record as JSONB.
func NewPostgresSink(db *pgxpool.Pool) Sink {
	return &postgresSink{
		db: db,
	}
}

func (s *postgresSink) Append(ctx context.Context, products []domain.Product) error {
	query := `
	INSERT INTO products (id, category_id, data)
	VALUES ($1, $2, $3)
	ON CONFLICT (id)
	DO UPDATE SET category_id = $2, data = $3`

	for _, p := range products {
		if _, err := s.db.Exec(ctx, query, p.ID, p.CategoryID, p); err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}
	return nil
}
