package sink

import (
	"context"

	"market/crawler/internal/domain"
)

// Sink receives the canonical product records of a completed category. The
// crawler does not care where they go: database, stream, or both.
type Sink interface {
	Append(ctx context.Context, products []domain.Product) error
}

// Multi fans records out to several sinks, stopping at the first failure.
type Multi []Sink

func (m Multi) Append(ctx context.Context, products []domain.Product) error {
	for _, s := range m {
		if err := s.Append(ctx, products); err != nil {
			return err
		}
	}
	return nil
}
