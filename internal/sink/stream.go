package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"market/crawler/internal/domain"

	"github.com/redis/go-redis/v9"
)

type streamSink struct {
	redisClient *redis.Client
	stream      string
}

// NewStreamSink publishes each canonical record to a Redis stream so
// downstream consumers (price monitors, exporters) can tail the crawl while
// it is still running.
func NewStreamSink(redisClient *redis.Client, stream string) Sink {
	return &streamSink{
		redisClient: redisClient,
		stream:      stream,
	}
}

func (s *streamSink) Append(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to serialize product %s: %w", p.ID, err)
		}

		err = s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{
				"category_id": p.CategoryID,
				"record":      string(payload),
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish product %s to stream %s: %w", p.ID, s.stream, err)
		}
	}
	return nil
}
