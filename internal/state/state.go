package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Manager records which categories a run has fully processed so an
// interrupted crawl can skip them on restart. It is advisory only: losing the
// checkpoint causes redundant re-fetching, never data corruption.
type Manager interface {
	Done(ctx context.Context) ([]string, error)
	MarkDone(ctx context.Context, categoryID string) error
	Reset(ctx context.Context) error
}

type redisManager struct {
	redisClient *redis.Client
	key         string
}

// NewRedisManager stores completed category ids in a Redis set under the
// given key prefix.
func NewRedisManager(redisClient *redis.Client, keyPrefix string) Manager {
	return &redisManager{
		redisClient: redisClient,
		key:         keyPrefix + "categories:done",
	}
}

func (m *redisManager) Done(ctx context.Context) ([]string, error) {
	ids, err := m.redisClient.SMembers(ctx, m.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // no checkpoint yet: start from scratch
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return ids, nil
}

func (m *redisManager) MarkDone(ctx context.Context, categoryID string) error {
	if err := m.redisClient.SAdd(ctx, m.key, categoryID).Err(); err != nil {
		return fmt.Errorf("failed to checkpoint category %s: %w", categoryID, err)
	}
	return nil
}

func (m *redisManager) Reset(ctx context.Context) error {
	if err := m.redisClient.Del(ctx, m.key).Err(); err != nil {
		return fmt.Errorf("failed to reset checkpoint: %w", err)
	}
	return nil
}

type memoryManager struct {
	mu   sync.Mutex
	done map[string]bool
	ids  []string
}

// NewMemoryManager keeps the checkpoint in process memory. Used when no
// persistent store is configured; a restart then simply starts from scratch.
func NewMemoryManager() Manager {
	return &memoryManager{done: make(map[string]bool)}
}

func (m *memoryManager) Done(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out, nil
}

func (m *memoryManager) MarkDone(ctx context.Context, categoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.done[categoryID] {
		m.done[categoryID] = true
		m.ids = append(m.ids, categoryID)
	}
	return nil
}

func (m *memoryManager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = make(map[string]bool)
	m.ids = nil
	return nil
}
