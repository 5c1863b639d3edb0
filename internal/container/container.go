package container

import (
	"context"
	"fmt"

	"market/crawler/internal/catalog"
	"market/crawler/internal/client"
	"market/crawler/internal/config"
	"market/crawler/internal/proxy"
	"market/crawler/internal/service"
	"market/crawler/internal/sink"
	"market/crawler/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Fetcher client.Fetcher
	Sink    sink.Sink
	State   state.Manager

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxyPool := proxy.NewPool(context.Background(), cfg.Market.Proxies, cfg.Market.BaseURL)
	fetcher := client.NewFetcher(cfg.Market, proxyPool)
	container.Fetcher = fetcher

	db, err := pgxpool.New(context.Background(),
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, err
	}
	container.db = db

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")
	container.redis = rdb

	stateManager := state.NewRedisManager(rdb, cfg.Redis.KeyPrefix)
	container.State = stateManager

	sinks := sink.Multi{sink.NewPostgresSink(db)}
	if cfg.Redis.Stream != "" {
		sinks = append(sinks, sink.NewStreamSink(rdb, cfg.Redis.Stream))
	}
	container.Sink = sinks

	discovery := catalog.NewDiscovery(fetcher, cfg.Market, cfg.Selectors)
	pager := catalog.NewPager(fetcher, cfg.Market, cfg.Selectors)

	container.Service = service.NewService(discovery, pager, sinks, stateManager, cfg.Market)

	return container, nil
}

// Run executes a full crawl
func (c *Container) Run(ctx context.Context) error {
	return c.Service.Run(ctx)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	if err := c.redis.Close(); err != nil {
		return err
	}

	log.Info("Container shut down successfully")
	return nil
}
