package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"market/crawler/internal/catalog"
	"market/crawler/internal/config"
	"market/crawler/internal/domain"
	"market/crawler/internal/sink"
	"market/crawler/internal/state"

	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"
)

// Service drives one crawl run: discover categories, fetch each one through
// the pager, hand the records to the sink, and checkpoint progress.
type Service struct {
	discovery *catalog.Discovery
	pager     *catalog.Pager
	sink      sink.Sink
	state     state.Manager
	cfg       config.MarketConfig
}

func NewService(
	discovery *catalog.Discovery,
	pager *catalog.Pager,
	sink sink.Sink,
	stateManager state.Manager,
	cfg config.MarketConfig,
) *Service {
	return &Service{
		discovery: discovery,
		pager:     pager,
		sink:      sink,
		state:     stateManager,
		cfg:       cfg,
	}
}

// Run executes a full crawl. The only unrecoverable error is total discovery
// failure; everything below the category level is absorbed and reported via
// logging.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Resume {
		if err := s.state.Reset(ctx); err != nil {
			log.Warnf("failed to reset checkpoint, continuing: %v", err)
		}
	}

	categories, err := s.discovery.Discover(ctx)
	if err != nil {
		return err
	}

	if s.cfg.Category != "" {
		categories = filterCategories(categories, s.cfg.Category)
		if len(categories) == 0 {
			return fmt.Errorf("no category matches %q", s.cfg.Category)
		}
	}

	done := make(map[string]bool)
	if s.cfg.Resume {
		ids, err := s.state.Done(ctx)
		if err != nil {
			log.Warnf("failed to load checkpoint, starting from scratch: %v", err)
		}
		for _, id := range ids {
			done[id] = true
		}
		if len(done) > 0 {
			log.Infof("🔄 resuming: %d categories already complete", len(done))
		}
	}

	pending := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if !done[c.ID] {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		log.Info("all categories already processed, nothing to do")
		return nil
	}

	log.Infof("crawling %d categories", len(pending))

	delay := time.Duration(s.cfg.RequestDelay * float64(time.Second))
	workers := s.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	var total atomic.Int64
	errGroup := new(errgroup.Group)
	semaphore := make(chan struct{}, workers)

	for _, cat := range pending {
		errGroup.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return ctx.Err()
			}

			products := s.pager.FetchCategory(ctx, cat, s.cfg.PageLimit, delay)

			if len(products) > 0 {
				if err := s.sink.Append(ctx, products); err != nil {
					// Storage trouble for one category must not abort the crawl.
					log.Errorf("❌ failed to store %d records for category %s: %v", len(products), cat.ID, err)
					return nil
				}
			}

			if err := s.state.MarkDone(ctx, cat.ID); err != nil {
				log.Warnf("failed to checkpoint category %s: %v", cat.ID, err)
			}

			total.Add(int64(len(products)))
			log.Infof("✅ category %q: %d records (running total: %d)", cat.Name, len(products), total.Load())
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return err
	}

	log.Infof("✅ crawl complete: %d records across %d categories", total.Load(), len(pending))
	return nil
}

// filterCategories keeps the categories matching the given id or display
// name, case-insensitively for names.
func filterCategories(categories []domain.Category, idOrName string) []domain.Category {
	var out []domain.Category
	for _, c := range categories {
		if c.ID == idOrName || strings.EqualFold(c.Name, idOrName) {
			out = append(out, c)
		}
	}
	return out
}
