package catalog

import (
	"context"
	"errors"

	"market/crawler/internal/client"
	"market/crawler/internal/config"
	"market/crawler/internal/domain"

	log "github.com/sirupsen/logrus"
)

// ErrNoCategories is returned when both discovery strategies come up empty.
// It is the single condition under which a crawl cannot proceed at all.
var ErrNoCategories = errors.New("no categories found")

// Fetcher is the slice of the HTTP client the catalog components need.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, params map[string]string) (any, error)
	GetHTML(ctx context.Context, url string, params map[string]string) (string, error)
}

// Discovery builds the flat category list: structured API first, HTML link
// scraping as the fallback strategy.
type Discovery struct {
	fetcher   Fetcher
	flattener *Flattener
	parser    *htmlParser
	cfg       config.MarketConfig
}

func NewDiscovery(fetcher Fetcher, cfg config.MarketConfig, sel config.SelectorConfig) *Discovery {
	return &Discovery{
		fetcher:   fetcher,
		flattener: NewFlattener(cfg.BaseURL),
		parser:    newHTMLParser(cfg.BaseURL, sel),
		cfg:       cfg,
	}
}

// Discover returns the deduplicated category list, in first-seen order.
func (d *Discovery) Discover(ctx context.Context) ([]domain.Category, error) {
	categories := d.fromAPI(ctx)

	if len(categories) == 0 {
		log.Info("🔄 category API yielded nothing, falling back to HTML scan")
		categories = d.fromHTML(ctx)
	}

	categories = dedupeByID(categories)
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	log.Infof("✅ discovered %d categories", len(categories))
	return categories, nil
}

// fromAPI tries the structured strategy. Absence and exhausted retries both
// resolve to "no categories from the API" — not a hard error yet.
func (d *Discovery) fromAPI(ctx context.Context) []domain.Category {
	data, err := d.fetcher.GetJSON(ctx, d.cfg.CategoryAPIURL, nil)
	if err != nil {
		if errors.Is(err, client.ErrAbsent) {
			log.Debugf("category API absent: %v", err)
		} else {
			log.Warnf("category API failed: %v", err)
		}
		return nil
	}

	nodes := categoryRoot(data)
	return d.flattener.Flatten(nodes, "", "")
}

func (d *Discovery) fromHTML(ctx context.Context) []domain.Category {
	html, err := d.fetcher.GetHTML(ctx, d.cfg.CategoryPageURL, nil)
	if err != nil {
		log.Warnf("category page failed: %v", err)
		return nil
	}

	categories, err := d.parser.ParseCategoryLinks(html)
	if err != nil {
		log.Warnf("category page unparseable: %v", err)
		return nil
	}
	return categories
}

// categoryRoot accepts either a bare list or an object wrapping the list
// under a conventional key.
func categoryRoot(data any) []any {
	return pickList(data, "categories", "Categories", "data", "items")
}

func dedupeByID(categories []domain.Category) []domain.Category {
	seen := make(map[string]bool, len(categories))
	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
