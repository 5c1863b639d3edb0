package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"market/crawler/internal/client"
	"market/crawler/internal/config"
	"market/crawler/internal/domain"

	log "github.com/sirupsen/logrus"
)

// fetchState names the per-category strategy machine:
// tryingAPI -> (apiSucceeded | apiAbsent) -> tryingHTML -> done.
type fetchState int

const (
	stateTryingAPI fetchState = iota
	stateAPISucceeded
	stateAPIAbsent
	stateTryingHTML
	stateDone
)

// Pager walks every listing page of a category, API strategy first, HTML
// scraping when the API turns out to be absent.
type Pager struct {
	fetcher Fetcher
	parser  *htmlParser
	cfg     config.MarketConfig
}

func NewPager(fetcher Fetcher, cfg config.MarketConfig, sel config.SelectorConfig) *Pager {
	if cfg.PageSize < 1 {
		cfg.PageSize = 24
	}
	if cfg.PageQueryKey == "" {
		cfg.PageQueryKey = "page"
	}
	return &Pager{
		fetcher: fetcher,
		parser:  newHTMLParser(cfg.BaseURL, sel),
		cfg:     cfg,
	}
}

// FetchCategory returns the valid canonical records of one category.
// Failures are absorbed: the worst case is a shorter (possibly empty) result,
// never an error — a single bad category must not abort a crawl run.
func (p *Pager) FetchCategory(ctx context.Context, cat domain.Category, pageLimit int, delay time.Duration) []domain.Product {
	var products []domain.Product

	for state := stateTryingAPI; state != stateDone; {
		switch state {
		case stateTryingAPI:
			items, absent := p.pageAPI(ctx, cat, pageLimit, delay)
			if absent {
				state = stateAPIAbsent
				break
			}
			products = items
			state = stateAPISucceeded

		case stateAPIAbsent:
			log.Infof("🔄 category %s: product API absent, falling back to HTML pages", cat.ID)
			state = stateTryingHTML

		case stateAPISucceeded:
			state = stateDone

		case stateTryingHTML:
			products = p.pageHTML(ctx, cat, pageLimit, delay)
			state = stateDone
		}
	}

	kept := make([]domain.Product, 0, len(products))
	dropped := 0
	for _, record := range products {
		if record.Valid() {
			kept = append(kept, record)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		log.Warnf("category %s: dropped %d invalid records", cat.ID, dropped)
	}

	return kept
}

// pageAPI pages through the structured product endpoint. An absent response
// on page 1 abandons the whole API strategy for this category; any later
// trouble just ends pagination with what was already accumulated.
func (p *Pager) pageAPI(ctx context.Context, cat domain.Category, pageLimit int, delay time.Duration) (items []domain.Product, absent bool) {
	for page := 1; ; page++ {
		if pageLimit > 0 && page > pageLimit {
			break
		}

		params := map[string]string{
			"category": cat.ID,
			"page":     strconv.Itoa(page),
			"limit":    strconv.Itoa(p.cfg.PageSize),
			"sort":     p.cfg.Sort,
		}

		data, err := p.fetcher.GetJSON(ctx, p.cfg.ProductAPIURL, params)
		if err != nil {
			if page == 1 && errors.Is(err, client.ErrAbsent) {
				return nil, true
			}
			log.Warnf("category %s: API page %d failed, keeping %d records: %v", cat.ID, page, len(items), err)
			break
		}

		raw := asObjects(productList(data))
		if len(raw) == 0 {
			break
		}
		for _, obj := range raw {
			items = append(items, parseAPIProduct(obj, cat, p.cfg.BaseURL))
		}

		log.Debugf("category %s: API page %d -> %d items (total %d)", cat.ID, page, len(raw), len(items))

		if apiPagingDone(data, page, len(raw), p.cfg.PageSize) {
			break
		}
		if err := client.Sleep(ctx, delay); err != nil {
			break
		}
	}

	return items, false
}

// pageHTML scrapes the category URL page by page via an appended page query
// parameter. A transient failure mid-way returns the accumulation rather
// than erroring.
func (p *Pager) pageHTML(ctx context.Context, cat domain.Category, pageLimit int, delay time.Duration) []domain.Product {
	var items []domain.Product

	for page := 1; ; page++ {
		if pageLimit > 0 && page > pageLimit {
			break
		}

		html, err := p.fetcher.GetHTML(ctx, cat.URL, map[string]string{
			p.cfg.PageQueryKey: strconv.Itoa(page),
		})
		if err != nil {
			log.Warnf("category %s: HTML page %d failed, keeping %d records: %v", cat.ID, page, len(items), err)
			break
		}

		parsed, err := p.parser.ParseProductPage(html, cat)
		if err != nil {
			log.Warnf("category %s: HTML page %d unparseable: %v", cat.ID, page, err)
			break
		}

		if len(parsed.Items) == 0 {
			log.Debugf("category %s: page %d has no product cards, done", cat.ID, page)
			break
		}
		items = append(items, parsed.Items...)
		log.Debugf("category %s: HTML page %d -> %d items (total %d)", cat.ID, page, len(parsed.Items), len(items))

		if !parsed.HasNext {
			break
		}
		if err := client.Sleep(ctx, delay); err != nil {
			break
		}
	}

	return items
}

// productList accepts a bare list or the conventional wrapper keys, including
// one level of "data" envelope.
func productList(data any) []any {
	if l, ok := data.([]any); ok {
		return l
	}
	if m, ok := data.(map[string]any); ok {
		if l := pickList(m, "products", "Products", "items", "storeProductInfos"); l != nil {
			return l
		}
		if inner, ok := m["data"].(map[string]any); ok {
			return pickList(inner, "products", "Products", "items", "storeProductInfos")
		}
		return pickList(m, "data")
	}
	return nil
}

// apiPagingDone decides whether the current page was the last one: an
// explicit total-pages field, an explicit hasMore=false, or a short page.
func apiPagingDone(data any, page, got, pageSize int) bool {
	if m, ok := data.(map[string]any); ok {
		if total := pickInt(m, "totalPages", "TotalPages", "pageCount", "PageCount"); total > 0 && page >= total {
			return true
		}
		if hasMore, ok := pickBool(m, "hasMore", "has_more", "HasMore"); ok && !hasMore {
			return true
		}
		if inner, ok := m["data"].(map[string]any); ok {
			if total := pickInt(inner, "totalPages", "pageCount"); total > 0 && page >= total {
				return true
			}
		}
	}
	return got < pageSize
}
