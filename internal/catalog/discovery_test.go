package catalog

import (
	"context"
	"testing"

	"market/crawler/internal/client"
	"market/crawler/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned responses so the strategy machinery can be tested
// without network I/O.
type fakeFetcher struct {
	jsonFn func(url string, params map[string]string) (any, error)
	htmlFn func(url string, params map[string]string) (string, error)
}

func (f *fakeFetcher) GetJSON(_ context.Context, url string, params map[string]string) (any, error) {
	if f.jsonFn == nil {
		return nil, client.ErrAbsent
	}
	return f.jsonFn(url, params)
}

func (f *fakeFetcher) GetHTML(_ context.Context, url string, params map[string]string) (string, error) {
	if f.htmlFn == nil {
		return "", client.ErrAbsent
	}
	return f.htmlFn(url, params)
}

var testMarket = config.MarketConfig{
	BaseURL:         "https://shop.example",
	CategoryAPIURL:  "https://shop.example/api/categories",
	ProductAPIURL:   "https://shop.example/api/products",
	CategoryPageURL: "https://shop.example",
	PageQueryKey:    "page",
	PageSize:        2,
	Sort:            "default",
}

var testSelectors = config.SelectorConfig{
	CategoryLinks: "nav a.category",
	ProductCard:   ".productItem",
	Name:          ".productName",
	Price:         ".discountPriceSpan",
	RegularPrice:  ".regularPriceSpan",
	Link:          "a",
	Image:         "img",
	Unit:          ".quantity",
	NextPage:      "a.nextPage",
}

func TestDiscoverFromAPI(t *testing.T) {
	fetcher := &fakeFetcher{
		jsonFn: func(url string, _ map[string]string) (any, error) {
			return map[string]any{
				"categories": []any{
					map[string]any{"id": "meyve", "name": "Meyve"},
					map[string]any{"id": "icecek", "name": "İçecek"},
				},
			}, nil
		},
	}

	d := NewDiscovery(fetcher, testMarket, testSelectors)
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "meyve", got[0].ID)
	assert.Equal(t, "icecek", got[1].ID)
}

func TestDiscoverBareListResponse(t *testing.T) {
	fetcher := &fakeFetcher{
		jsonFn: func(string, map[string]string) (any, error) {
			return []any{map[string]any{"id": "temel-gida", "name": "Temel Gıda"}}, nil
		},
	}

	d := NewDiscovery(fetcher, testMarket, testSelectors)
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "temel-gida", got[0].ID)
}

func TestDiscoverDeduplicatesByID(t *testing.T) {
	// Both the nested tree and a sibling list carry the same identifier:
	// only the first occurrence survives, order preserved.
	fetcher := &fakeFetcher{
		jsonFn: func(string, map[string]string) (any, error) {
			return []any{
				map[string]any{"id": "meyve", "name": "Meyve"},
				map[string]any{
					"id": "kampanya",
					"children": []any{
						map[string]any{"id": "meyve", "name": "Meyve (Kampanya)"},
					},
				},
			}, nil
		},
	}

	d := NewDiscovery(fetcher, testMarket, testSelectors)
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "meyve", got[0].ID)
	assert.Equal(t, "Meyve", got[0].Name)
	assert.Equal(t, "kampanya", got[1].ID)
}

func TestDiscoverFallsBackToHTMLSelectors(t *testing.T) {
	fetcher := &fakeFetcher{
		// API absent: the default jsonFn returns ErrAbsent.
		htmlFn: func(string, map[string]string) (string, error) {
			return `<html><body><nav>
				<a class="category" href="/meyve-sebze">Meyve, Sebze</a>
				<a class="category" href="/icecek">İçecek</a>
			</nav></body></html>`, nil
		},
	}

	d := NewDiscovery(fetcher, testMarket, testSelectors)
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "meyve-sebze", got[0].ID)
	assert.Equal(t, "https://shop.example/meyve-sebze", got[0].URL)
}

func TestDiscoverGenericAnchorScan(t *testing.T) {
	// No element matches the configured selector, so the heuristic scan
	// applies: same host, no auth/cart/search paths, non-empty text,
	// deduplicated by resolved URL.
	fetcher := &fakeFetcher{
		htmlFn: func(string, map[string]string) (string, error) {
			return `<html><body>
				<a href="/meyve-sebze">Meyve, Sebze</a>
				<a href="/meyve-sebze">Meyve, Sebze</a>
				<a href="https://elsewhere.example/icecek">İçecek</a>
				<a href="/login">Giriş</a>
				<a href="/cart">Sepet</a>
				<a href="/search?q=elma">Ara</a>
				<a href="/temel-gida"></a>
				<a href="/icecek">İçecek</a>
			</body></html>`, nil
		},
	}

	d := NewDiscovery(fetcher, testMarket, testSelectors)
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "meyve-sebze", got[0].ID)
	assert.Equal(t, "icecek", got[1].ID)
}

func TestDiscoverNoCategoriesAnywhere(t *testing.T) {
	fetcher := &fakeFetcher{
		htmlFn: func(string, map[string]string) (string, error) {
			return "<html><body><p>bakım çalışması</p></body></html>", nil
		},
	}

	d := NewDiscovery(fetcher, testMarket, testSelectors)
	_, err := d.Discover(context.Background())
	assert.ErrorIs(t, err, ErrNoCategories)
}
