package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"market/crawler/internal/config"
	"market/crawler/internal/domain"
	"market/crawler/internal/price"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Paths a generic category scan must never mistake for catalog categories.
var skipPathPattern = regexp.MustCompile(`(?i)/(login|logout|register|signin|signup|auth|account|profile|password|cart|basket|checkout|order|search|favor|wishlist|contact|about)`)

// htmlParser extracts categories and product cards from server-rendered
// markup using the configured site selectors.
type htmlParser struct {
	baseURL string
	sel     config.SelectorConfig
}

func newHTMLParser(baseURL string, sel config.SelectorConfig) *htmlParser {
	return &htmlParser{
		baseURL: strings.TrimRight(baseURL, "/"),
		sel:     sel,
	}
}

// productPage is the result of parsing one HTML listing page.
type productPage struct {
	Items   []domain.Product
	HasNext bool
}

// ParseCategoryLinks extracts category entries from a listing document, first
// via the configured selector, then — if that matches nothing — via a generic
// scan of all same-host hyperlinks.
func (p *htmlParser) ParseCategoryLinks(html string) ([]domain.Category, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var categories []domain.Category
	if p.sel.CategoryLinks != "" {
		doc.Find(p.sel.CategoryLinks).Each(func(_ int, link *goquery.Selection) {
			if cat, ok := p.categoryFromAnchor(link); ok {
				categories = append(categories, cat)
			}
		})
	}

	if len(categories) == 0 {
		log.Debug("configured category selector matched nothing, scanning all anchors")
		categories = p.scanAnchors(doc)
	}

	return categories, nil
}

// scanAnchors is the heuristic fallback: keep hyperlinks that stay on the
// site, do not point at auth/cart/search style pages, and have link text.
// Deduplicated by resolved absolute URL.
func (p *htmlParser) scanAnchors(doc *goquery.Document) []domain.Category {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var categories []domain.Category

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		cat, ok := p.categoryFromAnchor(link)
		if !ok {
			return
		}
		u, err := url.Parse(cat.URL)
		if err != nil || u.Host != base.Host {
			return
		}
		if u.Path == "" || u.Path == "/" || skipPathPattern.MatchString(u.Path) {
			return
		}
		if seen[cat.URL] {
			return
		}
		seen[cat.URL] = true
		categories = append(categories, cat)
	})

	return categories
}

func (p *htmlParser) categoryFromAnchor(link *goquery.Selection) (domain.Category, bool) {
	href, exists := link.Attr("href")
	text := strings.TrimSpace(link.Text())
	if !exists || href == "" || text == "" ||
		strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return domain.Category{}, false
	}

	abs := p.absURL(href)
	u, err := url.Parse(abs)
	if err != nil {
		return domain.Category{}, false
	}

	id := strings.Trim(u.Path, "/")
	if id == "" {
		return domain.Category{}, false
	}

	return domain.Category{
		ID:   id,
		Name: text,
		URL:  abs,
	}, true
}

// ParseProductPage extracts product cards from one listing page and reports
// whether a "next page" control is present. Without a configured next-page
// selector the caller falls back to empty-page detection, so HasNext mirrors
// "this page had cards".
func (p *htmlParser) ParseProductPage(html string, cat domain.Category) (*productPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &productPage{}
	doc.Find(p.sel.ProductCard).Each(func(_ int, card *goquery.Selection) {
		page.Items = append(page.Items, p.parseCard(card, cat))
	})

	if p.sel.NextPage != "" {
		page.HasNext = doc.Find(p.sel.NextPage).Length() > 0
	} else {
		page.HasNext = len(page.Items) > 0
	}

	return page, nil
}

// parseCard turns one product card element into a canonical record.
func (p *htmlParser) parseCard(card *goquery.Selection, cat domain.Category) domain.Product {
	name := strings.TrimSpace(card.Find(p.sel.Name).First().Text())

	shown := price.FromString(card.Find(p.sel.Price).First().Text())
	regular := shown
	if p.sel.RegularPrice != "" {
		if r := price.FromString(card.Find(p.sel.RegularPrice).First().Text()); r > 0 {
			regular = r
		}
	}

	link := card.Find(p.sel.Link).First()
	href := link.AttrOr("href", "")
	productURL := ""
	if href != "" {
		productURL = p.absURL(href)
	}

	id := link.AttrOr("data-id", "")
	if id == "" {
		id = card.AttrOr("data-id", "")
	}
	if id == "" && href != "" {
		if u, err := url.Parse(productURL); err == nil {
			id = strings.Trim(u.Path, "/")
		}
	}
	if id == "" {
		id = name
	}

	imageURL := ""
	if p.sel.Image != "" {
		img := card.Find(p.sel.Image).First()
		// Lazy-loaded images keep the real source in data-original/data-src.
		imageURL = img.AttrOr("data-original", img.AttrOr("data-src", img.AttrOr("src", "")))
		if imageURL != "" {
			imageURL = p.absURL(imageURL)
		}
	}

	unit := ""
	if p.sel.Unit != "" {
		unit = strings.TrimSpace(card.Find(p.sel.Unit).First().Text())
	}

	status := domain.StatusUnknown
	if p.sel.OutOfStock != "" {
		if card.Find(p.sel.OutOfStock).Length() > 0 {
			status = domain.StatusOutOfStock
		} else {
			status = domain.StatusInStock
		}
	}

	return domain.Product{
		ID:           id,
		SKU:          id,
		Name:         name,
		Category:     cat.Name,
		CategoryID:   cat.ID,
		RegularPrice: regular,
		ShownPrice:   shown,
		DiscountRate: price.Discount(regular, shown, 0),
		Unit:         unit,
		Status:       status,
		ImageURL:     imageURL,
		ProductURL:   productURL,
	}
}

func (p *htmlParser) absURL(href string) string {
	if strings.Contains(href, "://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return p.baseURL + "/" + strings.TrimLeft(href, "/")
}
