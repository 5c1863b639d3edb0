package catalog

import (
	"strings"

	"market/crawler/internal/domain"
	"market/crawler/internal/price"
)

// parseAPIProduct normalizes one raw API item of unknown shape into the
// canonical record, tagged with the category it was listed under.
func parseAPIProduct(raw map[string]any, cat domain.Category, baseURL string) domain.Product {
	regular, regularGuess := price.FromValue(pick(raw, "regularPrice", "RegularPrice", "OldPrice", "oldPrice", "listPrice"))
	shown, shownGuess := price.FromValue(pick(raw, "shownPrice", "ShownPrice", "Price", "price", "salePrice", "currentPrice"))
	if regular == 0 {
		regular = shown
	}
	if shown == 0 {
		shown = regular
	}

	id := pickString(raw, "Id", "id", "productId", "ProductId", "sku", "Sku")
	sku := pickString(raw, "Sku", "sku")
	if sku == "" {
		sku = id
	}

	status := pickString(raw, "status", "Status", "saleStatus")
	if status == "" {
		if inStock, ok := pickBool(raw, "InStock", "inStock", "available"); ok {
			if inStock {
				status = domain.StatusInStock
			} else {
				status = domain.StatusOutOfStock
			}
		} else {
			status = domain.StatusUnknown
		}
	}

	return domain.Product{
		ID:                 id,
		SKU:                sku,
		Name:               pickString(raw, "Name", "name", "productName", "title"),
		Brand:              brandOf(raw),
		Category:           cat.Name,
		CategoryID:         cat.ID,
		RegularPrice:       regular,
		ShownPrice:         shown,
		DiscountRate:       price.Discount(regular, shown, pickInt(raw, "discountRate", "DiscountRate", "discount")),
		Unit:               pickString(raw, "QuantityUnitName", "unit", "unitName"),
		Status:             status,
		ImageURL:           imageOf(raw, baseURL),
		ProductURL:         productURLOf(raw, baseURL),
		PriceFromMinorUnit: regularGuess || shownGuess,
	}
}

// brandOf handles both plain-string and nested-object brand fields.
func brandOf(raw map[string]any) string {
	v := pick(raw, "BrandName", "brandName", "brand", "Brand", "manufacturer")
	if nested, ok := v.(map[string]any); ok {
		return pickString(nested, "name", "Name", "title")
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// imageOf prefers an explicit image URL field, then falls back to the first
// entry of an images list.
func imageOf(raw map[string]any, baseURL string) string {
	img := pickString(raw, "PictureThumbnailUrl", "PictureUrl", "imageUrl", "image", "thumbnail")
	if img == "" {
		for _, entry := range asObjects(pickList(pick(raw, "images", "Images"))) {
			if u := pickString(entry, "url", "Url", "src"); u != "" {
				img = u
				break
			}
		}
	}
	return resolveURL(img, baseURL)
}

func productURLOf(raw map[string]any, baseURL string) string {
	slug := pickString(raw, "SeName", "seName", "prettyName", "productUrl", "url", "link")
	return resolveURL(slug, baseURL)
}

func resolveURL(ref, baseURL string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}
