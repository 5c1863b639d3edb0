package domain

// Availability vocabulary differs between sources, so Status stays an open
// string field. These are the values this crawler emits itself; API-provided
// statuses are passed through as-is.
const (
	StatusInStock    = "IN_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
	StatusUnknown    = "UNKNOWN"
)

// Product is the canonical record produced regardless of which source
// strategy (API or HTML) a category was fetched with.
type Product struct {
	ID           string  `json:"id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	CategoryID   string  `json:"category_id"`
	RegularPrice float64 `json:"regular_price"`
	ShownPrice   float64 `json:"shown_price"`
	DiscountRate int     `json:"discount_rate"`
	Unit         string  `json:"unit"`
	Status       string  `json:"status"`
	ImageURL     string  `json:"image_url"`
	ProductURL   string  `json:"product_url"`

	// PriceFromMinorUnit marks records where the minor-unit price heuristic
	// fired (whole number above the threshold divided by 100). The heuristic
	// can misclassify genuinely expensive items, so flagged records are
	// candidates for manual review.
	PriceFromMinorUnit bool `json:"price_from_minor_unit,omitempty"`
}

// Valid reports whether the record satisfies the canonical invariant: a
// non-empty name and at least one strictly positive price.
func (p Product) Valid() bool {
	return p.Name != "" && (p.ShownPrice > 0 || p.RegularPrice > 0)
}
