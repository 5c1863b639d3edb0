package domain

// Category is one entry of the flattened category tree. ParentID is empty for
// top-level categories. ProductCount is zero when the source does not report
// it; categories discovered from HTML never carry a count.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ParentID     string `json:"parent_id,omitempty"`
	ParentName   string `json:"parent_name,omitempty"`
	ProductCount int    `json:"product_count,omitempty"`
}
