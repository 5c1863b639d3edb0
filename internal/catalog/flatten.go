package catalog

import (
	"strings"

	"market/crawler/internal/domain"
)

var (
	childKeys = []string{"SubCategories", "subCategories", "children", "Children", "subcategories"}
	idKeys    = []string{"Id", "id", "categoryId", "CategoryId", "slug"}
	nameKeys  = []string{"Name", "name", "title", "label"}
	countKeys = []string{"ProductCount", "productCount", "count"}
	urlKeys   = []string{"Url", "url", "SeName", "seName", "slug", "link"}
)

// Flattener turns a possibly nested category structure into a flat ordered
// list with explicit parent linkage.
type Flattener struct {
	baseURL string
}

func NewFlattener(baseURL string) *Flattener {
	return &Flattener{baseURL: strings.TrimRight(baseURL, "/")}
}

// Flatten walks the tree depth-first. A node without a resolvable identifier
// is not emitted, but its children are still processed: a container node with
// no id may still carry valid leaf categories.
func (f *Flattener) Flatten(nodes []any, parentID, parentName string) []domain.Category {
	var out []domain.Category

	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}

		id := pickString(node, idKeys...)
		name := pickString(node, nameKeys...)
		if name == "" {
			name = id
		}

		childParentID, childParentName := parentID, parentName
		if id != "" {
			out = append(out, domain.Category{
				ID:           id,
				Name:         name,
				URL:          f.categoryURL(node, id),
				ParentID:     parentID,
				ParentName:   parentName,
				ProductCount: pickInt(node, countKeys...),
			})
			childParentID, childParentName = id, name
		}

		if children := pickList(node, childKeys...); len(children) > 0 {
			out = append(out, f.Flatten(children, childParentID, childParentName)...)
		}
	}

	return out
}

// categoryURL uses the node's slug verbatim when it is already absolute,
// otherwise joins it with the site base URL.
func (f *Flattener) categoryURL(node map[string]any, id string) string {
	slug := pickString(node, urlKeys...)
	if slug == "" {
		slug = id
	}
	if strings.Contains(slug, "://") {
		return slug
	}
	return f.baseURL + "/" + strings.TrimLeft(slug, "/")
}
