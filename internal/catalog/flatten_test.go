package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenTwoLevelTree(t *testing.T) {
	f := NewFlattener("https://shop.example")

	nodes := []any{
		map[string]any{
			"id": "a",
			"children": []any{
				map[string]any{"id": "a1"},
			},
		},
	}

	got := f.Flatten(nodes, "", "")
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ID)
	assert.Empty(t, got[0].ParentID)
	assert.Equal(t, "a1", got[1].ID)
	assert.Equal(t, "a", got[1].ParentID)
}

func TestFlattenParentContext(t *testing.T) {
	f := NewFlattener("https://shop.example")

	nodes := []any{
		map[string]any{
			"Id":   "2",
			"Name": "Meyve, Sebze",
			"SubCategories": []any{
				map[string]any{"Id": "101", "Name": "Meyve", "ProductCount": float64(50)},
			},
		},
	}

	got := f.Flatten(nodes, "", "")
	require.Len(t, got, 2)

	assert.Equal(t, "Meyve, Sebze", got[1].ParentName)
	assert.Equal(t, "2", got[1].ParentID)
	assert.Equal(t, 50, got[1].ProductCount)
}

func TestFlattenSkipsNodeWithoutIDButKeepsChildren(t *testing.T) {
	f := NewFlattener("https://shop.example")

	nodes := []any{
		map[string]any{
			// container node with no resolvable identifier
			"Name": "Promosyonlar",
			"children": []any{
				map[string]any{"id": "firsatlar", "name": "Fırsatlar"},
			},
		},
	}

	got := f.Flatten(nodes, "", "")
	require.Len(t, got, 1)
	assert.Equal(t, "firsatlar", got[0].ID)
	// The id-less container contributes no parent reference.
	assert.Empty(t, got[0].ParentID)
}

func TestFlattenURLConstruction(t *testing.T) {
	f := NewFlattener("https://shop.example/")

	nodes := []any{
		map[string]any{"id": "x", "url": "https://cdn.example/x"},
		map[string]any{"id": "y", "url": "/meyve-sebze"},
		map[string]any{"id": "z"},
	}

	got := f.Flatten(nodes, "", "")
	require.Len(t, got, 3)
	assert.Equal(t, "https://cdn.example/x", got[0].URL)
	assert.Equal(t, "https://shop.example/meyve-sebze", got[1].URL)
	assert.Equal(t, "https://shop.example/z", got[2].URL)
}

func TestFlattenNameFallsBackToID(t *testing.T) {
	f := NewFlattener("https://shop.example")

	got := f.Flatten([]any{map[string]any{"id": "icecek"}}, "", "")
	require.Len(t, got, 1)
	assert.Equal(t, "icecek", got[0].Name)
}
