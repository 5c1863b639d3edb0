package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Sources disagree on field names, so each canonical field is read through an
// ordered list of candidate keys; the first present, non-null, non-empty value
// wins. Kept as explicit priority lists rather than nested conditionals so
// the per-field candidates stay auditable.

func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func pickString(m map[string]any, keys ...string) string {
	switch v := pick(m, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func pickInt(m map[string]any, keys ...string) int {
	switch v := pick(m, keys...).(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// pickBool reports the value and whether any candidate key was present.
func pickBool(m map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case bool:
				return t, true
			case string:
				if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
					return b, true
				}
			}
		}
	}
	return false, false
}

// pickList returns v itself when it already is a list, or the first list
// found under the candidate keys when v is an object.
func pickList(v any, keys ...string) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range keys {
			if l, ok := t[k].([]any); ok {
				return l
			}
		}
	}
	return nil
}

func asObjects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
