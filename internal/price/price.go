package price

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// minorUnitThreshold is the value above which a whole-number numeric price is
// assumed to be expressed in minor currency units (kuruş-style) and divided
// by 100. Some API responses mix major- and minor-unit pricing with no
// explicit unit flag; this cutoff is a pragmatic guess and can misclassify
// genuinely expensive whole-number-priced items, so callers flag records
// where it fires.
const minorUnitThreshold = 200

var nonPriceChars = regexp.MustCompile(`[^0-9.,]`)

// FromString converts a localized price string into a canonical decimal,
// rounded to 2 digits. Both comma-decimal/dot-thousands and
// dot-decimal/comma-thousands conventions are accepted: when both separators
// are present, the later one is the decimal separator. Unparseable input
// yields 0.0 — a missing price is a common, valid case, not an error.
func FromString(raw string) float64 {
	s := nonPriceChars.ReplaceAllString(raw, "")
	if s == "" {
		return 0
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		// A lone comma is a decimal separator; any earlier ones are
		// thousands groups.
		if n := strings.Count(s, ","); n > 1 {
			s = strings.Replace(s, ",", "", n-1)
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return Round2(v)
}

// FromNumber converts a numeric price of unknown unit into a canonical
// decimal. The second return value reports whether the minor-unit heuristic
// fired.
func FromNumber(v float64) (float64, bool) {
	if v <= 0 {
		return 0, false
	}
	if v > minorUnitThreshold && v == math.Trunc(v) {
		return Round2(v / 100), true
	}
	return Round2(v), false
}

// FromValue normalizes a raw price value of unknown JSON type: localized
// strings, plain numbers, or nested price objects.
func FromValue(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		return FromString(t), false
	case float64:
		return FromNumber(t)
	case int:
		return FromNumber(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return FromNumber(f)
	case map[string]any:
		for _, k := range []string{"formatted", "display", "text", "value", "amount", "price", "current"} {
			if inner, ok := t[k]; ok && inner != nil {
				return FromValue(inner)
			}
		}
	}
	return 0, false
}

// Discount computes the discount percentage. An explicit non-zero
// source-provided rate is trusted; otherwise the rate is derived from the two
// prices when a discount is actually active.
func Discount(regular, shown float64, provided int) int {
	if provided > 0 {
		return provided
	}
	if regular > 0 && shown > 0 && regular > shown {
		return int(math.Round((regular - shown) / regular * 100))
	}
	return 0
}

// Round2 rounds to 2 fractional digits.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
