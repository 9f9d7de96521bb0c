package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrency renders a dollar amount with thousands separators,
// e.g. 42500 -> "$42,500". Nil renders as an empty string.
func FormatCurrency(value *float64) string {
	if value == nil {
		return ""
	}
	rounded := int64(math.Round(*value))

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	digits := fmt.Sprintf("%d", rounded)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	if negative {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// ExtractJSONObject pulls the first {...} span out of free-form model
// output. Models wrap JSON in prose or code fences often enough that the
// strict parse alone is not reliable.
func ExtractJSONObject(text string) string {
	return extractSpan(text, '{', '}')
}

// ExtractJSONArray pulls the first [...] span out of free-form model output.
func ExtractJSONArray(text string) string {
	return extractSpan(text, '[', ']')
}

func extractSpan(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return ""
}
