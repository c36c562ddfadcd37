// Package sanitize holds the text and number cleanup used by every import stage.
package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Zs}\x{FEFF}]+`)
	nonNumeric    = regexp.MustCompile(`[^0-9.]`)
	floatPrefix   = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)
	magnitude     = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
)

// Text coerces a cell value to a string, collapses whitespace runs to a single
// space and trims both ends. nil yields "".
func Text(v any) string {
	s := stringify(v)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NumericField strips every character that is not a digit or '.', then parses
// the longest leading float. Empty or unparsable input yields 0.
//
// Separators are not interpreted: "1,234.56" becomes 1234.56 while the
// comma-decimal "1.234,56" becomes 1.23456. Numeric cells go through the
// same path, so a sign is dropped and NaN yields 0.
func NumericField(v any) float64 {
	cleaned := nonNumeric.ReplaceAllString(stringify(v), "")
	prefix := floatPrefix.FindString(cleaned)
	if prefix == "" {
		return 0
	}

	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return f
}

// NormalizeUnit returns the first numeric run in v ("350mm" -> "350"),
// unparsed, or "" if there is none.
func NormalizeUnit(v any) string {
	return magnitude.FindString(stringify(v))
}

// RequiredField reports whether v still has content after Text.
func RequiredField(v any) bool {
	return Text(v) != ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
