package search

import (
	"regexp"
	"strconv"
	"strings"
)

var digitsRe = regexp.MustCompile(`[\d,]+`)

// parseNumeric extracts an integer from values like 1010, 1010.0, "1,010
// sqft", or "1 day". Returns nil when no number is present.
func parseNumeric(v any) *int {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case string:
		match := digitsRe.FindString(n)
		if match == "" {
			return nil
		}
		i, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
		if err != nil {
			return nil
		}
		return &i
	}
	return nil
}

func rawString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func rawFloat(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return &n
		case int:
			f := float64(n)
			return &f
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func rawInt(m map[string]any, keys ...string) *int {
	for _, k := range keys {
		if p := parseNumeric(m[k]); p != nil {
			return p
		}
	}
	return nil
}

func rawMap(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}
