package classifier

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when a model response contains no JSON object.
var ErrNoJSON = errors.New("no JSON object found in model response")

// extractJSON locates the JSON object inside a raw model response.
// Models frequently wrap JSON in markdown code fences or prepend prose
// despite being told not to. The recovery order is: strip a ```json fence
// if present, otherwise slice from the first '{' to the last '}'.
func extractJSON(raw string) (string, error) {
	const fence = "```json"

	if idx := strings.Index(raw, fence); idx >= 0 {
		rest := raw[idx+len(fence):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest), nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}
	return raw[start : end+1], nil
}

// truncate caps s at limit bytes. Model context windows are finite and page
// HTML is not.
func truncate(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
