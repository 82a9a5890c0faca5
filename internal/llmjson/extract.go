// Package llmjson extracts JSON payloads from untrusted model output.
//
// Model responses are free text that may wrap a JSON object or array in
// prose, markdown fences, or nothing at all. Extraction locates the first
// balanced span and decodes it; callers absorb a failure into a degraded
// sentinel value instead of propagating it.
package llmjson

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no balanced JSON span is found in the text.
var ErrNoJSON = errors.New("no JSON payload found in model output")

// Object decodes the first balanced {...} span in text into v.
func Object(text string, v any) error {
	return extractSpan(text, '{', '}', v)
}

// Array decodes the first balanced [...] span in text into v.
func Array(text string, v any) error {
	return extractSpan(text, '[', ']', v)
}

func extractSpan(text string, opener, closer byte, v any) error {
	start := strings.IndexByte(text, opener)
	if start < 0 {
		return ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return json.Unmarshal([]byte(text[start:i+1]), v)
			}
		}
	}
	return ErrNoJSON
}
