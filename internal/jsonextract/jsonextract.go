// Package jsonextract recovers a JSON object embedded in free-form text.
//
// LLM responses frequently wrap the requested JSON in prose or markdown
// fences. This package is the single place that digs the object out, so
// every AI-facing component parses responses the same way.
package jsonextract

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no parseable JSON object is found in the text.
var ErrNoJSON = errors.New("no JSON object found in text")

// Object unmarshals the first JSON object found in text into v.
// It tries, in order: the whole text, the outermost {...} span, and each
// balanced {...} candidate from the first opening brace.
func Object(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoJSON
	}

	// Strip markdown code fences if present.
	text = stripFences(text)

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ErrNoJSON
	}

	// Widest span first: first '{' to last '}'.
	if end := strings.LastIndexByte(text, '}'); end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), v); err == nil {
			return nil
		}
	}

	// Fall back to the first balanced object. Brace counting ignores braces
	// inside strings, which is close enough for LLM output.
	if candidate, ok := balancedObject(text[start:]); ok {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}

	return ErrNoJSON
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func balancedObject(text string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[:i+1], true
			}
		}
	}
	return "", false
}
