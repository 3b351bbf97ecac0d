package llm

import (
	"encoding/json"
	"fmt"
)

// FirstJSONObject returns the first balanced {...} span in text that is valid
// JSON. Braces inside string literals are ignored. It fails with
// ErrNoJSONFound when text holds no balanced span at all, and with
// ErrMalformedModelResponse when spans exist but none is valid JSON.
func FirstJSONObject(text string) (string, error) {
	sawSpan := false
	for from := 0; from < len(text); {
		start, end, ok := balancedSpan(text, from)
		if start < 0 {
			break
		}
		if !ok {
			// unclosed brace; a later one may still open a complete object
			from = start + 1
			continue
		}
		sawSpan = true
		span := text[start : end+1]
		if json.Valid([]byte(span)) {
			return span, nil
		}
		from = start + 1
	}
	if sawSpan {
		return "", fmt.Errorf("%w: no balanced span is valid JSON", ErrMalformedModelResponse)
	}
	return "", ErrNoJSONFound
}

// balancedSpan finds the first '{' at or after from and its matching '}'.
// start is -1 when there is no '{' left.
func balancedSpan(text string, from int) (start, end int, ok bool) {
	start = -1
	depth := 0
	inStr, esc := false, false
	for i := from; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start, depth = i, 1
			}
			continue
		}
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start, i, true
			}
		}
	}
	return start, 0, false
}
