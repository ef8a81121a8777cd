package llm

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Parsed is the tagged result of decoding a completion into a typed value.
// Exactly one of Value/Malformed is meaningful: when Malformed is true the
// caller must run its documented deterministic fallback instead of guessing.
type Parsed[T any] struct {
	Value     T
	Malformed bool
	// Raw is the original completion text, kept for logging when malformed.
	Raw string
}

// Ok wraps a successfully decoded value.
func Ok[T any](value T) Parsed[T] {
	return Parsed[T]{Value: value}
}

// Malformed marks a completion that could not be decoded.
func Malformed[T any](raw string) Parsed[T] {
	return Parsed[T]{Malformed: true, Raw: raw}
}

// Decode extracts the first JSON value from a completion and decodes it
// into T. Completions routinely wrap JSON in markdown fences or prose;
// both are tolerated. Field types are coerced weakly so that numbers
// returned as strings still decode.
func Decode[T any](text string) Parsed[T] {
	fragment := extractJSON(text)
	if fragment == "" {
		return Malformed[T](text)
	}

	var intermediate any
	if err := json.Unmarshal([]byte(fragment), &intermediate); err != nil {
		return Malformed[T](text)
	}

	var value T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &value,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return Malformed[T](text)
	}
	if err := decoder.Decode(intermediate); err != nil {
		return Malformed[T](text)
	}

	return Ok(value)
}

// extractJSON returns the first complete JSON array or object embedded in
// the text, or "" if none is found.
func extractJSON(text string) string {
	cleaned := stripFences(text)

	start := strings.IndexAny(cleaned, "[{")
	if start < 0 {
		return ""
	}

	open := cleaned[start]
	closing := byte(']')
	if open == '{' {
		closing = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		ch := cleaned[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return cleaned[start : i+1]
			}
		}
	}

	return ""
}

// stripFences removes markdown code fences around the payload, if present.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "```") {
		return trimmed
	}

	first := strings.Index(trimmed, "```")
	rest := trimmed[first+3:]
	// Drop an optional language tag such as "json".
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		firstLine := strings.TrimSpace(rest[:newline])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "[{") {
			rest = rest[newline+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}

	return strings.TrimSpace(rest)
}
