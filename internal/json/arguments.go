// Package json provides decoding utilities for tool-call arguments.
//
// Local runtimes disagree on how tool-call arguments are encoded: Ollama's
// native API sends a JSON object, OpenAI-compatible servers send a JSON string
// holding the encoded object, and some models emit neither.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ArgumentsKind tags the wire shape of a tool-call arguments value.
type ArgumentsKind int

const (
	// ArgumentsAbsent is a missing or empty value.
	ArgumentsAbsent ArgumentsKind = iota
	// ArgumentsObject is a JSON object.
	ArgumentsObject
	// ArgumentsString is a JSON string expected to hold an encoded object.
	ArgumentsString
	// ArgumentsOther is null, an array, a number or a boolean.
	ArgumentsOther
)

// String returns the name of the kind.
func (k ArgumentsKind) String() string {
	switch k {
	case ArgumentsAbsent:
		return "absent"
	case ArgumentsObject:
		return "object"
	case ArgumentsString:
		return "string"
	default:
		return "other"
	}
}

// ClassifyArguments reports the wire shape of raw.
func ClassifyArguments(raw []byte) ArgumentsKind {
	if len(raw) == 0 {
		return ArgumentsAbsent
	}
	result := gjson.ParseBytes(raw)
	switch {
	case result.Type == gjson.String:
		return ArgumentsString
	case result.IsObject():
		return ArgumentsObject
	default:
		return ArgumentsOther
	}
}

// DecodeArguments turns raw tool-call arguments into an object.
//
//   - object: decoded as is
//   - string: its text is parsed as JSON and must be an object
//   - anything else: an empty object
//
// The returned map is never nil. A non-nil error means the value was a string
// that did not hold a JSON object; the map is empty in that case.
func DecodeArguments(raw []byte) (map[string]any, error) {
	switch ClassifyArguments(raw) {
	case ArgumentsObject:
		return decodeObject(raw)
	case ArgumentsString:
		text := gjson.ParseBytes(raw).Str
		if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
			return map[string]any{}, fmt.Errorf("arguments string is not a JSON object: %q", preview(text))
		}
		return decodeObject([]byte(text))
	default:
		return map[string]any{}, nil
	}
}

func decodeObject(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}
	return out, nil
}

// preview shortens s for error messages.
func preview(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
