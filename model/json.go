package model

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Wire shapes for content blocks, following the Anthropic Messages API.

type textBlockJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageSourceJSON struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

type imageBlockJSON struct {
	Type   string          `json:"type"`
	Source imageSourceJSON `json:"source"`
}

type toolUseBlockJSON struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type toolResultBlockJSON struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   []any  `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// blockJSON is the union of all block fields, used for decoding.
type blockJSON struct {
	Type      string           `json:"type"`
	Text      string           `json:"text"`
	Source    *imageSourceJSON `json:"source"`
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Input     map[string]any   `json:"input"`
	ToolUseID string           `json:"tool_use_id"`
	Content   json.RawMessage  `json:"content"`
	IsError   bool             `json:"is_error"`
}

// MarshalJSON encodes text content as a JSON string and part lists as an
// array of typed blocks.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsText() {
		return json.Marshal(c.text)
	}
	return json.Marshal(encodeParts(c.parts))
}

// UnmarshalJSON accepts a JSON string or an array of typed blocks.
// null decodes to empty text.
func (c *Content) UnmarshalJSON(data []byte) error {
	result := gjson.ParseBytes(data)
	switch {
	case result.Type == gjson.Null:
		*c = TextContent("")
		return nil
	case result.Type == gjson.String:
		*c = TextContent(result.Str)
		return nil
	case result.IsArray():
		parts, err := decodeParts(data)
		if err != nil {
			return err
		}
		*c = PartsContent(parts...)
		return nil
	default:
		return fmt.Errorf("content must be a string or an array of blocks, got %s", result.Type)
	}
}

func encodeParts(parts []Part) []any {
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		out = append(out, encodePart(p))
	}
	return out
}

func encodePart(p Part) any {
	switch v := p.(type) {
	case TextPart:
		return textBlockJSON{Type: string(PartText), Text: v.Text}
	case ImagePart:
		return imageBlockJSON{
			Type:   string(PartImage),
			Source: imageSourceJSON{Type: "base64", MediaType: v.MediaType, Data: v.Data},
		}
	case ToolUsePart:
		input := v.Input
		if input == nil {
			input = map[string]any{}
		}
		return toolUseBlockJSON{Type: string(PartToolUse), ID: v.ID, Name: v.Name, Input: input}
	case ToolResultPart:
		return toolResultBlockJSON{
			Type:      string(PartToolResult),
			ToolUseID: v.ToolUseID,
			Content:   encodeParts(v.Content),
			IsError:   v.IsError,
		}
	default:
		return map[string]string{"type": string(p.Type())}
	}
}

func decodeParts(data []byte) ([]Part, error) {
	var blocks []blockJSON
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode content blocks: %w", err)
	}
	parts := make([]Part, 0, len(blocks))
	for _, b := range blocks {
		p, err := decodePart(b)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func decodePart(b blockJSON) (Part, error) {
	switch PartType(b.Type) {
	case PartText:
		return TextPart{Text: b.Text}, nil
	case PartImage:
		img := ImagePart{}
		if b.Source != nil {
			img.MediaType = b.Source.MediaType
			img.Data = b.Source.Data
		}
		return img, nil
	case PartToolUse:
		return ToolUsePart{ID: b.ID, Name: b.Name, Input: b.Input}, nil
	case PartToolResult:
		var content Content
		if len(b.Content) > 0 {
			if err := content.UnmarshalJSON(b.Content); err != nil {
				return nil, fmt.Errorf("tool_result %s: %w", b.ToolUseID, err)
			}
		}
		return ToolResultPart{
			ToolUseID: b.ToolUseID,
			Content:   content.AsParts(),
			IsError:   b.IsError,
		}, nil
	default:
		return UnknownPart{Kind: b.Type}, nil
	}
}

// AsParts returns the content as a part list. Text content becomes a single
// TextPart, or no parts when the text is empty.
func (c Content) AsParts() []Part {
	if !c.IsText() {
		return c.parts
	}
	if c.text == "" {
		return nil
	}
	return []Part{TextPart{Text: c.text}}
}
