// Package adapter translates between the local runtime's chat format and the
// message shape of the Anthropic Messages API.
//
// The adapter is stateless apart from what it captures at construction (the
// model selection and the tool catalog), so one instance can serve concurrent
// requests.
package adapter

import (
	"encoding/json"
	"fmt"
)

// Stop reasons reported on a ResponseMessage.
const (
	StopReasonEndTurn = "end_turn"
	StopReasonToolUse = "tool_use"
)

// ResponseMessage is the assistant message handed back to the caller,
// shaped like an Anthropic Messages API response.
type ResponseMessage struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Usage holds the token counters reported by the runtime.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ContentBlock is one block of a ResponseMessage: *TextBlock or *ToolUseBlock.
type ContentBlock interface {
	BlockType() string
}

// TextBlock carries the assistant's text. It may be empty.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolUseBlock is one tool invocation requested by the model.
type ToolUseBlock struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// NewTextBlock creates a text block.
func NewTextBlock(text string) *TextBlock {
	return &TextBlock{Type: "text", Text: text}
}

// NewToolUseBlock creates a tool-use block. A nil input becomes an empty object.
func NewToolUseBlock(id, name string, input map[string]any) *ToolUseBlock {
	if input == nil {
		input = map[string]any{}
	}
	return &ToolUseBlock{Type: "tool_use", ID: id, Name: name, Input: input}
}

func (*TextBlock) BlockType() string    { return "text" }
func (*ToolUseBlock) BlockType() string { return "tool_use" }

// Text returns the text of the leading text block.
func (m ResponseMessage) Text() string {
	if len(m.Content) == 0 {
		return ""
	}
	if tb, ok := m.Content[0].(*TextBlock); ok {
		return tb.Text
	}
	return ""
}

// ToolUses returns the tool-use blocks in order.
func (m ResponseMessage) ToolUses() []*ToolUseBlock {
	var out []*ToolUseBlock
	for _, b := range m.Content {
		if tu, ok := b.(*ToolUseBlock); ok {
			out = append(out, tu)
		}
	}
	return out
}

// UnmarshalJSON decodes the content array into concrete block types.
func (m *ResponseMessage) UnmarshalJSON(data []byte) error {
	type alias ResponseMessage
	var raw struct {
		alias
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ResponseMessage(raw.alias)
	m.Content = make([]ContentBlock, 0, len(raw.Content))
	for _, c := range raw.Content {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(c, &head); err != nil {
			return err
		}
		switch head.Type {
		case "text":
			var tb TextBlock
			if err := json.Unmarshal(c, &tb); err != nil {
				return err
			}
			m.Content = append(m.Content, &tb)
		case "tool_use":
			var tu ToolUseBlock
			if err := json.Unmarshal(c, &tu); err != nil {
				return err
			}
			if tu.Input == nil {
				tu.Input = map[string]any{}
			}
			m.Content = append(m.Content, &tu)
		default:
			return fmt.Errorf("unknown content block type %q", head.Type)
		}
	}
	return nil
}
