// Package model provides the conversation types shared across packages.
//
// A conversation is an ordered list of turns. Each turn carries a role and
// either plain text or an ordered list of typed parts, mirroring the content
// blocks of the Anthropic Messages API.
package model

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// UserTurn creates a user turn with plain text content.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: TextContent(text)}
}

// AssistantTurn creates an assistant turn with plain text content.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: TextContent(text)}
}

// Content is either plain text or an ordered list of parts.
// The zero value is empty text, so a Turn's content is never nil.
type Content struct {
	text    string
	parts   []Part
	isParts bool
}

// TextContent creates plain text content.
func TextContent(text string) Content {
	return Content{text: text}
}

// PartsContent creates content from an ordered list of parts.
func PartsContent(parts ...Part) Content {
	if parts == nil {
		parts = []Part{}
	}
	return Content{parts: parts, isParts: true}
}

// IsText reports whether the content is plain text.
func (c Content) IsText() bool {
	return !c.isParts
}

// Text returns the plain text. It is empty for part-list content.
func (c Content) Text() string {
	return c.text
}

// Parts returns the part list. It is nil for plain text content.
func (c Content) Parts() []Part {
	return c.parts
}

// PartType names the kind of a content part.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartToolUse    PartType = "tool_use"
	PartToolResult PartType = "tool_result"
)

// Part is one typed element of a part list.
// The set of implementations is closed: TextPart, ImagePart, ToolUsePart,
// ToolResultPart, and UnknownPart for blocks this package does not model.
type Part interface {
	Type() PartType
	isPart()
}

// TextPart is a plain text block.
type TextPart struct {
	Text string
}

// ImagePart is an inline image. Data holds the base64 payload.
type ImagePart struct {
	MediaType string
	Data      string
}

// ToolUsePart is a tool invocation issued by the assistant.
type ToolUsePart struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResultPart is the result of a tool invocation, sent back by the user.
type ToolResultPart struct {
	ToolUseID string
	Content   []Part
	IsError   bool
}

// UnknownPart preserves the type tag of a block with an unrecognized type.
type UnknownPart struct {
	Kind string
}

func (TextPart) Type() PartType       { return PartText }
func (ImagePart) Type() PartType      { return PartImage }
func (ToolUsePart) Type() PartType    { return PartToolUse }
func (ToolResultPart) Type() PartType { return PartToolResult }
func (p UnknownPart) Type() PartType  { return PartType(p.Kind) }

func (TextPart) isPart()       {}
func (ImagePart) isPart()      {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}
func (UnknownPart) isPart()    {}

// StripImages returns a copy of parts with every image payload removed.
// Images nested in tool results are stripped too. The input is not modified.
func StripImages(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case ImagePart:
			out[i] = ImagePart{MediaType: v.MediaType}
		case ToolResultPart:
			out[i] = ToolResultPart{
				ToolUseID: v.ToolUseID,
				Content:   StripImages(v.Content),
				IsError:   v.IsError,
			}
		default:
			out[i] = p
		}
	}
	return out
}
