package adapter

import (
	"strings"

	"github.com/richinex/ollamabridge/llm"
	"github.com/richinex/ollamabridge/model"
)

// imagePlaceholder replaces image parts when flattening.
const imagePlaceholder = "[Image]"

// BuildRequest flattens a system prompt and a conversation history into the
// runtime's message list. The result always has 1+len(history) entries: the
// system message first, then one message per turn in order.
func BuildRequest(systemPrompt string, history []model.Turn) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, llm.SystemMessage(systemPrompt))
	for _, turn := range history {
		messages = append(messages, llm.ChatMessage{
			Role:    string(turn.Role),
			Content: flattenContent(turn.Content),
		})
	}
	return messages
}

func flattenContent(c model.Content) string {
	if c.IsText() {
		return c.Text()
	}
	return renderParts(c.Parts())
}

// renderParts renders each part and joins them with newlines.
func renderParts(parts []model.Part) string {
	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = renderPart(p)
	}
	return strings.Join(rendered, "\n")
}

func renderPart(p model.Part) string {
	switch v := p.(type) {
	case model.TextPart:
		return v.Text
	case model.ImagePart:
		return imagePlaceholder
	case model.ToolUsePart:
		return "[Tool Use: " + v.Name + "]"
	case model.ToolResultPart:
		return "[Tool Result: " + v.ToolUseID + "]"
	default:
		return ""
	}
}
