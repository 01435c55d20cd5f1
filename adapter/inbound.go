package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsonutil "github.com/richinex/ollamabridge/internal/json"
	"github.com/richinex/ollamabridge/llm"
	"go.uber.org/zap"
)

// IDSource produces message and tool-use ids.
type IDSource interface {
	MessageID() string
	ToolUseID() string
}

// randomIDs is the default IDSource.
type randomIDs struct {
	now func() time.Time
}

// MessageID returns msg_<unix-millis>_<8 hex chars>.
func (r randomIDs) MessageID() string {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	return fmt.Sprintf("msg_%d_%s", now().UnixMilli(), hexID()[:8])
}

// ToolUseID returns toolu_<32 hex chars>.
func (randomIDs) ToolUseID() string {
	return "toolu_" + hexID()
}

func hexID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ToProviderMessage converts a raw runtime response into a ResponseMessage
// using random ids and no logging.
func ToProviderMessage(raw llm.RawResponse, sel llm.ModelSelection) ResponseMessage {
	return toProviderMessage(raw, sel, randomIDs{}, zap.NewNop())
}

func toProviderMessage(raw llm.RawResponse, sel llm.ModelSelection, ids IDSource, log *zap.Logger) ResponseMessage {
	calls := raw.Message.ToolCalls

	content := make([]ContentBlock, 0, len(calls)+1)
	content = append(content, NewTextBlock(raw.Message.Content))
	for _, tu := range normalizeToolCalls(calls, ids, log) {
		content = append(content, tu)
	}

	stopReason := StopReasonEndTurn
	if len(calls) > 0 {
		stopReason = StopReasonToolUse
	}

	return ResponseMessage{
		ID:         ids.MessageID(),
		Type:       "message",
		Role:       "assistant",
		Content:    content,
		Model:      sel.ID,
		StopReason: stopReason,
		Usage: Usage{
			InputTokens:  raw.PromptEvalCount,
			OutputTokens: raw.EvalCount,
		},
	}
}

// NormalizeToolCalls converts runtime tool calls into tool-use blocks, one per
// call in order. Arguments that cannot be decoded become an empty object.
func NormalizeToolCalls(calls []llm.ToolCall) []*ToolUseBlock {
	return normalizeToolCalls(calls, randomIDs{}, zap.NewNop())
}

func normalizeToolCalls(calls []llm.ToolCall, ids IDSource, log *zap.Logger) []*ToolUseBlock {
	blocks := make([]*ToolUseBlock, 0, len(calls))
	for _, call := range calls {
		input, err := jsonutil.DecodeArguments(call.Function.Arguments)
		if err != nil {
			log.Warn("Replacing malformed tool arguments with an empty object",
				zap.String("tool", call.Function.Name),
				zap.Error(fmt.Errorf("%w: %w", llm.ErrMalformedToolArguments, err)))
		}
		blocks = append(blocks, NewToolUseBlock(toolUseID(call, ids), call.Function.Name, input))
	}
	return blocks
}

// toolUseID prefers the function-level id, then the call-level id.
func toolUseID(call llm.ToolCall, ids IDSource) string {
	if call.Function.ID != "" {
		return call.Function.ID
	}
	if call.ID != "" {
		return call.ID
	}
	return ids.ToolUseID()
}
