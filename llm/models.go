// Package llm provides the wire data models for local chat runtimes.
package llm

import (
	"encoding/json"
	"time"
)

// ChatMessage is one flat turn sent to the local runtime.
// Every conversation turn maps to exactly one ChatMessage.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "system",
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "user",
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "assistant",
		Content: content,
	}
}

// ToolDefinition defines a tool that the model can call.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the object schema describing a tool's parameters.
type JSONSchema struct {
	Type       string                        `json:"type"`
	Properties map[string]JSONSchemaProperty `json:"properties"`
	Required   []string                      `json:"required"`
}

// JSONSchemaProperty describes a single tool parameter.
type JSONSchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ChatRequest is a complete, non-streaming chat request.
type ChatRequest struct {
	Model    string
	Messages []ChatMessage
	Tools    []ToolDefinition
}

// ToolCall is a tool invocation record returned by the runtime.
// Some runtimes put the id on the call, some on the function, some omit it.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the called tool and carries its arguments.
// Arguments is kept raw: it may be a JSON object or a JSON-encoded string.
type ToolCallFunction struct {
	ID        string          `json:"id,omitempty"`
	Index     int             `json:"index,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ResponseMessage is the assistant message inside a RawResponse.
type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// RawResponse is one complete chat response from the local runtime.
type RawResponse struct {
	Model           string          `json:"model"`
	CreatedAt       time.Time       `json:"created_at"`
	Message         ResponseMessage `json:"message"`
	Done            bool            `json:"done"`
	DoneReason      string          `json:"done_reason,omitempty"`
	TotalDuration   int64           `json:"total_duration,omitempty"`
	PromptEvalCount int             `json:"prompt_eval_count"`
	EvalCount       int             `json:"eval_count"`
}

// Usage returns the runtime's token counters.
func (r RawResponse) Usage() TokenUsage {
	return TokenUsage{
		PromptTokens:     uint32(r.PromptEvalCount),
		CompletionTokens: uint32(r.EvalCount),
		TotalTokens:      uint32(r.PromptEvalCount + r.EvalCount),
	}
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}
