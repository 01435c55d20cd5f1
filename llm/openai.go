// OpenAI-compatible Runtime implementation using go-openai library.
//
// Information Hiding:
// - Uses the OpenAI Chat Completions API with a local base URL
//   (Ollama's /v1, LM Studio, llama.cpp server)
// - Converts the first choice into a RawResponse so both runtimes
//   feed the same inbound translation

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// placeholderAPIKey is sent when none is configured; local servers ignore it.
const placeholderAPIKey = "ollama"

// OpenAIRuntime implements the Runtime interface for OpenAI-compatible local servers.
type OpenAIRuntime struct {
	client  *openai.Client
	baseURL string
}

// NewOpenAIRuntime creates a new OpenAI-compatible runtime.
// An empty baseURL selects Ollama's compatibility endpoint on the default host.
func NewOpenAIRuntime(baseURL, apiKey string, httpClient *http.Client) *OpenAIRuntime {
	if baseURL == "" {
		baseURL = DefaultOllamaHost + "/v1"
	}
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimRight(baseURL, "/")
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &OpenAIRuntime{
		client:  openai.NewClientWithConfig(config),
		baseURL: config.BaseURL,
	}
}

// Name returns the runtime name.
func (r *OpenAIRuntime) Name() string {
	return "openai"
}

// BaseURL returns the base URL requests are sent to.
func (r *OpenAIRuntime) BaseURL() string {
	return r.baseURL
}

// Chat sends a chat completion request and waits for the complete response.
func (r *OpenAIRuntime) Chat(ctx context.Context, req ChatRequest) (RawResponse, error) {
	oaiReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: convertToOpenAIMessages(req.Messages),
		Tools:    convertToOpenAITools(req.Tools),
		Stream:   false,
	}

	resp, err := r.client.CreateChatCompletion(ctx, oaiReq)
	if err != nil {
		return RawResponse{}, r.classify(err)
	}

	raw := RawResponse{
		Model:           resp.Model,
		Done:            true,
		PromptEvalCount: resp.Usage.PromptTokens,
		EvalCount:       resp.Usage.CompletionTokens,
	}
	if resp.Created > 0 {
		raw.CreatedAt = time.Unix(resp.Created, 0).UTC()
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		raw.DoneReason = string(choice.FinishReason)
		raw.Message = ResponseMessage{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		}
		for i, tc := range choice.Message.ToolCalls {
			// OpenAI-style arguments are always a JSON-encoded string.
			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				return RawResponse{}, &Error{Runtime: r.Name(), Op: "chat", Err: fmt.Errorf("failed to encode tool arguments: %w", err)}
			}
			raw.Message.ToolCalls = append(raw.Message.ToolCalls, ToolCall{
				ID: tc.ID,
				Function: ToolCallFunction{
					Index:     i,
					Name:      tc.Function.Name,
					Arguments: args,
				},
			})
		}
	}

	return raw, nil
}

// classify maps go-openai errors onto the error taxonomy.
func (r *OpenAIRuntime) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusNotFound {
			return &Error{Runtime: r.Name(), Op: "chat", StatusCode: apiErr.HTTPStatusCode, Err: fmt.Errorf("%w: %s", ErrModelNotFound, apiErr.Message)}
		}
		return &Error{Runtime: r.Name(), Op: "chat", StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusNotFound {
			return &Error{Runtime: r.Name(), Op: "chat", StatusCode: reqErr.HTTPStatusCode, Err: fmt.Errorf("%w: %w", ErrModelNotFound, err)}
		}
		return &Error{Runtime: r.Name(), Op: "chat", StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return transportError(r.Name(), err)
}

// convertToOpenAIMessages converts flat turns to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIRuntime implements Runtime
var _ Runtime = (*OpenAIRuntime)(nil)
