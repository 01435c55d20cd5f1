// Ollama Runtime implementation using the native /api/chat endpoint.
//
// Information Hiding:
// - Endpoint path and request body layout
// - Non-streaming mode is forced on every request
// - Error bodies ({"error": "..."}) mapped to sentinel errors

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultOllamaHost is the loopback address Ollama listens on by default.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaRuntime implements the Runtime interface for Ollama's native chat API.
type OllamaRuntime struct {
	client *http.Client
	host   string
}

// NewOllamaRuntime creates a new Ollama runtime.
// An empty host selects DefaultOllamaHost. A nil client selects a client
// without a timeout; callers bound calls through the context.
func NewOllamaRuntime(host string, client *http.Client) *OllamaRuntime {
	if host == "" {
		host = DefaultOllamaHost
	}
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaRuntime{
		client: client,
		host:   strings.TrimRight(host, "/"),
	}
}

// Name returns the runtime name.
func (r *OllamaRuntime) Name() string {
	return "ollama"
}

// Host returns the base URL requests are sent to.
func (r *OllamaRuntime) Host() string {
	return r.host
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ToolDefinition `json:"function"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Tools    []ollamaTool  `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
}

// Chat sends a chat request and waits for the complete response.
func (r *OllamaRuntime) Chat(ctx context.Context, req ChatRequest) (RawResponse, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Tools:    convertToOllamaTools(req.Tools),
		Stream:   false,
	})
	if err != nil {
		return RawResponse{}, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return RawResponse{}, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return RawResponse{}, transportError(r.Name(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawResponse{}, &Error{Runtime: r.Name(), Op: "chat", StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return RawResponse{}, statusError(r.Name(), resp.StatusCode, data)
	}

	var raw RawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawResponse{}, &Error{Runtime: r.Name(), Op: "chat", StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return raw, nil
}

// statusError maps a non-200 response onto the error taxonomy.
// Ollama reports a missing model as 404 with {"error": "model \"x\" not found, try pulling it first"}.
func statusError(runtime string, status int, body []byte) *Error {
	msg := gjson.GetBytes(body, "error").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusNotFound {
		return &Error{Runtime: runtime, Op: "chat", StatusCode: status, Err: fmt.Errorf("%w: %s", ErrModelNotFound, msg)}
	}
	return &Error{Runtime: runtime, Op: "chat", StatusCode: status, Err: errors.New(msg)}
}

// convertToOllamaTools wraps tool definitions in Ollama's function envelope.
func convertToOllamaTools(tools []ToolDefinition) []ollamaTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]ollamaTool, len(tools))
	for i, t := range tools {
		result[i] = ollamaTool{Type: "function", Function: t}
	}
	return result
}

// Verify OllamaRuntime implements Runtime
var _ Runtime = (*OllamaRuntime)(nil)
