package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testRequest() ChatRequest {
	return ChatRequest{
		Model: "qwen2.5-coder:7b",
		Messages: []ChatMessage{
			SystemMessage("S"),
			UserMessage("list files"),
		},
		Tools: []ToolDefinition{{
			Name:        "read_file",
			Description: "Read a file",
			Parameters: JSONSchema{
				Type:       "object",
				Properties: map[string]JSONSchemaProperty{"path": {Type: "string", Description: "file path"}},
				Required:   []string{"path"},
			},
		}},
	}
}

// closedServerURL returns a loopback URL nothing is listening on.
func closedServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestOllamaChatSendsNonStreamingRequestWithTools(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{
			"model": "qwen2.5-coder:7b",
			"created_at": "2024-07-22T20:33:28.123648Z",
			"message": {"role": "assistant", "content": "Done.", "tool_calls": [
				{"function": {"name": "read_file", "arguments": {"path": "main.go"}}},
				{"function": {"name": "read_file", "arguments": "{\"path\":\"go.mod\"}"}}
			]},
			"done": true,
			"done_reason": "stop",
			"prompt_eval_count": 10,
			"eval_count": 5
		}`)
	}))
	defer srv.Close()

	rt := NewOllamaRuntime(srv.URL+"/", nil)
	raw, err := rt.Chat(context.Background(), testRequest())
	require.NoError(t, err)

	req := gjson.ParseBytes(body)
	assert.False(t, req.Get("stream").Bool())
	assert.True(t, req.Get("stream").Exists(), "stream must be sent explicitly")
	assert.Equal(t, "qwen2.5-coder:7b", req.Get("model").String())
	assert.Equal(t, "system", req.Get("messages.0.role").String())
	assert.Equal(t, "list files", req.Get("messages.1.content").String())
	assert.Equal(t, "function", req.Get("tools.0.type").String())
	assert.Equal(t, "read_file", req.Get("tools.0.function.name").String())
	assert.Equal(t, "path", req.Get("tools.0.function.parameters.required.0").String())

	assert.Equal(t, "Done.", raw.Message.Content)
	assert.Equal(t, 10, raw.PromptEvalCount)
	assert.Equal(t, 5, raw.EvalCount)
	require.Len(t, raw.Message.ToolCalls, 2)
	assert.JSONEq(t, `{"path":"main.go"}`, string(raw.Message.ToolCalls[0].Function.Arguments))
	assert.Equal(t, `"{\"path\":\"go.mod\"}"`, string(raw.Message.ToolCalls[1].Function.Arguments))

	usage := raw.Usage()
	assert.Equal(t, uint32(15), usage.TotalTokens)
}

func TestOllamaChatModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model \"nope\" not found, try pulling it first"}`)
	}))
	defer srv.Close()

	_, err := NewOllamaRuntime(srv.URL, nil).Chat(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, IsModelNotFound(err))
	assert.False(t, IsRuntimeUnavailable(err))

	var rtErr *Error
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, http.StatusNotFound, rtErr.StatusCode)
	assert.Contains(t, err.Error(), "try pulling it first")
}

func TestOllamaChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	defer srv.Close()

	_, err := NewOllamaRuntime(srv.URL, nil).Chat(context.Background(), testRequest())
	require.Error(t, err)
	assert.False(t, IsModelNotFound(err))
	assert.False(t, IsRuntimeUnavailable(err))
	assert.Contains(t, err.Error(), "status 500: boom")
}

func TestOllamaChatRuntimeUnavailable(t *testing.T) {
	_, err := NewOllamaRuntime(closedServerURL(t), nil).Chat(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, IsRuntimeUnavailable(err), "got %v", err)
}

func TestOllamaChatUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := NewOllamaRuntime(srv.URL, nil).Chat(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestOpenAIChatMapsResponse(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1721680408,
			"model": "qwen2.5-coder:7b",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "", "tool_calls": [
					{"id": "call_abc", "type": "function", "function": {"name": "list_files_top_level", "arguments": "{\"path\":\".\"}"}}
				]},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`)
	}))
	defer srv.Close()

	rt := NewOpenAIRuntime(srv.URL+"/v1", "", nil)
	raw, err := rt.Chat(context.Background(), testRequest())
	require.NoError(t, err)

	req := gjson.ParseBytes(body)
	assert.False(t, req.Get("stream").Bool())
	assert.Equal(t, "read_file", req.Get("tools.0.function.name").String())

	assert.Equal(t, 12, raw.PromptEvalCount)
	assert.Equal(t, 7, raw.EvalCount)
	assert.Equal(t, "tool_calls", raw.DoneReason)
	require.Len(t, raw.Message.ToolCalls, 1)
	tc := raw.Message.ToolCalls[0]
	assert.Equal(t, "call_abc", tc.ID)
	assert.Equal(t, "list_files_top_level", tc.Function.Name)

	// Arguments arrive as a JSON-encoded string.
	var args string
	require.NoError(t, json.Unmarshal(tc.Function.Arguments, &args))
	assert.JSONEq(t, `{"path":"."}`, args)
}

func TestOpenAIChatModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"model \"nope\" not found","type":"api_error","code":null}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIRuntime(srv.URL+"/v1", "", nil).Chat(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, IsModelNotFound(err), "got %v", err)
}

func TestOpenAIChatRuntimeUnavailable(t *testing.T) {
	_, err := NewOpenAIRuntime(closedServerURL(t)+"/v1", "", nil).Chat(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, IsRuntimeUnavailable(err), "got %v", err)
}

// TestOpenAIErrorNoAPIKeyLeak verifies errors don't contain the configured key
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIRuntime(srv.URL+"/v1", testKey, nil).Chat(context.Background(), testRequest())
	require.Error(t, err)

	errStr := err.Error()
	assert.False(t, strings.Contains(errStr, testKey), "error leaked API key: %v", errStr)
	assert.False(t, strings.Contains(errStr, "Authorization:"), "error exposed Authorization header: %v", errStr)
}

func TestParseRuntimeType(t *testing.T) {
	tests := []struct {
		in   string
		want RuntimeType
	}{
		{"", RuntimeOllama},
		{"Ollama", RuntimeOllama},
		{"native", RuntimeOllama},
		{"openai", RuntimeOpenAI},
		{"lmstudio", RuntimeOpenAI},
	}
	for _, tt := range tests {
		got, err := ParseRuntimeType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseRuntimeType("gemini")
	assert.Error(t, err)
}

func TestRuntimeBuilder(t *testing.T) {
	rt, err := RuntimeOllama.Build()
	require.NoError(t, err)
	assert.Equal(t, "ollama", rt.Name())
	assert.Equal(t, DefaultOllamaHost, rt.(*OllamaRuntime).Host())

	rt, err = RuntimeOpenAI.Host("http://10.0.0.5:11434/").Build()
	require.NoError(t, err)
	assert.Equal(t, "openai", rt.Name())
	assert.Equal(t, "http://10.0.0.5:11434/v1", rt.(*OpenAIRuntime).BaseURL())

	rt, err = RuntimeOpenAI.BaseURL("http://127.0.0.1:1234/v1").Build()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1234/v1", rt.(*OpenAIRuntime).BaseURL())

	_, err = NewRuntimeBuilder(RuntimeType(42)).Build()
	assert.Error(t, err)
}
