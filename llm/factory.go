// Runtime Factory - builder-first API for creating local chat runtimes.
//
// Quick Start:
//
//	// Simplest: native Ollama on the default loopback host
//	rt, err := llm.RuntimeOllama.Build()
//
//	// Custom host
//	rt, err := llm.RuntimeOllama.Host("http://10.0.0.5:11434").Build()
//
//	// OpenAI-compatible server (LM Studio, llama.cpp)
//	rt, err := llm.RuntimeOpenAI.BaseURL("http://127.0.0.1:1234/v1").Build()

package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// RuntimeType represents supported local runtimes.
type RuntimeType int

const (
	// RuntimeOllama is Ollama's native /api/chat endpoint.
	RuntimeOllama RuntimeType = iota
	// RuntimeOpenAI is any OpenAI-compatible /v1/chat/completions endpoint.
	RuntimeOpenAI
)

// String returns the string representation of the runtime type.
func (r RuntimeType) String() string {
	switch r {
	case RuntimeOllama:
		return "ollama"
	case RuntimeOpenAI:
		return "openai"
	default:
		return "unknown"
	}
}

// ParseRuntimeType parses a runtime from string (case-insensitive).
// The empty string selects RuntimeOllama.
func ParseRuntimeType(s string) (RuntimeType, error) {
	switch strings.ToLower(s) {
	case "", "ollama", "native":
		return RuntimeOllama, nil
	case "openai", "lmstudio", "llamacpp", "compat":
		return RuntimeOpenAI, nil
	default:
		return 0, fmt.Errorf("unknown runtime: %s", s)
	}
}

// Build creates the runtime with defaults.
func (r RuntimeType) Build() (Runtime, error) {
	return NewRuntimeBuilder(r).Build()
}

// Host starts configuring this runtime with a specific Ollama host.
func (r RuntimeType) Host(host string) *RuntimeBuilder {
	return NewRuntimeBuilder(r).Host(host)
}

// BaseURL starts configuring this runtime with a specific OpenAI-compatible base URL.
func (r RuntimeType) BaseURL(url string) *RuntimeBuilder {
	return NewRuntimeBuilder(r).BaseURL(url)
}

// RuntimeBuilder is a builder for configuring local runtimes.
type RuntimeBuilder struct {
	runtimeType RuntimeType
	host        string
	baseURL     string
	apiKey      string
	httpClient  *http.Client
}

// NewRuntimeBuilder creates a new builder for the given runtime.
func NewRuntimeBuilder(runtimeType RuntimeType) *RuntimeBuilder {
	return &RuntimeBuilder{
		runtimeType: runtimeType,
	}
}

// Host sets the Ollama host (scheme://host:port).
func (b *RuntimeBuilder) Host(host string) *RuntimeBuilder {
	b.host = host
	return b
}

// BaseURL sets the OpenAI-compatible base URL. When unset, {host}/v1 is used.
func (b *RuntimeBuilder) BaseURL(url string) *RuntimeBuilder {
	b.baseURL = url
	return b
}

// APIKey sets the key sent to OpenAI-compatible servers that require one.
func (b *RuntimeBuilder) APIKey(key string) *RuntimeBuilder {
	b.apiKey = key
	return b
}

// HTTPClient sets the HTTP client used for requests.
func (b *RuntimeBuilder) HTTPClient(client *http.Client) *RuntimeBuilder {
	b.httpClient = client
	return b
}

// Build creates the configured runtime.
func (b *RuntimeBuilder) Build() (Runtime, error) {
	host := strings.TrimRight(b.host, "/")
	if host == "" {
		host = DefaultOllamaHost
	}

	switch b.runtimeType {
	case RuntimeOllama:
		return NewOllamaRuntime(host, b.httpClient), nil
	case RuntimeOpenAI:
		baseURL := b.baseURL
		if baseURL == "" {
			baseURL = host + "/v1"
		}
		return NewOpenAIRuntime(baseURL, b.apiKey, b.httpClient), nil
	default:
		return nil, fmt.Errorf("unknown runtime type: %v", b.runtimeType)
	}
}
