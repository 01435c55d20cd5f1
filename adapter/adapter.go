package adapter

import (
	"context"
	"time"

	"github.com/richinex/ollamabridge/llm"
	"github.com/richinex/ollamabridge/model"
	"github.com/richinex/ollamabridge/tools"
	"go.uber.org/zap"
)

// Options configures an Adapter.
type Options struct {
	// ModelID is resolved against the model catalog; empty or unknown ids
	// select llm.DefaultModelID.
	ModelID string
	// WorkingDir is embedded in the tool descriptions sent to the model.
	WorkingDir string
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// ImageStripper defaults to model.StripImages.
	ImageStripper ImageStripper
	// IDs defaults to random message and tool-use ids.
	IDs IDSource
}

// Adapter drives one local runtime with Anthropic-shaped input and output.
type Adapter struct {
	runtime llm.Runtime
	model   llm.ModelSelection
	catalog *tools.Catalog
	strip   ImageStripper
	ids     IDSource
	log     *zap.Logger
}

// New creates an Adapter. The model selection and tool catalog are fixed for
// the adapter's lifetime.
func New(runtime llm.Runtime, opts Options) *Adapter {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	strip := opts.ImageStripper
	if strip == nil {
		strip = model.StripImages
	}
	ids := opts.IDs
	if ids == nil {
		ids = randomIDs{}
	}
	sel := llm.ResolveModel(opts.ModelID)
	if opts.ModelID != "" && opts.ModelID != sel.ID {
		log.Warn("Unknown model id, using default",
			zap.String("configured", opts.ModelID),
			zap.String("model", sel.ID))
	}
	return &Adapter{
		runtime: runtime,
		model:   sel,
		catalog: tools.NewCatalog(opts.WorkingDir),
		strip:   strip,
		ids:     ids,
		log:     log.With(zap.String("runtime", runtime.Name()), zap.String("model", sel.ID)),
	}
}

// Model returns the resolved model selection.
func (a *Adapter) Model() llm.ModelSelection {
	return a.model
}

// Tools returns the tool catalog sent with every request.
func (a *Adapter) Tools() *tools.Catalog {
	return a.catalog
}

// BuildRequest flattens systemPrompt and history into runtime messages.
func (a *Adapter) BuildRequest(systemPrompt string, history []model.Turn) []llm.ChatMessage {
	return BuildRequest(systemPrompt, history)
}

// ToProviderMessage converts a raw runtime response into a ResponseMessage.
func (a *Adapter) ToProviderMessage(raw llm.RawResponse) ResponseMessage {
	return toProviderMessage(raw, a.model, a.ids, a.log)
}

// DescribeRequest renders userContent for display with images removed.
func (a *Adapter) DescribeRequest(userContent []model.Part) ReadableRequest {
	return DescribeRequest(a.model.ID, userContent, a.strip)
}

// CreateMessage sends one non-streaming request and translates the reply.
// Runtime errors are returned unmodified; no retry is attempted.
func (a *Adapter) CreateMessage(ctx context.Context, systemPrompt string, history []model.Turn) (ResponseMessage, error) {
	req := llm.ChatRequest{
		Model:    a.model.ID,
		Messages: a.BuildRequest(systemPrompt, history),
		Tools:    a.catalog.Definitions(),
	}

	start := time.Now()
	raw, err := a.runtime.Chat(ctx, req)
	if err != nil {
		a.log.Error("Chat request failed", zap.Int("messages", len(req.Messages)), zap.Error(err))
		return ResponseMessage{}, err
	}

	msg := a.ToProviderMessage(raw)
	a.log.Debug("Chat request completed",
		zap.String("id", msg.ID),
		zap.String("stop_reason", msg.StopReason),
		zap.Int("tool_calls", len(raw.Message.ToolCalls)),
		zap.Int("input_tokens", msg.Usage.InputTokens),
		zap.Int("output_tokens", msg.Usage.OutputTokens),
		zap.Duration("duration", time.Since(start)))
	return msg, nil
}
