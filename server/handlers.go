package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richinex/ollamabridge/adapter"
	"github.com/richinex/ollamabridge/llm"
	"github.com/richinex/ollamabridge/model"
	"github.com/richinex/ollamabridge/storage"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultExchangeLimit = 20
	maxExchangeLimit     = 200
)

// MessagesRequest is the accepted subset of an Anthropic Messages request.
// Model is accepted for compatibility; the bridge always serves its
// configured model.
type MessagesRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    json.RawMessage `json:"system"`
	Messages  []model.Turn    `json:"messages"`
	Stream    bool            `json:"stream"`
}

// ModelEntry is one item of the models listing.
type ModelEntry struct {
	Type          string `json:"type"`
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	ContextWindow int    `json:"context_window"`
	MaxTokens     int    `json:"max_tokens"`
	Default       bool   `json:"default"`
}

// ModelList is the models listing.
type ModelList struct {
	Data    []ModelEntry `json:"data"`
	HasMore bool         `json:"has_more"`
	FirstID string       `json:"first_id"`
	LastID  string       `json:"last_id"`
}

// ExchangeView is the JSON form of a recorded exchange.
type ExchangeView struct {
	ID           string            `json:"id"`
	Runtime      string            `json:"runtime"`
	Model        string            `json:"model"`
	Request      []llm.ChatMessage `json:"request"`
	Response     json.RawMessage   `json:"response,omitempty"`
	StopReason   string            `json:"stop_reason,omitempty"`
	InputTokens  int               `json:"input_tokens"`
	OutputTokens int               `json:"output_tokens"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    string            `json:"created_at"`
}

func (s *Server) createMessage(c *gin.Context) {
	var req MessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Stream {
		badRequest(c, "streaming is not supported")
		return
	}
	if len(req.Messages) == 0 {
		badRequest(c, "messages: at least one message is required")
		return
	}
	for i, turn := range req.Messages {
		if turn.Role != model.RoleUser && turn.Role != model.RoleAssistant {
			badRequest(c, "messages."+strconv.Itoa(i)+".role: must be 'user' or 'assistant'")
			return
		}
	}
	system, err := systemPrompt(req.System)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	if req.Model != "" && req.Model != s.adapter.Model().ID {
		s.logger.Debug("Ignoring requested model", zap.String("requested", req.Model))
	}

	msg, err := s.adapter.CreateMessage(c.Request.Context(), system, req.Messages)
	s.record(c, req.Messages, msg, err)
	if err != nil {
		writeRuntimeError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// systemPrompt accepts a string, an array of text blocks, or nothing.
func systemPrompt(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	result := gjson.ParseBytes(raw)
	switch {
	case result.Type == gjson.Null:
		return "", nil
	case result.Type == gjson.String:
		return result.Str, nil
	case result.IsArray():
		var texts []string
		for _, block := range result.Array() {
			if block.Get("type").String() != "text" {
				return "", errors.New("system: only text blocks are supported")
			}
			texts = append(texts, block.Get("text").String())
		}
		return strings.Join(texts, "\n"), nil
	default:
		return "", errors.New("system: must be a string or an array of text blocks")
	}
}

// record writes the exchange to the store, if any. Failures are logged only.
func (s *Server) record(c *gin.Context, history []model.Turn, msg adapter.ResponseMessage, callErr error) {
	if s.store == nil {
		return
	}

	var lastUser []model.Part
	if n := len(history); n > 0 {
		lastUser = history[n-1].Content.AsParts()
	}

	ex := storage.Exchange{
		Runtime: s.runtime,
		Model:   s.adapter.Model().ID,
		Request: s.adapter.DescribeRequest(lastUser).Messages,
	}
	if callErr != nil {
		ex.Error = callErr.Error()
	} else {
		ex.ID = msg.ID
		ex.StopReason = msg.StopReason
		ex.InputTokens = msg.Usage.InputTokens
		ex.OutputTokens = msg.Usage.OutputTokens
		if data, err := json.Marshal(msg); err == nil {
			ex.Response = data
		}
	}

	if _, err := s.store.Record(c.Request.Context(), ex); err != nil {
		s.logger.Warn("Failed to record exchange", zap.Error(err))
	}
}

func (s *Server) listModels(c *gin.Context) {
	current := s.adapter.Model().ID
	known := llm.KnownModels()

	list := ModelList{Data: make([]ModelEntry, 0, len(known))}
	for _, m := range known {
		list.Data = append(list.Data, ModelEntry{
			Type:          "model",
			ID:            m.ID,
			DisplayName:   m.Info.Description,
			ContextWindow: m.Info.ContextWindow,
			MaxTokens:     m.Info.MaxTokens,
			Default:       m.ID == current,
		})
	}
	if len(list.Data) > 0 {
		list.FirstID = list.Data[0].ID
		list.LastID = list.Data[len(list.Data)-1].ID
	}

	c.JSON(http.StatusOK, list)
}

func (s *Server) listExchanges(c *gin.Context) {
	if s.store == nil {
		writeError(c, http.StatusNotFound, errNotFound, "exchange log is disabled")
		return
	}

	limit := defaultExchangeLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit: must be a positive integer")
			return
		}
		limit = min(n, maxExchangeLimit)
	}

	exchanges, err := s.store.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, errAPI, "failed to list exchanges")
		return
	}

	views := make([]ExchangeView, 0, len(exchanges))
	for _, ex := range exchanges {
		views = append(views, exchangeView(ex))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (s *Server) getExchange(c *gin.Context) {
	if s.store == nil {
		writeError(c, http.StatusNotFound, errNotFound, "exchange log is disabled")
		return
	}

	ex, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrExchangeNotFound) {
		writeError(c, http.StatusNotFound, errNotFound, "exchange not found")
		return
	}
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, errAPI, "failed to load exchange")
		return
	}

	c.JSON(http.StatusOK, exchangeView(ex))
}

func exchangeView(ex storage.Exchange) ExchangeView {
	return ExchangeView{
		ID:           ex.ID,
		Runtime:      ex.Runtime,
		Model:        ex.Model,
		Request:      ex.Request,
		Response:     ex.Response,
		StopReason:   ex.StopReason,
		InputTokens:  ex.InputTokens,
		OutputTokens: ex.OutputTokens,
		Error:        ex.Error,
		CreatedAt:    ex.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
