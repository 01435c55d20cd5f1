package adapter

import (
	"github.com/richinex/ollamabridge/llm"
	"github.com/richinex/ollamabridge/model"
)

// SystemPlaceholder stands in for the system prompt in readable requests.
const SystemPlaceholder = "(system prompt omitted)"

// ImageStripper removes image payloads from a part list.
type ImageStripper func([]model.Part) []model.Part

// ReadableRequest is a display form of a request. It never holds image bytes.
type ReadableRequest struct {
	Model    string            `json:"model"`
	Messages []llm.ChatMessage `json:"messages"`
}

// DescribeRequest renders userContent for display. Images are stripped with
// strip (model.StripImages when nil) before rendering.
func DescribeRequest(modelID string, userContent []model.Part, strip ImageStripper) ReadableRequest {
	if strip == nil {
		strip = model.StripImages
	}
	return ReadableRequest{
		Model: modelID,
		Messages: []llm.ChatMessage{
			llm.SystemMessage(SystemPlaceholder),
			llm.UserMessage(renderParts(strip(userContent))),
		},
	}
}
