package adapter

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/richinex/ollamabridge/model"
)

// TurnsFromParams converts SDK message params into conversation turns so
// callers holding SDK history can feed the adapter.
func TurnsFromParams(params []anthropic.MessageParam) []model.Turn {
	turns := make([]model.Turn, 0, len(params))
	for _, p := range params {
		turns = append(turns, model.Turn{
			Role:    model.Role(p.Role),
			Content: model.PartsContent(partsFromBlocks(p.Content)...),
		})
	}
	return turns
}

func partsFromBlocks(blocks []anthropic.ContentBlockParamUnion) []model.Part {
	parts := make([]model.Part, 0, len(blocks))
	for _, b := range blocks {
		switch {
		case b.OfText != nil:
			parts = append(parts, model.TextPart{Text: b.OfText.Text})
		case b.OfImage != nil:
			parts = append(parts, imagePart(b.OfImage))
		case b.OfToolUse != nil:
			parts = append(parts, model.ToolUsePart{
				ID:    b.OfToolUse.ID,
				Name:  b.OfToolUse.Name,
				Input: inputObject(b.OfToolUse.Input),
			})
		case b.OfToolResult != nil:
			parts = append(parts, toolResultPart(b.OfToolResult))
		default:
			parts = append(parts, model.UnknownPart{})
		}
	}
	return parts
}

func imagePart(img *anthropic.ImageBlockParam) model.ImagePart {
	if src := img.Source.OfBase64; src != nil {
		return model.ImagePart{MediaType: string(src.MediaType), Data: src.Data}
	}
	return model.ImagePart{}
}

func toolResultPart(tr *anthropic.ToolResultBlockParam) model.ToolResultPart {
	content := make([]model.Part, 0, len(tr.Content))
	for _, c := range tr.Content {
		switch {
		case c.OfText != nil:
			content = append(content, model.TextPart{Text: c.OfText.Text})
		case c.OfImage != nil:
			content = append(content, imagePart(c.OfImage))
		default:
			content = append(content, model.UnknownPart{})
		}
	}
	return model.ToolResultPart{
		ToolUseID: tr.ToolUseID,
		Content:   content,
		IsError:   tr.IsError.Value,
	}
}

// inputObject coerces a tool-use input of any Go shape into an object.
func inputObject(input any) map[string]any {
	switch v := input.(type) {
	case map[string]any:
		return v
	case nil:
		return map[string]any{}
	}
	data, err := json.Marshal(input)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// ToParam converts the message into an SDK param so it can be appended to an
// SDK conversation. Empty text blocks are dropped because the API rejects them.
func (m ResponseMessage) ToParam() anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
	for _, b := range m.Content {
		switch v := b.(type) {
		case *TextBlock:
			if v.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(v.Text))
			}
		case *ToolUseBlock:
			blocks = append(blocks, anthropic.NewToolUseBlock(v.ID, v.Input, v.Name))
		}
	}
	return anthropic.NewAssistantMessage(blocks...)
}
