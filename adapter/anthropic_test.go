package adapter

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/richinex/ollamabridge/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnsFromParams(t *testing.T) {
	params := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock("list files")),
		anthropic.NewAssistantMessage(
			anthropic.NewTextBlock("Sure"),
			anthropic.NewToolUseBlock("t1", map[string]any{"path": "."}, "list_files_top_level"),
		),
		anthropic.NewUserMessage(
			anthropic.NewToolResultBlock("t1", "a.go\nb.go", false),
			anthropic.NewImageBlockBase64("image/png", "QUJD"),
		),
	}

	turns := TurnsFromParams(params)
	require.Len(t, turns, 3)

	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, []model.Part{model.TextPart{Text: "list files"}}, turns[0].Content.Parts())

	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, []model.Part{
		model.TextPart{Text: "Sure"},
		model.ToolUsePart{ID: "t1", Name: "list_files_top_level", Input: map[string]any{"path": "."}},
	}, turns[1].Content.Parts())

	parts := turns[2].Content.Parts()
	require.Len(t, parts, 2)
	result, ok := parts[0].(model.ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "t1", result.ToolUseID)
	assert.False(t, result.IsError)
	assert.Equal(t, []model.Part{model.TextPart{Text: "a.go\nb.go"}}, result.Content)
	assert.Equal(t, model.ImagePart{MediaType: "image/png", Data: "QUJD"}, parts[1])

	msgs := BuildRequest("S", turns)
	assert.Equal(t, "Sure\n[Tool Use: list_files_top_level]", msgs[2].Content)
	assert.Equal(t, "[Tool Result: t1]\n[Image]", msgs[3].Content)
}

func TestInputObject(t *testing.T) {
	type args struct {
		Path string `json:"path"`
	}
	assert.Equal(t, map[string]any{"path": "x"}, inputObject(args{Path: "x"}))
	assert.Equal(t, map[string]any{}, inputObject(nil))
	assert.Equal(t, map[string]any{}, inputObject([]int{1}))
}

func TestToParam(t *testing.T) {
	msg := ResponseMessage{Content: []ContentBlock{
		NewTextBlock(""),
		NewToolUseBlock("t1", "read_file", map[string]any{"path": "a.go"}),
	}}

	param := msg.ToParam()
	assert.Equal(t, anthropic.MessageParamRoleAssistant, param.Role)
	require.Len(t, param.Content, 1)
	require.NotNil(t, param.Content[0].OfToolUse)
	assert.Equal(t, "t1", param.Content[0].OfToolUse.ID)
	assert.Equal(t, "read_file", param.Content[0].OfToolUse.Name)

	withText := ResponseMessage{Content: []ContentBlock{NewTextBlock("Done.")}}.ToParam()
	require.Len(t, withText.Content, 1)
	require.NotNil(t, withText.Content[0].OfText)
	assert.Equal(t, "Done.", withText.Content[0].OfText.Text)

	// round trip back into turns
	turns := TurnsFromParams([]anthropic.MessageParam{param})
	assert.Equal(t, []model.Part{
		model.ToolUsePart{ID: "t1", Name: "read_file", Input: map[string]any{"path": "a.go"}},
	}, turns[0].Content.Parts())
}
