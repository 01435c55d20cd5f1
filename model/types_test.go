package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentZeroValueIsEmptyText(t *testing.T) {
	var turn Turn
	assert.True(t, turn.Content.IsText())
	assert.Equal(t, "", turn.Content.Text())
	assert.Nil(t, turn.Content.Parts())
}

func TestContentUnmarshalString(t *testing.T) {
	var turn Turn
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"list files"}`), &turn))

	assert.Equal(t, RoleUser, turn.Role)
	assert.True(t, turn.Content.IsText())
	assert.Equal(t, "list files", turn.Content.Text())
}

func TestContentUnmarshalBlocks(t *testing.T) {
	raw := `{"role":"user","content":[
		{"type":"text","text":"look"},
		{"type":"image","source":{"type":"base64","media_type":"image/png","data":"iVBORw0KGgo="}},
		{"type":"tool_use","id":"toolu_1","name":"read_file","input":{"path":"a.go"}},
		{"type":"tool_result","tool_use_id":"toolu_1","content":"package a"},
		{"type":"document"}
	]}`

	var turn Turn
	require.NoError(t, json.Unmarshal([]byte(raw), &turn))
	require.False(t, turn.Content.IsText())

	parts := turn.Content.Parts()
	require.Len(t, parts, 5)
	assert.Equal(t, TextPart{Text: "look"}, parts[0])
	assert.Equal(t, ImagePart{MediaType: "image/png", Data: "iVBORw0KGgo="}, parts[1])
	assert.Equal(t, ToolUsePart{ID: "toolu_1", Name: "read_file", Input: map[string]any{"path": "a.go"}}, parts[2])
	assert.Equal(t, ToolResultPart{ToolUseID: "toolu_1", Content: []Part{TextPart{Text: "package a"}}}, parts[3])
	assert.Equal(t, UnknownPart{Kind: "document"}, parts[4])
	assert.Equal(t, PartType("document"), parts[4].Type())
}

func TestContentUnmarshalNull(t *testing.T) {
	var turn Turn
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":null}`), &turn))
	assert.True(t, turn.Content.IsText())
	assert.Equal(t, "", turn.Content.Text())
}

func TestContentUnmarshalRejectsNumber(t *testing.T) {
	var turn Turn
	err := json.Unmarshal([]byte(`{"role":"user","content":42}`), &turn)
	assert.Error(t, err)
}

func TestContentMarshalKeepsShape(t *testing.T) {
	text, err := json.Marshal(UserTurn("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(text))

	parts, err := json.Marshal(Turn{
		Role: RoleAssistant,
		Content: PartsContent(
			TextPart{Text: ""},
			ToolUsePart{ID: "toolu_1", Name: "attempt_completion"},
		),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":[
		{"type":"text","text":""},
		{"type":"tool_use","id":"toolu_1","name":"attempt_completion","input":{}}
	]}`, string(parts))
}

func TestStripImages(t *testing.T) {
	in := []Part{
		TextPart{Text: "before"},
		ImagePart{MediaType: "image/jpeg", Data: "AAAA"},
		ToolResultPart{ToolUseID: "t1", Content: []Part{ImagePart{MediaType: "image/png", Data: "BBBB"}}},
	}

	out := StripImages(in)

	require.Len(t, out, 3)
	assert.Equal(t, TextPart{Text: "before"}, out[0])
	assert.Equal(t, ImagePart{MediaType: "image/jpeg"}, out[1])
	nested := out[2].(ToolResultPart)
	assert.Equal(t, ImagePart{MediaType: "image/png"}, nested.Content[0])

	// Input untouched.
	assert.Equal(t, "AAAA", in[1].(ImagePart).Data)
	assert.Equal(t, "BBBB", in[2].(ToolResultPart).Content[0].(ImagePart).Data)
}

func TestAsParts(t *testing.T) {
	assert.Nil(t, TextContent("").AsParts())
	assert.Equal(t, []Part{TextPart{Text: "x"}}, TextContent("x").AsParts())
	assert.Equal(t, []Part{}, PartsContent().AsParts())
}
