package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

func TestSystemPrompt(t *testing.T) {
	tools := []protocol.Tool{
		{
			Name:        "add",
			Description: "Add numbers",
			InputSchema: &protocol.JSONSchema{
				Type:       "object",
				Properties: map[string]*protocol.JSONSchema{"numbers": {Type: "array"}},
			},
		},
		{
			Name:        "evaluate_expression",
			Description: "Evaluate a math expression",
			InputSchema: &protocol.JSONSchema{
				Type:       "object",
				Properties: map[string]*protocol.JSONSchema{"expression": {Type: "string"}},
			},
		},
	}

	prompt := SystemPrompt(tools)

	assert.Contains(t, prompt, `{"tool": "tool_name", "arguments": {"arg_name": "value"}}`)
	assert.Contains(t, prompt, "- add: Add numbers")
	assert.Contains(t, prompt, "- evaluate_expression: Evaluate a math expression")
	assert.Contains(t, prompt, "numbers")
	assert.Contains(t, prompt, "expression")
}

func TestNewDefaultsModel(t *testing.T) {
	o := New("", nil)
	assert.Equal(t, DefaultModel, o.model)

	o = New("claude-3-5-haiku-latest", nil)
	assert.EqualValues(t, "claude-3-5-haiku-latest", o.model)
}
