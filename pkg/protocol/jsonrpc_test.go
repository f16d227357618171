package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRPCMessageClassification(t *testing.T) {
	request := &JSONRPCMessage{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`"1"`), Method: "ping"}
	assert.True(t, request.IsRequest())
	assert.False(t, request.IsNotification())

	notification := &JSONRPCMessage{JSONRPC: JSONRPCVersion, Method: "notifications/initialized"}
	assert.False(t, notification.IsRequest())
	assert.True(t, notification.IsNotification())

	response := &JSONRPCMessage{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`"1"`), Result: json.RawMessage(`{}`)}
	assert.False(t, response.IsRequest())
	assert.False(t, response.IsNotification())
}

func TestJSONRPCError(t *testing.T) {
	err := NewJSONRPCError(ErrorCodeInvalidParams, "bad params", map[string]string{"field": "numbers"})
	assert.Equal(t, ErrorCodeInvalidParams, err.Code)
	assert.Equal(t, "bad params", err.Error())
	assert.JSONEq(t, `{"field":"numbers"}`, string(err.Data))
}

func TestToolsCallResultText(t *testing.T) {
	result := &ToolsCallResult{
		Content: []ContentBlock{
			NewTextBlock("one"),
			{Type: "image", Data: "abc", MimeType: "image/png"},
			NewTextBlock("two"),
		},
	}
	assert.Equal(t, "one\ntwo", result.Text())

	errResult := NewErrorResult("boom")
	require.True(t, errResult.IsError)
	assert.Equal(t, "boom", errResult.Text())
}
