// Package protocol provides the wire shapes and primitives shared by the
// host-side client and the worker-side server
package protocol

import (
	"encoding/json"
)

// JSON-RPC 2.0 error codes
const (
	ErrorCodeParseError     int = -32700
	ErrorCodeInvalidRequest int = -32600
	ErrorCodeMethodNotFound int = -32601
	ErrorCodeInvalidParams  int = -32602
	ErrorCodeInternalError  int = -32603
)

// JSONRPCVersion is the supported JSON-RPC protocol version
const JSONRPCVersion = "2.0"

// JSONRPCMessage represents a generic JSON-RPC message. A request carries
// Method and ID, a notification carries Method without ID, a response carries
// ID plus Result or Error.
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// IsRequest reports whether the message is a request expecting a response
func (m *JSONRPCMessage) IsRequest() bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether the message is a notification
func (m *JSONRPCMessage) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// JSONRPCError represents a JSON-RPC error object
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface
func (e *JSONRPCError) Error() string {
	return e.Message
}

// NewJSONRPCError creates a JSON-RPC error with an optional data payload
func NewJSONRPCError(code int, message string, data interface{}) *JSONRPCError {
	var dataJSON json.RawMessage
	if data != nil {
		if bytes, err := json.Marshal(data); err == nil {
			dataJSON = bytes
		}
	}
	return &JSONRPCError{
		Code:    code,
		Message: message,
		Data:    dataJSON,
	}
}
