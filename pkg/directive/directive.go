// Package directive converts the language oracle's loosely formatted text
// into a structured tool-call request.
package directive

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// ParseError reports a directive that could not be decoded. RawText always
// preserves the original input verbatim so an operator (or retry logic) can
// see exactly what the oracle produced.
type ParseError struct {
	Reason  string
	RawText string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse directive: %s", e.Reason)
}

func newParseError(raw string, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Reason:  fmt.Sprintf(format, args...),
		RawText: raw,
	}
}

// StripFence removes an optional markdown code fence wrapping the payload:
// an optional leading fence line (``` or ```json), and an optional trailing
// fence line. Anything else passes through untouched.
func StripFence(text string) string {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			// Single-line fence: drop the marker and an optional language tag.
			s = strings.TrimPrefix(s, "```")
			s = strings.TrimPrefix(strings.TrimSpace(s), "json")
		}
	}

	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}

	return strings.TrimSpace(s)
}

// Parse decodes a directive into a CallRequest. The directive must contain a
// JSON object with a tool-name field ("tool_name" or "tool") and an
// "arguments" object, optionally wrapped in a code fence. No semantic
// validation of the tool name or arguments happens here.
func Parse(text string) (*protocol.CallRequest, error) {
	payload := StripFence(text)

	if payload == "" {
		return nil, newParseError(text, "empty directive")
	}
	if !gjson.Valid(payload) {
		return nil, newParseError(text, "invalid JSON")
	}

	root := gjson.Parse(payload)
	if !root.IsObject() {
		return nil, newParseError(text, "directive is not a JSON object")
	}

	name := root.Get("tool_name")
	if !name.Exists() {
		name = root.Get("tool")
	}
	if !name.Exists() || name.Type != gjson.String || name.String() == "" {
		return nil, newParseError(text, "missing tool name field")
	}

	args := root.Get("arguments")
	if !args.Exists() {
		return nil, newParseError(text, "missing arguments field")
	}
	if !args.IsObject() {
		return nil, newParseError(text, "arguments is not a JSON object")
	}

	arguments := make(map[string]interface{})
	if err := json.Unmarshal([]byte(args.Raw), &arguments); err != nil {
		return nil, newParseError(text, "decode arguments: %v", err)
	}

	return &protocol.CallRequest{
		ToolName:  name.String(),
		Arguments: arguments,
	}, nil
}
