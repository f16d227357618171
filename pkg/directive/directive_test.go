package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainDirective(t *testing.T) {
	req, err := Parse(`{"tool": "add", "arguments": {"numbers": [1, 2, 3]}}`)
	require.NoError(t, err)
	assert.Equal(t, "add", req.ToolName)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, req.Arguments["numbers"])
}

func TestParseToolNameKey(t *testing.T) {
	req, err := Parse(`{"tool_name": "divide", "arguments": {"numbers": [10, 2]}}`)
	require.NoError(t, err)
	assert.Equal(t, "divide", req.ToolName)
}

func TestParseFencedDirective(t *testing.T) {
	cases := map[string]string{
		"plain fence":      "```\n{\"tool\": \"add\", \"arguments\": {}}\n```",
		"json fence":       "```json\n{\"tool\": \"add\", \"arguments\": {}}\n```",
		"single line":      "```json {\"tool\": \"add\", \"arguments\": {}}```",
		"leading chatter":  "  \n```json\n{\"tool\": \"add\", \"arguments\": {}}\n```\n  ",
		"no closing fence": "```json\n{\"tool\": \"add\", \"arguments\": {}}",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, "add", req.ToolName)
			assert.NotNil(t, req.Arguments)
		})
	}
}

func TestParseEmptyArguments(t *testing.T) {
	req, err := Parse(`{"tool": "list", "arguments": {}}`)
	require.NoError(t, err)
	assert.Empty(t, req.Arguments)
}

func TestParseFailures(t *testing.T) {
	cases := map[string]struct {
		text   string
		reason string
	}{
		"empty":                {"", "empty directive"},
		"whitespace":           {"  \n\t ", "empty directive"},
		"plain prose":          {"The answer is 42.", "invalid JSON"},
		"array":                {`[1, 2, 3]`, "directive is not a JSON object"},
		"missing name":         {`{"arguments": {}}`, "missing tool name field"},
		"empty name":           {`{"tool": "", "arguments": {}}`, "missing tool name field"},
		"numeric name":         {`{"tool": 7, "arguments": {}}`, "missing tool name field"},
		"missing arguments":    {`{"tool": "add"}`, "missing arguments field"},
		"arguments not object": {`{"tool": "add", "arguments": [1, 2]}`, "arguments is not a JSON object"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := Parse(tc.text)
			require.Error(t, err)
			assert.Nil(t, req)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tc.reason, parseErr.Reason)
			assert.Equal(t, tc.text, parseErr.RawText, "raw text must be preserved verbatim")
		})
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFence(`{"a":1}`))
	assert.Equal(t, "plain text", StripFence("  plain text  "))
}
