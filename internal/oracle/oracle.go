// Package oracle wraps the model API behind a small conversational surface.
// The model is instructed to answer tool requests with a bare JSON directive
// that the directive parser understands.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// DefaultModel is used when the configuration names none
const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

const maxTokens = 1024

// Oracle generates assistant turns for the chat loop
type Oracle struct {
	client anthropic.Client
	model  anthropic.Model
	system string
}

// New creates an oracle. The API key is read from the environment by the
// underlying client. An empty model selects DefaultModel.
func New(model string, tools []protocol.Tool) *Oracle {
	m := DefaultModel
	if model != "" {
		m = anthropic.Model(model)
	}
	return &Oracle{
		client: anthropic.NewClient(),
		model:  m,
		system: SystemPrompt(tools),
	}
}

// SystemPrompt builds the instruction that makes the model emit tool calls
// as bare JSON directives
func SystemPrompt(tools []protocol.Tool) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant.\n")
	b.WriteString("When a tool is needed, respond ONLY with JSON in this format:\n")
	b.WriteString(`{"tool": "tool_name", "arguments": {"arg_name": "value"}}` + "\n")
	b.WriteString("Use only the correct argument names shown below. Do not add any explanation or extra text.\n\n")
	b.WriteString("Available tools:\n")
	for _, tool := range tools {
		b.WriteString(fmt.Sprintf("- %s: %s\n", tool.Name, tool.Description))
		if tool.InputSchema != nil && len(tool.InputSchema.Properties) > 0 {
			names := make([]string, 0, len(tool.InputSchema.Properties))
			for name := range tool.InputSchema.Properties {
				names = append(names, name)
			}
			b.WriteString(fmt.Sprintf("  Required args: %s\n", strings.Join(names, ", ")))
		}
	}
	return b.String()
}

// Generate produces the next assistant turn for the conversation, returning
// the concatenated text content
func (o *Oracle) Generate(ctx context.Context, conversation []anthropic.MessageParam) (string, error) {
	msg, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     o.model,
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: o.system},
		},
		Messages: conversation,
	})
	if err != nil {
		return "", fmt.Errorf("model request: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
