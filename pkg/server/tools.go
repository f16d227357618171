package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// ToolHandler executes one tool call. The arguments have already been
// validated against the tool's input schema when the handler runs.
type ToolHandler func(ctx context.Context, arguments map[string]interface{}) (*protocol.ToolsCallResult, error)

// Tool pairs a tool definition with its handler
type Tool struct {
	protocol.Tool

	Handler ToolHandler `json:"-"`
}

// NewTool creates a tool from its definition and handler
func NewTool(name, description string, inputSchema *protocol.JSONSchema, handler ToolHandler) *Tool {
	return &Tool{
		Tool: protocol.Tool{
			Name:        name,
			Description: description,
			InputSchema: inputSchema,
		},
		Handler: handler,
	}
}

// ToolSet manages the registration and lookup of tools
type ToolSet struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewToolSet creates an empty tool set
func NewToolSet() *ToolSet {
	return &ToolSet{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the set
func (ts *ToolSet) Register(tool *Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.tools[tool.Name]; exists {
		return fmt.Errorf("tool with name %s already exists", tool.Name)
	}

	ts.tools[tool.Name] = tool
	return nil
}

// Get returns a tool by name
func (ts *ToolSet) Get(name string) (*Tool, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	tool, exists := ts.tools[name]
	return tool, exists
}

// List returns the registered tool definitions sorted by name
func (ts *ToolSet) List() []protocol.Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.tools))
	for name := range ts.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]protocol.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, ts.tools[name].Tool)
	}
	return tools
}

// Count returns the number of registered tools
func (ts *ToolSet) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.tools)
}

// toolsEndpoint exposes the tool set over the "tools" namespace
type toolsEndpoint struct {
	*protocol.BaseEndpoint
	set *ToolSet
}

func newToolsEndpoint(set *ToolSet) *toolsEndpoint {
	e := &toolsEndpoint{
		BaseEndpoint: protocol.NewBaseEndpoint("tools"),
		set:          set,
	}
	e.RegisterMethod(protocol.MethodName(protocol.MethodToolsList), e.handleList)
	e.RegisterMethod(protocol.MethodName(protocol.MethodToolsCall), e.handleCall)
	return e
}

func (e *toolsEndpoint) handleList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return &protocol.ToolsListResult{Tools: e.set.List()}, nil
}

// handleCall runs a tool. Bad requests (unknown tool, arguments that fail
// schema validation) and handler errors all come back as isError results
// rather than RPC errors, so the caller always gets content to show.
func (e *toolsEndpoint) handleCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var callParams protocol.ToolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &protocol.JSONRPCError{
			Code:    protocol.ErrorCodeInvalidParams,
			Message: "invalid tools/call params: " + err.Error(),
		}
	}

	tool, exists := e.set.Get(callParams.Name)
	if !exists {
		return protocol.NewErrorResult(fmt.Sprintf("unknown tool: %s", callParams.Name)), nil
	}

	if tool.InputSchema != nil {
		if msg, ok := validateArguments(tool.InputSchema, callParams.Arguments); !ok {
			return protocol.NewErrorResult(fmt.Sprintf("invalid arguments for %s: %s", callParams.Name, msg)), nil
		}
	}

	result, err := tool.Handler(ctx, callParams.Arguments)
	if err != nil {
		return protocol.NewErrorResult(fmt.Sprintf("%s: %v", callParams.Name, err)), nil
	}
	return result, nil
}

// validateArguments checks the arguments against the tool's input schema
// and returns a human-readable reason on failure
func validateArguments(schema *protocol.JSONSchema, arguments map[string]interface{}) (string, bool) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "schema not serializable: " + err.Error(), false
	}

	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(arguments),
	)
	if err != nil {
		return err.Error(), false
	}
	if result.Valid() {
		return "", true
	}

	msg := ""
	for i, desc := range result.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += desc.String()
	}
	return msg, false
}
