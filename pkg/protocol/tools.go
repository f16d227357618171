package protocol

// Method names exchanged between host and worker
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// Tool describes one invocable operation exposed by a worker
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema *JSONSchema `json:"inputSchema,omitempty"`
}

// ToolsListParams represents the parameters for a tools/list request
type ToolsListParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ToolsListResult represents the result of a tools/list request
type ToolsListResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ToolsCallParams represents the parameters for a tools/call request
type ToolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Content block types. Only text is produced today; the tag leaves room for
// other payload kinds.
const (
	ContentTypeText = "text"
)

// ContentBlock is one tagged content item in a tool result
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// NewTextBlock creates a text content block
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{
		Type: ContentTypeText,
		Text: text,
	}
}

// ToolsCallResult represents the result of a tools/call request
type ToolsCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// NewTextResult creates a successful result holding a single text block
func NewTextResult(text string) *ToolsCallResult {
	return &ToolsCallResult{
		Content: []ContentBlock{NewTextBlock(text)},
	}
}

// NewErrorResult creates a failed result holding a single explanatory text block
func NewErrorResult(text string) *ToolsCallResult {
	return &ToolsCallResult{
		Content: []ContentBlock{NewTextBlock(text)},
		IsError: true,
	}
}

// Text joins the text content blocks of the result, one per line
func (r *ToolsCallResult) Text() string {
	var out string
	for _, block := range r.Content {
		if block.Type != ContentTypeText {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += block.Text
	}
	return out
}

// CallRequest is a structured, not-yet-validated tool invocation. It is
// produced by the directive parser (or built directly by a caller) and
// consumed exactly once by the host's dispatch path.
type CallRequest struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
}
