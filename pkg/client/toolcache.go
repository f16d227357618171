package client

import (
	"context"
	"sort"
	"sync"

	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// ToolLister fetches the current tool catalog from the worker
type ToolLister func(ctx context.Context) ([]protocol.Tool, error)

// ToolCache holds the tool catalog retrieved from a worker. Lookups never
// touch the wire; Refresh replaces the whole catalog atomically.
type ToolCache struct {
	lister ToolLister

	mutex sync.RWMutex
	tools map[string]protocol.Tool
	order []string
}

// NewToolCache creates an empty cache backed by the given lister
func NewToolCache(lister ToolLister) *ToolCache {
	return &ToolCache{
		lister: lister,
		tools:  make(map[string]protocol.Tool),
	}
}

// Refresh fetches the catalog and swaps it in. On failure the previous
// catalog is kept untouched.
func (tc *ToolCache) Refresh(ctx context.Context) error {
	tools, err := tc.lister(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string]protocol.Tool, len(tools))
	order := make([]string, 0, len(tools))
	for _, tool := range tools {
		if _, dup := fresh[tool.Name]; dup {
			continue
		}
		fresh[tool.Name] = tool
		order = append(order, tool.Name)
	}

	tc.mutex.Lock()
	tc.tools = fresh
	tc.order = order
	tc.mutex.Unlock()
	return nil
}

// Get returns the named tool if present
func (tc *ToolCache) Get(name string) (protocol.Tool, bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	tool, ok := tc.tools[name]
	return tool, ok
}

// Has reports whether the named tool is in the catalog
func (tc *ToolCache) Has(name string) bool {
	_, ok := tc.Get(name)
	return ok
}

// Names returns the tool names in sorted order
func (tc *ToolCache) Names() []string {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	names := make([]string, len(tc.order))
	copy(names, tc.order)
	sort.Strings(names)
	return names
}

// All returns the cached tools in catalog order
func (tc *ToolCache) All() []protocol.Tool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	tools := make([]protocol.Tool, 0, len(tc.order))
	for _, name := range tc.order {
		tools = append(tools, tc.tools[name])
	}
	return tools
}

// Len returns the number of cached tools
func (tc *ToolCache) Len() int {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return len(tc.tools)
}
