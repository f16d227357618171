package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// fakeWorker is an in-process transport that scripts the remote side of the
// protocol: it answers initialize, tools/list and tools/call the way a
// well-behaved worker would.
type fakeWorker struct {
	tools map[string]func(args map[string]interface{}) *protocol.JSONRPCMessage

	incoming  chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	calls []string
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{
		tools:    make(map[string]func(args map[string]interface{}) *protocol.JSONRPCMessage),
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

func (w *fakeWorker) Send(ctx context.Context, data []byte) error {
	select {
	case <-w.done:
		return mcperrors.New(mcperrors.ChannelClosed, "transport closed")
	default:
	}

	var msg protocol.JSONRPCMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	w.mu.Lock()
	w.calls = append(w.calls, msg.Method)
	w.mu.Unlock()

	response := w.respond(&msg)
	if response == nil {
		return nil
	}
	out, err := json.Marshal(response)
	if err != nil {
		return err
	}
	w.incoming <- out
	return nil
}

func (w *fakeWorker) respond(msg *protocol.JSONRPCMessage) *protocol.JSONRPCMessage {
	if msg.IsNotification() {
		return nil
	}

	switch msg.Method {
	case protocol.MethodInitialize:
		result, _ := json.Marshal(&protocol.InitializeResult{
			ProtocolVersion: string(protocol.ProtocolVersion20250326),
			ServerInfo:      map[string]string{"name": "fake-worker"},
		})
		return &protocol.JSONRPCMessage{JSONRPC: protocol.JSONRPCVersion, ID: msg.ID, Result: result}

	case protocol.MethodToolsList:
		tools := make([]protocol.Tool, 0, len(w.tools))
		for name := range w.tools {
			tools = append(tools, protocol.Tool{Name: name, Description: name})
		}
		result, _ := json.Marshal(&protocol.ToolsListResult{Tools: tools})
		return &protocol.JSONRPCMessage{JSONRPC: protocol.JSONRPCVersion, ID: msg.ID, Result: result}

	case protocol.MethodToolsCall:
		var params protocol.ToolsCallParams
		_ = json.Unmarshal(msg.Params, &params)
		handler, ok := w.tools[params.Name]
		if !ok {
			return &protocol.JSONRPCMessage{
				JSONRPC: protocol.JSONRPCVersion,
				ID:      msg.ID,
				Error:   protocol.NewJSONRPCError(protocol.ErrorCodeInvalidParams, "unknown tool", nil),
			}
		}
		response := handler(params.Arguments)
		if response == nil {
			return nil
		}
		response.ID = msg.ID
		return response

	default:
		return &protocol.JSONRPCMessage{
			JSONRPC: protocol.JSONRPCVersion,
			ID:      msg.ID,
			Error:   protocol.NewJSONRPCError(protocol.ErrorCodeMethodNotFound, "method not found", nil),
		}
	}
}

func (w *fakeWorker) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
		return nil, mcperrors.New(mcperrors.ChannelClosed, "end of stream")
	case data := <-w.incoming:
		return data, nil
	}
}

func (w *fakeWorker) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	return nil
}

// resultResponse scripts a successful tools/call answer
func resultResponse(text string, isError bool) func(map[string]interface{}) *protocol.JSONRPCMessage {
	return func(map[string]interface{}) *protocol.JSONRPCMessage {
		result, _ := json.Marshal(&protocol.ToolsCallResult{
			Content: []protocol.ContentBlock{protocol.NewTextBlock(text)},
			IsError: isError,
		})
		return &protocol.JSONRPCMessage{JSONRPC: protocol.JSONRPCVersion, Result: result}
	}
}

func (w *fakeWorker) calledMethods() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.calls))
	copy(out, w.calls)
	return out
}

func connectedClient(t *testing.T, worker *fakeWorker) *Client {
	t.Helper()

	c := NewClient(worker, WithClientID("test-client"))
	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Tools().Refresh(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientInitialize(t *testing.T) {
	worker := newFakeWorker()
	c := connectedClient(t, worker)

	assert.True(t, c.Session().IsReady())
	assert.Equal(t, "fake-worker", c.Session().ServerInfo["name"])
	assert.Contains(t, worker.calledMethods(), protocol.MethodInitialize)
	assert.Contains(t, worker.calledMethods(), protocol.MethodInitialized)
}

func TestClientInitializeTwiceFails(t *testing.T) {
	worker := newFakeWorker()
	c := connectedClient(t, worker)

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.Handshake))
}

func TestClientToolCacheRefresh(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["add"] = resultResponse("ok", false)
	worker.tools["divide"] = resultResponse("ok", false)

	c := connectedClient(t, worker)

	assert.Equal(t, 2, c.Tools().Len())
	assert.Equal(t, []string{"add", "divide"}, c.Tools().Names())
	assert.True(t, c.Tools().Has("add"))
	assert.False(t, c.Tools().Has("subtract"))
}

func TestClientExecuteUnknownToolSkipsWire(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["add"] = resultResponse("ok", false)

	c := connectedClient(t, worker)
	before := len(worker.calledMethods())

	_, err := c.Execute(context.Background(), protocol.CallRequest{ToolName: "subtract"})
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.UnknownTool))
	assert.Contains(t, err.Error(), "add", "error should list the valid names")

	// No wire traffic for a name that failed validation
	assert.Len(t, worker.calledMethods(), before)
}

func TestClientExecuteSuccess(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["add"] = resultResponse("add: [1 2] -> 3", false)

	c := connectedClient(t, worker)

	result, err := c.Execute(context.Background(), protocol.CallRequest{
		ToolName:  "add",
		Arguments: map[string]interface{}{"numbers": []float64{1, 2}},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "add: [1 2] -> 3", result.Text())
}

func TestClientExecuteWorkerErrorResult(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["divide"] = resultResponse("division by zero", true)

	c := connectedClient(t, worker)

	// An isError result is a successful call carrying an explanation
	result, err := c.Execute(context.Background(), protocol.CallRequest{
		ToolName:  "divide",
		Arguments: map[string]interface{}{"numbers": []float64{1, 0}},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "division by zero", result.Text())
}

func TestClientExecuteRemoteErrorBecomesText(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["broken"] = func(map[string]interface{}) *protocol.JSONRPCMessage {
		return &protocol.JSONRPCMessage{
			JSONRPC: protocol.JSONRPCVersion,
			Error:   protocol.NewJSONRPCError(protocol.ErrorCodeInternalError, "handler exploded", nil),
		}
	}

	c := connectedClient(t, worker)

	result, err := c.Execute(context.Background(), protocol.CallRequest{ToolName: "broken"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text(), "handler exploded")
}

func TestClientCallToolRemoteError(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["broken"] = func(map[string]interface{}) *protocol.JSONRPCMessage {
		return &protocol.JSONRPCMessage{
			JSONRPC: protocol.JSONRPCVersion,
			Error:   protocol.NewJSONRPCError(protocol.ErrorCodeInternalError, "handler exploded", nil),
		}
	}

	c := connectedClient(t, worker)

	_, err := c.CallTool(context.Background(), "broken", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.Remote))
}

func TestClientCloseReleasesCallers(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["slow"] = func(map[string]interface{}) *protocol.JSONRPCMessage {
		return nil // never answers
	}

	c := connectedClient(t, worker)

	done := make(chan error, 1)
	go func() {
		_, err := c.CallTool(context.Background(), "slow", nil)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, mcperrors.IsCode(err, mcperrors.ChannelClosed))
	case <-time.After(time.Second):
		t.Fatal("pending call was not released by Close")
	}
}

func TestToolCacheReadsSkipWire(t *testing.T) {
	worker := newFakeWorker()
	worker.tools["add"] = resultResponse("ok", false)

	c := connectedClient(t, worker)
	before := len(worker.calledMethods())

	// Reads are served from the cache; only an explicit Refresh goes out
	c.Tools().Get("add")
	c.Tools().Names()
	c.Tools().All()
	assert.Len(t, worker.calledMethods(), before)

	require.NoError(t, c.Tools().Refresh(context.Background()))
	assert.Len(t, worker.calledMethods(), before+1)
}

func TestToolCacheKeepsOldCatalogOnFailure(t *testing.T) {
	calls := 0
	cache := NewToolCache(func(ctx context.Context) ([]protocol.Tool, error) {
		calls++
		if calls > 1 {
			return nil, mcperrors.New(mcperrors.ChannelClosed, "gone")
		}
		return []protocol.Tool{{Name: "add"}}, nil
	})

	require.NoError(t, cache.Refresh(context.Background()))
	require.Error(t, cache.Refresh(context.Background()))

	// First catalog survives the failed refresh
	assert.True(t, cache.Has("add"))
	assert.Equal(t, 1, cache.Len())
}
