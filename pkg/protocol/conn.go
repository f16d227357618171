package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
	"github.com/calcbridge/go-mcp-host/internal/logging"
)

// RPCHandler handles incoming RPC requests on a connection
type RPCHandler interface {
	// HandleRequest handles one RPC request or notification
	HandleRequest(ctx context.Context, method string, params json.RawMessage) (interface{}, error)
}

// Conn manages JSON-RPC message exchange over a Transport. It correlates
// each response to the caller awaiting its request identifier, so responses
// may arrive in any order relative to issuance. When the underlying channel
// fails, every pending caller is released with a ChannelClosed error and all
// later calls fail immediately instead of hanging.
type Conn struct {
	transport  Transport
	handler    RPCHandler
	pending    map[string]chan *JSONRPCMessage
	pendingMux sync.Mutex
	closed     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewConn creates a new connection over the given transport. The handler
// receives requests initiated by the remote side and may be nil for a pure
// caller.
func NewConn(transport Transport, handler RPCHandler) *Conn {
	factory := logging.NewLoggerFactory()
	return &Conn{
		transport: transport,
		handler:   handler,
		pending:   make(map[string]chan *JSONRPCMessage),
		closed:    make(chan struct{}),
		logger:    factory.CreateLogger("conn"),
	}
}

// Start starts the receive loop
func (c *Conn) Start() {
	c.wg.Add(1)
	go c.receiveLoop()
}

// Stop releases all pending callers and waits for the receive loop to exit.
// The transport must be closed first so the blocked Receive returns.
func (c *Conn) Stop() {
	c.fail()
	c.wg.Wait()
}

// Closed returns a channel that is closed once the connection has failed or
// been stopped
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// fail marks the connection closed, releasing every caller blocked in Call
func (c *Conn) fail() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// receiveLoop blocks on the transport and dispatches each message by kind
func (c *Conn) receiveLoop() {
	defer c.wg.Done()
	defer c.fail()

	for {
		data, err := c.transport.Receive(context.Background())
		if err != nil {
			// End-of-stream or framing failure: the channel is gone for good.
			if !mcperrors.IsCode(err, mcperrors.ChannelClosed) {
				logging.Warn(c.logger, "receive failed", "error", err)
			}
			return
		}

		var message JSONRPCMessage
		if err := json.Unmarshal(data, &message); err != nil {
			logging.Warn(c.logger, "discarding undecodable message", "error", err, "payload", string(data))
			continue
		}

		switch {
		case message.IsRequest():
			go c.handleRequest(context.Background(), &message)
		case message.IsNotification():
			go c.handleNotification(context.Background(), &message)
		default:
			c.handleResponse(&message)
		}
	}
}

// handleRequest runs the handler and writes the response
func (c *Conn) handleRequest(ctx context.Context, msg *JSONRPCMessage) {
	if c.handler == nil {
		c.sendErrorResponse(ctx, msg.ID, ErrorCodeMethodNotFound, "method not found: "+msg.Method, nil)
		return
	}

	result, err := c.handler.HandleRequest(ctx, msg.Method, msg.Params)
	if err != nil {
		code := ErrorCodeInternalError
		message := err.Error()
		if rpcErr, ok := err.(*JSONRPCError); ok {
			code = rpcErr.Code
			message = rpcErr.Message
		}
		c.sendErrorResponse(ctx, msg.ID, code, message, nil)
		return
	}

	c.sendResponse(ctx, msg.ID, result)
}

// handleNotification runs the handler without sending a response
func (c *Conn) handleNotification(ctx context.Context, msg *JSONRPCMessage) {
	if c.handler == nil {
		return
	}
	_, _ = c.handler.HandleRequest(ctx, msg.Method, msg.Params)
}

// handleResponse resumes the caller registered under the response identifier.
// Responses for unknown identifiers are dropped: the caller already gave up.
func (c *Conn) handleResponse(msg *JSONRPCMessage) {
	var idStr string
	if err := json.Unmarshal(msg.ID, &idStr); err != nil {
		logging.Warn(c.logger, "response with undecodable id", "id", string(msg.ID))
		return
	}

	c.pendingMux.Lock()
	ch, exists := c.pending[idStr]
	if exists {
		delete(c.pending, idStr)
	}
	c.pendingMux.Unlock()

	if exists {
		ch <- msg
	}
}

// Call sends an RPC request and waits for its matched response. A remote
// error object is returned as a *JSONRPCError; channel failure, before or
// during the wait, yields a ChannelClosed error.
func (c *Conn) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	select {
	case <-c.closed:
		return nil, mcperrors.Newf(mcperrors.ChannelClosed, "call %s: connection closed", method)
	default:
	}

	id := uuid.New().String()
	request := &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      json.RawMessage(`"` + id + `"`),
		Method:  method,
	}

	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params for %s: %w", method, err)
		}
		request.Params = paramsJSON
	}

	responseCh := make(chan *JSONRPCMessage, 1)
	c.pendingMux.Lock()
	c.pending[id] = responseCh
	c.pendingMux.Unlock()

	requestJSON, err := json.Marshal(request)
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("marshal request %s: %w", method, err)
	}

	if err := c.transport.Send(ctx, requestJSON); err != nil {
		c.forget(id)
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.closed:
		// The matched response may have been delivered just before the
		// channel failed; it still belongs to this caller.
		select {
		case response := <-responseCh:
			return unpackResponse(response)
		default:
		}
		c.forget(id)
		return nil, mcperrors.Newf(mcperrors.ChannelClosed, "call %s: connection closed", method)
	case response := <-responseCh:
		return unpackResponse(response)
	}
}

// unpackResponse splits a matched response into its result or remote error
func unpackResponse(response *JSONRPCMessage) (json.RawMessage, error) {
	if response.Error != nil {
		return nil, response.Error
	}
	return response.Result, nil
}

// Notify sends an RPC notification without waiting for a response
func (c *Conn) Notify(ctx context.Context, method string, params interface{}) error {
	select {
	case <-c.closed:
		return mcperrors.Newf(mcperrors.ChannelClosed, "notify %s: connection closed", method)
	default:
	}

	notification := &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		Method:  method,
	}

	if params != nil {
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params for %s: %w", method, err)
		}
		notification.Params = paramsJSON
	}

	notificationJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", method, err)
	}

	return c.transport.Send(ctx, notificationJSON)
}

func (c *Conn) forget(id string) {
	c.pendingMux.Lock()
	delete(c.pending, id)
	c.pendingMux.Unlock()
}

// sendErrorResponse sends an error response
func (c *Conn) sendErrorResponse(ctx context.Context, id json.RawMessage, code int, message string, data interface{}) {
	response := &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   NewJSONRPCError(code, message, data),
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return
	}
	_ = c.transport.Send(ctx, responseJSON)
}

// sendResponse sends a response with a result
func (c *Conn) sendResponse(ctx context.Context, id json.RawMessage, result interface{}) {
	response := &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
	}

	if result != nil {
		resultJSON, err := json.Marshal(result)
		if err != nil {
			c.sendErrorResponse(ctx, id, ErrorCodeInternalError, "internal error", nil)
			return
		}
		response.Result = resultJSON
	} else {
		response.Result = json.RawMessage("null")
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return
	}
	_ = c.transport.Send(ctx, responseJSON)
}
