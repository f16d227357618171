// Package client provides the host-side session used to discover and invoke
// tools exposed by a worker process.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// Client owns one protocol session with a worker. It performs the handshake,
// caches the worker's tool catalog, and is the single validated entry point
// for executing a tool call.
type Client struct {
	// Client ID sent during the handshake
	ID string

	// Client information sent during the handshake
	Info map[string]string

	transport protocol.Transport
	conn      *protocol.Conn
	session   *protocol.Session
	tools     *ToolCache

	loggerFactory *logging.LoggerFactory
	logger        *slog.Logger
}

// NewClient creates a new client over an existing transport
func NewClient(transport protocol.Transport, options ...ClientOption) *Client {
	client := &Client{
		ID:        uuid.New().String(),
		Info:      make(map[string]string),
		transport: transport,
	}

	for _, option := range options {
		option(client)
	}

	if client.loggerFactory == nil {
		client.loggerFactory = logging.NewLoggerFactory()
	}
	client.logger = client.loggerFactory.CreateLogger("client")

	client.conn = protocol.NewConn(transport, client)
	client.session = protocol.NewSession(client.conn)
	client.tools = NewToolCache(client.listTools)

	return client
}

// HandleRequest implements the RPCHandler interface for requests initiated
// by the worker. None are supported today.
func (c *Client) HandleRequest(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	return nil, &protocol.JSONRPCError{
		Code:    protocol.ErrorCodeMethodNotFound,
		Message: "method not implemented: " + method,
	}
}

// Session returns the underlying session
func (c *Client) Session() *protocol.Session {
	return c.session
}

// Tools returns the cached tool catalog
func (c *Client) Tools() *ToolCache {
	return c.tools
}

// Initialize performs the handshake. It must complete before any list/call
// operation; a failure leaves the session closed.
func (c *Client) Initialize(ctx context.Context) error {
	if state := c.session.GetState(); state != protocol.SessionStateUnopened {
		return mcperrors.Newf(mcperrors.Handshake, "handshake already attempted (session %s)", state)
	}
	c.session.SetState(protocol.SessionStateHandshaking)

	c.conn.Start()

	params := &protocol.InitializeParams{
		ProtocolVersion: string(protocol.ProtocolVersion20250326),
		ClientID:        c.ID,
		ClientInfo:      c.Info,
		Capabilities:    map[string]protocol.CapabilityDefinition{"tools": {}},
	}

	rawResult, err := c.conn.Call(ctx, protocol.MethodInitialize, params)
	if err != nil {
		c.session.SetState(protocol.SessionStateClosed)
		if mcperrors.IsCode(err, mcperrors.ChannelClosed) {
			return err
		}
		return mcperrors.New(mcperrors.Handshake, "initialize rejected").WithCause(err)
	}

	result := &protocol.InitializeResult{}
	if err := json.Unmarshal(rawResult, result); err != nil {
		c.session.SetState(protocol.SessionStateClosed)
		return mcperrors.New(mcperrors.Handshake, "decode initialize result").WithCause(err)
	}

	c.session.ServerInfo = result.ServerInfo
	c.session.ServerCapabilities = result.Capabilities
	c.session.SetState(protocol.SessionStateReady)

	if err := c.session.Notify(ctx, protocol.MethodInitialized, nil); err != nil {
		c.session.SetState(protocol.SessionStateClosed)
		return mcperrors.New(mcperrors.Handshake, "send initialized notification").WithCause(err)
	}

	logging.Debug(c.logger, "session ready", "server", result.ServerInfo["name"])
	return nil
}

// listTools queries the worker for its tool catalog
func (c *Client) listTools(ctx context.Context) ([]protocol.Tool, error) {
	rawResult, err := c.session.Call(ctx, protocol.MethodToolsList, protocol.ToolsListParams{})
	if err != nil {
		return nil, err
	}

	result := &protocol.ToolsListResult{}
	if err := json.Unmarshal(rawResult, result); err != nil {
		return nil, mcperrors.New(mcperrors.Protocol, "decode tools/list result").
			WithCause(err).
			WithDetails(string(rawResult))
	}

	return result.Tools, nil
}

// CallTool invokes a tool on the worker without client-side validation.
// A worker-reported failure surfaces as a Remote error; an undecodable
// response as a Protocol error.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*protocol.ToolsCallResult, error) {
	params := protocol.ToolsCallParams{
		Name:      name,
		Arguments: arguments,
	}

	rawResult, err := c.session.Call(ctx, protocol.MethodToolsCall, params)
	if err != nil {
		var rpcErr *protocol.JSONRPCError
		if errors.As(err, &rpcErr) {
			return nil, mcperrors.Newf(mcperrors.Remote, "tool %s failed: %s", name, rpcErr.Message).WithCause(rpcErr)
		}
		return nil, err
	}

	result := &protocol.ToolsCallResult{}
	if err := json.Unmarshal(rawResult, result); err != nil {
		return nil, mcperrors.Newf(mcperrors.Protocol, "decode tools/call result for %s", name).
			WithCause(err).
			WithDetails(string(rawResult))
	}

	return result, nil
}

// Execute validates a call request against the cached catalog and runs it.
// An unknown tool fails before any wire traffic, listing the valid names.
// A worker-reported failure comes back as a result with an explanatory text
// block; channel and protocol failures propagate because the worker is
// unusable, not just this call.
func (c *Client) Execute(ctx context.Context, req protocol.CallRequest) (*protocol.ToolsCallResult, error) {
	if _, ok := c.tools.Get(req.ToolName); !ok {
		names := c.tools.Names()
		return nil, mcperrors.Newf(mcperrors.UnknownTool,
			"unknown tool %q (available: %s)", req.ToolName, strings.Join(names, ", ")).
			WithDetails(names)
	}

	result, err := c.CallTool(ctx, req.ToolName, req.Arguments)
	if err != nil {
		if mcperrors.IsCode(err, mcperrors.Remote) {
			return protocol.NewErrorResult(fmt.Sprintf("tool %s failed: %v", req.ToolName, err)), nil
		}
		return nil, err
	}
	return result, nil
}

// Close closes the session and the transport, releasing every pending caller
func (c *Client) Close() error {
	c.session.Close()

	var err error
	if c.transport != nil {
		err = c.transport.Close()
	}
	c.conn.Stop()
	return err
}
