// Package server provides the worker-side implementation of the tool
// protocol: it answers the handshake, publishes a tool catalog, and executes
// validated tool calls received over a transport.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// Server answers tool protocol requests from a host process
type Server struct {
	// Server ID
	ID string

	// Server information sent in the initialize result
	Info map[string]string

	// Server version
	Version string

	// Server name
	Name string

	// Supported protocol versions
	SupportedVersions []protocol.ProtocolVersion

	// Endpoint registry for RPC method routing
	endpointRegistry *protocol.EndpointRegistry

	// Transport registry for communication
	transportRegistry *protocol.TransportRegistry

	// Registered tools
	tools *ToolSet

	// Active sessions
	sessions      map[string]*protocol.Session
	sessionsMutex sync.RWMutex

	// Session of the most recent connection; the handshake handlers
	// operate on it. Workers serve one host over stdio, so there is at
	// most one live session at a time.
	current *protocol.Session

	conns []*protocol.Conn

	logger        *slog.Logger
	loggerFactory *logging.LoggerFactory
}

// NewServer creates a new server
func NewServer(options ...ServerOption) *Server {
	server := &Server{
		ID:                uuid.New().String(),
		Info:              make(map[string]string),
		Name:              "tool-server",
		Version:           "1.0.0",
		SupportedVersions: []protocol.ProtocolVersion{protocol.ProtocolVersion20250326, protocol.ProtocolVersion20241105},
		endpointRegistry:  protocol.NewEndpointRegistry(),
		transportRegistry: protocol.DefaultTransportRegistry,
		tools:             NewToolSet(),
		sessions:          make(map[string]*protocol.Session),
		loggerFactory:     logging.NewLoggerFactory(),
	}
	server.logger = server.loggerFactory.CreateLogger("server")

	for _, option := range options {
		option(server)
	}

	server.logger = server.loggerFactory.CreateLogger("server")

	server.Info["name"] = server.Name
	server.Info["version"] = server.Version

	// Base endpoint: handshake and liveness
	baseEndpoint := protocol.NewBaseEndpoint("")
	baseEndpoint.RegisterMethod(protocol.MethodInitialize, server.handleInitialize)
	baseEndpoint.RegisterMethod(protocol.MethodPing, server.handlePing)
	baseEndpoint.RegisterNotification(protocol.MethodName(protocol.MethodInitialized), server.handleInitialized)
	server.endpointRegistry.RegisterEndpoint(baseEndpoint)

	server.endpointRegistry.RegisterEndpoint(newToolsEndpoint(server.tools))

	return server
}

// Tools returns the server's tool set
func (s *Server) Tools() *ToolSet {
	return s.tools
}

// RegisterEndpoint registers an additional endpoint
func (s *Server) RegisterEndpoint(endpoint protocol.Endpoint) {
	s.endpointRegistry.RegisterEndpoint(endpoint)
}

// HandleConnection starts serving a transport and returns its connection
func (s *Server) HandleConnection(transport protocol.Transport) *protocol.Conn {
	conn := protocol.NewConn(transport, s)
	session := protocol.NewSession(conn)
	session.ServerInfo = s.Info

	s.sessionsMutex.Lock()
	s.sessions[session.ID] = session
	s.current = session
	s.conns = append(s.conns, conn)
	s.sessionsMutex.Unlock()

	conn.Start()
	logging.Debug(s.logger, "connection started", "session", session.ID)
	return conn
}

// Serve creates the named transport, serves it, and blocks until the
// connection or the context ends
func (s *Server) Serve(ctx context.Context, transportType string) error {
	transport, err := s.transportRegistry.Create(ctx, transportType, nil)
	if err != nil {
		return err
	}

	conn := s.HandleConnection(transport)

	select {
	case <-ctx.Done():
	case <-conn.Closed():
	}

	err = transport.Close()
	conn.Stop()
	return err
}

// HandleRequest implements the RPCHandler interface by delegating to the
// endpoint registry
func (s *Server) HandleRequest(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	return s.endpointRegistry.HandleRequest(ctx, method, params)
}

// GetSession returns a session by ID
func (s *Server) GetSession(id string) (*protocol.Session, bool) {
	s.sessionsMutex.RLock()
	defer s.sessionsMutex.RUnlock()
	session, exists := s.sessions[id]
	return session, exists
}

func (s *Server) currentSession() *protocol.Session {
	s.sessionsMutex.RLock()
	defer s.sessionsMutex.RUnlock()
	return s.current
}

// Base endpoint handlers

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var initParams protocol.InitializeParams
	if err := json.Unmarshal(params, &initParams); err != nil {
		return nil, &protocol.JSONRPCError{
			Code:    protocol.ErrorCodeParseError,
			Message: "parse error: " + err.Error(),
		}
	}

	session := s.currentSession()
	if session == nil {
		return nil, &protocol.JSONRPCError{
			Code:    protocol.ErrorCodeInternalError,
			Message: "internal error: no active session",
		}
	}

	if state := session.GetState(); state != protocol.SessionStateUnopened {
		return nil, &protocol.JSONRPCError{
			Code:    protocol.ErrorCodeInvalidRequest,
			Message: "session already initialized",
		}
	}

	// Fall back to the newest supported version when the client asks for
	// one we do not speak
	version := protocol.ProtocolVersion(initParams.ProtocolVersion)
	if !slices.Contains(s.SupportedVersions, version) {
		logging.Warn(s.logger, "unsupported client protocol version", "version", initParams.ProtocolVersion)
		version = s.SupportedVersions[0]
	}

	session.ClientInfo = initParams.ClientInfo
	session.ClientCapabilities = initParams.Capabilities
	session.SetState(protocol.SessionStateHandshaking)

	logging.Debug(s.logger, "initialize", "client", initParams.ClientID, "version", string(version))

	return &protocol.InitializeResult{
		ProtocolVersion: string(version),
		ServerInfo:      s.Info,
		Capabilities: map[string]protocol.CapabilityDefinition{
			"tools": {},
		},
	}, nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return map[string]interface{}{}, nil
}

func (s *Server) handleInitialized(ctx context.Context, params json.RawMessage) (interface{}, error) {
	session := s.currentSession()
	if session == nil {
		return nil, nil
	}

	if session.GetState() != protocol.SessionStateHandshaking {
		logging.Warn(s.logger, "initialized notification outside handshake", "state", session.GetState().String())
		return nil, nil
	}

	session.SetState(protocol.SessionStateReady)
	logging.Debug(s.logger, "session ready", "session", session.ID)
	return nil, nil
}
