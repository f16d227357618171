package protocol

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
)

// ProtocolVersion identifies a protocol revision negotiated at handshake
type ProtocolVersion string

// Protocol versions supported
const (
	ProtocolVersion20241105 ProtocolVersion = "2024-11-05"
	ProtocolVersion20250326 ProtocolVersion = "2025-03-26"
)

// SessionState represents the state of a session.
// Transitions: Unopened -> Handshaking -> Ready -> Closed, with Closed
// reachable from any state on channel failure.
type SessionState int

const (
	// SessionStateUnopened represents a session whose handshake has not started
	SessionStateUnopened SessionState = iota
	// SessionStateHandshaking represents a session negotiating the handshake
	SessionStateHandshaking
	// SessionStateReady represents a session accepting list/call operations
	SessionStateReady
	// SessionStateClosed represents a finished session
	SessionStateClosed
)

// String returns a textual representation of the session state
func (s SessionState) String() string {
	switch s {
	case SessionStateUnopened:
		return "unopened"
	case SessionStateHandshaking:
		return "handshaking"
	case SessionStateReady:
		return "ready"
	case SessionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CapabilityDefinition carries the opaque option payload for one negotiated capability
type CapabilityDefinition struct {
	Options json.RawMessage `json:"options,omitempty"`
}

// InitializeParams represents the handshake request parameters
type InitializeParams struct {
	ProtocolVersion string                          `json:"protocolVersion"`
	ClientID        string                          `json:"clientId"`
	ClientInfo      map[string]string               `json:"clientInfo,omitempty"`
	Capabilities    map[string]CapabilityDefinition `json:"capabilities"`
}

// InitializeResult represents the handshake acknowledgment
type InitializeResult struct {
	ProtocolVersion string                          `json:"protocolVersion"`
	ServerInfo      map[string]string               `json:"serverInfo,omitempty"`
	Capabilities    map[string]CapabilityDefinition `json:"capabilities"`
	Instructions    string                          `json:"instructions,omitempty"`
}

// Session is the live handshake state between one side and its peer. All
// list/call traffic flows through the session so that the state machine can
// refuse operations outside Ready.
type Session struct {
	ID    string
	State SessionState
	mutex sync.RWMutex
	conn  *Conn

	// Peer data captured during the handshake
	ClientID           string
	ClientInfo         map[string]string
	ClientCapabilities map[string]CapabilityDefinition

	ServerInfo         map[string]string
	ServerCapabilities map[string]CapabilityDefinition

	CreatedAt    time.Time
	LastActiveAt time.Time
}

// NewSession creates a new session over the given connection
func NewSession(conn *Conn) *Session {
	return &Session{
		ID:           uuid.New().String(),
		State:        SessionStateUnopened,
		conn:         conn,
		CreatedAt:    time.Now(),
		LastActiveAt: time.Now(),

		ClientInfo:         make(map[string]string),
		ClientCapabilities: make(map[string]CapabilityDefinition),
		ServerInfo:         make(map[string]string),
		ServerCapabilities: make(map[string]CapabilityDefinition),
	}
}

// GetState returns the current session state
func (s *Session) GetState() SessionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.State
}

// SetState sets the session state
func (s *Session) SetState(state SessionState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.State = state
}

// IsReady checks if the session accepts list/call operations
func (s *Session) IsReady() bool {
	return s.GetState() == SessionStateReady
}

// Close marks the session closed. Idempotent.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.State = SessionStateClosed
	return nil
}

// touch updates the last activity timestamp
func (s *Session) touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActiveAt = time.Now()
}

// Call sends an RPC request through the session. Only permitted in Ready.
func (s *Session) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if !s.IsReady() {
		return nil, mcperrors.Newf(mcperrors.Protocol, "session not ready: %s", s.GetState())
	}

	s.touch()
	return s.conn.Call(ctx, method, params)
}

// Notify sends an RPC notification through the session
func (s *Session) Notify(ctx context.Context, method string, params interface{}) error {
	if !s.IsReady() {
		return mcperrors.Newf(mcperrors.Protocol, "session not ready: %s", s.GetState())
	}

	s.touch()
	return s.conn.Notify(ctx, method, params)
}
