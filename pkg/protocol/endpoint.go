package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Endpoint handles RPC calls for a namespace of methods
type Endpoint interface {
	// GetNamespace returns the namespace handled by this endpoint
	GetNamespace() string

	// HandleRequest handles an RPC request
	HandleRequest(ctx context.Context, method string, params json.RawMessage) (interface{}, error)

	// HandleNotification handles an RPC notification
	HandleNotification(ctx context.Context, method string, params json.RawMessage) (interface{}, error)
}

// NotificationsPrefix marks methods that never receive a response
const NotificationsPrefix = "notifications"

// MethodName strips the namespace and notifications prefix from a full
// method name, yielding the name an endpoint registers under
func MethodName(fullMethod string) string {
	tokens := strings.Split(fullMethod, "/")
	return tokens[len(tokens)-1]
}

// EndpointRegistry routes full method names ("tools/call",
// "notifications/initialized") to the endpoint owning their namespace
type EndpointRegistry struct {
	endpoints map[string]Endpoint
	mutex     sync.RWMutex
}

// NewEndpointRegistry creates a new endpoint registry
func NewEndpointRegistry() *EndpointRegistry {
	return &EndpointRegistry{
		endpoints: make(map[string]Endpoint),
	}
}

// RegisterEndpoint registers a new endpoint
func (r *EndpointRegistry) RegisterEndpoint(endpoint Endpoint) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.endpoints[endpoint.GetNamespace()] = endpoint
}

// GetEndpoint returns an endpoint
func (r *EndpointRegistry) GetEndpoint(namespace string) (Endpoint, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	endpoint, exists := r.endpoints[namespace]
	return endpoint, exists
}

// HandleRequest routes an RPC request or notification to its endpoint
func (r *EndpointRegistry) HandleRequest(ctx context.Context, fullMethod string, params json.RawMessage) (interface{}, error) {
	tokens := strings.Split(fullMethod, "/")

	isNotification := tokens[0] == NotificationsPrefix
	if isNotification {
		tokens = tokens[1:]
	}

	method := ""
	namespace := ""
	switch len(tokens) {
	case 1:
		method = tokens[0]
	case 2:
		namespace = tokens[0]
		method = tokens[1]
	}

	if method == "" {
		return nil, &JSONRPCError{
			Code:    ErrorCodeMethodNotFound,
			Message: "method not found: invalid method format: " + fullMethod,
		}
	}

	r.mutex.RLock()
	endpoint, exists := r.endpoints[namespace]
	r.mutex.RUnlock()

	if !exists {
		return nil, &JSONRPCError{
			Code:    ErrorCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: namespace %q not registered", namespace),
		}
	}

	if isNotification {
		return endpoint.HandleNotification(ctx, method, params)
	}
	return endpoint.HandleRequest(ctx, method, params)
}

// MethodHandler is a function that handles one RPC method
type MethodHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// BaseEndpoint is a method-table implementation of Endpoint
type BaseEndpoint struct {
	namespace     string
	methods       map[string]MethodHandler
	notifications map[string]MethodHandler
}

// NewBaseEndpoint creates a new base endpoint for the given namespace
func NewBaseEndpoint(namespace string) *BaseEndpoint {
	return &BaseEndpoint{
		namespace:     namespace,
		methods:       make(map[string]MethodHandler),
		notifications: make(map[string]MethodHandler),
	}
}

// GetNamespace returns the namespace handled by this endpoint
func (e *BaseEndpoint) GetNamespace() string {
	return e.namespace
}

// RegisterMethod registers a request handler
func (e *BaseEndpoint) RegisterMethod(method string, handler MethodHandler) {
	e.methods[method] = handler
}

// RegisterNotification registers a notification handler
func (e *BaseEndpoint) RegisterNotification(method string, handler MethodHandler) {
	e.notifications[method] = handler
}

// HandleRequest handles an RPC request
func (e *BaseEndpoint) HandleRequest(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	handler, exists := e.methods[method]
	if !exists {
		return nil, &JSONRPCError{
			Code:    ErrorCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s/%s", e.namespace, method),
		}
	}
	return handler(ctx, params)
}

// HandleNotification handles an RPC notification
func (e *BaseEndpoint) HandleNotification(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	handler, exists := e.notifications[method]
	if !exists {
		return nil, &JSONRPCError{
			Code:    ErrorCodeMethodNotFound,
			Message: fmt.Sprintf("notification not found: %s/%s", e.namespace, method),
		}
	}
	return handler(ctx, params)
}
