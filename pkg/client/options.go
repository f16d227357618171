package client

import (
	"github.com/calcbridge/go-mcp-host/internal/logging"
)

// ClientOption configures a Client at construction time
type ClientOption func(*Client)

// WithClientID sets the client ID sent during the handshake
func WithClientID(id string) ClientOption {
	return func(c *Client) {
		c.ID = id
	}
}

// WithClientInfo sets the client information sent during the handshake
func WithClientInfo(info map[string]string) ClientOption {
	return func(c *Client) {
		c.Info = info
	}
}

// WithLoggerFactory sets the logger factory used by the client
func WithLoggerFactory(factory *logging.LoggerFactory) ClientOption {
	return func(c *Client) {
		c.loggerFactory = factory
	}
}
