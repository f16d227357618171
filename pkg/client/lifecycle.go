package client

import (
	"context"

	"github.com/calcbridge/go-mcp-host/pkg/transport/stdio"
)

// Connect spawns the worker described by cfg, performs the handshake, and
// primes the tool cache. If any step after the spawn fails the worker is
// torn down before the error is returned, so a failed Connect never leaves
// a child process behind.
func Connect(ctx context.Context, cfg stdio.ServerConfig, options ...ClientOption) (*Client, error) {
	transport, err := stdio.StartCommand(cfg)
	if err != nil {
		return nil, err
	}
	return connect(ctx, transport, options...)
}

// connect runs the handshake and primes the tool cache over an already
// spawned worker, tearing the worker down on failure
func connect(ctx context.Context, transport *stdio.CommandTransport, options ...ClientOption) (*Client, error) {
	c := NewClient(transport, options...)

	if err := c.Initialize(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.tools.Refresh(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// WithSession runs fn against a freshly connected client and closes it when
// fn returns, whether or not fn failed.
func WithSession(ctx context.Context, cfg stdio.ServerConfig, fn func(*Client) error, options ...ClientOption) error {
	c, err := Connect(ctx, cfg, options...)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c)
}
