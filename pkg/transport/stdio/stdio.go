// Package stdio provides the newline-delimited JSON transports used between
// the host and a worker process: one serving the worker's own stdin/stdout,
// and one spawning a worker and owning its pipes.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// Transport implements the worker-side transport over stdin/stdout.
// One frame per line; Send holds a mutex so concurrent writers never
// interleave payload bytes.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer

	incoming chan []byte

	sendMu    sync.Mutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger *slog.Logger
}

// New creates a transport over the process's own stdin/stdout
func New() *Transport {
	return NewWithIO(os.Stdin, os.Stdout)
}

// NewWithIO creates a transport over a custom reader and writer
func NewWithIO(reader io.Reader, writer io.Writer) *Transport {
	factory := logging.NewLoggerFactory()
	return &Transport{
		reader:   bufio.NewReader(reader),
		writer:   writer,
		incoming: make(chan []byte, 64),
		done:     make(chan struct{}),
		logger:   factory.CreateLogger("stdio-transport"),
	}
}

// Start starts the read loop
func (t *Transport) Start() {
	t.wg.Add(1)
	go t.readLoop()
}

// readLoop reads frames until end-of-stream, then closes the incoming
// channel so blocked receivers observe ChannelClosed
func (t *Transport) readLoop() {
	defer t.wg.Done()
	defer close(t.incoming)

	for {
		line, err := t.reader.ReadBytes('\n')

		frame := bytes.TrimSpace(line)
		if len(frame) > 0 {
			select {
			case t.incoming <- frame:
			case <-t.done:
				return
			}
		}

		if err != nil {
			if err != io.EOF {
				logging.Error(t.logger, "read failed", "error", err)
			}
			return
		}
	}
}

// Send writes one frame followed by the line delimiter
func (t *Transport) Send(ctx context.Context, data []byte) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	if t.closed {
		return mcperrors.New(mcperrors.ChannelClosed, "transport closed")
	}

	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')

	if _, err := t.writer.Write(frame); err != nil {
		return mcperrors.New(mcperrors.ChannelClosed, "write failed").WithCause(err)
	}
	return nil
}

// Receive blocks until the next complete frame arrives
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, mcperrors.New(mcperrors.ChannelClosed, "transport closed")
	case data, ok := <-t.incoming:
		if !ok {
			return nil, mcperrors.New(mcperrors.ChannelClosed, "end of stream")
		}
		return data, nil
	}
}

// Close closes the transport and releases blocked receivers
func (t *Transport) Close() error {
	t.sendMu.Lock()
	t.closed = true
	t.sendMu.Unlock()

	t.closeOnce.Do(func() {
		close(t.done)
	})
	return nil
}

// Done returns a channel closed when the transport shuts down
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// TransportCreator is a factory for worker-side stdio transports
func TransportCreator(ctx context.Context, options map[string]interface{}) (protocol.Transport, error) {
	t := New()
	t.Start()
	return t, nil
}

// RegisterTransport registers the stdio transport in the given registry
func RegisterTransport(registry *protocol.TransportRegistry) {
	registry.Register(protocol.TransportTypeStdio, TransportCreator)
}
