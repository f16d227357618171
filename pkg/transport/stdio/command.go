package stdio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
	"github.com/calcbridge/go-mcp-host/internal/logging"
	"github.com/calcbridge/go-mcp-host/pkg/protocol"
)

// ServerConfig identifies how to spawn a worker process
type ServerConfig struct {
	Command string
	Args    []string
}

// DefaultGracePeriod bounds how long Close waits for the worker to exit
// before killing it
const DefaultGracePeriod = 5 * time.Second

// CommandTransport spawns a worker process and exchanges newline-delimited
// frames over its stdin/stdout. It is the only component that touches the
// worker's process lifecycle: Close closes the write side, waits a bounded
// grace period for the worker to exit, and kills it if it does not.
type CommandTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader

	incoming chan []byte
	exited   chan struct{}
	waitErr  error // result of reaping, readable once exited is closed

	sendMu    sync.Mutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once

	grace  time.Duration
	logger *slog.Logger
}

// CommandOption configures a CommandTransport
type CommandOption func(*CommandTransport)

// WithGracePeriod overrides the teardown grace period
func WithGracePeriod(d time.Duration) CommandOption {
	return func(t *CommandTransport) {
		t.grace = d
	}
}

// StartCommand spawns the worker described by cfg and starts reading its
// stdout. The worker's stderr passes through to the host's stderr so its
// logs stay visible.
func StartCommand(cfg ServerConfig, options ...CommandOption) (*CommandTransport, error) {
	factory := logging.NewLoggerFactory()
	t := &CommandTransport{
		incoming: make(chan []byte, 64),
		exited:   make(chan struct{}),
		done:     make(chan struct{}),
		grace:    DefaultGracePeriod,
		logger:   factory.CreateLogger("command-transport"),
	}

	for _, option := range options {
		option(t)
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, mcperrors.New(mcperrors.Spawn, "open worker stdin").WithCause(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, mcperrors.New(mcperrors.Spawn, "open worker stdout").WithCause(err)
	}

	if err := cmd.Start(); err != nil {
		return nil, mcperrors.Newf(mcperrors.Spawn, "start worker %q", cfg.Command).WithCause(err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.reader = bufio.NewReader(stdout)

	go t.readLoop()
	return t, nil
}

// readLoop reads frames from the worker's stdout until end-of-stream, then
// reaps the process
func (t *CommandTransport) readLoop() {
	defer close(t.exited)
	defer close(t.incoming)

	for {
		line, err := t.reader.ReadBytes('\n')

		frame := bytes.TrimSpace(line)
		if len(frame) > 0 {
			select {
			case t.incoming <- frame:
			case <-t.done:
				t.waitErr = t.cmd.Wait()
				return
			}
		}

		if err != nil {
			if err != io.EOF {
				logging.Error(t.logger, "read worker stdout failed", "error", err)
			}
			// Stdout is drained; reap the child.
			t.waitErr = t.cmd.Wait()
			return
		}
	}
}

// Send writes one frame to the worker's stdin
func (t *CommandTransport) Send(ctx context.Context, data []byte) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	if t.closed {
		return mcperrors.New(mcperrors.ChannelClosed, "transport closed")
	}

	select {
	case <-t.exited:
		return mcperrors.New(mcperrors.ChannelClosed, "worker exited")
	default:
	}

	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')

	if _, err := t.stdin.Write(frame); err != nil {
		return mcperrors.New(mcperrors.ChannelClosed, "write to worker failed").WithCause(err)
	}
	return nil
}

// Receive blocks until the next complete frame arrives from the worker
func (t *CommandTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, mcperrors.New(mcperrors.ChannelClosed, "transport closed")
	case data, ok := <-t.incoming:
		if !ok {
			return nil, mcperrors.New(mcperrors.ChannelClosed, "worker closed its stdout")
		}
		return data, nil
	}
}

// Close closes both stream directions and waits for the worker to exit.
// A worker that exited abnormally surfaces as a ChannelError; one that
// outlives the grace period is killed and reported as a ShutdownTimeout.
func (t *CommandTransport) Close() error {
	t.sendMu.Lock()
	alreadyClosed := t.closed
	t.closed = true
	t.sendMu.Unlock()

	if alreadyClosed {
		return nil
	}

	t.closeOnce.Do(func() {
		close(t.done)
	})

	// Closing stdin signals a conforming worker to exit.
	_ = t.stdin.Close()

	select {
	case <-t.exited:
		if t.waitErr != nil {
			return mcperrors.New(mcperrors.ChannelError, "worker exited abnormally").WithCause(t.waitErr)
		}
		return nil
	case <-time.After(t.grace):
		logging.Warn(t.logger, "worker did not exit within grace period, killing", "grace", t.grace)
		_ = t.cmd.Process.Kill()
		<-t.exited
		return mcperrors.Newf(mcperrors.ShutdownTimeout, "worker did not exit within %s", t.grace)
	}
}

// Exited returns a channel closed once the worker process has been reaped
func (t *CommandTransport) Exited() <-chan struct{} {
	return t.exited
}

// Running reports whether the worker process is still alive
func (t *CommandTransport) Running() bool {
	select {
	case <-t.exited:
		return false
	default:
		return true
	}
}

// CommandTransportCreator is a factory for command transports. It expects
// "command" (string) and optionally "args" ([]string) in the options map.
func CommandTransportCreator(ctx context.Context, options map[string]interface{}) (protocol.Transport, error) {
	command, _ := options["command"].(string)
	if command == "" {
		return nil, &protocol.TransportError{Message: "command transport requires a command option"}
	}
	args, _ := options["args"].([]string)

	return StartCommand(ServerConfig{Command: command, Args: args})
}

// RegisterCommandTransport registers the command transport in the given registry
func RegisterCommandTransport(registry *protocol.TransportRegistry) {
	registry.Register(protocol.TransportTypeCommand, CommandTransportCreator)
}
