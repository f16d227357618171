package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ChannelClosed, "connection closed")
	assert.Equal(t, "connection closed", err.Error())

	wrapped := Newf(Spawn, "start worker %q", "calcserver").WithCause(fmt.Errorf("no such file"))
	assert.Contains(t, wrapped.Error(), "calcserver")
	assert.Contains(t, wrapped.Error(), "no such file")
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := New(Handshake, "initialize rejected").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	err := New(ChannelClosed, "gone")
	assert.True(t, IsCode(err, ChannelClosed))
	assert.False(t, IsCode(err, Remote))

	// Works through wrapping
	wrapped := fmt.Errorf("call failed: %w", err)
	assert.True(t, IsCode(wrapped, ChannelClosed))

	assert.False(t, IsCode(nil, ChannelClosed))
	assert.False(t, IsCode(errors.New("plain"), ChannelClosed))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Remote, CodeOf(New(Remote, "tool failed")))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, None, CodeOf(nil))
}

func TestIsFatal(t *testing.T) {
	fatal := []ErrorCode{Spawn, ChannelClosed, ChannelError, ShutdownTimeout, Handshake, Protocol}
	for _, code := range fatal {
		require.True(t, IsFatal(New(code, "x")), "code %d", code)
	}

	recoverable := []ErrorCode{Remote, UnknownTool}
	for _, code := range recoverable {
		require.False(t, IsFatal(New(code, "x")), "code %d", code)
	}

	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))
}
