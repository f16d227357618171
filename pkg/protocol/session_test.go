package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/calcbridge/go-mcp-host/internal/errors"
)

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "unopened", SessionStateUnopened.String())
	assert.Equal(t, "handshaking", SessionStateHandshaking.String())
	assert.Equal(t, "ready", SessionStateReady.String())
	assert.Equal(t, "closed", SessionStateClosed.String())
}

func TestSessionLifecycle(t *testing.T) {
	session := NewSession(nil)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, SessionStateUnopened, session.GetState())
	assert.False(t, session.IsReady())

	session.SetState(SessionStateHandshaking)
	assert.Equal(t, SessionStateHandshaking, session.GetState())

	session.SetState(SessionStateReady)
	assert.True(t, session.IsReady())

	require.NoError(t, session.Close())
	assert.Equal(t, SessionStateClosed, session.GetState())

	// Close is idempotent
	require.NoError(t, session.Close())
	assert.Equal(t, SessionStateClosed, session.GetState())
}

func TestSessionCallRequiresReady(t *testing.T) {
	transport := NewMockTransport(10)
	conn := NewConn(transport, nil)
	session := NewSession(conn)

	for _, state := range []SessionState{SessionStateUnopened, SessionStateHandshaking, SessionStateClosed} {
		session.SetState(state)

		_, err := session.Call(context.Background(), "tools/list", nil)
		require.Error(t, err)
		assert.True(t, mcperrors.IsCode(err, mcperrors.Protocol), "state %s", state)

		err = session.Notify(context.Background(), "notifications/initialized", nil)
		require.Error(t, err)
		assert.True(t, mcperrors.IsCode(err, mcperrors.Protocol), "state %s", state)
	}

	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSessionCallDelegatesWhenReady(t *testing.T) {
	transport := NewMockTransport(10)
	transport.On("Send", mock.Anything, mock.Anything).
		Run(respondWith(t, transport, `{"tools":[]}`)).
		Return(nil)

	conn := NewConn(transport, nil)
	conn.Start()
	defer func() {
		transport.Close()
		conn.Stop()
	}()

	session := NewSession(conn)
	session.SetState(SessionStateReady)

	result, err := session.Call(context.Background(), "tools/list", ToolsListParams{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tools":[]}`, string(result))
}
