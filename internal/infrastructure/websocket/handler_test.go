package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
)

// fakeGateway records approval decisions made over the wire.
type fakeGateway struct {
	approved []string
	rejected []string
}

func (g *fakeGateway) ApproveRequest(requestID string) error {
	if requestID == "unknown" {
		return errors.NewNotFoundError("approval_request", requestID)
	}
	g.approved = append(g.approved, requestID)
	return nil
}

func (g *fakeGateway) RejectRequest(requestID string) error {
	g.rejected = append(g.rejected, requestID)
	return nil
}

func dialTestServer(t *testing.T, handler http.Handler, path string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) WSResponse {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestHandler_RejectsUnauthenticated(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	handler := NewHandler(hub, NewJWTAuth(testSecret), nil, zerolog.Nop())

	srv := httptest.NewServer(handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_SubscribeAndReceive(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	handler := NewHandler(hub, NewNoAuth(), nil, zerolog.Nop())

	conn := dialTestServer(t, handler, "")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: CmdSubscribe, ExecutionID: "exec-1"}))
	resp := readResponse(t, conn)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "exec-1")

	hub.Broadcast("", "agent-1", "exec-1", NewWSEvent(EventAgentCompletion, "agent-1", "exec-1"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event WSEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventAgentCompletion, event.Type)
	assert.Equal(t, "exec-1", event.ExecutionID)
}

func TestHandler_SubscribeRequiresTarget(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	handler := NewHandler(hub, NewNoAuth(), nil, zerolog.Nop())

	conn := dialTestServer(t, handler, "")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: CmdSubscribe}))
	resp := readResponse(t, conn)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "required")
}

func TestHandler_ApproveOverWire(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	gateway := &fakeGateway{}
	handler := NewHandler(hub, NewNoAuth(), gateway, zerolog.Nop())

	conn := dialTestServer(t, handler, "")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: CmdApprove, RequestID: "req-1"}))
	resp := readResponse(t, conn)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"req-1"}, gateway.approved)

	require.NoError(t, conn.WriteJSON(WSCommand{Action: CmdReject, RequestID: "req-2"}))
	resp = readResponse(t, conn)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"req-2"}, gateway.rejected)

	require.NoError(t, conn.WriteJSON(WSCommand{Action: CmdApprove, RequestID: "unknown"}))
	resp = readResponse(t, conn)
	assert.False(t, resp.Success)
}

func TestHandler_ApproveWithoutGateway(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	handler := NewHandler(hub, NewNoAuth(), nil, zerolog.Nop())

	conn := dialTestServer(t, handler, "")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: CmdApprove, RequestID: "req-1"}))
	resp := readResponse(t, conn)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "not available")
}

func TestHandler_UnknownCommand(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	handler := NewHandler(hub, NewNoAuth(), nil, zerolog.Nop())

	conn := dialTestServer(t, handler, "")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: "self-destruct"}))
	resp := readResponse(t, conn)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown command")
}
