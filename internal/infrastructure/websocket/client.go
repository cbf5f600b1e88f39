package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Size of the send channel buffer
	sendBufferSize = 64
)

// ApprovalGateway is the slice of orchestrator surface the websocket
// layer needs so dashboard clients can grant or reject pending
// approval requests without the package importing the orchestrator.
type ApprovalGateway interface {
	ApproveRequest(requestID string) error
	RejectRequest(requestID string) error
}

// Subscriptions tracks which agents and executions a client follows.
type Subscriptions struct {
	agents     map[string]bool
	executions map[string]bool
	mu         sync.RWMutex
}

// NewSubscriptions creates a new Subscriptions instance
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		agents:     make(map[string]bool),
		executions: make(map[string]bool),
	}
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *WSEvent

	id        string
	userID    string
	subs      *Subscriptions
	approvals ApprovalGateway
}

// NewClient creates a new Client instance. approvals may be nil, in
// which case approve/reject commands are refused.
func NewClient(id, userID string, hub *Hub, conn *websocket.Conn, approvals ApprovalGateway) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan *WSEvent, sendBufferSize),
		id:        id,
		userID:    userID,
		subs:      NewSubscriptions(),
		approvals: approvals,
	}
}

// shouldReceive checks if the client should receive an event based on
// its subscriptions.
func (c *Client) shouldReceive(agentID, executionID string) bool {
	c.subs.mu.RLock()
	defer c.subs.mu.RUnlock()

	// Execution subscription is the most specific
	if executionID != "" {
		if _, ok := c.subs.executions[executionID]; ok {
			return true
		}
	}

	if agentID != "" {
		if _, ok := c.subs.agents[agentID]; ok {
			return true
		}
	}

	return false
}

// readPump pumps messages from the WebSocket connection to the hub.
// It reads commands from the client and processes them.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().
					Str("client_id", c.id).
					Err(err).
					Msg("websocket unexpected close")
			}
			break
		}

		var cmd WSCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.sendResponse(NewErrorResponse("error", "invalid command format"))
			continue
		}

		c.handleCommand(&cmd)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// It sends events to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleCommand processes a command from the client
func (c *Client) handleCommand(cmd *WSCommand) {
	switch cmd.Action {
	case CmdSubscribe:
		c.handleSubscribe(cmd)
	case CmdUnsubscribe:
		c.handleUnsubscribe(cmd)
	case CmdApprove:
		c.handleApproval(cmd, true)
	case CmdReject:
		c.handleApproval(cmd, false)
	default:
		c.sendResponse(NewErrorResponse("error", "unknown command: "+cmd.Action))
	}
}

// handleSubscribe processes a subscribe command
func (c *Client) handleSubscribe(cmd *WSCommand) {
	if cmd.AgentID == "" && cmd.ExecutionID == "" {
		c.sendResponse(NewErrorResponse(CmdSubscribe, "agent_id or execution_id required"))
		return
	}

	c.hub.Subscribe(c, cmd.AgentID, cmd.ExecutionID)

	msg := "subscribed"
	if cmd.ExecutionID != "" {
		msg = "subscribed to execution: " + cmd.ExecutionID
	} else if cmd.AgentID != "" {
		msg = "subscribed to agent: " + cmd.AgentID
	}

	c.sendResponse(NewSuccessResponse(CmdSubscribe, msg))
}

// handleUnsubscribe processes an unsubscribe command
func (c *Client) handleUnsubscribe(cmd *WSCommand) {
	if cmd.AgentID == "" && cmd.ExecutionID == "" {
		c.sendResponse(NewErrorResponse(CmdUnsubscribe, "agent_id or execution_id required"))
		return
	}

	c.hub.Unsubscribe(c, cmd.AgentID, cmd.ExecutionID)

	msg := "unsubscribed"
	if cmd.ExecutionID != "" {
		msg = "unsubscribed from execution: " + cmd.ExecutionID
	} else if cmd.AgentID != "" {
		msg = "unsubscribed from agent: " + cmd.AgentID
	}

	c.sendResponse(NewSuccessResponse(CmdUnsubscribe, msg))
}

// handleApproval grants or rejects a pending approval request through
// the configured gateway.
func (c *Client) handleApproval(cmd *WSCommand, grant bool) {
	if cmd.RequestID == "" {
		c.sendResponse(NewErrorResponse(cmd.Action, "request_id required"))
		return
	}
	if c.approvals == nil {
		c.sendResponse(NewErrorResponse(cmd.Action, "approvals not available on this connection"))
		return
	}

	var err error
	if grant {
		err = c.approvals.ApproveRequest(cmd.RequestID)
	} else {
		err = c.approvals.RejectRequest(cmd.RequestID)
	}
	if err != nil {
		c.sendResponse(NewErrorResponse(cmd.Action, err.Error()))
		return
	}

	c.hub.logger.Info().
		Str("client_id", c.id).
		Str("request_id", cmd.RequestID).
		Bool("granted", grant).
		Msg("approval request resolved via websocket")
	c.sendResponse(NewSuccessResponse(cmd.Action, "request "+cmd.RequestID+" resolved"))
}

// sendResponse sends a response to the client
func (c *Client) sendResponse(resp *WSResponse) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.writeJSON(resp)
}

// writeJSON writes a JSON message to the WebSocket connection
func (c *Client) writeJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}
