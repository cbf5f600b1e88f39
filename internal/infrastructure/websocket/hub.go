package websocket

import (
	"sync"

	"github.com/rs/zerolog"
)

// Broadcaster is the event-publishing interface observers use. Keeping
// it narrow lets a future fan-out adapter (e.g. Redis) replace the
// in-process hub without touching the observers.
type Broadcaster interface {
	Broadcast(userID, agentID, executionID string, event *WSEvent)
}

// broadcastMsg represents a message to be broadcast to clients
type broadcastMsg struct {
	userID      string
	agentID     string
	executionID string
	event       *WSEvent
}

// Hub manages WebSocket connections and broadcasting events to clients.
// It implements the Broadcaster interface.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Channel for registering clients
	register chan *Client

	// Channel for unregistering clients
	unregister chan *Client

	// Channel for broadcasting events
	broadcast chan *broadcastMsg

	// Subscription indexes for fast lookup
	byUserID      map[string]map[*Client]bool
	byAgentID     map[string]map[*Client]bool
	byExecutionID map[string]map[*Client]bool

	logger zerolog.Logger
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan *broadcastMsg, 256),
		byUserID:      make(map[string]map[*Client]bool),
		byAgentID:     make(map[string]map[*Client]bool),
		byExecutionID: make(map[string]map[*Client]bool),
		logger:        logger,
	}
}

// Run starts the hub's main event loop.
// This should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastEvent(msg)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if client.userID != "" {
		if h.byUserID[client.userID] == nil {
			h.byUserID[client.userID] = make(map[*Client]bool)
		}
		h.byUserID[client.userID][client] = true
	}

	h.logger.Debug().
		Str("client_id", client.id).
		Str("user_id", client.userID).
		Int("total_clients", len(h.clients)).
		Msg("client registered")
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	if client.userID != "" {
		if clients, ok := h.byUserID[client.userID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.byUserID, client.userID)
			}
		}
	}

	client.subs.mu.RLock()
	for agentID := range client.subs.agents {
		if clients, ok := h.byAgentID[agentID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.byAgentID, agentID)
			}
		}
	}
	for execID := range client.subs.executions {
		if clients, ok := h.byExecutionID[execID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.byExecutionID, execID)
			}
		}
	}
	client.subs.mu.RUnlock()

	h.logger.Debug().
		Str("client_id", client.id).
		Str("user_id", client.userID).
		Int("total_clients", len(h.clients)).
		Msg("client unregistered")
}

// Broadcast sends an event to relevant clients.
// Implements the Broadcaster interface.
func (h *Hub) Broadcast(userID, agentID, executionID string, event *WSEvent) {
	h.broadcast <- &broadcastMsg{
		userID:      userID,
		agentID:     agentID,
		executionID: executionID,
		event:       event,
	}
}

// broadcastEvent sends an event to all matching clients. Events with
// no agent/execution id (e.g. agent.tick) fan out to every connected
// client.
func (h *Hub) broadcastEvent(msg *broadcastMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make(map[*Client]bool)

	switch {
	case msg.userID != "":
		if clients, ok := h.byUserID[msg.userID]; ok {
			for client := range clients {
				if client.shouldReceive(msg.agentID, msg.executionID) {
					targets[client] = true
				}
			}
		}
	case msg.agentID == "" && msg.executionID == "":
		for client := range h.clients {
			targets[client] = true
		}
	default:
		// Execution subscriptions first (most specific)
		if msg.executionID != "" {
			if clients, ok := h.byExecutionID[msg.executionID]; ok {
				for client := range clients {
					targets[client] = true
				}
			}
		}
		if msg.agentID != "" {
			if clients, ok := h.byAgentID[msg.agentID]; ok {
				for client := range clients {
					targets[client] = true
				}
			}
		}
	}

	for client := range targets {
		select {
		case client.send <- msg.event:
		default:
			// Client send buffer full, skip this message
			h.logger.Warn().
				Str("client_id", client.id).
				Str("event_type", msg.event.Type).
				Msg("client buffer full, dropping message")
		}
	}
}

// Subscribe adds a subscription for a client
func (h *Hub) Subscribe(client *Client, agentID, executionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.subs.mu.Lock()
	defer client.subs.mu.Unlock()

	if agentID != "" {
		client.subs.agents[agentID] = true
		if h.byAgentID[agentID] == nil {
			h.byAgentID[agentID] = make(map[*Client]bool)
		}
		h.byAgentID[agentID][client] = true

		h.logger.Debug().
			Str("client_id", client.id).
			Str("agent_id", agentID).
			Msg("client subscribed to agent")
	}

	if executionID != "" {
		client.subs.executions[executionID] = true
		if h.byExecutionID[executionID] == nil {
			h.byExecutionID[executionID] = make(map[*Client]bool)
		}
		h.byExecutionID[executionID][client] = true

		h.logger.Debug().
			Str("client_id", client.id).
			Str("execution_id", executionID).
			Msg("client subscribed to execution")
	}
}

// Unsubscribe removes a subscription for a client
func (h *Hub) Unsubscribe(client *Client, agentID, executionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.subs.mu.Lock()
	defer client.subs.mu.Unlock()

	if agentID != "" {
		delete(client.subs.agents, agentID)
		if clients, ok := h.byAgentID[agentID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.byAgentID, agentID)
			}
		}
	}

	if executionID != "" {
		delete(client.subs.executions, executionID)
		if clients, ok := h.byExecutionID[executionID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.byExecutionID, executionID)
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
