package websocket

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestClient_ShouldReceive(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := NewClient("c1", "u1", hub, nil, nil)

	c.subs.agents["agent-1"] = true
	c.subs.executions["exec-1"] = true

	tests := []struct {
		name        string
		agentID     string
		executionID string
		want        bool
	}{
		{"subscribed execution", "", "exec-1", true},
		{"subscribed agent", "agent-1", "", true},
		{"execution wins even with unknown agent", "agent-x", "exec-1", true},
		{"unknown execution, subscribed agent", "agent-1", "exec-x", true},
		{"unknown both", "agent-x", "exec-x", false},
		{"empty ids", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.shouldReceive(tt.agentID, tt.executionID))
		})
	}
}

func TestSubscriptions_IndependentPerClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := NewClient("c1", "", hub, nil, nil)
	b := NewClient("c2", "", hub, nil, nil)

	hub.Subscribe(a, "agent-1", "")

	assert.True(t, a.shouldReceive("agent-1", ""))
	assert.False(t, b.shouldReceive("agent-1", ""))
}
