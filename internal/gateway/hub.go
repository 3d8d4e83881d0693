// Package gateway exposes the engine to observers: a WebSocket hub fanning
// out engine events and REST handlers for the health/snapshot/trade queries.
package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"

	"paperquant/internal/metrics"
	"paperquant/internal/model"
)

// StateSource is the read side of the engine consumed by the gateway.
type StateSource interface {
	Health() model.Health
	Snapshot() model.Snapshot
}

// Hub manages WebSocket observers. Observers may attach and detach at any
// time, concurrently with the engine loop; the client registry has its own
// lock, separate from engine state. Delivery is fanned out through per-client
// send buffers drained by per-client write pumps, so one slow or dead
// observer never blocks the rest, it just gets dropped.
type Hub struct {
	engine StateSource
	prom   *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub reading state from the given engine. prom may be nil.
func NewHub(engine StateSource, prom *metrics.Metrics) *Hub {
	return &Hub{
		engine:  engine,
		prom:    prom,
		clients: make(map[*Client]bool),
	}
}

// Broadcast marshals the event once and enqueues it to every connected
// client. A full client buffer drops the event for that client only.
func (h *Hub) Broadcast(evt model.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Error("event marshal failed", "type", evt.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			if h.prom != nil {
				h.prom.BroadcastDrops.Inc()
			}
		}
	}
}

// register adds a client and pushes the current snapshot as its first
// message, so a late observer starts from full state.
func (h *Hub) register(c *Client) {
	snap := h.engine.Snapshot()
	payload, err := json.Marshal(model.Event{Type: model.EventSnapshot, TS: snap.TS, Data: &snap})
	if err == nil {
		c.send <- payload
	}

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}
	slog.Info("ws client connected", "clients", count)
}

// RemoveClient detaches a client and closes its send buffer.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}
	slog.Info("ws client disconnected", "clients", count)
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
