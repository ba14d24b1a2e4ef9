package wsgateway

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	remotecore "github.com/mikey-austin/spotify_remote/internal/modules/remote_core"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Frame is a message sent to websocket clients.
type Frame struct {
	Kind  string            `json:"kind"`
	Reply *sr.ReplyEnvelope `json:"reply,omitempty"`
	Event *sr.Event         `json:"event,omitempty"`
}

// Frame kinds.
const (
	FrameReply = "reply"
	FrameEvent = "event"
)

// Hub fans bridge events out to the websocket clients observing them.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[string]*client
	owners  *remotecore.Observations
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{log: log, clients: map[string]*client{}}
}

// Emit queues the event for every observing client. Slow clients drop
// events rather than block the bridge.
func (h *Hub) Emit(name string, payload any) {
	evt, err := sr.NewEvent(name, time.Now().Unix(), payload)
	if err != nil {
		h.log.Warn("encode event", zap.String("event", name), zap.Error(err))
		return
	}
	data, err := json.Marshal(Frame{Kind: FrameEvent, Event: &evt})
	if err != nil {
		h.log.Warn("encode event", zap.String("event", name), zap.Error(err))
		return
	}

	h.mu.Lock()
	owners := h.owners
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		if owners != nil && owners.Observes(c.id, name) {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.log.Warn("websocket client too slow, event dropped", zap.String("client", c.id), zap.String("event", name))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// bind sets the observation table clients are filtered by.
func (h *Hub) bind(owners *remotecore.Observations) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.owners = owners
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}
