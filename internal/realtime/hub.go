package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains content_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// contentID -> map[clientID]*Client
	contents map[int64]map[string]*Client
	subs     map[int64]func() // cancel Redis subscription per content
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishContentEvent(contentID int64, event string, payload []byte) error
}

// RedisSubscriber subscribes to content channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeContent(contentID int64, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		contents: make(map[int64]map[string]*Client),
		subs:     make(map[int64]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a content room. Starts the Redis subscription for
// this content when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.contents[c.ContentID] == nil {
		h.contents[c.ContentID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeContent(c.ContentID, func(event string, payload []byte) {
				h.BroadcastLocal(c.ContentID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.ContentID] = cancel
			}
		}
	}
	h.contents[c.ContentID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("viewer joined content room", zap.String("client_id", c.ID), zap.Int64("content_id", c.ContentID))
}

// Unregister removes a client from a content room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.contents[c.ContentID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.contents, c.ContentID)
			if cancel, ok := h.subs[c.ContentID]; ok {
				cancel()
				delete(h.subs, c.ContentID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("viewer left content room", zap.String("client_id", c.ID), zap.Int64("content_id", c.ContentID))
}

// BroadcastLocal sends a message to all clients in a content room (local only).
func (h *Hub) BroadcastLocal(contentID int64, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.contents[contentID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToContent sends to local clients and publishes to Redis for other
// instances. Implements rotation.Broadcaster.
func (h *Hub) BroadcastToContent(contentID int64, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.BroadcastLocal(contentID, event, json.RawMessage(data))
	if h.redis != nil {
		_ = h.redis.PublishContentEvent(contentID, event, data)
	}
}

// ViewerCount returns the number of connected clients in a content room.
func (h *Hub) ViewerCount(contentID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.contents[contentID])
}
