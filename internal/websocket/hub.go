package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"festival-cms-be/internal/model"
	"festival-cms-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Hub tracks connected clients grouped by submission room. A client watching
// one submission's comment stream lives in that submission's room; event
// notifications go to every connected client.
type Hub struct {
	// SubmissionID -> clients watching that submission.
	rooms map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, optional.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.rooms[client.SubmissionID] = append(h.rooms[client.SubmissionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"submission_id": client.SubmissionID,
				"user_id":       client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.SubmissionID]; ok {
				for i, c := range clients {
					if c == client {
						h.rooms[client.SubmissionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.rooms[client.SubmissionID]) == 0 {
					delete(h.rooms, client.SubmissionID)
					h.logger.Info("Hub", "Room empty, removed", map[string]interface{}{
						"submission_id": client.SubmissionID,
					})
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastNotification sends a notification to every connected client, on
// this instance and through Redis on the others.
func (h *Hub) BroadcastNotification(notification model.Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.mu.RLock()
	for _, clients := range h.rooms {
		for _, client := range clients {
			h.push(client, data)
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{TargetSubmissionID: "*", Message: data})
		h.rdb.Publish(context.Background(), "cluster_events", payload)
	}
}

// BroadcastToSubmission sends a message to the clients of one submission room.
func (h *Hub) BroadcastToSubmission(submissionID string, message []byte) {
	h.mu.RLock()
	clients := h.rooms[submissionID]
	for _, client := range clients {
		h.push(client, message)
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{TargetSubmissionID: submissionID, Message: message})
		h.rdb.Publish(context.Background(), "cluster_events", payload)
	}
}

// push writes to a client buffer without blocking the hub. A full buffer
// means the client stopped reading; drop it.
func (h *Hub) push(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.logger.Warn("Hub", "Client buffer full, dropping connection", map[string]interface{}{
			"submission_id": client.SubmissionID,
			"user_id":       client.UserID,
		})
		// Unregister asynchronously; it owns closing the Send channel.
		go func() { h.unregister <- client }()
	}
}

type clusterMessage struct {
	TargetSubmissionID string          `json:"target_submission_id"`
	Message            json.RawMessage `json:"message"`
}

// subscribeToRedis relays cluster_events from other instances to local
// clients. Messages this instance published come back too; delivery is
// idempotent on the client side so that is tolerable.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		if payload.TargetSubmissionID == "*" {
			for _, clients := range h.rooms {
				for _, client := range clients {
					h.push(client, payload.Message)
				}
			}
		} else {
			for _, client := range h.rooms[payload.TargetSubmissionID] {
				h.push(client, payload.Message)
			}
		}
		h.mu.RUnlock()
	}
}
