package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

// StreamManager keeps exactly one store subscription alive per submission
// room, no matter how many clients watch it. The first client opens the
// stream, the last one leaving closes it.
type StreamManager struct {
	hub         *Hub
	annotations service.IAnnotationService

	mu      sync.Mutex
	streams map[string]*roomStream
}

type roomStream struct {
	cancel func()
	stop   context.CancelFunc
	refs   int
}

func NewStreamManager(hub *Hub, annotations service.IAnnotationService) *StreamManager {
	return &StreamManager{
		hub:         hub,
		annotations: annotations,
		streams:     make(map[string]*roomStream),
	}
}

// acquire opens the room's live subscription on first use.
func (m *StreamManager) acquire(submissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stream, ok := m.streams[submissionID]; ok {
		stream.refs++
		return nil
	}

	ctx, stop := context.WithCancel(context.Background())
	cancel, err := m.annotations.SubscribeToComments(ctx, submissionID,
		func(comments []*dto.AnnotationResponse) {
			frame, _ := json.Marshal(map[string]interface{}{
				"type": "comments_snapshot",
				"data": comments,
			})
			m.hub.BroadcastToSubmission(submissionID, frame)
		},
		func(streamErr error) {
			frame, _ := json.Marshal(map[string]interface{}{
				"type":  "stream_degraded",
				"error": streamErr.Error(),
			})
			m.hub.BroadcastToSubmission(submissionID, frame)
		},
	)
	if err != nil {
		stop()
		return err
	}

	m.streams[submissionID] = &roomStream{cancel: cancel, stop: stop, refs: 1}
	return nil
}

// release closes the room's subscription once nobody watches it anymore.
func (m *StreamManager) release(submissionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stream, ok := m.streams[submissionID]
	if !ok {
		return
	}
	stream.refs--
	if stream.refs > 0 {
		return
	}
	stream.cancel()
	stream.stop()
	delete(m.streams, submissionID)
}

// ServeCommentStream attaches one connection to a submission's live comment
// feed. Every store change pushes a full snapshot frame; strategy failures
// inside the degradation ladder surface as informational frames, never as
// connection closes.
func (m *StreamManager) ServeCommentStream(c *websocket.Conn, submissionID, userID string) {
	if err := m.acquire(submissionID); err != nil {
		c.WriteMessage(websocket.CloseMessage, []byte{})
		c.Close()
		return
	}
	defer m.release(submissionID)

	client := &Client{
		Hub:          m.hub,
		Conn:         c,
		SubmissionID: submissionID,
		UserID:       userID,
		Send:         make(chan []byte, 256),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
