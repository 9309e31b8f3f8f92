package model

import "time"

// Notification is the real-time payload pushed to connected clients when a
// review event happens. Notifications are fire-and-forget; nothing is
// persisted server-side.
type Notification struct {
	TypeCode  string                 `json:"type_code"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
