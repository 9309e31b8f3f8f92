package service

import (
	"context"
	"fmt"
	"time"

	"festival-cms-be/internal/model"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/pkg/mailer"
	"festival-cms-be/pkg/events"
	pktNats "festival-cms-be/pkg/nats"
)

// NotificationDelivery pushes real-time updates to connected clients.
// Implemented by the websocket Hub.
type NotificationDelivery interface {
	BroadcastNotification(notification model.Notification)
}

// NotificationService turns bus events into websocket notifications, plus an
// email alert when a submission gets flagged.
type NotificationService struct {
	subscriber     *pktNats.Subscriber
	delivery       NotificationDelivery
	emailService   mailer.IEmailService
	flagAlertEmail string
	logger         logger.ILogger
}

func NewNotificationService(
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	emailService mailer.IEmailService,
	flagAlertEmail string,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		subscriber:     sub,
		delivery:       delivery,
		emailService:   emailService,
		flagAlertEmail: flagAlertEmail,
		logger:         log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	title, message := s.render(event.EventType(), payload)
	if title == "" {
		// Unknown event types are fine; other consumers may care.
		return nil
	}

	s.delivery.BroadcastNotification(model.Notification{
		TypeCode:  event.EventType(),
		Title:     title,
		Message:   message,
		Metadata:  payload,
		CreatedAt: time.Now(),
	})

	if event.EventType() == events.TypeSubmissionFlagged {
		s.sendFlagAlert(payload)
	}
	return nil
}

func (s *NotificationService) render(eventType string, payload map[string]interface{}) (string, string) {
	submissionID, _ := payload["submission_id"].(string)

	switch eventType {
	case events.TypeCommentAdded:
		return "New comment", fmt.Sprintf("A comment was added to submission %s", submissionID)
	case events.TypeScoreSubmitted:
		return "Score submitted", fmt.Sprintf("A new score was submitted for submission %s", submissionID)
	case events.TypeScoreUpdated:
		return "Score updated", fmt.Sprintf("A score was revised for submission %s", submissionID)
	case events.TypeCommentDeleted:
		return "Comment removed", fmt.Sprintf("A comment was removed from submission %s", submissionID)
	case events.TypeStatusChanged:
		oldStatus, _ := payload["old_status"].(string)
		newStatus, _ := payload["new_status"].(string)
		return "Status changed", fmt.Sprintf("Submission %s moved from %s to %s", submissionID, oldStatus, newStatus)
	case events.TypeSubmissionFlagged:
		flagged, _ := payload["flagged"].(bool)
		if flagged {
			return "Submission flagged", fmt.Sprintf("Submission %s was flagged for review", submissionID)
		}
		return "Flag removed", fmt.Sprintf("The review flag on submission %s was cleared", submissionID)
	default:
		return "", ""
	}
}

func (s *NotificationService) sendFlagAlert(payload map[string]interface{}) {
	flagged, _ := payload["flagged"].(bool)
	if !flagged || s.flagAlertEmail == "" {
		return
	}

	submissionID, _ := payload["submission_id"].(string)
	reason, _ := payload["reason"].(string)
	flaggedBy, _ := payload["author_id"].(string)

	if err := s.emailService.SendFlagAlert(s.flagAlertEmail, submissionID, reason, flaggedBy); err != nil {
		s.logger.Error("NotificationService", "flag alert email failed", map[string]interface{}{
			"submission_id": submissionID,
			"error":         err.Error(),
		})
	}
}
