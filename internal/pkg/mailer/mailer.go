package mailer

import (
	"fmt"

	"festival-cms-be/internal/config"
	"festival-cms-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendFlagAlert(to, submissionID, reason, flaggedBy string) error
}

type emailService struct {
	cfg    config.SMTPConfig
	logger logger.ILogger
}

func NewEmailService(cfg config.SMTPConfig, log logger.ILogger) IEmailService {
	return &emailService{cfg: cfg, logger: log}
}

// SendFlagAlert notifies the festival team that a submission was flagged
// during review.
func (s *emailService) SendFlagAlert(to, submissionID, reason, flaggedBy string) error {
	if s.cfg.Host == "" {
		s.logger.Warn("Mailer", "SMTP not configured, skipping flag alert", map[string]interface{}{
			"submission_id": submissionID,
		})
		return nil
	}
	if reason == "" {
		reason = "No reason provided"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Email, s.cfg.SenderName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Submission %s flagged for review", submissionID))
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Submission <b>%s</b> was flagged by reviewer <b>%s</b>.</p><p>Reason: %s</p>",
		submissionID, flaggedBy, reason,
	))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Email, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send flag alert: %w", err)
	}
	return nil
}
