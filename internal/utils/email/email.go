package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/chi-portal/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendMagicLink sends a one-time sign-in link
func (s *Sender) SendMagicLink(to, name, link string) error {
	return s.send(to, buildMagicLink(s.cfg.SenderEmail, to, name, link))
}

// SendStreakReminder warns that today's habits are still open while a streak is running
func (s *Sender) SendStreakReminder(to, name string, habits []string, streak int) error {
	return s.send(to, buildStreakReminder(s.cfg.SenderEmail, to, name, habits, streak))
}

func (s *Sender) send(to string, e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func buildMagicLink(from, to, name, link string) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = "Sign in to Chi Portal"

	body := fmt.Sprintf("Hi %s,\n\n", name)
	body += "Use the link below to sign in. It can be used once and expires shortly.\n\n"
	body += link + "\n"
	body += "\nIf you did not request this email you can ignore it.\n\nChi Portal"
	e.Text = []byte(body)
	return e
}

func buildStreakReminder(from, to, name string, habits []string, streak int) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Keep your %d-day streak alive", streak)

	body := fmt.Sprintf("Hi %s,\n\n", name)
	body += fmt.Sprintf("You are on a %d-day streak. These habits are still open today:\n\n", streak)
	for _, h := range habits {
		body += "  - " + h + "\n"
	}
	body += "\nA few minutes now keeps the streak going.\n\nChi Portal"
	e.Text = []byte(body)
	return e
}
