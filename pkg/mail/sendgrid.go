package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/olashile-studio/gallery-backend/pkg/config"
)

var errEmailNotConfigured = errors.New("email configuration is missing")

// SendgridSender delivers messages through the SendGrid v3 API.
type SendgridSender struct {
	client *sendgrid.Client
	from   string
}

// NewSendgridSender builds a sender from config. Missing credentials are a
// hard error so callers fail the whole request instead of partially sending.
func NewSendgridSender(cfg config.EmailConfig) (*SendgridSender, error) {
	if !cfg.Configured() {
		return nil, errEmailNotConfigured
	}
	return &SendgridSender{
		client: sendgrid.NewSendClient(strings.TrimSpace(cfg.SendgridAPIKey)),
		from:   strings.TrimSpace(cfg.FromAddress),
	}, nil
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return errEmailNotConfigured
	}

	from := sgmail.NewEmail("", s.from)
	to := sgmail.NewEmail("", msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
