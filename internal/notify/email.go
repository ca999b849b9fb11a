package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service sends transactional email.
type Service interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendgridService struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGrid returns the production mailer.
func NewSendGrid(apiKey, fromEmail, fromName string) Service {
	return &sendgridService{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *sendgridService) Send(ctx context.Context, to, subject, body string) error {
	m := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), body, "")
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type consoleService struct{}

// NewConsole logs mail to stdout; used in dev when no API key is set.
func NewConsole() Service { return consoleService{} }

func (consoleService) Send(_ context.Context, to, subject, body string) error {
	log.Printf("mail to=%s subject=%q\n%s", to, subject, body)
	return nil
}
