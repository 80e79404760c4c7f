package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends mail through the SendGrid v3 API
type SendGridMailer struct {
	client *sendgrid.Client
	from   Sender
}

// NewSendGridMailer creates a new SendGrid mailer
func NewSendGridMailer(apiKey string, from Sender) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}
}

func (m *SendGridMailer) Name() string { return "sendgrid" }

func (m *SendGridMailer) Send(ctx context.Context, msg Message) Result {
	msg, problem := validate(msg)
	if problem != "" {
		return Failed(problem)
	}

	v3 := mail.NewV3Mail()
	v3.SetFrom(mail.NewEmail(m.from.Name, m.from.Address))
	v3.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(mail.NewEmail("", to))
	}
	v3.AddPersonalizations(p)

	// text/plain must precede text/html
	v3.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	resp, err := m.client.SendWithContext(ctx, v3)
	if err != nil {
		return Failed(fmt.Sprintf("sendgrid request failed: %v", err))
	}
	if resp.StatusCode >= 300 {
		return Failed(fmt.Sprintf("sendgrid returned %d: %s", resp.StatusCode, resp.Body))
	}

	var id string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	return Sent(id)
}
