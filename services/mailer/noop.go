package mailer

import (
	"context"

	"github.com/sahilchouksey/codelearn-api/utils/logger"
)

// NoopMailer is used when no transport is configured. It logs and skips.
type NoopMailer struct{}

func (NoopMailer) Name() string { return "noop" }

func (NoopMailer) Send(_ context.Context, msg Message) Result {
	logger.L().Warn("email transport not configured, skipping message",
		"to", msg.To, "subject", msg.Subject)
	return Result{Status: StatusSkipped, Reason: "email transport not configured"}
}

// Options selects a transport
type Options struct {
	SendGridAPIKey string
	SMTP           SMTPConfig
}

// New picks SendGrid when an API key is present, then SMTP, then the noop mailer
func New(opts Options) Mailer {
	switch {
	case opts.SendGridAPIKey != "":
		return NewSendGridMailer(opts.SendGridAPIKey, opts.SMTP.From)
	case opts.SMTP.Host != "":
		return NewSMTPMailer(opts.SMTP)
	default:
		return NoopMailer{}
	}
}
