// Package mailer delivers transactional email. Delivery is best effort:
// implementations never return errors, they report a Result instead.
package mailer

import (
	"context"
	"strings"
)

// Message is one outbound email
type Message struct {
	To      []string
	Subject string
	Text    string // derived from HTML when empty
	HTML    string
}

// Status is the outcome of a delivery attempt
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped" // no transport configured
)

// Result is the typed outcome of Send
type Result struct {
	Status     Status
	Reason     string
	ProviderID string
}

// OK reports whether the message left the process
func (r Result) OK() bool {
	return r.Status == StatusSent
}

// Sent builds a successful result
func Sent(providerID string) Result {
	return Result{Status: StatusSent, ProviderID: providerID}
}

// Failed builds a failed result
func Failed(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}

// Mailer sends a message and reports what happened
type Mailer interface {
	Name() string
	Send(ctx context.Context, msg Message) Result
}

// Sender is the address mail is sent from
type Sender struct {
	Name    string
	Address string
}

func (s Sender) header() string {
	if s.Name == "" {
		return s.Address
	}
	return s.Name + " <" + s.Address + ">"
}

func validate(msg Message) (Message, string) {
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		if to = strings.TrimSpace(to); to != "" {
			recipients = append(recipients, to)
		}
	}
	if len(recipients) == 0 {
		return msg, "no recipients"
	}
	if msg.Subject == "" {
		return msg, "empty subject"
	}
	if msg.Text == "" && msg.HTML == "" {
		return msg, "empty body"
	}
	msg.To = recipients
	if msg.Text == "" {
		msg.Text = HTMLToText(msg.HTML)
	}
	return msg, ""
}
