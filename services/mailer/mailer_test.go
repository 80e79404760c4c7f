package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText(t *testing.T) {
	body := `<html><head><title>x</title><style>p{color:red}</style></head>
<body><h1>Payment approved</h1><p>Hello &amp; welcome,   Asha</p>
<table><tr><td>Course</td><td>Price</td></tr></table></body></html>`

	text := HTMLToText(body)

	assert.Contains(t, text, "Payment approved")
	assert.Contains(t, text, "Hello & welcome, Asha")
	assert.Contains(t, text, "Course")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "<p>")
}

func TestValidateFillsText(t *testing.T) {
	msg, problem := validate(Message{To: []string{" a@b.com ", ""}, Subject: "Hi", HTML: "<p>Hi there</p>"})
	require.Empty(t, problem)
	assert.Equal(t, []string{"a@b.com"}, msg.To)
	assert.Equal(t, "Hi there", msg.Text)

	_, problem = validate(Message{Subject: "Hi", HTML: "x"})
	assert.Equal(t, "no recipients", problem)
}

func TestSMTPBuildIsMultipart(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: Sender{Name: "CodeLearn", Address: "no-reply@example.com"}})
	body, err := m.build(Message{To: []string{"a@b.com"}, Subject: "Hello", Text: "plain", HTML: "<b>rich</b>"}, "<id@example.com>")
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, "From: CodeLearn <no-reply@example.com>")
	assert.Contains(t, s, "multipart/alternative; boundary=")
	assert.Contains(t, s, "text/plain; charset=UTF-8")
	assert.Contains(t, s, "<b>rich</b>")
}

func TestNewSelectsTransport(t *testing.T) {
	assert.Equal(t, "noop", New(Options{}).Name())
	assert.Equal(t, "smtp", New(Options{SMTP: SMTPConfig{Host: "h"}}).Name())
	assert.Equal(t, "sendgrid", New(Options{SendGridAPIKey: "k"}).Name())

	res := NoopMailer{}.Send(context.Background(), Message{To: []string{"a@b.com"}})
	assert.Equal(t, StatusSkipped, res.Status)
	assert.False(t, res.OK())
}
