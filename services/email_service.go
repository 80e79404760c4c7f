package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EmailTemplate names a transactional email
type EmailTemplate string

const (
	TemplateWelcome         EmailTemplate = "welcome"
	TemplateTwoFactorCode   EmailTemplate = "two_factor_code"
	TemplatePaymentApproved EmailTemplate = "payment_approved"
	TemplatePaymentRejected EmailTemplate = "payment_rejected"
	TemplateCallbackRequest EmailTemplate = "callback_request"
	TemplatePasswordReset   EmailTemplate = "password_reset"
)

const brandName = "CodeLearn"

// EmailConfig configures the email service
type EmailConfig struct {
	AppURL      string
	AdminEmails []string
	Timeout     time.Duration
}

// EmailService composes transactional emails and hands them to a mailer.
// Every send is best effort and bounded by the configured timeout.
type EmailService struct {
	mailer  mailer.Mailer
	appURL  string
	admins  []string
	timeout time.Duration
	title   cases.Caser
}

// NewEmailService creates a new email service instance
func NewEmailService(m mailer.Mailer, cfg EmailConfig) *EmailService {
	if m == nil {
		m = mailer.NoopMailer{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &EmailService{
		mailer:  m,
		appURL:  strings.TrimRight(cfg.AppURL, "/"),
		admins:  cfg.AdminEmails,
		timeout: cfg.Timeout,
		title:   cases.Title(language.English),
	}
}

// IsConfigured reports whether a real transport is behind the service
func (e *EmailService) IsConfigured() bool {
	_, noop := e.mailer.(mailer.NoopMailer)
	return !noop
}

// InvoiceLine is one row of the invoice table in the approval email
type InvoiceLine struct {
	Title string
	Price decimal.Decimal
}

// PaymentEmail carries the data for payment approval and rejection emails
type PaymentEmail struct {
	To            string
	UserName      string
	OrderNumber   string
	InvoiceNumber string
	Method        model.PaymentMethod
	Lines         []InvoiceLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Reason        string
}

// SendWelcomeEmail greets a newly registered user
func (e *EmailService) SendWelcomeEmail(ctx context.Context, user *model.User) mailer.Result {
	return e.render(ctx, TemplateWelcome, []string{user.Email},
		fmt.Sprintf("Welcome to %s", brandName),
		map[string]any{
			"Name":       displayName(user.Name),
			"CoursesURL": e.appURL + "/courses",
		})
}

// SendTwoFactorCode emails a verification code. purpose is a short label such as "login".
func (e *EmailService) SendTwoFactorCode(ctx context.Context, user *model.User, code, purpose string) mailer.Result {
	label := e.title.String(strings.ReplaceAll(purpose, "_", " "))
	return e.render(ctx, TemplateTwoFactorCode, []string{user.Email},
		fmt.Sprintf("Your %s %s Code", brandName, label),
		map[string]any{
			"Name":    displayName(user.Name),
			"Code":    code,
			"Purpose": label,
			"Minutes": int(model.TwoFactorCodeTTL / time.Minute),
		})
}

// SendPaymentApproved confirms enrollment and includes the invoice lines
func (e *EmailService) SendPaymentApproved(ctx context.Context, p PaymentEmail) mailer.Result {
	return e.render(ctx, TemplatePaymentApproved, []string{p.To},
		fmt.Sprintf("Payment Approved - Order %s", p.OrderNumber),
		map[string]any{
			"Name":          displayName(p.UserName),
			"OrderNumber":   p.OrderNumber,
			"InvoiceNumber": p.InvoiceNumber,
			"Method":        paymentMethodLabel(p.Method),
			"Lines":         p.Lines,
			"Subtotal":      p.Subtotal,
			"Discount":      p.Discount,
			"Total":         p.Total,
			"LearningURL":   e.appURL + "/learning",
		})
}

// SendPaymentRejected tells the user why a manual payment was refused
func (e *EmailService) SendPaymentRejected(ctx context.Context, p PaymentEmail) mailer.Result {
	reason := p.Reason
	if reason == "" {
		reason = "The payment could not be verified."
	}
	return e.render(ctx, TemplatePaymentRejected, []string{p.To},
		fmt.Sprintf("Payment Not Approved - Order %s", p.OrderNumber),
		map[string]any{
			"Name":        displayName(p.UserName),
			"OrderNumber": p.OrderNumber,
			"Total":       p.Total,
			"Reason":      reason,
			"SupportURL":  e.appURL + "/contact",
		})
}

// SendCallbackRequest forwards a callback request to the admin inbox
func (e *EmailService) SendCallbackRequest(ctx context.Context, req *model.CallbackRequest, courseTitle string) mailer.Result {
	if len(e.admins) == 0 {
		metrics.EmailsTotal.WithLabelValues(string(TemplateCallbackRequest), string(mailer.StatusSkipped)).Inc()
		return mailer.Result{Status: mailer.StatusSkipped, Reason: "no admin recipients configured"}
	}
	return e.render(ctx, TemplateCallbackRequest, e.admins,
		fmt.Sprintf("New Callback Request from %s", req.Name),
		map[string]any{
			"Name":    req.Name,
			"Email":   req.Email,
			"Phone":   req.Phone,
			"Course":  courseTitle,
			"Message": req.Message,
		})
}

// SendPasswordResetEmail sends a password reset link
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, userName, resetToken string) mailer.Result {
	return e.render(ctx, TemplatePasswordReset, []string{toEmail},
		fmt.Sprintf("Reset Your Password - %s", brandName),
		map[string]any{
			"Name":      displayName(userName),
			"ResetLink": fmt.Sprintf("%s/reset-password?token=%s", e.appURL, resetToken),
			"Hours":     1,
		})
}

func (e *EmailService) render(ctx context.Context, tmpl EmailTemplate, to []string, subject string, data map[string]any) mailer.Result {
	t, ok := emailTemplates[tmpl]
	if !ok {
		return e.record(tmpl, to, mailer.Failed("unknown template"))
	}

	data["Brand"] = brandName
	data["Subject"] = subject
	data["Year"] = time.Now().Year()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return e.record(tmpl, to, mailer.Failed(fmt.Sprintf("failed to render template: %v", err)))
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res := e.mailer.Send(ctx, mailer.Message{To: to, Subject: subject, HTML: buf.String()})
	return e.record(tmpl, to, res)
}

func (e *EmailService) record(tmpl EmailTemplate, to []string, res mailer.Result) mailer.Result {
	metrics.EmailsTotal.WithLabelValues(string(tmpl), string(res.Status)).Inc()

	log := logger.L().With("template", string(tmpl), "transport", e.mailer.Name(), "recipients", len(to))
	switch res.Status {
	case mailer.StatusSent:
		log.Info("email sent", "provider_id", res.ProviderID)
	case mailer.StatusSkipped:
		log.Warn("email skipped", "reason", res.Reason)
	default:
		log.Error("email failed", "reason", res.Reason)
	}
	return res
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func formatINR(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

var emailTemplates = parseEmailTemplates()

func parseEmailTemplates() map[EmailTemplate]*template.Template {
	funcs := template.FuncMap{"inr": formatINR}
	base := template.Must(template.New("layout").Funcs(funcs).Parse(emailLayout))

	out := make(map[EmailTemplate]*template.Template, len(emailBodies))
	for name, body := range emailBodies {
		t := template.Must(base.Clone())
		out[name] = template.Must(t.New("content").Parse(body))
	}
	return out
}

const emailLayout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body { margin: 0; padding: 0; background-color: #f4f5f7; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; color: #1f2937; }
        .container { max-width: 600px; margin: 32px auto; background: #ffffff; border-radius: 8px; overflow: hidden; border: 1px solid #e5e7eb; }
        .header { background-color: #4f46e5; color: #ffffff; padding: 24px 32px; font-size: 20px; font-weight: 600; }
        .content { padding: 32px; font-size: 15px; line-height: 1.6; }
        .button { display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: #ffffff !important; text-decoration: none; border-radius: 6px; font-weight: 600; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: 700; text-align: center; padding: 16px; background: #eef2ff; border-radius: 6px; }
        .invoice { width: 100%; border-collapse: collapse; margin: 16px 0; }
        .invoice th, .invoice td { padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: left; }
        .invoice td.amount, .invoice th.amount { text-align: right; }
        .muted { color: #6b7280; font-size: 13px; }
        .footer { padding: 16px 32px; background: #f9fafb; color: #9ca3af; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">{{.Brand}}</div>
        <div class="content">{{template "content" .}}</div>
        <div class="footer">&copy; {{.Year}} {{.Brand}}. All rights reserved.</div>
    </div>
</body>
</html>`

var emailBodies = map[EmailTemplate]string{
	TemplateWelcome: `<h2>Welcome, {{.Name}}!</h2>
<p>Your {{.Brand}} account is ready. Browse the catalog and start learning today.</p>
<p><a class="button" href="{{.CoursesURL}}">Explore Courses</a></p>`,

	TemplateTwoFactorCode: `<h2>{{.Purpose}} Verification</h2>
<p>Hi {{.Name}}, use the code below to continue.</p>
<div class="code">{{.Code}}</div>
<p class="muted">The code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>`,

	TemplatePaymentApproved: `<h2>Payment approved</h2>
<p>Hi {{.Name}}, your payment for order <strong>{{.OrderNumber}}</strong> via {{.Method}} has been approved and your courses are now available.</p>
<table class="invoice">
    <tr><th>Course</th><th class="amount">Price</th></tr>
    {{range .Lines}}<tr><td>{{.Title}}</td><td class="amount">{{inr .Price}}</td></tr>
    {{end}}<tr><td>Subtotal</td><td class="amount">{{inr .Subtotal}}</td></tr>
    <tr><td>Discount</td><td class="amount">-{{inr .Discount}}</td></tr>
    <tr><td><strong>Total paid</strong></td><td class="amount"><strong>{{inr .Total}}</strong></td></tr>
</table>
{{if .InvoiceNumber}}<p class="muted">Invoice {{.InvoiceNumber}}</p>{{end}}
<p><a class="button" href="{{.LearningURL}}">Start Learning</a></p>`,

	TemplatePaymentRejected: `<h2>Payment not approved</h2>
<p>Hi {{.Name}}, we could not approve your payment of {{inr .Total}} for order <strong>{{.OrderNumber}}</strong>.</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>If you believe this is a mistake, please <a href="{{.SupportURL}}">contact support</a> with your transaction reference.</p>`,

	TemplateCallbackRequest: `<h2>New callback request</h2>
<table class="invoice">
    <tr><td>Name</td><td>{{.Name}}</td></tr>
    <tr><td>Email</td><td>{{.Email}}</td></tr>
    <tr><td>Phone</td><td>{{.Phone}}</td></tr>
    {{if .Course}}<tr><td>Course</td><td>{{.Course}}</td></tr>{{end}}
</table>
{{if .Message}}<p>{{.Message}}</p>{{end}}`,

	TemplatePasswordReset: `<h2>Reset your password</h2>
<p>Hi {{.Name}}, we received a request to reset your password.</p>
<p><a class="button" href="{{.ResetLink}}">Reset Password</a></p>
<p class="muted">This link expires in {{.Hours}} hour. If you did not request a reset, you can ignore this email.</p>`,
}
