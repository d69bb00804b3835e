package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/rolodexhq/rolodex/pkg/config"
	"github.com/rolodexhq/rolodex/pkg/contacts"
	"github.com/rolodexhq/rolodex/pkg/observability"
)

// sendFunc matches smtp.SendMail, swapped in tests
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders templates and delivers them over SMTP
type Mailer struct {
	host     string
	port     int
	auth     smtp.Auth
	from     string
	fromName string
	baseURL  string

	templates *TemplateSet
	logger    *observability.Logger
	metrics   *observability.Metrics

	send sendFunc
}

// NewMailer creates a mailer from configuration. The public base URL is
// used to build verification and reset links.
func NewMailer(cfg config.MailConfig, baseURL string, templates *TemplateSet, logger *observability.Logger, metrics *observability.Metrics) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Mailer{
		host:      cfg.Host,
		port:      cfg.Port,
		auth:      auth,
		from:      cfg.From,
		fromName:  cfg.FromName,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
		logger:    logger,
		metrics:   metrics,
		send:      smtp.SendMail,
	}
}

type linkData struct {
	Username string
	Link     string
}

type birthdayData struct {
	Username   string
	Celebrants []*contacts.Contact
}

// SendVerificationEmail mails a confirmation link carrying the token
func (m *Mailer) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	link := m.baseURL + "/api/auth/confirmed_email/" + url.PathEscape(token)
	return m.deliver(ctx, "verification", TemplateVerification, to,
		"Confirm your email", linkData{Username: username, Link: link})
}

// SendResetPasswordEmail mails a password reset link carrying the token
func (m *Mailer) SendResetPasswordEmail(ctx context.Context, to, username, token string) error {
	link := m.baseURL + "/api/auth/reset_password/" + url.PathEscape(token)
	return m.deliver(ctx, "reset", TemplateReset, to,
		"Reset your password", linkData{Username: username, Link: link})
}

// SendBirthdayGreeting mails the owner a digest of today's celebrants
func (m *Mailer) SendBirthdayGreeting(ctx context.Context, toEmail, ownerName string, celebrants []*contacts.Contact) error {
	return m.deliver(ctx, "birthday", TemplateBirthday, toEmail,
		"Birthdays today", birthdayData{Username: ownerName, Celebrants: celebrants})
}

var _ contacts.Greeter = (*Mailer)(nil)

func (m *Mailer) deliver(ctx context.Context, kind, templateName, to, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := m.templates.Render(templateName, data)
	if err != nil {
		m.metrics.MailErrorsTotal.WithLabelValues(kind).Inc()
		return err
	}

	msg := m.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	if err := m.send(addr, m.auth, m.from, []string{to}, msg); err != nil {
		m.metrics.MailErrorsTotal.WithLabelValues(kind).Inc()
		m.logger.WithError(err).WithField("kind", kind).Error("mail delivery failed")
		return fmt.Errorf("failed to send %s mail: %w", kind, err)
	}

	m.metrics.MailSentTotal.WithLabelValues(kind).Inc()
	m.logger.WithField("kind", kind).Debug("mail sent")
	return nil
}

func (m *Mailer) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	if m.fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", m.fromName, m.from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", m.from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
