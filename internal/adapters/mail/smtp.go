package mail

import (
	"context"
	"crypto/tls"
	_ "embed"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/syberry/bakery-api/internal/ports"
)

//go:embed templates/two_factor_code.html
var twoFactorTemplate string

//go:embed templates/password_reset.html
var passwordResetTemplate string

const (
	twoFactorSubject     = "2 Factor Authentication"
	passwordResetSubject = "Reset Password"
)

// SMTPSenderOptions configures SMTPSender.
type SMTPSenderOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// DisableTLS skips STARTTLS for local development relays like MailHog.
	DisableTLS bool
	Logger     *slog.Logger
}

// SMTPSender delivers the templated HTML notification emails over SMTP.
// Delivery is fire-and-forget from the caller's perspective; a failure is
// reported once and never retried here.
type SMTPSender struct {
	addr       string
	host       string
	username   string
	password   string
	from       string
	disableTLS bool
	logger     *slog.Logger
}

var _ ports.EmailSender = (*SMTPSender)(nil)

// NewSMTPSender validates the options and builds a sender.
func NewSMTPSender(opts SMTPSenderOptions) (*SMTPSender, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("smtp port is required")
	}
	if opts.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		addr:       net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port)),
		host:       opts.Host,
		username:   opts.Username,
		password:   opts.Password,
		from:       opts.From,
		disableTLS: opts.DisableTLS,
		logger:     logger,
	}, nil
}

// SendTwoFactorCode emails a one-time verification code.
func (s *SMTPSender) SendTwoFactorCode(ctx context.Context, recipient, code string) error {
	body := renderTemplate(twoFactorTemplate, map[string]string{"code": code})
	return s.send(ctx, recipient, twoFactorSubject, body)
}

// SendPasswordReset emails a one-time password reset token.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, recipient, token string) error {
	body := renderTemplate(passwordResetTemplate, map[string]string{"token": token})
	return s.send(ctx, recipient, passwordResetSubject, body)
}

func (s *SMTPSender) send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.from, recipient, subject, body)

	if err := s.deliver(recipient, msg); err != nil {
		s.logger.Error("email delivery failed",
			"recipient", recipient,
			"subject", subject,
			"error", err,
		)
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}

	s.logger.Debug("email delivered", "recipient", recipient, "subject", subject)
	return nil
}

func (s *SMTPSender) deliver(recipient string, msg []byte) error {
	client, err := smtp.Dial(s.addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	if !s.disableTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// renderTemplate substitutes {{key}} placeholders. The templates carry no
// user-controlled markup, so plain replacement is sufficient.
func renderTemplate(tpl string, values map[string]string) string {
	out := tpl
	for key, value := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
