// Package mail sends transactional email over SMTP. Sending is always
// fire-and-forget from the caller's point of view; failures are logged, never
// returned to an HTTP client.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/config"
)

// Mailer is the sending surface the auth service depends on.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to, token string) error
	SendWelcomeEmail(ctx context.Context, to, username string) error
}

var resetTmpl = template.Must(template.New("reset").Parse(`<html><body>
<p>A password reset was requested for this address.</p>
<p><a href="{{.ResetURL}}">Reset your password</a></p>
<p>The link expires in 15 minutes. If you did not ask for this, ignore this mail.</p>
</body></html>`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<html><body>
<p>Welcome, {{.Username}}!</p>
<p>Your account is ready. Happy writing.</p>
</body></html>`))

// SMTPMailer sends through a configured SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg     config.Mail
	baseURL string
}

func NewSMTPMailer(cfg config.Mail, baseURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *SMTPMailer) SendPasswordResetEmail(_ context.Context, to, token string) error {
	var body bytes.Buffer
	resetURL := m.baseURL + "/reset-password?token=" + token
	if err := resetTmpl.Execute(&body, struct{ ResetURL string }{resetURL}); err != nil {
		return err
	}
	return m.send(to, "Reset your password", body.String())
}

func (m *SMTPMailer) SendWelcomeEmail(_ context.Context, to, username string) error {
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, struct{ Username string }{username}); err != nil {
		return err
	}
	return m.send(to, "Welcome aboard", body.String())
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n%s\r\n", m.cfg.From, to, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer stands in when no SMTP host is configured. Mails are written to
// the log instead of the wire, which keeps local development working.
type LogMailer struct {
	logger *zap.SugaredLogger
}

func NewLogMailer(logger *zap.SugaredLogger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, to, token string) error {
	m.logger.Infow("password reset mail (not sent, no smtp host)", "to", to, "token", token)
	return nil
}

func (m *LogMailer) SendWelcomeEmail(_ context.Context, to, username string) error {
	m.logger.Infow("welcome mail (not sent, no smtp host)", "to", to, "username", username)
	return nil
}

// New picks the SMTP mailer when a host is configured, the log mailer
// otherwise.
func New(cfg config.Mail, baseURL string, logger *zap.SugaredLogger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, baseURL)
}
