package users

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailerConfig carries the transport settings for the SMTP mailer.
type SMTPMailerConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	VerifyURL string // base URL the verification link is built on
}

// SMTPMailer delivers verification mail over SMTP.
type SMTPMailer struct {
	cfg    SMTPMailerConfig
	logger Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg SMTPMailerConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// SendVerification mails the account its verification link. The body is
// deliberately plain; template rendering belongs to the host application.
func (m *SMTPMailer) SendVerification(ctx context.Context, user *User, token string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	link := fmt.Sprintf("%s/verify-email/%s/%s", m.cfg.VerifyURL, user.ID.String(), token)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", "Verify your email address")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p><p>Confirm your email address by following <a href="%s">this link</a>.</p>`,
		user.Nickname, link,
	))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	if err := dialer.DialAndSend(msg); err != nil {
		m.logger.Error("failed to deliver verification mail", "error", err, "user_id", user.ID.String())
		return err
	}

	return nil
}

// LogMailer is a Mailer for development and tests; it only logs the token.
type LogMailer struct {
	Logger Logger
}

var _ Mailer = (*LogMailer)(nil)

func (m LogMailer) SendVerification(_ context.Context, user *User, token string) error {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}

	logger.Info("verification token issued", "user_id", user.ID.String(), "email", user.Email, "token", token)
	return nil
}
