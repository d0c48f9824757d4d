package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/internal/config"
)

// New returns the mailer selected by cfg.Driver
func New(cfg config.Mail, logger auth.Logger) (auth.Mailer, error) {
	switch cfg.Driver {
	case config.MailDriverSMTP:
		return NewSMTPMailer(cfg), nil
	case config.MailDriverLog, "":
		return NewLogMailer(logger), nil
	}
	return nil, errors.New(fmt.Sprintf("unsupported mail driver %q", cfg.Driver), errors.CategoryValidation).
		WithTextCode("UNSUPPORTED_MAIL_DRIVER")
}

// LogMailer writes messages to the logger instead of sending them
type LogMailer struct {
	logger auth.Logger
}

func NewLogMailer(logger auth.Logger) *LogMailer {
	if logger == nil {
		logger = auth.NewDefaultLogger()
	}
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, msg auth.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("mail message", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	dialer   *net.Dialer
}

func NewSMTPMailer(cfg config.Mail) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		dialer:   &net.Dialer{Timeout: 30 * time.Second},
	}
}

// Send delivers msg. The connection deadline follows ctx.
func (s *SMTPMailer) Send(ctx context.Context, msg auth.MailMessage) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to dial smtp server")
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to start smtp session")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to start tls")
		}
	}

	if s.username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			creds := smtp.PlainAuth("", s.username, s.password, s.host)
			if err := client.Auth(creds); err != nil {
				return errors.Wrap(err, errors.CategoryAuth, "smtp authentication failed")
			}
		}
	}

	if err := client.Mail(s.from); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "smtp MAIL FROM rejected")
	}
	if err := client.Rcpt(msg.To); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "smtp RCPT TO rejected")
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "smtp DATA rejected")
	}

	if _, err := w.Write(Compose(s.from, msg)); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.CategoryOperation, "failed to write message")
	}

	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to send message")
	}

	return client.Quit()
}

// Compose renders a plain text RFC 5322 message
func Compose(from string, msg auth.MailMessage) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.Bytes()
}
