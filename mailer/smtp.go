package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  string
	FromName string
}

// SMTPSender sends HTML mail through an SMTP relay, authenticating as the
// configured mailbox which is also the sender address.
type SMTPSender struct {
	settings SMTPSettings
}

var ErrNoCredentials = errors.New("smtp: EMAIL_USER is not configured")

func NewSMTPSender(settings SMTPSettings) *SMTPSender {
	return &SMTPSender{settings: settings}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.settings.Username == "" {
		return ErrNoCredentials
	}

	addr := fmt.Sprintf("%s:%d", s.settings.Host, s.settings.Port)
	client, err := s.connect(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.settings.Username, s.settings.Password, s.settings.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.settings.Username); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	from := s.settings.Username
	if s.settings.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.settings.FromName), s.settings.Username)
	}
	if _, err := writer.Write([]byte(buildMessage(from, msg))); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

func (s *SMTPSender) connect(ctx context.Context, addr string) (*smtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: s.settings.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	var err error
	if s.settings.TLSMode == "tls" {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		dialer := &net.Dialer{}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.settings.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	if s.settings.TLSMode == "starttls" || s.settings.TLSMode == "" {
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return client, nil
}

func buildMessage(from string, msg Message) string {
	lines := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		msg.HTML,
	}
	return strings.Join(lines, "\r\n")
}
