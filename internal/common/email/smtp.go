package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// SMTPSender delivers mail through a relay with optional STARTTLS and
// PLAIN auth.
type SMTPSender struct {
	config SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	s := &SMTPSender{config: cfg}
	if cfg.UseTLS {
		s.send = s.sendWithTLS
	} else {
		s.send = smtp.SendMail
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled before sending email: %w", err)
	}

	messageID := generateMessageID(msg.To, s.config.Host)
	body := buildMIME(msg, messageID)

	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if err := s.send(addr, auth, msg.From, []string{msg.To}, []byte(body)); err != nil {
		return "", err
	}
	return messageID, nil
}

func (s *SMTPSender) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}
